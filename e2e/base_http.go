package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"

	"bell-registry/auth"
	"bell-registry/httpapi"
	"bell-registry/moderation"
	"bell-registry/observability"
	"bell-registry/realtime"
	"bell-registry/repositories"
	"bell-registry/services"
)

// BaseHTTPSuite boots the whole stack in process: an in-memory store, the
// real services, the connection registry and the HTTP surface on an
// ephemeral port. Scenarios talk to it the way a deployed client would.
type BaseHTTPSuite struct {
	suite.Suite
	Config Config

	db       *badger.DB
	server   *httptest.Server
	Registry *realtime.ConnectionRegistry
}

// SetupSuite loads the environment configuration and starts the server
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	heartbeat, err := time.ParseDuration(s.Config.Heartbeat)
	s.Require().NoError(err)

	auth.SetSigningKey("e2e-signing-key")

	s.db, err = badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	s.Require().NoError(err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	userRepo := repositories.NewUserRepository(s.db)
	conversationRepo := repositories.NewConversationRepository(s.db)
	messageRepo := repositories.NewMessageRepository(s.db, log, nil)

	screener, err := moderation.NewScreener([]string{"whatsapp", "telegram"}, '*')
	s.Require().NoError(err)

	s.Registry = realtime.NewConnectionRegistry()
	publisher := realtime.NewFanoutPublisher(log, s.Registry)
	messaging := services.NewMessagingService(log, conversationRepo, messageRepo,
		userRepo, publisher, &screener)
	authService := services.NewAuthService(userRepo, time.Hour)
	stats := observability.NewStatsProvider(log, s.Registry)

	server := httpapi.NewServer(log, authService, messaging, s.Registry, stats, heartbeat)
	s.server = httptest.NewServer(server.Handler())
}

func (s *BaseHTTPSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.db != nil {
		s.Require().NoError(s.db.Close())
	}
}

func (s *BaseHTTPSuite) BaseURL() string {
	return s.server.URL
}

// Step prints a colorized header for a scenario step in logs
func (s *BaseHTTPSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// PostJSON sends body as JSON, optionally authenticated, and decodes the
// response into out when out is non-nil. It returns the HTTP status.
func (s *BaseHTTPSuite) PostJSON(path, token string, body, out any) int {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, bytes.NewReader(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.debugDump(http.MethodPost, path, payload, raw)

	if out != nil && len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, out), "body: %s", raw)
	}
	return resp.StatusCode
}

// GetJSON fetches path with the given token and decodes the response.
func (s *BaseHTTPSuite) GetJSON(path, token string, out any) int {
	req, err := http.NewRequest(http.MethodGet, s.server.URL+path, nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.debugDump(http.MethodGet, path, nil, raw)

	if out != nil && len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, out), "body: %s", raw)
	}
	return resp.StatusCode
}

// RegisterUser creates an account and returns its session token plus the
// user id carried inside it.
func (s *BaseHTTPSuite) RegisterUser(email, password, role string) (token, userID string) {
	var body struct {
		Token string `json:"token"`
	}
	status := s.PostJSON("/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
		"role":     role,
	}, &body)
	s.Require().Equal(http.StatusCreated, status)
	s.Require().NotEmpty(body.Token)

	claims, err := auth.ValidateToken(body.Token)
	s.Require().NoError(err)
	return body.Token, claims.UserID
}

func (s *BaseHTTPSuite) debugDump(method, path string, request, response []byte) {
	if !s.Config.DebugJSON {
		return
	}
	var lines []string
	lines = append(lines, fmt.Sprintf("%s %s", method, path))
	if len(request) > 0 {
		lines = append(lines, "--> "+string(request))
	}
	if len(response) > 0 {
		lines = append(lines, "<-- "+string(bytes.TrimSpace(response)))
	}
	s.T().Log(strings.Join(lines, "\n"))
}
