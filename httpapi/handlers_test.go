package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"bell-registry/auth"
	"bell-registry/domain"
	"bell-registry/domain/event"
	"bell-registry/errors"
	"bell-registry/mocks"
	"bell-registry/observability"
	"bell-registry/realtime"
	"bell-registry/services"
)

type nopSink struct{}

func (nopSink) Send(event.StreamEvent) error { return nil }

type serverFixture struct {
	handler     http.Handler
	authService *mocks.MockIAuthService
	messaging   *mocks.MockIMessagingService
	registry    *realtime.ConnectionRegistry
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	auth.SetSigningKey("handlers-test-secret")
	ctrl := gomock.NewController(t)
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	authService := mocks.NewMockIAuthService(ctrl)
	messaging := mocks.NewMockIMessagingService(ctrl)
	registry := realtime.NewConnectionRegistry()
	stats := observability.NewStatsProvider(log, registry)
	server := NewServer(log, authService, messaging, registry, stats, 50*time.Millisecond)
	return &serverFixture{
		handler:     server.Handler(),
		authService: authService,
		messaging:   messaging,
		registry:    registry,
	}
}

func (f *serverFixture) tokenFor(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, role, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func (f *serverFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target string, body any) *http.Request {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAuthenticatedRoutes_RejectMissingToken(t *testing.T) {
	require := require.New(t)

	// Given a server and no credentials
	fixture := newServerFixture(t)

	// When hitting each protected route
	routes := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/messages/stream"},
		{http.MethodPost, "/api/messages"},
		{http.MethodGet, "/api/conversations/"},
		{http.MethodPost, "/api/conversations/"},
		{http.MethodGet, "/api/conversations/conv-1/messages"},
		{http.MethodPost, "/api/conversations/conv-1/end"},
		{http.MethodGet, "/api/ops/stats"},
	}
	for _, route := range routes {
		rec := fixture.do(httptest.NewRequest(route.method, route.target, nil))

		// Then every one of them answers 401
		require.Equal(http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.target)
	}
}

func TestAuthenticate_RejectsGarbageToken(t *testing.T) {
	require := require.New(t)

	// Given a request carrying a token the server never issued
	fixture := newServerFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/conversations/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	// When the request is served
	rec := fixture.do(req)

	// Then it is refused
	require.Equal(http.StatusUnauthorized, rec.Code)
}

func TestRegister_ReturnsTokenOnSuccess(t *testing.T) {
	require := require.New(t)

	// Given a registration the auth service accepts
	fixture := newServerFixture(t)
	fixture.authService.EXPECT().
		Register("carol@example.com", "S3cure!pass", domain.RoleClient).
		Return(services.Token("issued-token"), nil)

	// When registering
	rec := fixture.do(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "carol@example.com",
		"password": "S3cure!pass",
		"role":     "CLIENT",
	}))

	// Then the issued token comes back with a created status
	require.Equal(http.StatusCreated, rec.Code)
	var body tokenResponse
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal("issued-token", body.Token)
}

func TestRegister_MapsDuplicateEmailToConflict(t *testing.T) {
	require := require.New(t)

	// Given an email that already has an account
	fixture := newServerFixture(t)
	fixture.authService.EXPECT().
		Register(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(services.Token(""), errors.ErrUserAlreadyExists)

	// When registering again
	rec := fixture.do(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "carol@example.com",
		"password": "S3cure!pass",
		"role":     "CLIENT",
	}))

	// Then the caller gets a conflict
	require.Equal(http.StatusConflict, rec.Code)
}

func TestLogin_MapsBadCredentialsToUnauthorized(t *testing.T) {
	require := require.New(t)

	// Given credentials the auth service rejects
	fixture := newServerFixture(t)
	fixture.authService.EXPECT().
		Login("carol@example.com", "wrong").
		Return(services.Token(""), errors.ErrInvalidCredentials)

	// When logging in
	rec := fixture.do(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "carol@example.com",
		"password": "wrong",
	}))

	// Then the caller gets an unauthorized, not a 404
	require.Equal(http.StatusUnauthorized, rec.Code)
}

func TestSendMessage_ReturnsCreatedMessage(t *testing.T) {
	require := require.New(t)

	// Given an authenticated client and a service that accepts the send
	fixture := newServerFixture(t)
	created := domain.Message{
		ID:             "msg-1",
		ConversationID: "conv-1",
		SenderID:       "client-1",
		Content:        "hello",
		CreatedAt:      time.Now().UTC(),
	}
	fixture.messaging.EXPECT().
		SendMessage(gomock.Any(), "client-1", "conv-1", "hello").
		Return(created, nil)

	req := jsonRequest(http.MethodPost, "/api/messages", map[string]string{
		"conversationId": "conv-1",
		"content":        "hello",
	})
	req.Header.Set("Authorization", "Bearer "+fixture.tokenFor(t, "client-1", domain.RoleClient))

	// When sending
	rec := fixture.do(req)

	// Then the stored message comes back
	require.Equal(http.StatusCreated, rec.Code)
	var body domain.Message
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal("msg-1", body.ID)
	require.Equal("hello", body.Content)
}

func TestSendMessage_RejectsMissingFields(t *testing.T) {
	require := require.New(t)

	// Given an authenticated caller and a body without content
	fixture := newServerFixture(t)
	req := jsonRequest(http.MethodPost, "/api/messages", map[string]string{
		"conversationId": "conv-1",
	})
	req.Header.Set("Authorization", "Bearer "+fixture.tokenFor(t, "client-1", domain.RoleClient))

	// When sending
	rec := fixture.do(req)

	// Then validation fails before the service is touched
	require.Equal(http.StatusBadRequest, rec.Code)
}

func TestSendMessage_MapsPermissionErrors(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"unknown conversation", errors.ErrConversationNotFound, http.StatusNotFound},
		{"ended conversation", errors.ErrConversationEnded, http.StatusForbidden},
		{"professional before client wrote", errors.ErrAwaitingClientMessage, http.StatusForbidden},
		{"storage failure", fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)

			// Given a service that refuses the send
			fixture := newServerFixture(t)
			fixture.messaging.EXPECT().
				SendMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				Return(domain.Message{}, tc.serviceErr)

			req := jsonRequest(http.MethodPost, "/api/messages", map[string]string{
				"conversationId": "conv-1",
				"content":        "hello",
			})
			req.Header.Set("Authorization", "Bearer "+fixture.tokenFor(t, "pro-1", domain.RoleProfessional))

			// When sending
			rec := fixture.do(req)

			// Then the sentinel maps to its HTTP status
			require.Equal(tc.wantStatus, rec.Code)
		})
	}
}

func TestListConversations_ReturnsEmptyArrayNotNull(t *testing.T) {
	require := require.New(t)

	// Given a caller with no conversations
	fixture := newServerFixture(t)
	fixture.messaging.EXPECT().
		ListConversations("client-1").
		Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/", nil)
	req.Header.Set("Authorization", "Bearer "+fixture.tokenFor(t, "client-1", domain.RoleClient))

	// When listing
	rec := fixture.do(req)

	// Then the body is a JSON array, never null
	require.Equal(http.StatusOK, rec.Code)
	require.JSONEq("[]", rec.Body.String())
}

func TestGetMessages_PassesCursorThrough(t *testing.T) {
	require := require.New(t)

	// Given a second page request
	fixture := newServerFixture(t)
	cursor := "msg:conv-1:0000000000000000042:abc"
	next := "msg:conv-1:0000000000000000017:def"
	fixture.messaging.EXPECT().
		GetMessages("client-1", "conv-1", &cursor).
		Return([]domain.Message{{ID: "msg-2"}}, &next, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/conversations/conv-1/messages?cursor="+cursor, nil)
	req.Header.Set("Authorization", "Bearer "+fixture.tokenFor(t, "client-1", domain.RoleClient))

	// When fetching
	rec := fixture.do(req)

	// Then the page and the continuation cursor come back
	require.Equal(http.StatusOK, rec.Code)
	var page messagesPage
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(page.Messages, 1)
	require.NotNil(page.Cursor)
	require.Equal(next, *page.Cursor)
}

func TestEndConversation_ReturnsNoContent(t *testing.T) {
	require := require.New(t)

	// Given an active conversation owned by the caller
	fixture := newServerFixture(t)
	fixture.messaging.EXPECT().
		EndConversation(gomock.Any(), "client-1", "conv-1").
		Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/conversations/conv-1/end", nil)
	req.Header.Set("Authorization", "Bearer "+fixture.tokenFor(t, "client-1", domain.RoleClient))

	// When ending it
	rec := fixture.do(req)

	// Then the call succeeds with no body
	require.Equal(http.StatusNoContent, rec.Code)
	require.Empty(rec.Body.String())
}

func TestOpsStats_ReportsRegistryGauges(t *testing.T) {
	require := require.New(t)

	// Given two registered connections for one user
	fixture := newServerFixture(t)
	fixture.registry.Register("client-1", nopSink{})
	fixture.registry.Register("client-1", nopSink{})

	req := httptest.NewRequest(http.MethodGet, "/api/ops/stats", nil)
	req.Header.Set("Authorization", "Bearer "+fixture.tokenFor(t, "client-1", domain.RoleClient))

	// When fetching the stats
	rec := fixture.do(req)

	// Then the gauges reflect the registry
	require.Equal(http.StatusOK, rec.Code)
	var stats observability.Stats
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(1, stats.ConnectedUsers)
	require.Equal(2, stats.OpenConnections)
}
