package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bell-registry/contract"
	"bell-registry/observability"
	"bell-registry/services"
)

// Server exposes the messaging notification layer over HTTP: the
// long-lived event stream, the message/conversation endpoints, and the
// auth endpoints that issue session tokens.
type Server struct {
	log               *slog.Logger
	authService       services.IAuthService
	messaging         services.IMessagingService
	registry          contract.IRegistry
	stats             *observability.StatsProvider
	heartbeatInterval time.Duration
}

func NewServer(
	log *slog.Logger,
	authService services.IAuthService,
	messaging services.IMessagingService,
	registry contract.IRegistry,
	stats *observability.StatsProvider,
	heartbeatInterval time.Duration,
) *Server {
	return &Server{
		log:               log,
		authService:       authService,
		messaging:         messaging,
		registry:          registry,
		stats:             stats,
		heartbeatInterval: heartbeatInterval,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.register)
		r.Post("/auth/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			// No chi timeout middleware here: the stream route is a
			// deliberately unbounded response.
			r.Get("/messages/stream", s.stream)
			r.Post("/messages", s.sendMessage)

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", s.startConversation)
				r.Get("/", s.listConversations)
				r.Get("/{conversationID}/messages", s.getMessages)
				r.Post("/{conversationID}/end", s.endConversation)
			})

			r.Get("/ops/stats", s.opsStats)
		})
	})
	return r
}
