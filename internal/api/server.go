// Package api exposes the persistence gateway over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Rani367/Hativon-sub000/internal/auth"
	"github.com/Rani367/Hativon-sub000/internal/config"
	"github.com/Rani367/Hativon-sub000/internal/gateway"
	"github.com/Rani367/Hativon-sub000/internal/routes"
	"github.com/Rani367/Hativon-sub000/internal/sse"
)

var apiLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	apiLogger = l
}

type Server struct {
	gateway  *gateway.Gateway
	provider auth.AuthProvider
	clients  *sse.SSEClients

	maxBodyBytes   int64
	requestTimeout time.Duration

	// ed25519 is set when the challenge endpoints should be mounted.
	ed25519 *auth.Ed25519AuthProvider
}

func NewServer(gw *gateway.Gateway, provider auth.AuthProvider, clients *sse.SSEClients, cfg config.ServerConfig) *Server {
	s := &Server{
		gateway:        gw,
		provider:       provider,
		clients:        clients,
		maxBodyBytes:   cfg.MaxBodyBytes,
		requestTimeout: cfg.RequestTimeout.Std(),
	}
	if p, ok := provider.(*auth.Ed25519AuthProvider); ok {
		s.ed25519 = p
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = 2 << 20
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = 30 * time.Second
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(secureHeaders)
	r.Use(s.provider.WithHeaderAuthorization())

	r.Get(routes.Healthz, handleHealthCheck)

	if s.ed25519 != nil {
		auth.RegisterEd25519AuthRoutes(r, s.ed25519)
	}

	r.Route(routes.Drafts, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout))
			r.Get("/", s.handleListDrafts)
			r.Post(routes.SaveDraft, s.handleSaveDraft)
			r.Get(routes.Draft, s.handleGetDraft)
			r.Delete(routes.Draft, s.handleDeleteDraft)
		})
		// Streams outlive the request timeout.
		r.Get(routes.DraftEvents, s.handleDraftEvents)
	})

	return r
}

func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(config.HCType, config.CTypeText)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
