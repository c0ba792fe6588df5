// Package api provides the HTTP API server and handlers for Askboard.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/askboard/askboard-server/internal/http/response"
	"github.com/askboard/askboard-server/internal/sse"
	"github.com/askboard/askboard-server/internal/store"
	"github.com/askboard/askboard-server/internal/store/sqlite"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Options tune the HTTP layer. Nil rate limiters disable limiting.
type Options struct {
	AllowedOrigins   []string
	AuthRateLimiter  *RateLimiter
	WriteRateLimiter *RateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      *store.Store
	activityDB *sqlite.Store
	services   *Services
	sseManager *sse.Manager
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger

	authRateLimiter  *RateLimiter
	writeRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	st *store.Store,
	activityDB *sqlite.Store,
	services *Services,
	sseManager *sse.Manager,
	opts Options,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		store:            st,
		activityDB:       activityDB,
		services:         services,
		sseManager:       sseManager,
		router:           chi.NewRouter(),
		logger:           logger,
		authRateLimiter:  opts.AuthRateLimiter,
		writeRateLimiter: opts.WriteRateLimiter,
	}

	s.setupMiddleware(opts.AllowedOrigins)

	humaConfig := huma.DefaultConfig("Askboard API", Version)
	humaConfig.Info.Description = "Questions, answers and votes for the Askboard community."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(logger)

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures the middleware stack. The request ID and real
// IP must run before the logger.
func (s *Server) setupMiddleware(allowedOrigins []string) {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Last-Event-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	// Only JSON is compressed; the event stream must flush unbuffered.
	s.router.Use(middleware.Compress(5, "application/json"))
	s.router.Use(RateLimitMiddleware(s.authRateLimiter, s.writeRateLimiter, s.logger))

	if s.services != nil && s.services.Auth != nil {
		s.router.Use(authMiddleware(s.services.Auth))
	}

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found", s.logger)
	})
}

// setupRoutes registers every operation. Each register function belongs to
// the handler file for its resource.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerUserRoutes()
	s.registerQuestionRoutes()
	s.registerAnswerRoutes()
	s.registerTagRoutes()
	s.registerSearchRoutes()
	s.registerActivityRoutes()

	// Streaming bypasses huma: the body is not a single JSON document.
	if s.sseManager != nil {
		s.router.Get("/api/v1/events", sse.NewHandler(s.sseManager, s.logger).ServeHTTP)
	}
}
