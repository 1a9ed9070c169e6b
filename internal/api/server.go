// Package api exposes the Cineza services over HTTP. Routes are registered
// with huma on a chi router; every JSON body is wrapped by EnvelopeTransformer.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cineza/cineza-server/internal/http/response"
)

const (
	apiTitle   = "Cineza API"
	apiVersion = "1.0.0"
)

// Pinger reports whether the backing database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentCounter reports the number of indexed catalog documents.
type DocumentCounter interface {
	Count() (uint64, error)
}

// Options tunes the HTTP surface.
type Options struct {
	AllowedOrigins []string
	// AuthRatePerMinute and AuthBurst bound signup and login per client IP.
	AuthRatePerMinute int
	AuthBurst         int
}

// Server is the HTTP API server.
type Server struct {
	services        *Services
	db              Pinger
	index           DocumentCounter
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	stream          http.Handler
	clients         func() int
	authRateLimiter *RateLimiter
}

// NewServer builds the router and registers every route. stream serves the
// notification SSE endpoint; clients reports how many streams are open.
func NewServer(services *Services, db Pinger, index DocumentCounter, stream http.Handler, clients func() int, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AuthRatePerMinute <= 0 {
		opts.AuthRatePerMinute = 20
	}
	if opts.AuthBurst <= 0 {
		opts.AuthBurst = 10
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", searchSessionHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(authMiddleware(services.Auth))
	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", logger)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "method not allowed", logger)
	})

	s := &Server{
		services:        services,
		db:              db,
		index:           index,
		router:          router,
		logger:          logger,
		stream:          stream,
		clients:         clients,
		authRateLimiter: NewRateLimiter(opts.AuthRatePerMinute, time.Minute, opts.AuthBurst),
	}
	s.api = humachi.New(router, newHumaConfig())
	RegisterErrorHandler()

	s.registerRoutes()
	return s
}

func newHumaConfig() huma.Config {
	cfg := huma.DefaultConfig(apiTitle, apiVersion)
	cfg.Info.Description = "Social movie and TV catalog: discovery, reviews, follows, watchlists and notifications."
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	cfg.Transformers = append(cfg.Transformers, EnvelopeTransformer)
	return cfg
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerDiscoverRoutes()
	s.registerCatalogRoutes()
	s.registerReviewRoutes()
	s.registerUserRoutes()
	s.registerWatchlistRoutes()
	s.registerNotificationRoutes()

	if s.stream != nil {
		s.router.Get("/api/v1/notifications/stream", s.stream.ServeHTTP)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
