// Package api provides the HTTP API server and handlers for the tracker client.
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

	"github.com/listenupapp/listenup-tracker/internal/collection"
	"github.com/listenupapp/listenup-tracker/internal/domain"
	"github.com/listenupapp/listenup-tracker/internal/lookup"
	"github.com/listenupapp/listenup-tracker/internal/ratelimit"
	"github.com/listenupapp/listenup-tracker/internal/search"
	"github.com/listenupapp/listenup-tracker/internal/sse"
)

// SeriesCache is the read side of the local series cache.
type SeriesCache interface {
	Count(ctx context.Context) (int, error)
	GetSeries(ctx context.Context, userID int) (domain.Series, error)
}

// Services groups the collaborators the handlers call into.
// Any field except Session may be nil.
type Services struct {
	Session *collection.Session
	Search  *search.Service
	Lookup  *lookup.Index
	Cache   SeriesCache
	SSE     *sse.Manager
}

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigins   []string
	SearchLimiter *ratelimit.Limiter // nil disables inbound search limiting
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services      *Services
	sseHandler    http.Handler
	searchLimiter *ratelimit.Limiter
	router        *chi.Mux
	api           huma.API
	logger        *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, sseHandler http.Handler, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		services:      services,
		sseHandler:    sseHandler,
		searchLimiter: opts.SearchLimiter,
		router:        router,
		logger:        logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("ListenUp Tracker API", "1.0.0")
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerCollectionRoutes()
	s.registerSearchRoutes()

	if sseHandler != nil {
		router.Get("/api/v1/collection/stream", sseHandler.ServeHTTP)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
}

// requestLogger logs one line per request through the structured logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
