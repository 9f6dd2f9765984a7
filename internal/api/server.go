// Package api provides the HTTP API server and handlers for the Bookshelf catalog.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/bookshelf/internal/sse"
	"github.com/listenupapp/bookshelf/internal/store"
	"github.com/listenupapp/bookshelf/internal/store/sqlite"
)

// Options configures the HTTP surface.
type Options struct {
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
	// MaxUploadBytes bounds a multipart request body.
	MaxUploadBytes int64
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services   *Services
	stores     *Stores
	sseManager *sse.Manager
	sseHandler *sse.Handler
	router     *chi.Mux
	api        huma.API
	opts       Options
	logger     *slog.Logger
}

// Stores are the databases the health check inspects. Either may be nil.
type Stores struct {
	Catalog *store.Store
	Blobs   *sqlite.Store
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, stores *Stores, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	if stores == nil {
		stores = &Stores{}
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}

	s := &Server{
		services:   services,
		stores:     stores,
		sseManager: sseManager,
		router:     chi.NewRouter(),
		opts:       opts,
		logger:     logger,
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, logger)
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Bookshelf API", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerCategoryRoutes()
	s.registerAccountRoutes()
	s.registerSettingsRoutes()

	// Multipart uploads, downloads and the event stream bypass huma.
	s.router.Group(func(r chi.Router) {
		r.Use(s.sessionRequired)

		r.Post("/api/v1/books/form", s.handleCreateBookForm)
		r.Put("/api/v1/books/{id}/form", s.handleUpdateBookForm)
		r.Get("/api/v1/books/{id}/pdf", s.handleDownloadPDF)
		r.Get("/api/v1/books/{id}/cover", s.handleGetCover)
		r.Put("/api/v1/account/avatar", s.handleUploadAvatar)
		r.Get("/api/v1/account/avatar", s.handleGetAvatar)

		if s.sseHandler != nil {
			r.Get("/api/v1/events", s.sseHandler.ServeHTTP)
		}
	})
}
