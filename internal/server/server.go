// Package server provides the HTTP API for etalase.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/etalase/internal/catalog"
	"github.com/hyperjump/etalase/internal/config"
	"github.com/hyperjump/etalase/internal/search"
	"go.uber.org/zap"
)

const defaultKeepAlive = 15 * time.Second

// Server is the HTTP server for the etalase API.
type Server struct {
	service   *search.Service
	catalog   *catalog.Holder
	config    *config.Config
	logger    *zap.Logger
	router    chi.Router
	server    *http.Server
	carts     *cartStore
	keepAlive time.Duration

	// ctx outlives requests; reindex builds run on it and stop with the server.
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	wg     sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithKeepAlive sets the interval between SSE keep-alive comments.
func WithKeepAlive(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.keepAlive = d
		}
	}
}

// NewServer creates a server with the given dependencies.
func NewServer(
	service *search.Service,
	holder *catalog.Holder,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		service:   service,
		catalog:   holder,
		config:    cfg,
		logger:    logger,
		carts:     newCartStore(),
		keepAlive: defaultKeepAlive,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// The event stream stays open, so it is kept out of the timeout and compression group.
	r.Get("/api/v1/status/events", s.handleStatusEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(middleware.Compress(5))

		r.Post("/api/v1/search", s.handleSearch)
		r.Get("/api/v1/items", s.handleListItems)
		r.Get("/api/v1/items/{id}", s.handleGetItem)
		r.Get("/api/v1/status", s.handleStatus)
		r.Post("/api/v1/reindex", s.handleReindex)

		r.Get("/api/v1/cart", s.handleGetCart)
		r.Delete("/api/v1/cart", s.handleClearCart)
		r.Post("/api/v1/cart/{id}", s.handleAddToCart)
		r.Patch("/api/v1/cart/{id}", s.handleUpdateCart)
		r.Delete("/api/v1/cart/{id}", s.handleRemoveFromCart)

		r.Get("/health", s.handleHealth)
	})
	return r
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop cancels background rebuilds and gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.wg.Wait()
	return err
}
