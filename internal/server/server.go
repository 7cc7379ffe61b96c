// Package server implements the layout service: a small HTTP API that pages
// through the remote events API and returns masonry layouts.
//
// Routes:
//
//	GET  /healthz
//	GET  /v1/resources
//	GET  /v1/feeds/{resource}?id=&pages=&width=&refresh=
//	POST /v1/layout
//
// Errors are returned as {"error": {"code": "...", "message": "..."}} with
// the status from [errors.HTTPStatus].
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/mosaic/pkg/api"
	"github.com/matzehuels/mosaic/pkg/cache"
	"github.com/matzehuels/mosaic/pkg/config"
)

const (
	defaultMaxPages = 10
	requestTimeout  = 60 * time.Second
	shutdownTimeout = 10 * time.Second
	maxBodyBytes    = 1 << 20
)

// Options configures a [Server].
type Options struct {
	Client   *api.Client
	Cache    cache.Cache   // layout cache; nil disables it
	CacheTTL time.Duration // lifetime of cached layouts
	Layout   config.Layout // defaults for column width and gap
	MaxPages int           // upper bound for the pages query parameter
	Logger   *log.Logger
}

// Server is the layout service.
type Server struct {
	client   *api.Client
	cache    cache.Cache
	ttl      time.Duration
	keyer    cache.Keyer
	layout   config.Layout
	maxPages int
	logger   *log.Logger
	router   chi.Router
}

// New builds the service and its routes.
func New(opts Options) *Server {
	s := &Server{
		client:   opts.Client,
		cache:    opts.Cache,
		ttl:      opts.CacheTTL,
		keyer:    cache.NewDefaultKeyer(),
		layout:   opts.Layout,
		maxPages: opts.MaxPages,
		logger:   opts.Logger,
	}
	if s.cache == nil {
		s.cache = cache.NewNullCache()
	}
	if s.maxPages <= 0 {
		s.maxPages = defaultMaxPages
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.layout.ColumnWidth <= 0 {
		s.layout.ColumnWidth = config.Default().Layout.ColumnWidth
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/resources", s.handleResources)
		r.Get("/feeds/{resource}", s.handleFeed)
		r.Post("/layout", s.handleLayout)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, notFound(r.URL.Path))
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("layout service listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
