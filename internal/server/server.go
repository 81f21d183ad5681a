// Package server exposes the export pipeline over HTTP.
//
// The API mirrors the CLI: upload a template once, then request single
// or batch exports against it. Templates live in a pluggable store
// (memory, file, or redis) with a TTL; artifacts are streamed back in the
// response and never persisted server-side.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mkoeppel/certpress/pkg/config"
	"github.com/mkoeppel/certpress/pkg/pipeline"
	"github.com/mkoeppel/certpress/pkg/store"
)

// Server hosts the certificate export API.
type Server struct {
	cfg    config.Config
	store  store.Store
	runner *pipeline.Runner
	logger *log.Logger
}

// New creates a server backed by the given template store.
func New(cfg config.Config, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:    cfg,
		store:  st,
		runner: pipeline.NewRunner(logger),
		logger: logger,
	}
}

// Router builds the HTTP route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/assets", s.handleUploadAsset)
		r.Post("/render", s.handleRender)
		r.Post("/batch", s.handleBatch)
	})
	return r
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Infof("Listening on %s", s.cfg.Server.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

// logRequests logs each request with method, path, and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debugf("%s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(),
			time.Since(start).Round(time.Millisecond))
	})
}

// NewStore builds the configured template store backend.
func NewStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Server.Store {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "file":
		dir := cfg.Server.StoreDir
		if dir == "" {
			cacheDir, err := os.UserCacheDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(cacheDir, "certpress", "templates")
		}
		return store.NewFileStore(dir)
	case "redis":
		return store.NewRedisStore(ctx, store.RedisConfig{Addr: cfg.Server.RedisAddr})
	default:
		return nil, errors.New("unknown store backend: " + cfg.Server.Store)
	}
}
