// Package server is the pagepress dev server: it serves the asset directory
// read-only, exposes pipeline status and artifacts as JSON, and pushes live
// reload events after every rendered revision.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"

	"git.home.luguber.info/inful/pagepress/internal/server/handlers"
	"git.home.luguber.info/inful/pagepress/internal/server/middleware"
)

// DefaultShutdownGrace bounds graceful shutdown.
const DefaultShutdownGrace = 5 * time.Second

// Options configures a Server.
type Options struct {
	Addr string
	// AssetDir is served at /.
	AssetDir string
	// ArtifactDir holds the theme artifacts decoded by /api/artifacts.
	ArtifactDir string
	// DevDir is served at /dev/. Usually the process working directory.
	DevDir  string
	Status  handlers.StatusSource
	Journal handlers.RevisionSource
	// LiveReload enables /livereload and script injection when non-nil.
	LiveReload *LiveReloadHub
	// Metrics is mounted at /metrics when non-nil.
	Metrics       http.Handler
	ShutdownGrace time.Duration
	Logger        *slog.Logger
}

// Server wraps an http.Server with the pagepress routes.
type Server struct {
	opts    Options
	handler http.Handler
	srv     *http.Server
}

// New builds the router. Nothing listens until Start.
func New(opts Options) (*Server, error) {
	if opts.Status == nil {
		return nil, errors.New("server: status source is required")
	}
	if opts.AssetDir == "" {
		return nil, errors.New("server: asset dir is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = DefaultShutdownGrace
	}
	if opts.ArtifactDir == "" {
		opts.ArtifactDir = opts.AssetDir
	}
	s := &Server{opts: opts}
	s.handler = s.routes()
	// SSE connections are long lived, so no write timeout.
	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Chain(s.opts.Logger))
	r.Use(middleware.CORS)

	api := handlers.NewAPIHandlers(s.opts.Status, s.opts.Journal, s.opts.ArtifactDir, s.opts.Logger)

	if hub := s.opts.LiveReload; hub != nil {
		r.Get("/livereload", hub.ServeHTTP)
		r.Get("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write([]byte(LiveReloadScript))
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(gzipMiddleware)

		r.Get("/api/status", api.HandleStatus)
		r.Get("/api/revisions", api.HandleRevisions)
		r.Get("/api/artifacts/{name}", api.HandleArtifact)
		if s.opts.Metrics != nil {
			r.Handle("/metrics", s.opts.Metrics)
		}

		if s.opts.DevDir != "" {
			dev := http.StripPrefix("/dev", http.FileServer(http.Dir(s.opts.DevDir)))
			r.Handle("/dev", http.RedirectHandler("/dev/", http.StatusMovedPermanently))
			r.Handle("/dev/*", middleware.ReadOnly(dev))
		}

		var files http.Handler = http.FileServer(http.Dir(s.opts.AssetDir))
		if s.opts.LiveReload != nil {
			files = injectLiveReload(files)
		}
		r.Handle("/*", middleware.ReadOnly(files))
	})
	return r
}

func gzipMiddleware(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// Start listens on Options.Addr and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.opts.Logger.Info("HTTP server listening",
		slog.String("addr", ln.Addr().String()),
		slog.String("asset_dir", s.opts.AssetDir),
		slog.Bool("live_reload", s.opts.LiveReload != nil))

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.opts.LiveReload != nil {
		s.opts.LiveReload.Shutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownGrace)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.opts.Logger.Info("HTTP server stopped")
	return nil
}
