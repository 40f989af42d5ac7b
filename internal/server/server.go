// Package server serves views over HTTP with optional live reload.
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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/leapview/internal/server/notifier"
	"github.com/leapstack-labs/leapview/internal/views"
	"golang.org/x/sync/errgroup"
)

// EventsPath is the live-reload event stream endpoint.
const EventsPath = "/_leapview/events"

const debounceDelay = 100 * time.Millisecond

// Server serves a views Set.
type Server struct {
	views    *views.Set
	port     int
	watch    bool
	logger   *slog.Logger
	notifier *notifier.Notifier
}

// Config holds configuration for the server.
type Config struct {
	Views  *views.Set
	Port   int
	Watch  bool // recompile changed views and push reload events
	Logger *slog.Logger
}

// New creates a server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		views:    cfg.Views,
		port:     cfg.Port,
		watch:    cfg.Watch,
		logger:   logger,
		notifier: notifier.New(),
	}
}

// Notifier returns the live-reload notifier.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Handler returns the HTTP handler serving views.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if s.watch {
		r.Get(EventsPath, s.handleEvents)
	}
	r.Get("/*", s.handleView)
	r.Head("/*", s.handleView)
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting server",
		slog.String("addr", fmt.Sprintf("http://localhost:%d", s.port)),
		slog.String("views", s.views.Dir()),
		slog.Bool("watch", s.watch))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchViews(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchViews invalidates changed views and, after a quiet period, tells
// live-reload clients.
func (s *Server) watchViews(ctx context.Context) error {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	err := s.views.Watch(ctx, func(path string) {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(debounceDelay, func() {
			s.logger.Debug("view changed, reloading clients",
				slog.String("file", path),
				slog.Int("clients", s.notifier.Len()))
			s.notifier.Broadcast(path)
		})
	})
	if err != nil {
		s.logger.Error("failed to watch views", slog.String("error", err.Error()))
		// keep serving without live reload
	}
	return nil
}
