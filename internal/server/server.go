// HTTP server initialization and lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns default HTTP server configuration.
// WriteTimeout covers a full retry budget on a cold model: 3 attempts with
// 20s warm-up delays and 60s per-attempt timeouts.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         3006,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 4 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

// Server wraps the HTTP server.
type Server struct {
	config Config
	http   *http.Server
	logger *slog.Logger

	// abort cancels every request context once the drain deadline passes.
	abort context.CancelFunc
}

// NewServer creates a new HTTP server serving handler.
func NewServer(handler http.Handler, config Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	baseCtx, abort := context.WithCancel(context.Background())
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(config.Host, fmt.Sprint(config.Port)),
		Handler:           handler,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	return &Server{
		config: config,
		http:   httpServer,
		logger: logger,
		abort:  abort,
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string { return s.http.Addr }

// Start serves until Shutdown is called. A clean shutdown returns nil.
// Request contexts are not derived from ctx, so Shutdown can drain them.
// They are only canceled when the drain deadline passes.
func (s *Server) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting HTTP server", slog.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen: %w", err)
	}
	return nil
}

// Serve is Start on an existing listener, mainly for tests.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.logger.InfoContext(ctx, "starting HTTP server", slog.String("addr", l.Addr().String()))
	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server serve: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires. Requests still
// running at the deadline, typically generations waiting out a model warm-up,
// have their contexts canceled and their connections closed. That is logged,
// not returned, since the process is stopping normally.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.InfoContext(ctx, "shutting down server")
	defer s.abort()

	err := s.http.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("drain deadline reached, canceling in-flight requests")
		s.abort()
		if cerr := s.http.Close(); cerr != nil {
			return fmt.Errorf("server close error: %w", cerr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.InfoContext(ctx, "server shutdown complete")
	return nil
}
