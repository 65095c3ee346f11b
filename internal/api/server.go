package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// ServerConfig holds configuration for the daemon's HTTP listener
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns sensible defaults for server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "",
		Port:            8080,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second, // SSE streams clear their own deadline
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Server serves the daemon API. Listen binds the address up front so bind
// errors surface before the daemon reports itself started and Addr reports
// the real port when Port is 0.
type Server struct {
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
	config   ServerConfig
}

// NewServer creates a new API server
func NewServer(handler http.Handler, config ServerConfig, logger *slog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:              net.JoinHostPort(config.Host, fmt.Sprint(config.Port)),
			Handler:           handler,
			ReadTimeout:       config.ReadTimeout,
			ReadHeaderTimeout: config.ReadTimeout,
			WriteTimeout:      config.WriteTimeout,
			IdleTimeout:       config.IdleTimeout,
		},
		logger: logger.With(slog.String("component", "api")),
		config: config,
	}
}

// Listen binds the configured address
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.server.Addr, err)
	}
	s.listener = ln
	return nil
}

// Serve handles API requests until Shutdown. It binds first if Listen was
// not called.
func (s *Server) Serve() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.logger.Info("daemon API listening", slog.String("addr", s.Addr()))

	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones. Event
// streams must be closed first or they hold shutdown open until the timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("daemon API shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.logger.Info("daemon API stopped")
	return nil
}

// Addr returns the bound address once listening, otherwise the configured one
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}
