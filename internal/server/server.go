// Package server runs the OAuth callback HTTP server and the optional MCP endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/brizzai/discord-verify/internal/auth"
	"github.com/brizzai/discord-verify/internal/config"
	"github.com/brizzai/discord-verify/internal/logger"
	"github.com/brizzai/discord-verify/internal/server/handler"
	"github.com/brizzai/discord-verify/internal/store"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server owns the listening socket and the http.Server serving the routes
type Server struct {
	config     *config.Config
	httpServer *http.Server
	listener   net.Listener
	errChan    chan error
}

// NewServer wires the routes. Nothing is bound until Start.
func NewServer(cfg *config.Config, authSvc *auth.Service, st store.Store) *Server {
	var mcpHandler http.Handler
	if cfg.MCP.Enabled {
		mcpHandler = mcpserver.NewStreamableHTTPServer(NewMCPServer(st))
	}

	h := handler.NewHandler(cfg, authSvc, mcpHandler)
	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:    cfg.Server.Addr(),
			Handler: h.CreateHTTPHandler(),
		},
		errChan: make(chan error, 1),
	}
}

// Handler exposes the routing tree, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the bound address once Start succeeded
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Start binds the port synchronously so that a busy port fails startup, then serves in the background.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln

	go func() {
		defer close(s.errChan)
		logger.Info("OAuth server listening",
			zap.String("address", ln.Addr().String()),
			zap.Bool("mcp", s.config.MCP.Enabled),
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", zap.Error(err))
			s.errChan <- fmt.Errorf("server error: %w", err)
		}
	}()
	return nil
}

// Errors reports a failure of the serve loop after Start returned
func (s *Server) Errors() <-chan error {
	return s.errChan
}

// Stop drains in-flight requests for at most server.shutdown_timeout.
func (s *Server) Stop(ctx context.Context) error {
	timeout := s.config.Server.ShutdownTimeout
	logger.Info("Shutting down server", zap.Duration("timeout", timeout))

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Module provides the callback server and ties it to the application lifecycle
var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(func(lc fx.Lifecycle, shutdowner fx.Shutdowner, s *Server) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := s.Start(ctx); err != nil {
					return err
				}
				go func() {
					if err, ok := <-s.Errors(); ok && err != nil {
						_ = shutdowner.Shutdown(fx.ExitCode(1))
					}
				}()
				return nil
			},
			OnStop: s.Stop,
		})
	}),
)
