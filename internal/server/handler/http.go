// Package handler builds the HTTP routing tree of the callback server.
package handler

import (
	"net/http"
	"time"

	"github.com/brizzai/discord-verify/internal/auth"
	"github.com/brizzai/discord-verify/internal/auth/middleware"
	"github.com/brizzai/discord-verify/internal/config"
	"github.com/brizzai/discord-verify/internal/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// MCPPath is where the MCP endpoint is mounted when enabled
const MCPPath = "/mcp"

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	config *config.Config
	auth   *auth.Service
	mcp    http.Handler
}

// NewHandler creates a new HTTP handler. mcpHandler may be nil.
func NewHandler(cfg *config.Config, authSvc *auth.Service, mcpHandler http.Handler) *Handler {
	return &Handler{
		config: cfg,
		auth:   authSvc,
		mcp:    mcpHandler,
	}
}

// CreateHTTPHandler creates an HTTP handler with the appropriate middleware stack.
func (h *Handler) CreateHTTPHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(chimw.Recoverer)

	h.auth.RegisterRoutes(r)
	logger.Info("Registered OAuth callback routes")

	if h.mcp != nil {
		r.With(middleware.RequireToken(h.config.MCP.Token)).Handle(MCPPath, h.mcp)
		if h.config.MCP.Token == "" {
			logger.Warn("MCP endpoint mounted without authentication", zap.String("path", MCPPath))
		} else {
			logger.Info("MCP endpoint mounted", zap.String("path", MCPPath))
		}
	}

	return r
}

// LoggingMiddleware logs information about each incoming request
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		// the query string carries the authorization code, so only the path is logged
		logger.Info("HTTP Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.Int("status", rw.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("user_agent", r.UserAgent()),
		)
	})
}

// responseWriter captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming MCP responses working through the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
