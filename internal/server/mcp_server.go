package server

import (
	"github.com/brizzai/discord-verify/internal/config"
	"github.com/brizzai/discord-verify/internal/logger"
	"github.com/brizzai/discord-verify/internal/server/tool"
	"github.com/brizzai/discord-verify/internal/store"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const mcpServerName = "discord-verify"

// NewMCPServer creates the MCP server exposing the credential store as read-only tools
func NewMCPServer(st store.Store) *mcpserver.MCPServer {
	version := config.Version()
	s := mcpserver.NewMCPServer(
		mcpServerName,
		version,
		mcpserver.WithToolCapabilities(false),
	)

	tool.NewHandler(st).Register(s)
	logger.Debug("Registered MCP tools", zap.String("version", version))
	return s
}
