// Package tool provides the MCP tools that expose the credential store.
package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/brizzai/discord-verify/internal/logger"
	"github.com/brizzai/discord-verify/internal/store"
	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultListLimit = 50

// Summary is one row of list_authorizations
type Summary struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	AuthorizedAt string `json:"authorized_at"`
	GuildCount   int    `json:"guild_count"`
}

// Handler serves read-only tool calls against the store
type Handler struct {
	store store.Store
}

// NewHandler creates a new tool handler.
func NewHandler(st store.Store) *Handler {
	return &Handler{store: st}
}

// Register adds every tool to s
func (h *Handler) Register(s *mcpserver.MCPServer) {
	s.AddTool(mcp.NewTool("get_authorization",
		mcp.WithDescription("Returns the stored authorization record of a Discord user"),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Discord user id (snowflake)"),
		),
	), h.GetAuthorization)

	s.AddTool(mcp.NewTool("list_authorizations",
		mcp.WithDescription("Lists authorized users, most recent first"),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of rows (default %d)", defaultListLimit)),
		),
	), h.ListAuthorizations)
}

func (h *Handler) GetAuthorization(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, _ := request.GetArguments()["user_id"].(string)
	if userID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}

	rec, err := h.store.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError("not authorized yet"), nil
	}
	if err != nil {
		logger.Error("Tool call failed", zap.String("tool", "get_authorization"), zap.Error(err))
		return nil, fmt.Errorf("failed to read record %s: %w", userID, err)
	}

	out := struct {
		UserID string `json:"user_id"`
		models.AuthorizationRecord
	}{UserID: rec.UserID, AuthorizationRecord: rec}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *Handler) ListAuthorizations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := defaultListLimit
	if v, ok := request.GetArguments()["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	records, err := h.store.List(ctx)
	if err != nil {
		logger.Error("Tool call failed", zap.String("tool", "list_authorizations"), zap.Error(err))
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	if len(records) > limit {
		records = records[:limit]
	}

	rows := make([]Summary, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Summary{
			UserID:       rec.UserID,
			Username:     rec.Profile.Username,
			AuthorizedAt: rec.AuthorizedAt.UTC().Format(time.RFC3339),
			GuildCount:   len(rec.Guilds),
		})
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
