package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/brizzai/discord-verify/internal/auth/models"
	"github.com/brizzai/discord-verify/internal/server/tool"
	"github.com/brizzai/discord-verify/internal/store"
	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

func seededStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.OpenFile(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, st.Put(ctx, models.NewAuthorizationRecord(
		models.Profile{ID: "42", Username: "alice", Email: "a@x.com"},
		[]models.Guild{{ID: "1", Name: "Yellow Team"}, {ID: "2", Name: "Gophers"}},
		base,
	)))
	require.NoError(t, st.Put(ctx, models.NewAuthorizationRecord(
		models.Profile{ID: "7", Username: "bob"},
		nil,
		base.Add(time.Hour),
	)))
	return st
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestTool_GetAuthorization(t *testing.T) {
	h := tool.NewHandler(seededStore(t))

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		contains  []string
	}{
		{
			name:     "authorized user",
			args:     map[string]any{"user_id": "42"},
			contains: []string{`"user_id":"42"`, `"username":"alice"`, `"Yellow Team"`, `"authorizedAt":"2026-10-16T08:00:00Z"`},
		},
		{
			name:      "unknown user",
			args:      map[string]any{"user_id": "999"},
			wantError: true,
			contains:  []string{"not authorized yet"},
		},
		{
			name:      "missing argument",
			args:      map[string]any{},
			wantError: true,
			contains:  []string{"user_id is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.GetAuthorization(context.Background(), callRequest("get_authorization", tt.args))
			require.NoError(t, err)
			assert.Equal(t, tt.wantError, res.IsError)

			text := resultText(t, res)
			for _, s := range tt.contains {
				assert.Contains(t, text, s)
			}
		})
	}
}

func TestTool_ListAuthorizations(t *testing.T) {
	h := tool.NewHandler(seededStore(t))

	tests := []struct {
		name    string
		args    map[string]any
		wantIDs []string
	}{
		{name: "newest first", args: map[string]any{}, wantIDs: []string{"7", "42"}},
		{name: "limit", args: map[string]any{"limit": float64(1)}, wantIDs: []string{"7"}},
		{name: "non-positive limit ignored", args: map[string]any{"limit": float64(0)}, wantIDs: []string{"7", "42"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.ListAuthorizations(context.Background(), callRequest("list_authorizations", tt.args))
			require.NoError(t, err)
			require.False(t, res.IsError)

			var rows []tool.Summary
			require.NoError(t, jsoniter.UnmarshalFromString(resultText(t, res), &rows))

			ids := make([]string, len(rows))
			for i, r := range rows {
				ids[i] = r.UserID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestTool_ListAuthorizations_Summary(t *testing.T) {
	h := tool.NewHandler(seededStore(t))

	res, err := h.ListAuthorizations(context.Background(), callRequest("list_authorizations", nil))
	require.NoError(t, err)

	var rows []tool.Summary
	require.NoError(t, jsoniter.UnmarshalFromString(resultText(t, res), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, tool.Summary{
		UserID:       "42",
		Username:     "alice",
		AuthorizedAt: "2026-10-16T08:00:00Z",
		GuildCount:   2,
	}, rows[1])
}

// TestMCPServer_Client drives the tools through a real MCP client session
func TestMCPServer_Client(t *testing.T) {
	ts := mcpserver.NewTestServer(NewMCPServer(seededStore(t)))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sseClient, err := client.NewSSEMCPClient(ts.URL + "/sse")
	require.NoError(t, err, "Failed to create SSE client")
	defer sseClient.Close()

	require.NoError(t, sseClient.Start(ctx), "Failed to start client")

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.Capabilities = mcp.ClientCapabilities{}
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}

	initResult, err := sseClient.Initialize(ctx, initReq)
	require.NoError(t, err, "Failed to initialize client")
	assert.Equal(t, mcpServerName, initResult.ServerInfo.Name)

	t.Run("list tools", func(t *testing.T) {
		tools, err := sseClient.ListTools(ctx, mcp.ListToolsRequest{})
		require.NoError(t, err)

		names := make([]string, 0, len(tools.Tools))
		for _, tl := range tools.Tools {
			names = append(names, tl.Name)
		}
		assert.ElementsMatch(t, []string{"get_authorization", "list_authorizations"}, names)

		for _, tl := range tools.Tools {
			if tl.Name == "get_authorization" {
				assert.Contains(t, tl.InputSchema.Required, "user_id")
			}
		}
	})

	t.Run("call tool", func(t *testing.T) {
		res, err := sseClient.CallTool(ctx, callRequest("get_authorization", map[string]any{"user_id": "7"}))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Contains(t, resultText(t, res), `"username":"bob"`)
	})
}
