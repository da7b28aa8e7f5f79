package mcp

import (
	"context"
	"net/http"

	"github.com/2beens/gymplan/internal/auth"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var (
	toolListTabs = mcp.NewTool("list_tabs",
		mcp.WithDescription("Returns the tabs of the workout plan (id, title, whether it is the active tab, number of items)."),
	)

	toolGetTabWorkout = mcp.NewTool("get_tab_workout",
		mcp.WithDescription("Returns the ordered workout items of one tab: trainings and intervals with label, sets, reps and interval seconds."),
		mcp.WithString("tab_id", mcp.Required(), mcp.Description("Tab id, as returned by list_tabs")),
	)

	toolGetHistoryForDate = mcp.NewTool("get_history_for_date",
		mcp.WithDescription("Returns the training records (exercise, sets, reps, weight) logged on one calendar day."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date (YYYY-MM-DD)")),
	)
)

// NewServer builds the MCP server with the plan and history tools.
// Used both over stdio (cmd/plan_mcp) and mounted at /mcp on the backend.
func NewServer(service contextService, version string) *server.MCPServer {
	h := NewHandler(service)
	s := server.NewMCPServer("gymplan", version,
		server.WithToolCapabilities(false),
		server.WithInstructions("gymplan workout data. List plan tabs, read the workout of a tab, and read logged training history. All data is scoped to the signed-in user."),
	)

	s.AddTools(
		server.ServerTool{Tool: toolListTabs, Handler: h.ListTabsTool()},
		server.ServerTool{Tool: toolGetTabWorkout, Handler: h.GetTabWorkoutTool()},
		server.ServerTool{Tool: toolGetHistoryForDate, Handler: h.GetHistoryForDateTool()},
	)

	return s
}

// NewHTTPHandler serves the MCP server over streamable HTTP. The user comes from
// the auth middleware in front of it.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if user, ok := auth.UserFromContext(r.Context()); ok {
				return auth.WithUser(ctx, user)
			}
			return ctx
		}),
	)
}

// ServeStdio runs the MCP server on stdin/stdout on behalf of userID.
func ServeStdio(s *server.MCPServer, userID string) error {
	return server.ServeStdio(s,
		server.WithStdioContextFunc(func(ctx context.Context) context.Context {
			return auth.WithUser(ctx, &auth.User{UID: userID})
		}),
	)
}
