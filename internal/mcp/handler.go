package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/gymplan/internal/auth"
	"github.com/2beens/gymplan/internal/history"
	"github.com/2beens/gymplan/internal/plan"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
)

var errNoUser = errors.New("no signed-in user")

// Handler parses tool input, calls the service and formats the tool result.
type Handler struct {
	service contextService
}

func NewHandler(service contextService) *Handler {
	return &Handler{
		service: service,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func userID(ctx context.Context) (string, error) {
	uid := auth.UserIDFromContext(ctx)
	if uid == "" {
		return "", errNoUser
	}
	return uid, nil
}

func (h *Handler) ListTabsTool() server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uid, err := userID(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		tabList, err := h.service.ListTabs(ctx, uid)
		if err != nil {
			log.Errorf("mcp list_tabs: %s", err)
			return mcp.NewToolResultError(fmt.Sprintf("Error listing tabs: %s", err)), nil
		}
		return jsonResult(tabList)
	}
}

func (h *Handler) GetTabWorkoutTool() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uid, err := userID(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		tabID, err := req.RequireString("tab_id")
		if err != nil || tabID == "" {
			return mcp.NewToolResultError("tab_id parameter is required"), nil
		}

		items, err := h.service.TabWorkout(ctx, uid, tabID)
		if err != nil {
			if errors.Is(err, plan.ErrTabNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("Tab %s not found", tabID)), nil
			}
			log.Errorf("mcp get_tab_workout [%s]: %s", tabID, err)
			return mcp.NewToolResultError(fmt.Sprintf("Error fetching workout: %s", err)), nil
		}
		return jsonResult(items)
	}
}

func (h *Handler) GetHistoryForDateTool() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uid, err := userID(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		date, err := req.RequireString("date")
		if err != nil {
			return mcp.NewToolResultError("date parameter is required"), nil
		}

		records, err := h.service.HistoryForDate(ctx, uid, date)
		if err != nil {
			if errors.Is(err, history.ErrInvalidDate) {
				return mcp.NewToolResultError("Invalid date, use YYYY-MM-DD"), nil
			}
			log.Errorf("mcp get_history_for_date [%s]: %s", date, err)
			return mcp.NewToolResultError(fmt.Sprintf("Error fetching history: %s", err)), nil
		}
		return jsonResult(records)
	}
}
