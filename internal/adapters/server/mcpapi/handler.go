// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/evanschultz/lanes/internal/adapters/server/common"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the board tools.
func NewHandler(cfg Config, board common.BoardService) (*Handler, error) {
	if board == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardTools(mcpSrv, board)
	registerMutationTools(mcpSrv, board)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "lanes"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// laneEnum lists canonical lane ids for tool schemas.
func laneEnum() []string {
	lanes := domain.Lanes()
	out := make([]string, 0, len(lanes))
	for _, lane := range lanes {
		out = append(out, string(lane))
	}
	return out
}

// registerBoardTools registers the read-only `lanes.stats` and `lanes.window` tools.
func registerBoardTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"lanes.stats",
			mcp.WithDescription("Return the board version, active filter, and per-lane counts."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			state, err := board.BoardState(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("stats", state)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"lanes.window",
			mcp.WithDescription("Return a visible slice of one lane. Count is the lane size the slice was read against."),
			mcp.WithString("lane", mcp.Required(), mcp.Description("Lane identifier"), mcp.Enum(laneEnum()...)),
			mcp.WithNumber("start", mcp.Description("Zero-based start index")),
			mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum items to return (1-%d)", common.MaxWindowSize))),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			lane, err := req.RequireString("lane")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			win, err := board.Window(ctx, common.WindowRequest{
				Lane:  lane,
				Start: req.GetInt("start", 0),
				Limit: req.GetInt("limit", common.DefaultWindowSize),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("window", win)
		},
	)
}

// registerMutationTools registers drop, add-task and filter tools.
func registerMutationTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"lanes.drop",
			mcp.WithDescription("Move a task into a lane. Omit target_lane to report a cancelled drag."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("target_lane", mcp.Description("Destination lane identifier")),
			mcp.WithString("agent_name", mcp.Description("Caller name recorded in logs")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, err := board.Drop(withAgent(ctx, req), common.DropRequest{
				TaskID:     taskID,
				TargetLane: req.GetString("target_lane", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("drop", res)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"lanes.add_task",
			mcp.WithDescription("Append a generated task to the end of a lane."),
			mcp.WithString("lane", mcp.Required(), mcp.Description("Lane identifier"), mcp.Enum(laneEnum()...)),
			mcp.WithString("agent_name", mcp.Description("Caller name recorded in logs")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			lane, err := req.RequireString("lane")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := board.AddTask(withAgent(ctx, req), common.AddTaskRequest{Lane: lane})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("add_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"lanes.set_filter",
			mcp.WithDescription("Replace the category filter. Use \"all\" or omit category to clear it."),
			mcp.WithString("category", mcp.Description("Category to show")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			state, err := board.SetFilter(ctx, common.FilterRequest{Category: req.GetString("category", "")})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("set_filter", state)
		},
	)
}

// withAgent attributes a tool call to an MCP agent.
func withAgent(ctx context.Context, req mcp.CallToolRequest) context.Context {
	name := strings.TrimSpace(req.GetString("agent_name", ""))
	if name == "" {
		name = "mcp"
	}
	return app.WithMutationActor(ctx, app.MutationActor{ActorID: name, ActorType: app.ActorTypeAgent})
}

// jsonResult encodes one tool payload.
func jsonResult(tool string, payload any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

// toolResultFromError maps adapter errors into prefixed tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrUnavailable):
		return mcp.NewToolResultError("service_unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
