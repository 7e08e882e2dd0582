package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/evanschultz/lanes/internal/adapters/server/common"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/mark3labs/mcp-go/mcp"
)

// stubBoardService provides deterministic board responses for MCP tool tests.
type stubBoardService struct {
	state      common.BoardState
	window     common.Window
	item       common.TaskView
	drop       common.DropResult
	added      common.TaskView
	err        error
	lastWindow common.WindowRequest
	lastDrop   common.DropRequest
	lastAdd    common.AddTaskRequest
	lastFilter common.FilterRequest
	lastActor  app.MutationActor
}

func (s *stubBoardService) BoardState(context.Context) (common.BoardState, error) {
	return s.state, s.err
}

func (s *stubBoardService) Window(_ context.Context, req common.WindowRequest) (common.Window, error) {
	s.lastWindow = req
	return s.window, s.err
}

func (s *stubBoardService) Item(_ context.Context, _ common.ItemRequest) (common.TaskView, error) {
	return s.item, s.err
}

func (s *stubBoardService) Drop(ctx context.Context, req common.DropRequest) (common.DropResult, error) {
	s.lastDrop = req
	s.lastActor = app.MutationActorFromContext(ctx)
	return s.drop, s.err
}

func (s *stubBoardService) AddTask(ctx context.Context, req common.AddTaskRequest) (common.TaskView, error) {
	s.lastAdd = req
	s.lastActor = app.MutationActorFromContext(ctx)
	return s.added, s.err
}

func (s *stubBoardService) SetFilter(_ context.Context, req common.FilterRequest) (common.BoardState, error) {
	s.lastFilter = req
	s.state.Filter = req.Category
	return s.state, s.err
}

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()

	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, ok := first["text"].(string)
	if !ok {
		t.Fatalf("content text missing in tool result: %#v", first)
	}
	return text
}

// toolResultStructured decodes structuredContent as one map for stable assertions.
func toolResultStructured(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	structured, ok := result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in tool result: %#v", result)
	}
	return structured
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "lanes-test",
				"version": "1.0.0",
			},
			"capabilities": map[string]any{},
		},
	}
}

// newTestServer starts one MCP endpoint over the stub.
func newTestServer(t *testing.T, board common.BoardService) *httptest.Server {
	t.Helper()
	handler, err := NewHandler(Config{}, board)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

// TestNewHandlerRequiresBoard verifies constructor validation.
func TestNewHandlerRequiresBoard(t *testing.T) {
	if _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("expected error for nil board service")
	}
}

// TestNormalizeConfig verifies deterministic defaults.
func TestNormalizeConfig(t *testing.T) {
	cfg := normalizeConfig(Config{EndpointPath: "mcp/"})
	if cfg.ServerName != "lanes" || cfg.ServerVersion != "dev" || cfg.EndpointPath != "/mcp" {
		t.Fatalf("unexpected config %#v", cfg)
	}
}

// TestHandlerUsesStatelessTransport verifies initialize does not issue a session id.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	handler, err := NewHandler(Config{}, &stubBoardService{})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id = %q, want empty for stateless transport", got)
	}
	if decoded.ID != 1 {
		t.Fatalf("response id = %v, want 1", decoded.ID)
	}
}

// TestHandlerListsBoardTools verifies every board tool is registered.
func TestHandlerListsBoardTools(t *testing.T) {
	server := newTestServer(t, &stubBoardService{})
	_, listResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
		"params":  map[string]any{},
	})
	toolsRaw, ok := listResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools missing in list result: %#v", listResp.Result)
	}
	toolNames := make([]string, 0, len(toolsRaw))
	for _, raw := range toolsRaw {
		tool, _ := raw.(map[string]any)
		name, _ := tool["name"].(string)
		toolNames = append(toolNames, name)
	}
	for _, required := range []string{"lanes.stats", "lanes.window", "lanes.drop", "lanes.add_task", "lanes.set_filter"} {
		if !slices.Contains(toolNames, required) {
			t.Fatalf("tool list missing %q: %#v", required, toolNames)
		}
	}
}

// TestHandlerWindowToolCall verifies window argument mapping and structured results.
func TestHandlerWindowToolCall(t *testing.T) {
	board := &stubBoardService{window: common.Window{
		Lane:  "TO_DO",
		Start: 5,
		Count: 90,
		Items: []common.TaskView{{ID: "t-5", Title: "Task 5", Status: "TO_DO"}},
	}}
	server := newTestServer(t, board)

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "lanes.window", map[string]any{
		"lane":  "TO_DO",
		"start": 5,
		"limit": 10,
	}))
	structured := toolResultStructured(t, callResp.Result)
	if count, _ := structured["count"].(float64); count != 90 {
		t.Fatalf("count = %v, want 90", structured["count"])
	}
	items, ok := structured["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %#v, want one row", structured["items"])
	}
	if board.lastWindow != (common.WindowRequest{Lane: "TO_DO", Start: 5, Limit: 10}) {
		t.Fatalf("window request = %#v", board.lastWindow)
	}
}

// TestHandlerDropToolCallAttributesAgent verifies drop arguments and agent attribution.
func TestHandlerDropToolCallAttributesAgent(t *testing.T) {
	board := &stubBoardService{drop: common.DropResult{Outcome: "moved", TaskID: "t-1", From: "BACKLOG", To: "COMPLETE", Version: 4}}
	server := newTestServer(t, board)

	_, callResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "lanes.drop", map[string]any{
		"task_id":     "t-1",
		"target_lane": "COMPLETE",
		"agent_name":  "planner",
	}))
	structured := toolResultStructured(t, callResp.Result)
	if structured["outcome"] != "moved" {
		t.Fatalf("outcome = %v, want moved", structured["outcome"])
	}
	if board.lastDrop.TaskID != "t-1" || board.lastDrop.TargetLane != "COMPLETE" {
		t.Fatalf("drop request = %#v", board.lastDrop)
	}
	if board.lastActor.ActorType != app.ActorTypeAgent || board.lastActor.ActorID != "planner" {
		t.Fatalf("actor = %#v, want agent planner", board.lastActor)
	}
}

// TestHandlerAddTaskAndFilterToolCalls verifies mutation tool wiring.
func TestHandlerAddTaskAndFilterToolCalls(t *testing.T) {
	board := &stubBoardService{
		added: common.TaskView{ID: "t-9", Title: "Task 9", Status: "IN_PROGRESS"},
		state: common.BoardState{Version: 2},
	}
	server := newTestServer(t, board)

	_, addResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(5, "lanes.add_task", map[string]any{
		"lane": "IN_PROGRESS",
	}))
	if structured := toolResultStructured(t, addResp.Result); structured["id"] != "t-9" {
		t.Fatalf("added id = %v, want t-9", structured["id"])
	}
	if board.lastAdd.Lane != "IN_PROGRESS" || board.lastActor.ActorID != "mcp" {
		t.Fatalf("add request = %#v actor = %#v", board.lastAdd, board.lastActor)
	}

	_, filterResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(6, "lanes.set_filter", map[string]any{
		"category": "jazz",
	}))
	if structured := toolResultStructured(t, filterResp.Result); structured["filter"] != "jazz" {
		t.Fatalf("filter = %v, want jazz", structured["filter"])
	}
}

// TestHandlerToolCallErrorPaths verifies required-arg and mapped-service errors.
func TestHandlerToolCallErrorPaths(t *testing.T) {
	board := &stubBoardService{err: errors.Join(common.ErrInvalidRequest, errors.New("unknown lane"))}
	server := newTestServer(t, board)

	_, missingArgResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(2, "lanes.drop", map[string]any{}))
	if isError, _ := missingArgResp.Result["isError"].(bool); !isError {
		t.Fatalf("isError = %v, want true", missingArgResp.Result["isError"])
	}
	if got := toolResultText(t, missingArgResp.Result); !strings.Contains(got, `required argument "task_id" not found`) {
		t.Fatalf("error text = %q, want required task_id message", got)
	}

	_, mappedErrResp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "lanes.window", map[string]any{
		"lane": "BACKLOG",
	}))
	if isError, _ := mappedErrResp.Result["isError"].(bool); !isError {
		t.Fatalf("isError = %v, want true", mappedErrResp.Result["isError"])
	}
	if got := toolResultText(t, mappedErrResp.Result); !strings.HasPrefix(got, "invalid_request:") {
		t.Fatalf("error text = %q, want prefix invalid_request:", got)
	}
}

// TestToolResultFromError verifies error prefix mapping.
func TestToolResultFromError(t *testing.T) {
	tests := []struct {
		err        error
		wantPrefix string
	}{
		{err: common.ErrNotFound, wantPrefix: "not_found:"},
		{err: common.ErrUnavailable, wantPrefix: "service_unavailable:"},
		{err: errors.New("boom"), wantPrefix: "internal_error:"},
	}
	for _, tt := range tests {
		result := toolResultFromError(tt.err)
		if !result.IsError {
			t.Fatalf("IsError = false for %v", tt.err)
		}
		text, ok := result.Content[0].(mcp.TextContent)
		if !ok || !strings.HasPrefix(text.Text, tt.wantPrefix) {
			t.Fatalf("content = %#v, want prefix %q", result.Content, tt.wantPrefix)
		}
	}
}
