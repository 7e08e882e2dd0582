// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/evanschultz/lanes/internal/adapters/server/common"
	"github.com/evanschultz/lanes/internal/app"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// actorHeader optionally names the caller for mutation attribution.
const actorHeader = "X-Lanes-Actor"

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	board common.BoardService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over a board service.
func NewHandler(board common.BoardService) *Handler {
	return &Handler{board: board}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.board == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "board service is not configured",
		})
		return
	}
	path := normalizePath(r.URL.Path)
	switch path {
	case "board":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleBoard(w, r)
		return
	case "filter":
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w, http.MethodPut)
			return
		}
		h.handleSetFilter(w, r)
		return
	case "drop":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleDrop(w, r)
		return
	}

	route, ok := resolveLaneRoute(path)
	if !ok {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
		return
	}
	switch route.resource {
	case "items":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		if route.index == "" {
			h.handleWindow(w, r, route.lane)
			return
		}
		h.handleItem(w, r, route.lane, route.index)
	case "tasks":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleAddTask(w, r, route.lane)
	}
}

// handleBoard serves GET `/board`.
func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	state, err := h.board.BoardState(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleSetFilter serves PUT `/filter`.
func (h *Handler) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req common.FilterRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	state, err := h.board.SetFilter(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleDrop serves POST `/drop`.
func (h *Handler) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req common.DropRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	res, err := h.board.Drop(withActor(r), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleWindow serves GET `/lanes/{lane}/items?start=&limit=`.
func (h *Handler) handleWindow(w http.ResponseWriter, r *http.Request, lane string) {
	start, err := queryInt(r, "start")
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	win, err := h.board.Window(r.Context(), common.WindowRequest{Lane: lane, Start: start, Limit: limit})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, win)
}

// handleItem serves GET `/lanes/{lane}/items/{index}`.
func (h *Handler) handleItem(w http.ResponseWriter, r *http.Request, lane, rawIndex string) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		writeErrorFrom(w, fmt.Errorf("index %q: %w", rawIndex, common.ErrInvalidRequest))
		return
	}
	item, err := h.board.Item(r.Context(), common.ItemRequest{Lane: lane, Index: index})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleAddTask serves POST `/lanes/{lane}/tasks`.
func (h *Handler) handleAddTask(w http.ResponseWriter, r *http.Request, lane string) {
	task, err := h.board.AddTask(withActor(r), common.AddTaskRequest{Lane: lane})
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// laneRoute holds the parsed parts of a `/lanes/...` path.
type laneRoute struct {
	lane     string
	resource string
	index    string
}

// resolveLaneRoute parses `/lanes/{lane}/items`, `/lanes/{lane}/items/{index}`, and `/lanes/{lane}/tasks`.
func resolveLaneRoute(path string) (laneRoute, bool) {
	parts := strings.Split(path, "/")
	if len(parts) < 3 || len(parts) > 4 || parts[0] != "lanes" || strings.TrimSpace(parts[1]) == "" {
		return laneRoute{}, false
	}
	route := laneRoute{lane: parts[1], resource: parts[2]}
	switch {
	case route.resource == "items" && len(parts) == 4:
		route.index = parts[3]
		return route, route.index != ""
	case route.resource == "items", route.resource == "tasks" && len(parts) == 3:
		return route, true
	default:
		return laneRoute{}, false
	}
}

// withActor attributes the request to an API caller.
func withActor(r *http.Request) context.Context {
	id := strings.TrimSpace(r.Header.Get(actorHeader))
	if id == "" {
		id = r.RemoteAddr
	}
	return app.WithMutationActor(r.Context(), app.MutationActor{ActorID: id, ActorType: app.ActorTypeAPI})
}

// queryInt reads one optional integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, common.ErrInvalidRequest)
	}
	return value, nil
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
			Hint:    "Lanes are BACKLOG, TO_DO, IN_PROGRESS and COMPLETE.",
		})
	case errors.Is(err, common.ErrUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
