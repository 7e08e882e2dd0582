// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// MaxWindowSize caps how many items one window request may return.
const MaxWindowSize = 500

// DefaultWindowSize applies when a window request omits its limit.
const DefaultWindowSize = 50

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrUnavailable reports a board that could not serve the request.
var ErrUnavailable = errors.New("board unavailable")

// TaskView is the transport shape of one task.
type TaskView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Category    string    `json:"category"`
	Author      string    `json:"author,omitempty"`
	Comments    int       `json:"comments"`
	Attachments int       `json:"attachments"`
	CreatedAt   time.Time `json:"created_at"`
}

// LaneSummary describes one lane and its current size.
type LaneSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
	WIPLimit  int    `json:"wip_limit,omitempty"`
	OverLimit bool   `json:"over_limit,omitempty"`
}

// BoardState summarizes the board for one snapshot.
type BoardState struct {
	Version    uint64        `json:"version"`
	Filter     string        `json:"filter"`
	Total      int           `json:"total"`
	Filtered   int           `json:"filtered"`
	Categories []string      `json:"categories"`
	Lanes      []LaneSummary `json:"lanes"`
}

// WindowRequest asks for a visible slice of one lane.
type WindowRequest struct {
	Lane  string
	Start int
	Limit int
}

// Window is one visible slice of a lane. Count is the lane size the slice was read against.
type Window struct {
	Lane  string     `json:"lane"`
	Start int        `json:"start"`
	Count int        `json:"count"`
	Items []TaskView `json:"items"`
}

// ItemRequest asks for one lane item by index.
type ItemRequest struct {
	Lane  string
	Index int
}

// DropRequest applies a drag end. An empty target lane means the drag was cancelled.
type DropRequest struct {
	TaskID     string `json:"task_id"`
	TargetLane string `json:"target_lane"`
}

// DropResult reports the outcome of a drop.
type DropResult struct {
	Outcome string `json:"outcome"`
	TaskID  string `json:"task_id"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Version uint64 `json:"version"`
}

// AddTaskRequest appends a generated task to a lane.
type AddTaskRequest struct {
	Lane string `json:"lane"`
}

// FilterRequest replaces the category filter. Empty means all.
type FilterRequest struct {
	Category string `json:"category"`
}

// BoardService is the transport-facing board contract.
type BoardService interface {
	BoardState(context.Context) (BoardState, error)
	Window(context.Context, WindowRequest) (Window, error)
	Item(context.Context, ItemRequest) (TaskView, error)
	Drop(context.Context, DropRequest) (DropResult, error)
	AddTask(context.Context, AddTaskRequest) (TaskView, error)
	SetFilter(context.Context, FilterRequest) (BoardState, error)
}
