package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

// AppServiceAdapter maps transport contracts onto one app.Service board.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// BoardState returns counts for the current snapshot.
func (a *AppServiceAdapter) BoardState(_ context.Context) (BoardState, error) {
	if a == nil || a.service == nil {
		return BoardState{}, fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	return a.boardState(), nil
}

// Window returns the visible slice of one lane.
func (a *AppServiceAdapter) Window(_ context.Context, in WindowRequest) (Window, error) {
	if a == nil || a.service == nil {
		return Window{}, fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	lane, err := parseLane(in.Lane)
	if err != nil {
		return Window{}, err
	}
	if in.Start < 0 {
		return Window{}, fmt.Errorf("start must be >= 0: %w", ErrInvalidRequest)
	}
	limit := in.Limit
	switch {
	case limit == 0:
		limit = DefaultWindowSize
	case limit < 0 || limit > MaxWindowSize:
		return Window{}, fmt.Errorf("limit must be between 1 and %d: %w", MaxWindowSize, ErrInvalidRequest)
	}
	tasks, count := a.service.Window().Slice(lane, in.Start, in.Start+limit)
	items := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, toTaskView(task))
	}
	return Window{Lane: string(lane), Start: in.Start, Count: count, Items: items}, nil
}

// Item returns one lane item by index.
func (a *AppServiceAdapter) Item(_ context.Context, in ItemRequest) (TaskView, error) {
	if a == nil || a.service == nil {
		return TaskView{}, fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	lane, err := parseLane(in.Lane)
	if err != nil {
		return TaskView{}, err
	}
	task, ok := a.service.Window().ItemAt(lane, in.Index)
	if !ok {
		return TaskView{}, fmt.Errorf("item %d in lane %s: %w", in.Index, lane, ErrNotFound)
	}
	return toTaskView(task), nil
}

// Drop applies a remote drop. It leaves the local drag session alone so a
// user mid-gesture in the TUI keeps their overlay. Unknown target lanes are
// passed through so the board reports them as an invalid target rather than
// failing the request.
func (a *AppServiceAdapter) Drop(ctx context.Context, in DropRequest) (DropResult, error) {
	if a == nil || a.service == nil {
		return DropResult{}, fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	taskID := strings.TrimSpace(in.TaskID)
	if taskID == "" {
		return DropResult{}, fmt.Errorf("task_id is required: %w", ErrInvalidRequest)
	}
	target := domain.LaneID(strings.TrimSpace(in.TargetLane))
	if parsed, ok := domain.ParseLaneID(in.TargetLane); ok {
		target = parsed
	}
	res := a.service.ApplyDrop(ctx, taskID, target)
	return DropResult{
		Outcome: string(res.Outcome),
		TaskID:  res.TaskID,
		From:    string(res.From),
		To:      string(res.To),
		Version: res.Version,
	}, nil
}

// AddTask appends a generated task to a lane.
func (a *AppServiceAdapter) AddTask(ctx context.Context, in AddTaskRequest) (TaskView, error) {
	if a == nil || a.service == nil {
		return TaskView{}, fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	lane, err := parseLane(in.Lane)
	if err != nil {
		return TaskView{}, err
	}
	task, ok := a.service.AddTask(ctx, lane)
	if !ok {
		return TaskView{}, fmt.Errorf("add task to %s: %w", lane, ErrUnavailable)
	}
	return toTaskView(task), nil
}

// SetFilter replaces the category filter and returns the refreshed board state.
func (a *AppServiceAdapter) SetFilter(_ context.Context, in FilterRequest) (BoardState, error) {
	if a == nil || a.service == nil {
		return BoardState{}, fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	a.service.SetFilter(in.Category)
	return a.boardState(), nil
}

func (a *AppServiceAdapter) boardState() BoardState {
	stats := a.service.Stats()
	lanes := make([]LaneSummary, 0, len(stats.Lanes))
	for _, lane := range stats.Lanes {
		lanes = append(lanes, LaneSummary{
			ID:        string(lane.ID),
			Name:      lane.Name,
			Count:     lane.Count,
			WIPLimit:  lane.WIPLimit,
			OverLimit: lane.OverLimit,
		})
	}
	return BoardState{
		Version:    stats.Version,
		Filter:     stats.Filter,
		Total:      stats.Total,
		Filtered:   stats.Filtered,
		Categories: a.service.Categories(),
		Lanes:      lanes,
	}
}

// parseLane validates a transport lane identifier.
func parseLane(raw string) (domain.LaneID, error) {
	lane, ok := domain.ParseLaneID(raw)
	if !ok {
		return "", fmt.Errorf("unknown lane %q: %w", strings.TrimSpace(raw), ErrInvalidRequest)
	}
	return lane, nil
}

func toTaskView(task domain.Task) TaskView {
	return TaskView{
		ID:          task.ID,
		Title:       task.Title,
		Status:      string(task.Status),
		Category:    task.Category,
		Author:      task.Author,
		Comments:    task.Comments,
		Attachments: task.Attachments,
		CreatedAt:   task.CreatedAt,
	}
}
