package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/evanschultz/lanes/internal/domain"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Lanes         []domain.Lane
	DefaultFilter string
	Categories    []string
	ChangeLogSize int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the engine logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver sets the engine observer.
func WithObserver(observer Observer) Option {
	return func(s *Service) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// Service owns one board: store, filter, derived views, drag tracker, gateway and
// window. Events are applied in the order they are dispatched.
type Service struct {
	store      *Store
	filter     *FilterState
	views      *Views
	drag       DragTracker
	gateway    *Gateway
	window     *Window
	lanes      []domain.Lane
	categories []string
	logger     Logger
	observer   Observer
}

// NewService constructs a board seeded with tasks.
func NewService(gen TaskGenerator, seed []domain.Task, cfg ServiceConfig, opts ...Option) (*Service, error) {
	lanes, err := normalizeLanes(cfg.Lanes)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(seed, cfg.ChangeLogSize)
	if err != nil {
		return nil, fmt.Errorf("seed store: %w", err)
	}
	s := &Service{
		store:      store,
		filter:     NewFilterState(cfg.DefaultFilter),
		lanes:      lanes,
		categories: slices.Clone(cfg.Categories),
		logger:     nopLogger{},
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.views = NewViews(store, s.filter, s.observer)
	s.gateway = NewGateway(store, gen, s.logger, s.observer)
	s.window = NewWindow(s.views, lanes)
	s.logger.Debug("board ready", "tasks", len(seed), "filter", s.filter.Value())
	return s, nil
}

// Lanes returns lane metadata in declaration order.
func (s *Service) Lanes() []domain.Lane {
	return slices.Clone(s.lanes)
}

// Categories returns the configured categories.
func (s *Service) Categories() []string {
	return slices.Clone(s.categories)
}

// Snapshot returns the current store snapshot.
func (s *Service) Snapshot() *Snapshot {
	return s.store.Snapshot()
}

// Lookup resolves a task id against the current snapshot.
func (s *Service) Lookup(id string) (domain.Task, bool) {
	return s.store.Lookup(id)
}

// Window returns the windowing adapter.
func (s *Service) Window() *Window {
	return s.window
}

// Views returns the derivation pipeline.
func (s *Service) Views() *Views {
	return s.views
}

// Filter returns the current filter value.
func (s *Service) Filter() string {
	return s.filter.Value()
}

// SetFilter replaces the filter value.
func (s *Service) SetFilter(value string) string {
	prev := s.filter.Value()
	next := s.filter.Set(value)
	if prev != next {
		s.logger.Debug("filter changed", "from", prev, "to", next)
	}
	return next
}

// DragStart records the task being dragged.
func (s *Service) DragStart(taskID string) {
	s.drag.Start(taskID)
}

// DragEnd resets the drag tracker and then applies the drop.
func (s *Service) DragEnd(ctx context.Context, taskID string, target domain.LaneID) DropResult {
	if active, ok := s.drag.End(); ok && active != taskID {
		s.logger.Debug("drag end for a different task", "active", active, "task_id", taskID)
	}
	return s.gateway.ApplyDrop(ctx, taskID, target)
}

// ActiveDrag returns the dragged task resolved against the current snapshot.
func (s *Service) ActiveDrag() (domain.Task, bool) {
	id, ok := s.drag.Active()
	if !ok {
		return domain.Task{}, false
	}
	return s.store.Lookup(id)
}

// DragState returns the tracker state.
func (s *Service) DragState() DragState {
	return s.drag.State()
}

// ApplyDrop applies a drop without drag bookkeeping.
func (s *Service) ApplyDrop(ctx context.Context, taskID string, target domain.LaneID) DropResult {
	return s.gateway.ApplyDrop(ctx, taskID, target)
}

// AddTask appends a generated task to lane.
func (s *Service) AddTask(ctx context.Context, lane domain.LaneID) (domain.Task, bool) {
	return s.gateway.AddTask(ctx, lane)
}

// LaneStat summarizes one lane.
type LaneStat struct {
	ID        domain.LaneID `json:"id"`
	Name      string        `json:"name"`
	Count     int           `json:"count"`
	WIPLimit  int           `json:"wip_limit,omitempty"`
	OverLimit bool          `json:"over_limit,omitempty"`
}

// Stats summarizes the board for one snapshot.
type Stats struct {
	Version  uint64     `json:"version"`
	Filter   string     `json:"filter"`
	Total    int        `json:"total"`
	Filtered int        `json:"filtered"`
	Lanes    []LaneStat `json:"lanes"`
}

// Stats returns counts for the current snapshot and filter.
func (s *Service) Stats() Stats {
	board := s.views.Board()
	out := Stats{
		Version:  board.Filtered.Version(),
		Filter:   board.Filtered.Filter(),
		Total:    board.Filtered.snapshot.Len(),
		Filtered: board.Filtered.Len(),
		Lanes:    make([]LaneStat, 0, len(s.lanes)),
	}
	for i, lane := range s.lanes {
		count := board.Lanes[i].Len()
		out.Lanes = append(out.Lanes, LaneStat{
			ID:        lane.ID,
			Name:      lane.Name,
			Count:     count,
			WIPLimit:  lane.WIPLimit,
			OverLimit: lane.OverLimit(count),
		})
	}
	return out
}

// normalizeLanes fills missing lanes with defaults and orders them by declaration.
func normalizeLanes(in []domain.Lane) ([]domain.Lane, error) {
	byID := make(map[domain.LaneID]domain.Lane, len(in))
	for _, lane := range in {
		if !lane.ID.Valid() {
			return nil, fmt.Errorf("%w: unknown lane %q", ErrInvalidConfig, lane.ID)
		}
		if _, ok := byID[lane.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate lane %q", ErrInvalidConfig, lane.ID)
		}
		byID[lane.ID] = lane
	}
	out := make([]domain.Lane, 0, domain.LaneCount())
	for i, id := range domain.Lanes() {
		lane, ok := byID[id]
		if !ok {
			lane = domain.Lane{ID: id}
		}
		if lane.Name == "" {
			lane.Name = id.Label()
		}
		lane.Position = i
		out = append(out, lane)
	}
	return out, nil
}
