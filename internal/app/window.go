package app

import "github.com/evanschultz/lanes/internal/domain"

// DropTarget is the opaque handle a drag collaborator registers for a lane.
type DropTarget struct {
	lane  domain.LaneID
	label string
}

// Lane returns the lane the handle stands for.
func (d *DropTarget) Lane() domain.LaneID {
	if d == nil {
		return ""
	}
	return d.lane
}

// Label returns the lane label at the time the handle was created.
func (d *DropTarget) Label() string {
	if d == nil {
		return ""
	}
	return d.label
}

// Window exposes lane views to a renderer that only materializes a visible slice.
// Every read goes through the views, so counts reflect the latest snapshot.
type Window struct {
	views   *Views
	targets map[domain.LaneID]*DropTarget
}

// NewWindow builds the adapter and one drop target per lane.
func NewWindow(views *Views, lanes []domain.Lane) *Window {
	targets := make(map[domain.LaneID]*DropTarget, domain.LaneCount())
	for _, lane := range lanes {
		targets[lane.ID] = &DropTarget{lane: lane.ID, label: lane.Name}
	}
	for _, id := range domain.Lanes() {
		if _, ok := targets[id]; !ok {
			targets[id] = &DropTarget{lane: id, label: id.Label()}
		}
	}
	return &Window{views: views, targets: targets}
}

// Count returns the current lane size, or 0 for an unknown lane.
func (w *Window) Count(lane domain.LaneID) int {
	lv, ok := w.views.Lane(lane)
	if !ok {
		return 0
	}
	return lv.Len()
}

// ItemAt returns the task at idx in the lane. Stale or out-of-range indices
// report false.
func (w *Window) ItemAt(lane domain.LaneID, idx int) (domain.Task, bool) {
	lv, ok := w.views.Lane(lane)
	if !ok {
		return domain.Task{}, false
	}
	return lv.At(idx)
}

// Slice returns the visible items in [start, end) along with the lane size
// they were read against.
func (w *Window) Slice(lane domain.LaneID, start, end int) ([]domain.Task, int) {
	lv, ok := w.views.Lane(lane)
	if !ok {
		return nil, 0
	}
	return lv.Slice(start, end), lv.Len()
}

// DropTargetHandle returns the lane's drop target. The same pointer is returned
// for the lifetime of the window.
func (w *Window) DropTargetHandle(lane domain.LaneID) (*DropTarget, bool) {
	target, ok := w.targets[lane]
	return target, ok
}

// Resolve maps a drop target back to its lane; nil means no target.
func (w *Window) Resolve(target *DropTarget) domain.LaneID {
	if target == nil {
		return ""
	}
	if known, ok := w.targets[target.lane]; !ok || known != target {
		return ""
	}
	return target.lane
}
