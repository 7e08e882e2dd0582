package app

import (
	"slices"
	"sync"

	"github.com/evanschultz/lanes/internal/domain"
)

// FilteredView is the ordered subset of one snapshot admitted by a filter.
// It stores positions into the snapshot rather than task copies.
type FilteredView struct {
	snapshot  *Snapshot
	filter    string
	positions []int
}

// Version returns the snapshot version the view was derived from.
func (v *FilteredView) Version() uint64 {
	if v == nil {
		return 0
	}
	return v.snapshot.Version()
}

// Filter returns the filter value the view was derived with.
func (v *FilteredView) Filter() string {
	if v == nil {
		return FilterAll
	}
	return v.filter
}

// Len returns the number of admitted tasks.
func (v *FilteredView) Len() int {
	if v == nil {
		return 0
	}
	return len(v.positions)
}

// At returns the i-th admitted task.
func (v *FilteredView) At(i int) (domain.Task, bool) {
	if v == nil || i < 0 || i >= len(v.positions) {
		return domain.Task{}, false
	}
	return v.snapshot.At(v.positions[i])
}

// Tasks materializes the view.
func (v *FilteredView) Tasks() []domain.Task {
	return materialize(v.snapshotOrNil(), v.positionsOrNil())
}

func (v *FilteredView) snapshotOrNil() *Snapshot {
	if v == nil {
		return nil
	}
	return v.snapshot
}

func (v *FilteredView) positionsOrNil() []int {
	if v == nil {
		return nil
	}
	return v.positions
}

// LaneView is the ordered subsequence of a FilteredView in one lane.
type LaneView struct {
	lane      domain.LaneID
	snapshot  *Snapshot
	filter    string
	positions []int
}

// Lane returns the lane the view belongs to.
func (v *LaneView) Lane() domain.LaneID {
	if v == nil {
		return ""
	}
	return v.lane
}

// Version returns the snapshot version the view was derived from.
func (v *LaneView) Version() uint64 {
	if v == nil {
		return 0
	}
	return v.snapshot.Version()
}

// Len returns the lane size.
func (v *LaneView) Len() int {
	if v == nil {
		return 0
	}
	return len(v.positions)
}

// At returns the task at index i within the lane.
func (v *LaneView) At(i int) (domain.Task, bool) {
	if v == nil || i < 0 || i >= len(v.positions) {
		return domain.Task{}, false
	}
	return v.snapshot.At(v.positions[i])
}

// Slice returns tasks in [start, end) clamped to the lane bounds.
func (v *LaneView) Slice(start, end int) []domain.Task {
	if v == nil {
		return nil
	}
	start = max(start, 0)
	end = min(end, len(v.positions))
	if start >= end {
		return nil
	}
	return materialize(v.snapshot, v.positions[start:end])
}

// Tasks materializes the whole lane.
func (v *LaneView) Tasks() []domain.Task {
	if v == nil {
		return nil
	}
	return materialize(v.snapshot, v.positions)
}

// BoardView holds the filtered view and every lane view of one snapshot.
type BoardView struct {
	Filtered *FilteredView
	Lanes    []*LaneView
}

// Views derives and memoizes the filtered view and the lane views.
// Memo entries are keyed by (snapshot version, filter value). When the store's
// change log covers the gap, entries are advanced incrementally: a move never
// changes filtered membership and only touches its source and target lanes.
type Views struct {
	store    *Store
	filter   *FilterState
	observer Observer

	mu       sync.Mutex
	filtered *FilteredView
	lanes    map[domain.LaneID]*LaneView
}

// NewViews constructs the derivation pipeline over a store and filter.
func NewViews(store *Store, filter *FilterState, observer Observer) *Views {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Views{
		store:    store,
		filter:   filter,
		observer: observer,
		lanes:    make(map[domain.LaneID]*LaneView, domain.LaneCount()),
	}
}

// Filtered returns the filtered view of the current snapshot.
func (v *Views) Filtered() *FilteredView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filteredLocked(v.store.Snapshot(), v.filter.Value())
}

// Lane returns the lane view of the current snapshot.
func (v *Views) Lane(lane domain.LaneID) (*LaneView, bool) {
	if !lane.Valid() {
		return nil, false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	snap := v.store.Snapshot()
	filter := v.filter.Value()
	fv := v.filteredLocked(snap, filter)
	return v.laneLocked(fv, lane), true
}

// Board returns the filtered view and all lane views of the same snapshot.
func (v *Views) Board() BoardView {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap := v.store.Snapshot()
	fv := v.filteredLocked(snap, v.filter.Value())
	out := BoardView{Filtered: fv, Lanes: make([]*LaneView, 0, domain.LaneCount())}
	for _, lane := range domain.Lanes() {
		out.Lanes = append(out.Lanes, v.laneLocked(fv, lane))
	}
	return out
}

func (v *Views) filteredLocked(snap *Snapshot, filter string) *FilteredView {
	cur := v.filtered
	if cur != nil && cur.filter == filter && cur.snapshot.Version() == snap.Version() {
		return cur
	}
	if cur != nil && cur.filter == filter {
		if changes, ok := v.store.ChangesBetween(cur.snapshot.Version(), snap.Version()); ok {
			positions := cur.positions
			for _, change := range changes {
				if change.Operation != domain.ChangeOperationAppend {
					continue
				}
				if task, ok := snap.At(change.Position); ok && Matches(filter, task) {
					// Appends only ever extend the tail past the stale view's length.
					positions = append(positions, change.Position)
				}
			}
			v.filtered = &FilteredView{snapshot: snap, filter: filter, positions: positions}
			v.observer.ObserveViewBuild("filtered", BuildModeIncremental)
			return v.filtered
		}
	}

	positions := make([]int, 0, snap.Len())
	snap.Range(func(pos int, task domain.Task) bool {
		if Matches(filter, task) {
			positions = append(positions, pos)
		}
		return true
	})
	v.filtered = &FilteredView{snapshot: snap, filter: filter, positions: positions}
	v.observer.ObserveViewBuild("filtered", BuildModeFull)
	return v.filtered
}

func (v *Views) laneLocked(fv *FilteredView, lane domain.LaneID) *LaneView {
	snap := fv.snapshot
	cur := v.lanes[lane]
	if cur != nil && cur.filter == fv.filter && cur.snapshot.Version() == snap.Version() {
		return cur
	}
	if cur != nil && cur.filter == fv.filter {
		if next, ok := v.advanceLane(cur, snap); ok {
			v.lanes[lane] = next
			v.observer.ObserveViewBuild(string(lane), BuildModeIncremental)
			v.observer.ObserveLaneSize(lane, next.Len())
			return next
		}
	}

	positions := make([]int, 0, len(fv.positions)/domain.LaneCount()+1)
	for _, pos := range fv.positions {
		if task, ok := snap.At(pos); ok && task.Status == lane {
			positions = append(positions, pos)
		}
	}
	next := &LaneView{lane: lane, snapshot: snap, filter: fv.filter, positions: positions}
	v.lanes[lane] = next
	v.observer.ObserveViewBuild(string(lane), BuildModeFull)
	v.observer.ObserveLaneSize(lane, next.Len())
	return next
}

// advanceLane replays logged changes onto a stale lane view. Position slices of
// published views are never edited in place; the first edit copies.
func (v *Views) advanceLane(cur *LaneView, snap *Snapshot) (*LaneView, bool) {
	changes, ok := v.store.ChangesBetween(cur.snapshot.Version(), snap.Version())
	if !ok {
		return nil, false
	}
	lane := cur.lane
	positions := cur.positions
	owned := false
	own := func() {
		if !owned {
			positions = slices.Clone(positions)
			owned = true
		}
	}
	for _, change := range changes {
		if !change.Touches(lane) {
			continue
		}
		task, ok := snap.At(change.Position)
		if !ok || !Matches(cur.filter, task) {
			continue
		}
		switch change.Operation {
		case domain.ChangeOperationMove:
			idx, found := slices.BinarySearch(positions, change.Position)
			if change.From == lane {
				if !found {
					return nil, false
				}
				own()
				positions = slices.Delete(positions, idx, idx+1)
			}
			if change.To == lane {
				if found && change.From != lane {
					return nil, false
				}
				own()
				positions = slices.Insert(positions, idx, change.Position)
			}
		case domain.ChangeOperationAppend:
			positions = append(positions, change.Position)
		default:
			return nil, false
		}
	}
	return &LaneView{lane: lane, snapshot: snap, filter: cur.filter, positions: positions}, true
}

func materialize(snap *Snapshot, positions []int) []domain.Task {
	out := make([]domain.Task, 0, len(positions))
	for _, pos := range positions {
		if task, ok := snap.At(pos); ok {
			out = append(out, task)
		}
	}
	return out
}
