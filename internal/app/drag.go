package app

import "sync"

// DragState names the tracker state.
type DragState string

// DragState values.
const (
	DragIdle     DragState = "idle"
	DragDragging DragState = "dragging"
)

// DragTracker records which task, if any, is being dragged. It holds only the id;
// the task itself is resolved against the store at render time.
type DragTracker struct {
	mu     sync.Mutex
	taskID string
	active bool
}

// Start moves the tracker to Dragging(id). A new start replaces an older one.
func (d *DragTracker) Start(taskID string) {
	d.mu.Lock()
	d.taskID = taskID
	d.active = true
	d.mu.Unlock()
}

// End returns the tracker to Idle unconditionally and reports the id it held.
func (d *DragTracker) End() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, was := d.taskID, d.active
	d.taskID = ""
	d.active = false
	return id, was
}

// Active returns the dragged id while dragging.
func (d *DragTracker) Active() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.taskID, d.active
}

// State returns the current state name.
func (d *DragTracker) State() DragState {
	if _, ok := d.Active(); ok {
		return DragDragging
	}
	return DragIdle
}
