package domain

import (
	"slices"
	"strings"
)

// LaneID identifies one status lane on the board.
type LaneID string

// LaneID values, in declaration order.
const (
	LaneBacklog    LaneID = "BACKLOG"
	LaneToDo       LaneID = "TO_DO"
	LaneInProgress LaneID = "IN_PROGRESS"
	LaneComplete   LaneID = "COMPLETE"
)

// validLanes stores the closed lane set in declaration order.
var validLanes = []LaneID{
	LaneBacklog,
	LaneToDo,
	LaneInProgress,
	LaneComplete,
}

var laneLabels = map[LaneID]string{
	LaneBacklog:    "Backlog",
	LaneToDo:       "To Do's",
	LaneInProgress: "In Progress",
	LaneComplete:   "Completed",
}

var laneAliases = map[string]LaneID{
	"backlog":     LaneBacklog,
	"todo":        LaneToDo,
	"to-do":       LaneToDo,
	"progress":    LaneInProgress,
	"in-progress": LaneInProgress,
	"doing":       LaneInProgress,
	"done":        LaneComplete,
	"complete":    LaneComplete,
	"completed":   LaneComplete,
}

// Lanes returns the fixed lane set in declaration order.
func Lanes() []LaneID {
	return slices.Clone(validLanes)
}

// LaneCount reports how many lanes exist.
func LaneCount() int {
	return len(validLanes)
}

// Valid reports whether the lane belongs to the closed lane set.
func (l LaneID) Valid() bool {
	return slices.Contains(validLanes, l)
}

// Index returns the declaration position of the lane, or -1.
func (l LaneID) Index() int {
	return slices.Index(validLanes, l)
}

// Label returns the human label for the lane.
func (l LaneID) Label() string {
	if label, ok := laneLabels[l]; ok {
		return label
	}
	return string(l)
}

func (l LaneID) String() string {
	return string(l)
}

// ParseLaneID accepts canonical lane ids in any case plus a few short aliases.
func ParseLaneID(raw string) (LaneID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	candidate := LaneID(strings.ToUpper(strings.ReplaceAll(raw, "-", "_")))
	if candidate.Valid() {
		return candidate, true
	}
	if lane, ok := laneAliases[strings.ToLower(raw)]; ok {
		return lane, true
	}
	return "", false
}

// Lane holds display metadata for one lane.
type Lane struct {
	ID       LaneID
	Name     string
	WIPLimit int
	Position int
}

// NewLane constructs lane metadata, falling back to the default label.
func NewLane(id LaneID, name string, position, wipLimit int) (Lane, error) {
	name = strings.TrimSpace(name)
	if !id.Valid() {
		return Lane{}, ErrInvalidLane
	}
	if name == "" {
		name = id.Label()
	}
	if position < 0 {
		return Lane{}, ErrInvalidPosition
	}
	if wipLimit < 0 {
		return Lane{}, ErrInvalidPosition
	}
	return Lane{
		ID:       id,
		Name:     name,
		WIPLimit: wipLimit,
		Position: position,
	}, nil
}

// OverLimit reports whether count exceeds a configured WIP limit.
func (l Lane) OverLimit(count int) bool {
	return l.WIPLimit > 0 && count > l.WIPLimit
}
