package domain

// ChangeOperation describes the mutation that produced a board snapshot.
type ChangeOperation string

// ChangeOperation values.
const (
	ChangeOperationSeed   ChangeOperation = "seed"
	ChangeOperationMove   ChangeOperation = "move"
	ChangeOperationAppend ChangeOperation = "append"
)

// ChangeEvent records what one published snapshot changed relative to its parent.
type ChangeEvent struct {
	Operation ChangeOperation
	TaskID    string
	Position  int
	From      LaneID
	To        LaneID
}

// Touches reports whether the change affected the given lane.
func (c ChangeEvent) Touches(lane LaneID) bool {
	switch c.Operation {
	case ChangeOperationMove:
		return c.From == lane || c.To == lane
	case ChangeOperationAppend:
		return c.To == lane
	default:
		return true
	}
}
