package app

import (
	"context"
	"strings"

	"github.com/evanschultz/lanes/internal/domain"
)

// DropOutcome reports what a drop did.
type DropOutcome string

// DropOutcome values.
const (
	DropMoved         DropOutcome = "moved"
	DropUnchanged     DropOutcome = "unchanged"
	DropCancelled     DropOutcome = "cancelled"
	DropInvalidTarget DropOutcome = "invalid_target"
	DropVanished      DropOutcome = "vanished"
)

// DropResult describes one applied or ignored drop.
type DropResult struct {
	Outcome DropOutcome   `json:"outcome"`
	TaskID  string        `json:"task_id"`
	From    domain.LaneID `json:"from,omitempty"`
	To      domain.LaneID `json:"to,omitempty"`
	Version uint64        `json:"version"`
}

// Changed reports whether the drop published a new snapshot.
func (r DropResult) Changed() bool {
	return r.Outcome == DropMoved
}

// Gateway is the only write path into the store.
type Gateway struct {
	store    *Store
	gen      TaskGenerator
	logger   Logger
	observer Observer
}

// NewGateway constructs a gateway over store.
func NewGateway(store *Store, gen TaskGenerator, logger Logger, observer Observer) *Gateway {
	if logger == nil {
		logger = nopLogger{}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Gateway{store: store, gen: gen, logger: logger, observer: observer}
}

// ApplyDrop moves taskID into target. An empty target means the drag ended
// outside any lane. Neither that nor an unknown id is an error; a vanished id
// is logged at warn level because it means the task went away mid-drag.
func (g *Gateway) ApplyDrop(ctx context.Context, taskID string, target domain.LaneID) DropResult {
	actor := MutationActorFromContext(ctx)
	taskID = strings.TrimSpace(taskID)
	res := DropResult{TaskID: taskID, To: target}

	if target == "" {
		res.Outcome = DropCancelled
		res.Version = g.store.Snapshot().Version()
		g.logger.Debug("drag cancelled", "task_id", taskID, "actor", actor.ActorID)
		g.observer.ObserveDrop(res.Outcome)
		return res
	}
	if !target.Valid() {
		res.Outcome = DropInvalidTarget
		res.Version = g.store.Snapshot().Version()
		g.logger.Debug("drop outside any lane", "task_id", taskID, "target", target, "actor", actor.ActorID)
		g.observer.ObserveDrop(res.Outcome)
		return res
	}

	result, snap := g.store.MoveTask(taskID, target)
	res.Version = snap.Version()
	switch result {
	case MoveApplied:
		res.Outcome = DropMoved
		res.From = snap.Change().From
		g.logger.Info("task moved", "task_id", taskID, "from", res.From, "to", target, "version", res.Version, "actor", actor.ActorID, "actor_type", actor.ActorType)
	case MoveUnchanged:
		res.Outcome = DropUnchanged
		res.From = target
		g.logger.Debug("drop onto current lane", "task_id", taskID, "lane", target)
	case MoveNotFound:
		res.Outcome = DropVanished
		res.To = ""
		g.logger.Warn("task vanished before drop", "task_id", taskID, "target", target, "version", res.Version, "actor", actor.ActorID)
	default:
		res.Outcome = DropInvalidTarget
	}
	g.observer.ObserveDrop(res.Outcome)
	return res
}

// AddTask asks the generator for a task in lane and appends it. Unknown lanes
// and generator failures leave the store untouched and report false.
func (g *Gateway) AddTask(ctx context.Context, lane domain.LaneID) (domain.Task, bool) {
	actor := MutationActorFromContext(ctx)
	if !lane.Valid() {
		g.logger.Debug("add task to unknown lane", "lane", lane, "actor", actor.ActorID)
		return domain.Task{}, false
	}
	if g.gen == nil {
		g.logger.Error("add task without generator", "lane", lane)
		return domain.Task{}, false
	}
	task, err := g.gen.NewTask(lane)
	if err != nil {
		g.logger.Error("generate task", "lane", lane, "err", err)
		return domain.Task{}, false
	}
	task.Status = lane
	snap, err := g.store.AppendTask(task)
	if err != nil {
		g.logger.Error("append task", "task_id", task.ID, "lane", lane, "err", err)
		return domain.Task{}, false
	}
	g.logger.Info("task added", "task_id", task.ID, "lane", lane, "version", snap.Version(), "actor", actor.ActorID, "actor_type", actor.ActorType)
	g.observer.ObserveAppend(lane)
	return task, true
}
