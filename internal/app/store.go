package app

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/evanschultz/lanes/internal/domain"
)

const defaultChangeLogSize = 256

// MoveResult reports what MoveTask did.
type MoveResult string

// MoveResult values.
const (
	MoveApplied     MoveResult = "applied"
	MoveUnchanged   MoveResult = "unchanged"
	MoveNotFound    MoveResult = "not_found"
	MoveInvalidLane MoveResult = "invalid_lane"
)

// Store owns the canonical task collection. Writers are serialized; readers load
// the current snapshot atomically and never observe a partial update.
type Store struct {
	mu      sync.RWMutex
	current atomic.Pointer[Snapshot]
	index   map[string]int
	changes []domain.ChangeEvent
	logSize int
}

// NewStore builds a store seeded with tasks in the given order.
func NewStore(tasks []domain.Task, changeLogSize int) (*Store, error) {
	if changeLogSize <= 0 {
		changeLogSize = defaultChangeLogSize
	}
	index := make(map[string]int, len(tasks))
	for i, task := range tasks {
		if err := task.Validate(); err != nil {
			return nil, fmt.Errorf("seed task %d: %w", i, err)
		}
		if _, ok := index[task.ID]; ok {
			return nil, fmt.Errorf("seed task %q: %w", task.ID, domain.ErrDuplicateID)
		}
		index[task.ID] = i
	}
	s := &Store{
		index:   index,
		changes: make([]domain.ChangeEvent, 0, changeLogSize),
		logSize: changeLogSize,
	}
	s.current.Store(newSnapshot(tasks))
	return s, nil
}

// Snapshot returns the current published snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Position returns the store position of a task id.
func (s *Store) Position(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[strings.TrimSpace(id)]
	return pos, ok
}

// Lookup resolves a task id against the current snapshot.
func (s *Store) Lookup(id string) (domain.Task, bool) {
	pos, ok := s.Position(id)
	if !ok {
		return domain.Task{}, false
	}
	return s.Snapshot().At(pos)
}

// MoveTask replaces the status of one task. Unknown ids, invalid lanes and
// moves to the current lane publish nothing.
func (s *Store) MoveTask(id string, lane domain.LaneID) (MoveResult, *Snapshot) {
	if !lane.Valid() {
		return MoveInvalidLane, s.Snapshot()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.current.Load()
	pos, ok := s.index[strings.TrimSpace(id)]
	if !ok {
		return MoveNotFound, snap
	}
	task, _ := snap.At(pos)
	if task.Status == lane {
		return MoveUnchanged, snap
	}
	next := snap.withStatus(pos, lane, domain.ChangeEvent{
		Operation: domain.ChangeOperationMove,
		TaskID:    task.ID,
		Position:  pos,
		From:      task.Status,
		To:        lane,
	})
	s.publish(next)
	return MoveApplied, next
}

// AppendTask adds a task with a fresh id at the end of the collection.
func (s *Store) AppendTask(task domain.Task) (*Snapshot, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[task.ID]; ok {
		return nil, domain.ErrDuplicateID
	}
	snap := s.current.Load()
	pos := snap.Len()
	next := snap.withAppended(task, domain.ChangeEvent{
		Operation: domain.ChangeOperationAppend,
		TaskID:    task.ID,
		Position:  pos,
		To:        task.Status,
	})
	s.index[task.ID] = pos
	s.publish(next)
	return next, nil
}

// ChangesBetween returns the changes that turned snapshot from into snapshot to,
// oldest first. It reports false once the log no longer covers the range.
func (s *Store) ChangesBetween(from, to uint64) ([]domain.ChangeEvent, bool) {
	if from > to {
		return nil, false
	}
	if from == to {
		return nil, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := s.current.Load().Version()
	if to > latest {
		return nil, false
	}
	oldest := latest - uint64(len(s.changes))
	if from < oldest {
		return nil, false
	}
	start := int(from - oldest)
	end := int(to - oldest)
	out := make([]domain.ChangeEvent, end-start)
	copy(out, s.changes[start:end])
	return out, true
}

// publish must be called with s.mu held.
func (s *Store) publish(next *Snapshot) {
	if len(s.changes) == s.logSize {
		copy(s.changes, s.changes[1:])
		s.changes = s.changes[:len(s.changes)-1]
	}
	s.changes = append(s.changes, next.Change())
	s.current.Store(next)
}
