package app

import (
	"fmt"
	"sync"

	"github.com/evanschultz/lanes/internal/domain"
)

type fakeGenerator struct {
	next     int
	category string
	err      error
}

func (g *fakeGenerator) NewTask(lane domain.LaneID) (domain.Task, error) {
	if g.err != nil {
		return domain.Task{}, g.err
	}
	g.next++
	return domain.Task{
		ID:       fmt.Sprintf("gen-%d", g.next),
		Title:    fmt.Sprintf("Task %d", g.next),
		Status:   lane,
		Category: g.category,
	}, nil
}

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level string, msg any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: fmt.Sprint(msg)})
}

func (l *recordingLogger) Debug(msg any, _ ...any) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg any, _ ...any)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg any, _ ...any)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg any, _ ...any) { l.record("error", msg) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, entry := range l.entries {
		if entry.level == level {
			n++
		}
	}
	return n
}

type countingObserver struct {
	drops   map[DropOutcome]int
	appends map[domain.LaneID]int
	builds  map[string]map[BuildMode]int
	sizes   map[domain.LaneID]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		drops:   map[DropOutcome]int{},
		appends: map[domain.LaneID]int{},
		builds:  map[string]map[BuildMode]int{},
		sizes:   map[domain.LaneID]int{},
	}
}

func (o *countingObserver) ObserveDrop(outcome DropOutcome)  { o.drops[outcome]++ }
func (o *countingObserver) ObserveAppend(lane domain.LaneID) { o.appends[lane]++ }
func (o *countingObserver) ObserveLaneSize(lane domain.LaneID, size int) {
	o.sizes[lane] = size
}
func (o *countingObserver) ObserveViewBuild(view string, mode BuildMode) {
	if o.builds[view] == nil {
		o.builds[view] = map[BuildMode]int{}
	}
	o.builds[view][mode]++
}

var testCategories = []string{"rock", "jazz", "pop", "blues"}

// seedTasks builds n tasks cycling through lanes and categories.
func seedTasks(n int) []domain.Task {
	lanes := domain.Lanes()
	out := make([]domain.Task, n)
	for i := range out {
		out[i] = domain.Task{
			ID:       fmt.Sprintf("t%d", i),
			Title:    fmt.Sprintf("Task %d", i+1),
			Status:   lanes[i%len(lanes)],
			Category: testCategories[(i/len(lanes))%len(testCategories)],
		}
	}
	return out
}

// bruteLane derives a lane directly from a snapshot for comparison.
func bruteLane(snap *Snapshot, filter string, lane domain.LaneID) []string {
	var out []string
	snap.Range(func(_ int, task domain.Task) bool {
		if Matches(filter, task) && task.Status == lane {
			out = append(out, task.ID)
		}
		return true
	})
	return out
}

func taskIDs(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}
