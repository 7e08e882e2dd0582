package app

import "github.com/evanschultz/lanes/internal/domain"

const (
	chunkBits = 9
	chunkSize = 1 << chunkBits
	chunkMask = chunkSize - 1
)

// Snapshot is an immutable value of the whole task collection.
// Chunks are shared between snapshots and never written after publish.
type Snapshot struct {
	version uint64
	length  int
	chunks  [][]domain.Task
	change  domain.ChangeEvent
}

func newSnapshot(tasks []domain.Task) *Snapshot {
	chunks := make([][]domain.Task, 0, (len(tasks)+chunkMask)/chunkSize)
	for start := 0; start < len(tasks); start += chunkSize {
		end := min(start+chunkSize, len(tasks))
		chunk := make([]domain.Task, end-start, chunkSize)
		copy(chunk, tasks[start:end])
		chunks = append(chunks, chunk)
	}
	return &Snapshot{
		version: 1,
		length:  len(tasks),
		chunks:  chunks,
		change:  domain.ChangeEvent{Operation: domain.ChangeOperationSeed, Position: -1},
	}
}

// Version identifies the snapshot. It grows by one per published mutation.
func (s *Snapshot) Version() uint64 {
	if s == nil {
		return 0
	}
	return s.version
}

// Len returns the number of tasks.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return s.length
}

// Change returns the mutation that produced this snapshot.
func (s *Snapshot) Change() domain.ChangeEvent {
	if s == nil {
		return domain.ChangeEvent{}
	}
	return s.change
}

// At returns the task at position i.
func (s *Snapshot) At(i int) (domain.Task, bool) {
	if s == nil || i < 0 || i >= s.length {
		return domain.Task{}, false
	}
	return s.chunks[i>>chunkBits][i&chunkMask], true
}

// Range calls fn for each task in order until fn returns false.
func (s *Snapshot) Range(fn func(int, domain.Task) bool) {
	if s == nil {
		return
	}
	pos := 0
	for _, chunk := range s.chunks {
		for _, task := range chunk {
			if !fn(pos, task) {
				return
			}
			pos++
		}
	}
}

// Tasks copies the collection into a new slice.
func (s *Snapshot) Tasks() []domain.Task {
	out := make([]domain.Task, 0, s.Len())
	s.Range(func(_ int, task domain.Task) bool {
		out = append(out, task)
		return true
	})
	return out
}

// withStatus returns a child snapshot that shares every chunk except the one holding pos.
func (s *Snapshot) withStatus(pos int, lane domain.LaneID, change domain.ChangeEvent) *Snapshot {
	chunks := make([][]domain.Task, len(s.chunks))
	copy(chunks, s.chunks)
	ci := pos >> chunkBits
	chunk := make([]domain.Task, len(chunks[ci]), chunkSize)
	copy(chunk, chunks[ci])
	chunk[pos&chunkMask].Status = lane
	chunks[ci] = chunk
	return &Snapshot{
		version: s.version + 1,
		length:  s.length,
		chunks:  chunks,
		change:  change,
	}
}

// withAppended returns a child snapshot with task added at the end.
func (s *Snapshot) withAppended(task domain.Task, change domain.ChangeEvent) *Snapshot {
	n := len(s.chunks)
	chunks := make([][]domain.Task, n, n+1)
	copy(chunks, s.chunks)
	if n == 0 || len(chunks[n-1]) == chunkSize {
		chunk := make([]domain.Task, 1, chunkSize)
		chunk[0] = task
		chunks = append(chunks, chunk)
	} else {
		last := make([]domain.Task, len(chunks[n-1])+1, chunkSize)
		copy(last, chunks[n-1])
		last[len(last)-1] = task
		chunks[n-1] = last
	}
	return &Snapshot{
		version: s.version + 1,
		length:  s.length + 1,
		chunks:  chunks,
		change:  change,
	}
}
