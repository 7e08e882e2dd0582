package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

type seqGenerator struct{ n int }

func (g *seqGenerator) NewTask(lane domain.LaneID) (domain.Task, error) {
	g.n++
	return domain.Task{ID: fmt.Sprintf("new-%d", g.n), Title: fmt.Sprintf("New %d", g.n), Status: lane, Category: "rock"}, nil
}

// newTestBoard seeds n tasks round-robin across lanes, alternating rock and jazz.
func newTestBoard(t *testing.T, n int) *app.Service {
	t.Helper()
	lanes := domain.Lanes()
	seed := make([]domain.Task, n)
	for i := range seed {
		category := "rock"
		if (i/len(lanes))%2 == 1 {
			category = "jazz"
		}
		seed[i] = domain.Task{
			ID:        fmt.Sprintf("t%d", i),
			Title:     fmt.Sprintf("Task %d", i+1),
			Status:    lanes[i%len(lanes)],
			Category:  category,
			CreatedAt: time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC),
		}
	}
	svc, err := app.NewService(&seqGenerator{}, seed, app.ServiceConfig{Categories: []string{"rock", "jazz"}})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	return applyMsg(t, m, tea.WindowSizeMsg{Width: 160, Height: 50})
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return out
}

func applyKeys(t *testing.T, m Model, msgs ...tea.KeyPressMsg) Model {
	t.Helper()
	for _, msg := range msgs {
		m = applyMsg(t, m, msg)
	}
	return m
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func keySpace() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
}

func keyEnter() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeyEnter}
}

func keyEsc() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeyEscape}
}

func TestModelNavigationClamps(t *testing.T) {
	board := newTestBoard(t, 12)
	m := loadReadyModel(t, NewModel(board))

	m = applyKeys(t, m, keyRune('h'))
	if m.focus != 0 {
		t.Fatalf("expected focus to stay at 0, got %d", m.focus)
	}
	m = applyKeys(t, m, keyRune('l'), keyRune('l'), keyRune('l'), keyRune('l'))
	if m.focus != 3 {
		t.Fatalf("expected focus clamped to 3, got %d", m.focus)
	}
	m = applyKeys(t, m, keyRune('j'), keyRune('j'), keyRune('j'), keyRune('j'))
	if m.selected[3] != 2 {
		t.Fatalf("expected selection clamped to last index 2, got %d", m.selected[3])
	}
	m = applyKeys(t, m, keyRune('g'))
	if m.selected[3] != 0 {
		t.Fatalf("expected top to select 0, got %d", m.selected[3])
	}
	m = applyKeys(t, m, tea.KeyPressMsg{Code: tea.KeyEnd})
	if m.selected[3] != 2 {
		t.Fatalf("expected end to select last, got %d", m.selected[3])
	}
}

func TestModelDragAndDropMovesTask(t *testing.T) {
	board := newTestBoard(t, 8)
	m := loadReadyModel(t, NewModel(board))

	m = applyKeys(t, m, keySpace())
	if board.DragState() != app.DragDragging || m.dragID != "t0" {
		t.Fatalf("expected t0 dragging, state=%q id=%q", board.DragState(), m.dragID)
	}
	if !strings.Contains(m.renderContent(), "[dragging]") {
		t.Fatal("expected dragging marker in header")
	}
	m = applyKeys(t, m, keyRune('l'), keyRune('l'))
	if got := board.Window().Resolve(m.dropTarget); got != domain.LaneInProgress {
		t.Fatalf("expected drop target IN_PROGRESS, got %q", got)
	}
	m = applyKeys(t, m, keyEnter())

	task, ok := board.Lookup("t0")
	if !ok || task.Status != domain.LaneInProgress {
		t.Fatalf("expected t0 in IN_PROGRESS, got %#v", task)
	}
	if board.DragState() != app.DragIdle || m.dragID != "" || m.dropTarget != nil {
		t.Fatal("expected drag state reset after drop")
	}
	if !strings.Contains(m.status, "moved Task 1 to In Progress") {
		t.Fatalf("unexpected status %q", m.status)
	}
	if got := board.Window().Count(domain.LaneBacklog); got != 1 {
		t.Fatalf("expected backlog count 1, got %d", got)
	}
}

func TestModelDropOnSourceLaneIsUnchanged(t *testing.T) {
	board := newTestBoard(t, 8)
	m := loadReadyModel(t, NewModel(board))
	before := board.Snapshot().Version()

	m = applyKeys(t, m, keySpace(), keyEnter())
	if board.Snapshot().Version() != before {
		t.Fatal("expected no publish for same-lane drop")
	}
	if !strings.Contains(m.status, "already in Backlog") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelCancelDrag(t *testing.T) {
	board := newTestBoard(t, 8)
	m := loadReadyModel(t, NewModel(board))

	m = applyKeys(t, m, keySpace(), keyRune('l'), keyEsc())
	if board.DragState() != app.DragIdle || m.dragID != "" {
		t.Fatal("expected idle after cancel")
	}
	if task, _ := board.Lookup("t0"); task.Status != domain.LaneBacklog {
		t.Fatalf("expected t0 to stay in backlog, got %q", task.Status)
	}
	if m.status != "drag cancelled" {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = applyKeys(t, m, keyEnter())
	if m.status != "nothing picked up" {
		t.Fatalf("unexpected status for drop without drag %q", m.status)
	}
}

func TestModelFilterCycle(t *testing.T) {
	board := newTestBoard(t, 16)
	m := loadReadyModel(t, NewModel(board))
	m.selected[0] = 3

	m = applyKeys(t, m, keyRune('f'))
	if board.Filter() != "rock" || m.selected[0] != 0 {
		t.Fatalf("expected rock filter and reset cursor, got %q %d", board.Filter(), m.selected[0])
	}
	if got := board.Window().Count(domain.LaneBacklog); got != 2 {
		t.Fatalf("expected 2 rock backlog tasks, got %d", got)
	}
	m = applyKeys(t, m, keyRune('f'), keyRune('f'))
	if board.Filter() != app.FilterAll {
		t.Fatalf("expected cycle back to all, got %q", board.Filter())
	}
	m = applyKeys(t, m, keyRune('f'), keyRune('F'))
	if board.Filter() != app.FilterAll || m.status != "filter: all" {
		t.Fatalf("expected clear filter, got %q %q", board.Filter(), m.status)
	}
}

func TestModelAddTaskSelectsNewTask(t *testing.T) {
	board := newTestBoard(t, 8)
	m := loadReadyModel(t, NewModel(board))

	m = applyKeys(t, m, keyRune('l'), keyRune('n'))
	if got := board.Window().Count(domain.LaneToDo); got != 3 {
		t.Fatalf("expected to-do count 3, got %d", got)
	}
	if m.selected[1] != 2 {
		t.Fatalf("expected new task selected, got %d", m.selected[1])
	}
	if task, ok := m.selectedTask(); !ok || task.ID != "new-1" {
		t.Fatalf("expected new-1 selected, got %#v", task)
	}

	board.SetFilter("jazz")
	m = applyKeys(t, m, keyRune('n'))
	if !strings.Contains(m.status, "hidden by filter") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelCopyAndInfo(t *testing.T) {
	board := newTestBoard(t, 8)
	var copied string
	m := loadReadyModel(t, NewModel(board, WithClipboard(func(s string) error {
		copied = s
		return nil
	})))

	m = applyKeys(t, m, keyRune('y'))
	if copied != "t0" || m.status != "copied t0" {
		t.Fatalf("unexpected copy %q status %q", copied, m.status)
	}

	m = applyKeys(t, m, keyRune('i'))
	if m.mode != modeTaskInfo || m.infoTask.ID != "t0" {
		t.Fatalf("expected task info for t0, got mode %v task %#v", m.mode, m.infoTask)
	}
	if !strings.Contains(m.renderContent(), "t0") {
		t.Fatal("expected task id in info overlay")
	}
	m = applyKeys(t, m, keyRune('j'))
	if m.selected[0] != 0 {
		t.Fatal("expected navigation to be ignored while info is open")
	}
	m = applyKeys(t, m, keyEsc())
	if m.mode != modeNone {
		t.Fatal("expected esc to close task info")
	}

	failing := loadReadyModel(t, NewModel(board, WithClipboard(func(string) error { return errors.New("no display") })))
	failing = applyKeys(t, failing, keyRune('y'))
	if failing.status != "copy failed: no display" {
		t.Fatalf("unexpected status %q", failing.status)
	}
}

func TestModelViewRendersOnlyWindow(t *testing.T) {
	board := newTestBoard(t, 1000)
	m := loadReadyModel(t, NewModel(board, WithWindowRows(5)))

	if v := m.View(); v.Content == nil || v.MouseMode != tea.MouseModeCellMotion {
		t.Fatal("expected view content with mouse enabled")
	}
	content := m.renderContent()
	if !strings.Contains(content, "1-5 of 250") {
		t.Fatalf("expected window footer, got:\n%s", content)
	}
	if !strings.Contains(content, "Backlog (250)") {
		t.Fatal("expected lane count in header")
	}
	if strings.Contains(content, "Task 41 ") {
		t.Fatal("expected tasks outside the window not to render")
	}

	m = applyKeys(t, m, tea.KeyPressMsg{Code: tea.KeyPgDown})
	if m.selected[0] != 5 {
		t.Fatalf("expected page down to move by window rows, got %d", m.selected[0])
	}
}

func TestModelHelpOverlayAndQuit(t *testing.T) {
	m := loadReadyModel(t, NewModel(newTestBoard(t, 4)))
	m = applyKeys(t, m, keyRune('?'))
	if !m.help.ShowAll {
		t.Fatal("expected help overlay")
	}
	if !strings.Contains(m.renderContent(), "lanes help") {
		t.Fatal("expected help overlay content")
	}
	m = applyKeys(t, m, keyRune('?'))
	if m.help.ShowAll {
		t.Fatal("expected help to close")
	}

	_, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit cmd")
	}
}

func TestModelRefreshClampsAfterExternalChange(t *testing.T) {
	board := newTestBoard(t, 8)
	m := loadReadyModel(t, NewModel(board, WithRefreshInterval(time.Second)))
	if m.Init() == nil {
		t.Fatal("expected refresh tick when polling is enabled")
	}
	m.selected[0] = 1

	board.ApplyDrop(context.Background(), "t4", domain.LaneComplete)
	updated, cmd := m.Update(refreshMsg{})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("expected refresh to reschedule")
	}
	if m.selected[0] != 0 || m.version != board.Snapshot().Version() {
		t.Fatalf("expected clamp after external move, got %d v%d", m.selected[0], m.version)
	}

	if NewModel(board).Init() != nil {
		t.Fatal("expected no tick when polling is disabled")
	}
}

func TestModelMouseWheel(t *testing.T) {
	m := loadReadyModel(t, NewModel(newTestBoard(t, 12)))
	m = applyMsg(t, m, tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	if m.selected[0] != 1 {
		t.Fatalf("expected wheel down to select 1, got %d", m.selected[0])
	}
	m = applyMsg(t, m, tea.MouseWheelMsg{Button: tea.MouseWheelUp})
	if m.selected[0] != 0 {
		t.Fatalf("expected wheel up to select 0, got %d", m.selected[0])
	}
}

func TestHelpers(t *testing.T) {
	if start, end := windowBounds(100, 50, 10); start != 45 || end != 55 {
		t.Fatalf("unexpected bounds %d %d", start, end)
	}
	if start, end := windowBounds(100, 99, 10); start != 90 || end != 100 {
		t.Fatalf("unexpected tail bounds %d %d", start, end)
	}
	if start, end := windowBounds(3, 1, 10); start != 0 || end != 3 {
		t.Fatalf("unexpected short bounds %d %d", start, end)
	}
	if wrapIndex(-1, 1, 3) != 0 || wrapIndex(2, 1, 3) != 0 || wrapIndex(0, -1, 3) != 2 {
		t.Fatal("unexpected wrapIndex results")
	}
	if truncate("abcdef", 4) != "abc…" || truncate("ab", 4) != "ab" || truncate("ab", 0) != "" {
		t.Fatal("unexpected truncate results")
	}
	if got := fitLines("a\nb\nc", 2); got != "a\n…" {
		t.Fatalf("unexpected fitLines %q", got)
	}
	if got := taskSecondary(domain.Task{Category: "jazz", Comments: 2}); got != "#jazz 2c" {
		t.Fatalf("unexpected secondary %q", got)
	}
	md := taskMarkdown(domain.Task{ID: "a", Title: "Task 1", Category: "rock"}, "To Do's")
	if !strings.Contains(md, "# Task 1") || !strings.Contains(md, "`a`") || strings.Contains(md, "created") {
		t.Fatalf("unexpected markdown %q", md)
	}
}
