package tui

import (
	"context"
	"fmt"
	"image/color"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

// Board represents the board surface this package renders and mutates.
type Board interface {
	Lanes() []domain.Lane
	Categories() []string
	Window() *app.Window
	Filter() string
	SetFilter(string) string
	DragStart(string)
	DragEnd(context.Context, string, domain.LaneID) app.DropResult
	ActiveDrag() (domain.Task, bool)
	AddTask(context.Context, domain.LaneID) (domain.Task, bool)
	Stats() app.Stats
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeTaskInfo
)

// defaultWindowRows bounds how many tasks one lane renders.
const defaultWindowRows = 12

// Model represents model data used by this package.
type Model struct {
	board    Board
	lanes    []domain.Lane
	keys     keyMap
	help     help.Model
	markdown *markdownRenderer
	copyText func(string) error
	ctx      context.Context

	windowRows   int
	showCounts   bool
	showHelp     bool
	refreshEvery time.Duration

	ready  bool
	width  int
	height int
	mode   inputMode

	focus      int
	selected   []int
	dragID     string
	dragTitle  string
	dropTarget *app.DropTarget
	infoTask   domain.Task
	version    uint64
	status     string
}

// refreshMsg asks the model to re-read the board version.
type refreshMsg struct{}

// NewModel constructs a new value for this package.
func NewModel(board Board, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	lanes := board.Lanes()
	m := Model{
		board:      board,
		lanes:      lanes,
		keys:       newKeyMap(),
		help:       h,
		markdown:   &markdownRenderer{},
		copyText:   clipboard.WriteAll,
		ctx:        app.WithMutationActor(context.Background(), app.MutationActor{ActorID: "tui", ActorType: app.ActorTypeUser}),
		windowRows: defaultWindowRows,
		showCounts: true,
		showHelp:   true,
		selected:   make([]int, len(lanes)),
		status:     "ready",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.version = board.Stats().Version
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.refreshCmd()
}

// refreshCmd schedules the next board poll when polling is enabled.
func (m Model) refreshCmd() tea.Cmd {
	if m.refreshEvery <= 0 {
		return nil
	}
	return tea.Tick(m.refreshEvery, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshMsg:
		if version := m.board.Stats().Version; version != m.version {
			m.version = version
			m.clampSelections()
		}
		return m, m.refreshCmd()

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// handleKey routes one key press.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	if m.help.ShowAll {
		if key.Matches(msg, m.keys.toggleHelp, m.keys.cancel) {
			m.help.ShowAll = false
		}
		return m, nil
	}
	if m.mode == modeTaskInfo {
		if key.Matches(msg, m.keys.taskInfo, m.keys.cancel) {
			m.mode = modeNone
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = true
	case key.Matches(msg, m.keys.moveLeft):
		m.moveFocus(-1)
	case key.Matches(msg, m.keys.moveRight):
		m.moveFocus(1)
	case key.Matches(msg, m.keys.moveUp):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.moveDown):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.pageUp):
		m.moveSelection(-m.windowRows)
	case key.Matches(msg, m.keys.pageDown):
		m.moveSelection(m.windowRows)
	case key.Matches(msg, m.keys.top):
		m.selectIndex(0)
	case key.Matches(msg, m.keys.bottom):
		m.selectIndex(m.laneCount(m.focus) - 1)
	case key.Matches(msg, m.keys.pickUp):
		m.pickUp()
	case key.Matches(msg, m.keys.drop):
		m.dropActive()
	case key.Matches(msg, m.keys.cancel):
		m.cancelDrag()
	case key.Matches(msg, m.keys.cycleFilter):
		m.cycleFilter()
	case key.Matches(msg, m.keys.clearFilter):
		m.applyFilter(app.FilterAll)
	case key.Matches(msg, m.keys.addTask):
		m.addTask()
	case key.Matches(msg, m.keys.taskInfo):
		m.openTaskInfo()
	case key.Matches(msg, m.keys.copyID):
		m.copySelectedID()
	}
	return m, nil
}

// handleMouseWheel handles mouse wheel.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.moveSelection(-1)
	case tea.MouseWheelDown:
		m.moveSelection(1)
	}
	return m, nil
}

// focusedLane returns the lane under focus.
func (m Model) focusedLane() domain.Lane {
	return m.lanes[clamp(m.focus, 0, len(m.lanes)-1)]
}

// laneCount returns the current size of the lane at idx.
func (m Model) laneCount(idx int) int {
	return m.board.Window().Count(m.lanes[idx].ID)
}

// selectedTask returns the task under the cursor in the focused lane.
func (m Model) selectedTask() (domain.Task, bool) {
	return m.board.Window().ItemAt(m.focusedLane().ID, m.selected[m.focus])
}

// moveFocus moves lane focus. While dragging the drop target follows focus.
func (m *Model) moveFocus(delta int) {
	m.focus = clamp(m.focus+delta, 0, len(m.lanes)-1)
	m.selected[m.focus] = clamp(m.selected[m.focus], 0, m.laneCount(m.focus)-1)
	if m.dragID != "" {
		m.dropTarget, _ = m.board.Window().DropTargetHandle(m.focusedLane().ID)
	}
}

// moveSelection moves the cursor within the focused lane.
func (m *Model) moveSelection(delta int) {
	m.selectIndex(m.selected[m.focus] + delta)
}

// selectIndex places the cursor, clamped to the lane size.
func (m *Model) selectIndex(idx int) {
	m.selected[m.focus] = clamp(idx, 0, m.laneCount(m.focus)-1)
}

// clampSelections keeps every cursor inside its lane after the board changes.
func (m *Model) clampSelections() {
	for idx := range m.lanes {
		m.selected[idx] = clamp(m.selected[idx], 0, m.laneCount(idx)-1)
	}
}

// pickUp starts dragging the selected task.
func (m *Model) pickUp() {
	task, ok := m.selectedTask()
	if !ok {
		m.status = "nothing to pick up"
		return
	}
	m.board.DragStart(task.ID)
	m.dragID = task.ID
	m.dragTitle = task.Title
	m.dropTarget, _ = m.board.Window().DropTargetHandle(m.focusedLane().ID)
	m.status = fmt.Sprintf("dragging %s: %s/%s choose lane, %s drop, %s cancel",
		task.Title, m.keys.moveLeft.Help().Key, m.keys.moveRight.Help().Key, m.keys.drop.Help().Key, m.keys.cancel.Help().Key)
}

// dropActive ends the drag over the current drop target.
func (m *Model) dropActive() {
	if m.dragID == "" {
		m.status = "nothing picked up"
		return
	}
	target := m.board.Window().Resolve(m.dropTarget)
	res := m.board.DragEnd(m.ctx, m.dragID, target)
	title := m.dragTitle
	m.dragID, m.dragTitle, m.dropTarget = "", "", nil
	m.version = res.Version
	m.clampSelections()
	switch res.Outcome {
	case app.DropMoved:
		m.status = fmt.Sprintf("moved %s to %s", title, m.laneName(res.To))
	case app.DropUnchanged:
		m.status = fmt.Sprintf("%s is already in %s", title, m.laneName(res.To))
	case app.DropVanished:
		m.status = fmt.Sprintf("%s no longer exists", title)
	case app.DropCancelled:
		m.status = "drag cancelled"
	default:
		m.status = "not a drop target"
	}
}

// cancelDrag ends the drag without a target.
func (m *Model) cancelDrag() {
	if m.dragID == "" {
		return
	}
	m.board.DragEnd(m.ctx, m.dragID, "")
	m.dragID, m.dragTitle, m.dropTarget = "", "", nil
	m.status = "drag cancelled"
}

// filterOptions returns the filter cycle order.
func (m Model) filterOptions() []string {
	return append([]string{app.FilterAll}, m.board.Categories()...)
}

// cycleFilter advances to the next category filter.
func (m *Model) cycleFilter() {
	options := m.filterOptions()
	idx := slices.Index(options, m.board.Filter())
	m.applyFilter(options[wrapIndex(idx, 1, len(options))])
}

// applyFilter replaces the filter and resets cursors.
func (m *Model) applyFilter(value string) {
	next := m.board.SetFilter(value)
	for idx := range m.selected {
		m.selected[idx] = 0
	}
	m.status = "filter: " + next
}

// addTask appends a generated task to the focused lane and selects it when visible.
func (m *Model) addTask() {
	lane := m.focusedLane()
	task, ok := m.board.AddTask(m.ctx, lane.ID)
	if !ok {
		m.status = "could not add task"
		return
	}
	m.version = m.board.Stats().Version
	last := m.laneCount(m.focus) - 1
	if added, ok := m.board.Window().ItemAt(lane.ID, last); ok && added.ID == task.ID {
		m.selected[m.focus] = last
		m.status = fmt.Sprintf("added %s to %s", task.Title, lane.Name)
		return
	}
	m.status = fmt.Sprintf("added %s to %s (hidden by filter)", task.Title, lane.Name)
}

// openTaskInfo shows details for the selected task.
func (m *Model) openTaskInfo() {
	task, ok := m.selectedTask()
	if !ok {
		m.status = "no task selected"
		return
	}
	m.infoTask = task
	m.mode = modeTaskInfo
}

// copySelectedID copies the selected task id to the clipboard.
func (m *Model) copySelectedID() {
	task, ok := m.selectedTask()
	if !ok {
		m.status = "no task selected"
		return
	}
	if err := m.copyText(task.ID); err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = "copied " + task.ID
}

// laneName returns the configured name for a lane id.
func (m Model) laneName(id domain.LaneID) string {
	for _, lane := range m.lanes {
		if lane.ID == id {
			return lane.Name
		}
	}
	return id.Label()
}

// View handles view.
func (m Model) View() tea.View {
	view := tea.NewView(m.renderContent())
	view.MouseMode = tea.MouseModeCellMotion
	view.AltScreen = true
	return view
}

// renderContent renders the full screen as text.
func (m Model) renderContent() string {
	if !m.ready {
		return "loading..."
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	stats := m.board.Stats()
	header := titleStyle.Render("lanes")
	header += statusStyle.Render(fmt.Sprintf("  filter: %s", stats.Filter))
	header += statusStyle.Render(fmt.Sprintf("  %d/%d tasks", stats.Filtered, stats.Total))
	header += statusStyle.Render(fmt.Sprintf("  v%d", stats.Version))
	if m.dragID != "" {
		header += statusStyle.Render("  [dragging]")
	}

	body := m.renderBoard(accent, muted, dim)

	sections := []string{header, "", body}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	fullContent := content
	if m.showHelp {
		helpBubble := m.help
		helpBubble.ShowAll = false
		helpBubble.SetWidth(max(0, m.width-2))
		helpLine := lipgloss.NewStyle().
			Foreground(muted).
			BorderTop(true).
			BorderForeground(dim).
			Padding(0, 1).
			Width(max(0, m.width)).
			Render(helpBubble.View(m.keys))
		if m.height > 0 {
			content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
		}
		fullContent = content + "\n" + helpLine
	}

	overlay := ""
	switch {
	case m.help.ShowAll:
		overlay = m.renderHelpOverlay(accent, muted, dim, m.width-8)
	case m.mode == modeTaskInfo:
		overlay = m.renderTaskInfo(dim, m.width-8)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}
	return fullContent
}

// renderBoard renders every lane. Each lane materializes only its visible window.
func (m Model) renderBoard(accent, muted, dim color.Color) string {
	window := m.board.Window()
	dragged, dragging := m.board.ActiveDrag()
	targetLane := window.Resolve(m.dropTarget)

	colWidth := m.columnWidth()
	baseColStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		MarginRight(1).
		Width(colWidth)
	focusColStyle := baseColStyle.BorderForeground(accent)
	dropColStyle := baseColStyle.BorderForeground(lipgloss.Color("42"))
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	selectedTaskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	draggedTaskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Italic(true)
	itemSubStyle := lipgloss.NewStyle().Foreground(muted)
	warningStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))

	columnViews := make([]string, 0, len(m.lanes))
	for laneIdx, lane := range m.lanes {
		total := window.Count(lane.ID)
		selected := clamp(m.selected[laneIdx], 0, total-1)
		start, end := windowBounds(total, selected, m.windowRows)
		items, total := window.Slice(lane.ID, start, end)

		colHeader := lane.Name
		if m.showCounts {
			colHeader = fmt.Sprintf("%s (%d)", lane.Name, total)
			if lane.WIPLimit > 0 {
				colHeader = fmt.Sprintf("%s (%d/%d)", lane.Name, total, lane.WIPLimit)
			}
		}
		lines := []string{colTitle.Render(colHeader)}
		if lane.OverLimit(total) {
			lines = append(lines, warningStyle.Render(fmt.Sprintf("WIP limit exceeded: %d/%d", total, lane.WIPLimit)))
		}

		if len(items) == 0 {
			lines = append(lines, emptyStyle.Render("(empty)"))
		}
		for offset, task := range items {
			isSelected := laneIdx == m.focus && start+offset == selected
			prefix := "  "
			if isSelected {
				prefix = "│ "
			}
			title := prefix + truncate(task.Title, max(1, colWidth-4))
			switch {
			case dragging && task.ID == dragged.ID:
				title = draggedTaskStyle.Render(title)
			case isSelected:
				title = selectedTaskStyle.Render(title)
			}
			lines = append(lines, title)
			lines = append(lines, prefix+itemSubStyle.Render(truncate(taskSecondary(task), max(1, colWidth-4))))
		}
		if total > len(items) && len(items) > 0 {
			lines = append(lines, itemSubStyle.Render(fmt.Sprintf("%d-%d of %d", start+1, start+len(items), total)))
		}

		content := fitLines(strings.Join(lines, "\n"), m.columnHeight())
		switch {
		case dragging && lane.ID == targetLane:
			columnViews = append(columnViews, dropColStyle.Render(content))
		case laneIdx == m.focus:
			columnViews = append(columnViews, focusColStyle.Render(content))
		default:
			columnViews = append(columnViews, baseColStyle.Render(content))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

// renderTaskInfo renders the task details overlay.
func (m Model) renderTaskInfo(dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 40, 80)
	body := m.markdown.render(taskMarkdown(m.infoTask, m.laneName(m.infoTask.Status)), width-4)
	footer := lipgloss.NewStyle().Foreground(dim).Render("press i or esc to close")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Width(width).
		Render(body + "\n\n" + footer)
}

// renderHelpOverlay renders help overlay.
func (m Model) renderHelpOverlay(accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("lanes help")
	workflow := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Drag and drop"),
		fmt.Sprintf("1. %s picks up the selected task", m.keys.pickUp.Help().Key),
		"2. h/l moves the drop target between lanes",
		fmt.Sprintf("3. %s drops, %s cancels", m.keys.drop.Help().Key, m.keys.cancel.Help().Key),
		fmt.Sprintf("4. %s cycles the category filter, %s clears it", m.keys.cycleFilter.Help().Key, m.keys.clearFilter.Help().Key),
	}
	lines := []string{
		title,
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(muted).Render(strings.Join(workflow, "\n")),
		lipgloss.NewStyle().Foreground(muted).Render("press ? or esc to close"),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// taskSecondary returns the muted line under a task title.
func taskSecondary(task domain.Task) string {
	parts := make([]string, 0, 3)
	if task.Category != "" {
		parts = append(parts, "#"+task.Category)
	}
	if task.Comments > 0 {
		parts = append(parts, fmt.Sprintf("%dc", task.Comments))
	}
	if task.Attachments > 0 {
		parts = append(parts, fmt.Sprintf("%da", task.Attachments))
	}
	return strings.Join(parts, " ")
}

// columnWidth returns column width.
func (m Model) columnWidth() int {
	if len(m.lanes) == 0 {
		return 24
	}
	w := 28
	if m.width > 0 {
		// Per-column overhead: left/right border (2), horizontal padding (2), margin-right (1)
		const colOverhead = 5
		if candidate := (m.width - len(m.lanes)*colOverhead) / len(m.lanes); candidate > 0 {
			w = candidate
		}
	}
	return clamp(w, 20, 42)
}

// columnHeight returns the line budget inside one column.
func (m Model) columnHeight() int {
	// header lines plus two lines per task and a position footer
	return 2 + 2*m.windowRows + 1
}

// wrapIndex returns current+delta wrapped into [0, total).
func wrapIndex(current int, delta int, total int) int {
	if total <= 0 {
		return 0
	}
	next := (current + delta) % total
	if next < 0 {
		next += total
	}
	return next
}

// windowBounds returns an inclusive-exclusive list window that keeps selected visible.
func windowBounds(total, selected, windowSize int) (int, int) {
	if total <= 0 || windowSize <= 0 {
		return 0, 0
	}
	if total <= windowSize {
		return 0, total
	}
	selected = clamp(selected, 0, total-1)
	start := max(0, selected-windowSize/2)
	end := start + windowSize
	if end > total {
		end = total
		start = max(0, end-windowSize)
	}
	return start, end
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit <= 1 {
		return string(rs[:limit])
	}
	return string(rs[:limit-1]) + "…"
}
