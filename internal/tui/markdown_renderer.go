package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/evanschultz/lanes/internal/domain"
)

// markdownRenderer renders markdown for terminal views and recreates the renderer when wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := max(width, 24)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// taskMarkdown describes one task for the info overlay.
func taskMarkdown(task domain.Task, laneName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", task.Title)
	fmt.Fprintf(&b, "- **id:** `%s`\n", task.ID)
	fmt.Fprintf(&b, "- **lane:** %s\n", laneName)
	if task.Category != "" {
		fmt.Fprintf(&b, "- **category:** %s\n", task.Category)
	}
	if task.Author != "" {
		fmt.Fprintf(&b, "- **author:** %s\n", task.Author)
	}
	fmt.Fprintf(&b, "- **comments:** %d, **attachments:** %d\n", task.Comments, task.Attachments)
	if !task.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- **created:** %s\n", task.CreatedAt.Format("2006-01-02 15:04 MST"))
	}
	return b.String()
}
