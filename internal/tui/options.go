package tui

import "time"

// Option configures a Model.
type Option func(*Model)

// WithWindowRows sets how many tasks each lane materializes at once.
func WithWindowRows(rows int) Option {
	return func(m *Model) {
		if rows > 0 {
			m.windowRows = rows
		}
	}
}

// WithShowCounts toggles lane counts in column headers.
func WithShowCounts(show bool) Option {
	return func(m *Model) {
		m.showCounts = show
	}
}

// WithShowHelp toggles the short help footer.
func WithShowHelp(show bool) Option {
	return func(m *Model) {
		m.showHelp = show
	}
}

// WithKeyConfig applies key binding overrides.
func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyKeyConfig(cfg)
	}
}

// WithClipboard replaces the clipboard writer used by copy id.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

// WithRefreshInterval polls the board for changes made by other surfaces,
// such as the HTTP API when the server runs alongside the TUI.
func WithRefreshInterval(every time.Duration) Option {
	return func(m *Model) {
		if every > 0 {
			m.refreshEvery = every
		}
	}
}
