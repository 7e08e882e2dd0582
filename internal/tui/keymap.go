package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	toggleHelp  key.Binding
	moveLeft    key.Binding
	moveRight   key.Binding
	moveUp      key.Binding
	moveDown    key.Binding
	pageUp      key.Binding
	pageDown    key.Binding
	top         key.Binding
	bottom      key.Binding
	pickUp      key.Binding
	drop        key.Binding
	cancel      key.Binding
	cycleFilter key.Binding
	clearFilter key.Binding
	addTask     key.Binding
	taskInfo    key.Binding
	copyID      key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "lane left")),
		moveRight:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "lane right")),
		moveUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		pageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		pageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		top:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first task")),
		bottom:      key.NewBinding(key.WithKeys("G", "shift+g", "end"), key.WithHelp("G", "last task")),
		pickUp:      key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "pick up")),
		drop:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		cycleFilter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "next filter")),
		clearFilter: key.NewBinding(key.WithKeys("F", "shift+f"), key.WithHelp("F", "all categories")),
		addTask:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		taskInfo:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "task info")),
		copyID:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
	}
}

// KeyConfig overrides board bindings. Blank fields keep the defaults.
type KeyConfig struct {
	PickUp      string
	Drop        string
	CycleFilter string
	AddTask     string
	CopyID      string
}

// applyKeyConfig applies configured overrides onto the key map.
func (k *keyMap) applyKeyConfig(cfg KeyConfig) {
	configureBinding(&k.pickUp, cfg.PickUp, "space", "pick up")
	configureBinding(&k.drop, cfg.Drop, "enter", "drop")
	configureBinding(&k.cycleFilter, cfg.CycleFilter, "f", "next filter")
	configureBinding(&k.addTask, cfg.AddTask, "n", "new task")
	configureBinding(&k.copyID, cfg.CopyID, "y", "copy id")
}

// configureBinding replaces one binding's keys when an override is set.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys maps one configured key into matcher keys and help text.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") || raw == " " {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.pickUp, k.drop, k.cycleFilter, k.addTask, k.taskInfo, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.pageUp, k.pageDown, k.top, k.bottom},
		{k.pickUp, k.drop, k.cancel},
		{k.cycleFilter, k.clearFilter, k.addTask, k.taskInfo, k.copyID, k.toggleHelp, k.quit},
	}
}
