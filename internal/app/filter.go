package app

import (
	"strings"
	"sync"

	"github.com/evanschultz/lanes/internal/domain"
)

// FilterAll admits every task.
const FilterAll = "all"

// FilterState holds the selected category. Values are never validated against
// the known categories; an unknown one yields empty views.
type FilterState struct {
	mu    sync.RWMutex
	value string
}

// NewFilterState returns a filter state initialised to value.
func NewFilterState(value string) *FilterState {
	return &FilterState{value: NormalizeFilter(value)}
}

// Set replaces the current value unconditionally.
func (f *FilterState) Set(value string) string {
	value = NormalizeFilter(value)
	f.mu.Lock()
	f.value = value
	f.mu.Unlock()
	return value
}

// Value returns the current filter value.
func (f *FilterState) Value() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

// NormalizeFilter maps blank input to FilterAll.
func NormalizeFilter(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, FilterAll) {
		return FilterAll
	}
	return value
}

// Matches reports whether task passes the filter value.
func Matches(filter string, task domain.Task) bool {
	return filter == FilterAll || task.Category == filter
}
