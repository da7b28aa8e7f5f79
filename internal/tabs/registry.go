package tabs

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

const DefaultMaxTabs = 3

type Tab struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func DefaultTitle(position int) string {
	return fmt.Sprintf("Tab %d", position)
}

// Registry is the bounded, ordered set of tabs of one plan plus the active selection.
// It is not safe for concurrent use; the owning session serializes access.
type Registry struct {
	tabs   []Tab
	active string
	max    int
	idGen  func() string
}

func NewRegistry(max int, idGen func() string) *Registry {
	if max < 1 {
		max = DefaultMaxTabs
	}
	if idGen == nil {
		idGen = uuid.NewString
	}
	return &Registry{
		max:   max,
		idGen: idGen,
	}
}

// Load replaces the registry contents and selects the first tab.
func (r *Registry) Load(tabs []Tab) {
	r.tabs = slices.Clone(tabs)
	r.active = ""
	if len(r.tabs) > 0 {
		r.active = r.tabs[0].ID
	}
}

// Add appends a new tab with a default title and makes it active.
// Returns false, without changes, once the bound is reached.
func (r *Registry) Add() (Tab, bool) {
	if len(r.tabs) >= r.max {
		return Tab{}, false
	}
	tab := Tab{
		ID:    r.idGen(),
		Title: DefaultTitle(len(r.tabs) + 1),
	}
	r.tabs = append(r.tabs, tab)
	r.active = tab.ID
	return tab, true
}

// Delete removes the tab and selects the first remaining one (or none).
func (r *Registry) Delete(id string) bool {
	idx := r.indexOf(id)
	if idx < 0 {
		return false
	}
	r.tabs = slices.Delete(r.tabs, idx, idx+1)
	r.active = ""
	if len(r.tabs) > 0 {
		r.active = r.tabs[0].ID
	}
	return true
}

func (r *Registry) Rename(id, title string) bool {
	idx := r.indexOf(id)
	if idx < 0 {
		return false
	}
	r.tabs[idx].Title = title
	return true
}

// SetActive changes the selection only.
func (r *Registry) SetActive(id string) bool {
	if r.indexOf(id) < 0 {
		return false
	}
	r.active = id
	return true
}

func (r *Registry) Tabs() []Tab {
	return slices.Clone(r.tabs)
}

func (r *Registry) Get(id string) (Tab, bool) {
	idx := r.indexOf(id)
	if idx < 0 {
		return Tab{}, false
	}
	return r.tabs[idx], true
}

// Active returns the active tab id, empty when there are no tabs.
func (r *Registry) Active() string {
	return r.active
}

func (r *Registry) Has(id string) bool {
	return r.indexOf(id) >= 0
}

func (r *Registry) Len() int {
	return len(r.tabs)
}

func (r *Registry) Max() int {
	return r.max
}

func (r *Registry) indexOf(id string) int {
	return slices.IndexFunc(r.tabs, func(t Tab) bool {
		return t.ID == id
	})
}
