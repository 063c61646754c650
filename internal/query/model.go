// Package query holds what the user currently wants to see.
package query

import (
	"net/url"
	"strconv"
	"sync"

	"github.com/MrSnakeDoc/marksync/internal/domain"
)

// State is one immutable version of the query model. Every accepted change
// produces a new *State, so listeners can detect change by pointer.
type State struct {
	Search      domain.SearchQuery `json:"search"`
	ShowAll     bool               `json:"show_all"`
	WorkspaceID string             `json:"workspace_id,omitempty"`
	Version     uint64             `json:"version"`
}

// Listener is called after each accepted change, outside the model lock.
type Listener func(prev, next *State)

// Model is the versioned query model.
type Model struct {
	mu          sync.Mutex
	state       *State
	userLoading bool
	listeners   map[int]Listener
	nextID      int
}

// New returns a model at version 0 with an empty query.
func New() *Model {
	return &Model{
		state:     &State{},
		listeners: make(map[int]Listener),
	}
}

// Current returns the current state. Callers must not mutate it.
func (m *Model) Current() *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn and returns a function that removes it.
func (m *Model) Subscribe(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// SetSearch replaces the search predicates. The user-initiated loading flag
// is raised only when q differs structurally from the current search.
func (m *Model) SetSearch(q domain.SearchQuery) {
	q = q.Canonical()
	m.update(func(s *State) bool {
		if s.Search.Equal(q) {
			return false
		}
		s.Search = q
		m.userLoading = true
		return true
	})
}

// Clear resets the search predicates without raising the loading flag.
func (m *Model) Clear() {
	m.update(func(s *State) bool {
		if s.Search.Equal(domain.SearchQuery{}) {
			return false
		}
		s.Search = domain.SearchQuery{}
		return true
	})
}

// SetShowAll toggles listing every bookmark when no predicate is active.
func (m *Model) SetShowAll(all bool) {
	m.update(func(s *State) bool {
		if s.ShowAll == all {
			return false
		}
		s.ShowAll = all
		m.userLoading = true
		return true
	})
}

// SetWorkspace switches the active workspace ("" for none).
func (m *Model) SetWorkspace(id string) {
	m.update(func(s *State) bool {
		if s.WorkspaceID == id {
			return false
		}
		s.WorkspaceID = id
		m.userLoading = true
		return true
	})
}

// UserLoading reports whether a user-initiated change is waiting for results.
func (m *Model) UserLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userLoading
}

// SetUserLoading is called by the fetch path once results are rendered.
func (m *Model) SetUserLoading(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userLoading = v
}

// Hydrate initialises the model from URL query parameters. It does not raise
// the loading flag: the initial fetch owns the indicator.
func (m *Model) Hydrate(u *url.URL) {
	if u == nil {
		return
	}
	v := u.Query()
	q := domain.ParseValues(v)
	all, _ := strconv.ParseBool(v.Get("all"))
	ws := v.Get("workspace")

	m.update(func(s *State) bool {
		if s.Search.Equal(q) && s.ShowAll == all && s.WorkspaceID == ws {
			return false
		}
		s.Search = q
		s.ShowAll = all
		s.WorkspaceID = ws
		return true
	})
}

// Pin returns a copy of u with the current state written into its query
// string. Unrelated parameters of u are preserved.
func (m *Model) Pin(u *url.URL) *url.URL {
	cur := m.Current()
	out := &url.URL{}
	if u != nil {
		*out = *u
	}
	v := out.Query()
	for _, key := range stateKeys {
		v.Del(key)
	}
	for key, vals := range cur.Search.Values() {
		v[key] = vals
	}
	if cur.ShowAll {
		v.Set("all", "true")
	}
	if cur.WorkspaceID != "" {
		v.Set("workspace", cur.WorkspaceID)
	}
	out.RawQuery = v.Encode()
	return out
}

var stateKeys = []string{
	"q", "keyword", "tags", "title", "url", "description", "semantic",
	"threshold", "exact", "limit", "offset", "all", "workspace",
}

func (m *Model) update(apply func(s *State) bool) {
	m.mu.Lock()
	prev := m.state
	next := *prev
	if !apply(&next) {
		m.mu.Unlock()
		return
	}
	next.Version = prev.Version + 1
	m.state = &next
	listeners := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(prev, &next)
	}
}
