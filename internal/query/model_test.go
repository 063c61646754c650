package query

import (
	"net/url"
	"testing"

	"github.com/MrSnakeDoc/marksync/internal/domain"
)

func TestSetSearchProducesNewVersion(t *testing.T) {
	m := New()
	before := m.Current()

	m.SetSearch(domain.SearchQuery{Query: "go"})
	after := m.Current()

	if after == before {
		t.Fatal("SetSearch() should produce a distinct state value")
	}
	if after.Version != before.Version+1 {
		t.Errorf("Version = %d, want %d", after.Version, before.Version+1)
	}
	if before.Search.Query != "" {
		t.Error("previous state was mutated")
	}
}

func TestSetSearchEqualValueIsNoop(t *testing.T) {
	m := New()
	m.SetSearch(domain.SearchQuery{Query: "go", Tags: "a,b"})
	m.SetUserLoading(false)
	v := m.Current()

	calls := 0
	m.Subscribe(func(prev, next *State) { calls++ })

	m.SetSearch(domain.SearchQuery{Query: " go ", Tags: "a, b"})

	if m.Current() != v {
		t.Error("structurally equal query should not produce a new version")
	}
	if m.UserLoading() {
		t.Error("structurally equal query should not raise the loading flag")
	}
	if calls != 0 {
		t.Errorf("listener called %d times, want 0", calls)
	}
}

func TestUserLoadingFlag(t *testing.T) {
	m := New()
	if m.UserLoading() {
		t.Fatal("new model should not be loading")
	}

	m.SetSearch(domain.SearchQuery{Query: "x"})
	if !m.UserLoading() {
		t.Error("SetSearch() with a new value should raise the loading flag")
	}

	m.SetUserLoading(false)
	m.Clear()
	if m.UserLoading() {
		t.Error("Clear() should not raise the loading flag")
	}
	if !m.Current().Search.IsEmpty() {
		t.Error("Clear() should reset the search")
	}

	m.SetShowAll(true)
	if !m.UserLoading() {
		t.Error("SetShowAll() change should raise the loading flag")
	}

	m.SetUserLoading(false)
	m.SetShowAll(true)
	if m.UserLoading() {
		t.Error("SetShowAll() with the same value should be a no-op")
	}
}

func TestSubscribeReceivesPrevAndNext(t *testing.T) {
	m := New()
	var gotPrev, gotNext *State
	unsubscribe := m.Subscribe(func(prev, next *State) {
		gotPrev, gotNext = prev, next
	})

	first := m.Current()
	m.SetWorkspace("ws-1")

	if gotPrev != first {
		t.Error("listener prev should be the replaced state")
	}
	if gotNext != m.Current() || gotNext.WorkspaceID != "ws-1" {
		t.Errorf("listener next = %+v, want current state", gotNext)
	}

	unsubscribe()
	gotNext = nil
	m.SetWorkspace("ws-2")
	if gotNext != nil {
		t.Error("listener called after unsubscribe")
	}
}

func TestHydrateAndPin(t *testing.T) {
	u, err := url.Parse("https://app.example.com/bookmarks?q=golang&tags=a,b&all=true&workspace=ws9&theme=dark")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	m := New()
	m.Hydrate(u)

	s := m.Current()
	if s.Search.Query != "golang" || s.Search.Tags != "a,b" {
		t.Errorf("Hydrate() search = %+v", s.Search)
	}
	if !s.ShowAll || s.WorkspaceID != "ws9" {
		t.Errorf("Hydrate() showAll=%v workspace=%q", s.ShowAll, s.WorkspaceID)
	}
	if m.UserLoading() {
		t.Error("Hydrate() should not raise the loading flag")
	}

	m.SetSearch(domain.SearchQuery{Query: "rust"})
	m.SetShowAll(false)
	pinned := m.Pin(u)

	q := pinned.Query()
	if q.Get("q") != "rust" {
		t.Errorf("Pin() q = %q, want rust", q.Get("q"))
	}
	if q.Get("tags") != "" || q.Get("all") != "" {
		t.Errorf("Pin() kept stale parameters: %s", pinned.RawQuery)
	}
	if q.Get("theme") != "dark" {
		t.Error("Pin() should keep unrelated parameters")
	}
	if q.Get("workspace") != "ws9" {
		t.Errorf("Pin() workspace = %q, want ws9", q.Get("workspace"))
	}
	if u.Query().Get("q") != "golang" {
		t.Error("Pin() must not modify its input")
	}
}
