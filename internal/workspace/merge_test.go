package workspace

import (
	"testing"

	"github.com/MrSnakeDoc/marksync/internal/domain"
)

func TestFragment(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.WorkspaceFilter
		want   string
	}{
		{name: "empty", filter: domain.WorkspaceFilter{}, want: ""},
		{name: "single whitelist", filter: domain.WorkspaceFilter{Whitelist: []string{"go"}}, want: "#go"},
		{name: "multi whitelist", filter: domain.WorkspaceFilter{Whitelist: []string{"go", "rust", "zig"}}, want: "(#go or #rust or #zig)"},
		{name: "blacklist only", filter: domain.WorkspaceFilter{Blacklist: []string{"a", "b"}}, want: "not #a not #b"},
		{name: "keyword only", filter: domain.WorkspaceFilter{Keyword: "  docs "}, want: "docs"},
		{
			name:   "everything",
			filter: domain.WorkspaceFilter{Whitelist: []string{"x", "y"}, Blacklist: []string{"z"}, Keyword: "k"},
			want:   "(#x or #y) not #z k",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fragment(domain.Workspace{Filter: tt.filter})
			if got != tt.want {
				t.Errorf("Fragment() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	ws := &domain.Workspace{
		ID:     "ws1",
		Filter: domain.WorkspaceFilter{Whitelist: []string{"x", "y"}, Blacklist: []string{"z"}, Keyword: "k"},
	}

	got := Merge(domain.SearchQuery{}, ws)
	if got.Keyword != "(#x or #y) not #z k" {
		t.Errorf("Merge(empty) keyword = %q, want %q", got.Keyword, "(#x or #y) not #z k")
	}

	got = Merge(domain.SearchQuery{Keyword: "q"}, ws)
	if got.Keyword != "((#x or #y) not #z k) (q)" {
		t.Errorf("Merge(q) keyword = %q, want %q", got.Keyword, "((#x or #y) not #z k) (q)")
	}
}

func TestMergePassesThroughWithoutFragment(t *testing.T) {
	q := domain.SearchQuery{Query: "hello", Keyword: "#a"}

	if got := Merge(q, nil); !got.Equal(q) {
		t.Errorf("Merge(nil workspace) = %+v, want %+v", got, q)
	}
	if got := Merge(q, &domain.Workspace{ID: "empty"}); !got.Equal(q) {
		t.Errorf("Merge(empty workspace) = %+v, want %+v", got, q)
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	q := domain.SearchQuery{Keyword: "q"}
	ws := &domain.Workspace{Filter: domain.WorkspaceFilter{Whitelist: []string{"x"}}}
	_ = Merge(q, ws)
	if q.Keyword != "q" {
		t.Errorf("Merge() mutated its input: %q", q.Keyword)
	}
}

func TestFind(t *testing.T) {
	list := []domain.Workspace{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
	if ws := Find(list, "b"); ws == nil || ws.Name != "B" {
		t.Errorf("Find(b) = %+v, want workspace B", ws)
	}
	if ws := Find(list, "missing"); ws != nil {
		t.Errorf("Find(missing) = %+v, want nil", ws)
	}
	if ws := Find(list, ""); ws != nil {
		t.Errorf("Find(\"\") = %+v, want nil", ws)
	}
}
