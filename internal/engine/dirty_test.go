package engine

import (
	"reflect"
	"testing"

	"github.com/MrSnakeDoc/marksync/internal/domain"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		incoming []domain.Bookmark
		current  []domain.Bookmark
		dirty    map[int64]bool
		deleted  map[int64]bool
		want     []string
	}{
		{
			name:     "no dirty ids takes incoming verbatim",
			incoming: []domain.Bookmark{bm(1, "new1"), bm(2, "new2")},
			current:  []domain.Bookmark{bm(1, "old1"), bm(3, "old3")},
			want:     []string{"new1", "new2"},
		},
		{
			name:     "dirty id keeps local version in incoming position",
			incoming: []domain.Bookmark{bm(2, "new2"), bm(7, "B"), bm(9, "new9")},
			current:  []domain.Bookmark{bm(7, "A"), bm(2, "old2")},
			dirty:    map[int64]bool{7: true},
			want:     []string{"new2", "A", "new9"},
		},
		{
			name:     "dirty record missing from incoming is appended",
			incoming: []domain.Bookmark{bm(1, "new1")},
			current:  []domain.Bookmark{bm(5, "local5"), bm(1, "old1"), bm(-1, "placeholder")},
			dirty:    map[int64]bool{5: true, -1: true},
			want:     []string{"new1", "local5", "placeholder"},
		},
		{
			name:     "dirty id absent everywhere is ignored",
			incoming: []domain.Bookmark{bm(1, "new1")},
			current:  nil,
			dirty:    map[int64]bool{4: true},
			want:     []string{"new1"},
		},
		{
			name:     "dirty id only in incoming takes incoming",
			incoming: []domain.Bookmark{bm(4, "server4")},
			current:  []domain.Bookmark{bm(1, "old1")},
			dirty:    map[int64]bool{4: true},
			want:     []string{"server4"},
		},
		{
			name:     "record being deleted is dropped from incoming",
			incoming: []domain.Bookmark{bm(1, "new1"), bm(2, "new2")},
			current:  []domain.Bookmark{bm(1, "old1")},
			deleted:  map[int64]bool{2: true},
			want:     []string{"new1"},
		},
		{
			name:     "deleted and dirty ids combine",
			incoming: []domain.Bookmark{bm(3, "new3"), bm(4, "new4")},
			current:  []domain.Bookmark{bm(3, "local3")},
			dirty:    map[int64]bool{3: true},
			deleted:  map[int64]bool{4: true},
			want:     []string{"local3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(Merge(tt.incoming, tt.current, tt.dirty, tt.deleted))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirtySetIsReferenceCounted(t *testing.T) {
	d := NewDirtySet()
	d.Mark(7)
	d.Mark(7)
	d.Clear(7)
	if !d.Has(7) {
		t.Fatal("id cleared while a second bracket is still open")
	}
	d.Clear(7)
	if d.Has(7) {
		t.Error("id still dirty after every bracket closed")
	}
	d.Clear(7)
	if d.Has(7) || len(d.IDs()) != 0 {
		t.Error("extra Clear resurrected the id")
	}
}

func TestDirtySetIDsSorted(t *testing.T) {
	d := NewDirtySet()
	for _, id := range []int64{9, -2, 4} {
		d.Mark(id)
	}
	if got, want := d.IDs(), []int64{-2, 4, 9}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
}

func TestWithDirtyClearsOnPanic(t *testing.T) {
	e := newTestEngine(&fakeRemote{}, nil)

	func() {
		defer func() { _ = recover() }()
		_ = e.withDirty(3, func() error {
			if !e.dirty.Has(3) {
				t.Error("id not dirty inside the bracket")
			}
			panic("boom")
		})
	}()

	if e.dirty.Has(3) {
		t.Error("id still dirty after the bracket panicked")
	}
}
