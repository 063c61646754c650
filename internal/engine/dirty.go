package engine

import (
	"sort"
	"sync"

	"github.com/MrSnakeDoc/marksync/internal/domain"
)

// DirtySet tracks bookmark ids whose local version must survive background
// refreshes. Marks are counted: an id stays dirty until every Mark has been
// matched by a Clear.
type DirtySet struct {
	mu   sync.Mutex
	refs map[int64]int
}

func NewDirtySet() *DirtySet {
	return &DirtySet{refs: make(map[int64]int)}
}

func (d *DirtySet) Mark(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refs[id]++
}

func (d *DirtySet) Clear(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.refs[id] <= 1 {
		delete(d.refs, id)
		return
	}
	d.refs[id]--
}

func (d *DirtySet) Has(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.refs[id] > 0
}

// IDs returns the dirty ids in ascending order.
func (d *DirtySet) IDs() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]int64, 0, len(d.refs))
	for id := range d.refs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// snapshot copies the set for use by Merge.
func (d *DirtySet) snapshot() map[int64]bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[int64]bool, len(d.refs))
	for id := range d.refs {
		out[id] = true
	}
	return out
}

// Merge reconciles a freshly fetched collection with the local one.
//
// Records whose id is dirty are taken from current instead of incoming,
// keeping incoming's order and membership. Dirty records held in current
// but missing from incoming are appended in current's order. Incoming
// records whose id is in deleted are dropped. Nothing else from current
// survives.
func Merge(incoming, current []domain.Bookmark, dirty, deleted map[int64]bool) []domain.Bookmark {
	out := make([]domain.Bookmark, 0, len(incoming))
	if len(dirty) == 0 && len(deleted) == 0 {
		return append(out, incoming...)
	}

	local := make(map[int64]domain.Bookmark, len(dirty))
	for _, b := range current {
		if dirty[b.ID] {
			local[b.ID] = b
		}
	}

	seen := make(map[int64]bool, len(incoming))
	for _, b := range incoming {
		if deleted[b.ID] {
			continue
		}
		seen[b.ID] = true
		if l, ok := local[b.ID]; ok {
			out = append(out, l)
			continue
		}
		out = append(out, b)
	}
	for _, b := range current {
		if dirty[b.ID] && !seen[b.ID] {
			seen[b.ID] = true
			out = append(out, b)
		}
	}
	return out
}
