// Package index holds the published bookmark collection.
package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/marksync/internal/domain"
)

// Collection is the ordered bookmark list currently shown to the user, with
// an id lookup kept in sync. Readers always receive copies.
type Collection struct {
	mu          sync.RWMutex
	items       []domain.Bookmark
	pos         map[int64]int // ID -> position in items
	lastReplace time.Time
}

func NewCollection() *Collection {
	return &Collection{pos: make(map[int64]int)}
}

// Replace swaps the whole collection.
func (c *Collection) Replace(items []domain.Bookmark) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make([]domain.Bookmark, len(items))
	copy(c.items, items)
	c.reindex()
	c.lastReplace = time.Now()
}

// All returns a copy of the collection in display order.
func (c *Collection) All() []domain.Bookmark {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Bookmark, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the bookmark with the given id.
func (c *Collection) Get(id int64) (domain.Bookmark, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.pos[id]
	if !ok {
		return domain.Bookmark{}, false
	}
	return c.items[i].Clone(), true
}

// Put replaces the bookmark with the same id in place, or prepends it.
func (c *Collection) Put(b domain.Bookmark) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.pos[b.ID]; ok {
		c.items[i] = b
		return
	}
	c.insertLocked(0, b)
}

// Swap replaces the bookmark identified by oldID with b, keeping its
// position. Used to reconcile a placeholder with the server record.
func (c *Collection) Swap(oldID int64, b domain.Bookmark) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.pos[oldID]
	if !ok {
		return false
	}
	if j, dup := c.pos[b.ID]; dup && j != i {
		// A refetch already delivered the server record.
		c.removeLocked(i)
		return true
	}
	delete(c.pos, oldID)
	c.items[i] = b
	c.pos[b.ID] = i
	return true
}

// Remove deletes a bookmark and returns it with its former position.
func (c *Collection) Remove(id int64) (domain.Bookmark, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.pos[id]
	if !ok {
		return domain.Bookmark{}, -1, false
	}
	b := c.items[i]
	c.removeLocked(i)
	return b, i, true
}

// Insert puts b at position i (clamped). An existing record with the same id
// is replaced in place instead.
func (c *Collection) Insert(i int, b domain.Bookmark) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if j, ok := c.pos[b.ID]; ok {
		c.items[j] = b
		return
	}
	c.insertLocked(i, b)
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// LastReplace returns when Replace last ran.
func (c *Collection) LastReplace() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastReplace
}

func (c *Collection) insertLocked(i int, b domain.Bookmark) {
	if i < 0 {
		i = 0
	}
	if i > len(c.items) {
		i = len(c.items)
	}
	c.items = append(c.items, domain.Bookmark{})
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = b
	c.reindex()
}

func (c *Collection) removeLocked(i int) {
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.reindex()
}

func (c *Collection) reindex() {
	c.pos = make(map[int64]int, len(c.items))
	for i, b := range c.items {
		c.pos[b.ID] = i
	}
}
