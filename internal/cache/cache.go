// Package cache implements conditional-GET caching: it remembers the last
// ETag and decoded payload per request shape and replays the payload when
// the server answers 304.
package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/marksync/internal/logger"
	"github.com/MrSnakeDoc/marksync/internal/remote"
)

// ErrUnchangedWithoutPayload is returned when the server keeps answering
// 304 even after the validator was dropped.
var ErrUnchangedWithoutPayload = errors.New("server answered not modified to an unconditional request")

type entry struct {
	etag     string
	payload  any
	storedAt time.Time
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Retries uint64 `json:"retries"`
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	logger  logger.Logger

	hits    uint64
	misses  uint64
	retries uint64
}

// New returns an empty cache. now defaults to time.Now.
func New(log logger.Logger, now func() time.Time) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: make(map[string]*entry),
		now:     now,
		logger:  log,
	}
}

// Fetcher performs one request, sending etag as If-None-Match when non-empty.
type Fetcher[T any] func(ctx context.Context, etag string) remote.Result[T]

// Request runs fetch through the cache stored under key.
//
// A 304 with a cached payload is answered from the cache as KindOK. A 304
// with nothing cached means the entry was dropped while the request was in
// flight: the entry is evicted and the request retried once without a
// validator. Results other than OK and NotModified leave the entry alone.
func Request[T any](ctx context.Context, c *Cache, key string, fetch Fetcher[T]) remote.Result[T] {
	res := fetch(ctx, c.validator(key))

	switch res.Kind {
	case remote.KindOK:
		c.store(key, res.ETag, res.Value)
		return res

	case remote.KindNotModified:
		if v, etag, ok := lookup[T](c, key); ok {
			res.Kind = remote.KindOK
			res.Value = v
			res.ETag = etag
			return res
		}

		c.evict(key)
		c.logger.Debug("cache entry missing on 304, retrying unconditionally",
			logger.String("key", key))

		res = fetch(ctx, "")
		switch res.Kind {
		case remote.KindOK:
			c.store(key, res.ETag, res.Value)
		case remote.KindNotModified:
			return remote.Result[T]{Kind: remote.KindTransient, Err: ErrUnchangedWithoutPayload}
		}
		return res

	default:
		return res
	}
}

func (c *Cache) validator(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.etag
	}
	return ""
}

func lookup[T any](c *Cache, key string) (T, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, "", false
	}
	v, ok := e.payload.(T)
	if !ok {
		return zero, "", false
	}
	c.hits++
	return v, e.etag, true
}

func (c *Cache) store(key, etag string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.misses++
	if etag == "" {
		// Without a validator the server can never answer 304.
		delete(c.entries, key)
		return
	}
	c.entries[key] = &entry{etag: etag, payload: payload, storedAt: c.now()}
}

func (c *Cache) evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.retries++
}

// Invalidate drops every entry whose key starts with prefix. An empty prefix
// drops everything. It returns the number of entries removed.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prefix == "" {
		n := len(c.entries)
		c.entries = make(map[string]*entry)
		return n
	}
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Sweep drops entries stored more than olderThan ago.
func (c *Cache) Sweep(olderThan time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-olderThan)
	n := 0
	for k, e := range c.entries {
		if e.storedAt.Before(cutoff) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		Retries: c.retries,
	}
}
