package engine

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/marksync/internal/domain"
	"github.com/MrSnakeDoc/marksync/internal/logger"
)

// withDirty protects id from background refreshes while fn runs. The mark
// is always released, including when fn panics.
func (e *Engine) withDirty(id int64, fn func() error) error {
	e.dirty.Mark(id)
	defer e.dirty.Clear(id)
	return fn()
}

// afterMutation drops every cached payload and asks for a refetch, since
// counts and tags may have moved along with the collection.
func (e *Engine) afterMutation() {
	n := e.cache.Invalidate("")
	e.logger.Debug("cache invalidated after mutation", logger.Int("entries", n))
	e.RequestRefetch()
}

func (e *Engine) nextPlaceholderID() int64 {
	return -e.placeholders.Add(1)
}

// CreateBookmark publishes a placeholder with a negative id right away and
// reconciles it with the server record, or removes it on failure.
func (e *Engine) CreateBookmark(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	b.Tags = domain.NormalizeTags(b.Tags)
	if err := domain.Validate(b); err != nil {
		return domain.Bookmark{}, err
	}

	tmp := b.Clone()
	tmp.ID = e.nextPlaceholderID()

	var created domain.Bookmark
	err := e.withDirty(tmp.ID, func() error {
		e.mutate(func() bool {
			e.collection.Put(tmp)
			return true
		})

		res := e.remote.CreateBookmark(ctx, b)
		if err := res.AsError(); err != nil {
			e.mutate(func() bool {
				_, _, ok := e.collection.Remove(tmp.ID)
				return ok
			})
			return err
		}

		created = res.Value
		e.mutate(func() bool {
			if !e.collection.Swap(tmp.ID, created) {
				e.collection.Put(created)
			}
			return true
		})
		return nil
	})
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("creating bookmark: %w", err)
	}

	e.afterMutation()
	return created, nil
}

// UpdateBookmark applies b locally, sends it and keeps the server's version.
// The previous local version is restored on failure.
func (e *Engine) UpdateBookmark(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error) {
	b.Tags = domain.NormalizeTags(b.Tags)
	if err := domain.Validate(b); err != nil {
		return domain.Bookmark{}, err
	}

	var saved domain.Bookmark
	err := e.withDirty(b.ID, func() error {
		prev, had := e.collection.Get(b.ID)
		if had {
			e.mutate(func() bool {
				e.collection.Put(b.Clone())
				return true
			})
		}

		res := e.remote.UpdateBookmark(ctx, b)
		if err := res.AsError(); err != nil {
			if had {
				e.mutate(func() bool {
					e.collection.Put(prev)
					return true
				})
			}
			return err
		}

		saved = res.Value
		e.mutate(func() bool {
			if _, ok := e.collection.Get(saved.ID); ok {
				e.collection.Put(saved)
				return true
			}
			return false
		})
		return nil
	})
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("updating bookmark %d: %w", b.ID, err)
	}

	e.afterMutation()
	return saved, nil
}

// DeleteBookmark removes the bookmark locally first and puts it back at its
// former position if the server refuses. Refreshes that land while the
// request runs do not bring the record back.
func (e *Engine) DeleteBookmark(ctx context.Context, id int64) error {
	e.deleting.Mark(id)
	defer e.deleting.Clear(id)

	var (
		prev domain.Bookmark
		pos  int
		had  bool
	)
	e.mutate(func() bool {
		prev, pos, had = e.collection.Remove(id)
		return had
	})

	res := e.remote.DeleteBookmark(ctx, id)
	if err := res.AsError(); err != nil {
		if had {
			e.mutate(func() bool {
				e.collection.Insert(pos, prev)
				return true
			})
		}
		return fmt.Errorf("deleting bookmark %d: %w", id, err)
	}

	e.afterMutation()
	return nil
}

// BulkUpdate patches every bookmark matching q. Results arrive through the
// refetch that follows.
func (e *Engine) BulkUpdate(ctx context.Context, q domain.BulkQuery, patch domain.BookmarkPatch) (int, error) {
	q.Tags = domain.NormalizeTags(q.Tags)
	if err := domain.Validate(q); err != nil {
		return 0, err
	}
	patch.AddTags = domain.NormalizeTags(patch.AddTags)
	patch.RemoveTags = domain.NormalizeTags(patch.RemoveTags)

	res := e.remote.BulkUpdate(ctx, q, patch)
	if err := res.AsError(); err != nil {
		return 0, fmt.Errorf("bulk update: %w", err)
	}
	e.afterMutation()
	return res.Value.Affected, nil
}

// BulkDelete deletes every bookmark matching q.
func (e *Engine) BulkDelete(ctx context.Context, q domain.BulkQuery) (int, error) {
	q.Tags = domain.NormalizeTags(q.Tags)
	if err := domain.Validate(q); err != nil {
		return 0, err
	}

	res := e.remote.BulkDelete(ctx, q)
	if err := res.AsError(); err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	e.afterMutation()
	return res.Value.Affected, nil
}

// RefreshMetadata asks the server to re-scrape one bookmark. The record is
// flagged as fetching while the request runs.
func (e *Engine) RefreshMetadata(ctx context.Context, id int64) (domain.Bookmark, error) {
	var refreshed domain.Bookmark
	err := e.withDirty(id, func() error {
		prev, had := e.collection.Get(id)
		if had {
			e.mutate(func() bool {
				b := prev.Clone()
				b.FetchingMetadata = true
				e.collection.Put(b)
				return true
			})
		}

		res := e.remote.RefreshMetadata(ctx, id)
		if err := res.AsError(); err != nil {
			if had {
				e.mutate(func() bool {
					e.collection.Put(prev)
					return true
				})
			}
			return err
		}

		refreshed = res.Value
		e.mutate(func() bool {
			if _, ok := e.collection.Get(id); ok {
				e.collection.Put(refreshed)
				return true
			}
			return false
		})
		return nil
	})
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("refreshing bookmark %d: %w", id, err)
	}

	e.afterMutation()
	return refreshed, nil
}
