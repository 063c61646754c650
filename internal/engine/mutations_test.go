package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/marksync/internal/domain"
	"github.com/MrSnakeDoc/marksync/internal/remote"
)

func transient() error { return errors.New("503") }

func TestCreatePublishesPlaceholderThenReconciles(t *testing.T) {
	r := &fakeRemote{}
	e := newTestEngine(r, nil)
	e.collection.Replace([]domain.Bookmark{bm(1, "existing")})

	r.create = func(b domain.Bookmark) remote.Result[domain.Bookmark] {
		snap := e.Snapshot()
		if len(snap.Bookmarks) != 2 || snap.Bookmarks[0].ID >= 0 {
			t.Errorf("placeholder not published first: %+v", snap.Bookmarks)
		}
		if len(snap.Dirty) != 1 || snap.Dirty[0] >= 0 {
			t.Errorf("placeholder not dirty: %v", snap.Dirty)
		}
		saved := b
		saved.ID = 42
		return remote.Result[domain.Bookmark]{Kind: remote.KindOK, Value: saved}
	}

	before := e.FetchKey()
	got, err := e.CreateBookmark(context.Background(), domain.Bookmark{Title: "new", URL: "https://new.example", Tags: []string{"a", " a "}})
	if err != nil {
		t.Fatalf("CreateBookmark() = %v", err)
	}
	if got.ID != 42 {
		t.Errorf("created id = %d, want 42", got.ID)
	}

	snap := e.Snapshot()
	if snap.Bookmarks[0].ID != 42 || len(snap.Bookmarks) != 2 {
		t.Errorf("Bookmarks = %+v, want server record in the placeholder slot", snap.Bookmarks)
	}
	if len(snap.Dirty) != 0 {
		t.Errorf("Dirty = %v, want empty", snap.Dirty)
	}
	if e.FetchKey() == before {
		t.Error("no refetch requested after a successful create")
	}
}

func TestCreateRollsBackOnFailure(t *testing.T) {
	r := &fakeRemote{create: func(domain.Bookmark) remote.Result[domain.Bookmark] {
		return remote.Result[domain.Bookmark]{Kind: remote.KindTransient, Err: transient()}
	}}
	e := newTestEngine(r, nil)
	e.collection.Replace([]domain.Bookmark{bm(1, "existing")})

	_, err := e.CreateBookmark(context.Background(), domain.Bookmark{URL: "https://new.example"})
	if !errors.Is(err, remote.ErrTransient) {
		t.Errorf("err = %v, want ErrTransient", err)
	}
	if got := titles(e.Snapshot().Bookmarks); len(got) != 1 || got[0] != "existing" {
		t.Errorf("Bookmarks = %v, want placeholder removed", got)
	}
}

func TestCreateRejectsInvalidBookmark(t *testing.T) {
	e := newTestEngine(&fakeRemote{}, nil)
	_, err := e.CreateBookmark(context.Background(), domain.Bookmark{Title: "no url"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("err = %v, want *ValidationError", err)
	}
	if e.collection.Len() != 0 {
		t.Error("invalid bookmark was published")
	}
}

func TestUpdateRestoresOnFailure(t *testing.T) {
	r := &fakeRemote{}
	e := newTestEngine(r, nil)
	e.collection.Replace([]domain.Bookmark{bm(1, "before"), bm(2, "other")})

	r.update = func(b domain.Bookmark) remote.Result[domain.Bookmark] {
		if got, _ := e.collection.Get(1); got.Title != "after" {
			t.Errorf("optimistic title = %q, want after", got.Title)
		}
		if !e.dirty.Has(1) {
			t.Error("record not dirty during update")
		}
		return remote.Result[domain.Bookmark]{Kind: remote.KindUnauthorized}
	}

	edit := bm(1, "after")
	_, err := e.UpdateBookmark(context.Background(), edit)
	if !errors.Is(err, remote.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
	if got, _ := e.collection.Get(1); got.Title != "before" {
		t.Errorf("title after failure = %q, want before", got.Title)
	}
	if e.dirty.Has(1) {
		t.Error("record still dirty after the update failed")
	}
}

func TestUpdateKeepsServerVersion(t *testing.T) {
	r := &fakeRemote{update: func(b domain.Bookmark) remote.Result[domain.Bookmark] {
		b.Title = "normalised by server"
		return remote.Result[domain.Bookmark]{Kind: remote.KindOK, Value: b}
	}}
	e := newTestEngine(r, nil)
	e.collection.Replace([]domain.Bookmark{bm(1, "before")})

	if _, err := e.UpdateBookmark(context.Background(), bm(1, "after")); err != nil {
		t.Fatalf("UpdateBookmark() = %v", err)
	}
	if got, _ := e.collection.Get(1); got.Title != "normalised by server" {
		t.Errorf("title = %q, want server version", got.Title)
	}
}

func TestDeleteReinsertsAtSamePosition(t *testing.T) {
	r := &fakeRemote{del: func(int64) remote.Result[struct{}] {
		return remote.Result[struct{}]{Kind: remote.KindTransient, Err: transient()}
	}}
	e := newTestEngine(r, nil)
	e.collection.Replace([]domain.Bookmark{bm(1, "a"), bm(2, "b"), bm(3, "c")})

	if err := e.DeleteBookmark(context.Background(), 2); err == nil {
		t.Fatal("DeleteBookmark() = nil, want error")
	}
	if got := titles(e.Snapshot().Bookmarks); len(got) != 3 || got[1] != "b" {
		t.Errorf("Bookmarks = %v, want [a b c]", got)
	}
}

func TestRefreshDuringDeleteKeepsRecordRemoved(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan remote.Result[struct{}])
	r := &fakeRemote{del: func(int64) remote.Result[struct{}] {
		close(entered)
		return <-release
	}}
	r.search = func(context.Context, domain.SearchQuery, bool, string) remote.Result[domain.BookmarkPage] {
		return okPage(bm(1, "a"), bm(2, "b"))
	}
	e := newTestEngine(r, nil)
	e.Query().SetShowAll(true)
	e.collection.Replace([]domain.Bookmark{bm(1, "a"), bm(2, "b")})

	errc := make(chan error, 1)
	go func() { errc <- e.DeleteBookmark(context.Background(), 2) }()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("delete request never sent")
	}
	if got := titles(e.Snapshot().Bookmarks); len(got) != 1 || got[0] != "a" {
		t.Fatalf("before refresh Bookmarks = %v, want [a]", got)
	}

	e.FetchBookmarks(context.Background())
	if got := titles(e.Snapshot().Bookmarks); len(got) != 1 || got[0] != "a" {
		t.Fatalf("refresh during delete Bookmarks = %v, want [a]", got)
	}

	release <- remote.Result[struct{}]{Kind: remote.KindOK}
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("DeleteBookmark() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("delete did not return")
	}
	if e.deleting.Has(2) {
		t.Error("pending delete mark not released")
	}
}

func TestFailedDeleteReleasesPendingMark(t *testing.T) {
	r := &fakeRemote{del: func(int64) remote.Result[struct{}] {
		return remote.Result[struct{}]{Kind: remote.KindTransient, Err: transient()}
	}}
	r.search = func(context.Context, domain.SearchQuery, bool, string) remote.Result[domain.BookmarkPage] {
		return okPage(bm(1, "a"), bm(2, "b"))
	}
	e := newTestEngine(r, nil)
	e.Query().SetShowAll(true)
	e.collection.Replace([]domain.Bookmark{bm(1, "a"), bm(2, "b")})

	if err := e.DeleteBookmark(context.Background(), 2); err == nil {
		t.Fatal("DeleteBookmark() = nil, want error")
	}
	e.FetchBookmarks(context.Background())
	if got := titles(e.Snapshot().Bookmarks); len(got) != 2 {
		t.Errorf("Bookmarks = %v, want [a b] once the delete failed", got)
	}
}

func TestDeleteSuccessInvalidatesCache(t *testing.T) {
	r := &fakeRemote{del: func(int64) remote.Result[struct{}] {
		return remote.Result[struct{}]{Kind: remote.KindOK}
	}}
	e := newTestEngine(r, nil)
	e.collection.Replace([]domain.Bookmark{bm(1, "a")})
	r.search = func(context.Context, domain.SearchQuery, bool, string) remote.Result[domain.BookmarkPage] {
		res := okPage(bm(1, "a"))
		res.ETag = `"x"`
		return res
	}
	e.Query().SetShowAll(true)
	e.FetchBookmarks(context.Background())
	if e.Cache().Len() == 0 {
		t.Fatal("search result not cached")
	}

	if err := e.DeleteBookmark(context.Background(), 1); err != nil {
		t.Fatalf("DeleteBookmark() = %v", err)
	}
	if e.Cache().Len() != 0 {
		t.Errorf("cache has %d entries after a mutation, want 0", e.Cache().Len())
	}
	if e.collection.Len() != 0 {
		t.Error("deleted bookmark still published")
	}
}

func TestBulkOperations(t *testing.T) {
	r := &fakeRemote{bulk: remote.Result[remote.BulkResult]{Kind: remote.KindOK, Value: remote.BulkResult{Affected: 4}}}
	e := newTestEngine(r, nil)

	n, err := e.BulkUpdate(context.Background(), domain.BulkQuery{Tags: []string{"old"}}, domain.BookmarkPatch{AddTags: []string{"new"}})
	if err != nil || n != 4 {
		t.Errorf("BulkUpdate() = (%d, %v), want (4, nil)", n, err)
	}
	n, err = e.BulkDelete(context.Background(), domain.BulkQuery{Keyword: "#old"})
	if err != nil || n != 4 {
		t.Errorf("BulkDelete() = (%d, %v), want (4, nil)", n, err)
	}

	_, err = e.BulkDelete(context.Background(), domain.BulkQuery{Tags: []string{"a,b"}})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("BulkDelete with a comma tag = %v, want *ValidationError", err)
	}
}

func TestRefreshMetadataFlagsRecord(t *testing.T) {
	r := &fakeRemote{}
	e := newTestEngine(r, nil)
	e.collection.Replace([]domain.Bookmark{bm(5, "stale")})

	r.refresh = func(id int64) remote.Result[domain.Bookmark] {
		if got, _ := e.collection.Get(id); !got.FetchingMetadata {
			t.Error("FetchingMetadata not set during refresh")
		}
		return remote.Result[domain.Bookmark]{Kind: remote.KindOK, Value: bm(5, "fresh")}
	}

	got, err := e.RefreshMetadata(context.Background(), 5)
	if err != nil {
		t.Fatalf("RefreshMetadata() = %v", err)
	}
	if got.Title != "fresh" {
		t.Errorf("returned title = %q, want fresh", got.Title)
	}
	if b, _ := e.collection.Get(5); b.Title != "fresh" || b.FetchingMetadata {
		t.Errorf("published record = %+v", b)
	}
}
