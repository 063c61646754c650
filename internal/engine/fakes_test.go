package engine

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/marksync/internal/domain"
	"github.com/MrSnakeDoc/marksync/internal/query"
	"github.com/MrSnakeDoc/marksync/internal/remote"
)

type searchFunc func(ctx context.Context, q domain.SearchQuery, all bool, etag string) remote.Result[domain.BookmarkPage]

// fakeRemote answers every metadata request with an empty OK unless a test
// overrides it.
type fakeRemote struct {
	mu          sync.Mutex
	credential  string
	searchCalls int
	lastSearch  domain.SearchQuery

	search     searchFunc
	count      remote.Result[remote.Count]
	tags       remote.Result[[]domain.TagCount]
	tasks      remote.Result[domain.TaskQueue]
	workspaces remote.Result[[]domain.Workspace]

	create  func(b domain.Bookmark) remote.Result[domain.Bookmark]
	update  func(b domain.Bookmark) remote.Result[domain.Bookmark]
	del     func(id int64) remote.Result[struct{}]
	refresh func(id int64) remote.Result[domain.Bookmark]
	bulk    remote.Result[remote.BulkResult]
}

func (f *fakeRemote) SearchBookmarks(ctx context.Context, q domain.SearchQuery, all bool, etag string) remote.Result[domain.BookmarkPage] {
	f.mu.Lock()
	f.searchCalls++
	f.lastSearch = q
	fn := f.search
	f.mu.Unlock()
	if fn == nil {
		return remote.Result[domain.BookmarkPage]{Kind: remote.KindOK}
	}
	return fn(ctx, q, all, etag)
}

func (f *fakeRemote) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

func (f *fakeRemote) Count(context.Context, string) remote.Result[remote.Count] { return f.count }
func (f *fakeRemote) Tags(context.Context, string) remote.Result[[]domain.TagCount] {
	return f.tags
}
func (f *fakeRemote) Config(context.Context, string) remote.Result[domain.ServerConfig] {
	return remote.Result[domain.ServerConfig]{Kind: remote.KindOK}
}
func (f *fakeRemote) Tasks(context.Context, string) remote.Result[domain.TaskQueue] { return f.tasks }
func (f *fakeRemote) SemanticStatus(context.Context, string) remote.Result[domain.SemanticStatus] {
	return remote.Result[domain.SemanticStatus]{Kind: remote.KindOK}
}
func (f *fakeRemote) Workspaces(context.Context, string) remote.Result[[]domain.Workspace] {
	return f.workspaces
}

func (f *fakeRemote) CreateBookmark(_ context.Context, b domain.Bookmark) remote.Result[domain.Bookmark] {
	return f.create(b)
}
func (f *fakeRemote) UpdateBookmark(_ context.Context, b domain.Bookmark) remote.Result[domain.Bookmark] {
	return f.update(b)
}
func (f *fakeRemote) DeleteBookmark(_ context.Context, id int64) remote.Result[struct{}] {
	return f.del(id)
}
func (f *fakeRemote) BulkUpdate(context.Context, domain.BulkQuery, domain.BookmarkPatch) remote.Result[remote.BulkResult] {
	return f.bulk
}
func (f *fakeRemote) BulkDelete(context.Context, domain.BulkQuery) remote.Result[remote.BulkResult] {
	return f.bulk
}
func (f *fakeRemote) RefreshMetadata(_ context.Context, id int64) remote.Result[domain.Bookmark] {
	return f.refresh(id)
}

func (f *fakeRemote) SetCredential(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credential = token
}

func (f *fakeRemote) Credential() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.credential
}

type memStore struct {
	mu    sync.Mutex
	state domain.ClientState
	saves int
}

func (s *memStore) Load(context.Context) (domain.ClientState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *memStore) Save(_ context.Context, st domain.ClientState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.saves++
	return nil
}

func newTestEngine(r *fakeRemote, store StateStore) *Engine {
	return New(r, query.New(), nil, store, nil)
}

// gatedSearch hands each request to the test, which decides when and how it
// completes.
type pendingSearch struct {
	query   domain.SearchQuery
	release chan remote.Result[domain.BookmarkPage]
}

func gatedSearch(calls chan<- pendingSearch) searchFunc {
	return func(_ context.Context, q domain.SearchQuery, _ bool, _ string) remote.Result[domain.BookmarkPage] {
		p := pendingSearch{query: q, release: make(chan remote.Result[domain.BookmarkPage], 1)}
		calls <- p
		return <-p.release
	}
}

func okPage(bookmarks ...domain.Bookmark) remote.Result[domain.BookmarkPage] {
	return remote.Result[domain.BookmarkPage]{
		Kind:  remote.KindOK,
		Value: domain.BookmarkPage{Bookmarks: bookmarks, Total: len(bookmarks)},
	}
}

func bm(id int64, title string) domain.Bookmark {
	return domain.Bookmark{ID: id, Title: title, URL: "https://example.com/" + title}
}
