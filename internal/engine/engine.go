// Package engine owns the client-side view of the bookmark collection and
// keeps it in sync with the server.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/marksync/internal/cache"
	"github.com/MrSnakeDoc/marksync/internal/domain"
	"github.com/MrSnakeDoc/marksync/internal/index"
	"github.com/MrSnakeDoc/marksync/internal/logger"
	"github.com/MrSnakeDoc/marksync/internal/query"
	"github.com/MrSnakeDoc/marksync/internal/remote"
	"github.com/MrSnakeDoc/marksync/internal/workspace"
)

// Cache key prefixes.
const (
	SearchPrefix   = "search:"
	MetadataPrefix = "meta:"
)

// Remote is the subset of the HTTP client the engine drives.
type Remote interface {
	SearchBookmarks(ctx context.Context, q domain.SearchQuery, all bool, etag string) remote.Result[domain.BookmarkPage]
	Count(ctx context.Context, etag string) remote.Result[remote.Count]
	Tags(ctx context.Context, etag string) remote.Result[[]domain.TagCount]
	Config(ctx context.Context, etag string) remote.Result[domain.ServerConfig]
	Tasks(ctx context.Context, etag string) remote.Result[domain.TaskQueue]
	SemanticStatus(ctx context.Context, etag string) remote.Result[domain.SemanticStatus]
	Workspaces(ctx context.Context, etag string) remote.Result[[]domain.Workspace]

	CreateBookmark(ctx context.Context, b domain.Bookmark) remote.Result[domain.Bookmark]
	UpdateBookmark(ctx context.Context, b domain.Bookmark) remote.Result[domain.Bookmark]
	DeleteBookmark(ctx context.Context, id int64) remote.Result[struct{}]
	BulkUpdate(ctx context.Context, q domain.BulkQuery, patch domain.BookmarkPatch) remote.Result[remote.BulkResult]
	BulkDelete(ctx context.Context, q domain.BulkQuery) remote.Result[remote.BulkResult]
	RefreshMetadata(ctx context.Context, id int64) remote.Result[domain.Bookmark]

	SetCredential(token string)
	Credential() string
}

// StateStore persists the client state across sessions.
type StateStore interface {
	Load(ctx context.Context) (domain.ClientState, error)
	Save(ctx context.Context, st domain.ClientState) error
}

// Snapshot is an immutable view of everything the engine publishes.
type Snapshot struct {
	Bookmarks       []domain.Bookmark  `json:"bookmarks"`
	Total           int                `json:"total"`
	Metadata        domain.Metadata    `json:"metadata"`
	Query           query.State        `json:"query"`
	Effective       domain.SearchQuery `json:"effective_query"`
	Loading         bool               `json:"loading"`
	UserLoading     bool               `json:"user_loading"`
	LastSearchError string             `json:"last_search_error,omitempty"`
	Unauthorized    bool               `json:"unauthorized"`
	Dirty           []int64            `json:"dirty"`
	Watermark       uint64             `json:"watermark"`
	Version         uint64             `json:"version"`
	Cache           cache.Stats        `json:"cache"`
}

// FetchKey identifies one distinct reason to fetch bookmarks. Two triggers
// with the same key are served by a single fetch.
type FetchKey struct {
	QueryVersion uint64
	Refetch      uint64
}

type Engine struct {
	remote Remote
	store  StateStore
	query  *query.Model
	cache  *cache.Cache
	logger logger.Logger
	now    func() time.Time

	collection *index.Collection
	dirty      *DirtySet
	deleting   *DirtySet
	guard      SequenceGuard
	slot       Slot

	// mu serialises every write to published state, mirroring a single
	// event loop: completion handlers and edit brackets never interleave.
	mu            sync.Mutex
	metadata      domain.Metadata
	total         int
	effective     domain.SearchQuery
	loading       bool
	lastSearchErr string
	unauthorized  bool
	version       uint64
	subscribers   map[int]func(Snapshot)
	nextSub       int

	triggers     chan struct{}
	refetchGen   atomic.Uint64
	placeholders atomic.Int64

	unsubscribeQuery func()
}

// New wires an engine. store may be nil, in which case nothing is persisted.
func New(r Remote, model *query.Model, c *cache.Cache, store StateStore, log logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	if c == nil {
		c = cache.New(log, nil)
	}
	e := &Engine{
		remote:      r,
		store:       store,
		query:       model,
		cache:       c,
		logger:      log,
		now:         time.Now,
		collection:  index.NewCollection(),
		dirty:       NewDirtySet(),
		deleting:    NewDirtySet(),
		subscribers: make(map[int]func(Snapshot)),
		triggers:    make(chan struct{}, 1),
	}
	e.unsubscribeQuery = model.Subscribe(e.onQueryChange)
	return e
}

// Close detaches the engine from the query model and cancels the in-flight
// bookmark request.
func (e *Engine) Close() {
	e.unsubscribeQuery()
	e.slot.CancelAll()
}

func (e *Engine) Query() *query.Model { return e.query }
func (e *Engine) Cache() *cache.Cache { return e.cache }

// Snapshot returns the current published state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe registers fn for every published snapshot and returns a function
// that removes it. fn runs outside the engine lock.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.subscribers[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

// Triggers delivers a value whenever a bookmark fetch may be due. Several
// signals raised before the receiver runs collapse into one.
func (e *Engine) Triggers() <-chan struct{} { return e.triggers }

// RequestRefetch forces the next trigger to fetch even if the query has not
// changed.
func (e *Engine) RequestRefetch() {
	e.refetchGen.Add(1)
	e.signal()
}

// FetchKey returns the key of the fetch the current state calls for.
func (e *Engine) FetchKey() FetchKey {
	return FetchKey{
		QueryVersion: e.query.Current().Version,
		Refetch:      e.refetchGen.Load(),
	}
}

func (e *Engine) signal() {
	select {
	case e.triggers <- struct{}{}:
	default:
	}
}

// FetchBookmarks issues one bookmark request for the current query,
// superseding any request still in flight. It never returns an error:
// failures are classified and reflected in the published state.
func (e *Engine) FetchBookmarks(ctx context.Context) {
	var (
		tok       *Token
		showAll   bool
		effective domain.SearchQuery
	)
	e.mutate(func() bool {
		st := e.query.Current()
		showAll = st.ShowAll
		effective = workspace.Merge(st.Search, workspace.Find(e.metadata.Workspaces, st.WorkspaceID))
		tok = e.slot.Exchange(ctx, e.guard.Next())
		e.effective = effective
		e.loading = true
		return true
	})
	defer e.slot.Release(tok)

	// The empty state publishes nothing, dirty records included.
	empty := !showAll && effective.IsEmpty()
	res := e.search(tok.Context(), effective, showAll)

	e.mutate(func() bool {
		// A superseded request leaves every flag to its successor.
		if tok.Cancelled() || res.Kind == remote.KindCancelled {
			return false
		}
		if !e.guard.Accept(tok.Seq()) {
			return false
		}
		e.loading = false
		e.query.SetUserLoading(false)

		switch res.Kind {
		case remote.KindOK:
			if empty {
				e.collection.Replace(nil)
			} else {
				e.collection.Replace(Merge(res.Value.Bookmarks, e.collection.All(),
					e.dirty.snapshot(), e.deleting.snapshot()))
				e.unauthorized = false
			}
			e.total = res.Value.Total
			e.lastSearchErr = ""
		case remote.KindInvalid:
			e.lastSearchErr = res.Message
		case remote.KindUnauthorized:
			e.logger.Debug("bookmark fetch halted: unauthorized")
		default:
			e.logger.Debug("bookmark fetch failed, waiting for next trigger",
				logger.Uint64("seq", tok.Seq()),
				logger.Error(res.Err))
		}
		return true
	})
}

// search resolves the effective query to a page. The empty state and
// client-side validation failures never reach the network.
func (e *Engine) search(ctx context.Context, effective domain.SearchQuery, showAll bool) remote.Result[domain.BookmarkPage] {
	if !showAll && effective.IsEmpty() {
		return remote.Result[domain.BookmarkPage]{Kind: remote.KindOK}
	}
	if err := domain.Validate(effective); err != nil {
		return remote.Result[domain.BookmarkPage]{Kind: remote.KindInvalid, Message: err.Error()}
	}
	key := searchKey(effective, showAll)
	return cache.Request(ctx, e.cache, key, func(ctx context.Context, etag string) remote.Result[domain.BookmarkPage] {
		return e.remote.SearchBookmarks(ctx, effective, showAll, etag)
	})
}

func searchKey(q domain.SearchQuery, showAll bool) string {
	key := SearchPrefix + q.Signature()
	if showAll {
		key += ":all"
	}
	return key
}

// onQueryChange runs after every accepted query model change.
func (e *Engine) onQueryChange(prev, next *query.State) {
	e.cache.Invalidate(SearchPrefix)
	if prev.WorkspaceID != next.WorkspaceID {
		e.persist(next.WorkspaceID, e.remote.Credential())
	}
	e.mutate(func() bool { return true })
	e.signal()
}

func (e *Engine) persist(workspaceID, credential string) {
	if e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st := domain.ClientState{ActiveWorkspace: workspaceID, Credential: credential}
	if err := e.store.Save(ctx, st); err != nil {
		e.logger.Warn("failed to persist client state", logger.Error(err))
	}
}

// mutate applies fn under the engine lock and, when fn reports a change,
// publishes a new snapshot to subscribers.
func (e *Engine) mutate(fn func() bool) {
	e.mu.Lock()
	if !fn() {
		e.mu.Unlock()
		return
	}
	e.version++
	snap := e.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(e.subscribers))
	for _, s := range e.subscribers {
		subs = append(subs, s)
	}
	e.mu.Unlock()

	for _, s := range subs {
		s(snap)
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	md := e.metadata
	md.Tags = append([]domain.TagCount(nil), e.metadata.Tags...)
	md.Workspaces = append([]domain.Workspace(nil), e.metadata.Workspaces...)
	return Snapshot{
		Bookmarks:       e.collection.All(),
		Total:           e.total,
		Metadata:        md,
		Query:           *e.query.Current(),
		Effective:       e.effective,
		Loading:         e.loading,
		UserLoading:     e.query.UserLoading(),
		LastSearchError: e.lastSearchErr,
		Unauthorized:    e.unauthorized,
		Dirty:           e.dirty.IDs(),
		Watermark:       e.guard.Watermark(),
		Version:         e.version,
		Cache:           e.cache.Stats(),
	}
}
