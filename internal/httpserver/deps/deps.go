package deps

import (
	"context"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marksync/internal/domain"
	"github.com/MrSnakeDoc/marksync/internal/engine"
	"github.com/MrSnakeDoc/marksync/internal/logger"
	"github.com/MrSnakeDoc/marksync/internal/query"
	"github.com/MrSnakeDoc/marksync/internal/scheduler"
)

// Engine is the part of the sync engine the control API drives.
type Engine interface {
	Snapshot() engine.Snapshot
	Query() *query.Model
	RequestRefetch()
	SetCredential(token string)

	CreateBookmark(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error)
	UpdateBookmark(ctx context.Context, b domain.Bookmark) (domain.Bookmark, error)
	DeleteBookmark(ctx context.Context, id int64) error
	BulkUpdate(ctx context.Context, q domain.BulkQuery, patch domain.BookmarkPatch) (int, error)
	BulkDelete(ctx context.Context, q domain.BulkQuery) (int, error)
	RefreshMetadata(ctx context.Context, id int64) (domain.Bookmark, error)
}

// Poller is the polling loop as seen by the control API.
type Poller interface {
	SetVisible(v bool)
	State() scheduler.State
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access the server
	AllowedCIDRS []string         // networks allowed to reach the control API
	TrustProxy   bool             // true if running behind a trusted reverse proxy

	Engine      Engine
	Poller      Poller
	RedisClient *redis.Client // nil when client state lives in a file
	PinBase     *url.URL      // base URL the query is pinned into, may be nil

	MutationBurst     int // per-client burst for bookmark mutations
	MutationPerMinute int // refill rate for bookmark mutations
}

// Now returns the configured clock.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
