package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/marksync/internal/domain"
)

// Count is the payload of the total count endpoint.
type Count struct {
	Count int `json:"count"`
}

// BulkResult is returned by the bulk endpoints.
type BulkResult struct {
	Affected int `json:"affected"`
}

type bulkUpdateRequest struct {
	Query domain.BulkQuery     `json:"query"`
	Patch domain.BookmarkPatch `json:"patch"`
}

// SearchBookmarks runs the search endpoint. all lists every bookmark when
// the query carries no predicate. etag enables a 304 answer.
func (c *Client) SearchBookmarks(ctx context.Context, q domain.SearchQuery, all bool, etag string) Result[domain.BookmarkPage] {
	v := q.Values()
	if all {
		v.Set("all", "true")
	}
	path := "/api/v1/bookmarks/search"
	if enc := v.Encode(); enc != "" {
		path += "?" + enc
	}
	return call[domain.BookmarkPage](ctx, c, http.MethodGet, path, callOptions{etag: etag})
}

func (c *Client) Count(ctx context.Context, etag string) Result[Count] {
	return call[Count](ctx, c, http.MethodGet, "/api/v1/bookmarks/count", callOptions{etag: etag})
}

func (c *Client) Tags(ctx context.Context, etag string) Result[[]domain.TagCount] {
	return call[[]domain.TagCount](ctx, c, http.MethodGet, "/api/v1/tags", callOptions{etag: etag})
}

func (c *Client) Config(ctx context.Context, etag string) Result[domain.ServerConfig] {
	return call[domain.ServerConfig](ctx, c, http.MethodGet, "/api/v1/config", callOptions{etag: etag})
}

func (c *Client) Tasks(ctx context.Context, etag string) Result[domain.TaskQueue] {
	return call[domain.TaskQueue](ctx, c, http.MethodGet, "/api/v1/tasks", callOptions{etag: etag})
}

func (c *Client) SemanticStatus(ctx context.Context, etag string) Result[domain.SemanticStatus] {
	return call[domain.SemanticStatus](ctx, c, http.MethodGet, "/api/v1/semantic/status", callOptions{etag: etag})
}

// Workspaces lists workspaces. Servers without workspace support answer 404,
// which maps to KindFeatureAbsent.
func (c *Client) Workspaces(ctx context.Context, etag string) Result[[]domain.Workspace] {
	return call[[]domain.Workspace](ctx, c, http.MethodGet, "/api/v1/workspaces", callOptions{etag: etag, optional: true})
}

func (c *Client) CreateBookmark(ctx context.Context, b domain.Bookmark) Result[domain.Bookmark] {
	b.ID = 0
	return call[domain.Bookmark](ctx, c, http.MethodPost, "/api/v1/bookmarks", callOptions{body: b})
}

func (c *Client) UpdateBookmark(ctx context.Context, b domain.Bookmark) Result[domain.Bookmark] {
	return call[domain.Bookmark](ctx, c, http.MethodPut, fmt.Sprintf("/api/v1/bookmarks/%d", b.ID), callOptions{body: b})
}

func (c *Client) DeleteBookmark(ctx context.Context, id int64) Result[struct{}] {
	return call[struct{}](ctx, c, http.MethodDelete, fmt.Sprintf("/api/v1/bookmarks/%d", id), callOptions{})
}

func (c *Client) BulkUpdate(ctx context.Context, q domain.BulkQuery, patch domain.BookmarkPatch) Result[BulkResult] {
	return call[BulkResult](ctx, c, http.MethodPost, "/api/v1/bookmarks/bulk/update", callOptions{body: bulkUpdateRequest{Query: q, Patch: patch}})
}

func (c *Client) BulkDelete(ctx context.Context, q domain.BulkQuery) Result[BulkResult] {
	return call[BulkResult](ctx, c, http.MethodPost, "/api/v1/bookmarks/bulk/delete", callOptions{body: q})
}

// RefreshMetadata asks the server to re-fetch title, description and images
// for one bookmark and returns the refreshed record.
func (c *Client) RefreshMetadata(ctx context.Context, id int64) Result[domain.Bookmark] {
	return call[domain.Bookmark](ctx, c, http.MethodPost, fmt.Sprintf("/api/v1/bookmarks/%d/refresh", id), callOptions{})
}
