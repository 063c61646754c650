package domain

import "time"

// TagCount is one entry of the tag list endpoint.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ServerConfig is the subset of server configuration the client reads.
type ServerConfig struct {
	Version          string `json:"version"`
	MetadataFetching bool   `json:"metadata_fetching"`
	ImageUploads     bool   `json:"image_uploads"`
}

// Task is a background job queued on the server (metadata fetch, import...).
type Task struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Status     string `json:"status"` // pending | in_progress | done | failed
	BookmarkID int64  `json:"bookmark_id,omitempty"`
}

// TaskQueue is a snapshot of the server task queue.
type TaskQueue struct {
	Pending    int    `json:"pending"`
	InProgress int    `json:"in_progress"`
	Items      []Task `json:"items,omitempty"`
}

// Busy reports whether the server still has work that may change bookmarks.
func (q TaskQueue) Busy() bool {
	return q.Pending > 0 || q.InProgress > 0
}

// SemanticStatus reports whether semantic search is available.
type SemanticStatus struct {
	Enabled bool   `json:"enabled"`
	Model   string `json:"model,omitempty"`
}

// Metadata is everything fetched by one metadata cycle.
type Metadata struct {
	TotalCount          int            `json:"total_count"`
	Tags                []TagCount     `json:"tags"`
	Config              ServerConfig   `json:"config"`
	Tasks               TaskQueue      `json:"tasks"`
	Semantic            SemanticStatus `json:"semantic"`
	Workspaces          []Workspace    `json:"workspaces"`
	WorkspacesAvailable bool           `json:"workspaces_available"`
	FetchedAt           time.Time      `json:"fetched_at"`
}

// ClientState is what survives across sessions.
type ClientState struct {
	ActiveWorkspace string `json:"active_workspace,omitempty" yaml:"active_workspace,omitempty"`
	Credential      string `json:"credential,omitempty" yaml:"credential,omitempty"`
}
