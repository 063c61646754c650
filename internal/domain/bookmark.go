package domain

import "strings"

// Bookmark represents a remote bookmark record as seen by the client.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned by the server and grows with creation order.
	// Negative IDs are local placeholders for creates not yet confirmed.
	ID int64 `json:"id"`

	// ─────────────────────────────
	// Mutable fields
	// ─────────────────────────────

	Title       string   `json:"title" validate:"max=2048"`
	Description string   `json:"description"`
	URL         string   `json:"url" validate:"required,url"`
	Tags        []string `json:"tags" validate:"dive,required,excludesall=0x2C"`

	// ImageID and IconID are opaque file references (cover image, favicon).
	ImageID *string `json:"image_id,omitempty"`
	IconID  *string `json:"icon_id,omitempty"`

	// ─────────────────────────────
	// Client-only
	// ─────────────────────────────

	// FetchingMetadata is set while a metadata refresh is running for this
	// record. Never persisted.
	FetchingMetadata bool `json:"-"`
}

// IsPlaceholder reports whether b is a local optimistic record.
func (b Bookmark) IsPlaceholder() bool {
	return b.ID < 0
}

// Clone returns a deep copy of b.
func (b Bookmark) Clone() Bookmark {
	out := b
	if b.Tags != nil {
		out.Tags = append([]string(nil), b.Tags...)
	}
	if b.ImageID != nil {
		v := *b.ImageID
		out.ImageID = &v
	}
	if b.IconID != nil {
		v := *b.IconID
		out.IconID = &v
	}
	return out
}

// BookmarkPage is the payload returned by the search endpoint.
type BookmarkPage struct {
	Bookmarks []Bookmark `json:"bookmarks"`
	Total     int        `json:"total"`
}

// BookmarkPatch carries the fields of a bulk update. Nil fields are left
// untouched by the server.
type BookmarkPatch struct {
	AddTags    []string `json:"add_tags,omitempty"`
	RemoveTags []string `json:"remove_tags,omitempty"`
	Title      *string  `json:"title,omitempty"`
}

// NormalizeTags trims, drops empties and removes duplicates while keeping
// first-seen order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
