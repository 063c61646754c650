// Package workspace composes workspace filters with the user's own query.
package workspace

import (
	"strings"

	"github.com/MrSnakeDoc/marksync/internal/domain"
)

// Fragment builds the keyword fragment contributed by a workspace filter.
// Whitelisted tags are OR-ed, each blacklisted tag is negated on its own and
// the free keyword is appended last. Returns "" when the filter is empty.
func Fragment(ws domain.Workspace) string {
	parts := make([]string, 0, 2+len(ws.Filter.Blacklist))

	white := domain.NormalizeTags(ws.Filter.Whitelist)
	switch len(white) {
	case 0:
	case 1:
		parts = append(parts, "#"+white[0])
	default:
		terms := make([]string, len(white))
		for i, t := range white {
			terms[i] = "#" + t
		}
		parts = append(parts, "("+strings.Join(terms, " or ")+")")
	}

	for _, t := range domain.NormalizeTags(ws.Filter.Blacklist) {
		parts = append(parts, "not #"+t)
	}

	if kw := strings.TrimSpace(ws.Filter.Keyword); kw != "" {
		parts = append(parts, kw)
	}

	return strings.Join(parts, " ")
}

// Merge returns the effective query for q under ws. A nil workspace or one
// with an empty filter leaves q unchanged. Juxtaposition means AND in the
// server's keyword grammar, so both sides are parenthesized when the user has
// a keyword of their own.
func Merge(q domain.SearchQuery, ws *domain.Workspace) domain.SearchQuery {
	if ws == nil {
		return q
	}
	frag := Fragment(*ws)
	if frag == "" {
		return q
	}

	out := q
	user := strings.TrimSpace(q.Keyword)
	if user == "" {
		out.Keyword = frag
	} else {
		out.Keyword = "(" + frag + ") (" + user + ")"
	}
	return out
}

// Find returns the workspace with the given id, or nil.
func Find(list []domain.Workspace, id string) *domain.Workspace {
	if id == "" {
		return nil
	}
	for i := range list {
		if list[i].ID == id {
			ws := list[i]
			return &ws
		}
	}
	return nil
}
