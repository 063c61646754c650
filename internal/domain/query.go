package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
)

// SearchQuery is the set of optional search predicates sent to the search
// endpoint. Tags uses the comma-separated form used by incremental search;
// BulkQuery carries the same predicates with tags as a JSON array.
type SearchQuery struct {
	Query       string   `json:"query,omitempty" yaml:"query,omitempty"`
	Keyword     string   `json:"keyword,omitempty" yaml:"keyword,omitempty" validate:"balanced"`
	Tags        string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Semantic    string   `json:"semantic,omitempty" yaml:"semantic,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	Exact       bool     `json:"exact,omitempty" yaml:"exact,omitempty"`
	Limit       int      `json:"limit,omitempty" yaml:"limit,omitempty" validate:"gte=0,lte=1000"`
	Offset      int      `json:"offset,omitempty" yaml:"offset,omitempty" validate:"gte=0"`
}

// BulkQuery is the JSON-array-tag form of SearchQuery used by bulk endpoints.
type BulkQuery struct {
	Query       string   `json:"query,omitempty"`
	Keyword     string   `json:"keyword,omitempty" validate:"balanced"`
	Tags        []string `json:"tags,omitempty" validate:"dive,required,excludesall=0x2C"`
	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url,omitempty"`
	Description string   `json:"description,omitempty"`
	Semantic    string   `json:"semantic,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=1"`
	Exact       bool     `json:"exact,omitempty"`
	Limit       int      `json:"limit,omitempty" validate:"gte=0,lte=1000"`
	Offset      int      `json:"offset,omitempty" validate:"gte=0"`
}

// IsEmpty reports whether no search predicate is active. Pagination, the
// exact flag and the threshold only refine a predicate and do not count.
func (q SearchQuery) IsEmpty() bool {
	return strings.TrimSpace(q.Query) == "" &&
		strings.TrimSpace(q.Keyword) == "" &&
		len(q.TagList()) == 0 &&
		strings.TrimSpace(q.Title) == "" &&
		strings.TrimSpace(q.URL) == "" &&
		strings.TrimSpace(q.Description) == "" &&
		strings.TrimSpace(q.Semantic) == ""
}

// Equal compares two queries structurally.
func (q SearchQuery) Equal(o SearchQuery) bool {
	if (q.Threshold == nil) != (o.Threshold == nil) {
		return false
	}
	if q.Threshold != nil && *q.Threshold != *o.Threshold {
		return false
	}
	a, b := q, o
	a.Threshold, b.Threshold = nil, nil
	return a == b
}

// TagList splits the comma-separated tag form.
func (q SearchQuery) TagList() []string {
	if strings.TrimSpace(q.Tags) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(q.Tags, ","))
}

// ToBulk converts to the JSON-array-tag form.
func (q SearchQuery) ToBulk() BulkQuery {
	return BulkQuery{
		Query:       q.Query,
		Keyword:     q.Keyword,
		Tags:        q.TagList(),
		Title:       q.Title,
		URL:         q.URL,
		Description: q.Description,
		Semantic:    q.Semantic,
		Threshold:   copyFloat(q.Threshold),
		Exact:       q.Exact,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
}

// ToSearch converts back to the comma-separated-tag form.
func (b BulkQuery) ToSearch() SearchQuery {
	return SearchQuery{
		Query:       b.Query,
		Keyword:     b.Keyword,
		Tags:        strings.Join(NormalizeTags(b.Tags), ","),
		Title:       b.Title,
		URL:         b.URL,
		Description: b.Description,
		Semantic:    b.Semantic,
		Threshold:   copyFloat(b.Threshold),
		Exact:       b.Exact,
		Limit:       b.Limit,
		Offset:      b.Offset,
	}
}

// Canonical trims whitespace and drops duplicate tags so that two equivalent
// queries produce the same Values and Signature.
func (q SearchQuery) Canonical() SearchQuery {
	out := q
	out.Query = strings.TrimSpace(q.Query)
	out.Keyword = strings.TrimSpace(q.Keyword)
	out.Tags = strings.Join(q.TagList(), ",")
	out.Title = strings.TrimSpace(q.Title)
	out.URL = strings.TrimSpace(q.URL)
	out.Description = strings.TrimSpace(q.Description)
	out.Semantic = strings.TrimSpace(q.Semantic)
	out.Threshold = copyFloat(q.Threshold)
	return out
}

// Values encodes the query as URL parameters. Empty predicates are omitted.
func (q SearchQuery) Values() url.Values {
	q = q.Canonical()
	v := url.Values{}
	setIf := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	setIf("q", q.Query)
	setIf("keyword", q.Keyword)
	setIf("tags", q.Tags)
	setIf("title", q.Title)
	setIf("url", q.URL)
	setIf("description", q.Description)
	setIf("semantic", q.Semantic)
	if q.Threshold != nil {
		v.Set("threshold", strconv.FormatFloat(*q.Threshold, 'f', -1, 64))
	}
	if q.Exact {
		v.Set("exact", "true")
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

// ParseValues is the inverse of Values. Malformed numeric parameters are
// ignored rather than rejected, since they usually come from a hand-edited URL.
func ParseValues(v url.Values) SearchQuery {
	q := SearchQuery{
		Query:       v.Get("q"),
		Keyword:     v.Get("keyword"),
		Tags:        v.Get("tags"),
		Title:       v.Get("title"),
		URL:         v.Get("url"),
		Description: v.Get("description"),
		Semantic:    v.Get("semantic"),
	}
	if raw := v.Get("threshold"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			q.Threshold = &f
		}
	}
	if b, err := strconv.ParseBool(v.Get("exact")); err == nil {
		q.Exact = b
	}
	if n, err := strconv.Atoi(v.Get("limit")); err == nil {
		q.Limit = n
	}
	if n, err := strconv.Atoi(v.Get("offset")); err == nil {
		q.Offset = n
	}
	return q.Canonical()
}

// Signature returns a stable key for the query shape, used by the
// conditional fetch cache.
func (q SearchQuery) Signature() string {
	sum := sha256.Sum256([]byte(q.Values().Encode()))
	return hex.EncodeToString(sum[:])[:16]
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
