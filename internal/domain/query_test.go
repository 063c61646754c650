package domain

import (
	"net/url"
	"testing"
)

func TestSearchQueryIsEmpty(t *testing.T) {
	threshold := 0.5
	tests := []struct {
		name  string
		query SearchQuery
		want  bool
	}{
		{name: "zero value", query: SearchQuery{}, want: true},
		{name: "whitespace only", query: SearchQuery{Query: "   ", Tags: " , "}, want: true},
		{name: "pagination only", query: SearchQuery{Limit: 20, Offset: 40, Exact: true, Threshold: &threshold}, want: true},
		{name: "free text", query: SearchQuery{Query: "golang"}, want: false},
		{name: "tag filter", query: SearchQuery{Tags: "go"}, want: false},
		{name: "semantic", query: SearchQuery{Semantic: "concurrency patterns"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchQueryEqualComparesThresholdByValue(t *testing.T) {
	a, b := 0.7, 0.7
	q1 := SearchQuery{Query: "x", Threshold: &a}
	q2 := SearchQuery{Query: "x", Threshold: &b}
	if !q1.Equal(q2) {
		t.Error("queries with equal thresholds behind different pointers should be equal")
	}

	c := 0.8
	q3 := SearchQuery{Query: "x", Threshold: &c}
	if q1.Equal(q3) {
		t.Error("queries with different thresholds should not be equal")
	}
	if q1.Equal(SearchQuery{Query: "x"}) {
		t.Error("nil threshold should differ from a set threshold")
	}
}

func TestBulkRoundTripIsLossless(t *testing.T) {
	threshold := 0.25
	original := SearchQuery{
		Query:     "rust",
		Keyword:   "#lang or #systems",
		Tags:      "go,rust,zig",
		Title:     "book",
		Threshold: &threshold,
		Exact:     true,
		Limit:     50,
		Offset:    100,
	}

	bulk := original.ToBulk()
	if len(bulk.Tags) != 3 || bulk.Tags[0] != "go" || bulk.Tags[2] != "zig" {
		t.Fatalf("ToBulk() tags = %v, want [go rust zig]", bulk.Tags)
	}

	back := bulk.ToSearch()
	if !back.Equal(original) {
		t.Errorf("round trip = %+v, want %+v", back, original)
	}
}

func TestValuesAndParseValuesAreInverse(t *testing.T) {
	threshold := 0.9
	q := SearchQuery{
		Query:     "hello world",
		Tags:      "a, b ,a",
		URL:       "github.com",
		Threshold: &threshold,
		Exact:     true,
		Limit:     10,
	}

	v := q.Values()
	if got := v.Get("tags"); got != "a,b" {
		t.Errorf("Values() tags = %q, want %q", got, "a,b")
	}

	parsed := ParseValues(v)
	if !parsed.Equal(q.Canonical()) {
		t.Errorf("ParseValues(Values()) = %+v, want %+v", parsed, q.Canonical())
	}
}

func TestParseValuesIgnoresMalformedNumbers(t *testing.T) {
	v := url.Values{}
	v.Set("q", "x")
	v.Set("limit", "lots")
	v.Set("threshold", "high")

	q := ParseValues(v)
	if q.Limit != 0 || q.Threshold != nil {
		t.Errorf("ParseValues() = %+v, want malformed numbers dropped", q)
	}
	if q.Query != "x" {
		t.Errorf("ParseValues() query = %q, want %q", q.Query, "x")
	}
}

func TestSignatureIsStableAcrossEquivalentQueries(t *testing.T) {
	a := SearchQuery{Query: " go ", Tags: "x,y"}
	b := SearchQuery{Query: "go", Tags: "x, y, x"}
	if a.Signature() != b.Signature() {
		t.Errorf("Signature() differs for equivalent queries: %s vs %s", a.Signature(), b.Signature())
	}
	c := SearchQuery{Query: "go", Tags: "x"}
	if a.Signature() == c.Signature() {
		t.Error("Signature() should differ for different queries")
	}
}
