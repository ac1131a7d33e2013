// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-pilot/pkg/types"
)

// --- mock backend ---

type mockBackend struct {
	name    string
	kind    BackendKind
	results []types.SearchResult
	err     error
}

func (m *mockBackend) Name() string      { return m.name }
func (m *mockBackend) Kind() BackendKind { return m.kind }

func (m *mockBackend) Search(_ context.Context, _ string, _ int, _ types.SearchConfig) ([]types.SearchResult, error) {
	return m.results, m.err
}

func testCfg() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "test/0.1",
		},
		MaxResults: 20,
	}
}

func newAggregator(backends ...Backend) *Aggregator {
	return NewAggregator(backends, testCfg(), zerolog.Nop())
}

// --- URL normalization and dedup ---

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://Example.com/Page/", "https://example.com/page"},
		{"https://example.com/page", "https://example.com/page"},
		{"  https://example.com/ ", "https://example.com"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDeduplicateKeepsFirst(t *testing.T) {
	results := []types.SearchResult{
		{URL: "https://example.com/a", RelevanceScore: 0.9, Source: "brave"},
		{URL: "https://EXAMPLE.com/a/", RelevanceScore: 0.5, Source: "wikipedia"},
		{URL: "https://example.com/b", RelevanceScore: 0.7, Source: "brave"},
	}

	deduped := deduplicate(results)
	if len(deduped) != 2 {
		t.Fatalf("len(deduped) = %d, want 2", len(deduped))
	}
	if deduped[0].Source != "brave" || deduped[0].RelevanceScore != 0.9 {
		t.Errorf("dedup kept %+v, want first (highest-ranked) occurrence", deduped[0])
	}
}

// --- Boosts ---

func TestBoostFor(t *testing.T) {
	tests := []struct {
		name string
		r    types.SearchResult
		want float64
	}{
		{"scholarly", types.SearchResult{URL: "https://arxiv.org/abs/2301.07041"}, 10},
		{"edu", types.SearchResult{URL: "https://web.mit.edu/research"}, 7},
		{"gov", types.SearchResult{URL: "https://www.energy.gov/solar"}, 6},
		{"encyclopedic", types.SearchResult{URL: "https://en.wikipedia.org/wiki/Solar_power"}, 5},
		{"peer review snippet", types.SearchResult{URL: "https://example.com", Snippet: "a peer-reviewed journal study"}, 5},
		{"plain", types.SearchResult{URL: "https://example.com/blog"}, 0},
		{"scholarly plus journal", types.SearchResult{URL: "https://www.nature.com/articles/x", Snippet: "published in the journal Nature"}, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := boostFor(tt.r); got != tt.want {
				t.Errorf("boostFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- Aggregation ---

func TestSearchMergesAndRanks(t *testing.T) {
	web := &mockBackend{name: "web", kind: KindWeb, results: []types.SearchResult{
		{Title: "Blog", URL: "https://example.com/blog", RelevanceScore: 1.0},
		{Title: "Uni", URL: "https://stanford.edu/solar", RelevanceScore: 0.5},
	}}
	academic := &mockBackend{name: "wikipedia", kind: KindAcademic, results: []types.SearchResult{
		{Title: "Wiki", URL: "https://en.wikipedia.org/wiki/Solar", RelevanceScore: 1.0},
	}}

	results, err := newAggregator(web, academic).Search(context.Background(), "solar", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	// The .edu boost (+7) outranks the unboosted blog (1.0) and the
	// encyclopedic boost (+5).
	if results[0].URL != "https://stanford.edu/solar" {
		t.Errorf("results[0] = %q, want the boosted .edu result", results[0].URL)
	}
	for i := 1; i < len(results); i++ {
		if results[i].RelevanceScore > results[i-1].RelevanceScore {
			t.Errorf("results not sorted by non-increasing score at %d", i)
		}
	}
}

func TestSearchOverlappingURLs(t *testing.T) {
	a := &mockBackend{name: "a", kind: KindWeb, results: []types.SearchResult{
		{URL: "https://example.com/1", RelevanceScore: 0.9},
		{URL: "https://example.com/2", RelevanceScore: 0.8},
		{URL: "https://example.com/3", RelevanceScore: 0.7},
	}}
	b := &mockBackend{name: "b", kind: KindAcademic, results: []types.SearchResult{
		{URL: "https://example.com/3/", RelevanceScore: 0.9},
		{URL: "https://example.com/4", RelevanceScore: 0.8},
		{URL: "https://example.com/5", RelevanceScore: 0.7},
	}}

	results, err := newAggregator(a, b).Search(context.Background(), "q", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("len(results) = %d, want 5 unique", len(results))
	}
	seen := make(map[string]bool)
	for _, r := range results {
		key := NormalizeURL(r.URL)
		if seen[key] {
			t.Errorf("duplicate normalized URL %q", key)
		}
		seen[key] = true
	}
}

func TestSearchFailingBackendIsolated(t *testing.T) {
	ok := &mockBackend{name: "ok", kind: KindWeb, results: []types.SearchResult{
		{URL: "https://example.com/1", RelevanceScore: 0.9},
	}}
	broken := &mockBackend{name: "broken", kind: KindAcademic, err: errors.New("timeout")}

	results, err := newAggregator(ok, broken).Search(context.Background(), "q", 10)
	if err != nil {
		t.Fatalf("Search() error = %v, want soft failure", err)
	}
	if len(results) != 1 {
		t.Errorf("len(results) = %d, want 1", len(results))
	}
}

func TestSearchAllBackendsEmpty(t *testing.T) {
	a := &mockBackend{name: "a", kind: KindWeb, err: errors.New("down")}
	b := &mockBackend{name: "b", kind: KindAcademic}

	_, err := newAggregator(a, b).Search(context.Background(), "q", 10)
	if err == nil {
		t.Error("Search() error = nil, want aggregate error when every backend returns nothing")
	}
}

func TestSearchTruncatesToBudget(t *testing.T) {
	var rs []types.SearchResult
	for i := 0; i < 20; i++ {
		rs = append(rs, types.SearchResult{
			URL:            NormalizeURL(fmtURL(i)),
			RelevanceScore: float64(20 - i),
		})
	}
	b := &mockBackend{name: "b", kind: KindWeb, results: rs}

	results, err := newAggregator(b).Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 5 {
		t.Errorf("len(results) = %d, want budget 5", len(results))
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	b := &mockBackend{name: "b", kind: KindWeb}
	if _, err := newAggregator(b).Search(context.Background(), "  ", 10); err == nil {
		t.Error("Search() error = nil, want error for empty query")
	}
}

func fmtURL(i int) string {
	return "https://example.com/page-" + string(rune('a'+i))
}
