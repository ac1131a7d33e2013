// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search fans a query out to web and academic backends and merges
// the results into one ranked, deduplicated list.
// See docs/ARCHITECTURE § Search Aggregation.
package search

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-pilot/pkg/types"
)

// BackendKind distinguishes general web engines from academic sources.
type BackendKind string

const (
	KindWeb      BackendKind = "web"
	KindAcademic BackendKind = "academic"
)

// Backend searches a single source. Each engine (Serper, Brave, DuckDuckGo,
// Wikipedia, Semantic Scholar, arXiv) implements this interface per the
// Strategy pattern. Backends tolerate empty results as a non-error.
type Backend interface {
	Name() string
	Kind() BackendKind
	Search(ctx context.Context, query string, limit int, cfg types.SearchConfig) ([]types.SearchResult, error)
}

// Aggregator merges results from a fixed set of backends.
type Aggregator struct {
	backends []Backend
	cfg      types.SearchConfig
	log      zerolog.Logger
}

// NewAggregator builds an aggregator over the given backends.
func NewAggregator(backends []Backend, cfg types.SearchConfig, log zerolog.Logger) *Aggregator {
	return &Aggregator{backends: backends, cfg: cfg, log: log}
}

// Search fans the query out to all backends concurrently, boosts and ranks
// the merged results, deduplicates by normalized URL, and returns at most
// resultBudget entries. A failing backend contributes zero results; Search
// errors only when every backend returned nothing.
func (a *Aggregator) Search(ctx context.Context, query string, resultBudget int) ([]types.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if len(a.backends) == 0 {
		return nil, fmt.Errorf("no search backends configured")
	}
	if resultBudget <= 0 {
		resultBudget = a.cfg.MaxResults
	}
	if resultBudget <= 0 {
		resultBudget = 10
	}

	type backendResult struct {
		results []types.SearchResult
		err     error
		name    string
	}

	ch := make(chan backendResult, len(a.backends))
	var wg sync.WaitGroup

	for _, b := range a.backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			results, err := b.Search(ctx, query, resultBudget, a.cfg)
			ch <- backendResult{results: results, err: err, name: b.Name()}
		}(b)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.SearchResult
	failed := 0
	for br := range ch {
		if br.err != nil {
			failed++
			a.log.Warn().Str("backend", br.name).Str("query", query).Err(br.err).Msg("search backend failed")
			continue
		}
		all = append(all, br.results...)
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("all %d backends returned nothing for %q", len(a.backends), query)
	}

	applyBoosts(all)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].RelevanceScore > all[j].RelevanceScore
	})

	deduped := deduplicate(all)

	if len(deduped) > resultBudget {
		deduped = deduped[:resultBudget]
	}
	return deduped, nil
}

// deduplicate keeps the first occurrence of each normalized URL. Results
// arrive sorted by score, so the first occurrence is the highest-ranked.
func deduplicate(results []types.SearchResult) []types.SearchResult {
	seen := make(map[string]bool)
	var deduped []types.SearchResult
	for _, r := range results {
		key := NormalizeURL(r.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
	}
	return deduped
}

// NormalizeURL lowercases a URL and strips a trailing slash so the same
// page fetched from different backends compares equal.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	return strings.TrimSuffix(s, "/")
}

// scholarlyDomains are hosts whose results get the strongest boost.
var scholarlyDomains = []string{
	"arxiv.org",
	"semanticscholar.org",
	"scholar.google",
	"jstor.org",
	"springer.com",
	"sciencedirect.com",
	"nature.com",
	"ieee.org",
	"acm.org",
	"ncbi.nlm.nih.gov",
	"pubmed",
}

// encyclopedicDomains are general reference hosts.
var encyclopedicDomains = []string{
	"wikipedia.org",
	"britannica.com",
}

// applyBoosts mutates RelevanceScore by URL and snippet heuristics:
// +10 scholarly domain, +7 .edu, +6 .gov, +5 encyclopedic, +5 when the
// snippet mentions peer review or a journal.
func applyBoosts(results []types.SearchResult) {
	for i := range results {
		results[i].RelevanceScore += boostFor(results[i])
	}
}

func boostFor(r types.SearchResult) float64 {
	host := hostOf(r.URL)
	var boost float64

	switch {
	case matchesAny(host, scholarlyDomains):
		boost += 10
	case strings.HasSuffix(host, ".edu"):
		boost += 7
	case strings.HasSuffix(host, ".gov"):
		boost += 6
	case matchesAny(host, encyclopedicDomains):
		boost += 5
	}

	snippet := strings.ToLower(r.Snippet)
	if strings.Contains(snippet, "peer review") ||
		strings.Contains(snippet, "peer-reviewed") ||
		strings.Contains(snippet, "journal") {
		boost += 5
	}
	return boost
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	return strings.ToLower(u.Host)
}

func matchesAny(host string, domains []string) bool {
	for _, d := range domains {
		if strings.Contains(host, d) {
			return true
		}
	}
	return false
}
