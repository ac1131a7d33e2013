// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/research-pilot/internal/httputil"
	"github.com/pdiddy/research-pilot/pkg/types"
)

// API endpoints. Declared as vars so tests can substitute httptest servers.
var (
	serperAPIBase = "https://google.serper.dev/search"
	braveAPIBase  = "https://api.search.brave.com/res/v1/web/search"
	ddgHTMLBase   = "https://html.duckduckgo.com/html/"
)

// ChooseWebBackend picks the single active web engine by priority:
// Serper, then Brave, then DuckDuckGo, depending on configured keys.
func ChooseWebBackend(cfg types.SearchConfig, client *http.Client) Backend {
	switch {
	case cfg.SerperAPIKey != "":
		return &SerperBackend{Client: client}
	case cfg.BraveAPIKey != "":
		return &BraveBackend{Client: client}
	default:
		return &DuckDuckGoBackend{Client: client}
	}
}

// positionScore assigns a base relevance from result order, matching how
// engines already rank within their own output. Boosts layered on top by
// the aggregator dominate across source classes.
func positionScore(i, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(total-1)*0.9
}

// --- Serper ---

// SerperBackend queries the Serper Google SERP API.
type SerperBackend struct {
	Client *http.Client
}

func (b *SerperBackend) Name() string      { return "serper" }
func (b *SerperBackend) Kind() BackendKind { return KindWeb }

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
		Date    string `json:"date"`
	} `json:"organic"`
}

// Search posts the query to the Serper API and maps organic results.
func (b *SerperBackend) Search(ctx context.Context, query string, limit int, cfg types.SearchConfig) ([]types.SearchResult, error) {
	body, err := json.Marshal(serperRequest{Q: query, Num: limit})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperAPIBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", cfg.SerperAPIKey)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Serper API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Serper API returned HTTP %d", resp.StatusCode)
	}

	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Serper response: %w", err)
	}

	total := len(sr.Organic)
	var results []types.SearchResult
	for i, o := range sr.Organic {
		if o.Link == "" {
			continue
		}
		r := types.SearchResult{
			Title:          strings.TrimSpace(o.Title),
			URL:            o.Link,
			Snippet:        strings.TrimSpace(o.Snippet),
			Source:         "serper",
			RelevanceScore: positionScore(i, total),
		}
		if t, parseErr := time.Parse("2006-01-02", o.Date); parseErr == nil {
			r.PublishDate = t
		}
		results = append(results, r)
	}
	return results, nil
}

// --- Brave ---

// BraveBackend queries the Brave Search API.
type BraveBackend struct {
	Client *http.Client
}

func (b *BraveBackend) Name() string      { return "brave" }
func (b *BraveBackend) Kind() BackendKind { return KindWeb }

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			PageAge     string `json:"page_age"`
		} `json:"results"`
	} `json:"web"`
}

// Search queries the Brave Search API and maps web results.
func (b *BraveBackend) Search(ctx context.Context, query string, limit int, cfg types.SearchConfig) ([]types.SearchResult, error) {
	params := url.Values{
		"q":     {query},
		"count": {fmt.Sprintf("%d", limit)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, braveAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", cfg.BraveAPIKey)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Brave API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Brave API returned HTTP %d", resp.StatusCode)
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("parsing Brave response: %w", err)
	}

	total := len(br.Web.Results)
	var results []types.SearchResult
	for i, w := range br.Web.Results {
		if w.URL == "" {
			continue
		}
		r := types.SearchResult{
			Title:          strings.TrimSpace(w.Title),
			URL:            w.URL,
			Snippet:        strings.TrimSpace(w.Description),
			Source:         "brave",
			RelevanceScore: positionScore(i, total),
		}
		if t, parseErr := time.Parse(time.RFC3339, w.PageAge); parseErr == nil {
			r.PublishDate = t
		}
		results = append(results, r)
	}
	return results, nil
}

// --- DuckDuckGo ---

// DuckDuckGoBackend scrapes the DuckDuckGo HTML endpoint. It needs no API
// key and serves as the last-resort web engine.
type DuckDuckGoBackend struct {
	Client *http.Client
}

func (b *DuckDuckGoBackend) Name() string      { return "duckduckgo" }
func (b *DuckDuckGoBackend) Kind() BackendKind { return KindWeb }

// Search fetches the HTML results page and extracts result links and
// snippets with goquery.
func (b *DuckDuckGoBackend) Search(ctx context.Context, query string, limit int, cfg types.SearchConfig) ([]types.SearchResult, error) {
	params := url.Values{"q": {query}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ddgHTMLBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing DuckDuckGo HTML: %w", err)
	}

	var results []types.SearchResult
	doc.Find(".result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		link := s.Find(".result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := decodeDDGHref(href)
		if target == "" {
			return true
		}
		results = append(results, types.SearchResult{
			Title:   strings.TrimSpace(link.Text()),
			URL:     target,
			Snippet: strings.TrimSpace(s.Find(".result__snippet").Text()),
			Source:  "duckduckgo",
		})
		return len(results) < limit
	})

	for i := range results {
		results[i].RelevanceScore = positionScore(i, len(results))
	}
	return results, nil
}

// decodeDDGHref unwraps DuckDuckGo's redirect links
// ("//duckduckgo.com/l/?uddg=<encoded>") to the target URL.
func decodeDDGHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		return uddg
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return href
	}
	return ""
}
