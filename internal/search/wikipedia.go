// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/research-pilot/internal/httputil"
	"github.com/pdiddy/research-pilot/pkg/types"
)

// wikipediaAPIBase is the MediaWiki search endpoint. Declared as a var so
// tests can substitute an httptest server.
var wikipediaAPIBase = "https://en.wikipedia.org/w/api.php"

// snippetTagPattern strips the highlight markup MediaWiki embeds in snippets.
var snippetTagPattern = regexp.MustCompile(`<[^>]+>`)

// WikipediaBackend queries the MediaWiki full-text search API. It is the
// fixed encyclopedic backend of the academic set.
type WikipediaBackend struct {
	Client *http.Client
}

func (b *WikipediaBackend) Name() string      { return "wikipedia" }
func (b *WikipediaBackend) Kind() BackendKind { return KindAcademic }

type wikipediaResponse struct {
	Query struct {
		Search []struct {
			Title     string `json:"title"`
			Snippet   string `json:"snippet"`
			Timestamp string `json:"timestamp"`
		} `json:"search"`
	} `json:"query"`
}

// Search queries the MediaWiki API and maps articles to results.
func (b *WikipediaBackend) Search(ctx context.Context, query string, limit int, cfg types.SearchConfig) ([]types.SearchResult, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {fmt.Sprintf("%d", limit)},
		"format":   {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wikipediaAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Wikipedia API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Wikipedia API returned HTTP %d", resp.StatusCode)
	}

	var wr wikipediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("parsing Wikipedia response: %w", err)
	}

	total := len(wr.Query.Search)
	var results []types.SearchResult
	for i, s := range wr.Query.Search {
		r := types.SearchResult{
			Title:          s.Title,
			URL:            articleURL(s.Title),
			Snippet:        snippetTagPattern.ReplaceAllString(s.Snippet, ""),
			Source:         "wikipedia",
			RelevanceScore: positionScore(i, total),
		}
		if t, parseErr := time.Parse(time.RFC3339, s.Timestamp); parseErr == nil {
			r.PublishDate = t
		}
		results = append(results, r)
	}
	return results, nil
}

// articleURL builds the canonical article link from a page title.
func articleURL(title string) string {
	return "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}
