// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/research-pilot/internal/httputil"
	"github.com/pdiddy/research-pilot/pkg/types"
)

// scholarAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var scholarAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const scholarFields = "title,abstract,authors,url,externalIds,publicationDate"

// ScholarBackend queries the Semantic Scholar API. It is the fixed
// scholarly-paper backend of the academic set.
type ScholarBackend struct {
	Client *http.Client
}

func (b *ScholarBackend) Name() string      { return "semantic_scholar" }
func (b *ScholarBackend) Kind() BackendKind { return KindAcademic }

type scholarResponse struct {
	Data []scholarPaper `json:"data"`
}

type scholarPaper struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	URL      string `json:"url"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		DOI string `json:"DOI"`
	} `json:"externalIds"`
	PublicationDate string `json:"publicationDate"`
}

// Search queries the Semantic Scholar API and maps papers to results.
func (b *ScholarBackend) Search(ctx context.Context, query string, limit int, cfg types.SearchConfig) ([]types.SearchResult, error) {
	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {scholarFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scholarAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if cfg.SemanticScholarAPIKey != "" {
		req.Header.Set("x-api-key", cfg.SemanticScholarAPIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr scholarResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	total := len(sr.Data)
	var results []types.SearchResult
	for i, paper := range sr.Data {
		link := paper.URL
		if link == "" && paper.ExternalIDs.DOI != "" {
			link = "https://doi.org/" + paper.ExternalIDs.DOI
		}
		if link == "" {
			continue
		}

		r := types.SearchResult{
			Title:          strings.TrimSpace(paper.Title),
			URL:            link,
			Snippet:        truncateSnippet(paper.Abstract),
			Source:         "semantic_scholar",
			RelevanceScore: positionScore(i, total),
		}
		if len(paper.Authors) > 0 {
			r.Author = paper.Authors[0].Name
		}
		if t, parseErr := time.Parse("2006-01-02", paper.PublicationDate); parseErr == nil {
			r.PublishDate = t
		}
		results = append(results, r)
	}
	return results, nil
}

// truncateSnippet bounds an abstract to snippet length.
func truncateSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 300 {
		return s
	}
	return s[:297] + "..."
}
