// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SearchResult represents one candidate source returned by a search backend.
// The URL is the unique key used for deduplication across backends.
type SearchResult struct {
	// Title is the result title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// URL is the canonical link to the source page.
	URL string `json:"url" yaml:"url"`

	// Snippet is the short result summary shown by the search engine.
	Snippet string `json:"snippet" yaml:"snippet"`

	// PublishDate is the publication date, when the backend reports one.
	PublishDate time.Time `json:"publish_date,omitempty" yaml:"publish_date,omitempty"`

	// Author is the page author, when the backend reports one.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// Source identifies which backend found this result
	// (e.g. "brave", "wikipedia", "semantic_scholar").
	Source string `json:"source" yaml:"source"`

	// RelevanceScore ranks the result within the aggregate. Backends assign
	// a base score; the aggregator boosts it by URL heuristics.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}
