// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// MaxContentLength bounds the text kept per extracted page.
const MaxContentLength = 50000

// ContentMetadata holds page-level metadata gathered during extraction.
type ContentMetadata struct {
	// Author is the page author from meta tags, if present.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// PublishDate is the publication date from meta tags, if present.
	PublishDate string `json:"publish_date,omitempty" yaml:"publish_date,omitempty"`

	// WordCount is the number of whitespace-separated words in Content.
	WordCount int `json:"word_count" yaml:"word_count"`
}

// ExtractedContent is the cleaned main text of one fetched page. A failed
// fetch or parse produces a placeholder with WordCount zero rather than an
// error, so batch extraction never partially fails.
type ExtractedContent struct {
	// URL is the page the content was extracted from.
	URL string `json:"url" yaml:"url"`

	// Title is the page title: first heading, else <title>, else "Untitled".
	Title string `json:"title" yaml:"title"`

	// Content is the boilerplate-stripped main text, whitespace-normalized
	// and truncated to MaxContentLength.
	Content string `json:"content" yaml:"content"`

	// Metadata carries author, publish date, and word count.
	Metadata ContentMetadata `json:"metadata" yaml:"metadata"`
}

// Citation is a bibliographic record derived 1:1 from an ExtractedContent.
// IDs are "cit-N" with N being the 1-based position in extraction order;
// that position is the join key sections use to back-reference sources.
type Citation struct {
	// ID is the stable citation identifier ("cit-1", "cit-2", ...).
	ID string `json:"id" yaml:"id"`

	// Title is the source title.
	Title string `json:"title" yaml:"title"`

	// URL is the source location.
	URL string `json:"url" yaml:"url"`

	// Author is the source author, if known.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	// PublishDate is the source publication date, if known.
	PublishDate string `json:"publish_date,omitempty" yaml:"publish_date,omitempty"`

	// AccessDate records when the source was fetched.
	AccessDate time.Time `json:"access_date" yaml:"access_date"`
}
