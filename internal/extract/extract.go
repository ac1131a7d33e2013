// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls the main text and metadata out of fetched HTML
// pages, stripping boilerplate and normalizing whitespace.
// See docs/ARCHITECTURE § Content Extraction.
package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-pilot/pkg/types"
)

// Fetcher retrieves a page body. Satisfied by fetch.Fetcher; tests supply
// a mock.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// noiseSelectors are removed before any text is gathered.
var noiseSelectors = []string{
	"script", "style", "noscript", "iframe",
	"nav", "header", "footer", "aside", "form",
	".nav", ".navbar", ".menu", ".sidebar", ".footer", ".header",
	".ad", ".ads", ".advertisement", ".cookie-banner", ".newsletter",
	".social-share", ".comments", "#comments",
}

// contentSelectors are tried in order; the first whose text exceeds
// minContainerChars wins. The full body is the fallback.
var contentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	".article-body",
	".post-content",
	".entry-content",
	"#content",
	".content",
}

const (
	// minContainerChars is the smallest text a candidate container may
	// carry and still be preferred over the full body.
	minContainerChars = 500

	// MinContentChars is the extractor-level floor below which a page is
	// treated as empty boilerplate.
	MinContentChars = 100
)

// metaAuthorSelectors locate the author in common meta tags, tried in order.
var metaAuthorSelectors = []string{
	`meta[name="author"]`,
	`meta[property="article:author"]`,
	`meta[name="twitter:creator"]`,
}

// metaDateSelectors locate the publish date in common meta tags, tried in order.
var metaDateSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[name="date"]`,
	`meta[name="publish-date"]`,
	`meta[name="dc.date"]`,
}

// Extract fetches url and returns its cleaned main content. Any fetch or
// parse failure yields a zero-word placeholder rather than an error, so
// batch extraction never partially fails; callers post-filter on WordCount.
func Extract(ctx context.Context, f Fetcher, url string, log zerolog.Logger) types.ExtractedContent {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		log.Warn().Str("url", url).Err(err).Msg("fetch failed")
		return placeholder(url)
	}

	content, err := Parse(url, body)
	if err != nil {
		log.Warn().Str("url", url).Err(err).Msg("parse failed")
		return placeholder(url)
	}
	return content
}

// ExtractAll fetches and extracts all urls with at most concurrency
// simultaneous in-flight requests. Results keep input order; failed URLs
// occupy their slot as placeholders.
func ExtractAll(ctx context.Context, f Fetcher, urls []string, concurrency int, log zerolog.Logger) []types.ExtractedContent {
	if concurrency <= 0 {
		concurrency = 10
	}

	results := make([]types.ExtractedContent, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			// Each goroutine writes a disjoint slot; Extract never errors.
			results[i] = Extract(gctx, f, url, log)
			return nil
		})
	}
	g.Wait()

	return results
}

// Parse extracts the main content from an HTML document body.
func Parse(url string, body []byte) (types.ExtractedContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return types.ExtractedContent{}, err
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	title := extractTitle(doc)
	text := extractMainText(doc)
	text = NormalizeWhitespace(text)
	if len(text) > types.MaxContentLength {
		text = text[:types.MaxContentLength]
	}
	if len(text) < MinContentChars {
		return placeholderTitled(url, title), nil
	}

	return types.ExtractedContent{
		URL:     url,
		Title:   title,
		Content: text,
		Metadata: types.ContentMetadata{
			Author:      metaContent(doc, metaAuthorSelectors),
			PublishDate: metaContent(doc, metaDateSelectors),
			WordCount:   len(strings.Fields(text)),
		},
	}, nil
}

// extractMainText selects the first qualifying content container, falling
// back to the whole body.
func extractMainText(doc *goquery.Document) string {
	for _, sel := range contentSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		text := s.Text()
		if len(strings.TrimSpace(text)) > minContainerChars {
			return text
		}
	}
	return doc.Find("body").Text()
}

// extractTitle prefers the first h1, then the page title, then "Untitled".
func extractTitle(doc *goquery.Document) string {
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return "Untitled"
}

// metaContent returns the first non-empty content attribute among selectors.
func metaContent(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// NormalizeWhitespace collapses runs of blank space while keeping paragraph
// breaks as single newlines.
func NormalizeWhitespace(text string) string {
	var paragraphs []string
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		paragraphs = append(paragraphs, strings.Join(fields, " "))
	}
	return strings.Join(paragraphs, "\n")
}

func placeholder(url string) types.ExtractedContent {
	return placeholderTitled(url, "Untitled")
}

func placeholderTitled(url, title string) types.ExtractedContent {
	return types.ExtractedContent{
		URL:   url,
		Title: title,
		Metadata: types.ContentMetadata{
			WordCount: 0,
		},
	}
}
