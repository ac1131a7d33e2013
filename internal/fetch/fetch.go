// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves candidate pages over HTTP with a browser-like
// user agent, bounded redirects, and an optional SQLite page cache.
// See docs/ARCHITECTURE § Content Acquisition.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-pilot/internal/httputil"
	"github.com/pdiddy/research-pilot/pkg/types"
)

// browserUserAgent is sent when the config does not override it. Some sites
// serve empty shells to obvious bots.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 2 << 20

// Fetcher retrieves pages, consulting the cache first when one is attached.
type Fetcher struct {
	client *http.Client
	cache  *Cache
	cfg    types.FetchConfig
	log    zerolog.Logger
}

// NewFetcher builds a Fetcher. cache may be nil to disable caching.
func NewFetcher(cfg types.FetchConfig, cache *Cache, log zerolog.Logger) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}

	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return &Fetcher{client: client, cache: cache, cfg: cfg, log: log}
}

// Fetch returns the page body for url. Cached bodies are served without a
// network round trip; fresh fetches get one retry on transient failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		if body, ok := f.cache.Get(url); ok {
			f.log.Debug().Str("url", url).Msg("cache hit")
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	ua := f.cfg.UserAgent
	if ua == "" {
		ua = browserUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	// One retry on transient failure: two attempts total.
	resp, err := httputil.DoWithRetry(ctx, f.client, req, 2)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	if f.cache != nil {
		if err := f.cache.Put(url, body); err != nil {
			f.log.Warn().Str("url", url).Err(err).Msg("cache write failed")
		}
	}
	return body, nil
}
