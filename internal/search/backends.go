// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"net/http"

	"github.com/pdiddy/research-pilot/pkg/types"
)

// DefaultBackends assembles the active backend set: exactly one web engine
// picked by key priority, plus the fixed academic pair (Wikipedia, Semantic
// Scholar), with arXiv added when enabled.
func DefaultBackends(cfg types.SearchConfig, client *http.Client) []Backend {
	backends := []Backend{
		ChooseWebBackend(cfg, client),
		&WikipediaBackend{Client: client},
		&ScholarBackend{Client: client},
	}
	if cfg.EnableArxiv {
		backends = append(backends, &ArxivBackend{Client: client})
	}
	return backends
}
