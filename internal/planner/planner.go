// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner turns a research topic into a small ordered set of
// diverse search queries, with a deterministic fallback when the model
// path fails. See docs/ARCHITECTURE § Query Planning.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-pilot/pkg/types"
)

// Completer produces a text completion for a prompt. Satisfied by
// model.Chain; tests supply a mock.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// queryPromptTmpl instructs the model to return a bare JSON array of
// queries covering distinct facets of the topic.
var queryPromptTmpl = template.Must(template.New("queries").Parse(`You are a research query planner. Generate exactly {{.Count}} distinct web search queries for researching the topic below.

The queries must cover different facets: general overview, recent developments, academic sources, case studies, statistics, and expert opinion. Each query should be a short search-engine string, not a question to a person.

Respond with a JSON array of {{.Count}} unique strings and nothing else.

Example response:
["solar power overview", "solar power adoption statistics 2025"]

Topic: {{.Topic}}
`))

// fallbackSuffixes are appended to the topic by the deterministic template
// generator. The empty suffix keeps the bare topic as the first query.
var fallbackSuffixes = []string{
	"",
	"overview",
	"research papers",
	"recent developments",
	"case studies",
	"statistics",
	"expert opinion",
}

// Generate returns the search queries for a topic at the given depth.
// It asks the model first, under cfg.Timeout, and falls back to template
// queries on timeout, malformed output, or provider failure. The result
// always has exactly depth.QueryCount() entries, always includes a query
// containing the topic, and is never empty.
func Generate(ctx context.Context, c Completer, topic string, depth types.Depth, cfg types.PlannerConfig, log zerolog.Logger) []string {
	count := depth.QueryCount()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	mctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	queries, err := generateWithModel(mctx, c, topic, count)
	if err != nil {
		log.Warn().Err(err).Msg("query generation fell back to templates")
		return fallbackQueries(topic, count)
	}

	queries = sanitize(queries, topic, count)
	if len(queries) < count {
		// Pad with template queries the model did not cover.
		for _, q := range fallbackQueries(topic, count+len(fallbackSuffixes)) {
			if len(queries) == count {
				break
			}
			if !contains(queries, q) {
				queries = append(queries, q)
			}
		}
	}
	return queries[:count]
}

func generateWithModel(ctx context.Context, c Completer, topic string, count int) ([]string, error) {
	var buf bytes.Buffer
	if err := queryPromptTmpl.Execute(&buf, struct {
		Topic string
		Count int
	}{topic, count}); err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := c.Complete(ctx, buf.String(), 1024)
	if err != nil {
		return nil, err
	}

	queries, err := parseQueryArray(text)
	if err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("model returned no queries")
	}
	return queries, nil
}

// parseQueryArray extracts a JSON string array from model output,
// tolerating surrounding prose and code fences.
func parseQueryArray(text string) ([]string, error) {
	text = StripCodeFence(text)

	// Narrow to the outermost array if the model added prose.
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in model output")
	}

	var queries []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &queries); err != nil {
		return nil, fmt.Errorf("parsing query array: %w", err)
	}
	return queries, nil
}

// StripCodeFence removes a surrounding Markdown code fence, with or
// without a language tag, from model output.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		// Drop the language tag line (e.g. "json").
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// sanitize trims, deduplicates, and bounds model queries, and guarantees at
// least one query contains the original topic.
func sanitize(queries []string, topic string, count int) []string {
	seen := make(map[string]bool)
	var out []string
	hasTopic := false
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if seen[key] {
			continue
		}
		seen[key] = true
		if strings.Contains(key, strings.ToLower(topic)) {
			hasTopic = true
		}
		out = append(out, q)
		if len(out) == count {
			break
		}
	}

	if !hasTopic {
		out = append([]string{topic}, out...)
		if len(out) > count {
			out = out[:count]
		}
	}
	return out
}

// fallbackQueries builds deterministic template queries, truncated to count.
func fallbackQueries(topic string, count int) []string {
	var out []string
	for _, suffix := range fallbackSuffixes {
		q := topic
		if suffix != "" {
			q = topic + " " + suffix
		}
		out = append(out, q)
		if len(out) == count {
			break
		}
	}
	return out
}

func contains(queries []string, q string) bool {
	for _, existing := range queries {
		if strings.EqualFold(existing, q) {
			return true
		}
	}
	return false
}
