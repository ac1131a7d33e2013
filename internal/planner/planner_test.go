// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-pilot/pkg/types"
)

type mockCompleter struct {
	text string
	err  error
}

func (m *mockCompleter) Complete(_ context.Context, _ string, _ int) (string, error) {
	return m.text, m.err
}

func checkQueries(t *testing.T, queries []string, topic string, want int) {
	t.Helper()
	if len(queries) != want {
		t.Fatalf("len(queries) = %d, want %d", len(queries), want)
	}
	seen := make(map[string]bool)
	hasTopic := false
	for _, q := range queries {
		if strings.TrimSpace(q) == "" {
			t.Error("empty query in output")
		}
		key := strings.ToLower(q)
		if seen[key] {
			t.Errorf("duplicate query %q", q)
		}
		seen[key] = true
		if strings.Contains(key, strings.ToLower(topic)) {
			hasTopic = true
		}
	}
	if !hasTopic {
		t.Errorf("no query contains the topic %q", topic)
	}
}

func TestGenerateCountsPerDepth(t *testing.T) {
	tests := []struct {
		depth types.Depth
		want  int
	}{
		{types.DepthBasic, 3},
		{types.DepthIntermediate, 5},
		{types.DepthComprehensive, 7},
	}
	c := &mockCompleter{err: errors.New("provider down")}
	for _, tt := range tests {
		t.Run(string(tt.depth), func(t *testing.T) {
			queries := Generate(context.Background(), c, "renewable energy", tt.depth, types.PlannerConfig{}, zerolog.Nop())
			checkQueries(t, queries, "renewable energy", tt.want)
		})
	}
}

func TestGenerateFromModel(t *testing.T) {
	c := &mockCompleter{text: `["renewable energy overview", "solar adoption statistics", "wind power case studies"]`}
	queries := Generate(context.Background(), c, "renewable energy", types.DepthBasic, types.PlannerConfig{}, zerolog.Nop())
	checkQueries(t, queries, "renewable energy", 3)
	if queries[0] != "renewable energy overview" {
		t.Errorf("queries[0] = %q, want model's first query", queries[0])
	}
}

func TestGenerateModelOutputFenced(t *testing.T) {
	c := &mockCompleter{text: "```json\n[\"renewable energy overview\", \"grid storage research papers\", \"renewable energy policy\"]\n```"}
	queries := Generate(context.Background(), c, "renewable energy", types.DepthBasic, types.PlannerConfig{}, zerolog.Nop())
	checkQueries(t, queries, "renewable energy", 3)
}

func TestGenerateMalformedJSONFallsBack(t *testing.T) {
	c := &mockCompleter{text: "Sure! Here are some queries you could try."}
	queries := Generate(context.Background(), c, "renewable energy", types.DepthIntermediate, types.PlannerConfig{}, zerolog.Nop())
	checkQueries(t, queries, "renewable energy", 5)
	if queries[0] != "renewable energy" {
		t.Errorf("fallback queries[0] = %q, want bare topic", queries[0])
	}
}

func TestGenerateEmptyArrayFallsBack(t *testing.T) {
	c := &mockCompleter{text: `[]`}
	queries := Generate(context.Background(), c, "renewable energy", types.DepthBasic, types.PlannerConfig{}, zerolog.Nop())
	checkQueries(t, queries, "renewable energy", 3)
}

func TestGenerateTopicAlwaysIncluded(t *testing.T) {
	// Model queries that never mention the topic.
	c := &mockCompleter{text: `["battery chemistry", "grid interconnects", "feed-in tariffs"]`}
	queries := Generate(context.Background(), c, "renewable energy", types.DepthBasic, types.PlannerConfig{}, zerolog.Nop())
	checkQueries(t, queries, "renewable energy", 3)
}

func TestGeneratePadsShortModelOutput(t *testing.T) {
	c := &mockCompleter{text: `["renewable energy overview"]`}
	queries := Generate(context.Background(), c, "renewable energy", types.DepthComprehensive, types.PlannerConfig{}, zerolog.Nop())
	checkQueries(t, queries, "renewable energy", 7)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `["a"]`, `["a"]`},
		{"plain fence", "```\n[\"a\"]\n```", `["a"]`},
		{"json fence", "```json\n[\"a\"]\n```", `["a"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.in); got != tt.want {
				t.Errorf("StripCodeFence() = %q, want %q", got, tt.want)
			}
		})
	}
}
