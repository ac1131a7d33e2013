// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-pilot/internal/model"
	"github.com/pdiddy/research-pilot/pkg/types"
)

// mockCompleter routes each prompt to a canned response by the stage's
// prompt preamble.
type mockCompleter struct {
	queriesResponse  string
	analysisResponse string
	reportResponse   string
	empty            bool
}

func (m *mockCompleter) Empty() bool { return m.empty }

func (m *mockCompleter) Complete(_ context.Context, prompt string, _ int) (string, error) {
	switch {
	case strings.Contains(prompt, "query planner"):
		return m.queriesResponse, nil
	case strings.Contains(prompt, "research analyst"):
		return m.analysisResponse, nil
	case strings.Contains(prompt, "report writer"):
		return m.reportResponse, nil
	}
	return "", fmt.Errorf("unexpected prompt: %.60s", prompt)
}

// mockSearcher returns scripted results per query and records the queries
// it was asked to run.
type mockSearcher struct {
	mu      sync.Mutex
	results map[string][]types.SearchResult
	queries []string
}

func (m *mockSearcher) Search(_ context.Context, query string, _ int) ([]types.SearchResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	hits, ok := m.results[query]
	if !ok {
		return nil, errors.New("no backend produced results")
	}
	return hits, nil
}

// mockFetcher serves canned HTML bodies per URL.
type mockFetcher struct {
	pages map[string][]byte
}

func (m *mockFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	body, ok := m.pages[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return body, nil
}

func articleHTML(title string) []byte {
	body := strings.Repeat("Renewable energy adoption keeps accelerating across global markets today. ", 12)
	return []byte(fmt.Sprintf(
		"<html><head><title>%s</title><meta name=\"author\" content=\"Rivera\"></head>"+
			"<body><article><h1>%s</h1><p>%s</p></article></body></html>",
		title, title, body))
}

const structuredReport = `{
  "title": "Renewable Energy: State of the Transition",
  "abstract": "Renewable generation now dominates new capacity additions worldwide, driven by falling costs and supportive policy.",
  "introduction": "Renewable energy has moved from the margin to the mainstream [1].",
  "literature_review": "The surveyed sources agree on the direction of the transition [2].",
  "methodology": "Sources were gathered by multi-backend web and academic search.",
  "findings": "Costs fell sharply while capacity doubled [3][4].",
  "discussion": "Grid integration remains the open challenge [1][3].",
  "conclusion": "The transition is well underway.",
  "recommendations": "Invest in storage and transmission."
}`

func testRunner(t *testing.T) (*Runner, *mockSearcher, string) {
	t.Helper()
	outDir := t.TempDir()

	completer := &mockCompleter{
		queriesResponse:  `["renewable energy overview", "renewable energy statistics", "renewable energy policy"]`,
		analysisResponse: strings.Repeat("The sources converge on three major themes in the energy transition. ", 5),
		reportResponse:   structuredReport,
	}
	searcher := &mockSearcher{results: map[string][]types.SearchResult{
		"renewable energy overview": {
			{Title: "Global Energy Review", URL: "https://example.org/review", RelevanceScore: 99},
			{Title: "Cost of Power", URL: "https://example.edu/cost", RelevanceScore: 88},
		},
		"renewable energy statistics": {
			{Title: "Capacity Statistics", URL: "https://example.org/stats", RelevanceScore: 77},
			{Title: "Global Energy Review", URL: "https://example.org/review/", RelevanceScore: 70},
		},
		"renewable energy policy": {
			{Title: "Policy Tracker", URL: "https://example.gov/policy", RelevanceScore: 66},
			{Title: "Press Stub", URL: "https://example.com/stub", RelevanceScore: 55},
		},
	}}
	fetcher := &mockFetcher{pages: map[string][]byte{
		"https://example.org/review": articleHTML("Global Energy Review"),
		"https://example.edu/cost":   articleHTML("Cost of Power"),
		"https://example.org/stats":  articleHTML("Capacity Statistics"),
		"https://example.gov/policy": articleHTML("Policy Tracker"),
		"https://example.com/stub":   []byte("<html><body><p>too short</p></body></html>"),
	}}

	cfg := types.PipelineConfig{Render: types.RenderConfig{OutputDir: outDir}}
	runner := NewRunner(completer, searcher, fetcher, cfg, zerolog.Nop())
	return runner, searcher, outDir
}

func TestResearchEndToEnd(t *testing.T) {
	runner, searcher, outDir := testRunner(t)

	var stages []Stage
	paths, err := runner.Research(context.Background(), types.ResearchTopic{
		Topic:         "Renewable Energy",
		Depth:         types.DepthBasic,
		OutputFormats: []types.OutputFormat{types.FormatMarkdown},
	}, func(stage Stage, _ string) { stages = append(stages, stage) })
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("paths = %v, want one markdown file", paths)
	}

	if len(searcher.queries) != 3 {
		t.Errorf("queries run = %d, want 3 for basic depth", len(searcher.queries))
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	md := string(data)

	// Five unique results, one thin stub dropped, four sources remain.
	if !strings.Contains(md, "**Number of Sources:** 4") {
		t.Errorf("report missing source count\n%s", md)
	}

	var topLevel, refs int
	_, refBlock, _ := strings.Cut(md, "## References")
	for _, line := range strings.Split(refBlock, "\n") {
		if strings.TrimSpace(line) != "" {
			refs++
		}
	}
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "## ") {
			topLevel++
		}
	}
	if topLevel != 7+2 {
		t.Errorf("top-level headings = %d, want %d", topLevel, 7+2)
	}
	if refs != 4 {
		t.Errorf("reference entries = %d, want 4", refs)
	}
	if !strings.Contains(md, "https://example.gov/policy") {
		t.Errorf("report references missing a surviving source\n%s", md)
	}
	if strings.Contains(md, "example.com/stub") {
		t.Errorf("thin source leaked into the report\n%s", md)
	}

	wantStages := []Stage{StageInit, StageQueryGen, StageSearch, StageExtract, StageAnalyze, StageAssemble, StageRender, StageComplete}
	if len(stages) != len(wantStages) {
		t.Fatalf("stages = %v, want %v", stages, wantStages)
	}
	for i, stage := range wantStages {
		if stages[i] != stage {
			t.Errorf("stage[%d] = %s, want %s", i, stages[i], stage)
		}
	}

	manifests, err := filepath.Glob(filepath.Join(outDir, "run_*.yaml"))
	if err != nil || len(manifests) != 1 {
		t.Fatalf("manifests = %v, want exactly one", manifests)
	}
	manifest, err := ReadManifest(manifests[0])
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if manifest.RunID == "" {
		t.Error("manifest has no run ID")
	}
	if len(manifest.Queries) != 3 {
		t.Errorf("manifest queries = %d, want 3", len(manifest.Queries))
	}
	if len(manifest.Sources) != 4 {
		t.Errorf("manifest sources = %d, want 4", len(manifest.Sources))
	}
	if len(manifest.Outputs) != 1 {
		t.Errorf("manifest outputs = %v, want the markdown path", manifest.Outputs)
	}
}

func TestResearchEmptyTopic(t *testing.T) {
	runner, _, _ := testRunner(t)
	_, err := runner.Research(context.Background(), types.ResearchTopic{Topic: "   ", Depth: types.DepthBasic}, nil)
	if err == nil {
		t.Fatal("expected error for empty topic")
	}
}

func TestResearchNoProvider(t *testing.T) {
	runner, _, _ := testRunner(t)
	runner.completer = &mockCompleter{empty: true}
	_, err := runner.Research(context.Background(), types.ResearchTopic{Topic: "anything", Depth: types.DepthBasic}, nil)
	if !errors.Is(err, model.ErrNoProvider) {
		t.Fatalf("err = %v, want ErrNoProvider", err)
	}
}

func TestResearchInvalidDepthDefaultsToBasic(t *testing.T) {
	runner, searcher, _ := testRunner(t)
	_, err := runner.Research(context.Background(), types.ResearchTopic{Topic: "Renewable Energy", Depth: "extreme"}, nil)
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	if len(searcher.queries) != 3 {
		t.Errorf("queries run = %d, want basic-depth default of 3", len(searcher.queries))
	}
}

func TestResearchNoUsableSources(t *testing.T) {
	runner, _, _ := testRunner(t)
	runner.fetcher = &mockFetcher{pages: map[string][]byte{}}
	_, err := runner.Research(context.Background(), types.ResearchTopic{Topic: "Renewable Energy", Depth: types.DepthBasic}, nil)
	if !errors.Is(err, ErrNoUsableSources) {
		t.Fatalf("err = %v, want ErrNoUsableSources", err)
	}
}

func TestResearchAllQueriesFail(t *testing.T) {
	runner, _, _ := testRunner(t)
	runner.searcher = &mockSearcher{results: map[string][]types.SearchResult{}}
	_, err := runner.Research(context.Background(), types.ResearchTopic{Topic: "Renewable Energy", Depth: types.DepthBasic}, nil)
	if err == nil || !strings.Contains(err.Error(), "no results") {
		t.Fatalf("err = %v, want search failure", err)
	}
}

func TestResearchMaxSourcesCap(t *testing.T) {
	runner, _, _ := testRunner(t)
	paths, err := runner.Research(context.Background(), types.ResearchTopic{
		Topic:      "Renewable Energy",
		Depth:      types.DepthBasic,
		MaxSources: 2,
	}, nil)
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(data), "**Number of Sources:** 2") {
		t.Errorf("report not capped at 2 sources\n%s", data)
	}
}

func TestSuggestVisualizations(t *testing.T) {
	report := &types.ResearchReport{Sections: []types.ResearchSection{
		{Title: "Introduction", Content: "Background."},
		{Title: "Findings", Content: "Capacity doubled since 2020. More detail follows."},
		{Title: "Discussion", Content: "Grid integration is the bottleneck."},
	}}
	viz := suggestVisualizations(report)
	if len(viz) != 2 {
		t.Fatalf("visualizations = %d, want 2", len(viz))
	}
	if viz[0].Title != "Figure: Findings overview" {
		t.Errorf("title = %q", viz[0].Title)
	}
	if viz[0].Description != "Capacity doubled since 2020." {
		t.Errorf("description = %q", viz[0].Description)
	}
}

func TestBuildCitations(t *testing.T) {
	accessed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	contents := []types.ExtractedContent{
		{URL: "https://a.example", Title: "A", Metadata: types.ContentMetadata{Author: "Chen", PublishDate: "2025-01-01"}},
		{URL: "https://b.example", Title: "B"},
	}
	citations := buildCitations(contents, accessed)
	if len(citations) != 2 {
		t.Fatalf("citations = %d, want 2", len(citations))
	}
	if citations[0].ID != "cit-1" || citations[1].ID != "cit-2" {
		t.Errorf("IDs = %s, %s", citations[0].ID, citations[1].ID)
	}
	if citations[0].Author != "Chen" || citations[0].PublishDate != "2025-01-01" {
		t.Errorf("metadata not carried: %+v", citations[0])
	}
	if !citations[1].AccessDate.Equal(accessed) {
		t.Errorf("access date = %v", citations[1].AccessDate)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{
		Topic:   "Renewable Energy",
		Depth:   "basic",
		Queries: []string{"renewable energy overview"},
		Sources: []ManifestSource{{URL: "https://example.org/review", Title: "Review", WordCount: 120}},
		Stages:  []StageTiming{{Stage: "search", Duration: 2 * time.Second}},
		Outputs: []string{"out.md"},
	}
	path, err := WriteManifest(dir, m)
	if err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	if m.RunID == "" {
		t.Fatal("run ID not assigned")
	}

	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if got.RunID != m.RunID || got.Topic != m.Topic {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Sources) != 1 || got.Sources[0].WordCount != 120 {
		t.Errorf("sources = %+v", got.Sources)
	}
	if got.Stages[0].Duration != 2*time.Second {
		t.Errorf("duration = %v", got.Stages[0].Duration)
	}
}
