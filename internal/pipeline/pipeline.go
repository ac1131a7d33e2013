// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the research stages from topic to rendered
// report. See docs/ARCHITECTURE § Pipeline Orchestration.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-pilot/internal/analyze"
	"github.com/pdiddy/research-pilot/internal/assemble"
	"github.com/pdiddy/research-pilot/internal/extract"
	"github.com/pdiddy/research-pilot/internal/model"
	"github.com/pdiddy/research-pilot/internal/planner"
	"github.com/pdiddy/research-pilot/internal/render"
	"github.com/pdiddy/research-pilot/internal/search"
	"github.com/pdiddy/research-pilot/pkg/types"
)

// DefaultTimeout is the hard overall budget for one research run.
const DefaultTimeout = 180 * time.Second

// MinSourceWords is the fewest words an extracted page needs to count as a
// usable source. Pages below it are placeholders or stubs.
const MinSourceWords = 50

// ErrNoUsableSources means every candidate source failed extraction or fell
// under the word floor, so there is nothing to synthesize from.
var ErrNoUsableSources = errors.New("no sources with usable content")

// Stage identifies a pipeline phase for progress reporting.
type Stage string

const (
	StageInit     Stage = "init"
	StageQueryGen Stage = "query_generation"
	StageSearch   Stage = "search"
	StageExtract  Stage = "extraction"
	StageAnalyze  Stage = "analysis"
	StageAssemble Stage = "assembly"
	StageRender   Stage = "rendering"
	StageComplete Stage = "complete"
)

// ProgressFunc receives stage transitions during a run. It may be nil.
type ProgressFunc func(stage Stage, message string)

// Completer is the language-model surface the pipeline needs. A
// *model.Chain satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
	Empty() bool
}

// Searcher runs one query against the aggregated backends.
type Searcher interface {
	Search(ctx context.Context, query string, resultBudget int) ([]types.SearchResult, error)
}

// Runner wires the stages together for repeated research runs.
type Runner struct {
	completer Completer
	searcher  Searcher
	fetcher   extract.Fetcher
	renderer  *render.Renderer
	cfg       types.PipelineConfig
	log       zerolog.Logger

	now func() time.Time
}

// NewRunner builds a Runner from pre-constructed stage dependencies.
func NewRunner(completer Completer, searcher Searcher, fetcher extract.Fetcher, cfg types.PipelineConfig, log zerolog.Logger) *Runner {
	return &Runner{
		completer: completer,
		searcher:  searcher,
		fetcher:   fetcher,
		renderer:  render.NewRenderer(cfg.Render, log),
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Research runs the full pipeline for one topic and returns the paths of the
// rendered report files. Stage-level degradation (model fallbacks, dead
// links, failed backends) is absorbed inside the stages; Research itself
// fails only when the run cannot produce a report at all.
func (r *Runner) Research(ctx context.Context, topic types.ResearchTopic, progress ProgressFunc) ([]string, error) {
	report := func(stage Stage, format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		r.log.Info().Str("stage", string(stage)).Msg(msg)
		if progress != nil {
			progress(stage, msg)
		}
	}

	started := r.now()
	manifest := &Manifest{
		Topic:     topic.Topic,
		Depth:     string(topic.Depth),
		StartedAt: started,
	}
	timer := newStageTimer(r.now)

	report(StageInit, "starting research on %q", topic.Topic)
	if strings.TrimSpace(topic.Topic) == "" {
		return nil, errors.New("research topic is empty")
	}
	if r.completer.Empty() {
		return nil, fmt.Errorf("cannot run research: %w", model.ErrNoProvider)
	}
	if !topic.Depth.Valid() {
		r.log.Warn().Str("depth", string(topic.Depth)).Msg("unknown depth, defaulting to basic")
		topic.Depth = types.DepthBasic
	}

	timeout := r.cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Query generation. Never fails, worst case is template queries.
	report(StageQueryGen, "generating queries at depth %s", topic.Depth)
	queries := planner.Generate(ctx, r.completer, topic.Topic, topic.Depth, r.cfg.Planner, r.log)
	manifest.Queries = queries
	manifest.Stages = append(manifest.Stages, timer.lap(StageQueryGen))

	// Search. Queries run in parallel, results merge into one ranked,
	// deduplicated list bounded by the depth budget.
	report(StageSearch, "searching %d queries", len(queries))
	results, err := r.searchAll(ctx, queries, topic.Depth.ResultBudget())
	if err != nil {
		return nil, err
	}
	if topic.MaxSources > 0 && len(results) > topic.MaxSources {
		results = results[:topic.MaxSources]
	}
	manifest.Stages = append(manifest.Stages, timer.lap(StageSearch))

	// Extraction. Placeholder entries survive, short pages are dropped.
	report(StageExtract, "extracting %d sources", len(results))
	urls := make([]string, len(results))
	for i, res := range results {
		urls[i] = res.URL
	}
	extracted := extract.ExtractAll(ctx, r.fetcher, urls, r.cfg.Fetch.Concurrency, r.log)

	var usable []types.ExtractedContent
	for _, content := range extracted {
		if content.Metadata.WordCount >= MinSourceWords {
			usable = append(usable, content)
		} else {
			r.log.Debug().Str("url", content.URL).Int("words", content.Metadata.WordCount).Msg("dropping thin source")
		}
	}
	if len(usable) == 0 {
		return nil, ErrNoUsableSources
	}
	citations := buildCitations(usable, r.now())
	for _, content := range usable {
		manifest.Sources = append(manifest.Sources, ManifestSource{
			URL: content.URL, Title: content.Title, WordCount: content.Metadata.WordCount,
		})
	}
	manifest.Stages = append(manifest.Stages, timer.lap(StageExtract))

	// Analysis. Degrades to a titles-only summary on model failure.
	report(StageAnalyze, "synthesizing %d sources", len(usable))
	analysis := analyze.Synthesize(ctx, r.completer, topic.Topic, usable, r.cfg.Synthesis, r.log)
	manifest.Stages = append(manifest.Stages, timer.lap(StageAnalyze))

	// Assembly. Errors only when both completion tiers fail outright.
	report(StageAssemble, "assembling report")
	researchReport, err := assemble.Assemble(ctx, r.completer, topic.Topic, analysis, citations, r.cfg.Assemble, r.log)
	if err != nil {
		return nil, fmt.Errorf("assembling report: %w", err)
	}
	researchReport.GeneratedAt = r.now()
	if topic.IncludeVisualization {
		researchReport.Visualizations = suggestVisualizations(researchReport)
	}
	manifest.Stages = append(manifest.Stages, timer.lap(StageAssemble))

	// Rendering.
	formats := topic.OutputFormats
	if len(formats) == 0 {
		formats = []types.OutputFormat{types.FormatMarkdown}
	}
	report(StageRender, "rendering %d formats", len(formats))
	paths, err := r.renderer.Render(researchReport, formats)
	if err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	manifest.Stages = append(manifest.Stages, timer.lap(StageRender))

	manifest.FinishedAt = r.now()
	manifest.Outputs = paths
	if path, err := WriteManifest(r.cfg.Render.OutputDir, manifest); err != nil {
		r.log.Warn().Err(err).Msg("run manifest not written")
	} else {
		r.log.Debug().Str("path", path).Msg("run manifest written")
	}

	report(StageComplete, "research complete, %d files written", len(paths))
	return paths, nil
}

// searchAll fans the queries out in parallel and merges the per-query hits
// into one list, deduplicated by normalized URL and ranked by relevance.
// It fails only when no query produced any result.
func (r *Runner) searchAll(ctx context.Context, queries []string, budget int) ([]types.SearchResult, error) {
	var (
		mu     sync.Mutex
		merged []types.SearchResult
		wg     sync.WaitGroup
	)
	for _, query := range queries {
		wg.Add(1)
		go func(query string) {
			defer wg.Done()
			hits, err := r.searcher.Search(ctx, query, budget)
			if err != nil {
				r.log.Warn().Err(err).Str("query", query).Msg("query produced no results")
				return
			}
			mu.Lock()
			merged = append(merged, hits...)
			mu.Unlock()
		}(query)
	}
	wg.Wait()

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RelevanceScore > merged[j].RelevanceScore
	})
	seen := make(map[string]bool, len(merged))
	deduped := merged[:0]
	for _, res := range merged {
		key := search.NormalizeURL(res.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, res)
	}
	if len(deduped) == 0 {
		return nil, errors.New("search produced no results for any query")
	}
	if len(deduped) > budget {
		deduped = deduped[:budget]
	}
	return deduped, nil
}

// buildCitations derives the citation list from the usable sources. IDs are
// assigned in slice order, which ExtractAll guarantees matches input order,
// so "cit-N" is stable before any model call sees the list.
func buildCitations(contents []types.ExtractedContent, accessed time.Time) []types.Citation {
	citations := make([]types.Citation, len(contents))
	for i, content := range contents {
		citations[i] = types.Citation{
			ID:          fmt.Sprintf("cit-%d", i+1),
			Title:       content.Title,
			URL:         content.URL,
			Author:      content.Metadata.Author,
			PublishDate: content.Metadata.PublishDate,
			AccessDate:  accessed,
		}
	}
	return citations
}

// suggestVisualizations attaches one figure placeholder per data-heavy
// section. A real charting integration would replace these.
func suggestVisualizations(report *types.ResearchReport) []types.Visualization {
	var viz []types.Visualization
	for _, sec := range report.Sections {
		switch sec.Title {
		case "Findings", "Discussion":
			viz = append(viz, types.Visualization{
				Title:       "Figure: " + sec.Title + " overview",
				Description: firstSentence(sec.Content),
			})
		}
	}
	return viz
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, ".!?"); idx > 0 && idx < len(text)-1 {
		return text[:idx+1]
	}
	if len(text) > 200 {
		return text[:200]
	}
	return text
}

type stageTimer struct {
	now  func() time.Time
	last time.Time
}

func newStageTimer(now func() time.Time) *stageTimer {
	return &stageTimer{now: now, last: now()}
}

func (t *stageTimer) lap(stage Stage) StageTiming {
	current := t.now()
	timing := StageTiming{Stage: string(stage), Duration: current.Sub(t.last)}
	t.last = current
	return timing
}
