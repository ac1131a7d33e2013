// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze synthesizes filtered source content into a prose
// analysis of themes, evidence, and gaps.
// See docs/ARCHITECTURE § Analysis.
package analyze

import (
	"bytes"
	"context"
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

const (
	// maxSourcesInPrompt bounds how many contents are embedded in the prompt.
	maxSourcesInPrompt = 10

	// maxExcerptChars bounds the excerpt taken from each content.
	maxExcerptChars = 1500

	// minAnalysisChars is the sanity floor on model output; anything
	// shorter triggers the deterministic fallback.
	minAnalysisChars = 100
)

// synthesisPromptTmpl instructs the model to analyze the gathered sources
// in formal academic voice.
var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`You are a research analyst. Synthesize the source excerpts below into a thorough analysis of the topic "{{.Topic}}".

Your analysis must, in formal academic voice:
1. Identify the major themes across sources
2. Summarize the evidence supporting each theme
3. Note competing perspectives or contradictions between sources
4. Describe notable patterns or trends
5. Assess the overall quality and reliability of the sources
6. Identify gaps where the sources leave questions unanswered

Write flowing prose, not a bulleted list. Refer to sources by their bracketed number (e.g. [2]).

Sources:
{{range .Sources}}
[{{.Index}}] {{.Title}}
{{.Excerpt}}
{{end}}`))

type promptSource struct {
	Index   int
	Title   string
	Excerpt string
}

// Synthesize returns a prose analysis of the contents. On timeout, provider
// failure, or implausibly short output it returns a deterministic fallback
// built from the content titles; it never returns an error.
func Synthesize(ctx context.Context, c Completer, topic string, contents []types.ExtractedContent, cfg types.SynthesisConfig, log zerolog.Logger) string {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	mctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt, err := renderPrompt(topic, contents)
	if err != nil {
		log.Warn().Err(err).Msg("synthesis prompt failed, using fallback summary")
		return fallbackSummary(topic, contents)
	}

	analysis, err := c.Complete(mctx, prompt, 4096)
	if err != nil {
		log.Warn().Err(err).Msg("synthesis fell back to title summary")
		return fallbackSummary(topic, contents)
	}

	analysis = strings.TrimSpace(analysis)
	if len(analysis) < minAnalysisChars {
		log.Warn().Int("chars", len(analysis)).Msg("synthesis output too short, using fallback summary")
		return fallbackSummary(topic, contents)
	}
	return analysis
}

func renderPrompt(topic string, contents []types.ExtractedContent) (string, error) {
	var sources []promptSource
	for i, content := range contents {
		if i == maxSourcesInPrompt {
			break
		}
		excerpt := content.Content
		if len(excerpt) > maxExcerptChars {
			excerpt = excerpt[:maxExcerptChars] + "..."
		}
		sources = append(sources, promptSource{
			Index:   i + 1,
			Title:   content.Title,
			Excerpt: excerpt,
		})
	}

	var buf bytes.Buffer
	err := synthesisPromptTmpl.Execute(&buf, struct {
		Topic   string
		Sources []promptSource
	}{topic, sources})
	if err != nil {
		return "", fmt.Errorf("rendering synthesis prompt: %w", err)
	}
	return buf.String(), nil
}

// fallbackSummary builds a one-line deterministic summary from the
// content titles.
func fallbackSummary(topic string, contents []types.ExtractedContent) string {
	if len(contents) == 0 {
		return fmt.Sprintf("Research on %q found no usable sources.", topic)
	}
	titles := make([]string, 0, len(contents))
	for _, c := range contents {
		titles = append(titles, c.Title)
	}
	return fmt.Sprintf("Analysis of %d sources on %q: %s.", len(contents), topic, strings.Join(titles, "; "))
}
