// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble turns an analysis and citation list into a structured
// research report, with a tolerant two-tier parser for model output.
// See docs/ARCHITECTURE § Report Assembly.
package assemble

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
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

// numericMarkerRe matches inline citation markers like [1] or [12].
var numericMarkerRe = regexp.MustCompile(`\[(\d+)\]`)

// structuredPromptTmpl requests the nine-field JSON document.
var structuredPromptTmpl = template.Must(template.New("structured").Parse(`You are an academic report writer. Using the analysis below, write a complete research report on "{{.Topic}}".

Respond with a single JSON object containing exactly these string fields:
- "title": a descriptive report title
- "abstract": 150-250 words summarizing the whole report
- "introduction": 2-3 paragraphs of background and scope
- "literature_review": 3-4 paragraphs surveying the sources
- "methodology": 1-2 paragraphs on how sources were gathered and assessed
- "findings": 3-5 paragraphs of the main results
- "discussion": 2-3 paragraphs interpreting the findings
- "conclusion": 1-2 paragraphs of closing synthesis
- "recommendations": 1-2 paragraphs of actionable next steps

Cite sources inline with bracketed numbers matching the list below (e.g. [2]). Do not include any text outside the JSON object.

Sources:
{{range .Citations}}[{{.Index}}] {{.Title}} - {{.URL}}
{{end}}
Analysis:
{{.Analysis}}
`))

// fallbackPromptTmpl requests heading-delimited free text instead of JSON.
var fallbackPromptTmpl = template.Must(template.New("fallback").Parse(`You are an academic report writer. Using the analysis below, write a complete research report on "{{.Topic}}".

Structure the report with Markdown headings, in this order:

## 1. Introduction
## 2. Literature Review
## 3. Methodology
## 4. Findings
## 5. Discussion
## 6. Conclusion
## 7. Recommendations

Start with one abstract paragraph before the first heading. Use "###" headings for subsections where useful. Cite sources inline with bracketed numbers matching the list below (e.g. [2]).

Sources:
{{range .Citations}}[{{.Index}}] {{.Title}} - {{.URL}}
{{end}}
Analysis:
{{.Analysis}}
`))

type promptCitation struct {
	Index int
	Title string
	URL   string
}

type promptData struct {
	Topic     string
	Analysis  string
	Citations []promptCitation
}

// Assemble builds a ResearchReport from the analysis and pinned citation
// list. The primary path requests structured JSON; on parse failure,
// timeout, or provider error it issues a heading-delimited free-text
// completion and degrades through heading parsing to a single Overview
// blob. It errors only when both completions fail outright.
func Assemble(ctx context.Context, c Completer, topic, analysis string, citations []types.Citation, cfg types.AssembleConfig, log zerolog.Logger) (*types.ResearchReport, error) {
	report := &types.ResearchReport{
		Topic:       topic,
		GeneratedAt: time.Now(),
		Citations:   citations,
	}

	data := promptData{Topic: topic, Analysis: analysis}
	for i, cit := range citations {
		data.Citations = append(data.Citations, promptCitation{Index: i + 1, Title: cit.Title, URL: cit.URL})
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	// Primary: structured JSON.
	text, err := complete(ctx, c, structuredPromptTmpl, data, timeout)
	if err == nil {
		if fields, perr := ParseStructured(text); perr == nil {
			fillFromFields(report, fields, analysis)
			return report, nil
		}
		log.Warn().Msg("structured report output unparseable, retrying with heading prompt")
	} else {
		log.Warn().Err(err).Msg("structured report completion failed, retrying with heading prompt")
	}

	// Fallback: heading-delimited free text, parsed tolerantly.
	fallbackText, ferr := complete(ctx, c, fallbackPromptTmpl, data, timeout)
	if ferr != nil {
		// Salvage the first response if there was one.
		if err == nil && strings.TrimSpace(text) != "" {
			fallbackText = text
		} else {
			return nil, fmt.Errorf("report generation failed: %w", ferr)
		}
	}
	if strings.TrimSpace(fallbackText) == "" {
		return nil, fmt.Errorf("report generation produced no content")
	}

	doc := ParseDocument(fallbackText)
	fillFromDocument(report, doc, analysis)
	return report, nil
}

func complete(ctx context.Context, c Completer, tmpl *template.Template, data promptData, timeout time.Duration) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Complete(cctx, buf.String(), 8192)
}

// fillFromFields populates the report from the structured nine fields.
func fillFromFields(report *types.ResearchReport, fields ReportFields, analysis string) {
	report.Title = strings.TrimSpace(fields.Title)
	if report.Title == "" {
		report.Title = defaultTitle(report.Topic)
	}
	report.Summary = strings.TrimSpace(fields.Abstract)
	if report.Summary == "" {
		report.Summary = fallbackAbstract(analysis)
	}

	for _, s := range fields.sectionFields() {
		content := strings.TrimSpace(s.Content)
		if content == "" {
			continue
		}
		report.Sections = append(report.Sections, types.ResearchSection{
			Title:     s.Title,
			Content:   content,
			Citations: HarvestMarkers(content),
		})
	}
}

// fillFromDocument populates the report from a heading-parsed or blob
// document.
func fillFromDocument(report *types.ResearchReport, doc Document, analysis string) {
	if doc.Kind == DocStructured {
		fillFromFields(report, doc.Fields, analysis)
		return
	}

	report.Title = defaultTitle(report.Topic)
	report.Summary = strings.TrimSpace(doc.Summary)
	if report.Summary == "" {
		report.Summary = fallbackAbstract(analysis)
	}

	for _, sec := range doc.Sections {
		section := types.ResearchSection{
			Title:     sec.Title,
			Content:   sec.Content,
			Citations: HarvestMarkers(sec.Content),
		}
		for _, sub := range sec.Subsections {
			section.Subsections = append(section.Subsections, types.ResearchSection{
				Title:     sub.Title,
				Content:   sub.Content,
				Citations: HarvestMarkers(sub.Content),
			})
		}
		report.Sections = append(report.Sections, section)
	}
}

// HarvestMarkers scans text for bracketed numeric markers [n] and returns
// the citation IDs they reference, in first-occurrence order. Out-of-range
// markers still yield their "cit-n" ID so the renderer can show them as
// unresolved rather than dropping them.
func HarvestMarkers(text string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range numericMarkerRe.FindAllStringSubmatch(text, -1) {
		id := "cit-" + m[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func defaultTitle(topic string) string {
	return fmt.Sprintf("Research Report: %s", topic)
}

// fallbackAbstract derives a summary from the analysis when the model did
// not supply one.
func fallbackAbstract(analysis string) string {
	analysis = strings.TrimSpace(analysis)
	if len(analysis) <= 500 {
		return analysis
	}
	cut := analysis[:500]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
