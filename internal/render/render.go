// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render serializes an assembled report into Markdown and PDF
// files. See docs/ARCHITECTURE § Rendering.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-pilot/pkg/types"
)

// Renderer writes report files into the configured output directory.
type Renderer struct {
	cfg types.RenderConfig
	log zerolog.Logger
}

// NewRenderer builds a Renderer.
func NewRenderer(cfg types.RenderConfig, log zerolog.Logger) *Renderer {
	return &Renderer{cfg: cfg, log: log}
}

// Render writes the report in each requested format and returns the paths
// written. Unsupported formats are skipped with a warning. The output
// directory is created if absent.
func (r *Renderer) Render(report *types.ResearchReport, formats []types.OutputFormat) ([]string, error) {
	outDir := r.cfg.OutputDir
	if outDir == "" {
		outDir = filepath.Join("output", "reports")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	base := baseFilename(report)

	var paths []string
	for _, format := range formats {
		switch format {
		case types.FormatMarkdown:
			path := filepath.Join(outDir, base+".md")
			if err := os.WriteFile(path, Markdown(report), 0o644); err != nil {
				return nil, fmt.Errorf("writing markdown: %w", err)
			}
			paths = append(paths, path)

		case types.FormatPDF:
			data, err := PDF(report)
			if err != nil {
				return nil, fmt.Errorf("rendering PDF: %w", err)
			}
			path := filepath.Join(outDir, base+".pdf")
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return nil, fmt.Errorf("writing PDF: %w", err)
			}
			paths = append(paths, path)

		default:
			r.log.Warn().Str("format", string(format)).Msg("unsupported output format skipped")
		}
	}
	return paths, nil
}

// baseFilename is "{slug(topic)}_{ISO timestamp, colons stripped}".
func baseFilename(report *types.ResearchReport) string {
	ts := report.GeneratedAt.UTC().Format("2006-01-02T150405Z")
	return Slug(report.Topic) + "_" + ts
}

// Slug lowercases s and replaces runs of non-alphanumerics with hyphens.
func Slug(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// backRefs formats a section's citation back-references, resolving IDs to
// 1-based positions in the citation list and "?" for unresolved IDs.
func backRefs(report *types.ResearchReport, ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	refs := make([]string, 0, len(ids))
	for _, id := range ids {
		if idx := report.CitationIndex(id); idx > 0 {
			refs = append(refs, fmt.Sprintf("%d", idx))
		} else {
			refs = append(refs, "?")
		}
	}
	return "[References: " + strings.Join(refs, ", ") + "]"
}

// citationEntry formats one reference in the fixed author-year-title-URL-
// access-date pattern, omitting absent parts.
func citationEntry(c types.Citation) string {
	var b strings.Builder
	if c.Author != "" {
		b.WriteString(c.Author)
		if year := yearOf(c.PublishDate); year != "" {
			b.WriteString(" (" + year + ")")
		}
		b.WriteString(". ")
	} else if year := yearOf(c.PublishDate); year != "" {
		b.WriteString("(" + year + "). ")
	}
	b.WriteString(c.Title)
	b.WriteString(". ")
	b.WriteString(c.URL)
	b.WriteString(" (accessed " + c.AccessDate.Format("2006-01-02") + ")")
	return b.String()
}

// yearOf pulls a 4-digit year prefix out of a publish-date string.
func yearOf(date string) string {
	if len(date) >= 4 && allDigits(date[:4]) {
		return date[:4]
	}
	return ""
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
