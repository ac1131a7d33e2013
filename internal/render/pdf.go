// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/pdiddy/research-pilot/pkg/types"
)

var (
	mdLinkRe     = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
	mdBoldRe     = regexp.MustCompile(`\*\*([^*]+)\*\*|__([^_]+)__`)
	mdItalicRe   = regexp.MustCompile(`\*([^*]+)\*|_([^_]+)_`)
	mdHeadingRe  = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	mdRuleRe     = regexp.MustCompile(`(?m)^(-{3,}|\*{3,}|_{3,})\s*$`)
	mdBulletRe   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	mdCodeFence  = regexp.MustCompile("(?s)```[a-zA-Z]*\n?(.*?)```")
	mdInlineCode = regexp.MustCompile("`([^`]*)`")
)

// StripMarkdown flattens Markdown-ish model output into plain text suitable
// for PDF body cells. Citation brackets like [3] survive because they never
// match the link pattern.
func StripMarkdown(s string) string {
	s = mdCodeFence.ReplaceAllString(s, "$1")
	s = mdInlineCode.ReplaceAllString(s, "$1")
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = mdHeadingRe.ReplaceAllString(s, "")
	s = mdRuleRe.ReplaceAllString(s, "")
	s = mdBoldRe.ReplaceAllString(s, "$1$2")
	s = mdItalicRe.ReplaceAllString(s, "$1$2")
	s = mdBulletRe.ReplaceAllString(s, "• ")
	return strings.TrimSpace(s)
}

// PDF renders the report as a PDF document.
func PDF(report *types.ResearchReport) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(report.Title, true)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.MultiCell(0, 9, report.Title, "", "C", false)
	doc.Ln(4)

	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, 5, "Topic: "+report.Topic, "", "L", false)
	doc.MultiCell(0, 5, "Generated: "+report.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"), "", "L", false)
	doc.MultiCell(0, 5, fmt.Sprintf("Number of Sources: %d", len(report.Citations)), "", "L", false)
	doc.Ln(4)

	writeHeading(doc, "Abstract")
	writeBody(doc, report.Summary)

	for i, sec := range report.Sections {
		writeHeading(doc, fmt.Sprintf("%d. %s", i+1, sec.Title))
		writePDFSection(doc, report, sec)
		for j, sub := range sec.Subsections {
			doc.SetFont("Helvetica", "B", 12)
			doc.MultiCell(0, 6, fmt.Sprintf("%d.%c. %s", i+1, 'a'+j, sub.Title), "", "L", false)
			doc.Ln(1)
			writePDFSection(doc, report, sub)
		}
	}

	writeHeading(doc, "References")
	doc.SetFont("Helvetica", "", 10)
	for i, c := range report.Citations {
		doc.MultiCell(0, 5, fmt.Sprintf("%d. %s", i+1, citationEntry(c)), "", "L", false)
		doc.Ln(1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeHeading(doc *fpdf.Fpdf, title string) {
	doc.SetFont("Helvetica", "B", 14)
	doc.MultiCell(0, 7, title, "", "L", false)
	doc.Ln(2)
}

func writeBody(doc *fpdf.Fpdf, text string) {
	doc.SetFont("Helvetica", "", 11)
	doc.MultiCell(0, 5.5, StripMarkdown(text), "", "L", false)
	doc.Ln(3)
}

func writePDFSection(doc *fpdf.Fpdf, report *types.ResearchReport, sec types.ResearchSection) {
	writeBody(doc, sec.Content)
	if refs := backRefs(report, sec.Citations); refs != "" {
		doc.SetFont("Helvetica", "I", 9)
		doc.MultiCell(0, 5, refs, "", "L", false)
		doc.Ln(3)
	}
}
