// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/research-pilot/internal/planner"
)

// DocumentKind tags which parsing strategy produced a Document.
type DocumentKind int

const (
	// DocStructured means the model returned the nine-field JSON object.
	DocStructured DocumentKind = iota

	// DocHeadingParsed means free text was split on recognized headings.
	DocHeadingParsed

	// DocSingleBlob means no headings were recognized and the whole
	// response became one Overview section.
	DocSingleBlob
)

// ReportFields is the nine-field structured completion the primary
// assembly path requests.
type ReportFields struct {
	Title            string `json:"title"`
	Abstract         string `json:"abstract"`
	Introduction     string `json:"introduction"`
	LiteratureReview string `json:"literature_review"`
	Methodology      string `json:"methodology"`
	Findings         string `json:"findings"`
	Discussion       string `json:"discussion"`
	Conclusion       string `json:"conclusion"`
	Recommendations  string `json:"recommendations"`
}

// sectionFields returns the section bodies keyed by canonical section
// title, in canonical order.
func (f ReportFields) sectionFields() []struct{ Title, Content string } {
	return []struct{ Title, Content string }{
		{"Introduction", f.Introduction},
		{"Literature Review", f.LiteratureReview},
		{"Methodology", f.Methodology},
		{"Findings", f.Findings},
		{"Discussion", f.Discussion},
		{"Conclusion", f.Conclusion},
		{"Recommendations", f.Recommendations},
	}
}

// empty reports whether no section field carries content.
func (f ReportFields) empty() bool {
	for _, s := range f.sectionFields() {
		if strings.TrimSpace(s.Content) != "" {
			return false
		}
	}
	return true
}

// ParsedSection is one heading-delimited block of free text.
type ParsedSection struct {
	Title       string
	Content     string
	Subsections []ParsedSection
}

// Document is the tagged-variant outcome of parsing model output:
// structured fields, heading-parsed sections, or a single blob.
type Document struct {
	Kind     DocumentKind
	Fields   ReportFields
	Summary  string
	Sections []ParsedSection
}

// Heading patterns for the free-text fallback. A section starts at a
// Markdown H2 ("## 3. Findings") or a bare numbered-caps line ("3. FINDINGS");
// a subsection starts at an H3 or a lettered line ("a) Costs").
var (
	sectionHeadingRe    = regexp.MustCompile(`^##\s+(?:\d+\.?\s*)?(.+?)\s*$`)
	numberedCapsRe      = regexp.MustCompile(`^(?:\d+\.)\s+([A-Z][A-Z \-&]{2,})\s*$`)
	subsectionHeadingRe = regexp.MustCompile(`^###\s+(?:[\da-z][.)]\s*)?(.+?)\s*$`)
	letteredHeadingRe   = regexp.MustCompile(`^([a-z])[.)]\s+(\S.{0,60})\s*$`)
)

// ParseStructured parses model output as the nine-field JSON object,
// tolerating code fences and surrounding prose. It fails when no JSON
// object is found or every section field is empty.
func ParseStructured(text string) (ReportFields, error) {
	text = planner.StripCodeFence(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ReportFields{}, fmt.Errorf("no JSON object in model output")
	}

	var fields ReportFields
	if err := json.Unmarshal([]byte(text[start:end+1]), &fields); err != nil {
		return ReportFields{}, fmt.Errorf("parsing report fields: %w", err)
	}
	if fields.empty() {
		return ReportFields{}, fmt.Errorf("report fields all empty")
	}
	return fields, nil
}

// ParseHeadings splits free text into sections on recognized headings.
// Prose before the first heading becomes the summary; after a heading,
// lines append to the current section or subsection. It fails when no
// heading is ever recognized.
func ParseHeadings(text string) (summary string, sections []ParsedSection, err error) {
	var summaryLines []string
	var cur *ParsedSection
	var curSub *ParsedSection

	flushSub := func() {
		if curSub != nil {
			curSub.Content = strings.TrimSpace(curSub.Content)
			cur.Subsections = append(cur.Subsections, *curSub)
			curSub = nil
		}
	}
	flush := func() {
		if cur != nil {
			flushSub()
			cur.Content = strings.TrimSpace(cur.Content)
			sections = append(sections, *cur)
			cur = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if title, ok := matchSectionHeading(trimmed); ok {
			flush()
			cur = &ParsedSection{Title: title}
			continue
		}
		if cur != nil {
			if title, ok := matchSubsectionHeading(trimmed); ok {
				flushSub()
				curSub = &ParsedSection{Title: title}
				continue
			}
		}

		if trimmed == "" {
			continue
		}
		switch {
		case curSub != nil:
			curSub.Content += line + "\n"
		case cur != nil:
			cur.Content += line + "\n"
		default:
			summaryLines = append(summaryLines, trimmed)
		}
	}
	flush()

	if len(sections) == 0 {
		return "", nil, fmt.Errorf("no headings recognized")
	}
	return strings.Join(summaryLines, " "), sections, nil
}

func matchSectionHeading(line string) (string, bool) {
	if m := sectionHeadingRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := numberedCapsRe.FindStringSubmatch(line); m != nil {
		return titleCase(strings.TrimSpace(m[1])), true
	}
	return "", false
}

func matchSubsectionHeading(line string) (string, bool) {
	if m := subsectionHeadingRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := letteredHeadingRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[2]), true
	}
	return "", false
}

// titleCase converts an ALL-CAPS heading to title case.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ParseDocument runs the parsing strategies in order of fidelity:
// structured JSON, then heading-delimited text, then a single Overview
// blob. It always yields a Document for non-blank input.
func ParseDocument(text string) Document {
	if fields, err := ParseStructured(text); err == nil {
		return Document{Kind: DocStructured, Fields: fields}
	}
	if summary, sections, err := ParseHeadings(text); err == nil {
		return Document{Kind: DocHeadingParsed, Summary: summary, Sections: sections}
	}
	return Document{
		Kind: DocSingleBlob,
		Sections: []ParsedSection{
			{Title: "Overview", Content: strings.TrimSpace(text)},
		},
	}
}
