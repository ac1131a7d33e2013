// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CanonicalSections lists the numbered report sections in render order.
// The abstract is carried in ResearchReport.Summary and is not numbered.
var CanonicalSections = []string{
	"Introduction",
	"Literature Review",
	"Methodology",
	"Findings",
	"Discussion",
	"Conclusion",
	"Recommendations",
}

// ResearchSection is one report section. Sections nest one level in
// practice: a numbered section may carry lettered subsections.
type ResearchSection struct {
	// Title is the section heading.
	Title string `json:"title" yaml:"title"`

	// Content is the section prose. It may contain bracketed citation
	// markers like [2] referring to the report's citation list.
	Content string `json:"content" yaml:"content"`

	// Citations lists the IDs of citations referenced by this section.
	Citations []string `json:"citations,omitempty" yaml:"citations,omitempty"`

	// Subsections nest finer headings under this section.
	Subsections []ResearchSection `json:"subsections,omitempty" yaml:"subsections,omitempty"`
}

// Visualization is a placeholder for a chart or figure requested via
// ResearchTopic.IncludeVisualization.
type Visualization struct {
	// Title describes the figure.
	Title string `json:"title" yaml:"title"`

	// Description is the prose the figure would illustrate.
	Description string `json:"description" yaml:"description"`
}

// ResearchReport is the assembled document handed to the renderer.
// Every citation ID referenced by a section should exist in Citations;
// unresolved references render as "?" rather than failing the run.
type ResearchReport struct {
	// Topic is the research subject the report covers.
	Topic string `json:"topic" yaml:"topic"`

	// Title is the report title produced by the assembler.
	Title string `json:"title" yaml:"title"`

	// GeneratedAt is the report creation timestamp.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// Summary is the abstract text.
	Summary string `json:"summary" yaml:"summary"`

	// Sections holds the numbered sections in order.
	Sections []ResearchSection `json:"sections" yaml:"sections"`

	// Citations lists the report's sources in extraction order.
	Citations []Citation `json:"citations" yaml:"citations"`

	// Visualizations holds optional figure placeholders.
	Visualizations []Visualization `json:"visualizations,omitempty" yaml:"visualizations,omitempty"`
}

// CitationIndex returns the 1-based position of the citation with the
// given ID, or 0 if the ID is not present.
func (r *ResearchReport) CitationIndex(id string) int {
	for i, c := range r.Citations {
		if c.ID == id {
			return i + 1
		}
	}
	return 0
}
