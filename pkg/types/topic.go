// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-pilot pipeline.
// See docs/ARCHITECTURE § Pipeline Interface, § Data Structures.
package types

// Depth is the research thoroughness tier. It controls how many search
// queries the planner generates and how many sources the aggregator keeps.
type Depth string

const (
	DepthBasic         Depth = "basic"
	DepthIntermediate  Depth = "intermediate"
	DepthComprehensive Depth = "comprehensive"
)

// Valid reports whether d is a recognized depth tier.
func (d Depth) Valid() bool {
	switch d {
	case DepthBasic, DepthIntermediate, DepthComprehensive:
		return true
	}
	return false
}

// QueryCount returns the number of search queries to generate for this depth.
func (d Depth) QueryCount() int {
	switch d {
	case DepthIntermediate:
		return 5
	case DepthComprehensive:
		return 7
	default:
		return 3
	}
}

// ResultBudget returns the per-query result budget for this depth.
func (d Depth) ResultBudget() int {
	switch d {
	case DepthIntermediate:
		return 10
	case DepthComprehensive:
		return 15
	default:
		return 5
	}
}

// OutputFormat selects a report output format.
type OutputFormat string

const (
	FormatMarkdown   OutputFormat = "markdown"
	FormatPDF        OutputFormat = "pdf"
	FormatGoogleDocs OutputFormat = "googledocs"
)

// ResearchTopic describes one research request. It is created by the caller
// and immutable for the duration of a pipeline run.
type ResearchTopic struct {
	// Topic is the natural-language research subject.
	Topic string `json:"topic" yaml:"topic"`

	// Depth is the thoroughness tier: basic, intermediate, or comprehensive.
	Depth Depth `json:"depth" yaml:"depth"`

	// MaxSources caps the number of sources carried into the report.
	MaxSources int `json:"max_sources" yaml:"max_sources"`

	// IncludeVisualization requests chart placeholders in the report.
	IncludeVisualization bool `json:"include_visualization" yaml:"include_visualization"`

	// OutputFormats lists the formats to render: markdown, pdf, googledocs.
	OutputFormats []OutputFormat `json:"output_formats" yaml:"output_formats"`
}
