package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-pilot/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call a language model.
type AIConfig struct {
	// Model is the model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts per provider (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// PlannerConfig holds settings for the query-planning stage.
type PlannerConfig struct {
	AIConfig `yaml:",inline"`

	// Timeout is the soft budget for the query-generation call (default 15s).
	// On trip the planner falls back to deterministic templates.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// SearchConfig holds settings for the search-aggregation stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of results kept per query (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// BraveAPIKey enables the Brave web backend.
	BraveAPIKey string `json:"brave_api_key,omitempty" yaml:"brave_api_key,omitempty"`

	// SerperAPIKey enables the Serper web backend (takes priority over Brave).
	SerperAPIKey string `json:"serper_api_key,omitempty" yaml:"serper_api_key,omitempty"`

	// SemanticScholarAPIKey is an optional key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// EnableArxiv adds the arXiv backend to the academic set.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`
}

// FetchConfig holds settings for page fetching during extraction.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxRedirects bounds redirect following (default 5).
	MaxRedirects int `json:"max_redirects" yaml:"max_redirects"`

	// CacheDir, when set, enables the SQLite page cache under this directory.
	CacheDir string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`

	// Concurrency is the number of simultaneous in-flight extractions (default 10).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// SynthesisConfig holds settings for the analysis stage.
type SynthesisConfig struct {
	AIConfig `yaml:",inline"`

	// Timeout is the soft budget for the synthesis call (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// AssembleConfig holds settings for the report-assembly stage.
type AssembleConfig struct {
	AIConfig `yaml:",inline"`

	// Timeout is the soft budget per assembly completion (default 45s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// RenderConfig holds settings for the rendering stage.
type RenderConfig struct {
	// OutputDir is the directory for rendered reports (default "output/reports").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// PipelineConfig groups all stage configurations for one pipeline run.
type PipelineConfig struct {
	Planner   PlannerConfig   `json:"planner" yaml:"planner"`
	Search    SearchConfig    `json:"search" yaml:"search"`
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	Synthesis SynthesisConfig `json:"synthesis" yaml:"synthesis"`
	Assemble  AssembleConfig  `json:"assemble" yaml:"assemble"`
	Render    RenderConfig    `json:"render" yaml:"render"`

	// Timeout is the hard overall budget for a run (default 180s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}
