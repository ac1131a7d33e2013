// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"
)

// Manifest records what one research run did: the queries issued, the
// sources that made it into the report, per-stage timings, and the files
// written. One manifest is saved per run next to the rendered reports.
type Manifest struct {
	RunID      string           `yaml:"run_id"`
	Topic      string           `yaml:"topic"`
	Depth      string           `yaml:"depth"`
	StartedAt  time.Time        `yaml:"started_at"`
	FinishedAt time.Time        `yaml:"finished_at"`
	Queries    []string         `yaml:"queries"`
	Sources    []ManifestSource `yaml:"sources"`
	Stages     []StageTiming    `yaml:"stages"`
	Outputs    []string         `yaml:"outputs"`
}

// ManifestSource is one source that survived extraction.
type ManifestSource struct {
	URL       string `yaml:"url"`
	Title     string `yaml:"title"`
	WordCount int    `yaml:"word_count"`
}

// StageTiming is the wall-clock duration of one pipeline stage.
type StageTiming struct {
	Stage    string        `yaml:"stage"`
	Duration time.Duration `yaml:"duration"`
}

// WriteManifest assigns the manifest a run ID if it has none and writes it
// as YAML under dir, returning the path written.
func WriteManifest(dir string, m *Manifest) (string, error) {
	if m.RunID == "" {
		m.RunID = uuid.NewString()
	}
	if dir == "" {
		dir = filepath.Join("output", "reports")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating manifest directory: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}
	path := filepath.Join(dir, "run_"+m.RunID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads a previously written run manifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	return &m, nil
}
