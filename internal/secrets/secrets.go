// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: anthropic-api-key, openai-api-key, brave-api-key,
// serper-api-key, semantic-scholar-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Keys holds the named secrets the pipeline knows how to use.
type Keys struct {
	Anthropic       string
	OpenAI          string
	Brave           string
	Serper          string
	SemanticScholar string
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadKeys maps the known key files into a Keys struct. Absent files leave
// their field empty.
func LoadKeys(dir string) (Keys, error) {
	m, err := Load(dir)
	if err != nil {
		return Keys{}, err
	}
	return Keys{
		Anthropic:       m["anthropic-api-key"],
		OpenAI:          m["openai-api-key"],
		Brave:           m["brave-api-key"],
		Serper:          m["serper-api-key"],
		SemanticScholar: m["semantic-scholar-api-key"],
	}, nil
}
