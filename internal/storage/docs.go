package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"rustdocs/internal/model"
)

// DocsFileName is the results file written next to the cache.
const DocsFileName = "docs.json"

// WriteResults writes results as indented JSON, creating the parent directory.
func WriteResults(path string, results []model.DocResult) error {
	if results == nil {
		results = []model.DocResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadResults loads a docs.json produced by WriteResults or by an earlier run.
func ReadResults(path string) ([]model.DocResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var results []model.DocResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return results, nil
}
