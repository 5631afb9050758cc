package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// InitFile reports what Init did with one file.
type InitFile struct {
	Path    string
	Written bool
}

// Init writes the default config and templates under root. Existing files are
// kept unless force is set; dryRun only reports the planned paths.
func Init(root string, force, dryRun bool) ([]InitFile, error) {
	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(root, ConfigFileName), DefaultConfigYAML},
		{TemplatePath(root, FnTemplateName), DefaultFnTemplateYAML},
		{TemplatePath(root, StructTemplateName), DefaultStructTemplateYAML},
	}

	out := make([]InitFile, 0, len(files))
	for _, f := range files {
		if dryRun {
			out = append(out, InitFile{Path: f.path})
			continue
		}
		written, err := writeIfNeeded(f.path, f.content, force)
		if err != nil {
			return out, err
		}
		out = append(out, InitFile{Path: f.path, Written: written})
	}
	return out, nil
}

func writeIfNeeded(path, content string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
