package crawler

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"rustdocs/internal/extractor"
	"rustdocs/internal/model"
)

// Crawler scans targets for Rust source files.
type Crawler struct {
	extractor *extractor.Extractor
	ignored   []string
	logger    *slog.Logger
}

// NewCrawler creates a new crawler instance.
func NewCrawler(ext *extractor.Extractor, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		extractor: ext,
		ignored:   []string{".git", "target", "vendor", "node_modules"},
		logger:    logger,
	}
}

// ScanProject walks every target (file or directory) and streams the items
// of each .rs file to onItem. An empty target list means ".".
func (c *Crawler) ScanProject(ctx context.Context, targets []string, onItem func(*model.Item)) error {
	if len(targets) == 0 {
		targets = []string{"."}
	}
	for _, root := range targets {
		info, err := os.Stat(root)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			c.scanFile(ctx, root, onItem)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			// Skip ignored directories
			if d.IsDir() {
				for _, ign := range c.ignored {
					if d.Name() == ign && path != root {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if !strings.HasSuffix(d.Name(), ".rs") {
				return nil
			}
			c.scanFile(ctx, path, onItem)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Crawler) scanFile(ctx context.Context, path string, onItem func(*model.Item)) {
	items, err := c.extractor.ExtractFromFile(ctx, path)
	if err != nil {
		// Log and continue instead of failing the whole scan
		c.logger.Warn("skipping file", "file", path, "error", err)
		return
	}
	for _, item := range items {
		onItem(item)
	}
}
