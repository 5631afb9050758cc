package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"rustdocs/internal/model"

	sitter "github.com/smacker/go-tree-sitter"
)

// Extractor orchestrates the extraction process using language-specific extractors.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string

	mu     sync.Mutex
	crates map[string]Crate // by directory
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "rust":
		langExt = &RustExtractor{}
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{langExtractor: langExt, langName: lang, crates: map[string]Crate{}}, nil
}

// ExtractFromFile parses a single source file and extracts all documentable items,
// ordered by position.
func (e *Extractor) ExtractFromFile(ctx context.Context, path string) ([]*model.Item, error) {
	sourceCode, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	crate, err := e.crateFor(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, FileUnit{
		Path:       path,
		Crate:      crate.Name,
		ModulePath: ModulePathFor(crate.Root, path),
	}, sourceCode)
}

// Extract runs the item query over already loaded source.
func (e *Extractor) Extract(ctx context.Context, unit FileUnit, sourceCode []byte) ([]*model.Item, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.langExtractor.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", unit.Path, err)
	}
	defer tree.Close()

	query, err := sitter.NewQuery([]byte(e.langExtractor.GetQuery()), e.langExtractor.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var items []*model.Item
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			captureName := query.CaptureNameForId(c.Index)
			if item := e.langExtractor.ExtractItem(captureName, c.Node, sourceCode, unit); item != nil {
				items = append(items, item)
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Span.StartByte < items[j].Span.StartByte
	})
	return items, nil
}

func (e *Extractor) crateFor(dir string) (Crate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.crates[dir]; ok {
		return c, nil
	}
	c, _, err := FindCrate(dir)
	if err != nil {
		return Crate{}, err
	}
	e.crates[dir] = c
	return c, nil
}
