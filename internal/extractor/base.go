package extractor

import (
	"rustdocs/internal/model"

	sitter "github.com/smacker/go-tree-sitter"
)

// FileUnit carries the per-file context every extracted item inherits.
type FileUnit struct {
	Path       string
	Crate      string
	ModulePath []string // modules implied by the file location, e.g. src/a/b.rs -> [a b]
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	ExtractItem(captureName string, node *sitter.Node, sourceCode []byte, unit FileUnit) *model.Item
}
