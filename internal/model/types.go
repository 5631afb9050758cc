package model

import "strings"

// Kind identifies what a documentation item is attached to.
type Kind string

const (
	KindFunction Kind = "fn"
	KindStruct   Kind = "struct"
	KindField    Kind = "field"
)

// ParseKind maps a harvested kind string to a Kind. Anything that is not a
// struct or a field is treated as function-like.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "struct":
		return KindStruct
	case "field":
		return KindField
	default:
		return KindFunction
	}
}

// DocResult is one generated documentation block waiting to be patched into a file.
type DocResult struct {
	Kind              Kind     `json:"kind"`
	FQPath            string   `json:"fqpath"`
	File              string   `json:"file"`
	StartLine         *int     `json:"start_line"`          // 1-based hint, nil means "skip"
	EndLine           *int     `json:"end_line"`            // informational
	Signature         string   `json:"signature"`           // informational, never used for matching
	Callers           []string `json:"callers"`             // fq paths of known callers
	ReferencedSymbols []string `json:"referenced_symbols"`  // symbols mentioned in the body
	Doc               string   `json:"llm_doc"`             // sanitized block, every line starts with ///
	HadExistingDoc    bool     `json:"had_existing_doc"`    // item already carried docs when harvested
}

// Line returns the start line hint, or 0 when absent.
func (r DocResult) Line() int {
	if r.StartLine == nil {
		return 0
	}
	return *r.StartLine
}

// Span is the position of a harvested item inside its file.
type Span struct {
	StartLine int `json:"start_line"` // 1-based
	EndLine   int `json:"end_line"`   // 1-based, inclusive
	StartByte int `json:"start_byte"`
	EndByte   int `json:"end_byte"`
}

// CallSite is a call expression found inside a function body.
type CallSite struct {
	Kind   string `json:"kind"`           // "plain", "method" or "path"
	Qual   string `json:"qual,omitempty"` // receiver or path qualifier
	Callee string `json:"callee"`
}

// Item is a single harvested Rust declaration.
type Item struct {
	Kind       Kind       `json:"kind"`
	Name       string     `json:"name"`
	Crate      string     `json:"crate,omitempty"`
	ModulePath []string   `json:"module_path,omitempty"`
	FQPath     string     `json:"fqpath"`
	Visibility string     `json:"visibility"`
	File       string     `json:"file"`
	Span       Span       `json:"span"`
	Signature  string     `json:"signature"`
	HasBody    bool       `json:"has_body"`
	Doc        string     `json:"doc,omitempty"`
	BodyText   string     `json:"body_text,omitempty"`
	Calls      []CallSite `json:"calls,omitempty"`
	Paths      []string   `json:"qualified_paths,omitempty"`
	Callers    []string   `json:"callers,omitempty"`
}

// HadDoc reports whether the item already carries non-blank documentation.
func (it *Item) HadDoc() bool {
	return strings.TrimSpace(it.Doc) != ""
}

// FieldDoc is the generated doc for one struct field.
type FieldDoc struct {
	Name string `json:"name"`
	Doc  string `json:"doc"`
}

// StructDocResponse is the structured answer expected for a struct prompt.
type StructDocResponse struct {
	StructDoc string     `json:"struct_doc"`
	Fields    []FieldDoc `json:"fields"`
}

// IntPtr is a small helper for optional line numbers.
func IntPtr(v int) *int {
	return &v
}
