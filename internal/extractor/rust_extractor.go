package extractor

import (
	"strings"

	"rustdocs/internal/model"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// RustExtractor implements LanguageExtractor for Rust.
type RustExtractor struct{}

func (r *RustExtractor) GetLanguage() *sitter.Language {
	return rust.GetLanguage()
}

func (r *RustExtractor) GetQuery() string {
	return `
		(function_item) @fn
		(function_signature_item) @fn
		(struct_item) @struct
	`
}

func (r *RustExtractor) ExtractItem(captureName string, node *sitter.Node, sourceCode []byte, unit FileUnit) *model.Item {
	var kind model.Kind
	switch captureName {
	case "fn":
		kind = model.KindFunction
	case "struct":
		kind = model.KindStruct
	default:
		return nil
	}

	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(sourceCode)

	mods, owner, nested := r.scope(node, sourceCode)
	if nested {
		// items declared inside function bodies are not addressable
		return nil
	}

	modulePath := append(append([]string{}, unit.ModulePath...), mods...)
	segs := append([]string{"crate"}, modulePath...)
	if owner != "" {
		segs = append(segs, owner)
	}
	segs = append(segs, name)

	item := &model.Item{
		Kind:       kind,
		Name:       name,
		Crate:      unit.Crate,
		ModulePath: modulePath,
		FQPath:     strings.Join(segs, "::"),
		Visibility: visibility(node, sourceCode),
		File:       unit.Path,
		Span: model.Span{
			StartLine: int(node.StartPoint().Row + 1),
			EndLine:   int(node.EndPoint().Row + 1),
			StartByte: int(node.StartByte()),
			EndByte:   int(node.EndByte()),
		},
		Doc: extractDocComment(node, sourceCode),
	}

	body := node.ChildByFieldName("body")
	item.Signature = signature(node, body, sourceCode)
	if kind == model.KindFunction && body != nil {
		item.HasBody = true
		item.BodyText = body.Content(sourceCode)
		item.Calls = extractCalls(body, sourceCode)
		item.Paths = extractQualifiedPaths(body, sourceCode)
	}
	return item
}

// scope walks the ancestors of node and returns the inline modules and the
// impl or trait owner that qualify it. nested is true when node sits inside
// another function.
func (r *RustExtractor) scope(node *sitter.Node, sourceCode []byte) (mods []string, owner string, nested bool) {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "function_item", "closure_expression":
			return nil, "", true
		case "impl_item":
			if owner == "" {
				owner = implOwner(p, sourceCode)
			}
		case "trait_item":
			if owner == "" {
				if n := p.ChildByFieldName("name"); n != nil {
					owner = n.Content(sourceCode)
				}
			}
		case "mod_item":
			if n := p.ChildByFieldName("name"); n != nil {
				mods = append([]string{n.Content(sourceCode)}, mods...)
			}
		}
	}
	return mods, owner, false
}

// implOwner names the implementing type without generic arguments:
// impl<T> Display for Wrapper<T> -> Wrapper.
func implOwner(impl *sitter.Node, sourceCode []byte) string {
	t := impl.ChildByFieldName("type")
	for t != nil {
		switch t.Type() {
		case "generic_type":
			t = t.ChildByFieldName("type")
			continue
		case "reference_type", "pointer_type":
			t = t.ChildByFieldName("type")
			continue
		case "scoped_type_identifier":
			if n := t.ChildByFieldName("name"); n != nil {
				return n.Content(sourceCode)
			}
		}
		return t.Content(sourceCode)
	}
	return ""
}

func visibility(node *sitter.Node, sourceCode []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "visibility_modifier" {
			return child.Content(sourceCode)
		}
	}
	return "private"
}

// signature is the declaration text up to the body, whitespace-normalized.
func signature(node, body *sitter.Node, sourceCode []byte) string {
	end := node.EndByte()
	if body != nil && body.Type() != "ordered_field_declaration_list" {
		end = body.StartByte()
	}
	sig := string(sourceCode[node.StartByte():end])
	sig = strings.TrimSpace(sig)
	sig = strings.TrimSuffix(sig, ";")
	return canonicalize(sig)
}

// extractDocComment collects the contiguous /// lines directly above node,
// skipping attributes in between.
func extractDocComment(node *sitter.Node, sourceCode []byte) string {
	var lines []string
	nextRow := node.StartPoint().Row
	for s := node.PrevSibling(); s != nil; s = s.PrevSibling() {
		if s.StartPoint().Row+1 < nextRow {
			break
		}
		switch s.Type() {
		case "attribute_item":
			nextRow = s.StartPoint().Row
			continue
		case "line_comment":
			text := strings.TrimSpace(s.Content(sourceCode))
			if !strings.HasPrefix(text, "///") || strings.HasPrefix(text, "////") {
				return cleanDocComment(lines)
			}
			lines = append(lines, text)
			nextRow = s.StartPoint().Row
			continue
		}
		break
	}
	return cleanDocComment(lines)
}

// cleanDocComment takes the lines in bottom-up order and returns the text
// without markers.
func cleanDocComment(lines []string) string {
	out := make([]string, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		l := strings.TrimPrefix(lines[i], "///")
		l = strings.TrimPrefix(l, " ")
		out = append(out, strings.TrimRight(l, " \t\r"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func extractCalls(body *sitter.Node, sourceCode []byte) []model.CallSite {
	var calls []model.CallSite
	walk(body, func(n *sitter.Node) bool {
		if n.Type() == "call_expression" {
			if c, ok := callSite(n.ChildByFieldName("function"), sourceCode); ok {
				calls = append(calls, c)
			}
		}
		return true
	})
	return calls
}

func callSite(fn *sitter.Node, sourceCode []byte) (model.CallSite, bool) {
	if fn == nil {
		return model.CallSite{}, false
	}
	switch fn.Type() {
	case "identifier":
		return model.CallSite{Kind: "plain", Callee: fn.Content(sourceCode)}, true
	case "field_expression":
		value, field := fn.ChildByFieldName("value"), fn.ChildByFieldName("field")
		if value == nil || field == nil {
			return model.CallSite{}, false
		}
		return model.CallSite{Kind: "method", Qual: value.Content(sourceCode), Callee: field.Content(sourceCode)}, true
	case "scoped_identifier":
		path, name := fn.ChildByFieldName("path"), fn.ChildByFieldName("name")
		if name == nil {
			return model.CallSite{}, false
		}
		c := model.CallSite{Kind: "path", Callee: name.Content(sourceCode)}
		if path != nil {
			c.Qual = path.Content(sourceCode)
		}
		return c, true
	case "generic_function":
		return callSite(fn.ChildByFieldName("function"), sourceCode)
	}
	return model.CallSite{}, false
}

// extractQualifiedPaths returns the outermost a::b::c paths in first-seen order.
func extractQualifiedPaths(body *sitter.Node, sourceCode []byte) []string {
	var paths []string
	seen := map[string]bool{}
	walk(body, func(n *sitter.Node) bool {
		if n.Type() != "scoped_identifier" {
			return true
		}
		p := n.Content(sourceCode)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
		return false
	})
	return paths
}

// walk visits named nodes depth-first; visit returns false to skip children.
func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}
