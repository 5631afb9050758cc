package knowledge

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"rustdocs/internal/model"
)

const (
	maxBodyChars  = 8000
	maxBodyLines  = 400
	maxCallsShown = 50
	maxRefsShown  = 100
	truncatedNote = "\n// ...truncated..."
)

// TruncateForContext keeps the first maxLines lines and at most maxChars bytes,
// marking the cut.
func TruncateForContext(s string, maxChars, maxLines int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	out := strings.Join(lines, "\n")
	if len(out) > maxChars {
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut] + truncatedNote
	}
	return out
}

func writeIdentity(sb *strings.Builder, title string, item *model.Item) {
	fmt.Fprintf(sb, "\n## %s Identity\n", title)
	fmt.Fprintf(sb, "- **Fully-qualified path**: `%s`\n", item.FQPath)
	fmt.Fprintf(sb, "- **Signature**: `%s`\n", item.Signature)
	fmt.Fprintf(sb, "- **Visibility**: `%s`\n", item.Visibility)
}

func writeExistingDoc(sb *strings.Builder, item *model.Item, rewrite string) {
	sb.WriteString("\n## Existing Documentation\n")
	if !item.HadDoc() {
		sb.WriteString("_No existing rustdoc found._\n")
		return
	}
	sb.WriteString(rewrite + "\n")
	fmt.Fprintf(sb, "```rust\n%s\n```\n", strings.TrimSpace(item.Doc))
}

// BuildFunctionQuestion renders the markdown question for one function.
func BuildFunctionQuestion(item *model.Item, referencedSymbols []string, calls []model.CallSite) string {
	var sb strings.Builder
	sb.WriteString("# Rust Function Documentation Task\n")
	sb.WriteString("You are given context about a single Rust function.\n")

	writeIdentity(&sb, "Function", item)
	writeExistingDoc(&sb, item, "The function already has Rustdoc. Improve and rewrite it if necessary:")

	sb.WriteString("\n## Referenced Symbols (body-level)\n")
	if len(referencedSymbols) == 0 {
		sb.WriteString("_No symbol references detected._\n")
	}
	for _, sym := range referencedSymbols {
		fmt.Fprintf(&sb, "- `%s`\n", sym)
	}

	if len(calls) > 0 {
		sb.WriteString("\n## Function Calls Inside This Function\n")
		for i, c := range calls {
			if i == maxCallsShown {
				break
			}
			if c.Qual != "" {
				fmt.Fprintf(&sb, "- **%s** call -> `%s` on `%s`\n", c.Kind, c.Callee, c.Qual)
			} else {
				fmt.Fprintf(&sb, "- **%s** call -> `%s`\n", c.Kind, c.Callee)
			}
		}
	}

	if item.HasBody && item.BodyText != "" {
		sb.WriteString("\n## Function Body (Truncated)\n")
		fmt.Fprintf(&sb, "```rust\n%s\n```\n", TruncateForContext(item.BodyText, maxBodyChars, maxBodyLines))
	}

	sb.WriteString("\n---\n## Output Requirements\n")
	sb.WriteString("Return **ONLY** a Rustdoc block composed of lines starting with `///`.\n")
	sb.WriteString("- No JSON, no backticks, no XML, no surrounding prose.\n")
	sb.WriteString("- Include a clear 1-2 sentence summary.\n")
	sb.WriteString("- If relevant, add sections titled exactly: `Parameters:`, `Returns:`, `Errors:`, `Notes:`, `Examples:`.\n")
	sb.WriteString("- Only include a `Safety:` section if the function is unsafe.\n")
	sb.WriteString("- Use concise bullet points; examples should be doc-test friendly.\n")
	sb.WriteString("- Every line MUST start with `///` (or be a blank `///`).\n")
	return sb.String()
}

// BuildStructQuestion renders the question for a struct and its fields. The
// answer is expected as model.StructDocResponse JSON.
func BuildStructQuestion(item *model.Item, bodyText string, referencingFns []string) string {
	var sb strings.Builder
	sb.WriteString("# Rust Struct Documentation Task\n")
	sb.WriteString("You are given the source of a single Rust struct and a list of functions that reference it.\n")

	writeIdentity(&sb, "Struct", item)
	writeExistingDoc(&sb, item, "The struct already has Rustdoc. If needed, rewrite it to be concise:")

	sb.WriteString("\n## Struct Body (verbatim)\n")
	fmt.Fprintf(&sb, "```rust\n%s\n```\n", bodyText)

	sb.WriteString("\n## Referencing Functions (FQ paths)\n")
	if len(referencingFns) == 0 {
		sb.WriteString("_No referencing functions detected in the crate._\n")
	}
	for i, f := range referencingFns {
		if i == maxRefsShown {
			break
		}
		fmt.Fprintf(&sb, "- `%s`\n", f)
	}

	sb.WriteString("\n---\n## Output Requirements\n")
	sb.WriteString("Respond in **structured JSON** (no prose) with this shape:\n")
	sb.WriteString(`{
  "struct_doc": "/// short summary...\n/// ...",
  "fields": [
    { "name": "field_name", "doc": "/// one-line or short doc...\n/// ..." }
  ]
}
`)
	sb.WriteString("- `struct_doc`: A short 1-2 sentence rustdoc for the struct (above attributes).\n")
	sb.WriteString("- `fields`: One entry **per named field** appearing in the struct body; the `doc` value must be a ready-to-insert `///` block for that field (keep it short, include units/invariants if relevant).\n")
	return sb.String()
}
