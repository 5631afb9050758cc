package patch

import (
	"sort"
	"strings"
)

// Edit replaces the bytes [Start, End) of the original text with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// ApplyEdits applies edits from the highest start offset down so the offsets
// of edits not yet applied stay valid. Edits with Start > End or an End past
// the current text are dropped.
func ApplyEdits(text string, edits []Edit) string {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	for _, e := range sorted {
		if e.Start < 0 || e.Start > e.End || e.End > len(text) {
			continue
		}
		text = text[:e.Start] + e.Text + text[e.End:]
	}
	return text
}

// LineStarts returns the byte offset of every line start plus a final
// sentinel equal to len(text), so it always holds len(lines)+1 entries.
func LineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && i+1 < len(text) {
			starts = append(starts, i+1)
		}
	}
	if text == "" {
		return starts
	}
	return append(starts, len(text))
}

func leadingWhitespace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

// IndentLike re-indents doc to the leading whitespace of targetLine. Marked
// lines keep their content, blank lines become a bare marker and anything else
// gets the marker prepended. The result ends with exactly one newline.
func IndentLike(targetLine, doc string) string {
	indent := leadingWhitespace(targetLine)
	doc = strings.ReplaceAll(doc, "\r", "")
	doc = strings.TrimSuffix(doc, "\n")

	var sb strings.Builder
	for i, line := range strings.Split(doc, "\n") {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(indent)
		switch {
		case strings.HasPrefix(line, "///"):
			sb.WriteString(line)
		case strings.TrimSpace(line) == "":
			sb.WriteString("///")
		default:
			sb.WriteString("/// ")
			sb.WriteString(line)
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}

// NeedsLeadingBlank reports whether the line above insertLine0 has content.
func NeedsLeadingBlank(lines []string, insertLine0 int) bool {
	if insertLine0 <= 0 || insertLine0-1 >= len(lines) {
		return false
	}
	return !isBlank(lines[insertLine0-1])
}

// AddLeadingBlankIfNeeded prefixes doc with a newline when NeedsLeadingBlank.
func AddLeadingBlankIfNeeded(lines []string, insertLine0 int, doc string) string {
	if NeedsLeadingBlank(lines, insertLine0) {
		return "\n" + doc
	}
	return doc
}
