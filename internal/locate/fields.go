package locate

import "strings"

// FieldSpec describes one named field found inside a struct body.
type FieldSpec struct {
	Name          string
	FieldLine0    int    // line of the field declaration itself
	InsertLine0   int    // top of the field's attribute block, or FieldLine0
	ParentFQPath  string
	FieldLineText string
}

// FindStructBody returns the line range [open, close] of the brace-delimited
// body starting at or after sigLine0. Unit and tuple structs have no body.
func FindStructBody(lines []string, sigLine0 int) (int, int, bool) {
	open := -1
	depth := 0
	for i := sigLine0; i >= 0 && i < len(lines); i++ {
		line := lines[i]
		if open < 0 {
			idx := strings.IndexByte(line, '{')
			if idx < 0 {
				if strings.Contains(line, ";") {
					return 0, 0, false
				}
				continue
			}
			open = i
			line = line[idx:]
		}
		for _, ch := range line {
			switch ch {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		if depth == 0 {
			return open, i, true
		}
	}
	return 0, 0, false
}

// StructFields lists the named fields between the braces of a struct body.
func StructFields(lines []string, bodyLo, bodyHi int, parentFQ string) []FieldSpec {
	var out []FieldSpec
	i := bodyLo + 1
	for i < len(lines) && i < bodyHi {
		j := i
		attrTop := j
		for j < bodyHi && j < len(lines) && AttrRe.MatchString(lines[j]) {
			j++
		}
		if j < bodyHi && j < len(lines) && FieldRe.MatchString(lines[j]) {
			m := fieldNameRe.FindStringSubmatch(lines[j])
			if len(m) > 1 && m[1] != "" {
				out = append(out, FieldSpec{
					Name:          m[1],
					FieldLine0:    j,
					InsertLine0:   attrTop,
					ParentFQPath:  parentFQ,
					FieldLineText: lines[j],
				})
			}
			i = j + 1
			continue
		}
		i++
	}
	return out
}

// ExtractLines joins lines[lo..hi] (inclusive), clipped to the slice.
func ExtractLines(lines []string, lo, hi int) string {
	if lo < 0 {
		lo = 0
	}
	if hi >= len(lines) {
		hi = len(lines) - 1
	}
	if lo > hi {
		return ""
	}
	return strings.Join(lines[lo:hi+1], "\n")
}
