package patch

import (
	"fmt"
	"strings"

	"rustdocs/internal/model"
)

// Slot is where a doc block goes: the line range [Lo, Hi) of the original
// file that the block replaces. Lo == Hi is a zero-width insert before Lo.
type Slot struct {
	Lo int
	Hi int
}

// Before is a zero-width slot at line l.
func Before(l int) Slot { return Slot{Lo: l, Hi: l} }

// Replace is a slot covering lines [lo, hi).
func Replace(lo, hi int) Slot { return Slot{Lo: lo, Hi: hi} }

// IsInsert reports whether the slot replaces nothing.
func (s Slot) IsInsert() bool { return s.Lo == s.Hi }

// touches reports whether two slots share any line, boundaries included, so
// applying both would stack or overlap doc blocks.
func (s Slot) touches(o Slot) bool {
	return s.Lo <= o.Hi && o.Lo <= s.Hi
}

func (s Slot) String() string {
	if s.IsInsert() {
		return fmt.Sprintf("Before(%d)", s.Lo)
	}
	return fmt.Sprintf("Replace(%d, %d)", s.Lo, s.Hi)
}

// IsCommentLine reports whether line is part of a doc block: a `///` line or
// a doc attribute.
func IsCommentLine(line string) bool {
	t := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(t, "///") ||
		strings.HasPrefix(t, "#[doc") ||
		strings.HasPrefix(t, "#![doc")
}

func isDocMarkerLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "///")
}

// isAttrLine excludes doc attributes, which belong to the comment block, and
// lines where the item itself follows the attribute.
func isAttrLine(line string) bool {
	t := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(t, "#[") && !strings.HasPrefix(t, "#![") {
		return false
	}
	return !IsCommentLine(t) && !hasCodeAfterAttrs(t)
}

// hasCodeAfterAttrs reports whether something other than attributes or a
// line comment follows the attributes at the start of t. An attribute still
// open at the end of the line continues on the next one.
func hasCodeAfterAttrs(t string) bool {
	for strings.HasPrefix(t, "#[") || strings.HasPrefix(t, "#![") {
		depth := 0
		end := -1
		for i, ch := range t {
			if ch == '[' {
				depth++
			} else if ch == ']' {
				depth--
				if depth == 0 {
					end = i
					break
				}
			}
		}
		if end < 0 {
			return false
		}
		t = strings.TrimLeft(t[end+1:], " \t")
	}
	return t != "" && !strings.HasPrefix(t, "//")
}

func isBlank(line string) bool { return strings.TrimSpace(line) == "" }

// commentTop returns the first line of the contiguous comment run ending at
// line end-1, or end when that line is not a comment.
func commentTop(lines []string, end int, isComment func(string) bool) int {
	lo := end
	for lo > 0 && lo-1 < len(lines) && isComment(lines[lo-1]) {
		lo--
	}
	return lo
}

// Resolve computes the slot for a doc block anchored at anchor0. It returns
// false when an existing doc block is present and overwrite is off.
func Resolve(lines []string, anchor0 int, kind model.Kind, overwrite bool) (Slot, bool) {
	switch kind {
	case model.KindStruct:
		return resolveStruct(lines, anchor0, overwrite)
	case model.KindField:
		return resolveField(lines, anchor0, overwrite)
	default:
		return resolveFunction(lines, anchor0, overwrite)
	}
}

func resolveFunction(lines []string, sig int, overwrite bool) (Slot, bool) {
	lo := commentTop(lines, sig, IsCommentLine)

	attrFirst := sig
	for attrFirst > 0 && attrFirst-1 < len(lines) && isAttrLine(lines[attrFirst-1]) {
		attrFirst--
	}

	var hi int
	if attrFirst < sig {
		hi = attrFirst
		lo = commentTop(lines, attrFirst, IsCommentLine)
	} else {
		hi = sig
		if lo == sig && sig > 0 && sig-1 < len(lines) && isBlank(lines[sig-1]) {
			lo = sig - 1
		}
	}

	if !overwrite {
		for k := lo; k < hi && k < len(lines); k++ {
			if IsCommentLine(lines[k]) {
				return Slot{}, false
			}
		}
	}
	return Slot{Lo: lo, Hi: hi}, true
}

func resolveStruct(lines []string, sig int, overwrite bool) (Slot, bool) {
	anchor := sig
	sawAttr := false
	for i := sig - 1; i >= 0 && i < len(lines); i-- {
		if isAttrLine(lines[i]) {
			sawAttr = true
			anchor = i
			continue
		}
		// a single blank between attribute groups
		if sawAttr && isBlank(lines[i]) && i == anchor-1 && i > 0 && isAttrLine(lines[i-1]) {
			continue
		}
		break
	}

	docLo := commentTop(lines, anchor, isDocMarkerLine)
	if docLo < anchor {
		if !overwrite {
			return Slot{}, false
		}
		return Replace(docLo, anchor), true
	}
	return Before(anchor), true
}

func resolveField(lines []string, field int, overwrite bool) (Slot, bool) {
	if field == 0 {
		return Before(0), true
	}
	if field-1 < len(lines) && isDocMarkerLine(lines[field-1]) {
		if !overwrite {
			return Slot{}, false
		}
		return Replace(commentTop(lines, field, isDocMarkerLine), field), true
	}
	return Before(field), true
}
