// Package locate finds declaration lines in Rust sources with bounded,
// line-oriented regex scans.
package locate

import (
	"regexp"
	"strings"

	"rustdocs/internal/model"
)

const (
	// forwardWindow is how many lines are scanned from the hint downwards.
	forwardWindow = 20
	// backwardWindow is how many lines above the hint are scanned when the
	// forward window has no match.
	backwardWindow = 5
)

// inlineAttrs matches attributes written on the item's own line, as in
// `#[test] fn a() {}`.
const inlineAttrs = `(?:#!?\[[^\]]*\]\s*)*`

var (
	FnRe     = regexp.MustCompile(`^\s*` + inlineAttrs + `(?:pub(?:\([^)]*\))?\s+)?(?:default\s+)?(?:async\s+)?(?:const\s+)?(?:unsafe\s+)?(?:extern(?:\s+"[^"]*")?\s+)?fn\b`)
	StructRe = regexp.MustCompile(`^\s*` + inlineAttrs + `(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|union)\b`)
	FieldRe  = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:r#)?[A-Za-z_][A-Za-z0-9_]*\s*:\s*[^;{}]+,?\s*$`)
	AttrRe   = regexp.MustCompile(`^\s*#!?\[`)

	fieldNameRe = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:r#)?([A-Za-z_][A-Za-z0-9_]*)\s*:`)
)

// SplitLines splits text into lines the way the patcher counts them: on '\n',
// dropping a trailing '\r', with no extra empty line after a final newline.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// MatcherFor returns the declaration matcher used for kind.
func MatcherFor(kind model.Kind) *regexp.Regexp {
	switch kind {
	case model.KindStruct:
		return StructRe
	case model.KindField:
		return FieldRe
	default:
		return FnRe
	}
}

// FindSigLineNear returns the first line matching re in the forward window
// [start, start+20), or failing that in the backward window [start-5, start)
// scanned bottom-up.
func FindSigLineNear(lines []string, start0 int, re *regexp.Regexp) (int, bool) {
	total := len(lines)
	if start0 < 0 {
		start0 = 0
	}
	from := min(start0, total)
	to := min(start0+forwardWindow, total)
	for i := from; i < to; i++ {
		if re.MatchString(lines[i]) {
			return i, true
		}
	}
	lo := max(start0-backwardWindow, 0)
	for i := min(start0, total) - 1; i >= lo; i-- {
		if re.MatchString(lines[i]) {
			return i, true
		}
	}
	return 0, false
}

// FindAnchor locates the declaration line for an item near approxLine0. Field
// hints are exact, so they are used as-is.
func FindAnchor(lines []string, approxLine0 int, kind model.Kind) (int, bool) {
	if kind == model.KindField {
		if approxLine0 < 0 || approxLine0 >= len(lines) {
			return 0, false
		}
		return approxLine0, true
	}
	return FindSigLineNear(lines, approxLine0, MatcherFor(kind))
}
