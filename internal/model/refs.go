package model

import (
	"regexp"
	"sort"
)

// maxSymbolRefs caps how many referenced symbols are reported per body.
const maxSymbolRefs = 64

var wordRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// ReferencingFunctions returns the fq paths of functions whose body mentions the
// struct by name (whole word) or by its fully-qualified path. Output is sorted
// and deduplicated.
func ReferencingFunctions(structName, structFQ string, fns []*Item) []string {
	byName := regexp.MustCompile(`\b` + regexp.QuoteMeta(structName) + `\b`)
	byFQ := regexp.MustCompile(regexp.QuoteMeta(structFQ))

	seen := make(map[string]bool)
	var out []string
	for _, f := range fns {
		if f.BodyText == "" {
			continue
		}
		if byName.MatchString(f.BodyText) || byFQ.MatchString(f.BodyText) {
			if !seen[f.FQPath] {
				seen[f.FQPath] = true
				out = append(out, f.FQPath)
			}
		}
	}
	sort.Strings(out)
	return out
}

// CollectSymbolRefs returns the known symbols mentioned in body, in lexical order.
func CollectSymbolRefs(body string, symbols map[string]bool) []string {
	if body == "" {
		return nil
	}
	found := make(map[string]bool)
	for _, w := range wordRe.FindAllString(body, -1) {
		if symbols[w] {
			found[w] = true
			if len(found) == maxSymbolRefs {
				break
			}
		}
	}
	out := make([]string, 0, len(found))
	for w := range found {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
