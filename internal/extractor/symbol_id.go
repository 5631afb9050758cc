package extractor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"rustdocs/internal/model"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// BuildStableSymbolID creates a deterministic symbol ID.
// The ID survives edits that only move an item; it changes with the item's
// path or signature.
func BuildStableSymbolID(item *model.Item) string {
	if item == nil {
		return ""
	}

	crate := strings.TrimSpace(item.Crate)
	if crate == "" {
		crate = "_"
	}

	kind := strings.TrimSpace(string(item.Kind))
	if kind == "" {
		kind = "symbol"
	}

	name := strings.TrimSpace(item.Name)
	if name == "" {
		name = "_"
	}

	fingerprint := strings.Join([]string{
		"rust",
		crate,
		kind,
		canonicalize(item.FQPath),
		canonicalize(item.Signature),
	}, "|")

	sum := sha256.Sum256([]byte(fingerprint))
	short := hex.EncodeToString(sum[:8])
	return fmt.Sprintf("rust/%s:%s:%s:%s", crate, kind, name, short)
}

// CacheKey identifies one generated answer: the symbol, what its body looked
// like and which template asked about it.
func CacheKey(item *model.Item, template string) string {
	h := sha256.New()
	for _, part := range []string{
		BuildStableSymbolID(item),
		canonicalize(item.BodyText),
		template,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func canonicalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return whitespaceRe.ReplaceAllString(s, " ")
}
