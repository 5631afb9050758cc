// Package sanitize turns free-form model output into a rustdoc block: every
// line starts with "///" and every fenced code region is closed.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	Marker = "///"
	fence  = "```"

	// docLikeThreshold is how many marked lines make text look like a finished
	// doc block, in which case wrapper markers further down are left alone.
	docLikeThreshold = 3
)

// NoiseFunc reports whether a trimmed, unmarked line is leftover structure
// rather than prose.
type NoiseFunc func(line string) bool

var jsonKeyRe = regexp.MustCompile(`^"[^"]*"\s*:`)

// DefaultNoise is the denylist applied outside fenced regions.
var DefaultNoise = []NoiseFunc{
	func(l string) bool { return l == "{" || l == "}" || l == "}," || l == "[" || l == "]" || l == "]," },
	func(l string) bool { return strings.HasSuffix(l, ":") },
	func(l string) bool { return jsonKeyRe.MatchString(l) },
}

// DefaultMarkers are the answer labels stripped from the top of a response.
var DefaultMarkers = []string{"ANSWER:", "RESPONSE:", "OUTPUT:", "QUESTION:"}

var sectionLabels = map[string]string{
	"Parameters:": "## Parameters",
	"Returns:":    "## Returns",
	"Errors:":     "## Errors",
	"Safety:":     "## Safety",
	"Notes:":      "## Notes",
	"Examples:":   "## Examples",
}

// Sanitizer holds the tunable parts of the pipeline. The zero value is usable.
type Sanitizer struct {
	// Language is declared on bare opening fences. Defaults to "rust".
	Language string
	// Tags name the paired regions dropped entirely, e.g. <think>...</think>.
	Tags []string
	// Markers are the wrapper labels cut from the top of the text.
	Markers []string
	// Noise drops leftover structured-data lines.
	Noise []NoiseFunc
}

// New returns a Sanitizer with the default settings.
func New() *Sanitizer {
	return &Sanitizer{
		Language: "rust",
		Tags:     []string{"think"},
		Markers:  DefaultMarkers,
		Noise:    DefaultNoise,
	}
}

var std = New()

// Sanitize runs the default pipeline.
func Sanitize(raw string) string { return std.Sanitize(raw) }

// Sanitize never fails; degenerate input yields "".
func (s *Sanitizer) Sanitize(raw string) string {
	text := s.stripTags(raw)
	text = s.stripWrapper(text)
	text = unwrapFence(text)
	text = decodeEscapes(text)

	lines := splitClean(text)
	if allBlank(lines) {
		return ""
	}
	lines = mapSectionLabels(lines)
	lines = s.coerce(lines)
	lines = longestDocRun(lines)
	lines = s.balanceFences(lines)
	lines = trimBlankMarkers(lines)
	return strings.Join(lines, "\n")
}

func tagRegexps(tags []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(tags))
	for _, tag := range tags {
		q := regexp.QuoteMeta(tag)
		res = append(res, regexp.MustCompile(fmt.Sprintf(`(?is)<\s*%s\b[^>]*>.*?</\s*%s\s*>`, q, q)))
	}
	return res
}

var thinkRes = tagRegexps([]string{"think"})

func (s *Sanitizer) stripTags(text string) string {
	res := thinkRes
	if s.Tags != nil && !(len(s.Tags) == 1 && s.Tags[0] == "think") {
		res = tagRegexps(s.Tags)
	}
	for _, re := range res {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// isFenceLine reports whether the line, with any comment marker removed,
// opens or closes a fenced region.
func isFenceLine(line string) bool {
	return strings.HasPrefix(afterMarker(line), fence)
}

// togglesFence is isFenceLine minus inline ```code``` spans: an info string
// never contains a backtick.
func togglesFence(line string) bool {
	if !isFenceLine(line) {
		return false
	}
	info := strings.TrimLeft(strings.TrimSpace(afterMarker(line)), "`")
	return !strings.Contains(info, "`")
}

func afterMarker(line string) string {
	t := strings.TrimLeft(line, " \t")
	t = strings.TrimPrefix(t, Marker)
	return strings.TrimLeft(t, " \t")
}

func isMarked(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), Marker)
}

func (s *Sanitizer) markers() []string {
	if s.Markers == nil {
		return DefaultMarkers
	}
	return s.Markers
}

func (s *Sanitizer) markerAt(line string) (int, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	for _, m := range s.markers() {
		if strings.HasPrefix(trimmed, m) {
			return len(line) - len(trimmed) + len(m), true
		}
	}
	return 0, false
}

// stripWrapper cuts everything up to and including the first answer label
// found at a line start outside a fence. A label on the first line is always
// cut; later ones only when the text is not already a doc block.
func (s *Sanitizer) stripWrapper(text string) string {
	lines := strings.Split(text, "\n")

	docLike := 0
	for _, l := range lines {
		if isMarked(l) {
			docLike++
		}
	}

	inFence := false
	offset := 0
	seenContent := false
	for _, l := range lines {
		if togglesFence(l) {
			inFence = !inFence
		}
		first := !seenContent && strings.TrimSpace(l) != ""
		if first {
			seenContent = true
		}
		if !inFence || first {
			if n, ok := s.markerAt(l); ok && (first || docLike < docLikeThreshold) {
				return strings.TrimSpace(text[offset+n:])
			}
		}
		offset += len(l) + 1
	}
	return strings.TrimSpace(text)
}

// unwrapFence keeps only the interior of text that is one fenced region.
// Otherwise stray backticks at either end are trimmed, unless they belong to a
// marked fence line.
func unwrapFence(text string) string {
	lines := strings.Split(text, "\n")
	fences := 0
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
		if strings.HasPrefix(lines[i], fence) {
			fences++
		}
	}

	first, last := -1, -1
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if fences == 2 && first >= 0 && first != last &&
		strings.HasPrefix(lines[first], fence) && strings.HasPrefix(lines[last], fence) {
		return strings.Join(lines[first+1:last], "\n")
	}

	text = strings.TrimSpace(text)
	if !isMarked(firstLine(text)) {
		text = strings.TrimLeft(text, "`")
	}
	if !isMarked(lastLine(text)) {
		text = strings.TrimRight(text, "`")
	}
	return strings.TrimSpace(text)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func lastLine(s string) string {
	return s[strings.LastIndexByte(s, '\n')+1:]
}

// decodeEscapes undoes literal escape sequences. The order matters: pairs
// first, then the doubled forms left behind by the first round.
func decodeEscapes(s string) string {
	for _, r := range [][2]string{
		{`\r\n`, "\n"},
		{`\n`, "\n"},
		{`\t`, "\t"},
		{`\"`, `"`},
		{`\\n`, "\n"},
		{`\\t`, "\t"},
		{`\\"`, `"`},
	} {
		s = strings.ReplaceAll(s, r[0], r[1])
	}
	return s
}

func splitClean(text string) []string {
	text = strings.ReplaceAll(text, "\r", "")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return lines
}

func allBlank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

func mapSectionLabels(lines []string) []string {
	out := make([]string, len(lines))
	inFence := false
	for i, l := range lines {
		out[i] = l
		if togglesFence(l) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if h, ok := sectionLabels[strings.TrimSpace(l)]; ok {
			out[i] = h
		}
	}
	return out
}

func (s *Sanitizer) noise() []NoiseFunc {
	if s.Noise == nil {
		return DefaultNoise
	}
	return s.Noise
}

func (s *Sanitizer) isNoise(line string) bool {
	for _, f := range s.noise() {
		if f(line) {
			return true
		}
	}
	return false
}

// coerce puts the marker on every line. Outside fences it collapses blank
// runs, drops noise and unquotes quoted values; inside fences lines keep their
// indentation.
func (s *Sanitizer) coerce(lines []string) []string {
	out := make([]string, 0, len(lines))
	inFence := false
	prevBlank := false
	for _, l := range lines {
		t := strings.TrimSpace(l)

		if t == "" {
			if prevBlank {
				continue
			}
			prevBlank = true
			out = append(out, Marker)
			continue
		}
		prevBlank = false

		if !isMarked(t) && strings.HasPrefix(t, fence) && strings.HasSuffix(t, fence) && len(t) > 2*len(fence) {
			// inline ```x``` on one line
			t = strings.TrimSpace(strings.Trim(t, "`"))
			if t == "" {
				continue
			}
		}

		if togglesFence(t) {
			inFence = !inFence
			if isMarked(t) {
				out = append(out, t)
			} else {
				out = append(out, Marker+" "+t)
			}
			continue
		}

		if isMarked(t) {
			out = append(out, t)
			continue
		}

		if inFence {
			out = append(out, Marker+" "+l)
			continue
		}

		if s.isNoise(t) {
			continue
		}
		if len(t) >= 2 && strings.HasPrefix(t, `"`) && strings.HasSuffix(t, `"`) {
			t = t[1 : len(t)-1]
		}
		out = append(out, Marker+" "+t)
	}
	return out
}

// longestDocRun keeps the longest contiguous run of marked lines. Without
// one, the first non-blank line is marked and kept alone.
func longestDocRun(lines []string) []string {
	bestStart, bestLen := 0, 0
	curStart, curLen := -1, 0
	for i, l := range lines {
		if isMarked(l) {
			if curStart < 0 {
				curStart, curLen = i, 0
			}
			curLen++
			if curLen > bestLen {
				bestStart, bestLen = curStart, curLen
			}
			continue
		}
		curStart = -1
	}
	if bestLen > 0 {
		return lines[bestStart : bestStart+bestLen]
	}
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return []string{Marker + " " + strings.TrimSpace(l)}
		}
	}
	return nil
}

// balanceFences declares the language on bare opening fences and closes a
// fence left open at the end.
func (s *Sanitizer) balanceFences(lines []string) []string {
	lang := s.Language
	if lang == "" {
		lang = "rust"
	}
	out := make([]string, 0, len(lines)+1)
	open := false
	for _, l := range lines {
		if strings.HasSuffix(l, `\`) && !strings.HasSuffix(l, `\\`) {
			l = l[:len(l)-1]
		}
		if togglesFence(l) {
			if !open && strings.TrimSpace(afterMarker(l)) == fence {
				l = Marker + " " + fence + lang
			}
			open = !open
		}
		out = append(out, l)
	}
	if open {
		out = append(out, Marker+" "+fence)
	}
	return out
}

func isBlankMarker(l string) bool { return strings.TrimSpace(l) == Marker }

func trimBlankMarkers(lines []string) []string {
	for len(lines) > 0 && isBlankMarker(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && isBlankMarker(lines[0]) {
		lines = lines[1:]
	}
	return lines
}
