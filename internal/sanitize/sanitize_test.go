package sanitize

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripTags(t *testing.T) {
	s := New()
	assert.Equal(t, "no tags here", s.stripTags("no tags here"))

	got := s.stripTags("<p>hello</p><think>ignore me</think>\n<think>again</think>\n<p>world</p>")
	assert.Equal(t, "<p>hello</p>\n\n<p>world</p>", got)

	got = s.stripTags("<THINK reason=\"x\">multi\nline</Think >\nkept")
	assert.Equal(t, "kept", got)

	custom := &Sanitizer{Tags: []string{"scratch"}}
	assert.Equal(t, "<think>x</think> y", custom.stripTags("<think>x</think> <scratch>z</scratch>y"))
}

func TestStripWrapper(t *testing.T) {
	s := New()

	t.Run("first marker is cut", func(t *testing.T) {
		got := s.stripWrapper("ANSWER: This should remain\nand so should this\n")
		assert.Equal(t, "This should remain\nand so should this", got)
	})

	t.Run("marker inside fence is kept", func(t *testing.T) {
		src := "```txt\nANSWER: keep this\n```\nOutside stays intact\n"
		assert.Equal(t, "```txt\nANSWER: keep this\n```\nOutside stays intact", s.stripWrapper(src))
	})

	t.Run("later marker cuts preamble", func(t *testing.T) {
		got := s.stripWrapper("Sure, here you go.\nRESPONSE: /// Adds two numbers.")
		assert.Equal(t, "/// Adds two numbers.", got)
	})

	t.Run("first of several markers", func(t *testing.T) {
		got := s.stripWrapper("preamble\nOUTPUT: one\nANSWER: two")
		assert.Equal(t, "one\nANSWER: two", got)
	})

	t.Run("doc-like text keeps later markers", func(t *testing.T) {
		src := "/// Parses input.\n///\n/// Returns the value.\nANSWER: not a wrapper"
		assert.Equal(t, src, s.stripWrapper(src))
	})

	t.Run("label on the first line of a doc block", func(t *testing.T) {
		got := s.stripWrapper("ANSWER: Adds two.\n/// a\n/// b\n/// c")
		assert.Equal(t, "Adds two.\n/// a\n/// b\n/// c", got)
	})
}

func TestUnwrapFence(t *testing.T) {
	assert.Equal(t, "line1\nline2", unwrapFence("```\nline1\nline2\n```"))
	assert.Equal(t, "line1", unwrapFence("```rust\nline1\n```\n\n"))
	assert.Equal(t, "missing close", unwrapFence("```missing close"))
	assert.Equal(t, "no fence", unwrapFence(" no fence "))
	assert.Equal(t, "/// a\n/// ```\n/// x\n/// ```", unwrapFence("/// a\n/// ```\n/// x\n/// ```"))
	// three fences is not a single wrapped region
	assert.Equal(t, "a\n```\nb\n```\nc", unwrapFence("```a\n```\nb\n```\nc"))
}

func TestDecodeEscapes(t *testing.T) {
	raw := `line1\nline2\\nline3\t\"q\"`
	assert.Equal(t, "line1\nline2\\\nline3\t\"q\"", decodeEscapes(raw))
	assert.Equal(t, "a\nb", decodeEscapes(`a\r\nb`))
}

func TestLongestDocRun(t *testing.T) {
	got := longestDocRun([]string{"/// A", "/// B", "not doc", "/// C"})
	assert.Equal(t, []string{"/// A", "/// B"}, got)

	got = longestDocRun([]string{"", "first", "second"})
	assert.Equal(t, []string{"/// first"}, got)

	assert.Nil(t, longestDocRun([]string{" ", ""}))
}

func TestCoerce(t *testing.T) {
	s := New()

	t.Run("labels and noise", func(t *testing.T) {
		lines := mapSectionLabels(splitClean("Parameters:\nThis function frobs.\nReturns:\n\"Unit value\"\n{\n}\n```ignored```"))
		got := strings.Join(s.coerce(lines), "\n")
		assert.Contains(t, got, "/// ## Parameters")
		assert.Contains(t, got, "/// ## Returns")
		assert.Contains(t, got, "/// This function frobs.")
		assert.Contains(t, got, "/// Unit value")
		assert.Contains(t, got, "/// ignored")
		assert.NotContains(t, got, "{")
	})

	t.Run("blank runs collapse", func(t *testing.T) {
		got := s.coerce([]string{"a", "", "", "  ", "b"})
		assert.Equal(t, []string{"/// a", "///", "/// b"}, got)
	})

	t.Run("json keys dropped", func(t *testing.T) {
		got := s.coerce([]string{`"struct_doc": "x",`, "kept"})
		assert.Equal(t, []string{"/// kept"}, got)
	})

	t.Run("fenced code keeps indentation and braces", func(t *testing.T) {
		got := s.coerce([]string{"```", "fn main() {", "    run();", "}", "```", "}"})
		assert.Equal(t, []string{"/// ```", "/// fn main() {", "///     run();", "/// }", "/// ```"}, got)
	})

	t.Run("extensible noise", func(t *testing.T) {
		custom := New()
		custom.Noise = append(append([]NoiseFunc{}, DefaultNoise...), func(l string) bool {
			return strings.HasPrefix(l, "Note to self")
		})
		got := custom.coerce([]string{"Note to self: x", "Real text"})
		assert.Equal(t, []string{"/// Real text"}, got)
	})
}

func TestBalanceFences(t *testing.T) {
	s := New()
	got := s.balanceFences([]string{"/// ```", "/// code"})
	assert.Equal(t, []string{"/// ```rust", "/// code", "/// ```"}, got)

	got = s.balanceFences([]string{"/// ```text", "/// x", "/// ```"})
	assert.Equal(t, []string{"/// ```text", "/// x", "/// ```"}, got)

	got = s.balanceFences([]string{`/// trailing\`, `/// kept\\`})
	assert.Equal(t, []string{"/// trailing", `/// kept\\`}, got)

	toml := &Sanitizer{Language: "toml"}
	assert.Equal(t, "/// ```toml", toml.balanceFences([]string{"/// ```", "/// ```"})[0])

	t.Run("inline code span", func(t *testing.T) {
		got := s.balanceFences([]string{"/// Adds.", "/// ```let x = 1;```"})
		assert.Equal(t, []string{"/// Adds.", "/// ```let x = 1;```"}, got)

		assert.False(t, togglesFence("/// ```let x = 1;```"))
		assert.True(t, togglesFence("/// ```rust"))
		assert.True(t, togglesFence("```"))
	})
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "empty",
			raw:  "   \n\t",
			want: "",
		},
		{
			name: "only a reasoning block",
			raw:  "<think>hmm</think>",
			want: "",
		},
		{
			name: "plain prose",
			raw:  "Adds two numbers.\n\nReturns the sum.",
			want: "/// Adds two numbers.\n///\n/// Returns the sum.",
		},
		{
			name: "wrapped answer with example",
			raw:  "<think>inner</think>\nANSWER: ```rust\n///\n/// Example title\n/// ```\n/// let x=1;\n/// ```\n```",
			want: "/// Example title\n/// ```rust\n/// let x=1;\n/// ```",
		},
		{
			name: "escaped newlines",
			raw:  `Opens the file.\n\nErrors:\nFails when missing.`,
			want: "/// Opens the file.\n///\n/// ## Errors\n/// Fails when missing.",
		},
		{
			name: "raw fence becomes a rust example",
			raw:  "Before\n```\ncode\n```\nAfter",
			want: "/// Before\n/// ```rust\n/// code\n/// ```\n/// After",
		},
		{
			name: "unclosed fence is closed",
			raw:  "/// Usage\n/// ```\n/// run();",
			want: "/// Usage\n/// ```rust\n/// run();\n/// ```",
		},
		{
			name: "leading and trailing blank markers trimmed",
			raw:  "///\n///\n/// Body\n///\n///",
			want: "/// Body",
		},
		{
			name: "inline code span is not a fence",
			raw:  "/// Adds.\n/// ```let x = 1;```",
			want: "/// Adds.\n/// ```let x = 1;```",
		},
		{
			name: "only noise",
			raw:  "{\n}\n",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.raw))
		})
	}
}

func fenceLines(out string) int {
	n := 0
	for _, l := range strings.Split(out, "\n") {
		if togglesFence(l) {
			n++
		}
	}
	return n
}

func TestSanitize_Invariants(t *testing.T) {
	pieces := []string{
		"```", "```rust", "/// ```", "/// text", "plain words", "", "  ", "{", "}", "},",
		"ANSWER:", "ANSWER: x", "<think>", "</think>", "Returns:", `"quoted"`, `\n`, `\"`,
		`trailing\`, "```inline```", "\"key\": 1", "    indented code", "///", "\t", "`",
	}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		n := rng.Intn(12)
		parts := make([]string, n)
		for j := range parts {
			parts[j] = pieces[rng.Intn(len(pieces))]
		}
		raw := strings.Join(parts, "\n")
		out := Sanitize(raw)
		if out == "" {
			continue
		}
		for _, l := range strings.Split(out, "\n") {
			require.True(t, strings.HasPrefix(l, Marker), "line %q of output for %q:\n%s", l, raw, out)
		}
		require.Equal(t, 0, fenceLines(out)%2, "unbalanced fences for %q:\n%s", raw, out)
		assert.NotEqual(t, Marker, strings.Split(out, "\n")[0])
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"Adds two numbers.\n\nReturns:\nThe sum.",
		"/// A\n/// ```\n/// let x = 1;\n/// ```",
		"RESPONSE: Builds the index.",
	}
	for _, raw := range inputs {
		once := Sanitize(raw)
		assert.Equal(t, once, Sanitize(once), raw)
	}
}
