package patch

import (
	"testing"

	"rustdocs/internal/locate"

	"github.com/stretchr/testify/assert"
)

func TestApplyEdits(t *testing.T) {
	t.Run("descending order keeps offsets valid", func(t *testing.T) {
		got := ApplyEdits("Hello_world", []Edit{
			{Start: 6, End: 11, Text: "there"},
			{Start: 0, End: 5, Text: "Hi"},
		})
		assert.Equal(t, "Hi_there", got)
	})

	t.Run("invalid and out of bounds edits are skipped", func(t *testing.T) {
		got := ApplyEdits("ABCDE", []Edit{
			{Start: 3, End: 2, Text: "X"},
			{Start: 4, End: 999, Text: "Z"},
			{Start: 1, End: 3, Text: "bb"},
		})
		assert.Equal(t, "AbbDE", got)
	})

	t.Run("zero width insert", func(t *testing.T) {
		assert.Equal(t, "ab-c", ApplyEdits("abc", []Edit{{Start: 2, End: 2, Text: "-"}}))
		assert.Equal(t, "abc!", ApplyEdits("abc", []Edit{{Start: 3, End: 3, Text: "!"}}))
	})

	t.Run("no edits", func(t *testing.T) {
		assert.Equal(t, "abc", ApplyEdits("abc", nil))
	})

	t.Run("caller slice is not reordered", func(t *testing.T) {
		edits := []Edit{{Start: 0, End: 1, Text: "x"}, {Start: 2, End: 3, Text: "y"}}
		ApplyEdits("abc", edits)
		assert.Equal(t, 0, edits[0].Start)
	})
}

func TestLineStarts(t *testing.T) {
	cases := []string{"", "a", "a\n", "a\nb", "a\nb\n", "\n", "a\n\n", "x\r\ny\r\n"}
	for _, text := range cases {
		starts := LineStarts(text)
		assert.Len(t, starts, len(locate.SplitLines(text))+1, "%q", text)
		assert.Equal(t, len(text), starts[len(starts)-1], "%q", text)
	}
	assert.Equal(t, []int{0, 2, 4}, LineStarts("a\nb\n"))
	assert.Equal(t, []int{0, 2, 3}, LineStarts("a\nb"))
}

func TestIndentLike(t *testing.T) {
	t.Run("keeps markers and blank lines", func(t *testing.T) {
		got := IndentLike("    pub fn foo() {}", "/// First\n\n/// Second\nLine without marker")
		assert.Equal(t, "    /// First\n    ///\n    /// Second\n    /// Line without marker\n", got)
	})

	t.Run("single trailing newline", func(t *testing.T) {
		assert.Equal(t, "/// Line 1\n/// Line 2\n", IndentLike("fn x() {}", "Line 1\nLine 2\n"))
	})

	t.Run("tabs and carriage returns", func(t *testing.T) {
		assert.Equal(t, "\t/// a\n\t/// b\n", IndentLike("\tfield: u8,", "/// a\r\n/// b\r\n"))
	})
}

func TestLeadingBlank(t *testing.T) {
	lines := []string{"fn a() {}", "fn b() {}", "", "fn c() {}"}

	assert.False(t, NeedsLeadingBlank(lines, 0))
	assert.True(t, NeedsLeadingBlank(lines, 1))
	assert.False(t, NeedsLeadingBlank(lines, 3))

	assert.Equal(t, "\n/// b\n", AddLeadingBlankIfNeeded(lines, 1, "/// b\n"))
	assert.Equal(t, "/// c\n", AddLeadingBlankIfNeeded(lines, 3, "/// c\n"))
}

func TestLineDiff(t *testing.T) {
	assert.Empty(t, LineDiff("a.rs", "same\n", "same\n"))

	before := "l1\nl2\nl3\nl4\nl5\nl6\nfn x() {}\n"
	after := "l1\nl2\nl3\nl4\nl5\nl6\n/// doc\nfn x() {}\n"
	d := LineDiff("src/a.rs", before, after)
	assert.Contains(t, d, "--- a/src/a.rs\n+++ b/src/a.rs\n")
	assert.Contains(t, d, "+/// doc\n")
	assert.Contains(t, d, " fn x() {}\n")
	assert.NotContains(t, d, " l2\n")
}
