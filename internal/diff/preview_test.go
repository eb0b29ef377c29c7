package diff

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_IdenticalContent(t *testing.T) {
	r := NewRenderer(false, 0)

	p := r.Render("same.txt", "line1\nline2\n", "line1\nline2\n")

	assert.Empty(t, p.Unified)
	assert.Equal(t, 0, p.Added)
	assert.Equal(t, 0, p.Deleted)
	assert.Equal(t, "no changes", p.Summary())
}

func TestRenderer_Modification(t *testing.T) {
	r := NewRenderer(false, 0)

	p := r.Render("main.go", "a\nb\nc\n", "a\nB\nc\n")

	assert.Contains(t, p.Unified, "--- a/main.go")
	assert.Contains(t, p.Unified, "+++ b/main.go")
	assert.Contains(t, p.Unified, "@@")
	assert.Greater(t, p.Added, 0)
	assert.Greater(t, p.Deleted, 0)
	assert.False(t, p.Binary)
	assert.False(t, p.Truncated)
}

func TestRenderer_Creation(t *testing.T) {
	r := NewRenderer(false, 0)

	p := r.Render("new.txt", "", "hello\nworld\n")

	assert.Equal(t, 2, p.Added)
	assert.Equal(t, 0, p.Deleted)
	assert.Equal(t, "+2 lines", p.Summary())
}

func TestRenderer_Deletion(t *testing.T) {
	r := NewRenderer(false, 0)

	p := r.Render("old.txt", "hello\nworld\n", "")

	assert.Equal(t, 0, p.Added)
	assert.Equal(t, 2, p.Deleted)
	assert.Equal(t, "-2 lines", p.Summary())
}

func TestRenderer_BinaryContent(t *testing.T) {
	r := NewRenderer(false, 0)

	p := r.Render("blob.bin", "text", "bin\x00ary")

	assert.True(t, p.Binary)
	assert.Contains(t, p.Unified, "Binary file blob.bin differs")
	assert.Equal(t, "binary file changed", p.Summary())
}

func TestRenderer_TruncatesLongPreviews(t *testing.T) {
	r := NewRenderer(false, 5)

	// Changes spaced far apart produce one hunk each, so the patch text
	// spans well past the cap.
	var before, after strings.Builder
	for i := 0; i < 80; i++ {
		before.WriteString(fmt.Sprintf("line %d\n", i))
		if i%20 == 10 {
			after.WriteString(fmt.Sprintf("LINE %d\n", i))
		} else {
			after.WriteString(fmt.Sprintf("line %d\n", i))
		}
	}
	p := r.Render("big.txt", before.String(), after.String())

	assert.True(t, p.Truncated)
	assert.Contains(t, p.Unified, "more lines")
	// headers + capped body + trailing marker line
	assert.LessOrEqual(t, strings.Count(p.Unified, "\n"), 8)
}

func TestRenderer_ColorDisabledEmitsPlainText(t *testing.T) {
	r := NewRenderer(false, 0)

	p := r.Render("plain.txt", "a\n", "b\n")

	assert.NotContains(t, p.Unified, "\x1b[")
}

func TestRenderer_OversizedContentSkipsBody(t *testing.T) {
	r := NewRenderer(false, 0)

	p := r.Render("huge.txt", strings.Repeat("x", maxDiffBytes+1), "y")

	assert.Contains(t, p.Unified, "preview skipped")
	assert.Equal(t, 0, p.Added)
}

func TestIsBinary(t *testing.T) {
	assert.False(t, isBinary("plain text"))
	assert.True(t, isBinary("has\x00null"))
	assert.False(t, isBinary(""))
}

func TestCountLines_NoTrailingNewline(t *testing.T) {
	r := NewRenderer(false, 0)

	p := r.Render("f.txt", "", "single line without newline")

	require.Equal(t, 1, p.Added)
}
