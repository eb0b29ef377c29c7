// Package diff renders unified previews of pending file operations.
package diff

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// maxDiffBytes guards the character diff against pathological inputs; above
// it the preview degrades to a stub header.
const maxDiffBytes = 10 * 1024 * 1024

// Preview is the rendered difference between a file's current content and
// what an operation would leave behind.
type Preview struct {
	Path      string
	Unified   string
	Added     int
	Deleted   int
	Binary    bool
	Truncated bool
}

// Summary is the one-line change description used in operation reports.
func (p *Preview) Summary() string {
	if p.Binary {
		return "binary file changed"
	}
	if p.Added == 0 && p.Deleted == 0 {
		return "no changes"
	}
	parts := make([]string, 0, 2)
	if p.Added > 0 {
		parts = append(parts, fmt.Sprintf("+%d", p.Added))
	}
	if p.Deleted > 0 {
		parts = append(parts, fmt.Sprintf("-%d", p.Deleted))
	}
	return strings.Join(parts, " ") + " lines"
}

// Renderer turns before/after content pairs into unified previews.
type Renderer struct {
	color    bool
	maxLines int
}

// NewRenderer returns a renderer. maxLines caps the unified body; zero or
// negative means no cap.
func NewRenderer(colorEnabled bool, maxLines int) *Renderer {
	return &Renderer{color: colorEnabled, maxLines: maxLines}
}

// Render diffs before against after for path. Creations pass an empty
// before, deletions an empty after.
func (r *Renderer) Render(path, before, after string) *Preview {
	if before == after {
		return &Preview{Path: path}
	}
	if isBinary(before) || isBinary(after) {
		return &Preview{
			Path:    path,
			Unified: fmt.Sprintf("Binary file %s differs", path),
			Binary:  true,
		}
	}
	if len(before) > maxDiffBytes || len(after) > maxDiffBytes {
		return &Preview{
			Path:    path,
			Unified: fmt.Sprintf("--- a/%s\n+++ b/%s\n@@ file too large, preview skipped @@\n", path, path),
		}
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	patches := dmp.PatchMake(before, diffs)

	p := &Preview{Path: path}
	p.Added, p.Deleted = countLines(diffs)
	p.Unified, p.Truncated = r.format(dmp.PatchToText(patches), path)
	return p
}

// format decorates patch text with file headers, colors hunks and change
// lines, and enforces the line cap.
func (r *Renderer) format(patchText, path string) (string, bool) {
	var kept []string
	for _, line := range strings.Split(patchText, "\n") {
		if line != "" {
			kept = append(kept, line)
		}
	}
	truncated := false
	if r.maxLines > 0 && len(kept) > r.maxLines {
		omitted := len(kept) - r.maxLines
		kept = append(kept[:r.maxLines], fmt.Sprintf("... %d more lines", omitted))
		truncated = true
	}

	var b strings.Builder
	b.WriteString(r.colorize("--- a/"+path+"\n", color.FgRed))
	b.WriteString(r.colorize("+++ b/"+path+"\n", color.FgGreen))
	for _, line := range kept {
		switch {
		case strings.HasPrefix(line, "@@"):
			b.WriteString(r.colorize(line+"\n", color.FgCyan))
		case strings.HasPrefix(line, "+"):
			b.WriteString(r.colorize(line+"\n", color.FgGreen))
		case strings.HasPrefix(line, "-"):
			b.WriteString(r.colorize(line+"\n", color.FgRed))
		default:
			b.WriteString(line + "\n")
		}
	}
	return b.String(), truncated
}

func (r *Renderer) colorize(text string, attr color.Attribute) string {
	if !r.color {
		return text
	}
	return color.New(attr).Sprint(text)
}

// countLines tallies added and deleted line counts from the character
// diffs; a segment without a trailing newline still counts as a line.
func countLines(diffs []diffmatchpatch.Diff) (added, deleted int) {
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if !strings.HasSuffix(d.Text, "\n") {
			n++
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			deleted += n
		}
	}
	return added, deleted
}

// isBinary reports whether content looks binary: a null byte anywhere in
// the first 8000 bytes.
func isBinary(content string) bool {
	n := min(len(content), 8000)
	for i := 0; i < n; i++ {
		if content[i] == 0 {
			return true
		}
	}
	return false
}
