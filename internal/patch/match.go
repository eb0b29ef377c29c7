package patch

import "strings"

// Match locates one accepted pair inside the original text as [Start,End)
// byte offsets, tagged with the tier that resolved it.
type Match struct {
	Start      int
	End        int
	Tier       int
	OutOfOrder bool
}

// placement couples a located match with the replacement text to splice in.
type placement struct {
	Match
	replace string
}

// lineSpan is one original line as [start,end) byte offsets, trailing
// newline excluded.
type lineSpan struct {
	start int
	end   int
}

func splitSpans(s string) []lineSpan {
	var spans []lineSpan
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			spans = append(spans, lineSpan{start, i})
			start = i + 1
		}
	}
	if start < len(s) {
		spans = append(spans, lineSpan{start, len(s)})
	}
	return spans
}

// searchLines splits search text for line-wise matching, dropping the empty
// artifact a trailing newline leaves behind.
func searchLines(search string) []string {
	lines := strings.Split(search, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// locate resolves search inside original. Tiers, in order: exact substring
// from cursor, line-trimmed run, block-anchor run, exact substring over the
// whole file. cursor is the byte offset a match may not precede; only the
// full-file tier ignores it, flagging its result out-of-order when violated.
func locate(original, search string, cursor int) (Match, bool) {
	if idx := strings.Index(original[cursor:], search); idx >= 0 {
		start := cursor + idx
		return Match{Start: start, End: start + len(search), Tier: 1}, true
	}
	if m, ok := matchTrimmedLines(original, search, cursor); ok {
		return m, true
	}
	if m, ok := matchBlockAnchor(original, search, cursor); ok {
		return m, true
	}
	if idx := strings.Index(original, search); idx >= 0 {
		return Match{Start: idx, End: idx + len(search), Tier: 4, OutOfOrder: idx < cursor}, true
	}
	return Match{}, false
}

// matchTrimmedLines finds a contiguous run of original lines whose trimmed
// text equals the trimmed search lines, starting at the first line at or
// after cursor. Tolerates indentation and trailing-whitespace drift.
func matchTrimmedLines(original, search string, cursor int) (Match, bool) {
	want := searchLines(search)
	if len(want) == 0 {
		return Match{}, false
	}
	for i := range want {
		want[i] = strings.TrimSpace(want[i])
	}

	spans := splitSpans(original)
	for i := firstSpanAt(spans, cursor); i+len(want) <= len(spans); i++ {
		if trimmedRunEqual(original, spans[i:i+len(want)], want) {
			return Match{Start: spans[i].start, End: spans[i+len(want)-1].end, Tier: 2}, true
		}
	}
	return Match{}, false
}

// matchBlockAnchor matches on the first and last trimmed lines only, for
// searches of three or more lines whose interior may have drifted. The
// candidate window is exactly the search's line count.
func matchBlockAnchor(original, search string, cursor int) (Match, bool) {
	want := searchLines(search)
	n := len(want)
	if n < 3 {
		return Match{}, false
	}
	first := strings.TrimSpace(want[0])
	last := strings.TrimSpace(want[n-1])

	spans := splitSpans(original)
	for i := firstSpanAt(spans, cursor); i+n <= len(spans); i++ {
		head := spans[i]
		if strings.TrimSpace(original[head.start:head.end]) != first {
			continue
		}
		tail := spans[i+n-1]
		if strings.TrimSpace(original[tail.start:tail.end]) == last {
			return Match{Start: head.start, End: tail.end, Tier: 3}, true
		}
	}
	return Match{}, false
}

func trimmedRunEqual(original string, run []lineSpan, want []string) bool {
	for j, span := range run {
		if strings.TrimSpace(original[span.start:span.end]) != want[j] {
			return false
		}
	}
	return true
}

// firstSpanAt returns the index of the first line starting at or after the
// byte offset cursor.
func firstSpanAt(spans []lineSpan, cursor int) int {
	for i, span := range spans {
		if span.start >= cursor {
			return i
		}
	}
	return len(spans)
}
