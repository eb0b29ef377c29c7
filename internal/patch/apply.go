// Package patch applies SEARCH/REPLACE diff payloads to file content. It is
// pure text transformation: callers read the file, Apply computes the next
// content, callers persist it. Matching degrades through four tiers so edits
// survive the whitespace and indentation drift typical of model-quoted code,
// while rejection heuristics keep a bad match from silently corrupting a
// file.
package patch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoMatch is the failure value for a payload that cannot be applied.
var ErrNoMatch = errors.New("no acceptable match for diff payload")

// NoMatchError reports why a payload could not be applied. It wraps
// ErrNoMatch so callers can test with errors.Is.
type NoMatchError struct {
	PairIndex int
	Search    string
	Reason    string
}

func (e *NoMatchError) Error() string {
	if e.Search == "" {
		return fmt.Sprintf("patch failed: %s", e.Reason)
	}
	return fmt.Sprintf("patch failed at block %d (%s): %q", e.PairIndex+1, e.Reason, e.Search)
}

func (e *NoMatchError) Unwrap() error { return ErrNoMatch }

// Result is a successfully applied payload.
type Result struct {
	// Content is the new file content.
	Content string
	// Matches are the accepted matches in ascending start order.
	Matches []Match
	// Dropped counts pairs rejected by the suspicious-edit heuristics.
	Dropped int
}

// Apply applies a SEARCH/REPLACE payload to original and returns the new
// content. All-or-nothing: if any pair resolves under no tier, or every pair
// is rejected, no partial result is produced and the error wraps ErrNoMatch.
func Apply(original, payload string) (*Result, error) {
	pairs := ParsePayload(payload)
	if len(pairs) == 0 {
		return nil, &NoMatchError{Reason: "payload contains no SEARCH/REPLACE blocks"}
	}

	var placements []placement
	dropped := 0
	cursor := 0
	for i, pair := range pairs {
		if reason := suspiciousReason(pair); reason != "" {
			dropped++
			continue
		}

		// An empty search is a prepend, legal only into an empty file.
		if pair.Search == "" {
			if original != "" {
				return nil, &NoMatchError{PairIndex: i, Reason: "empty SEARCH against non-empty content"}
			}
			placements = append(placements, placement{Match: Match{Tier: 1}, replace: pair.Replace})
			continue
		}

		m, ok := locate(original, pair.Search, cursor)
		if !ok {
			return nil, &NoMatchError{PairIndex: i, Search: excerpt(pair.Search), Reason: "no matching tier"}
		}
		if overlapsAny(placements, m) {
			return nil, &NoMatchError{PairIndex: i, Search: excerpt(pair.Search), Reason: "match overlaps an earlier block"}
		}

		placements = append(placements, placement{Match: m, replace: pair.Replace})
		if m.OutOfOrder {
			cursor = 0
		} else {
			cursor = m.End
		}
	}
	if len(placements) == 0 {
		return nil, &NoMatchError{Reason: "every SEARCH/REPLACE block was rejected"}
	}

	sort.SliceStable(placements, func(i, j int) bool { return placements[i].Start < placements[j].Start })

	var b strings.Builder
	last := 0
	for _, pl := range placements {
		b.WriteString(original[last:pl.Start])
		b.WriteString(pl.replace)
		last = pl.End
	}
	b.WriteString(original[last:])

	content := b.String()
	if original == "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	result := &Result{Content: content, Matches: make([]Match, len(placements)), Dropped: dropped}
	for i, pl := range placements {
		result.Matches[i] = pl.Match
	}
	return result, nil
}

// suspiciousReason classifies pairs that look like model mistakes rather
// than intended edits. A non-empty reason drops the pair without applying
// it, whether or not it would have matched.
func suspiciousReason(p Pair) string {
	if p.Search == p.Replace {
		return "search and replace are identical"
	}
	if strings.TrimSpace(p.Replace) == "" && countNonBlankLines(p.Search) > 3 {
		return "replacement would erase a large block"
	}
	// replace under 30% of a >100 char search.
	if len(p.Search) > 100 && len(p.Replace)*10 < len(p.Search)*3 {
		return "replacement is suspiciously small for the searched block"
	}
	return ""
}

func countNonBlankLines(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

func overlapsAny(placements []placement, m Match) bool {
	for _, pl := range placements {
		if m.Start < pl.End && pl.Start < m.End {
			return true
		}
	}
	return false
}

// excerpt shortens search text for error messages.
func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}
