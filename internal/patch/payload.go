package patch

import "strings"

// Pair is one SEARCH/REPLACE unit parsed from a diff payload.
type Pair struct {
	Search  string
	Replace string
}

type payloadSection int

const (
	sectionNone payloadSection = iota
	sectionSearch
	sectionReplace
)

const (
	searchLabel  = "SEARCH"
	replaceLabel = "REPLACE"
)

// ParsePayload extracts the ordered SEARCH/REPLACE pairs from a diff payload.
// Marker lines need three or more repeated delimiter characters. An
// incomplete trailing block is discarded.
func ParsePayload(payload string) []Pair {
	var pairs []Pair
	var search, replace []string
	section := sectionNone

	for _, line := range strings.Split(payload, "\n") {
		switch {
		case section == sectionNone && isSearchMarker(line):
			search, replace = nil, nil
			section = sectionSearch
		case section == sectionSearch && isDividerMarker(line):
			section = sectionReplace
		case section == sectionReplace && isReplaceMarker(line):
			pairs = append(pairs, Pair{
				Search:  strings.Join(search, "\n"),
				Replace: strings.Join(replace, "\n"),
			})
			section = sectionNone
		case section == sectionSearch:
			search = append(search, line)
		case section == sectionReplace:
			replace = append(replace, line)
		}
	}

	return pairs
}

// FormatBlock renders one SEARCH/REPLACE pair in payload form. The output
// round-trips through ParsePayload.
func FormatBlock(search, replace string) string {
	return "<<<<<<< SEARCH\n" + search + "\n=======\n" + replace + "\n>>>>>>> REPLACE"
}

// ContainsBlock reports whether s already carries payload markers and can be
// handed to Apply without wrapping.
func ContainsBlock(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		if isSearchMarker(line) {
			return true
		}
	}
	return false
}

func isSearchMarker(line string) bool  { return isMarkerLine(line, '<', searchLabel) }
func isReplaceMarker(line string) bool { return isMarkerLine(line, '>', replaceLabel) }

// isDividerMarker matches a run of three or more '=' and nothing else.
func isDividerMarker(line string) bool {
	t := strings.TrimSpace(line)
	if len(t) < 3 {
		return false
	}
	for i := 0; i < len(t); i++ {
		if t[i] != '=' {
			return false
		}
	}
	return true
}

func isMarkerLine(line string, delim byte, label string) bool {
	t := strings.TrimSpace(line)
	n := 0
	for n < len(t) && t[n] == delim {
		n++
	}
	if n < 3 {
		return false
	}
	return strings.TrimSpace(t[n:]) == label
}
