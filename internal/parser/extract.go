// Package parser extracts canonical file operations from complete model
// responses. Two wire formats are recognized: bracket blocks
// (<<<FILE_OPERATION>>> ... <<<END_OPERATION>>>) and invoke blocks
// (<invoke name="...">). Extraction is best-effort over imperfect model
// output: malformed blocks are skipped, never surfaced as errors.
package parser

import (
	"sort"
	"strings"
)

// StartMarker and EndMarker delimit one bracket operation block. The stream
// tokenizer matches the same literals, so they are exported from here.
const (
	StartMarker = "<<<FILE_OPERATION>>>"
	EndMarker   = "<<<END_OPERATION>>>"
)

const (
	invokeOpen  = `<invoke name="`
	invokeClose = `</invoke>`
	paramOpen   = `<parameter name="`
	paramClose  = `</parameter>`
)

var angleEntities = strings.NewReplacer("&lt;", "<", "&gt;", ">")

// UnescapeAngles rewrites HTML-entity-escaped angle brackets so marker and
// tag scanning see the literal form models sometimes emit.
func UnescapeAngles(s string) string { return angleEntities.Replace(s) }

// span marks a bracket block's [start,end) region so invoke scanning skips
// text the bracket grammar already consumed.
type span struct {
	start int
	end   int
}

type positioned struct {
	op  Operation
	pos int
}

// ParseFileOperations extracts every file operation from a complete response
// and returns the normalized list: deduplicated, write_full precedence
// applied, per-path edits merged. Worst case is an empty slice, never an
// error.
func ParseFileOperations(text string) []Operation {
	if text == "" {
		return nil
	}
	normalized := UnescapeAngles(text)

	found, spans := parseBracketOps(normalized)
	found = append(found, parseInvokeOps(normalized, spans)...)
	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	ops := make([]Operation, 0, len(found))
	for _, p := range found {
		ops = append(ops, p.op)
	}
	return Normalize(ops)
}

// parseBracketOps scans for start/end marker pairs. Every well-delimited
// block contributes a span even when its contents fail validation, so a
// malformed block still shields any invoke-shaped text it quotes.
func parseBracketOps(text string) ([]positioned, []span) {
	var ops []positioned
	var spans []span
	pos := 0
	for {
		idx := strings.Index(text[pos:], StartMarker)
		if idx == -1 {
			break
		}
		blockStart := pos + idx
		innerStart := blockStart + len(StartMarker)
		endIdx := strings.Index(text[innerStart:], EndMarker)
		if endIdx == -1 {
			// Unterminated block: drop it and stop scanning.
			break
		}
		innerEnd := innerStart + endIdx
		if op, ok := parseBracketBlock(text[innerStart:innerEnd]); ok {
			ops = append(ops, positioned{op: op, pos: blockStart})
		}
		blockEnd := innerEnd + len(EndMarker)
		spans = append(spans, span{start: blockStart, end: blockEnd})
		pos = blockEnd
	}
	return ops, spans
}

type bodySection int

const (
	bodyNone bodySection = iota
	bodyContent
	bodySearch
	bodyReplace
)

// parseBracketBlock parses the text between one marker pair. A block whose
// TYPE is not a bracket type or whose PATH is missing is dropped.
func parseBracketBlock(block string) (Operation, bool) {
	var op Operation
	var content, search, replace []string
	section := bodyNone

	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimSuffix(raw, "\r")
		switch {
		case section == bodyNone && strings.TrimSpace(line) == StartMarker:
			// A re-emitted start marker restarts the header.
			op = Operation{}
		case section == bodyNone && strings.HasPrefix(line, "TYPE:"):
			op.Type = OpType(strings.ToLower(strings.TrimSpace(line[len("TYPE:"):])))
		case section == bodyNone && strings.HasPrefix(line, "PATH:"):
			op.Path = strings.TrimSpace(line[len("PATH:"):])
		case section == bodyNone && strings.HasPrefix(line, "DESCRIPTION:"):
			op.Description = strings.TrimSpace(line[len("DESCRIPTION:"):])
		case strings.HasPrefix(line, "CONTENT:"):
			section = bodyContent
			if rest := strings.TrimSpace(line[len("CONTENT:"):]); rest != "" {
				content = append(content, rest)
			}
		case strings.HasPrefix(line, "SEARCH:"):
			section = bodySearch
			if rest := strings.TrimSpace(line[len("SEARCH:"):]); rest != "" {
				search = append(search, rest)
			}
		case strings.HasPrefix(line, "REPLACE:"):
			section = bodyReplace
			if rest := strings.TrimSpace(line[len("REPLACE:"):]); rest != "" {
				replace = append(replace, rest)
			}
		case section == bodyContent:
			content = append(content, line)
		case section == bodySearch:
			search = append(search, line)
		case section == bodyReplace:
			replace = append(replace, line)
		}
	}

	if !bracketTypes[op.Type] || op.Path == "" {
		return Operation{}, false
	}
	op.Content = NormalizeBody(content)
	op.Search = NormalizeBody(search)
	op.Replace = NormalizeBody(replace)
	return op, true
}

// NormalizeBody assembles section lines into a body: the empty artifact the
// line break before a closing marker leaves is removed, then any code
// fences. The stream tokenizer applies the same normalization when a block
// completes so both paths settle on identical fields.
func NormalizeBody(lines []string) string {
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	lines = stripFences(lines)
	return strings.Join(lines, "\n")
}

// stripFences removes a leading and a trailing code-fence line. Fences are
// optional in both wire formats; interior fences are content.
func stripFences(lines []string) []string {
	if len(lines) > 0 && strings.HasPrefix(lines[0], "```") {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && strings.HasPrefix(lines[n-1], "```") {
		lines = lines[:n-1]
	}
	return lines
}

// parseInvokeOps scans for invoke blocks outside the bracket spans.
func parseInvokeOps(text string, exclude []span) []positioned {
	var ops []positioned
	pos := 0
	for {
		idx := strings.Index(text[pos:], invokeOpen)
		if idx == -1 {
			break
		}
		open := pos + idx
		if withinSpans(exclude, open) {
			pos = open + len(invokeOpen)
			continue
		}
		nameStart := open + len(invokeOpen)
		nameLen := strings.IndexByte(text[nameStart:], '"')
		if nameLen == -1 {
			break
		}
		name := text[nameStart : nameStart+nameLen]
		tagEnd := strings.IndexByte(text[nameStart+nameLen:], '>')
		if tagEnd == -1 {
			break
		}
		bodyStart := nameStart + nameLen + tagEnd + 1
		bodyLen := strings.Index(text[bodyStart:], invokeClose)
		if bodyLen == -1 {
			break
		}
		if op, ok := invokeOperation(name, text[bodyStart:bodyStart+bodyLen]); ok {
			ops = append(ops, positioned{op: op, pos: open})
		}
		pos = bodyStart + bodyLen + len(invokeClose)
	}
	return ops
}

// invokeOperation maps one invoke block onto a canonical operation:
// write_to_file becomes write_full, replace_in_file becomes replace.
// Anything else, or a missing path, is dropped.
func invokeOperation(name, body string) (Operation, bool) {
	params := parseParameters(body)
	path := strings.TrimSpace(params["path"])
	if path == "" {
		return Operation{}, false
	}
	switch name {
	case "write_to_file":
		return Operation{
			Type:        OpWriteFull,
			Path:        path,
			Description: strings.TrimSpace(params["description"]),
			Content:     trimParamBody(params["content"]),
		}, true
	case "replace_in_file":
		return Operation{
			Type:    OpReplace,
			Path:    path,
			Search:  trimParamBody(params["search"]),
			Replace: trimParamBody(params["replace"]),
		}, true
	}
	return Operation{}, false
}

func parseParameters(body string) map[string]string {
	params := make(map[string]string)
	pos := 0
	for {
		idx := strings.Index(body[pos:], paramOpen)
		if idx == -1 {
			break
		}
		nameStart := pos + idx + len(paramOpen)
		nameLen := strings.IndexByte(body[nameStart:], '"')
		if nameLen == -1 {
			break
		}
		name := body[nameStart : nameStart+nameLen]
		tagEnd := strings.IndexByte(body[nameStart+nameLen:], '>')
		if tagEnd == -1 {
			break
		}
		valueStart := nameStart + nameLen + tagEnd + 1
		valueLen := strings.Index(body[valueStart:], paramClose)
		if valueLen == -1 {
			break
		}
		params[name] = body[valueStart : valueStart+valueLen]
		pos = valueStart + valueLen + len(paramClose)
	}
	return params
}

// trimParamBody strips the single newline a block-style parameter value
// carries on each side, leaving interior text intact.
func trimParamBody(s string) string {
	s = strings.TrimPrefix(s, "\n")
	return strings.TrimSuffix(s, "\n")
}

func withinSpans(spans []span, idx int) bool {
	for _, s := range spans {
		if idx >= s.start && idx < s.end {
			return true
		}
	}
	return false
}
