// Package stream separates a live model response into displayable prose and
// file-operation blocks as chunks arrive. Prose is released as soon as it
// can no longer be the start of an operation marker; operation fields fill
// in line by line and settle, once the closing marker streams in, to exactly
// what the extractor produces for the same block.
package stream

import (
	"strings"

	"scribe/internal/parser"
)

// OpState reports how far an operation block has streamed.
type OpState string

const (
	StatePending   OpState = "pending"
	StateStreaming OpState = "streaming"
	StateComplete  OpState = "complete"
)

// OperationView is the live projection of the operation block most recently
// opened on the stream. The tokenizer mutates it in place as lines arrive;
// holders of the pointer see fields fill in. Views are not validated: a
// block the extractor would drop still completes here, and the caller
// re-extracts before acting on it.
type OperationView struct {
	Type        parser.OpType `json:"type"`
	Path        string        `json:"path"`
	Description string        `json:"description,omitempty"`
	Content     string        `json:"content,omitempty"`
	Search      string        `json:"search,omitempty"`
	Replace     string        `json:"replace,omitempty"`
	State       OpState       `json:"state"`
	IsComplete  bool          `json:"is_complete"`
}

// FeedResult is what one Feed call released: prose now known to lie outside
// any operation, the current operation view (nil until the first start
// marker has been seen), and the views of every operation whose end marker
// arrived during the call, in stream order.
type FeedResult struct {
	Text      string
	Operation *OperationView
	Completed []*OperationView
}

type tokenizerMode int

const (
	modeProse tokenizerMode = iota
	modeHeader
	modeBody
)

type section int

const (
	sectionNone section = iota
	sectionContent
	sectionSearch
	sectionReplace
)

// Tokenizer is an incremental scanner over a chunked model response. It
// never re-reads earlier chunks: complete lines are consumed as their
// newline arrives, and only a partial trailing line (or a possible marker
// prefix) stays buffered. Chunk boundaries carry no meaning: any split of
// a response yields the same cumulative result. Not safe for concurrent
// use; one instance per live stream.
type Tokenizer struct {
	buf        string
	entityTail string
	mode       tokenizerMode

	op      *OperationView
	section section
	content []string
	search  []string
	replace []string
}

func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Feed consumes the next chunk and returns the prose it released together
// with the latest operation view and any operations completed by this call.
func (t *Tokenizer) Feed(chunk string) FeedResult {
	t.appendChunk(chunk)

	var text strings.Builder
	var completed []*OperationView
	for {
		if t.mode == modeProse {
			idx := strings.Index(t.buf, parser.StartMarker)
			if idx == -1 {
				hold := proseHoldback(t.buf)
				text.WriteString(t.buf[:len(t.buf)-hold])
				t.buf = t.buf[len(t.buf)-hold:]
				return FeedResult{Text: text.String(), Operation: t.op, Completed: completed}
			}
			text.WriteString(t.buf[:idx])
			t.buf = t.buf[idx+len(parser.StartMarker):]
			t.begin()
			continue
		}

		idx := strings.Index(t.buf, parser.EndMarker)
		if idx == -1 {
			// No end marker yet: consume complete lines, hold the rest.
			if i := strings.LastIndexByte(t.buf, '\n'); i >= 0 {
				t.consumeInside(t.buf[:i])
				t.buf = t.buf[i+1:]
			}
			return FeedResult{Text: text.String(), Operation: t.op, Completed: completed}
		}
		t.consumeInside(t.buf[:idx])
		t.buf = t.buf[idx+len(parser.EndMarker):]
		t.complete()
		completed = append(completed, t.op)
	}
}

// CurrentOperation returns the same view Feed reports, without consuming
// input. Nil until a start marker has been seen or after Reset.
func (t *Tokenizer) CurrentOperation() *OperationView { return t.op }

// Reset clears all state unconditionally.
func (t *Tokenizer) Reset() { *t = Tokenizer{} }

// Finish drains the tokenizer at end of stream. Held-back prose (a marker
// prefix that never completed, or a trailing partial entity) is returned
// verbatim; an operation that never saw its end marker is discarded, the
// same way the extractor drops an unterminated block.
func (t *Tokenizer) Finish() string {
	text := ""
	if t.mode == modeProse {
		text = t.buf + t.entityTail
	}
	t.buf = ""
	t.entityTail = ""
	return text
}

// appendChunk normalizes escaped angle brackets before buffering. A chunk
// may end mid-entity, so a trailing prefix of &lt; or &gt; is held back and
// prepended to the next chunk rather than scanned half-formed.
func (t *Tokenizer) appendChunk(chunk string) {
	raw := t.entityTail + chunk
	t.entityTail = ""
	if n := entityHoldback(raw); n > 0 {
		t.entityTail = raw[len(raw)-n:]
		raw = raw[:len(raw)-n]
	}
	t.buf += parser.UnescapeAngles(raw)
}

func (t *Tokenizer) begin() {
	t.op = &OperationView{State: StatePending}
	t.mode = modeHeader
	t.section = sectionNone
	t.content, t.search, t.replace = nil, nil, nil
}

func (t *Tokenizer) complete() {
	t.op.Content = parser.NormalizeBody(t.content)
	t.op.Search = parser.NormalizeBody(t.search)
	t.op.Replace = parser.NormalizeBody(t.replace)
	t.op.State = StateComplete
	t.op.IsComplete = true
	t.mode = modeProse
	t.section = sectionNone
	t.content, t.search, t.replace = nil, nil, nil
}

// consumeInside advances the header/body state machine over text known to
// precede any end marker. The final segment is treated as a line even
// without its newline; callers only pass such a segment when the end marker
// immediately follows it.
func (t *Tokenizer) consumeInside(text string) {
	for _, raw := range strings.Split(text, "\n") {
		t.consumeLine(strings.TrimSuffix(raw, "\r"))
	}
}

// consumeLine mirrors the extractor's per-line grammar exactly: header
// fields are only recognized before the first section label, section labels
// are recognized anywhere, and everything else in a section is body text.
func (t *Tokenizer) consumeLine(line string) {
	switch {
	case t.mode == modeHeader && strings.TrimSpace(line) == parser.StartMarker:
		// A re-emitted start marker abandons the half-built header.
		t.begin()
	case t.mode == modeHeader && strings.HasPrefix(line, "TYPE:"):
		t.op.Type = parser.OpType(strings.ToLower(strings.TrimSpace(line[len("TYPE:"):])))
		t.op.State = StateStreaming
	case t.mode == modeHeader && strings.HasPrefix(line, "PATH:"):
		t.op.Path = strings.TrimSpace(line[len("PATH:"):])
		t.op.State = StateStreaming
	case t.mode == modeHeader && strings.HasPrefix(line, "DESCRIPTION:"):
		t.op.Description = strings.TrimSpace(line[len("DESCRIPTION:"):])
		t.op.State = StateStreaming
	case strings.HasPrefix(line, "CONTENT:"):
		t.openSection(sectionContent, line[len("CONTENT:"):])
	case strings.HasPrefix(line, "SEARCH:"):
		t.openSection(sectionSearch, line[len("SEARCH:"):])
	case strings.HasPrefix(line, "REPLACE:"):
		t.openSection(sectionReplace, line[len("REPLACE:"):])
	case t.mode == modeBody:
		t.appendBodyLine(line)
	}
}

func (t *Tokenizer) openSection(s section, rest string) {
	t.mode = modeBody
	t.section = s
	t.op.State = StateStreaming
	if inline := strings.TrimSpace(rest); inline != "" {
		t.appendBodyLine(inline)
	}
}

// appendBodyLine records one body line and refreshes the live view field.
// The live value is the raw join; fences and the trailing-newline artifact
// are only stripped when the block completes.
func (t *Tokenizer) appendBodyLine(line string) {
	switch t.section {
	case sectionContent:
		t.content = append(t.content, line)
		t.op.Content = strings.Join(t.content, "\n")
	case sectionSearch:
		t.search = append(t.search, line)
		t.op.Search = strings.Join(t.search, "\n")
	case sectionReplace:
		t.replace = append(t.replace, line)
		t.op.Replace = strings.Join(t.replace, "\n")
	}
}

// proseHoldback reports how many trailing bytes of s could still grow into
// a start marker and must stay buffered rather than flush as prose.
func proseHoldback(s string) int {
	max := len(parser.StartMarker) - 1
	if max > len(s) {
		max = len(s)
	}
	for n := max; n > 0; n-- {
		if strings.HasPrefix(parser.StartMarker, s[len(s)-n:]) {
			return n
		}
	}
	return 0
}

// entityHoldback reports how many trailing bytes of s form an incomplete
// &lt; or &gt; entity.
func entityHoldback(s string) int {
	for n := 3; n > 0; n-- {
		if n > len(s) {
			continue
		}
		tail := s[len(s)-n:]
		if strings.HasPrefix("&lt;", tail) || strings.HasPrefix("&gt;", tail) {
			return n
		}
	}
	return 0
}
