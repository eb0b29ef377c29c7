// Package tokenutil counts model-output tokens with tiktoken-go. The
// cl100k_base encoding is initialized once on first use; when that fails
// (offline BPE fetch, unsupported platform) counting degrades to a
// character heuristic instead of erroring.
package tokenutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	once     sync.Once
	encoding *tiktoken.Tiktoken
)

func load() *tiktoken.Tiktoken {
	once.Do(func() {
		if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
			encoding = enc
		}
	})
	return encoding
}

// Count returns the cl100k_base token count of text, or the EstimateFast
// heuristic when the encoding is unavailable.
func Count(text string) int {
	if enc := load(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return EstimateFast(text)
}

// EstimateFast returns a heuristic token estimate, max(runes/4, words).
// Cheap enough for per-chunk accounting on a live stream.
func EstimateFast(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	estimate := len([]rune(trimmed)) / 4
	if words := len(strings.Fields(trimmed)); estimate < words {
		estimate = words
	}
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}

// Meter accumulates per-chunk stream statistics. Chunk text is not
// retained; the caller keeps the full response if it needs an exact Count
// at the end.
type Meter struct {
	chunks int
	bytes  int
	tokens int
}

// Add records one received chunk.
func (m *Meter) Add(chunk string) {
	m.chunks++
	m.bytes += len(chunk)
	m.tokens += EstimateFast(chunk)
}

// Chunks returns how many chunks were recorded.
func (m *Meter) Chunks() int { return m.chunks }

// Bytes returns the total byte size recorded.
func (m *Meter) Bytes() int { return m.bytes }

// Tokens returns the running heuristic token total.
func (m *Meter) Tokens() int { return m.tokens }

// Summary formats the meter for an end-of-stream report.
func (m *Meter) Summary() string {
	return fmt.Sprintf("%d chunks, %d bytes, ~%d tokens", m.chunks, m.bytes, m.tokens)
}
