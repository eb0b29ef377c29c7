package parser

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMemoSize = 64

// Memo caches extraction results keyed by response hash. The streaming path
// re-extracts the whole accumulated response each time an operation
// completes; the memo makes those repeat calls cheap.
type Memo struct {
	cache *lru.Cache[string, []Operation]
}

// NewMemo returns a memo holding up to size extractions. Non-positive sizes
// fall back to a small default.
func NewMemo(size int) *Memo {
	if size <= 0 {
		size = defaultMemoSize
	}
	cache, err := lru.New[string, []Operation](size)
	if err != nil {
		// lru.New only errors on non-positive sizes, guarded above.
		return &Memo{}
	}
	return &Memo{cache: cache}
}

// Parse behaves exactly like ParseFileOperations, memoized. Returned slices
// are copies, so callers may mutate them without corrupting the cache.
func (m *Memo) Parse(text string) []Operation {
	if m == nil || m.cache == nil {
		return ParseFileOperations(text)
	}
	key := memoKey(text)
	if ops, ok := m.cache.Get(key); ok {
		return cloneOperations(ops)
	}
	ops := ParseFileOperations(text)
	m.cache.Add(key, cloneOperations(ops))
	return ops
}

// Len reports how many extractions are currently cached.
func (m *Memo) Len() int {
	if m == nil || m.cache == nil {
		return 0
	}
	return m.cache.Len()
}

func memoKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cloneOperations(ops []Operation) []Operation {
	if ops == nil {
		return nil
	}
	out := make([]Operation, len(ops))
	copy(out, ops)
	return out
}
