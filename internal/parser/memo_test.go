package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const memoBlock = "<<<FILE_OPERATION>>>\n" +
	"TYPE: create\n" +
	"PATH: cached.txt\n" +
	"CONTENT:\n" +
	"body\n" +
	"<<<END_OPERATION>>>"

func TestMemo_ParseCachesResult(t *testing.T) {
	m := NewMemo(8)

	first := m.Parse(memoBlock)
	require.Len(t, first, 1)
	assert.Equal(t, 1, m.Len())

	second := m.Parse(memoBlock)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.Len())
}

func TestMemo_CachedCopyIsIndependent(t *testing.T) {
	m := NewMemo(8)

	first := m.Parse(memoBlock)
	require.Len(t, first, 1)
	first[0].Path = "mutated.txt"

	second := m.Parse(memoBlock)
	require.Len(t, second, 1)
	assert.Equal(t, "cached.txt", second[0].Path)
}

func TestMemo_EvictsBeyondCapacity(t *testing.T) {
	m := NewMemo(2)

	m.Parse("one")
	m.Parse("two")
	m.Parse("three")

	assert.Equal(t, 2, m.Len())
}

func TestMemo_ZeroSizeUsesDefault(t *testing.T) {
	m := NewMemo(0)

	ops := m.Parse(memoBlock)
	require.Len(t, ops, 1)
	assert.Equal(t, 1, m.Len())
}

func TestMemo_NilSafe(t *testing.T) {
	var m *Memo

	ops := m.Parse(memoBlock)
	require.Len(t, ops, 1)
	assert.Equal(t, "cached.txt", ops[0].Path)
	assert.Zero(t, m.Len())
}
