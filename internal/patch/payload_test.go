package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload_SingleBlock(t *testing.T) {
	payload := "<<<<<<< SEARCH\nold line\n=======\nnew line\n>>>>>>> REPLACE"

	pairs := ParsePayload(payload)

	require.Len(t, pairs, 1)
	assert.Equal(t, "old line", pairs[0].Search)
	assert.Equal(t, "new line", pairs[0].Replace)
}

func TestParsePayload_MultilineBodies(t *testing.T) {
	payload := "<<<<<<< SEARCH\nline1\nline2\n=======\nreplacement\n>>>>>>> REPLACE"

	pairs := ParsePayload(payload)

	require.Len(t, pairs, 1)
	assert.Equal(t, "line1\nline2", pairs[0].Search)
	assert.Equal(t, "replacement", pairs[0].Replace)
}

func TestParsePayload_ExtendedDelimiters(t *testing.T) {
	payload := "<<<<<<<<<< SEARCH\nfoo\n====\nbar\n>>>>>>>>>>>> REPLACE"

	pairs := ParsePayload(payload)

	require.Len(t, pairs, 1)
	assert.Equal(t, "foo", pairs[0].Search)
	assert.Equal(t, "bar", pairs[0].Replace)
}

func TestParsePayload_MultipleBlocksInOrder(t *testing.T) {
	payload := FormatBlock("a", "A") + "\n" + FormatBlock("b", "B")

	pairs := ParsePayload(payload)

	require.Len(t, pairs, 2)
	assert.Equal(t, "a", pairs[0].Search)
	assert.Equal(t, "b", pairs[1].Search)
}

func TestParsePayload_IncompleteTrailingBlockDiscarded(t *testing.T) {
	payload := FormatBlock("a", "A") + "\n<<<<<<< SEARCH\ndangling"

	pairs := ParsePayload(payload)

	require.Len(t, pairs, 1)
	assert.Equal(t, "a", pairs[0].Search)
}

func TestParsePayload_EmptySearchBody(t *testing.T) {
	pairs := ParsePayload(FormatBlock("", "content"))

	require.Len(t, pairs, 1)
	assert.Equal(t, "", pairs[0].Search)
	assert.Equal(t, "content", pairs[0].Replace)
}

func TestFormatBlock_RoundTrip(t *testing.T) {
	pairs := ParsePayload(FormatBlock("find\nme", "use\nthis"))

	require.Len(t, pairs, 1)
	assert.Equal(t, "find\nme", pairs[0].Search)
	assert.Equal(t, "use\nthis", pairs[0].Replace)
}

func TestContainsBlock(t *testing.T) {
	assert.True(t, ContainsBlock(FormatBlock("a", "b")))
	assert.False(t, ContainsBlock("just some prose with <<< arrows"))
	assert.False(t, ContainsBlock(""))
}
