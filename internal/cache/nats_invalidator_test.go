package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidateMessageRoundtrip(t *testing.T) {
	msg := encodeInvalidate("node-a", "chunk:1:4:-2")

	node, key, ok := decodeInvalidate(msg)
	require.True(t, ok)
	assert.Equal(t, "node-a", node)
	assert.Equal(t, "chunk:1:4:-2", key)
}

func TestInvalidateMessageEmptyNode(t *testing.T) {
	node, key, ok := decodeInvalidate(encodeInvalidate("", "chunk:0:0:0"))
	require.True(t, ok)
	assert.Empty(t, node)
	assert.Equal(t, "chunk:0:0:0", key)
}

func TestInvalidateMessageMalformed(t *testing.T) {
	// Без разделителя сообщение отбрасывается
	_, _, ok := decodeInvalidate([]byte("no-separator"))
	assert.False(t, ok)

	_, _, ok = decodeInvalidate(nil)
	assert.False(t, ok)
}
