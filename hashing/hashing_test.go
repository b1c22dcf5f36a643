package hashing

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHash(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{
			name:     "empty input",
			data:     nil,
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:     "abc",
			data:     []byte("abc"),
			expected: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
		{
			name:     "hello world",
			data:     []byte("hello world"),
			expected: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContentHash(tt.data))
		})
	}
}

func TestChainHash(t *testing.T) {
	// hash160 of the empty string, the classic OP_HASH160 vector.
	assert.Equal(t, "b472a266d0bd89c13706a4132ccfb16f7c3b9fcb", ChainHash(nil))

	// 40 hex characters, always.
	assert.Len(t, ChainHash([]byte("some announcement text")), 40)

	// Deterministic and content-sensitive.
	assert.Equal(t, ChainHash([]byte("a")), ChainHash([]byte("a")))
	assert.NotEqual(t, ChainHash([]byte("a")), ChainHash([]byte("b")))
}

func TestHash160MatchesChainHash(t *testing.T) {
	data := []byte("payload")
	raw := Hash160(data)
	require.Len(t, raw, 20)
	assert.Equal(t, ChainHash(data), hex.EncodeToString(raw))
}
