package cryptoutils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicKeyHex(t *testing.T) {
	pubHex, err := PublicKeyHex(testPrivateKeyHex)
	require.NoError(t, err)

	// Compressed key: 33 bytes, 02/03 prefix.
	require.Len(t, pubHex, 66)
	assert.Contains(t, []string{"02", "03"}, pubHex[:2])

	_, err = PublicKeyHex("not a key")
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestDecompressPublicKeyHex(t *testing.T) {
	pubHex, err := PublicKeyHex(testPrivateKeyHex)
	require.NoError(t, err)

	uncompressed, err := DecompressPublicKeyHex(pubHex)
	require.NoError(t, err)
	require.Len(t, uncompressed, 130)
	assert.Equal(t, "04", uncompressed[:2])

	// Uncompressed input passes through.
	again, err := DecompressPublicKeyHex(uncompressed)
	require.NoError(t, err)
	assert.Equal(t, uncompressed, again)

	_, err = DecompressPublicKeyHex("02deadbeef")
	assert.Error(t, err)
}

func TestAddressFromPublicKeyHex(t *testing.T) {
	pubHex, err := PublicKeyHex(testPrivateKeyHex)
	require.NoError(t, err)
	uncompressed, err := DecompressPublicKeyHex(pubHex)
	require.NoError(t, err)

	addrFromCompressed, err := AddressFromPublicKeyHex(pubHex)
	require.NoError(t, err)
	addrFromUncompressed, err := AddressFromPublicKeyHex(uncompressed)
	require.NoError(t, err)

	// Both encodings of the same key name the same address.
	assert.Equal(t, addrFromCompressed, addrFromUncompressed)
	assert.NotEmpty(t, addrFromCompressed)

	_, err = AddressFromPublicKeyHex("zznothex")
	assert.Error(t, err)
}

func TestNormalizeAddress(t *testing.T) {
	pubHex, err := PublicKeyHex(testPrivateKeyHex)
	require.NoError(t, err)
	addr, err := AddressFromPublicKeyHex(pubHex)
	require.NoError(t, err)

	// A base58check address normalizes to itself.
	normalized, err := NormalizeAddress(addr)
	require.NoError(t, err)
	assert.Equal(t, addr, normalized)

	// A 40-char hash160 hex normalizes to its version-0 address.
	normalized, err = NormalizeAddress(strings.Repeat("ab", 20))
	require.NoError(t, err)
	assert.NotEmpty(t, normalized)

	_, err = NormalizeAddress("neither address nor hash")
	assert.Error(t, err)
}
