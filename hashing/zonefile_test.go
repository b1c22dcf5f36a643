package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testZone = `$ORIGIN alice.id.
$TTL 3600
@ IN URI 10 1 "https://gaia.example.com/alice.id/profile.json"
www IN A 10.0.0.1
`

func TestCanonicalZone(t *testing.T) {
	canonical, err := CanonicalZone(testZone, "alice.id.")
	require.NoError(t, err)

	assert.Contains(t, canonical, "www.alice.id.")
	assert.Contains(t, canonical, "10.0.0.1")

	// Canonicalization is a fixed point.
	again, err := CanonicalZone(canonical, "alice.id.")
	require.NoError(t, err)
	assert.Equal(t, canonical, again)
}

func TestCanonicalZoneRejectsGarbage(t *testing.T) {
	_, err := CanonicalZone(`www IN A "unterminated`, "alice.id.")
	assert.Error(t, err)
}

func TestVerifyZonefile(t *testing.T) {
	hash := ChainHash([]byte(testZone))

	assert.True(t, VerifyZonefile(testZone, hash))
	assert.False(t, VerifyZonefile(testZone+" ", hash))
	assert.False(t, VerifyZonefile(testZone, ChainHash([]byte("something else"))))
}
