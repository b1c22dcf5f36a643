// Package hashing provides the deterministic content hashes used as
// integrity oracles by the storage router.
//
// ContentHash is the generic 256-bit hash for arbitrary immutable payloads.
// ChainHash is the shorter hash160-style digest (RIPEMD-160 over SHA-256)
// used where the hash must fit a fixed-width on-chain field, such as user
// zonefiles and announcements.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // hash160 compatibility requires it
)

// HashFunc computes a hex-encoded digest over data. The router accepts one
// per request so callers can select the verification oracle.
type HashFunc func(data []byte) string

// ContentHash returns the hex-encoded SHA-256 digest of data.
func ContentHash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ChainHash returns the hex-encoded RIPEMD-160 digest of the SHA-256 digest
// of data (hash160).
func ChainHash(data []byte) string {
	sha := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sha[:])
	return hex.EncodeToString(r.Sum(nil))
}

// Hash160 returns the raw 20-byte hash160 of data.
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sha[:])
	return r.Sum(nil)
}
