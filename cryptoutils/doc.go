// Package cryptoutils implements the raw signing primitives used by the
// storage router: secp256k1 ECDSA over exact byte sequences with low-S
// canonicalization, plus the key and address helpers the envelope codec
// needs (pubkey derivation, decompression, base58check data addresses).
//
// Signatures are 64-byte r||s pairs, big-endian, base64-encoded on the wire.
// Verification never panics on malformed input; callers get a boolean.
package cryptoutils
