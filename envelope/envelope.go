// Package envelope implements the signed wire formats for mutable data and
// the canonical serialization for immutable data.
//
// Two envelope generations coexist. The current one ("v2") is a
// pipe-carrying text format:
//
//	bsk2.<pubkey_hex>.<signature_base64>.<canonical_json>
//
// where the signature covers the canonical JSON byte sequence exactly as
// transmitted. The legacy generation wraps the payload in a profile-token
// list whose verification is delegated to an external token codec.
//
// Parsing sniffs the format off the "bsk2." prefix and dispatches to one of
// the two decoders, which share the same payload-or-error contract.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gowebpki/jcs"

	"github.com/ruteri/storage-router/cryptoutils"
	"github.com/ruteri/storage-router/interfaces"
)

// V2Prefix marks the current envelope generation.
const V2Prefix = "bsk2."

var (
	// ErrMalformedEnvelope is returned when an envelope or one of its fields
	// cannot be parsed at all: wrong field count, non-hex public key,
	// non-base64 signature, invalid payload JSON.
	ErrMalformedEnvelope = errors.New("malformed mutable data envelope")

	// ErrKeyMismatch is returned when the envelope is well-formed but its
	// embedded public key matches neither the expected key nor the expected
	// key hash.
	ErrKeyMismatch = errors.New("envelope public key does not match expected key")

	// ErrVerificationFailed is returned when the signature does not verify
	// over the payload.
	ErrVerificationFailed = errors.New("envelope signature verification failed")
)

var (
	hexPattern = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	b64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)
)

// Codec serializes and parses mutable data envelopes. The profile token
// codec is optional; without it only v2 envelopes can be produced and
// legacy envelopes never verify.
type Codec struct {
	profiles interfaces.ProfileTokenCodec
}

// NewCodec creates an envelope codec. profiles may be nil.
func NewCodec(profiles interfaces.ProfileTokenCodec) *Codec {
	return &Codec{profiles: profiles}
}

// SerializeImmutable canonicalizes a JSON-serializable payload for immutable
// storage. The payload must serialize to a JSON object or array; anything
// else is a caller contract violation.
func SerializeImmutable(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("payload is not JSON-serializable: %w", err)
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalization failed: %w", err)
	}

	if len(canonical) == 0 || (canonical[0] != '{' && canonical[0] != '[') {
		return "", fmt.Errorf("invalid immutable data: must be an object or array")
	}
	return string(canonical), nil
}

// Serialize produces a signed mutable data envelope. When asProfile is set
// the payload is delegated to the external profile-token signer and the
// serialized token list is returned; otherwise the payload is canonicalized,
// signed raw, and wrapped in a v2 envelope.
func (c *Codec) Serialize(payload any, privateKeyHex, publicKeyHex string, asProfile bool) (string, error) {
	if asProfile {
		if c.profiles == nil {
			return "", fmt.Errorf("no profile token codec configured")
		}
		token, err := c.profiles.SignToken(payload, privateKeyHex)
		if err != nil {
			return "", fmt.Errorf("profile token signing failed: %w", err)
		}
		return string(token), nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("payload is not JSON-serializable: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalization failed: %w", err)
	}

	sigB64, err := cryptoutils.SignRawData(canonical, privateKeyHex)
	if err != nil {
		return "", err
	}

	return V2Prefix + publicKeyHex + "." + sigB64 + "." + string(canonical), nil
}

// Parse decodes a mutable data envelope and verifies its authenticity
// against an expected public key, an expected public key hash (hash160 hex
// or base58check address), or both. The first non-empty verified payload
// wins. All failures are soft: callers try the next candidate source.
func (c *Codec) Parse(text string, publicKeyHex, publicKeyHash string) (json.RawMessage, error) {
	if strings.HasPrefix(text, V2Prefix) {
		return c.parseV2(strings.TrimPrefix(text, V2Prefix), publicKeyHex, publicKeyHash)
	}
	return c.parseLegacy(text, publicKeyHex, publicKeyHash)
}

// parseV2 decodes the pubkey.signature.json triple. The signature must
// verify over the exact JSON text before the payload is surfaced, and the
// embedded public key must match the expected key or, failing that, the
// address derived from the expected key hash.
func (c *Codec) parseV2(text string, publicKeyHex, publicKeyHash string) (json.RawMessage, error) {
	parts := strings.SplitN(text, ".", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 fields", ErrMalformedEnvelope)
	}

	pubkHex, sigB64, dataTxt := parts[0], parts[1], parts[2]

	if !hexPattern.MatchString(pubkHex) {
		return nil, fmt.Errorf("%w: public key is not hex", ErrMalformedEnvelope)
	}
	if !b64Pattern.MatchString(sigB64) {
		return nil, fmt.Errorf("%w: signature is not base64", ErrMalformedEnvelope)
	}

	embedded, err := cryptoutils.DecompressPublicKeyHex(pubkHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	verdict := error(ErrKeyMismatch)

	if publicKeyHex != "" {
		expected, err := cryptoutils.DecompressPublicKeyHex(publicKeyHex)
		if err != nil {
			return nil, fmt.Errorf("%w: expected public key: %v", ErrMalformedEnvelope, err)
		}

		if expected == embedded {
			if cryptoutils.VerifyRawData([]byte(dataTxt), embedded, sigB64) {
				return payloadJSON(dataTxt)
			}
			verdict = ErrVerificationFailed
		}
	}

	if publicKeyHash != "" {
		expectedAddr, err := cryptoutils.NormalizeAddress(publicKeyHash)
		if err != nil {
			return nil, fmt.Errorf("%w: expected public key hash: %v", ErrMalformedEnvelope, err)
		}

		embeddedAddr, err := cryptoutils.AddressFromPublicKeyHex(embedded)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}

		if embeddedAddr == expectedAddr {
			if cryptoutils.VerifyRawData([]byte(dataTxt), embedded, sigB64) {
				return payloadJSON(dataTxt)
			}
			verdict = ErrVerificationFailed
		}
	}

	return nil, verdict
}

// parseLegacy verifies a profile-token list, first against the public key
// and then against the address derived from the key hash.
func (c *Codec) parseLegacy(text string, publicKeyHex, publicKeyHash string) (json.RawMessage, error) {
	if publicKeyHex == "" && publicKeyHash == "" {
		return nil, fmt.Errorf("%w: need a public key or public key hash", ErrMalformedEnvelope)
	}

	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedEnvelope, err)
	}
	switch parsed.(type) {
	case map[string]any, []any:
	default:
		return nil, fmt.Errorf("%w: token envelope must be an object or array", ErrMalformedEnvelope)
	}

	if c.profiles == nil {
		return nil, fmt.Errorf("%w: no profile token codec configured", ErrVerificationFailed)
	}

	if publicKeyHex != "" {
		payload, err := c.profiles.VerifyToken([]byte(text), publicKeyHex)
		if err == nil && len(payload) > 0 {
			return payload, nil
		}
	}

	if publicKeyHash != "" {
		addr, err := cryptoutils.NormalizeAddress(publicKeyHash)
		if err != nil {
			return nil, fmt.Errorf("%w: expected public key hash: %v", ErrMalformedEnvelope, err)
		}

		payload, err := c.profiles.VerifyToken([]byte(text), addr)
		if err == nil && len(payload) > 0 {
			return payload, nil
		}
	}

	return nil, ErrVerificationFailed
}

func payloadJSON(dataTxt string) (json.RawMessage, error) {
	if !json.Valid([]byte(dataTxt)) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrMalformedEnvelope)
	}
	return json.RawMessage(dataTxt), nil
}
