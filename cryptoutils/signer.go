package cryptoutils

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
)

// SignatureLength is the size of a raw r||s signature.
const SignatureLength = 64

var (
	// ErrInvalidPrivateKey is returned when the private key hex is malformed.
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrUnsupportedKey is returned when a multi-signature key bundle is used
	// where only single-signature keys are supported.
	ErrUnsupportedKey = errors.New("only single-signature private keys are supported")
)

// KeyInfo describes the signing material for a write. Single-signature keys
// carry only PrivateKey; multi-signature bundles carry a redeem script and
// the participating keys. The router rejects multisig bundles before any I/O.
type KeyInfo struct {
	// PrivateKey is the hex-encoded single-signature key. A trailing "01"
	// compression flag is tolerated and stripped before use.
	PrivateKey string

	// RedeemScript is set for multi-signature bundles.
	RedeemScript string

	// PrivateKeys lists the keys of a multi-signature bundle.
	PrivateKeys []string
}

// Singlesig reports whether the key is a plain single-signature key.
func (k KeyInfo) Singlesig() bool {
	return k.RedeemScript == "" && len(k.PrivateKeys) == 0
}

// parsePrivateKey decodes a hex private key, stripping the optional trailing
// compression flag byte.
func parsePrivateKey(privateKeyHex string) (*btcec.PrivateKey, error) {
	if len(privateKeyHex) == 66 {
		if privateKeyHex[64:] != "01" {
			return nil, fmt.Errorf("%w: unexpected suffix", ErrInvalidPrivateKey)
		}
		privateKeyHex = privateKeyHex[:64]
	}

	raw, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: need 32 bytes, got %d", ErrInvalidPrivateKey, len(raw))
	}

	priv, _ := btcec.PrivKeyFromBytes(raw)
	return priv, nil
}

// SignRawData signs the exact byte sequence with the secp256k1 private key
// and returns the 64-byte r||s signature, low-S canonicalized, base64-encoded.
func SignRawData(data []byte, privateKeyHex string) (string, error) {
	priv, err := parsePrivateKey(privateKeyHex)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256(data)
	r, s, err := ecdsa.Sign(rand.Reader, priv.ToECDSA(), digest[:])
	if err != nil {
		return "", fmt.Errorf("ecdsa sign failed: %w", err)
	}

	// Enforce low-S: if s > N/2, substitute N - s.
	order := btcec.S256().Params().N
	halfOrder := new(big.Int).Rsh(order, 1)
	if s.Cmp(halfOrder) > 0 {
		s = new(big.Int).Sub(order, s)
	}

	sig := make([]byte, SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])

	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyRawData verifies a base64 r||s signature over the exact byte sequence
// against a hex public key (compressed or uncompressed). Malformed keys and
// signatures are verification failures, never faults.
func VerifyRawData(data []byte, publicKeyHex string, signatureB64 string) bool {
	pubBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false
	}

	pub, err := btcec.ParsePubKey(pubBytes)
	if err != nil {
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil || len(sig) != SignatureLength {
		return false
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])

	digest := sha256.Sum256(data)
	return ecdsa.Verify(pub.ToECDSA(), digest[:], r, s)
}
