package cryptoutils

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/ruteri/storage-router/hashing"
)

// AddressVersionByte is the fixed version byte for data addresses.
const AddressVersionByte byte = 0

// PublicKeyHex derives the compressed hex public key for a hex private key.
func PublicKeyHex(privateKeyHex string) (string, error) {
	priv, err := parsePrivateKey(privateKeyHex)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(priv.PubKey().SerializeCompressed()), nil
}

// DecompressPublicKeyHex returns the uncompressed form of a hex public key.
// Uncompressed input passes through unchanged after validation.
func DecompressPublicKeyHex(publicKeyHex string) (string, error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return "", fmt.Errorf("public key is not hex: %w", err)
	}

	pub, err := btcec.ParsePubKey(raw)
	if err != nil {
		return "", fmt.Errorf("invalid public key: %w", err)
	}

	return hex.EncodeToString(pub.SerializeUncompressed()), nil
}

// AddressFromPublicKeyHex derives the base58check address of a public key
// using the fixed version byte. The key is decompressed first so compressed
// and uncompressed forms of the same key yield the same address.
func AddressFromPublicKeyHex(publicKeyHex string) (string, error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return "", fmt.Errorf("public key is not hex: %w", err)
	}

	pub, err := btcec.ParsePubKey(raw)
	if err != nil {
		return "", fmt.Errorf("invalid public key: %w", err)
	}

	return base58.CheckEncode(hashing.Hash160(pub.SerializeUncompressed()), AddressVersionByte), nil
}

// NormalizeAddress accepts either a base58check address or a 40-character
// hash160 hex string and returns the version-0 address for it.
func NormalizeAddress(addressOrHash string) (string, error) {
	if decoded, _, err := base58.CheckDecode(addressOrHash); err == nil {
		return base58.CheckEncode(decoded, AddressVersionByte), nil
	}

	raw, err := hex.DecodeString(addressOrHash)
	if err != nil || len(raw) != 20 {
		return "", fmt.Errorf("not an address or hash160 hex: %q", addressOrHash)
	}
	return base58.CheckEncode(raw, AddressVersionByte), nil
}
