package envelope

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/storage-router/cryptoutils"
	"github.com/ruteri/storage-router/hashing"
)

const testPrivateKeyHex = "1111111111111111111111111111111111111111111111111111111111111111"

type testPayload struct {
	Name string `json:"name"`
	Seq  int    `json:"seq"`
}

func testKeyMaterial(t *testing.T) (pubHex, addr string) {
	t.Helper()

	pubHex, err := cryptoutils.PublicKeyHex(testPrivateKeyHex)
	require.NoError(t, err)
	addr, err = cryptoutils.AddressFromPublicKeyHex(pubHex)
	require.NoError(t, err)
	return pubHex, addr
}

func TestSerializeImmutable(t *testing.T) {
	// Keys come out sorted, whitespace stripped.
	out, err := SerializeImmutable(map[string]int{"b": 1, "a": 2})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, out)

	out, err = SerializeImmutable([]string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, `["x","y"]`, out)

	// Scalars are a caller contract violation.
	_, err = SerializeImmutable("just a string")
	assert.Error(t, err)
	_, err = SerializeImmutable(42)
	assert.Error(t, err)
}

func TestSerializeParseRoundtrip(t *testing.T) {
	pubHex, addr := testKeyMaterial(t)
	codec := NewCodec(nil)

	text, err := codec.Serialize(testPayload{Name: "alice.id", Seq: 7}, testPrivateKeyHex, pubHex, false)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, V2Prefix))

	tests := []struct {
		name          string
		publicKeyHex  string
		publicKeyHash string
	}{
		{"by public key", pubHex, ""},
		{"by address", "", addr},
		{"by both", pubHex, addr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := codec.Parse(text, tt.publicKeyHex, tt.publicKeyHash)
			require.NoError(t, err)

			var got testPayload
			require.NoError(t, json.Unmarshal(payload, &got))
			assert.Equal(t, testPayload{Name: "alice.id", Seq: 7}, got)
		})
	}
}

func TestParseV2HashAcceptsHash160Hex(t *testing.T) {
	pubHex, _ := testKeyMaterial(t)
	codec := NewCodec(nil)

	text, err := codec.Serialize(testPayload{Name: "alice.id"}, testPrivateKeyHex, pubHex, false)
	require.NoError(t, err)

	uncompressed, err := cryptoutils.DecompressPublicKeyHex(pubHex)
	require.NoError(t, err)
	raw, err := hex.DecodeString(uncompressed)
	require.NoError(t, err)

	// The expected hash may be given as bare hash160 hex instead of an
	// address; both must verify.
	_, err = codec.Parse(text, "", hashing.ChainHash(raw))
	assert.NoError(t, err)
}

func TestParseV2Malformed(t *testing.T) {
	pubHex, _ := testKeyMaterial(t)
	codec := NewCodec(nil)

	tests := []struct {
		name string
		text string
	}{
		{"missing fields", V2Prefix + "onlyonefield"},
		{"two fields", V2Prefix + pubHex + ".c2ln"},
		{"pubkey not hex", V2Prefix + "nothex!.c2ln.{}"},
		{"signature not base64", V2Prefix + pubHex + ".!!!.{}"},
		{"pubkey not a point", V2Prefix + "deadbeef.c2lnbmF0dXJl.{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Parse(tt.text, pubHex, "")
			assert.ErrorIs(t, err, ErrMalformedEnvelope)
		})
	}
}

func TestParseV2KeyMismatch(t *testing.T) {
	pubHex, _ := testKeyMaterial(t)
	codec := NewCodec(nil)

	text, err := codec.Serialize(testPayload{Name: "alice.id"}, testPrivateKeyHex, pubHex, false)
	require.NoError(t, err)

	otherPriv := "2222222222222222222222222222222222222222222222222222222222222222"
	otherPub, err := cryptoutils.PublicKeyHex(otherPriv)
	require.NoError(t, err)
	otherAddr, err := cryptoutils.AddressFromPublicKeyHex(otherPub)
	require.NoError(t, err)

	_, err = codec.Parse(text, otherPub, "")
	assert.ErrorIs(t, err, ErrKeyMismatch)

	_, err = codec.Parse(text, "", otherAddr)
	assert.ErrorIs(t, err, ErrKeyMismatch)
}

func TestParseV2TamperedPayload(t *testing.T) {
	pubHex, _ := testKeyMaterial(t)
	codec := NewCodec(nil)

	text, err := codec.Serialize(testPayload{Name: "alice.id", Seq: 7}, testPrivateKeyHex, pubHex, false)
	require.NoError(t, err)

	tampered := strings.Replace(text, `"seq":7`, `"seq":8`, 1)
	require.NotEqual(t, text, tampered)

	_, err = codec.Parse(tampered, pubHex, "")
	assert.ErrorIs(t, err, ErrVerificationFailed)
}

// fakeProfileCodec is a stand-in for the external profile-token signer: it
// wraps the payload in a single-element token list and "verifies" by
// comparing the trusted identity it was constructed with.
type fakeProfileCodec struct {
	trusted string
}

func (f *fakeProfileCodec) SignToken(payload any, privateKeyHex string) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal([]map[string]json.RawMessage{{"claim": raw}})
}

func (f *fakeProfileCodec) VerifyToken(tokenJSON []byte, trusted string) ([]byte, error) {
	if trusted != f.trusted {
		return nil, fmt.Errorf("untrusted signer")
	}

	var records []map[string]json.RawMessage
	if err := json.Unmarshal(tokenJSON, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no token records")
	}
	return records[0]["claim"], nil
}

func TestLegacyProfileEnvelope(t *testing.T) {
	pubHex, addr := testKeyMaterial(t)

	t.Run("verifies by public key", func(t *testing.T) {
		codec := NewCodec(&fakeProfileCodec{trusted: pubHex})

		text, err := codec.Serialize(testPayload{Name: "alice.id", Seq: 3}, testPrivateKeyHex, pubHex, true)
		require.NoError(t, err)
		require.False(t, strings.HasPrefix(text, V2Prefix))

		payload, err := codec.Parse(text, pubHex, "")
		require.NoError(t, err)

		var got testPayload
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, "alice.id", got.Name)
	})

	t.Run("falls back to address", func(t *testing.T) {
		codec := NewCodec(&fakeProfileCodec{trusted: addr})

		text, err := codec.Serialize(testPayload{Name: "alice.id"}, testPrivateKeyHex, pubHex, true)
		require.NoError(t, err)

		payload, err := codec.Parse(text, pubHex, addr)
		require.NoError(t, err)
		assert.NotEmpty(t, payload)
	})

	t.Run("untrusted signer fails", func(t *testing.T) {
		codec := NewCodec(&fakeProfileCodec{trusted: "someone else"})

		text, err := codec.Serialize(testPayload{Name: "alice.id"}, testPrivateKeyHex, pubHex, true)
		require.NoError(t, err)

		_, err = codec.Parse(text, pubHex, addr)
		assert.ErrorIs(t, err, ErrVerificationFailed)
	})

	t.Run("needs a key or hash", func(t *testing.T) {
		codec := NewCodec(&fakeProfileCodec{trusted: pubHex})
		_, err := codec.Parse(`[{"claim":{}}]`, "", "")
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	})

	t.Run("scalar envelope is malformed", func(t *testing.T) {
		codec := NewCodec(&fakeProfileCodec{trusted: pubHex})
		_, err := codec.Parse(`"just text"`, pubHex, "")
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	})

	t.Run("no codec configured", func(t *testing.T) {
		codec := NewCodec(nil)
		_, err := codec.Parse(`[{"claim":{}}]`, pubHex, "")
		assert.ErrorIs(t, err, ErrVerificationFailed)
	})
}

func TestSerializeAsProfileWithoutCodec(t *testing.T) {
	pubHex, _ := testKeyMaterial(t)
	codec := NewCodec(nil)

	_, err := codec.Serialize(testPayload{}, testPrivateKeyHex, pubHex, true)
	assert.Error(t, err)
}
