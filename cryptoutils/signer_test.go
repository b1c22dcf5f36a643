package cryptoutils

import (
	"encoding/base64"
	"math/big"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKeyHex = "1111111111111111111111111111111111111111111111111111111111111111"

func TestSignVerifyRoundtrip(t *testing.T) {
	data := []byte(`{"name":"alice.id","seq":7}`)

	sig, err := SignRawData(data, testPrivateKeyHex)
	require.NoError(t, err)

	pubHex, err := PublicKeyHex(testPrivateKeyHex)
	require.NoError(t, err)

	assert.True(t, VerifyRawData(data, pubHex, sig))
	assert.False(t, VerifyRawData([]byte(`{"name":"alice.id","seq":8}`), pubHex, sig))
}

func TestSignRawDataCompressionFlagSuffix(t *testing.T) {
	data := []byte("payload")

	// A trailing "01" compression flag is tolerated and must yield a
	// signature the bare key verifies.
	sig, err := SignRawData(data, testPrivateKeyHex+"01")
	require.NoError(t, err)

	pubHex, err := PublicKeyHex(testPrivateKeyHex)
	require.NoError(t, err)
	assert.True(t, VerifyRawData(data, pubHex, sig))

	pubFromFlagged, err := PublicKeyHex(testPrivateKeyHex + "01")
	require.NoError(t, err)
	assert.Equal(t, pubHex, pubFromFlagged)
}

func TestSignRawDataLowS(t *testing.T) {
	halfOrder := new(big.Int).Rsh(btcec.S256().Params().N, 1)

	// ECDSA is randomized, so exercise a few signatures.
	for i := 0; i < 16; i++ {
		sig, err := SignRawData([]byte("data"), testPrivateKeyHex)
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(sig)
		require.NoError(t, err)
		require.Len(t, raw, SignatureLength)

		s := new(big.Int).SetBytes(raw[32:])
		assert.LessOrEqual(t, s.Cmp(halfOrder), 0, "signature s component must be canonical")
	}
}

func TestSignRawDataBadKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"not hex", "zz11"},
		{"too short", "deadbeef"},
		{"bad suffix", testPrivateKeyHex + "02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SignRawData([]byte("data"), tt.key)
			assert.ErrorIs(t, err, ErrInvalidPrivateKey)
		})
	}
}

func TestVerifyRawDataNeverPanics(t *testing.T) {
	pubHex, err := PublicKeyHex(testPrivateKeyHex)
	require.NoError(t, err)

	sig, err := SignRawData([]byte("data"), testPrivateKeyHex)
	require.NoError(t, err)

	assert.False(t, VerifyRawData([]byte("data"), "not-hex", sig))
	assert.False(t, VerifyRawData([]byte("data"), "deadbeef", sig))
	assert.False(t, VerifyRawData([]byte("data"), pubHex, "!!!not base64!!!"))
	assert.False(t, VerifyRawData([]byte("data"), pubHex, base64.StdEncoding.EncodeToString([]byte("short"))))
	assert.False(t, VerifyRawData([]byte("data"), pubHex, base64.StdEncoding.EncodeToString(make([]byte, SignatureLength))))
}

func TestKeyInfoSinglesig(t *testing.T) {
	assert.True(t, KeyInfo{PrivateKey: testPrivateKeyHex}.Singlesig())
	assert.False(t, KeyInfo{RedeemScript: "5221"}.Singlesig())
	assert.False(t, KeyInfo{PrivateKeys: []string{testPrivateKeyHex, strings.Repeat("22", 32)}}.Singlesig())
}
