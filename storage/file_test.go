package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/storage-router/cryptoutils"
	"github.com/ruteri/storage-router/hashing"
	"github.com/ruteri/storage-router/interfaces"
)

func newTestFileDriver(t *testing.T) *FileDriver {
	t.Helper()

	d, err := NewFileDriver(t.TempDir(), testLogger())
	require.NoError(t, err)
	return d
}

func TestFileDriverImmutable(t *testing.T) {
	d := newTestFileDriver(t)
	ctx := context.Background()

	data := []byte(`{"key":"value"}`)
	hash := hashing.ContentHash(data)

	_, err := d.GetImmutable(ctx, hash, interfaces.RequestHints{})
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	require.NoError(t, d.PutImmutable(ctx, hash, data, "txid-1"))

	got, err := d.GetImmutable(ctx, hash, interfaces.RequestHints{})
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, d.DeleteImmutable(ctx, hash, "txid-1", "sig"))
	_, err = d.GetImmutable(ctx, hash, interfaces.RequestHints{})
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	// Deleting again is not an error; the goal state is already reached.
	assert.NoError(t, d.DeleteImmutable(ctx, hash, "txid-1", "sig"))
}

func TestFileDriverMutable(t *testing.T) {
	d := newTestFileDriver(t)
	ctx := context.Background()
	fqid := "alice.id:profile"

	rawURL, err := d.MakeMutableURL(fqid)
	require.NoError(t, err)
	assert.True(t, d.HandlesURL(rawURL))
	assert.False(t, d.HandlesURL("file:///somewhere/else"))
	assert.False(t, d.HandlesURL("https://example.com/x"))

	_, err = d.GetMutable(ctx, "https://example.com/x", interfaces.RequestHints{})
	assert.ErrorIs(t, err, interfaces.ErrUnhandledURL)

	_, err = d.GetMutable(ctx, rawURL, interfaces.RequestHints{})
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)

	envelope := []byte("bsk2.pub.sig.{}")
	require.NoError(t, d.PutMutable(ctx, fqid, envelope, interfaces.RequestHints{}))

	got, err := d.GetMutable(ctx, rawURL, interfaces.RequestHints{})
	require.NoError(t, err)
	assert.Equal(t, envelope, got)

	require.NoError(t, d.DeleteMutable(ctx, fqid, "sig"))
	_, err = d.GetMutable(ctx, rawURL, interfaces.RequestHints{})
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestFileDriverEscapesDataIDs(t *testing.T) {
	d := newTestFileDriver(t)
	ctx := context.Background()

	// Path separators in data IDs must not escape the mutable directory.
	fqid := "alice.id:../../etc/passwd"
	require.NoError(t, d.PutMutable(ctx, fqid, []byte("data"), interfaces.RequestHints{}))

	rawURL, err := d.MakeMutableURL(fqid)
	require.NoError(t, err)

	got, err := d.GetMutable(ctx, rawURL, interfaces.RequestHints{})
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}

func TestFileDriverEndToEnd(t *testing.T) {
	d := newTestFileDriver(t)
	router := newTestRouter(t, d)
	ctx := context.Background()

	hash, err := router.PutImmutable(ctx, PutImmutableRequest{
		Payload: map[string]string{"hello": "world"},
		TxID:    "txid-1",
	})
	require.NoError(t, err)

	got, err := router.GetImmutable(ctx, hash, GetImmutableOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hello":"world"}`, string(got))

	key := cryptoutils.KeyInfo{PrivateKey: testPrivateKeyHex}
	require.NoError(t, router.PutMutable(ctx, "alice.id:profile", PutMutableRequest{
		Payload: map[string]string{"name": "alice.id"},
		Key:     key,
	}))

	pubHex, err := cryptoutils.PublicKeyHex(testPrivateKeyHex)
	require.NoError(t, err)

	payload, err := router.GetMutable(ctx, "alice.id:profile", GetMutableOptions{PublicKey: pubHex})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"alice.id"}`, string(payload))
}
