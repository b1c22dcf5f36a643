package storage

import (
	"context"

	"github.com/ruteri/storage-router/hashing"
)

// GetAnnouncement fetches an announcement's text by its chain-compatible
// hash. Announcements are raw text, never JSON-deserialized.
func (r *Router) GetAnnouncement(ctx context.Context, hash string) (string, error) {
	data, err := r.GetImmutable(ctx, hash, GetImmutableOptions{
		HashFunc: hashing.ChainHash,
		Raw:      true,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PutAnnouncement stores announcement text under its chain-compatible hash
// and returns the hash.
func (r *Router) PutAnnouncement(ctx context.Context, text, txid string) (string, error) {
	hash := hashing.ChainHash([]byte(text))
	return r.PutImmutable(ctx, PutImmutableRequest{
		Hash: hash,
		Data: []byte(text),
		TxID: txid,
	})
}
