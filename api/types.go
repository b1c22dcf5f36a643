package api

import "encoding/json"

// PutImmutableRequest is the wire form of an immutable write. Callers supply
// either Payload (unhashed JSON) or the Hash/Text pair (pre-hashed,
// pre-serialized data).
type PutImmutableRequest struct {
	Payload  json.RawMessage `json:"payload,omitempty"`
	Hash     string          `json:"hash,omitempty"`
	Text     string          `json:"text,omitempty"`
	TxID     string          `json:"txid"`
	Required []string        `json:"required,omitempty"`
}

// PutImmutableResponse returns the content hash the data was stored under.
type PutImmutableResponse struct {
	Hash string `json:"hash"`
}

// DeleteImmutableRequest authorizes an immutable delete.
type DeleteImmutableRequest struct {
	TxID       string `json:"txid"`
	PrivateKey string `json:"private_key"`
}

// PutMutableRequest is the wire form of a mutable write.
type PutMutableRequest struct {
	Payload    json.RawMessage `json:"payload"`
	PrivateKey string          `json:"private_key"`
	AsProfile  bool            `json:"as_profile,omitempty"`
	Required   []string        `json:"required,omitempty"`
	UseOnly    []string        `json:"use_only,omitempty"`
}

// DeleteMutableRequest authorizes a mutable delete.
type DeleteMutableRequest struct {
	PrivateKey string   `json:"private_key"`
	UseOnly    []string `json:"use_only,omitempty"`
}

// PutAnnouncementRequest stores raw announcement text.
type PutAnnouncementRequest struct {
	Text string `json:"text"`
	TxID string `json:"txid"`
}

// PutAnnouncementResponse returns the chain-compatible hash.
type PutAnnouncementResponse struct {
	Hash string `json:"hash"`
}

// StatusResponse is returned by health and drain endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}
