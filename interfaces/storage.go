package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrContentNotFound is returned when requested content does not exist in a driver.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when a storage driver is not accessible.
	// This could be due to network issues, authentication failures, or service outages.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrUnhandledURL is returned by a driver asked to fetch a URL it does not serve.
	// The router treats it as a routing mismatch and moves on to the next candidate.
	ErrUnhandledURL = errors.New("driver does not handle URL")

	// ErrCapabilityMissing is returned when an operation needs a capability a
	// driver does not implement.
	ErrCapabilityMissing = errors.New("driver capability missing")

	// ErrInvalidLocationURI is returned when a driver location URI is malformed
	// or uses an unsupported scheme.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// StorageDriver is the minimal identity every driver carries. Capabilities
// are optional: a driver advertises an operation by additionally implementing
// one of the capability interfaces below. Absence of a capability is not an
// error unless the caller lists the driver as required.
type StorageDriver interface {
	// Name returns the unique driver identity used for registry lookups,
	// required/use-only sets, and logging.
	Name() string
}

// MutableURLMaker synthesizes a URL under which the driver would serve the
// given fully-qualified mutable data ID.
type MutableURLMaker interface {
	MakeMutableURL(fqDataID string) (string, error)
}

// URLHandler reports whether the driver can serve a given URL.
type URLHandler interface {
	HandlesURL(rawURL string) bool
}

// ImmutableGetter fetches immutable data by its hash. The returned bytes are
// not trusted; the router recomputes the hash before surfacing them.
type ImmutableGetter interface {
	GetImmutable(ctx context.Context, hash string, hints RequestHints) ([]byte, error)
}

// ImmutablePutter stores immutable data under its hash. The txid ties the
// write to the transaction that anchored the hash.
type ImmutablePutter interface {
	PutImmutable(ctx context.Context, hash string, data []byte, txid string) error
}

// ImmutableDeleter removes immutable data. The signature covers
// "delete:" + hash + txid and is produced by the router.
type ImmutableDeleter interface {
	DeleteImmutable(ctx context.Context, hash string, txid string, signatureB64 string) error
}

// MutableGetter fetches a serialized mutable envelope from a URL the driver
// serves. Drivers return ErrUnhandledURL for URLs outside their namespace.
type MutableGetter interface {
	GetMutable(ctx context.Context, rawURL string, hints RequestHints) ([]byte, error)
}

// MutablePutter stores a serialized mutable envelope under a fully-qualified
// data ID.
type MutablePutter interface {
	PutMutable(ctx context.Context, fqDataID string, data []byte, hints RequestHints) error
}

// MutableDeleter removes mutable data. The signature covers
// "delete:" + fqDataID and is produced by the router.
type MutableDeleter interface {
	DeleteMutable(ctx context.Context, fqDataID string, signatureB64 string) error
}

// RequestHints carries optional, driver-interpreted context for a fetch or
// store. Drivers are free to ignore any of it.
type RequestHints struct {
	// FQU is the fully-qualified username the data belongs to, if known.
	FQU string

	// DataID is the human-readable data ID, if known.
	DataID string

	// Zonefile marks the request as a zonefile lookup.
	Zonefile bool
}

// URLFetcher retrieves raw bytes from a URL hint. It is the generic transport
// used before any driver is consulted.
type URLFetcher interface {
	FetchURL(ctx context.Context, rawURL string) ([]byte, error)
}

// ProfileTokenCodec signs and verifies legacy profile-token envelopes. The
// token wire format is owned elsewhere; this core only needs the two
// operations below. Trusted is either a hex public key or a base58check
// address.
type ProfileTokenCodec interface {
	// SignToken wraps the payload in a signed token-record list and returns
	// its serialized JSON form.
	SignToken(payload any, privateKeyHex string) ([]byte, error)

	// VerifyToken checks a serialized token-record list against the trusted
	// key or address and returns the verified payload, or an error if the
	// token does not verify.
	VerifyToken(tokenJSON []byte, trusted string) ([]byte, error)
}
