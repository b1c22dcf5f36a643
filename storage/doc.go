// Package storage implements the content-addressed storage router and its
// driver fleet.
//
// The router dispatches two data classes across an arbitrary set of
// registered drivers:
//
//   - Immutable data, keyed by its content hash. The hash is both the
//     identity and the verification key: anything fetched from a driver or a
//     URL hint is re-hashed and discarded on mismatch.
//   - Mutable data, keyed by a fully-qualified data ID and wrapped in a
//     signed envelope that is verified before the payload is surfaced.
//
// Writes are best-effort broadcasts: they succeed if at least one driver
// accepted the data, unless a driver the caller marked as required failed,
// which vetoes the whole operation. Deletes are all-or-nothing, since a
// partial delete leaves inconsistent visibility.
//
// # Drivers
//
// A driver is any value implementing interfaces.StorageDriver plus whatever
// capability interfaces it supports. Included drivers:
//
//   - FileDriver: local filesystem, full capability set
//   - S3Driver: Amazon S3 or compatible object storage
//   - IPFSDriver: IPFS node via the files (MFS) API
//   - GitHubDriver: read-only fetches from a GitHub repository
//   - VaultDriver: HashiCorp Vault KV v2
//
// DriverFactory builds drivers from location URIs:
//
//	file:///var/lib/storage-router/
//	s3://access:secret@bucket/prefix?region=us-east-1
//	ipfs://127.0.0.1:5001
//	github://owner/repo?branch=main
//	vault://vault.example.com:8200/secret/storage-router?token=...
package storage
