package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ruteri/storage-router/interfaces"
)

// FileDriver stores data on the local file system. It implements the full
// capability set: immutable data lives under <baseDir>/immutable keyed by
// hash, mutable envelopes under <baseDir>/mutable keyed by escaped
// fully-qualified data ID.
type FileDriver struct {
	baseDir string
	log     *slog.Logger
}

// NewFileDriver creates a file storage driver rooted at baseDir, creating
// the directory layout if needed.
func NewFileDriver(baseDir string, log *slog.Logger) (*FileDriver, error) {
	for _, sub := range []string{"immutable", "mutable"} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}

	return &FileDriver{baseDir: baseDir, log: log}, nil
}

// Name returns the unique driver identity.
func (d *FileDriver) Name() string {
	return "disk"
}

// MakeMutableURL returns a file:// URL for the given data ID.
func (d *FileDriver) MakeMutableURL(fqDataID string) (string, error) {
	return "file://" + d.mutablePath(fqDataID), nil
}

// HandlesURL claims file:// URLs under this driver's base directory.
func (d *FileDriver) HandlesURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "file://"+d.baseDir+string(os.PathSeparator))
}

// GetImmutable reads immutable data by hash.
func (d *FileDriver) GetImmutable(ctx context.Context, hash string, hints interfaces.RequestHints) ([]byte, error) {
	data, err := os.ReadFile(d.immutablePath(hash))
	if os.IsNotExist(err) {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	d.log.Debug("Fetched content from file",
		slog.String("hash", hash),
		slog.Int("size", len(data)))
	return data, nil
}

// PutImmutable writes immutable data under its hash.
func (d *FileDriver) PutImmutable(ctx context.Context, hash string, data []byte, txid string) error {
	path := d.immutablePath(hash)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	d.log.Debug("Stored content in file",
		slog.String("path", path),
		slog.String("txid", txid))
	return nil
}

// DeleteImmutable removes immutable data. Missing files are not an error;
// the goal state is already reached.
func (d *FileDriver) DeleteImmutable(ctx context.Context, hash, txid, signatureB64 string) error {
	err := os.Remove(d.immutablePath(hash))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// GetMutable reads a mutable envelope from a file:// URL.
func (d *FileDriver) GetMutable(ctx context.Context, rawURL string, hints interfaces.RequestHints) ([]byte, error) {
	if !d.HandlesURL(rawURL) {
		return nil, interfaces.ErrUnhandledURL
	}

	data, err := os.ReadFile(strings.TrimPrefix(rawURL, "file://"))
	if os.IsNotExist(err) {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// PutMutable writes a mutable envelope under its data ID.
func (d *FileDriver) PutMutable(ctx context.Context, fqDataID string, data []byte, hints interfaces.RequestHints) error {
	if err := os.WriteFile(d.mutablePath(fqDataID), data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// DeleteMutable removes a mutable envelope.
func (d *FileDriver) DeleteMutable(ctx context.Context, fqDataID, signatureB64 string) error {
	err := os.Remove(d.mutablePath(fqDataID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func (d *FileDriver) immutablePath(hash string) string {
	return filepath.Join(d.baseDir, "immutable", url.PathEscape(hash))
}

func (d *FileDriver) mutablePath(fqDataID string) string {
	return filepath.Join(d.baseDir, "mutable", url.PathEscape(fqDataID))
}
