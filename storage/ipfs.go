package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/ruteri/storage-router/interfaces"
)

// mfsRoot is the MFS directory the driver keeps its namespaces under.
const mfsRoot = "/storage-router"

// IPFSDriver stores data on an IPFS node through its files (MFS) API, which
// gives stable per-hash and per-data-ID paths on top of content addressing.
type IPFSDriver struct {
	shell   *shell.Shell
	apiAddr string
	log     *slog.Logger
}

// NewIPFSDriver creates an IPFS storage driver connected to the node's API
// at host:port.
func NewIPFSDriver(host, port string, log *slog.Logger) *IPFSDriver {
	apiAddr := fmt.Sprintf("%s:%s", host, port)
	return &IPFSDriver{
		shell:   shell.NewShell(apiAddr),
		apiAddr: apiAddr,
		log:     log,
	}
}

// Name returns the unique driver identity.
func (d *IPFSDriver) Name() string {
	return "ipfs"
}

// MakeMutableURL returns the driver's URL for a data ID.
func (d *IPFSDriver) MakeMutableURL(fqDataID string) (string, error) {
	return fmt.Sprintf("ipfs://%s/mutable/%s", d.apiAddr, url.PathEscape(fqDataID)), nil
}

// HandlesURL claims ipfs:// URLs pointing at this node.
func (d *IPFSDriver) HandlesURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "ipfs://"+d.apiAddr+"/")
}

// GetImmutable reads immutable data by hash from the node's MFS.
func (d *IPFSDriver) GetImmutable(ctx context.Context, hash string, hints interfaces.RequestHints) ([]byte, error) {
	return d.read(ctx, d.immutablePath(hash))
}

// PutImmutable writes immutable data under its hash.
func (d *IPFSDriver) PutImmutable(ctx context.Context, hash string, data []byte, txid string) error {
	return d.write(ctx, d.immutablePath(hash), data)
}

// DeleteImmutable removes immutable data.
func (d *IPFSDriver) DeleteImmutable(ctx context.Context, hash, txid, signatureB64 string) error {
	return d.remove(ctx, d.immutablePath(hash))
}

// GetMutable reads a mutable envelope from an ipfs:// URL.
func (d *IPFSDriver) GetMutable(ctx context.Context, rawURL string, hints interfaces.RequestHints) ([]byte, error) {
	if !d.HandlesURL(rawURL) {
		return nil, interfaces.ErrUnhandledURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrUnhandledURL, err)
	}
	return d.read(ctx, mfsRoot+u.Path)
}

// PutMutable writes a mutable envelope under its data ID.
func (d *IPFSDriver) PutMutable(ctx context.Context, fqDataID string, data []byte, hints interfaces.RequestHints) error {
	return d.write(ctx, d.mutablePath(fqDataID), data)
}

// DeleteMutable removes a mutable envelope.
func (d *IPFSDriver) DeleteMutable(ctx context.Context, fqDataID, signatureB64 string) error {
	return d.remove(ctx, d.mutablePath(fqDataID))
}

func (d *IPFSDriver) read(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()

	if !d.shell.IsUp() {
		d.log.Warn("IPFS node unavailable", slog.String("api", d.apiAddr))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := d.shell.FilesRead(ctx, path)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			d.log.Debug("Content not found in IPFS",
				slog.String("path", path),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to fetch data from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from IPFS: %w", err)
	}

	d.log.Debug("Fetched content from IPFS",
		slog.String("path", path),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))
	return data, nil
}

func (d *IPFSDriver) write(ctx context.Context, path string, data []byte) error {
	start := time.Now()

	if !d.shell.IsUp() {
		return interfaces.ErrBackendUnavailable
	}

	err := d.shell.FilesWrite(ctx, path, bytes.NewReader(data),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		return fmt.Errorf("failed to write data to IPFS: %w", err)
	}

	d.log.Debug("Stored content in IPFS",
		slog.String("path", path),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (d *IPFSDriver) remove(ctx context.Context, path string) error {
	if !d.shell.IsUp() {
		return interfaces.ErrBackendUnavailable
	}

	if err := d.shell.FilesRm(ctx, path, true); err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			return nil
		}
		return fmt.Errorf("failed to remove data from IPFS: %w", err)
	}
	return nil
}

func (d *IPFSDriver) immutablePath(hash string) string {
	return mfsRoot + "/immutable/" + url.PathEscape(hash)
}

func (d *IPFSDriver) mutablePath(fqDataID string) string {
	return mfsRoot + "/mutable/" + url.PathEscape(fqDataID)
}
