package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"

	"github.com/ruteri/storage-router/interfaces"
)

// VaultDriver stores data in HashiCorp Vault using the KV v2 secrets engine.
// Payload bytes are base64-encoded into a single secret field so envelopes
// survive Vault's JSON round-trip untouched.
type VaultDriver struct {
	client    *vault.Client
	mount     string
	basePath  string
	urlPrefix string
	log       *slog.Logger
}

// NewVaultDriver creates a Vault storage driver.
//
//   - address: Vault server address, e.g. https://vault.example.com:8200
//   - token: Vault token used for authentication
//   - mount: KV v2 mount path, e.g. "secret"
//   - basePath: path prefix within the mount, e.g. "storage-router"
func NewVaultDriver(address, token, mount, basePath string, log *slog.Logger) (*VaultDriver, error) {
	config := vault.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := vault.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	client.SetToken(token)

	host := address
	if u, err := url.Parse(address); err == nil && u.Host != "" {
		host = u.Host
	}

	mount = strings.Trim(mount, "/")
	basePath = strings.Trim(basePath, "/")

	return &VaultDriver{
		client:    client,
		mount:     mount,
		basePath:  basePath,
		urlPrefix: fmt.Sprintf("vault://%s/%s/%s/", host, mount, basePath),
		log:       log,
	}, nil
}

// Name returns the unique driver identity.
func (d *VaultDriver) Name() string {
	return "vault"
}

// MakeMutableURL returns the driver's URL for a data ID.
func (d *VaultDriver) MakeMutableURL(fqDataID string) (string, error) {
	return d.urlPrefix + "mutable/" + url.PathEscape(fqDataID), nil
}

// HandlesURL claims vault:// URLs under this driver's mount and base path.
func (d *VaultDriver) HandlesURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, d.urlPrefix)
}

// GetImmutable reads immutable data by hash.
func (d *VaultDriver) GetImmutable(ctx context.Context, hash string, hints interfaces.RequestHints) ([]byte, error) {
	return d.read(ctx, d.secretPath("immutable", hash))
}

// PutImmutable writes immutable data under its hash.
func (d *VaultDriver) PutImmutable(ctx context.Context, hash string, data []byte, txid string) error {
	return d.write(ctx, d.secretPath("immutable", hash), data)
}

// DeleteImmutable removes immutable data.
func (d *VaultDriver) DeleteImmutable(ctx context.Context, hash, txid, signatureB64 string) error {
	return d.delete(ctx, d.secretPath("immutable", hash))
}

// GetMutable reads a mutable envelope from a vault:// URL.
func (d *VaultDriver) GetMutable(ctx context.Context, rawURL string, hints interfaces.RequestHints) ([]byte, error) {
	if !d.HandlesURL(rawURL) {
		return nil, interfaces.ErrUnhandledURL
	}
	return d.read(ctx, d.basePath+"/"+strings.TrimPrefix(rawURL, d.urlPrefix))
}

// PutMutable writes a mutable envelope under its data ID.
func (d *VaultDriver) PutMutable(ctx context.Context, fqDataID string, data []byte, hints interfaces.RequestHints) error {
	return d.write(ctx, d.secretPath("mutable", fqDataID), data)
}

// DeleteMutable removes a mutable envelope.
func (d *VaultDriver) DeleteMutable(ctx context.Context, fqDataID, signatureB64 string) error {
	return d.delete(ctx, d.secretPath("mutable", fqDataID))
}

func (d *VaultDriver) read(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()

	secret, err := d.client.KVv2(d.mount).Get(ctx, path)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return nil, interfaces.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}

	encoded, ok := secret.Data["payload"].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected secret layout at %s", path)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret payload: %w", err)
	}

	d.log.Debug("Fetched content from Vault",
		slog.String("path", path),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))
	return data, nil
}

func (d *VaultDriver) write(ctx context.Context, path string, data []byte) error {
	_, err := d.client.KVv2(d.mount).Put(ctx, path, map[string]interface{}{
		"payload": base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return fmt.Errorf("failed to write secret to Vault: %w", err)
	}

	d.log.Debug("Stored content in Vault",
		slog.String("path", path),
		slog.Int("size", len(data)))
	return nil
}

func (d *VaultDriver) delete(ctx context.Context, path string) error {
	if err := d.client.KVv2(d.mount).DeleteMetadata(ctx, path); err != nil {
		return fmt.Errorf("failed to delete secret from Vault: %w", err)
	}
	return nil
}

func (d *VaultDriver) secretPath(namespace, key string) string {
	return d.basePath + "/" + namespace + "/" + url.PathEscape(key)
}
