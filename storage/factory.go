package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/storage-router/interfaces"
)

// DriverFactory creates storage drivers from location URIs and can populate
// a registry from a list of them.
type DriverFactory struct {
	log *slog.Logger
}

// NewDriverFactory creates a new factory instance.
func NewDriverFactory(log *slog.Logger) *DriverFactory {
	return &DriverFactory{log: log}
}

// DriverFor creates a storage driver from a location URI.
//
// Supported schemes:
//   - file:///var/lib/storage-router/
//   - s3://access:secret@bucket/prefix?region=us-east-1&endpoint=...
//   - ipfs://127.0.0.1:5001
//   - github://owner/repo?branch=main
//   - vault://vault.example.com:8200/secret/storage-router?token=...
func (f *DriverFactory) DriverFor(locationURI string) (interfaces.StorageDriver, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return NewFileDriver(u.Path, f.log)

	case "s3":
		cfg := S3DriverConfig{
			Bucket:   u.Host,
			Prefix:   strings.Trim(u.Path, "/"),
			Region:   u.Query().Get("region"),
			Endpoint: u.Query().Get("endpoint"),
		}
		if u.User != nil {
			cfg.AccessKey = u.User.Username()
			cfg.SecretKey, _ = u.User.Password()
		}
		if cfg.Region == "" {
			cfg.Region = "us-east-1"
		}
		return NewS3Driver(cfg, f.log)

	case "ipfs":
		host := u.Hostname()
		port := u.Port()
		if port == "" {
			port = "5001"
		}
		return NewIPFSDriver(host, port, f.log), nil

	case "github":
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if u.Host == "" || len(parts) != 1 || parts[0] == "" {
			return nil, fmt.Errorf("%w: github URI must be github://owner/repo", interfaces.ErrInvalidLocationURI)
		}
		return NewGitHubDriver(u.Host, parts[0], u.Query().Get("branch"), f.log), nil

	case "vault":
		scheme := "https"
		if u.Query().Get("insecure") == "true" {
			scheme = "http"
		}
		segments := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
		if u.Host == "" || len(segments) != 2 {
			return nil, fmt.Errorf("%w: vault URI must be vault://host:port/mount/path", interfaces.ErrInvalidLocationURI)
		}
		return NewVaultDriver(scheme+"://"+u.Host, u.Query().Get("token"), segments[0], segments[1], f.log)

	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// RegistryFromURIs builds a driver registry from a list of location URIs.
// URIs that fail to produce a driver are logged and skipped; an error is
// returned only when no driver at all could be created.
func (f *DriverFactory) RegistryFromURIs(locationURIs []string) (*DriverRegistry, error) {
	registry := NewDriverRegistry(f.log)

	for _, uri := range locationURIs {
		driver, err := f.DriverFor(uri)
		if err != nil {
			f.log.Warn("Failed to create storage driver",
				"err", err,
				slog.String("locationURI", uri))
			continue
		}
		if err := registry.Register(driver); err != nil {
			f.log.Warn("Failed to register storage driver",
				"err", err,
				slog.String("driver", driver.Name()))
		}
	}

	if len(registry.List()) == 0 {
		return nil, fmt.Errorf("no valid storage drivers created")
	}
	return registry, nil
}
