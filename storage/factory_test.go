package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/storage-router/interfaces"
)

func TestDriverFactorySchemes(t *testing.T) {
	factory := NewDriverFactory(testLogger())

	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"file", "file://" + t.TempDir(), "disk"},
		{"s3", "s3://access:secret@bucket/prefix?region=eu-west-1", "s3"},
		{"ipfs", "ipfs://127.0.0.1:5001", "ipfs"},
		{"github", "github://someorg/somerepo?branch=main", "github-someorg-somerepo"},
		{"vault", "vault://vault.example.com:8200/secret/records?token=abc", "vault"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, err := factory.DriverFor(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, driver.Name())
		})
	}
}

func TestDriverFactoryRejectsBadURIs(t *testing.T) {
	factory := NewDriverFactory(testLogger())

	tests := []struct {
		name string
		uri  string
	}{
		{"unsupported scheme", "gopher://hole"},
		{"github without repo", "github://owner"},
		{"vault without path", "vault://vault.example.com:8200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.DriverFor(tt.uri)
			assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
		})
	}
}

func TestRegistryFromURIs(t *testing.T) {
	factory := NewDriverFactory(testLogger())

	// Bad URIs are skipped, not fatal, as long as something survives.
	registry, err := factory.RegistryFromURIs([]string{
		"gopher://hole",
		"file://" + t.TempDir(),
	})
	require.NoError(t, err)
	assert.Len(t, registry.List(), 1)

	_, err = factory.RegistryFromURIs([]string{"gopher://hole"})
	assert.Error(t, err)
}
