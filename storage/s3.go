package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/ruteri/storage-router/interfaces"
)

// S3Driver stores data in Amazon S3 or a compatible object store. Reads go
// through an anonymous client so public buckets work without credentials;
// writes require static credentials.
type S3Driver struct {
	client      *s3.S3
	writeClient *s3.S3
	bucketName  string
	prefix      string
	publicHost  string
	log         *slog.Logger
}

// S3DriverConfig collects the connection parameters for an S3 driver.
type S3DriverConfig struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // optional, for S3-compatible services
	AccessKey string
	SecretKey string
}

// NewS3Driver creates an S3 storage driver. If no credentials are provided
// the driver is effectively read-only and put operations will fail unless
// the bucket is publicly writable.
func NewS3Driver(cfg S3DriverConfig, log *slog.Logger) (*S3Driver, error) {
	baseCfg := aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		baseCfg.Endpoint = aws.String(cfg.Endpoint)
		baseCfg.S3ForcePathStyle = aws.Bool(true)
	}

	baseSess, err := session.NewSession(&baseCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	readClient := s3.New(baseSess)

	writeClient := readClient
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		writeCfg := baseCfg.Copy()
		writeCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")

		writeSess, err := session.NewSession(writeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS write session: %w", err)
		}
		writeClient = s3.New(writeSess)
	} else {
		log.Warn("No S3 credentials provided - write operations may fail unless bucket is public writable")
	}

	publicHost := fmt.Sprintf("%s.s3.amazonaws.com", cfg.Bucket)
	if cfg.Endpoint != "" {
		if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
			publicHost = u.Host + "/" + cfg.Bucket
		}
	}

	return &S3Driver{
		client:      readClient,
		writeClient: writeClient,
		bucketName:  cfg.Bucket,
		prefix:      strings.Trim(cfg.Prefix, "/"),
		publicHost:  publicHost,
		log:         log,
	}, nil
}

// Name returns the unique driver identity.
func (d *S3Driver) Name() string {
	return "s3"
}

// MakeMutableURL returns the public object URL for a data ID.
func (d *S3Driver) MakeMutableURL(fqDataID string) (string, error) {
	return fmt.Sprintf("https://%s/%s", d.publicHost, d.mutableKey(fqDataID)), nil
}

// HandlesURL claims URLs pointing at this driver's bucket.
func (d *S3Driver) HandlesURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "https://"+d.publicHost+"/")
}

// GetImmutable fetches an object by content hash.
func (d *S3Driver) GetImmutable(ctx context.Context, hash string, hints interfaces.RequestHints) ([]byte, error) {
	return d.getObject(ctx, d.immutableKey(hash))
}

// PutImmutable stores an object under its content hash.
func (d *S3Driver) PutImmutable(ctx context.Context, hash string, data []byte, txid string) error {
	return d.putObject(ctx, d.immutableKey(hash), data)
}

// DeleteImmutable removes an object by content hash.
func (d *S3Driver) DeleteImmutable(ctx context.Context, hash, txid, signatureB64 string) error {
	return d.deleteObject(ctx, d.immutableKey(hash))
}

// GetMutable fetches a mutable envelope through its public object URL.
func (d *S3Driver) GetMutable(ctx context.Context, rawURL string, hints interfaces.RequestHints) ([]byte, error) {
	if !d.HandlesURL(rawURL) {
		return nil, interfaces.ErrUnhandledURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrUnhandledURL, err)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if pathBucket := d.bucketName + "/"; strings.HasPrefix(key, pathBucket) {
		key = strings.TrimPrefix(key, pathBucket)
	}
	return d.getObject(ctx, key)
}

// PutMutable stores a mutable envelope under its data ID.
func (d *S3Driver) PutMutable(ctx context.Context, fqDataID string, data []byte, hints interfaces.RequestHints) error {
	return d.putObject(ctx, d.mutableKey(fqDataID), data)
}

// DeleteMutable removes a mutable envelope.
func (d *S3Driver) DeleteMutable(ctx context.Context, fqDataID, signatureB64 string) error {
	return d.deleteObject(ctx, d.mutableKey(fqDataID))
}

func (d *S3Driver) getObject(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	result, err := d.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			d.log.Debug("Content not found in S3",
				slog.String("bucket", d.bucketName),
				slog.String("key", key),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(result.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	d.log.Debug("Fetched content from S3",
		slog.String("key", key),
		slog.Int("size", buf.Len()),
		slog.Duration("duration", time.Since(start)))
	return buf.Bytes(), nil
}

func (d *S3Driver) putObject(ctx context.Context, key string, data []byte) error {
	start := time.Now()

	_, err := d.writeClient.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put object to S3: %w", err)
	}

	d.log.Debug("Stored content in S3",
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (d *S3Driver) deleteObject(ctx context.Context, key string) error {
	_, err := d.writeClient.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}
	return nil
}

func (d *S3Driver) immutableKey(hash string) string {
	return d.withPrefix("immutable/" + url.PathEscape(hash))
}

func (d *S3Driver) mutableKey(fqDataID string) string {
	return d.withPrefix("mutable/" + url.PathEscape(fqDataID))
}

func (d *S3Driver) withPrefix(key string) string {
	if d.prefix == "" {
		return key
	}
	return d.prefix + "/" + key
}
