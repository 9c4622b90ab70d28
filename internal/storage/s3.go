package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mfenderov/plenar/pkg/models"
)

// Config holds S3/MinIO client configuration.
type Config struct {
	Endpoint        string // "localhost:9000" for MinIO
	Bucket          string // "plenar"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Client mirrors period artifacts into a bucket under periods/<period>/.
type Client struct {
	minioClient *minio.Client
	bucket      string
}

// New creates a new S3/MinIO client.
func New(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	minioClient, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Client{
		minioClient: minioClient,
		bucket:      config.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.minioClient.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	err = c.minioClient.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ObjectName returns the key of an artifact of the given kind.
func ObjectName(period, kind, name string) string {
	return path.Join("periods", period, kind, name)
}

func (c *Client) put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := c.minioClient.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// PutXML uploads a sanitized protocol.
func (c *Client) PutXML(ctx context.Context, period, name, content string) error {
	return c.put(ctx, ObjectName(period, "xml", name), "application/xml", []byte(content))
}

// PutDebate uploads a debate as JSON.
func (c *Client) PutDebate(ctx context.Context, period, name string, debate *models.Debate) error {
	data, err := EncodeDebate(debate)
	if err != nil {
		return err
	}
	return c.put(ctx, ObjectName(period, "json", WithExt(name, ".json")), "application/json", data)
}

// PutMarkdown uploads a rendered transcript.
func (c *Client) PutMarkdown(ctx context.Context, period, name, content string) error {
	return c.put(ctx, ObjectName(period, "markdown", WithExt(name, ".md")), "text/markdown", []byte(content))
}

// ListPeriods returns the periods present in the bucket.
func (c *Client) ListPeriods(ctx context.Context) ([]string, error) {
	var periods []string
	for object := range c.minioClient.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: "periods/"}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		// Non-recursive listing yields common prefixes such as "periods/pp20/".
		if p := path.Base(strings.TrimSuffix(object.Key, "/")); strings.HasSuffix(object.Key, "/") {
			periods = append(periods, p)
		}
	}
	return periods, nil
}

// ListDebates returns the JSON file names of a period, sorted.
func (c *Client) ListDebates(ctx context.Context, period string) ([]string, error) {
	prefix := ObjectName(period, "json", "") + "/"
	var names []string

	objectCh := c.minioClient.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, ".json") {
			names = append(names, path.Base(object.Key))
		}
	}

	slices.Sort(names)
	return names, nil
}

// GetDebate downloads a debate.
func (c *Client) GetDebate(ctx context.Context, period, name string) (*models.Debate, error) {
	key := ObjectName(period, "json", WithExt(name, ".json"))

	object, err := c.minioClient.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get debate: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("debate %s/%s: %w", period, name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read debate: %w", err)
	}

	return decodeDebate(data)
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}
