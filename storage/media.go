package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MediaStore is the slice of object storage the quiz backend needs:
// uploading question images and deleting them when their quiz is swept.
type MediaStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, objectName string) error
	// ObjectNameFromURL maps a stored image URL back to its object name,
	// or "" if the URL does not belong to this store.
	ObjectNameFromURL(imageURL string) string
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base for uploaded objects,
	// e.g. "https://cdn.example.com/quiz-images".
	PublicURL string
}

// S3Client backs MediaStore with any S3-compatible endpoint.
type S3Client struct {
	client *minio.Client
	config *S3Config
}

func NewS3Client(cfg *S3Config) (*S3Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &S3Client{
		client: client,
		config: cfg,
	}, nil
}

// EnsureBucket creates the configured bucket if it does not exist yet.
func (c *S3Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := c.client.MakeBucket(ctx, c.config.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

func (c *S3Client) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := c.client.PutObject(ctx, c.config.Bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return strings.TrimRight(c.config.PublicURL, "/") + "/" + objectName, nil
}

func (c *S3Client) Delete(ctx context.Context, objectName string) error {
	err := c.client.RemoveObject(ctx, c.config.Bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

func (c *S3Client) ObjectNameFromURL(imageURL string) string {
	if imageURL == "" || c.config.PublicURL == "" {
		return ""
	}
	base := strings.TrimRight(c.config.PublicURL, "/") + "/"
	if !strings.HasPrefix(imageURL, base) {
		return ""
	}

	objectName := strings.TrimPrefix(imageURL, base)
	if i := strings.IndexAny(objectName, "?#"); i >= 0 {
		objectName = objectName[:i]
	}
	return objectName
}
