package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSClient implements ObjectStorage on top of a Google Cloud Storage
// bucket. Authentication is ambient: the SDK picks up application default
// credentials from the environment.
type GCSClient struct {
	client *gcstorage.Client
	bucket string
}

func NewGCSClient(ctx context.Context, bucket string) (*GCSClient, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket must be provided")
	}

	client, err := gcstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}

	return &GCSClient{
		client: client,
		bucket: bucket,
	}, nil
}

func (c *GCSClient) List(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	it := c.client.Bucket(c.bucket).Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs list failed: %w", err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func (c *GCSClient) Upload(ctx context.Context, localPath, contentType string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	name := filepath.Base(localPath)
	w := c.client.Bucket(c.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return "", fmt.Errorf("gcs upload of %s failed: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs upload of %s failed: %w", name, err)
	}

	return name, nil
}

func (c *GCSClient) UploadBytes(ctx context.Context, name string, data []byte, contentType string) error {
	w := c.client.Bucket(c.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("gcs upload of %s failed: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs upload of %s failed: %w", name, err)
	}

	return nil
}

func (c *GCSClient) Download(ctx context.Context, name string) ([]byte, error) {
	r, err := c.client.Bucket(c.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gcs download of %s failed: %w", name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs download of %s failed: %w", name, err)
	}
	return data, nil
}

func (c *GCSClient) Exists(ctx context.Context, name string) (bool, error) {
	_, err := c.client.Bucket(c.bucket).Object(name).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("gcs stat of %s failed: %w", name, err)
	}
	return true, nil
}

var _ ObjectStorage = (*GCSClient)(nil)
