package publish

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
)

// Publisher copies a freshly written feed somewhere the website can read it.
type Publisher interface {
	Publish(ctx context.Context, name string, data []byte) error
}

// GCSPublisher uploads feeds to a Cloud Storage bucket.
type GCSPublisher struct {
	client  *storage.Client
	bucket  string
	timeout time.Duration
}

// NewGCS creates a GCSPublisher for bucket using application default
// credentials.
func NewGCS(ctx context.Context, bucket string) (*GCSPublisher, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSPublisher{
		client:  client,
		bucket:  bucket,
		timeout: 30 * time.Second,
	}, nil
}

func (p *GCSPublisher) Publish(ctx context.Context, name string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	writer := p.client.Bucket(p.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = "application/json; charset=utf-8"
	writer.CacheControl = "no-cache, max-age=0"

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return fmt.Errorf("uploading gs://%s/%s: %w", p.bucket, name, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing gs://%s/%s: %w", p.bucket, name, err)
	}
	return nil
}

// Close closes the storage client.
func (p *GCSPublisher) Close() error {
	return p.client.Close()
}
