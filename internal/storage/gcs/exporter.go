// Package gcs uploads finished crawl results to Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/JakeFAU/floorplan-crawler/internal/hash/sha256"
)

const defaultContentType = "text/csv; charset=utf-8"

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket      string
	Prefix      string
	ContentType string
}

// Exporter writes crawl artifacts to a configured GCS bucket.
type Exporter struct {
	client      *storage.Client
	bucket      string
	prefix      string
	contentType string
}

// New creates a GCS-backed exporter.
func New(client *storage.Client, cfg Config) (*Exporter, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	contentType := cfg.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	return &Exporter{
		client:      client,
		bucket:      cfg.Bucket,
		prefix:      strings.Trim(cfg.Prefix, "/"),
		contentType: contentType,
	}, nil
}

// ObjectPath returns the object name used for a run's CSV.
func (e *Exporter) ObjectPath(runID string) string {
	name := runID + ".csv"
	if e.prefix == "" {
		return name
	}
	return path.Join(e.prefix, name)
}

// ExportFile uploads the file at localPath as the run's CSV and returns its
// gs:// URI. The object carries run_id and sha256 metadata.
func (e *Exporter) ExportFile(ctx context.Context, runID, localPath string) (string, error) {
	if strings.TrimSpace(runID) == "" {
		return "", fmt.Errorf("run id is required")
	}
	digest, err := sha256.File(localPath)
	if err != nil {
		return "", fmt.Errorf("digest export file: %w", err)
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open export file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return e.PutObject(ctx, e.ObjectPath(runID), f, map[string]string{
		"run_id": runID,
		"sha256": digest,
	})
}

// PutObject uploads data to the configured bucket and returns a gs:// URI.
func (e *Exporter) PutObject(ctx context.Context, objectPath string, r io.Reader, metadata map[string]string) (string, error) {
	if strings.TrimSpace(objectPath) == "" {
		return "", fmt.Errorf("path is required")
	}
	writer := e.client.Bucket(e.bucket).Object(objectPath).NewWriter(ctx)
	writer.ContentType = e.contentType
	writer.Metadata = metadata
	if _, err := io.Copy(writer, r); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", e.bucket, objectPath), nil
}
