package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore writes backup snapshots and run logs to S3-compatible object
// storage. It is write-only from the pipeline's point of view: snapshots are
// immutable run artifacts named by source and run date, so a same-day rerun
// overwrites its own snapshot and runs on different days stay distinct.
type ObjectStore struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

// NewObjectStore connects to the object-storage endpoint and ensures the
// backup bucket exists.
func NewObjectStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store: connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("object store: bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("object store: create bucket: %w", err)
		}
	}

	return &ObjectStore{client: client, bucket: bucket, now: time.Now}, nil
}

// Snapshot serializes payload as one JSON artifact under
// snapshots/{label}_{date}.json.
func (s *ObjectStore) Snapshot(ctx context.Context, label string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("object store: marshal snapshot %s: %w", label, err)
	}

	name := fmt.Sprintf("snapshots/%s_%s.json", sanitizeLabel(label), s.now().Format("2006-01-02"))
	return s.put(ctx, name, data, "application/json")
}

// PutLog stores the run-log text under logs/{name}.log.
func (s *ObjectStore) PutLog(ctx context.Context, name, text string) error {
	objectName := fmt.Sprintf("logs/%s.log", sanitizeLabel(name))
	return s.put(ctx, objectName, []byte(text), "text/plain")
}

func (s *ObjectStore) put(ctx context.Context, name string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, name,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("object store: put %s: %w", name, err)
	}
	return nil
}

func sanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, label)
}
