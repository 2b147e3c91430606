package blobstore

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// ContentType is attached to every uploaded rendition.
const ContentType = "video/mp4"

// Store is the object storage surface the pipeline needs.
type Store interface {
	// Download opens the object at key. Missing objects yield services.ErrNotFound.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// ListByPrefix returns every key under prefix, following pagination.
	ListByPrefix(ctx context.Context, prefix string) ([]string, error)
	// DeleteMany removes keys in as few requests as possible. An empty list is
	// a no-op. Per-key failures are reported as a *DeleteError.
	DeleteMany(ctx context.Context, keys []string) error
	// Upload stores the local file at key, using multipart transfer for large files.
	Upload(ctx context.Context, key, localPath string) error
}

// DeleteError lists the keys a batch delete could not remove.
type DeleteError struct {
	Failed []string
	Reason string
}

func (e *DeleteError) Error() string {
	msg := fmt.Sprintf("%d object(s) not deleted: %s", len(e.Failed), strings.Join(e.Failed, ", "))
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// UploadOptions tunes multipart transfers.
type UploadOptions struct {
	PartSizeMiB int
	Concurrency int
}

func (o UploadOptions) partSizeBytes() int64 {
	if o.PartSizeMiB <= 0 {
		return 5 * 1024 * 1024
	}
	return int64(o.PartSizeMiB) * 1024 * 1024
}

func (o UploadOptions) concurrency() int {
	if o.Concurrency <= 0 {
		return 4
	}
	return o.Concurrency
}

func chunk(keys []string, size int) [][]string {
	var batches [][]string
	for len(keys) > size {
		batches = append(batches, keys[:size])
		keys = keys[size:]
	}
	if len(keys) > 0 {
		batches = append(batches, keys)
	}
	return batches
}
