// Package storage persists uploaded media on local disk or S3-compatible
// object storage.
package storage

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
)

// Store writes and removes objects addressed by key.
type Store interface {
	// Put writes data under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Name identifies the backend in logs and metrics.
	Name() string
}

// NewObjectKey returns a unique key under prefix, bucketed by month.
func NewObjectKey(prefix, ext string, now time.Time) string {
	return path.Join(prefix, now.UTC().Format("2006/01"), fmt.Sprintf("%s%s", uuid.NewString(), ext))
}
