// Package storage abstracts the blob backend holding image and document
// content. The MinIO implementation works with any S3-compatible provider;
// swap implementations by changing the concrete type injected at startup.
package storage

import (
	"context"
	"time"
)

// ObjectInfo is what the sweeper needs to judge an object: its key and age.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// BlobStore is the interface for uploading and retrieving content objects,
// namespaced under a single bucket.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
	// PublicURL constructs the browser-accessible URL for a key.
	PublicURL(key string) string
	// KeyFromURL inverts PublicURL. ok is false for URLs outside this store.
	KeyFromURL(u string) (key string, ok bool)
	// List walks every object under prefix ("" for the whole bucket).
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
