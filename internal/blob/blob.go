// Package blob stores uploaded and fetched image bytes.
package blob

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("blob not found")

// Store is a flat key→bytes store whose objects are reachable by URL.
type Store interface {
	// Put writes body under key. size may be -1 when unknown.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Open returns the object and its content type. Returns ErrNotFound for a missing key.
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// URL returns the public URL for key.
	URL(key string) string
	// Health checks that the store is reachable and writable.
	Health(ctx context.Context) error
}

// ContentTypeFromExt guesses a content type from a file name's extension.
func ContentTypeFromExt(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".avif":
		return "image/avif"
	case ".svg":
		return "image/svg+xml"
	case ".bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}
