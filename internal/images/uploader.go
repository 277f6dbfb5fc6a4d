package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"chatkanban/internal/blob"
)

// ErrInvalidDataURL is returned for input that is not a base64 data URL.
var ErrInvalidDataURL = errors.New("invalid dataUrl")

const maxCollisionSuffix = 99

var dataURLPattern = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)

// Saved describes a stored image.
type Saved struct {
	Key         string `json:"-"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
}

// Uploader writes client-supplied image bytes to the blob store.
type Uploader struct {
	store blob.Store
}

// NewUploader creates an Uploader.
func NewUploader(store blob.Store) *Uploader {
	return &Uploader{store: store}
}

// SaveBytes stores data under a fresh ULID name. The extension comes from
// filename, then contentType, then the sniffed type, then ".bin".
func (u *Uploader) SaveBytes(ctx context.Context, data []byte, filename, contentType string) (Saved, error) {
	sniffed := mimetype.Detect(data)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	sniffedExt := ""
	if strings.HasPrefix(sniffed.String(), "image/") {
		sniffedExt = extFromType(sniffed.String())
	}
	ext := firstExt(extFromName(filename), extFromType(contentType), sniffedExt)
	return put(ctx, u.store, NewObjectName(ext), data, contentType)
}

// SaveDataURL decodes a data:<mime>;base64,<payload> string and stores it.
// A usable filename is kept (sanitized) with _NN suffixes on collision.
func (u *Uploader) SaveDataURL(ctx context.Context, dataURL, filename string) (Saved, error) {
	mime, data, err := DecodeDataURL(dataURL)
	if err != nil {
		return Saved{}, err
	}
	ext := firstExt(extFromType(mime))

	base := sanitizeBase(filename)
	if base == "" {
		return put(ctx, u.store, NewObjectName(ext), data, mime)
	}

	key, err := u.freeName(ctx, base, ext)
	if err != nil {
		return Saved{}, err
	}
	return put(ctx, u.store, key, data, mime)
}

func (u *Uploader) freeName(ctx context.Context, base, ext string) (string, error) {
	candidate := base + ext
	for i := 1; ; i++ {
		exists, err := u.store.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		if i > maxCollisionSuffix {
			return NewObjectName(ext), nil
		}
		candidate = fmt.Sprintf("%s_%02d%s", base, i, ext)
	}
}

// DecodeDataURL splits a base64 data URL into its MIME type and bytes.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(dataURL))
	if m == nil {
		return "", nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(m[2], "="))
		if err != nil {
			return "", nil, ErrInvalidDataURL
		}
	}
	return m[1], data, nil
}

func put(ctx context.Context, store blob.Store, key string, data []byte, contentType string) (Saved, error) {
	if err := store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return Saved{}, fmt.Errorf("failed to store %s: %w", key, err)
	}
	return Saved{Key: key, URL: store.URL(key), ContentType: contentType}, nil
}
