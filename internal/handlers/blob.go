package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"chatkanban/internal/blob"
	"chatkanban/internal/contextutil"
)

// BlobOpener reads stored objects back.
type BlobOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// BlobHandler serves stored images under the uploads prefix from whichever
// blob backend is configured.
type BlobHandler struct {
	blobs BlobOpener
}

// NewBlobHandler creates a new BlobHandler.
func NewBlobHandler(blobs BlobOpener) *BlobHandler {
	return &BlobHandler{blobs: blobs}
}

// ServeHTTP streams the object named by the wildcard route parameter.
func (h *BlobHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if methodNotAllowed(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" || strings.HasSuffix(key, "/") {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	body, contentType, err := h.blobs.Open(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to open blob", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer func() {
		_ = body.Close()
	}()

	if contentType == "" {
		contentType = blob.ContentTypeFromExt(key)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, body); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "blob stream interrupted", "key", key, "error", err)
	}
}
