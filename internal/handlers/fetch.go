package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"chatkanban/internal/contextutil"
	"chatkanban/internal/images"
)

// ImageStorer downloads an image and stores a local copy.
type ImageStorer interface {
	FetchAndStore(ctx context.Context, rawURL, referer string) (images.Saved, error)
}

// FetchUploadRequest names a remote image to copy.
type FetchUploadRequest struct {
	URL     string `json:"url"`
	Referer string `json:"referer"`
}

// FetchFailedResponse reports the upstream status of a failed copy.
type FetchFailedResponse struct {
	Error      string `json:"error"`
	Status     int    `json:"status,omitempty"`
	StatusText string `json:"statusText,omitempty"`
}

// FetchUploadHandler copies a remote image into the blob store.
type FetchUploadHandler struct {
	storer ImageStorer
}

// NewFetchUploadHandler creates a new FetchUploadHandler.
func NewFetchUploadHandler(storer ImageStorer) *FetchUploadHandler {
	return &FetchUploadHandler{storer: storer}
}

// ServeHTTP handles POST /api/fetch-upload.
func (h *FetchUploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	var req FetchUploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}
	referer := req.Referer
	if referer == "" {
		referer = images.DefaultReferer
	}

	saved, err := h.storer.FetchAndStore(ctx, req.URL, referer)
	if err != nil {
		if errors.Is(err, images.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, "invalid url")
			return
		}
		logger.WarnContext(ctx, "fetch-upload failed", "url", req.URL, "error", err)
		resp := FetchFailedResponse{Error: "fetch failed"}
		var statusErr *images.StatusError
		if errors.As(err, &statusErr) {
			resp.Status = statusErr.StatusCode
			resp.StatusText = statusErr.StatusText()
		}
		writeJSON(ctx, w, http.StatusBadGateway, resp)
		return
	}
	writeJSON(ctx, w, http.StatusOK, saved)
}

// ImageProxyHandler streams a remote image through this server so pages can
// show images whose hosts require browser headers.
type ImageProxyHandler struct {
	fetcher *images.Fetcher
}

// NewImageProxyHandler creates a new ImageProxyHandler.
func NewImageProxyHandler(fetcher *images.Fetcher) *ImageProxyHandler {
	return &ImageProxyHandler{fetcher: fetcher}
}

// ServeHTTP handles GET /api/image-proxy?src=&referer=.
func (h *ImageProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if methodNotAllowed(w, r, http.MethodGet) {
		return
	}

	src := strings.TrimSpace(r.URL.Query().Get("src"))
	if src == "" {
		writeError(w, http.StatusBadRequest, "src required")
		return
	}
	referer := r.URL.Query().Get("referer")
	if referer == "" {
		referer = images.DefaultReferer
	}

	resp, err := h.fetcher.Open(ctx, src, referer)
	if err != nil {
		if errors.Is(err, images.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, "invalid src")
			return
		}
		logger.WarnContext(ctx, "image proxy upstream failed", "src", src, "error", err)
		writeError(w, http.StatusBadGateway, "upstream error")
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.WarnContext(ctx, "image proxy copy interrupted", "src", src, "error", err)
	}
}
