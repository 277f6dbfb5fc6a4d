package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"chatkanban/internal/contextutil"
	"chatkanban/internal/images"
)

// UploadHandler stores client-supplied images.
type UploadHandler struct {
	uploader *images.Uploader
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(uploader *images.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// DataURLRequest carries an inline image.
type DataURLRequest struct {
	DataURL  string `json:"dataUrl"`
	Filename string `json:"filename"`
}

// Upload handles POST /api/upload with a multipart "file" field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		logger.WarnContext(ctx, "upload without file", "error", err)
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.WarnContext(ctx, "failed to read upload", "error", err)
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	saved, err := h.uploader.SaveBytes(ctx, data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		logger.ErrorContext(ctx, "failed to store upload", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	logger.InfoContext(ctx, "stored upload", "url", saved.URL, "bytes", len(data))
	writeJSON(ctx, w, http.StatusOK, saved)
}

// UploadDataURL handles POST /api/upload-dataurl.
func (h *UploadHandler) UploadDataURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req DataURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.DataURL) == "" {
		writeError(w, http.StatusBadRequest, "dataUrl required")
		return
	}

	saved, err := h.uploader.SaveDataURL(ctx, req.DataURL, req.Filename)
	if err != nil {
		if errors.Is(err, images.ErrInvalidDataURL) {
			writeError(w, http.StatusBadRequest, "invalid dataUrl")
			return
		}
		logger.ErrorContext(ctx, "failed to store data url", "error", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	writeJSON(ctx, w, http.StatusOK, saved)
}
