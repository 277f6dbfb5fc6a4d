package handlers

import (
	"errors"
	"io"
	"net/http"

	"chatkanban/internal/contextutil"
	"chatkanban/internal/importer"
)

// IdempotencyKeyHeader carries the per-import deduplication key.
const IdempotencyKeyHeader = "Idempotency-Key"

// ImportHandler accepts captured threads from the browser extension.
type ImportHandler struct {
	importer importer.Importer
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(imp importer.Importer) *ImportHandler {
	return &ImportHandler{importer: imp}
}

// ServeHTTP handles POST /api/import.
func (h *ImportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if methodNotAllowed(w, r, http.MethodPost) {
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if key == "" {
		logger.WarnContext(ctx, "import without idempotency key")
		writeError(w, http.StatusBadRequest, "Idempotency-Key header required")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		logger.WarnContext(ctx, "failed to read import body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.importer.Import(ctx, key, body)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to import thread")
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}
