package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"chatkanban/internal/contextutil"
	"chatkanban/internal/service"
)

const (
	maxJSONBody   = 16 << 20
	maxUploadBody = 32 << 20
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error  string  `json:"error"`
	Issues []Issue `json:"issues,omitempty"`
}

// Issue is one validation failure.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// OKResponse is returned by batch jobs.
type OKResponse struct {
	OK      bool `json:"ok"`
	Updated int  `json:"updated"`
}

// writeJSON writes v with the given status.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// methodNotAllowed rejects r unless its method is one of allowed.
func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	for _, m := range allowed {
		if r.Method == m {
			return false
		}
	}
	contextutil.LoggerFromContext(r.Context()).WarnContext(r.Context(), "method not allowed", "method", r.Method)
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return true
}

// decodeJSON reads a capped JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var issues service.ValidationErrors
	if errors.As(err, &issues) {
		logger.WarnContext(ctx, "validation failed", "error", err)
		resp := ErrorResponse{Error: "Invalid body", Issues: make([]Issue, len(issues))}
		for i, is := range issues {
			resp.Issues[i] = Issue{Field: is.Field, Message: is.Message}
		}
		writeJSON(ctx, w, http.StatusBadRequest, resp)
		return
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "validation failed", "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s %s", validationErr.Field, validationErr.Message))
		return
	}

	// Check for wrapped errors
	if errors.Is(err, service.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	if errors.Is(err, service.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Resource not found")
		return
	}

	logger.ErrorContext(ctx, "service error", "error", err)
	if errors.Is(err, service.ErrExternalService) {
		writeError(w, http.StatusBadGateway, "External service error")
		return
	}

	// Default to internal server error
	writeError(w, http.StatusInternalServerError, defaultMsg)
}

func isNotFound(err error) bool {
	return errors.Is(err, service.ErrNotFound)
}
