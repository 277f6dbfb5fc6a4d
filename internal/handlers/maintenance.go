package handlers

import (
	"net/http"
	"strings"

	"chatkanban/internal/contextutil"
	"chatkanban/internal/service"
)

// MaintenanceHandler exposes the bulk image jobs.
type MaintenanceHandler struct {
	jobs service.MaintenanceService
}

// NewMaintenanceHandler creates a new MaintenanceHandler.
func NewMaintenanceHandler(jobs service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{jobs: jobs}
}

// ResolveImagesRequest targets a rally or a list of messages.
type ResolveImagesRequest struct {
	RallyID    string   `json:"rallyId"`
	MessageIDs []string `json:"messageIds"`
}

// TopicRequest names one topic.
type TopicRequest struct {
	TopicID string `json:"topicId"`
}

// ReplaceImageURLsRequest lists exact-match substitutions.
type ReplaceImageURLsRequest struct {
	TopicID string                `json:"topicId"`
	Replace []service.Replacement `json:"replace"`
}

// AssignByFilenameRequest lists uploaded files to attach.
type AssignByFilenameRequest struct {
	Files []service.FileAssignment `json:"files"`
}

// AssignByFilenameResponse reports per-topic counts.
type AssignByFilenameResponse struct {
	OK      bool                   `json:"ok"`
	Results []service.AssignResult `json:"results"`
}

func (h *MaintenanceHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		contextutil.LoggerFromContext(r.Context()).WarnContext(r.Context(), "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// ResolveImages handles POST /api/resolve-images.
func (h *MaintenanceHandler) ResolveImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ResolveImagesRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		updated int
		err     error
	)
	switch {
	case strings.TrimSpace(req.RallyID) != "":
		updated, err = h.jobs.ResolveRally(ctx, req.RallyID)
	case req.MessageIDs != nil:
		updated, err = h.jobs.ResolveMessages(ctx, req.MessageIDs)
	default:
		writeError(w, http.StatusBadRequest, "rallyId or messageIds required")
		return
	}
	if err != nil {
		handleServiceError(w, ctx, err, "resolve-images failed")
		return
	}
	writeJSON(ctx, w, http.StatusOK, OKResponse{OK: true, Updated: updated})
}

// MigrateAllImages handles POST /api/maintenance/migrate-all-images.
func (h *MaintenanceHandler) MigrateAllImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	updated, err := h.jobs.MigrateAllImages(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "migrate-all failed")
		return
	}
	writeJSON(ctx, w, http.StatusOK, OKResponse{OK: true, Updated: updated})
}

// MigrateTopicImages handles POST /api/maintenance/migrate-topic-images.
func (h *MaintenanceHandler) MigrateTopicImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req TopicRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.jobs.MigrateTopicImages(ctx, strings.TrimSpace(req.TopicID))
	if err != nil {
		handleServiceError(w, ctx, err, "migrate failed")
		return
	}
	writeJSON(ctx, w, http.StatusOK, OKResponse{OK: true, Updated: updated})
}

// ReplaceImageURLs handles POST /api/maintenance/replace-image-urls.
func (h *MaintenanceHandler) ReplaceImageURLs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ReplaceImageURLsRequest
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.jobs.ReplaceImageURLs(ctx, strings.TrimSpace(req.TopicID), req.Replace)
	if err != nil {
		handleServiceError(w, ctx, err, "replace-image-urls failed")
		return
	}
	writeJSON(ctx, w, http.StatusOK, OKResponse{OK: true, Updated: updated})
}

// AssignByFilename handles POST /api/maintenance/assign-by-filename.
func (h *MaintenanceHandler) AssignByFilename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req AssignByFilenameRequest
	if !h.decode(w, r, &req) {
		return
	}
	results, err := h.jobs.AssignByFilename(ctx, req.Files)
	if err != nil {
		handleServiceError(w, ctx, err, "assign failed")
		return
	}
	writeJSON(ctx, w, http.StatusOK, AssignByFilenameResponse{OK: true, Results: results})
}
