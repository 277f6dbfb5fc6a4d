package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"chatkanban/internal/contextutil"
	"chatkanban/internal/service"
	"chatkanban/internal/storage"
)

// TopicsResponse lists topics.
type TopicsResponse struct {
	Topics []storage.Topic `json:"topics"`
}

// TopicResponse wraps one topic.
type TopicResponse struct {
	Topic *storage.Topic `json:"topic"`
}

// RalliesResponse lists rallies.
type RalliesResponse struct {
	Rallies []storage.Rally `json:"rallies"`
}

// MessagesResponse lists messages.
type MessagesResponse struct {
	Messages []storage.Message `json:"messages"`
}

// SearchResponse carries search hits.
type SearchResponse struct {
	Results []service.SearchHit `json:"results"`
	Query   string              `json:"query"`
	Count   int                 `json:"count"`
}

// ThreadsHandler serves the read side of topics, rallies and messages.
type ThreadsHandler struct {
	threads service.ThreadService
}

// NewThreadsHandler creates a new ThreadsHandler.
func NewThreadsHandler(threads service.ThreadService) *ThreadsHandler {
	return &ThreadsHandler{threads: threads}
}

// ListTopics handles GET /api/topics.
func (h *ThreadsHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topics, err := h.threads.ListTopics(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list topics")
		return
	}
	writeJSON(ctx, w, http.StatusOK, TopicsResponse{Topics: topics})
}

// GetTopic handles GET /api/topics/{topicId}.
func (h *ThreadsHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topic, err := h.threads.GetTopic(ctx, chi.URLParam(r, "topicId"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get topic")
		return
	}
	writeJSON(ctx, w, http.StatusOK, TopicResponse{Topic: topic})
}

// UpdateTopic handles PATCH /api/topics/{topicId}.
func (h *ThreadsHandler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var patch service.TopicPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	topic, err := h.threads.UpdateTopic(ctx, chi.URLParam(r, "topicId"), patch)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to update topic")
		return
	}
	writeJSON(ctx, w, http.StatusOK, TopicResponse{Topic: topic})
}

// ListRallies handles GET /api/rallies?topicId=.
func (h *ThreadsHandler) ListRallies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rallies, err := h.threads.ListRallies(ctx, strings.TrimSpace(r.URL.Query().Get("topicId")))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list rallies")
		return
	}
	writeJSON(ctx, w, http.StatusOK, RalliesResponse{Rallies: rallies})
}

// ListMessages handles GET /api/messages?rallyId=|topicId=.
func (h *ThreadsHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	msgs, err := h.threads.ListMessages(ctx, service.MessageQuery{
		RallyID: strings.TrimSpace(q.Get("rallyId")),
		TopicID: strings.TrimSpace(q.Get("topicId")),
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to fetch messages")
		return
	}
	writeJSON(ctx, w, http.StatusOK, MessagesResponse{Messages: msgs})
}

// Export handles GET /api/export.
func (h *ThreadsHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	export, err := h.threads.Export(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to export")
		return
	}
	writeJSON(ctx, w, http.StatusOK, export)
}

// Search handles GET /api/search?q=.
func (h *ThreadsHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")
	hits, err := h.threads.Search(ctx, query)
	if err != nil {
		handleServiceError(w, ctx, err, "Search failed")
		return
	}
	writeJSON(ctx, w, http.StatusOK, SearchResponse{Results: hits, Query: query, Count: len(hits)})
}
