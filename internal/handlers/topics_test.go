package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"chatkanban/internal/service"
	"chatkanban/internal/service/mocks"
	"chatkanban/internal/storage"
)

// withURLParam attaches a chi route parameter to req.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestThreadsHandler_ListTopics(t *testing.T) {
	ctrl := gomock.NewController(t)
	threads := mocks.NewMockThreadService(ctrl)
	threads.EXPECT().ListTopics(gomock.Any()).Return([]storage.Topic{{ID: "topic_a", Title: "A"}}, nil)

	w := httptest.NewRecorder()
	NewThreadsHandler(threads).ListTopics(w, httptest.NewRequest(http.MethodGet, "/api/topics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got TopicsResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Topics) != 1 || got.Topics[0].ID != "topic_a" {
		t.Errorf("topics = %+v", got.Topics)
	}
}

func TestThreadsHandler_GetTopic(t *testing.T) {
	tests := []struct {
		name       string
		mockSetup  func(*mocks.MockThreadService)
		wantStatus int
	}{
		{
			name: "found",
			mockSetup: func(m *mocks.MockThreadService) {
				m.EXPECT().GetTopic(gomock.Any(), "topic_a").Return(&storage.Topic{ID: "topic_a"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not found",
			mockSetup: func(m *mocks.MockThreadService) {
				m.EXPECT().GetTopic(gomock.Any(), "topic_a").Return(nil, service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			threads := mocks.NewMockThreadService(ctrl)
			tt.mockSetup(threads)

			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/topics/topic_a", nil), "topicId", "topic_a")
			w := httptest.NewRecorder()
			NewThreadsHandler(threads).GetTopic(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestThreadsHandler_UpdateTopic(t *testing.T) {
	ctrl := gomock.NewController(t)
	threads := mocks.NewMockThreadService(ctrl)

	title := "Renamed"
	public := storage.VisibilityPublic
	threads.EXPECT().
		UpdateTopic(gomock.Any(), "topic_a", service.TopicPatch{Title: &title, Tags: []string{"go"}, Visibility: &public}).
		Return(&storage.Topic{ID: "topic_a", Title: title, Tags: []string{"go"}, Visibility: public}, nil)

	body := `{"title":"Renamed","tags":["go"],"visibility":"public"}`
	req := withURLParam(httptest.NewRequest(http.MethodPatch, "/api/topics/topic_a", strings.NewReader(body)), "topicId", "topic_a")
	w := httptest.NewRecorder()
	NewThreadsHandler(threads).UpdateTopic(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	var got TopicResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Topic.Title != "Renamed" || got.Topic.Visibility != storage.VisibilityPublic {
		t.Errorf("topic = %+v", got.Topic)
	}
}

func TestThreadsHandler_UpdateTopic_InvalidBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	threads := mocks.NewMockThreadService(ctrl)

	req := withURLParam(httptest.NewRequest(http.MethodPatch, "/api/topics/topic_a", strings.NewReader("{")), "topicId", "topic_a")
	w := httptest.NewRecorder()
	NewThreadsHandler(threads).UpdateTopic(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestThreadsHandler_ListRallies_RequiresTopic(t *testing.T) {
	ctrl := gomock.NewController(t)
	threads := mocks.NewMockThreadService(ctrl)
	threads.EXPECT().ListRallies(gomock.Any(), "").Return(nil, &service.ValidationError{Field: "topicId", Message: "required"})

	w := httptest.NewRecorder()
	NewThreadsHandler(threads).ListRallies(w, httptest.NewRequest(http.MethodGet, "/api/rallies", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var got ErrorResponse
	_ = json.NewDecoder(w.Body).Decode(&got)
	if got.Error != "topicId required" {
		t.Errorf("error = %q, want %q", got.Error, "topicId required")
	}
}

func TestThreadsHandler_ListMessages(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantQuery  service.MessageQuery
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "by rally",
			target:     "/api/messages?rallyId=rally_t_0",
			wantQuery:  service.MessageQuery{RallyID: "rally_t_0"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "by topic",
			target:     "/api/messages?topicId=topic_t",
			wantQuery:  service.MessageQuery{TopicID: "topic_t"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "neither",
			target:     "/api/messages",
			err:        &service.ValidationError{Field: "rallyId or topicId", Message: "required"},
			wantStatus: http.StatusBadRequest,
			wantError:  "rallyId or topicId required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			threads := mocks.NewMockThreadService(ctrl)
			var msgs []storage.Message
			if tt.err == nil {
				msgs = []storage.Message{{ID: "m1", Role: storage.RoleUser, Content: "hi", Timestamp: time.Unix(0, 0).UTC()}}
			}
			threads.EXPECT().ListMessages(gomock.Any(), tt.wantQuery).Return(msgs, tt.err)

			w := httptest.NewRecorder()
			NewThreadsHandler(threads).ListMessages(w, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantError != "" {
				var got ErrorResponse
				_ = json.NewDecoder(w.Body).Decode(&got)
				if got.Error != tt.wantError {
					t.Errorf("error = %q, want %q", got.Error, tt.wantError)
				}
				return
			}
			var got MessagesResponse
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got.Messages) != 1 || got.Messages[0].ID != "m1" {
				t.Errorf("messages = %+v", got.Messages)
			}
		})
	}
}

func TestThreadsHandler_Search(t *testing.T) {
	ctrl := gomock.NewController(t)
	threads := mocks.NewMockThreadService(ctrl)
	threads.EXPECT().Search(gomock.Any(), "hello").Return([]service.SearchHit{
		{TopicID: "topic_t1", MessageID: "m1", Content: "Hello world"},
	}, nil)

	w := httptest.NewRecorder()
	NewThreadsHandler(threads).Search(w, httptest.NewRequest(http.MethodGet, "/api/search?q=hello", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Query != "hello" || got.Count != 1 || got.Results[0].TopicID != "topic_t1" {
		t.Errorf("response = %+v", got)
	}
}

func TestThreadsHandler_Export(t *testing.T) {
	ctrl := gomock.NewController(t)
	threads := mocks.NewMockThreadService(ctrl)
	exportedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	threads.EXPECT().Export(gomock.Any()).Return(&service.Export{
		ExportedAt: exportedAt,
		Data:       []service.ExportedTopic{{Topic: storage.Topic{ID: "topic_t1"}}},
	}, nil)

	w := httptest.NewRecorder()
	NewThreadsHandler(threads).Export(w, httptest.NewRequest(http.MethodGet, "/api/export", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got service.Export
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.ExportedAt.Equal(exportedAt) || len(got.Data) != 1 {
		t.Errorf("export = %+v", got)
	}
}
