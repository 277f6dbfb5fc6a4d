package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"chatkanban/internal/images"
	"chatkanban/internal/storage"
	"chatkanban/internal/storage/mocks"
)

// stubResolver resolves sources found in mapping and fails everything else.
type stubResolver struct {
	mu      sync.Mutex
	mapping map[string]string
	batches [][]string
}

func (s *stubResolver) IsLocal(u string) bool {
	return strings.HasPrefix(u, "/uploads/")
}

func (s *stubResolver) Resolve(_ context.Context, urls []string, _ images.Options) []images.Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]string(nil), urls...))

	out := make([]images.Resolution, len(urls))
	for i, u := range urls {
		out[i].Source = u
		if s.IsLocal(u) {
			out[i].URL, out[i].OK = u, true
			continue
		}
		if local, ok := s.mapping[u]; ok {
			out[i].URL, out[i].OK = local, true
		}
	}
	return out
}

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type seedMessage struct {
	role    storage.Role
	content string
	meta    *storage.Metadata
}

// seedTopic stores a topic whose rallies follow the user-message split rule.
func seedTopic(t *testing.T, repo storage.Repository, threadID, title string, msgs ...seedMessage) []storage.Message {
	t.Helper()
	ctx := context.Background()
	topicID := "topic_" + threadID
	if _, err := repo.CreateTopic(ctx, &storage.Topic{ID: topicID, UserID: "anonymous", Title: title}); err != nil {
		t.Fatalf("CreateTopic() error = %v", err)
	}

	var stored []storage.Message
	rallyIndex := -1
	for i, m := range msgs {
		if rallyIndex < 0 || m.role == storage.RoleUser {
			rallyIndex++
			rally := &storage.Rally{ID: rallyID(threadID, rallyIndex), TopicID: topicID, Index: rallyIndex}
			if err := repo.CreateRally(ctx, rally); err != nil {
				t.Fatalf("CreateRally() error = %v", err)
			}
		}
		msg := storage.Message{
			ID:        rallyID(threadID, rallyIndex) + "_m" + string(rune('a'+i)),
			RallyID:   rallyID(threadID, rallyIndex),
			Role:      m.role,
			Content:   m.content,
			Model:     "unknown",
			Timestamp: baseTime.Add(time.Duration(i) * time.Minute),
			Metadata:  m.meta,
		}
		if err := repo.CreateMessage(ctx, &msg); err != nil {
			t.Fatalf("CreateMessage() error = %v", err)
		}
		stored = append(stored, msg)
	}
	return stored
}

func rallyID(threadID string, index int) string {
	return "rally_" + threadID + "_" + string(rune('0'+index))
}

func scenarioTopic(t *testing.T, repo storage.Repository) []storage.Message {
	return seedTopic(t, repo, "t1", "T",
		seedMessage{role: storage.RoleUser, content: "hi"},
		seedMessage{role: storage.RoleAssistant, content: "hello"},
		seedMessage{role: storage.RoleUser, content: "bye"},
	)
}

func TestThreadService_Search(t *testing.T) {
	repo := storage.NewMemoryRepo()
	scenarioTopic(t, repo)
	svc := NewThreadService(repo, &stubResolver{}, "")
	ctx := context.Background()

	hits, err := svc.Search(ctx, "hello")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Search() = %d hits, want 1", len(hits))
	}
	if hits[0].Role != storage.RoleAssistant || hits[0].TopicID != "topic_t1" || hits[0].RallyID != "rally_t1_0" || hits[0].TopicTitle != "T" {
		t.Errorf("hit = %+v", hits[0])
	}

	seedTopic(t, repo, "t2", "Other", seedMessage{role: storage.RoleUser, content: "HELLO world"})
	hits, err = svc.Search(ctx, "Hello")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("Search() = %d hits, want 2", len(hits))
	}

	// Surrounding spaces are part of the query.
	hits, err = svc.Search(ctx, "Hello ")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].TopicID != "topic_t2" {
		t.Errorf("Search(\"Hello \") = %+v, want only the topic_t2 hit", hits)
	}

	hits, err = svc.Search(ctx, "   ")
	if err != nil || hits == nil || len(hits) != 0 {
		t.Errorf("blank Search() = %v, %v; want empty, nil", hits, err)
	}
}

func TestThreadService_ListMessages_TopicInRallyOrder(t *testing.T) {
	repo := storage.NewMemoryRepo()
	scenarioTopic(t, repo)
	svc := NewThreadService(repo, &stubResolver{}, "")

	msgs, err := svc.ListMessages(context.Background(), MessageQuery{TopicID: "topic_t1"})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	var got []string
	for _, m := range msgs {
		got = append(got, m.Content)
	}
	if want := []string{"hi", "hello", "bye"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ListMessages() = %v, want %v", got, want)
	}

	empty, err := svc.ListMessages(context.Background(), MessageQuery{TopicID: "topic_missing"})
	if err != nil || len(empty) != 0 {
		t.Errorf("unknown topic = %v, %v; want empty", empty, err)
	}

	_, err = svc.ListMessages(context.Background(), MessageQuery{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("empty query error = %v, want ValidationError", err)
	}
}

func TestThreadService_ListMessages_Enrichment(t *testing.T) {
	repo := storage.NewMemoryRepo()
	seeded := seedTopic(t, repo, "img", "Images",
		seedMessage{role: storage.RoleUser, content: "draw"},
		seedMessage{role: storage.RoleAssistant, content: "here", meta: &storage.Metadata{
			ImageURLs: []string{"https://img.example/a.png", "/uploads/b.png", "https://img.example/gone.png"},
		}},
		seedMessage{role: storage.RoleAssistant, content: "inline", meta: &storage.Metadata{
			ImageURLs:     []string{"https://img.example/a.png"},
			ImageDataURLs: []string{"data:image/png;base64,AAAA"},
		}},
	)
	resolver := &stubResolver{mapping: map[string]string{"https://img.example/a.png": "/uploads/01a.png"}}
	svc := NewThreadService(repo, resolver, "https://gemini.google.com/")
	ctx := context.Background()

	msgs, err := svc.ListMessages(ctx, MessageQuery{RallyID: "rally_img_0"})
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}

	enriched := msgs[1].Metadata
	if want := []string{"/uploads/b.png", "/uploads/01a.png"}; !reflect.DeepEqual(enriched.ResolvedImageURLs, want) {
		t.Errorf("resolvedImageUrls = %v, want %v", enriched.ResolvedImageURLs, want)
	}
	if msgs[2].Metadata.ResolvedImageURLs != nil {
		t.Errorf("data-url message should not be enriched: %+v", msgs[2].Metadata)
	}
	if len(resolver.batches) != 1 || len(resolver.batches[0]) != 2 {
		t.Errorf("resolver batches = %v, want one batch of the 2 distinct external URLs", resolver.batches)
	}

	stored, err := repo.GetMessage(ctx, seeded[1].ID)
	if err != nil {
		t.Fatalf("GetMessage() error = %v", err)
	}
	wantMerged := []string{"/uploads/01a.png", "/uploads/b.png", "https://img.example/gone.png"}
	if !reflect.DeepEqual(stored.Metadata.ImageURLs, wantMerged) {
		t.Errorf("stored imageUrls = %v, want %v", stored.Metadata.ImageURLs, wantMerged)
	}
}

func TestThreadService_ListMessages_WriteBackFailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)

	msg := storage.Message{
		ID: "m1", RallyID: "r1", Role: storage.RoleAssistant, Timestamp: baseTime,
		Metadata: &storage.Metadata{ImageURLs: []string{"https://img.example/a.png"}},
	}
	repo.EXPECT().ListMessagesByRallyID(gomock.Any(), "r1").Return([]storage.Message{msg}, nil)
	repo.EXPECT().UpdateMessage(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	resolver := &stubResolver{mapping: map[string]string{"https://img.example/a.png": "/uploads/a.png"}}
	svc := NewThreadService(repo, resolver, "")

	msgs, err := svc.ListMessages(context.Background(), MessageQuery{RallyID: "r1"})
	if err != nil {
		t.Fatalf("ListMessages() error = %v, want nil", err)
	}
	if got := msgs[0].Metadata.ResolvedImageURLs; !reflect.DeepEqual(got, []string{"/uploads/a.png"}) {
		t.Errorf("resolvedImageUrls = %v", got)
	}
}

func TestThreadService_ListRallies(t *testing.T) {
	repo := storage.NewMemoryRepo()
	scenarioTopic(t, repo)
	svc := NewThreadService(repo, nil, "")
	ctx := context.Background()

	rallies, err := svc.ListRallies(ctx, "topic_t1")
	if err != nil || len(rallies) != 2 {
		t.Fatalf("ListRallies() = %v, %v; want 2 rallies", rallies, err)
	}

	if _, err := svc.ListRallies(ctx, ""); err == nil {
		t.Error("ListRallies(\"\") should fail")
	}

	none, err := svc.ListRallies(ctx, "topic_nope")
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("ListRallies(unknown) = %v, %v; want empty", none, err)
	}
}

func TestThreadService_UpdateTopic(t *testing.T) {
	repo := storage.NewMemoryRepo()
	scenarioTopic(t, repo)
	svc := NewThreadService(repo, nil, "")
	ctx := context.Background()

	public := storage.VisibilityPublic
	title := "  Renamed "
	topic, err := svc.UpdateTopic(ctx, "topic_t1", TopicPatch{Title: &title, Tags: []string{"go", " go", "", "ai"}, Visibility: &public})
	if err != nil {
		t.Fatalf("UpdateTopic() error = %v", err)
	}
	if topic.Title != "Renamed" || topic.Visibility != storage.VisibilityPublic || !reflect.DeepEqual(topic.Tags, []string{"go", "ai"}) {
		t.Errorf("UpdateTopic() = %+v", topic)
	}

	bad := storage.Visibility("everyone")
	empty := ""
	_, err = svc.UpdateTopic(ctx, "topic_t1", TopicPatch{Title: &empty, Visibility: &bad})
	var issues ValidationErrors
	if !errors.As(err, &issues) || len(issues) != 2 {
		t.Errorf("UpdateTopic(invalid) error = %v, want 2 issues", err)
	}

	if _, err := svc.UpdateTopic(ctx, "topic_nope", TopicPatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTopic(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestThreadService_Export(t *testing.T) {
	repo := storage.NewMemoryRepo()
	scenarioTopic(t, repo)
	seedTopic(t, repo, "t2", "Second", seedMessage{role: storage.RoleUser, content: "x"})
	svc := NewThreadService(repo, nil, "")

	export, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(export.Data) != 2 {
		t.Fatalf("Export() topics = %d, want 2", len(export.Data))
	}
	for _, d := range export.Data {
		if d.Topic.ID == "topic_t1" && (len(d.Rallies) != 2 || len(d.Messages) != 3) {
			t.Errorf("topic_t1 export = %d rallies, %d messages", len(d.Rallies), len(d.Messages))
		}
	}
	if export.ExportedAt.IsZero() {
		t.Error("ExportedAt not set")
	}
}
