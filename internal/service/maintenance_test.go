package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"chatkanban/internal/storage"
)

func imageMeta(urls ...string) *storage.Metadata {
	return &storage.Metadata{ImageURLs: urls}
}

func TestMaintenanceService_MigrateTopicImages(t *testing.T) {
	repo := storage.NewMemoryRepo()
	seeded := seedTopic(t, repo, "m", "Migrate",
		seedMessage{role: storage.RoleUser, content: "q"},
		seedMessage{role: storage.RoleAssistant, content: "remote", meta: imageMeta("https://img.example/a.png", "https://img.example/404.png")},
		seedMessage{role: storage.RoleAssistant, content: "local", meta: imageMeta("/uploads/x.png")},
		seedMessage{role: storage.RoleAssistant, content: "inline", meta: &storage.Metadata{
			ImageURLs: []string{"https://img.example/a.png"}, ImageDataURLs: []string{"data:image/png;base64,AA"},
		}},
		seedMessage{role: storage.RoleAssistant, content: "unresolvable", meta: imageMeta("https://img.example/404.png")},
	)
	resolver := &stubResolver{mapping: map[string]string{"https://img.example/a.png": "/uploads/01a.png"}}
	svc := NewMaintenanceService(repo, resolver, "")
	ctx := context.Background()

	updated, err := svc.MigrateTopicImages(ctx, "topic_m")
	if err != nil {
		t.Fatalf("MigrateTopicImages() error = %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	m, _ := repo.GetMessage(ctx, seeded[1].ID)
	if want := []string{"/uploads/01a.png", "https://img.example/404.png"}; !reflect.DeepEqual(m.Metadata.ImageURLs, want) {
		t.Errorf("imageUrls = %v, want %v", m.Metadata.ImageURLs, want)
	}
	if want := []string{"/uploads/01a.png"}; !reflect.DeepEqual(m.Metadata.ResolvedImageURLs, want) {
		t.Errorf("resolvedImageUrls = %v, want %v", m.Metadata.ResolvedImageURLs, want)
	}

	inline, _ := repo.GetMessage(ctx, seeded[3].ID)
	if inline.Metadata.ImageURLs[0] != "https://img.example/a.png" {
		t.Errorf("data-url message was rewritten: %v", inline.Metadata.ImageURLs)
	}

	// A second run finds nothing new.
	again, err := svc.MigrateTopicImages(ctx, "topic_m")
	if err != nil || again != 0 {
		t.Errorf("second run = %d, %v; want 0", again, err)
	}

	if _, err := svc.MigrateTopicImages(ctx, ""); err == nil {
		t.Error("MigrateTopicImages(\"\") should fail")
	}
}

func TestMaintenanceService_MigrateAllImages(t *testing.T) {
	repo := storage.NewMemoryRepo()
	seedTopic(t, repo, "a", "A", seedMessage{role: storage.RoleAssistant, content: "x", meta: imageMeta("https://img.example/1.png")})
	seedTopic(t, repo, "b", "B", seedMessage{role: storage.RoleAssistant, content: "y", meta: imageMeta("https://img.example/2.png")})
	resolver := &stubResolver{mapping: map[string]string{
		"https://img.example/1.png": "/uploads/1.png",
		"https://img.example/2.png": "/uploads/2.png",
	}}

	updated, err := NewMaintenanceService(repo, resolver, "").MigrateAllImages(context.Background())
	if err != nil || updated != 2 {
		t.Errorf("MigrateAllImages() = %d, %v; want 2", updated, err)
	}
}

func TestMaintenanceService_ResolveTargets(t *testing.T) {
	repo := storage.NewMemoryRepo()
	seeded := seedTopic(t, repo, "r", "R",
		seedMessage{role: storage.RoleUser, content: "q"},
		seedMessage{role: storage.RoleAssistant, content: "a", meta: imageMeta("https://img.example/a.png")},
	)
	resolver := &stubResolver{mapping: map[string]string{"https://img.example/a.png": "/uploads/a.png"}}
	svc := NewMaintenanceService(repo, resolver, "")
	ctx := context.Background()

	updated, err := svc.ResolveMessages(ctx, []string{"missing", seeded[1].ID})
	if err != nil || updated != 1 {
		t.Errorf("ResolveMessages() = %d, %v; want 1", updated, err)
	}

	updated, err = svc.ResolveRally(ctx, "rally_r_0")
	if err != nil || updated != 0 {
		t.Errorf("ResolveRally() after resolution = %d, %v; want 0", updated, err)
	}
	if _, err := svc.ResolveRally(ctx, " "); err == nil {
		t.Error("ResolveRally(blank) should fail")
	}
}

func TestMaintenanceService_ReplaceImageURLs(t *testing.T) {
	repo := storage.NewMemoryRepo()
	a := seedTopic(t, repo, "a", "A", seedMessage{role: storage.RoleAssistant, content: "x", meta: &storage.Metadata{
		ImageURLs:         []string{"https://old.example/1.png", "https://keep.example/2.png"},
		ResolvedImageURLs: []string{"https://old.example/1.png"},
	}})
	b := seedTopic(t, repo, "b", "B", seedMessage{role: storage.RoleAssistant, content: "y", meta: imageMeta("https://old.example/1.png")})
	svc := NewMaintenanceService(repo, nil, "")
	ctx := context.Background()
	replace := []Replacement{{From: "https://old.example/1.png", To: "/uploads/1.png"}, {From: "https://noop", To: ""}}

	updated, err := svc.ReplaceImageURLs(ctx, "topic_a", replace)
	if err != nil || updated != 1 {
		t.Fatalf("ReplaceImageURLs(topic_a) = %d, %v; want 1", updated, err)
	}
	m, _ := repo.GetMessage(ctx, a[0].ID)
	if want := []string{"/uploads/1.png", "https://keep.example/2.png"}; !reflect.DeepEqual(m.Metadata.ImageURLs, want) {
		t.Errorf("imageUrls = %v, want %v", m.Metadata.ImageURLs, want)
	}
	if want := []string{"/uploads/1.png"}; !reflect.DeepEqual(m.Metadata.ResolvedImageURLs, want) {
		t.Errorf("resolvedImageUrls = %v, want %v", m.Metadata.ResolvedImageURLs, want)
	}
	untouched, _ := repo.GetMessage(ctx, b[0].ID)
	if untouched.Metadata.ImageURLs[0] != "https://old.example/1.png" {
		t.Error("topic filter ignored")
	}

	updated, err = svc.ReplaceImageURLs(ctx, "", replace)
	if err != nil || updated != 1 {
		t.Errorf("ReplaceImageURLs(all) = %d, %v; want 1", updated, err)
	}

	var verr *ValidationError
	if _, err := svc.ReplaceImageURLs(ctx, "", nil); !errors.As(err, &verr) {
		t.Errorf("empty replace error = %v, want ValidationError", err)
	}
}

func TestMaintenanceService_AssignByFilename(t *testing.T) {
	repo := storage.NewMemoryRepo()
	withAssistant := seedTopic(t, repo, "one", "One",
		seedMessage{role: storage.RoleUser, content: "q"},
		seedMessage{role: storage.RoleAssistant, content: "a", meta: &storage.Metadata{Extra: nil}},
	)
	seedTopic(t, repo, "two", "Two", seedMessage{role: storage.RoleUser, content: "only a question"})
	if _, err := repo.CreateTopic(context.Background(), &storage.Topic{ID: "three", Title: "Empty"}); err != nil {
		t.Fatalf("CreateTopic() error = %v", err)
	}
	svc := NewMaintenanceService(repo, nil, "")
	ctx := context.Background()

	results, err := svc.AssignByFilename(ctx, []FileAssignment{
		{Filename: "topic_one_002.PNG", URL: "/uploads/b.png"},
		{Filename: "topic_one_001.png", URL: "/uploads/a.png"},
		{Filename: "topic_two_001.jpg", URL: "/uploads/c.jpg"},
		{Filename: "three_001.webp", URL: "/uploads/d.webp"},
		{Filename: "nobody_001.png", URL: "/uploads/e.png"},
		{Filename: "not-a-match.png", URL: "/uploads/f.png"},
	})
	if err != nil {
		t.Fatalf("AssignByFilename() error = %v", err)
	}
	want := []AssignResult{{TopicID: "topic_one", Count: 2}, {TopicID: "topic_two", Count: 1}, {TopicID: "three", Count: 1}}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("AssignByFilename() = %+v, want %+v", results, want)
	}

	m, _ := repo.GetMessage(ctx, withAssistant[1].ID)
	if want := []string{"/uploads/a.png", "/uploads/b.png"}; !reflect.DeepEqual(m.Metadata.ImageURLs, want) {
		t.Errorf("imageUrls = %v, want %v", m.Metadata.ImageURLs, want)
	}

	two, _ := repo.ListMessagesByTopicID(ctx, "topic_two")
	if len(two) != 2 || two[1].Role != storage.RoleAssistant || two[1].RallyID != "rally_two_0" {
		t.Errorf("topic_two messages = %+v, want a new assistant message in the first rally", two)
	}

	rallies, _ := repo.ListRalliesByTopicID(ctx, "three")
	if len(rallies) != 1 || rallies[0].ID != "rally_three_0" {
		t.Errorf("rallies of three = %+v, want rally_three_0", rallies)
	}
	three, _ := repo.ListMessagesByTopicID(ctx, "three")
	if len(three) != 1 || three[0].Metadata == nil || three[0].Metadata.ImageURLs[0] != "/uploads/d.webp" {
		t.Errorf("messages of three = %+v", three)
	}

	if _, err := svc.AssignByFilename(ctx, nil); err == nil {
		t.Error("AssignByFilename(nil) should fail")
	}
}

// failingUpdateRepo rejects UpdateMessage for one message id.
type failingUpdateRepo struct {
	storage.Repository
	failID string
}

func (r *failingUpdateRepo) UpdateMessage(ctx context.Context, msg *storage.Message) error {
	if msg.ID == r.failID {
		return errors.New("disk full")
	}
	return r.Repository.UpdateMessage(ctx, msg)
}

func TestMaintenanceService_UpdateFailureDoesNotStopBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("migrate topic images", func(t *testing.T) {
		mem := storage.NewMemoryRepo()
		seeded := seedTopic(t, mem, "f", "Failing",
			seedMessage{role: storage.RoleAssistant, content: "first", meta: imageMeta("https://img.example/x.png")},
			seedMessage{role: storage.RoleAssistant, content: "second", meta: imageMeta("https://img.example/x.png")},
		)
		repo := &failingUpdateRepo{Repository: mem, failID: seeded[0].ID}
		resolver := &stubResolver{mapping: map[string]string{"https://img.example/x.png": "/uploads/x.png"}}

		updated, err := NewMaintenanceService(repo, resolver, "").MigrateTopicImages(ctx, "topic_f")
		if err != nil || updated != 1 {
			t.Fatalf("MigrateTopicImages() = %d, %v; want 1, nil", updated, err)
		}

		failed, _ := mem.GetMessage(ctx, seeded[0].ID)
		if want := []string{"https://img.example/x.png"}; !reflect.DeepEqual(failed.Metadata.ImageURLs, want) {
			t.Errorf("failed message imageUrls = %v, want %v", failed.Metadata.ImageURLs, want)
		}
		ok, _ := mem.GetMessage(ctx, seeded[1].ID)
		if want := []string{"/uploads/x.png"}; !reflect.DeepEqual(ok.Metadata.ImageURLs, want) {
			t.Errorf("second message imageUrls = %v, want %v", ok.Metadata.ImageURLs, want)
		}
	})

	t.Run("replace image urls", func(t *testing.T) {
		mem := storage.NewMemoryRepo()
		seeded := seedTopic(t, mem, "g", "Failing",
			seedMessage{role: storage.RoleAssistant, content: "first", meta: imageMeta("https://old.example/1.png")},
			seedMessage{role: storage.RoleAssistant, content: "second", meta: imageMeta("https://old.example/1.png")},
		)
		repo := &failingUpdateRepo{Repository: mem, failID: seeded[0].ID}
		replace := []Replacement{{From: "https://old.example/1.png", To: "/uploads/1.png"}}

		updated, err := NewMaintenanceService(repo, nil, "").ReplaceImageURLs(ctx, "topic_g", replace)
		if err != nil || updated != 1 {
			t.Fatalf("ReplaceImageURLs() = %d, %v; want 1, nil", updated, err)
		}

		ok, _ := mem.GetMessage(ctx, seeded[1].ID)
		if want := []string{"/uploads/1.png"}; !reflect.DeepEqual(ok.Metadata.ImageURLs, want) {
			t.Errorf("second message imageUrls = %v, want %v", ok.Metadata.ImageURLs, want)
		}
	})
}
