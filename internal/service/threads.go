package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_thread_service.go -package=mocks chatkanban/internal/service ThreadService
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_maintenance_service.go -package=mocks chatkanban/internal/service MaintenanceService

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"chatkanban/internal/contextutil"
	"chatkanban/internal/images"
	"chatkanban/internal/storage"
)

// ImageResolver turns external image URLs into stored copies.
// This interface is defined from the service layer's perspective (consumer-first).
type ImageResolver interface {
	Resolve(ctx context.Context, urls []string, opts images.Options) []images.Resolution
	IsLocal(u string) bool
}

// TopicPatch holds the editable topic fields. Nil fields are left unchanged.
type TopicPatch struct {
	Title      *string             `json:"title,omitempty"`
	Tags       []string            `json:"tags,omitempty"`
	Visibility *storage.Visibility `json:"visibility,omitempty"`
}

// MessageQuery selects messages by rally or by topic. RallyID wins when both are set.
type MessageQuery struct {
	RallyID string
	TopicID string
}

// ExportedTopic is one topic with everything under it.
type ExportedTopic struct {
	Topic    storage.Topic     `json:"topic"`
	Rallies  []storage.Rally   `json:"rallies"`
	Messages []storage.Message `json:"messages"`
}

// Export is a full dump of the store.
type Export struct {
	ExportedAt time.Time       `json:"exportedAt"`
	Data       []ExportedTopic `json:"data"`
}

// SearchHit is one message matching a search query.
type SearchHit struct {
	TopicID    string       `json:"topicId"`
	TopicTitle string       `json:"topicTitle"`
	RallyID    string       `json:"rallyId"`
	MessageID  string       `json:"messageId"`
	Role       storage.Role `json:"role"`
	Content    string       `json:"content"`
	Timestamp  time.Time    `json:"timestamp"`
	Model      string       `json:"model,omitempty"`
}

// ThreadService serves topics, rallies and messages.
type ThreadService interface {
	ListTopics(ctx context.Context) ([]storage.Topic, error)
	// GetTopic returns ErrNotFound for an unknown id.
	GetTopic(ctx context.Context, id string) (*storage.Topic, error)
	UpdateTopic(ctx context.Context, id string, patch TopicPatch) (*storage.Topic, error)
	ListRallies(ctx context.Context, topicID string) ([]storage.Rally, error)
	// ListMessages returns messages with resolvedImageUrls filled in.
	ListMessages(ctx context.Context, q MessageQuery) ([]storage.Message, error)
	Export(ctx context.Context) (*Export, error)
	// Search matches q case-insensitively against message content.
	Search(ctx context.Context, q string) ([]SearchHit, error)
}

// threadService implements ThreadService.
type threadService struct {
	repo     storage.Repository
	enricher *enricher
	now      func() time.Time
}

// NewThreadService creates a ThreadService. referer is sent when resolving images at read time.
func NewThreadService(repo storage.Repository, resolver ImageResolver, referer string) ThreadService {
	return &threadService{
		repo:     repo,
		enricher: newEnricher(repo, resolver, referer),
		now:      time.Now,
	}
}

// ListTopics returns all topics, most recently updated first.
func (s *threadService) ListTopics(ctx context.Context) ([]storage.Topic, error) {
	topics, err := s.repo.ListTopics(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list topics")
	}
	return topics, nil
}

// GetTopic returns one topic.
func (s *threadService) GetTopic(ctx context.Context, id string) (*storage.Topic, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "topicId", Message: "required"}
	}
	topic, err := s.repo.GetTopic(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, WrapError(err, "failed to get topic")
	}
	return topic, nil
}

// UpdateTopic applies patch to a topic.
func (s *threadService) UpdateTopic(ctx context.Context, id string, patch TopicPatch) (*storage.Topic, error) {
	logger := contextutil.LoggerFromContext(ctx)

	topic, err := s.GetTopic(ctx, id)
	if err != nil {
		return nil, err
	}

	var issues ValidationErrors
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			issues = append(issues, ValidationError{Field: "title", Message: "must not be empty"})
		}
		topic.Title = title
	}
	if patch.Visibility != nil {
		if !patch.Visibility.Valid() {
			issues = append(issues, ValidationError{Field: "visibility", Message: "must be one of private, unlisted, public"})
		}
		topic.Visibility = *patch.Visibility
	}
	if patch.Tags != nil {
		topic.Tags = normalizeTags(patch.Tags)
	}
	if len(issues) > 0 {
		return nil, issues
	}

	if err := s.repo.UpdateTopic(ctx, topic); err != nil {
		return nil, WrapError(err, "failed to update topic")
	}
	logger.InfoContext(ctx, "topic updated", "topic_id", id)
	return s.GetTopic(ctx, id)
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ListRallies returns the rallies of a topic ordered by index. Unknown topics yield an empty list.
func (s *threadService) ListRallies(ctx context.Context, topicID string) ([]storage.Rally, error) {
	if strings.TrimSpace(topicID) == "" {
		return nil, &ValidationError{Field: "topicId", Message: "required"}
	}
	rallies, err := s.repo.ListRalliesByTopicID(ctx, topicID)
	if err != nil {
		return nil, WrapError(err, "failed to list rallies")
	}
	return rallies, nil
}

// ListMessages lists a rally's messages, or a topic's messages in rally order,
// and enriches them with resolved image URLs.
func (s *threadService) ListMessages(ctx context.Context, q MessageQuery) ([]storage.Message, error) {
	var (
		msgs []storage.Message
		err  error
	)
	switch {
	case q.RallyID != "":
		msgs, err = s.repo.ListMessagesByRallyID(ctx, q.RallyID)
		if err != nil {
			return nil, WrapError(err, "failed to list messages")
		}
	case q.TopicID != "":
		_, msgs, err = topicMessages(ctx, s.repo, q.TopicID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, &ValidationError{Field: "rallyId or topicId", Message: "required"}
	}

	return s.enricher.enrich(ctx, msgs), nil
}

// topicMessages loads a topic's rallies and fetches their messages concurrently,
// flattening them in rally order.
func topicMessages(ctx context.Context, repo storage.Repository, topicID string) ([]storage.Rally, []storage.Message, error) {
	rallies, err := repo.ListRalliesByTopicID(ctx, topicID)
	if err != nil {
		return nil, nil, WrapError(err, "failed to list rallies")
	}

	perRally := make([][]storage.Message, len(rallies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, r := range rallies {
		i, r := i, r
		g.Go(func() error {
			msgs, err := repo.ListMessagesByRallyID(gctx, r.ID)
			if err != nil {
				return fmt.Errorf("failed to list messages of %s: %w", r.ID, err)
			}
			perRally[i] = msgs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var total int
	for _, m := range perRally {
		total += len(m)
	}
	msgs := make([]storage.Message, 0, total)
	for _, m := range perRally {
		msgs = append(msgs, m...)
	}
	return rallies, msgs, nil
}

// Export dumps every topic with its rallies and messages as stored.
func (s *threadService) Export(ctx context.Context) (*Export, error) {
	topics, err := s.ListTopics(ctx)
	if err != nil {
		return nil, err
	}

	out := &Export{ExportedAt: s.now().UTC(), Data: make([]ExportedTopic, 0, len(topics))}
	for _, t := range topics {
		rallies, msgs, err := topicMessages(ctx, s.repo, t.ID)
		if err != nil {
			return nil, err
		}
		out.Data = append(out.Data, ExportedTopic{Topic: t, Rallies: rallies, Messages: msgs})
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "export built", "topics", len(out.Data))
	return out, nil
}

// Search scans every message for q as given, ignoring case. Hits follow topic
// order, then message order.
func (s *threadService) Search(ctx context.Context, q string) ([]SearchHit, error) {
	hits := make([]SearchHit, 0)
	if strings.TrimSpace(q) == "" {
		return hits, nil
	}
	needle := strings.ToLower(q)

	topics, err := s.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range topics {
		_, msgs, err := topicMessages(ctx, s.repo, t.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range msgs {
			if !strings.Contains(strings.ToLower(m.Content), needle) {
				continue
			}
			hits = append(hits, SearchHit{
				TopicID:    t.ID,
				TopicTitle: t.DisplayTitle(),
				RallyID:    m.RallyID,
				MessageID:  m.ID,
				Role:       m.Role,
				Content:    m.Content,
				Timestamp:  m.Timestamp,
				Model:      m.Model,
			})
		}
	}
	return hits, nil
}
