// Package importer turns captured chat threads into topics, rallies and messages.
package importer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_importer.go -package=mocks chatkanban/internal/importer Importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatkanban/internal/contextutil"
	"chatkanban/internal/metrics"
	"chatkanban/internal/service"
	"chatkanban/internal/storage"
)

const (
	// MaxKeyLength bounds the Idempotency-Key header.
	MaxKeyLength = 128

	unknownModel  = "unknown"
	defaultUserID = "anonymous"
)

// Importer materialises one thread per idempotency key.
type Importer interface {
	Import(ctx context.Context, key string, body []byte) (*storage.ImportResult, error)
}

// Pipeline is the Importer backed by a Repository.
type Pipeline struct {
	repo   storage.Repository
	locker Locker
	now    func() time.Time
}

// NewPipeline creates a Pipeline. A nil locker uses an in-process KeyedMutex.
func NewPipeline(repo storage.Repository, locker Locker) *Pipeline {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	return &Pipeline{
		repo:   repo,
		locker: locker,
		now:    time.Now,
	}
}

// Import validates body and stores it, unless key was already used, in which
// case the stored result is returned and nothing is written.
func (p *Pipeline) Import(ctx context.Context, key string, body []byte) (*storage.ImportResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	key = strings.TrimSpace(key)
	if key == "" {
		metrics.RecordImport(metrics.ImportInvalid)
		return nil, &service.ValidationError{Field: "Idempotency-Key", Message: "header required"}
	}
	if len(key) > MaxKeyLength {
		metrics.RecordImport(metrics.ImportInvalid)
		return nil, &service.ValidationError{Field: "Idempotency-Key", Message: fmt.Sprintf("must be at most %d characters", MaxKeyLength)}
	}

	unlock, err := p.locker.Lock(ctx, key)
	if err != nil {
		metrics.RecordImport(metrics.ImportFailed)
		return nil, err
	}
	defer unlock()

	cached, err := p.repo.GetIdempotency(ctx, key)
	switch {
	case err == nil:
		logger.InfoContext(ctx, "import replayed", "idempotency_key", key, "topic_id", cached.TopicID)
		metrics.RecordImport(metrics.ImportReplayed)
		return cached, nil
	case !errors.Is(err, storage.ErrNotFound):
		metrics.RecordImport(metrics.ImportFailed)
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	payload, err := DecodePayload(body)
	if err != nil {
		metrics.RecordImport(metrics.ImportInvalid)
		return nil, err
	}

	result, err := p.store(ctx, payload)
	if err != nil {
		metrics.RecordImport(metrics.ImportFailed)
		return nil, err
	}

	if err := p.repo.SetIdempotency(ctx, key, *result); err != nil {
		metrics.RecordImport(metrics.ImportFailed)
		return nil, fmt.Errorf("failed to store idempotency key: %w", err)
	}

	logger.InfoContext(ctx, "thread imported",
		"idempotency_key", key,
		"topic_id", result.TopicID,
		"rallies", len(result.RallyIDs),
		"messages", len(payload.Messages),
	)
	metrics.RecordImport(metrics.ImportCreated)
	return result, nil
}

func (p *Pipeline) store(ctx context.Context, payload *Payload) (*storage.ImportResult, error) {
	topicID := TopicID(payload.ThreadID)
	_, err := p.repo.CreateTopic(ctx, &storage.Topic{
		ID:         topicID,
		UserID:     defaultUserID,
		Title:      payload.Title,
		Tags:       []string{},
		Visibility: storage.VisibilityPrivate,
		UserName:   payload.UserName,
		ChatTitle:  payload.ChatTitle,
		Model:      payload.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}

	roles := make([]storage.Role, len(payload.Messages))
	for i, m := range payload.Messages {
		roles[i] = m.Role
	}

	plans := SplitRallies(roles)
	result := &storage.ImportResult{TopicID: topicID, RallyIDs: make([]string, 0, len(plans))}
	for _, plan := range plans {
		rallyID := RallyID(payload.ThreadID, plan.Index)
		if err := p.repo.CreateRally(ctx, &storage.Rally{ID: rallyID, TopicID: topicID, Index: plan.Index}); err != nil {
			return nil, fmt.Errorf("failed to create rally %s: %w", rallyID, err)
		}
		result.RallyIDs = append(result.RallyIDs, rallyID)

		for _, idx := range plan.Messages {
			if err := p.repo.CreateMessage(ctx, p.message(rallyID, payload, payload.Messages[idx])); err != nil {
				return nil, fmt.Errorf("failed to create message in %s: %w", rallyID, err)
			}
		}
	}
	return result, nil
}

func (p *Pipeline) message(rallyID string, payload *Payload, m PayloadMessage) *storage.Message {
	model := m.Model
	if model == "" {
		model = payload.Model
	}
	if model == "" {
		model = unknownModel
	}
	ts := p.now().UTC()
	if m.Timestamp != nil {
		ts = *m.Timestamp
	}
	return &storage.Message{
		ID:        rallyID + "_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		RallyID:   rallyID,
		Role:      m.Role,
		Content:   m.Content,
		Model:     model,
		Timestamp: ts,
		Metadata:  m.Metadata,
	}
}
