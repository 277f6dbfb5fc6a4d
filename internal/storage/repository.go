package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_repository.go -package=mocks chatkanban/internal/storage Repository,ImageMap

import (
	"context"
	"errors"
	"sort"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// Repository is the storage port for topics, rallies, messages and
// idempotency records. Every mutation is durable before it returns.
type Repository interface {
	// CreateTopic stamps CreatedAt/UpdatedAt, persists the topic and returns the stored copy.
	// Re-creating an existing id keeps its original CreatedAt.
	CreateTopic(ctx context.Context, topic *Topic) (*Topic, error)
	// UpdateTopic replaces an existing topic and bumps UpdatedAt.
	// Returns ErrNotFound if the topic does not exist.
	UpdateTopic(ctx context.Context, topic *Topic) error
	// GetTopic returns ErrNotFound if the topic does not exist.
	GetTopic(ctx context.Context, id string) (*Topic, error)
	// ListTopics returns all topics, most recently updated first.
	ListTopics(ctx context.Context) ([]Topic, error)

	// CreateRally inserts or replaces a rally by id. Index uniqueness is the caller's job.
	CreateRally(ctx context.Context, rally *Rally) error
	// ListRalliesByTopicID returns the topic's rallies ordered by index.
	ListRalliesByTopicID(ctx context.Context, topicID string) ([]Rally, error)

	// CreateMessage inserts or replaces a message by id.
	CreateMessage(ctx context.Context, msg *Message) error
	// UpdateMessage replaces the whole message row, metadata included.
	UpdateMessage(ctx context.Context, msg *Message) error
	// GetMessage returns ErrNotFound if the message does not exist.
	GetMessage(ctx context.Context, id string) (*Message, error)
	// ListMessagesByRallyID returns the rally's messages ordered by timestamp.
	ListMessagesByRallyID(ctx context.Context, rallyID string) ([]Message, error)
	// ListMessagesByTopicID returns the messages of every rally of the topic ordered by timestamp.
	ListMessagesByTopicID(ctx context.Context, topicID string) ([]Message, error)

	// GetIdempotency returns ErrNotFound if the key has not been stored.
	GetIdempotency(ctx context.Context, key string) (*ImportResult, error)
	SetIdempotency(ctx context.Context, key string, result ImportResult) error

	Ping(ctx context.Context) error
	Close() error
}

// ImageMap remembers which local URL a source image URL was copied to.
type ImageMap interface {
	// Lookup returns ErrNotFound when the source has not been copied yet.
	Lookup(ctx context.Context, source string) (string, error)
	// Record stores the mapping. The last writer wins.
	Record(ctx context.Context, source, local string) error
}

// prepareTopic applies creation defaults. existing is the stored topic with
// the same id, if any.
func prepareTopic(topic *Topic, existing *Topic, now time.Time) Topic {
	t := *topic
	t.Tags = append([]string{}, topic.Tags...)
	if t.Visibility == "" {
		t.Visibility = VisibilityPrivate
	}
	t.CreatedAt = now
	if existing != nil {
		t.CreatedAt = existing.CreatedAt
	}
	t.UpdatedAt = now
	return t
}

func sortTopics(topics []Topic) {
	sort.SliceStable(topics, func(i, j int) bool {
		if !topics[i].UpdatedAt.Equal(topics[j].UpdatedAt) {
			return topics[i].UpdatedAt.After(topics[j].UpdatedAt)
		}
		return topics[i].ID < topics[j].ID
	})
}

func sortRallies(rallies []Rally) {
	sort.SliceStable(rallies, func(i, j int) bool {
		return rallies[i].Index < rallies[j].Index
	})
}

// sortMessages orders by timestamp; equal timestamps keep their incoming order.
func sortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
