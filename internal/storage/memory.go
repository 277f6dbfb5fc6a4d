package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// dataset is the whole store as one document. The file backend writes it
// out on every mutation.
type dataset struct {
	Topics      []Topic                 `json:"topics"`
	Rallies     []Rally                 `json:"rallies"`
	Messages    []Message               `json:"messages"`
	Idempotency map[string]ImportResult `json:"idempotency"`
}

// MemoryRepo keeps the whole dataset in memory. When opened with NewFileRepo
// it rewrites a JSON document after every mutation and rolls the change back
// if the write fails.
// It implements the Repository interface.
type MemoryRepo struct {
	mu   sync.RWMutex
	data dataset
	path string
	now  func() time.Time
}

// NewMemoryRepo creates an empty, non-persistent repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: dataset{Idempotency: make(map[string]ImportResult)},
		now:  time.Now,
	}
}

// NewFileRepo opens (or creates on first write) the JSON document at path.
func NewFileRepo(path string) (*MemoryRepo, error) {
	r := NewMemoryRepo()
	r.path = path
	if err := readJSONFile(path, &r.data); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	if r.data.Idempotency == nil {
		r.data.Idempotency = make(map[string]ImportResult)
	}
	return r, nil
}

// commit persists the dataset, undoing the last change on failure. Callers hold mu.
func (r *MemoryRepo) commit(undo func()) error {
	if r.path == "" {
		return nil
	}
	if err := writeJSONAtomic(r.path, &r.data); err != nil {
		undo()
		return fmt.Errorf("failed to persist store: %w", err)
	}
	return nil
}

// upsert replaces the first element matching or appends item, returning an undo func.
func upsert[T any](items *[]T, match func(*T) bool, item T) func() {
	for i := range *items {
		if match(&(*items)[i]) {
			prev := (*items)[i]
			(*items)[i] = item
			return func() { (*items)[i] = prev }
		}
	}
	*items = append(*items, item)
	n := len(*items) - 1
	return func() { *items = (*items)[:n] }
}

func (r *MemoryRepo) findTopic(id string) *Topic {
	for i := range r.data.Topics {
		if r.data.Topics[i].ID == id {
			return &r.data.Topics[i]
		}
	}
	return nil
}

// CreateTopic stamps timestamps and stores the topic.
func (r *MemoryRepo) CreateTopic(_ context.Context, topic *Topic) (*Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := prepareTopic(topic, r.findTopic(topic.ID), r.now().UTC())
	undo := upsert(&r.data.Topics, func(t *Topic) bool { return t.ID == stored.ID }, stored)
	if err := r.commit(undo); err != nil {
		return nil, err
	}
	out := cloneTopic(stored)
	return &out, nil
}

// UpdateTopic replaces an existing topic.
func (r *MemoryRepo) UpdateTopic(_ context.Context, topic *Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.findTopic(topic.ID)
	if existing == nil {
		return ErrNotFound
	}
	updated := cloneTopic(*topic)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.now().UTC()
	undo := upsert(&r.data.Topics, func(t *Topic) bool { return t.ID == updated.ID }, updated)
	if err := r.commit(undo); err != nil {
		return err
	}
	topic.UpdatedAt = updated.UpdatedAt
	return nil
}

// GetTopic returns a copy of the topic.
func (r *MemoryRepo) GetTopic(_ context.Context, id string) (*Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t := r.findTopic(id)
	if t == nil {
		return nil, ErrNotFound
	}
	out := cloneTopic(*t)
	return &out, nil
}

// ListTopics returns all topics, most recently updated first.
func (r *MemoryRepo) ListTopics(_ context.Context) ([]Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]Topic, 0, len(r.data.Topics))
	for _, t := range r.data.Topics {
		topics = append(topics, cloneTopic(t))
	}
	sortTopics(topics)
	return topics, nil
}

// CreateRally stores the rally, replacing one with the same id.
func (r *MemoryRepo) CreateRally(_ context.Context, rally *Rally) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *rally
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now().UTC()
	}
	undo := upsert(&r.data.Rallies, func(x *Rally) bool { return x.ID == stored.ID }, stored)
	if err := r.commit(undo); err != nil {
		return err
	}
	rally.CreatedAt = stored.CreatedAt
	return nil
}

// ListRalliesByTopicID returns the topic's rallies ordered by index.
func (r *MemoryRepo) ListRalliesByTopicID(_ context.Context, topicID string) ([]Rally, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.ralliesOf(topicID), nil
}

func (r *MemoryRepo) ralliesOf(topicID string) []Rally {
	rallies := make([]Rally, 0)
	for _, x := range r.data.Rallies {
		if x.TopicID == topicID {
			rallies = append(rallies, x)
		}
	}
	sortRallies(rallies)
	return rallies
}

// CreateMessage stores the message, replacing one with the same id.
func (r *MemoryRepo) CreateMessage(_ context.Context, msg *Message) error {
	return r.putMessage(msg)
}

// UpdateMessage replaces the whole message.
func (r *MemoryRepo) UpdateMessage(_ context.Context, msg *Message) error {
	return r.putMessage(msg)
}

func (r *MemoryRepo) putMessage(msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneMessage(*msg)
	undo := upsert(&r.data.Messages, func(m *Message) bool { return m.ID == stored.ID }, stored)
	return r.commit(undo)
}

// GetMessage returns a copy of the message.
func (r *MemoryRepo) GetMessage(_ context.Context, id string) (*Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.data.Messages {
		if m.ID == id {
			out := cloneMessage(m)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// ListMessagesByRallyID returns the rally's messages ordered by timestamp.
func (r *MemoryRepo) ListMessagesByRallyID(_ context.Context, rallyID string) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.messagesOf(rallyID)
	sortMessages(msgs)
	return msgs, nil
}

// ListMessagesByTopicID returns the topic's messages ordered by timestamp.
func (r *MemoryRepo) ListMessagesByTopicID(_ context.Context, topicID string) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := make([]Message, 0)
	for _, rally := range r.ralliesOf(topicID) {
		msgs = append(msgs, r.messagesOf(rally.ID)...)
	}
	sortMessages(msgs)
	return msgs, nil
}

func (r *MemoryRepo) messagesOf(rallyID string) []Message {
	msgs := make([]Message, 0)
	for _, m := range r.data.Messages {
		if m.RallyID == rallyID {
			msgs = append(msgs, cloneMessage(m))
		}
	}
	return msgs
}

// GetIdempotency returns the result stored under key.
func (r *MemoryRepo) GetIdempotency(_ context.Context, key string) (*ImportResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.data.Idempotency[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := ImportResult{TopicID: res.TopicID, RallyIDs: cloneStrings(res.RallyIDs)}
	return &out, nil
}

// SetIdempotency stores result under key.
func (r *MemoryRepo) SetIdempotency(_ context.Context, key string, result ImportResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, existed := r.data.Idempotency[key]
	r.data.Idempotency[key] = ImportResult{TopicID: result.TopicID, RallyIDs: cloneStrings(result.RallyIDs)}
	return r.commit(func() {
		if existed {
			r.data.Idempotency[key] = prev
		} else {
			delete(r.data.Idempotency, key)
		}
	})
}

// Ping always succeeds.
func (r *MemoryRepo) Ping(context.Context) error { return nil }

// Close is a no-op; every mutation is already on disk.
func (r *MemoryRepo) Close() error { return nil }

func cloneTopic(t Topic) Topic {
	t.Tags = append([]string{}, t.Tags...)
	if t.DeletedAt != nil {
		d := *t.DeletedAt
		t.DeletedAt = &d
	}
	return t
}

func cloneMessage(m Message) Message {
	m.Metadata = m.Metadata.Clone()
	return m
}
