package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written by the Redis adapters.
const DefaultRedisPrefix = "chatkanban"

// NewRedisClient parses a Redis URL (or a comma-separated list of URLs for a
// cluster) and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (redis.UniversalClient, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL must be provided")
	}

	opts := &redis.UniversalOptions{}
	for _, part := range strings.Split(redisURL, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "://") {
			opts.Addrs = append(opts.Addrs, part)
			continue
		}
		parsed, err := redis.ParseURL(part)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		opts.Addrs = append(opts.Addrs, parsed.Addr)
		if opts.Username == "" {
			opts.Username = parsed.Username
		}
		if opts.Password == "" {
			opts.Password = parsed.Password
		}
		if opts.DB == 0 {
			opts.DB = parsed.DB
		}
		if opts.TLSConfig == nil {
			opts.TLSConfig = parsed.TLSConfig
		}
	}
	if len(opts.Addrs) > 1 {
		// Cluster mode only supports DB 0.
		opts.DB = 0
	}

	client := redis.NewUniversalClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisRepo stores each entity as a JSON field in a per-type hash and keeps
// parent→child indexes in sets, so every write is incremental.
// It implements the Repository interface.
type RedisRepo struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisRepo creates a new RedisRepo using prefix for all keys.
func NewRedisRepo(client redis.UniversalClient, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisRepo{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisRepo) key(parts ...string) string {
	return r.prefix + ":" + strings.Join(parts, ":")
}

func (r *RedisRepo) getJSON(ctx context.Context, hash, field string, v any) error {
	raw, err := r.client.HGet(ctx, hash, field).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

// CreateTopic stamps timestamps and stores the topic.
func (r *RedisRepo) CreateTopic(ctx context.Context, topic *Topic) (*Topic, error) {
	var existing *Topic
	var current Topic
	switch err := r.getJSON(ctx, r.key("topics"), topic.ID, &current); {
	case err == nil:
		existing = &current
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("failed to check existing topic: %w", err)
	}

	stored := prepareTopic(topic, existing, r.now().UTC())
	if err := r.putJSON(ctx, r.key("topics"), stored.ID, stored); err != nil {
		return nil, fmt.Errorf("failed to store topic: %w", err)
	}
	return &stored, nil
}

// UpdateTopic replaces an existing topic and bumps UpdatedAt.
func (r *RedisRepo) UpdateTopic(ctx context.Context, topic *Topic) error {
	existing, err := r.GetTopic(ctx, topic.ID)
	if err != nil {
		return err
	}
	updated := *topic
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.now().UTC()
	if err := r.putJSON(ctx, r.key("topics"), updated.ID, updated); err != nil {
		return fmt.Errorf("failed to store topic: %w", err)
	}
	topic.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *RedisRepo) putJSON(ctx context.Context, hash, field string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, hash, field, data).Err()
}

// GetTopic returns ErrNotFound if the topic does not exist.
func (r *RedisRepo) GetTopic(ctx context.Context, id string) (*Topic, error) {
	var t Topic
	if err := r.getJSON(ctx, r.key("topics"), id, &t); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return &t, nil
}

// ListTopics returns all topics, most recently updated first.
func (r *RedisRepo) ListTopics(ctx context.Context) ([]Topic, error) {
	values, err := r.client.HVals(ctx, r.key("topics")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	topics := make([]Topic, 0, len(values))
	for _, raw := range values {
		var t Topic
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("failed to decode topic: %w", err)
		}
		topics = append(topics, t)
	}
	sortTopics(topics)
	return topics, nil
}

// CreateRally stores the rally and indexes it under its topic.
func (r *RedisRepo) CreateRally(ctx context.Context, rally *Rally) error {
	if rally.CreatedAt.IsZero() {
		rally.CreatedAt = r.now().UTC()
	}
	data, err := json.Marshal(rally)
	if err != nil {
		return fmt.Errorf("failed to encode rally: %w", err)
	}
	var previous Rally
	if err := r.getJSON(ctx, r.key("rallies"), rally.ID, &previous); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to check existing rally: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous.ID != "" && previous.TopicID != rally.TopicID {
			pipe.SRem(ctx, r.key("topic", previous.TopicID, "rallies"), rally.ID)
		}
		pipe.HSet(ctx, r.key("rallies"), rally.ID, data)
		pipe.SAdd(ctx, r.key("topic", rally.TopicID, "rallies"), rally.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store rally: %w", err)
	}
	return nil
}

// ListRalliesByTopicID returns the topic's rallies ordered by index.
func (r *RedisRepo) ListRalliesByTopicID(ctx context.Context, topicID string) ([]Rally, error) {
	ids, err := r.client.SMembers(ctx, r.key("topic", topicID, "rallies")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rally ids: %w", err)
	}
	rallies := make([]Rally, 0, len(ids))
	if err := r.loadMany(ctx, r.key("rallies"), ids, func(raw string) error {
		var rally Rally
		if err := json.Unmarshal([]byte(raw), &rally); err != nil {
			return err
		}
		rallies = append(rallies, rally)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to load rallies: %w", err)
	}
	sortRallies(rallies)
	return rallies, nil
}

// loadMany fetches fields from hash in order, skipping missing ones.
func (r *RedisRepo) loadMany(ctx context.Context, hash string, fields []string, fn func(raw string) error) error {
	if len(fields) == 0 {
		return nil
	}
	values, err := r.client.HMGet(ctx, hash, fields...).Result()
	if err != nil {
		return err
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		if err := fn(raw); err != nil {
			return err
		}
	}
	return nil
}

// CreateMessage stores the message and indexes it under its rally.
func (r *RedisRepo) CreateMessage(ctx context.Context, msg *Message) error {
	return r.putMessage(ctx, msg)
}

// UpdateMessage replaces the whole message.
func (r *RedisRepo) UpdateMessage(ctx context.Context, msg *Message) error {
	return r.putMessage(ctx, msg)
}

func (r *RedisRepo) putMessage(ctx context.Context, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	var previous Message
	if err := r.getJSON(ctx, r.key("messages"), msg.ID, &previous); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to check existing message: %w", err)
	}
	seq, err := r.client.Incr(ctx, r.key("seq")).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate message sequence: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous.ID != "" && previous.RallyID != msg.RallyID {
			pipe.ZRem(ctx, r.key("rally", previous.RallyID, "messages"), msg.ID)
		}
		pipe.HSet(ctx, r.key("messages"), msg.ID, data)
		// NX keeps the original insertion position on updates.
		pipe.ZAddNX(ctx, r.key("rally", msg.RallyID, "messages"), redis.Z{Score: float64(seq), Member: msg.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// GetMessage returns ErrNotFound if the message does not exist.
func (r *RedisRepo) GetMessage(ctx context.Context, id string) (*Message, error) {
	var m Message
	if err := r.getJSON(ctx, r.key("messages"), id, &m); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &m, nil
}

// ListMessagesByRallyID returns the rally's messages ordered by timestamp, then insertion.
func (r *RedisRepo) ListMessagesByRallyID(ctx context.Context, rallyID string) ([]Message, error) {
	msgs, err := r.messagesOf(ctx, rallyID)
	if err != nil {
		return nil, err
	}
	sortMessages(msgs)
	return msgs, nil
}

// ListMessagesByTopicID returns every message of the topic ordered by timestamp.
func (r *RedisRepo) ListMessagesByTopicID(ctx context.Context, topicID string) ([]Message, error) {
	rallies, err := r.ListRalliesByTopicID(ctx, topicID)
	if err != nil {
		return nil, err
	}
	msgs := make([]Message, 0)
	for _, rally := range rallies {
		part, err := r.messagesOf(ctx, rally.ID)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, part...)
	}
	sortMessages(msgs)
	return msgs, nil
}

func (r *RedisRepo) messagesOf(ctx context.Context, rallyID string) ([]Message, error) {
	ids, err := r.client.ZRange(ctx, r.key("rally", rallyID, "messages"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list message ids: %w", err)
	}
	msgs := make([]Message, 0, len(ids))
	if err := r.loadMany(ctx, r.key("messages"), ids, func(raw string) error {
		var m Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return err
		}
		msgs = append(msgs, m)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return msgs, nil
}

// GetIdempotency returns the result stored under key.
func (r *RedisRepo) GetIdempotency(ctx context.Context, key string) (*ImportResult, error) {
	var res ImportResult
	if err := r.getJSON(ctx, r.key("idempotency"), key, &res); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}
	return &res, nil
}

// SetIdempotency stores result under key.
func (r *RedisRepo) SetIdempotency(ctx context.Context, key string, result ImportResult) error {
	if err := r.putJSON(ctx, r.key("idempotency"), key, result); err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *RedisRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (r *RedisRepo) Close() error {
	return r.client.Close()
}

// RedisImageMap stores the image mapping in one Redis hash.
// It implements the ImageMap interface.
type RedisImageMap struct {
	client redis.UniversalClient
	key    string
}

// NewRedisImageMap creates a new RedisImageMap using prefix for its key.
func NewRedisImageMap(client redis.UniversalClient, prefix string) *RedisImageMap {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisImageMap{client: client, key: prefix + ":image-map"}
}

// Lookup returns the local URL for source.
func (m *RedisImageMap) Lookup(ctx context.Context, source string) (string, error) {
	local, err := m.client.HGet(ctx, m.key, source).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query image map: %w", err)
	}
	return local, nil
}

// Record stores source→local.
func (m *RedisImageMap) Record(ctx context.Context, source, local string) error {
	if err := m.client.HSet(ctx, m.key, source, local).Err(); err != nil {
		return fmt.Errorf("failed to record image mapping: %w", err)
	}
	return nil
}
