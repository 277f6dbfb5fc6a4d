package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteRepo stores topics, rallies and messages in SQLite with incremental writes.
// It implements the Repository interface.
type SQLiteRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepo creates a new SQLiteRepo. The schema must already be migrated.
func NewSQLiteRepo(db *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const topicColumns = "id, user_id, title, tags, visibility, created_at, updated_at, deleted_at, user_name, chat_title, model"

func scanTopic(row rowScanner) (*Topic, error) {
	var (
		t                    Topic
		tags                 string
		visibility           string
		createdAt, updatedAt string
		deletedAt            sql.NullString
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &tags, &visibility, &createdAt, &updatedAt, &deletedAt, &t.UserName, &t.ChatTitle, &t.Model); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.Visibility = Visibility(visibility)

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		d, err := parseTime(deletedAt.String)
		if err != nil {
			return nil, err
		}
		t.DeletedAt = &d
	}
	return &t, nil
}

// CreateTopic stamps timestamps and upserts the topic.
func (r *SQLiteRepo) CreateTopic(ctx context.Context, topic *Topic) (*Topic, error) {
	existing, err := r.GetTopic(ctx, topic.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing topic: %w", err)
	}

	stored := prepareTopic(topic, existing, r.now().UTC())
	if err := r.writeTopic(ctx, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// UpdateTopic replaces an existing topic and bumps updated_at.
func (r *SQLiteRepo) UpdateTopic(ctx context.Context, topic *Topic) error {
	existing, err := r.GetTopic(ctx, topic.ID)
	if err != nil {
		return err
	}

	updated := *topic
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = r.now().UTC()
	if err := r.writeTopic(ctx, &updated); err != nil {
		return err
	}
	topic.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *SQLiteRepo) writeTopic(ctx context.Context, t *Topic) error {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	var deletedAt sql.NullString
	if t.DeletedAt != nil {
		deletedAt = sql.NullString{String: formatTime(*t.DeletedAt), Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO topics (`+topicColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 user_id = excluded.user_id, title = excluded.title, tags = excluded.tags,
		 visibility = excluded.visibility, updated_at = excluded.updated_at,
		 deleted_at = excluded.deleted_at, user_name = excluded.user_name,
		 chat_title = excluded.chat_title, model = excluded.model`,
		t.ID, t.UserID, t.Title, string(tagsJSON), string(t.Visibility),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt), deletedAt,
		t.UserName, t.ChatTitle, t.Model,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert topic: %w", err)
	}
	return nil
}

// GetTopic gets a topic by id.
// Returns nil and ErrNotFound if not found.
func (r *SQLiteRepo) GetTopic(ctx context.Context, id string) (*Topic, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+topicColumns+" FROM topics WHERE id = ?", id)
	t, err := scanTopic(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query topic: %w", err)
	}
	return t, nil
}

// ListTopics returns all topics, most recently updated first.
func (r *SQLiteRepo) ListTopics(ctx context.Context) ([]Topic, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+topicColumns+" FROM topics ORDER BY updated_at DESC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	topics := make([]Topic, 0)
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topics: %w", err)
	}
	return topics, nil
}

// CreateRally upserts a rally by id.
func (r *SQLiteRepo) CreateRally(ctx context.Context, rally *Rally) error {
	if rally.CreatedAt.IsZero() {
		rally.CreatedAt = r.now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rallies (id, topic_id, rally_index, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET topic_id = excluded.topic_id, rally_index = excluded.rally_index`,
		rally.ID, rally.TopicID, rally.Index, formatTime(rally.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rally: %w", err)
	}
	return nil
}

// ListRalliesByTopicID returns the topic's rallies ordered by index.
// Returns an empty slice for an unknown topic.
func (r *SQLiteRepo) ListRalliesByTopicID(ctx context.Context, topicID string) ([]Rally, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, topic_id, rally_index, created_at FROM rallies WHERE topic_id = ? ORDER BY rally_index ASC",
		topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rallies: %w", err)
	}
	defer rows.Close()

	rallies := make([]Rally, 0)
	for rows.Next() {
		var rally Rally
		var createdAt string
		if err := rows.Scan(&rally.ID, &rally.TopicID, &rally.Index, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan rally: %w", err)
		}
		if rally.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		rallies = append(rallies, rally)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rallies: %w", err)
	}
	return rallies, nil
}

const messageColumns = "m.id, m.rally_id, m.role, m.content, m.model, m.timestamp, m.metadata"

func scanMessage(row rowScanner) (*Message, error) {
	var (
		m         Message
		role      string
		timestamp string
		metadata  sql.NullString
	)
	if err := row.Scan(&m.ID, &m.RallyID, &role, &m.Content, &m.Model, &timestamp, &metadata); err != nil {
		return nil, err
	}
	m.Role = Role(role)

	var err error
	if m.Timestamp, err = parseTime(timestamp); err != nil {
		return nil, err
	}
	if metadata.Valid && metadata.String != "" {
		m.Metadata = &Metadata{}
		if err := json.Unmarshal([]byte(metadata.String), m.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return &m, nil
}

// CreateMessage upserts a message by id.
func (r *SQLiteRepo) CreateMessage(ctx context.Context, msg *Message) error {
	return r.writeMessage(ctx, msg)
}

// UpdateMessage replaces the whole message row.
func (r *SQLiteRepo) UpdateMessage(ctx context.Context, msg *Message) error {
	return r.writeMessage(ctx, msg)
}

func (r *SQLiteRepo) writeMessage(ctx context.Context, msg *Message) error {
	var metadata sql.NullString
	if msg.Metadata != nil {
		data, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, rally_id, role, content, model, timestamp, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 rally_id = excluded.rally_id, role = excluded.role, content = excluded.content,
		 model = excluded.model, timestamp = excluded.timestamp, metadata = excluded.metadata`,
		msg.ID, msg.RallyID, string(msg.Role), msg.Content, msg.Model, formatTime(msg.Timestamp), metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert message: %w", err)
	}
	return nil
}

// GetMessage gets a message by id.
// Returns nil and ErrNotFound if not found.
func (r *SQLiteRepo) GetMessage(ctx context.Context, id string) (*Message, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+messageColumns+" FROM messages m WHERE m.id = ?", id)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query message: %w", err)
	}
	return m, nil
}

// ListMessagesByRallyID returns the rally's messages ordered by timestamp, then insertion.
func (r *SQLiteRepo) ListMessagesByRallyID(ctx context.Context, rallyID string) ([]Message, error) {
	return r.queryMessages(ctx,
		"SELECT "+messageColumns+" FROM messages m WHERE m.rally_id = ? ORDER BY m.timestamp ASC, m.rowid ASC",
		rallyID,
	)
}

// ListMessagesByTopicID returns every message of the topic ordered by timestamp.
func (r *SQLiteRepo) ListMessagesByTopicID(ctx context.Context, topicID string) ([]Message, error) {
	return r.queryMessages(ctx,
		`SELECT `+messageColumns+` FROM messages m
		 JOIN rallies r ON r.id = m.rally_id
		 WHERE r.topic_id = ?
		 ORDER BY m.timestamp ASC, r.rally_index ASC, m.rowid ASC`,
		topicID,
	)
}

func (r *SQLiteRepo) queryMessages(ctx context.Context, query string, args ...any) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return msgs, nil
}

// GetIdempotency returns the result stored under key.
func (r *SQLiteRepo) GetIdempotency(ctx context.Context, key string) (*ImportResult, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, "SELECT result FROM idempotency_keys WHERE idem_key = ?", key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query idempotency key: %w", err)
	}

	var res ImportResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("failed to decode import result: %w", err)
	}
	return &res, nil
}

// SetIdempotency stores result under key.
func (r *SQLiteRepo) SetIdempotency(ctx context.Context, key string, result ImportResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode import result: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO idempotency_keys (idem_key, result, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (idem_key) DO UPDATE SET result = excluded.result`,
		key, string(data), formatTime(r.now()),
	)
	if err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (r *SQLiteRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the underlying database.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// SQLiteImageMap stores the image mapping in the image_map table.
// It implements the ImageMap interface.
type SQLiteImageMap struct {
	db *sql.DB
}

// NewSQLiteImageMap creates a new SQLiteImageMap.
func NewSQLiteImageMap(db *sql.DB) *SQLiteImageMap {
	return &SQLiteImageMap{db: db}
}

// Lookup returns the local URL for source.
func (m *SQLiteImageMap) Lookup(ctx context.Context, source string) (string, error) {
	var local string
	err := m.db.QueryRowContext(ctx, "SELECT local_url FROM image_map WHERE source = ?", source).Scan(&local)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query image map: %w", err)
	}
	return local, nil
}

// Record upserts source→local.
func (m *SQLiteImageMap) Record(ctx context.Context, source, local string) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO image_map (source, local_url, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (source) DO UPDATE SET local_url = excluded.local_url, updated_at = excluded.updated_at`,
		source, local, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to record image mapping: %w", err)
	}
	return nil
}
