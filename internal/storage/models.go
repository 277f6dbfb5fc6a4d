package storage

import "time"

// Visibility controls who may view a topic.
type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPublic   Visibility = "public"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityUnlisted, VisibilityPublic:
		return true
	}
	return false
}

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Topic represents one imported conversation thread.
type Topic struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Title      string     `json:"title"`
	Tags       []string   `json:"tags"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
	UserName   string     `json:"userName,omitempty"`  // Display name of the source chat user
	ChatTitle  string     `json:"chatTitle,omitempty"` // Title shown by the source chat service
	Model      string     `json:"model,omitempty"`
}

// DisplayTitle returns the source chat title when present, otherwise the topic title.
func (t Topic) DisplayTitle() string {
	if t.ChatTitle != "" {
		return t.ChatTitle
	}
	return t.Title
}

// Rally is one turn of a conversation. It starts at a user message.
type Rally struct {
	ID        string    `json:"id"`
	TopicID   string    `json:"topicId"`
	Index     int       `json:"index"` // 0-based, unique per topic
	CreatedAt time.Time `json:"createdAt"`
}

// Message is a single chat message inside a rally.
type Message struct {
	ID        string    `json:"id"`
	RallyID   string    `json:"rallyId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  *Metadata `json:"metadata,omitempty"`
}

// ImportResult is the outcome of an import, stored under its idempotency key.
type ImportResult struct {
	TopicID  string   `json:"topicId"`
	RallyIDs []string `json:"rallyIds"`
}
