package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"chatkanban/internal/service"
	"chatkanban/internal/storage"
)

// Payload is a validated import request body.
type Payload struct {
	ThreadID  string
	Title     string
	Model     string
	CreatedAt string
	SourceURL string
	UserName  string
	ChatTitle string
	Messages  []PayloadMessage
}

// PayloadMessage is one captured chat message.
type PayloadMessage struct {
	Role      storage.Role
	Content   string
	Model     string
	Timestamp *time.Time
	Metadata  *storage.Metadata
}

type rawPayload struct {
	ThreadID  json.RawMessage `json:"threadId"`
	Title     json.RawMessage `json:"title"`
	Model     json.RawMessage `json:"model"`
	Messages  json.RawMessage `json:"messages"`
	CreatedAt json.RawMessage `json:"createdAt"`
	SourceURL json.RawMessage `json:"sourceUrl"`
	UserName  json.RawMessage `json:"userName"`
	ChatTitle json.RawMessage `json:"chatTitle"`
}

type rawMessage struct {
	Role      json.RawMessage `json:"role"`
	Content   json.RawMessage `json:"content"`
	Model     json.RawMessage `json:"model"`
	Timestamp json.RawMessage `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata"`
}

// issues accumulates validation failures.
type issues service.ValidationErrors

func (is *issues) add(field, format string, args ...any) {
	*is = append(*is, service.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// stringField decodes raw as a string. Absent or null yields ok=false with no issue
// unless required.
func (is *issues) stringField(field string, raw json.RawMessage, required bool) (string, bool) {
	if isAbsent(raw) {
		if required {
			is.add(field, "required")
		}
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		is.add(field, "expected string")
		return "", false
	}
	if required && s == "" {
		is.add(field, "must not be empty")
		return "", false
	}
	return s, true
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// DecodePayload parses and validates an import body, reporting every violation.
func DecodePayload(body []byte) (*Payload, error) {
	var raw rawPayload
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, service.ValidationErrors{{Field: "body", Message: "expected a JSON object"}}
	}

	var is issues
	p := &Payload{}
	p.ThreadID, _ = is.stringField("threadId", raw.ThreadID, true)
	p.Title, _ = is.stringField("title", raw.Title, true)
	p.Model, _ = is.stringField("model", raw.Model, false)
	p.CreatedAt, _ = is.stringField("createdAt", raw.CreatedAt, false)
	p.UserName, _ = is.stringField("userName", raw.UserName, false)
	p.ChatTitle, _ = is.stringField("chatTitle", raw.ChatTitle, false)
	if src, ok := is.stringField("sourceUrl", raw.SourceURL, false); ok {
		if u, err := url.Parse(src); err != nil || u.Scheme == "" || u.Host == "" {
			is.add("sourceUrl", "must be an absolute URL")
		} else {
			p.SourceURL = src
		}
	}

	p.Messages = is.messages(raw.Messages)

	if len(is) > 0 {
		return nil, service.ValidationErrors(is)
	}
	return p, nil
}

func (is *issues) messages(raw json.RawMessage) []PayloadMessage {
	if isAbsent(raw) {
		is.add("messages", "required")
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		is.add("messages", "expected array")
		return nil
	}
	if len(items) == 0 {
		is.add("messages", "must contain at least 1 message")
		return nil
	}

	out := make([]PayloadMessage, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("messages[%d]", i)
		var rm rawMessage
		if err := json.Unmarshal(item, &rm); err != nil {
			is.add(prefix, "expected object")
			continue
		}

		var m PayloadMessage
		if role, ok := is.stringField(prefix+".role", rm.Role, false); ok {
			m.Role = storage.Role(role)
			if !m.Role.Valid() {
				is.add(prefix+".role", "must be one of user, assistant, system")
			}
		} else if isAbsent(rm.Role) {
			is.add(prefix+".role", "required")
		}
		if isAbsent(rm.Content) {
			is.add(prefix+".content", "required")
		} else {
			m.Content, _ = is.stringField(prefix+".content", rm.Content, false)
		}
		m.Model, _ = is.stringField(prefix+".model", rm.Model, false)
		if ts, ok := is.stringField(prefix+".timestamp", rm.Timestamp, false); ok {
			parsed, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				is.add(prefix+".timestamp", "must be an RFC 3339 timestamp")
			} else {
				parsed = parsed.UTC()
				m.Timestamp = &parsed
			}
		}
		m.Metadata = is.metadata(prefix+".metadata", rm.Metadata)
		out = append(out, m)
	}
	return out
}

func (is *issues) metadata(field string, raw json.RawMessage) *storage.Metadata {
	if isAbsent(raw) {
		return nil
	}
	var md storage.Metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		is.add(field, "%v", err)
		return nil
	}
	for i, u := range md.ImageURLs {
		if u == "" {
			is.add(fmt.Sprintf("%s.imageUrls[%d]", field, i), "must not be empty")
		}
	}
	for i, u := range md.ImageDataURLs {
		if u == "" {
			is.add(fmt.Sprintf("%s.imageDataUrls[%d]", field, i), "must not be empty")
		}
	}
	return &md
}
