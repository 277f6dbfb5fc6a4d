package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"chatkanban/internal/contextutil"
	"chatkanban/internal/service"
	"chatkanban/internal/share"
	"chatkanban/internal/storage"
)

// ShareResponse describes a newly issued share link.
type ShareResponse struct {
	ID        string    `json:"id"`
	TopicID   string    `json:"topicId"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// sharePageData holds template data for a shared topic.
type sharePageData struct {
	Title    string
	Meta     string
	Messages []shareMessage
}

type shareMessage struct {
	Role    string
	Model   string
	Content template.HTML
	Images  []template.URL
}

// ShareHandler issues share links and renders shared topics as HTML.
type ShareHandler struct {
	threads  service.ThreadService
	signer   *share.Signer
	isLocal  func(string) bool
	markdown goldmark.Markdown
	template *template.Template
	now      func() time.Time
}

// NewShareHandler creates a new ShareHandler. isLocal decides which stored
// image URLs are already served by this deployment.
func NewShareHandler(threads service.ThreadService, signer *share.Signer, isLocal func(string) bool) *ShareHandler {
	if isLocal == nil {
		isLocal = func(string) bool { return false }
	}
	return &ShareHandler{
		threads: threads,
		signer:  signer,
		isLocal: isLocal,
		// Imported content is untrusted, so raw HTML stays escaped.
		markdown: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: template.Must(template.New("share").Parse(sharePageTemplate)),
		now:      time.Now,
	}
}

// Create handles POST /api/share/{topicId}.
func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	topicID := chi.URLParam(r, "topicId")

	topic, err := h.threads.GetTopic(ctx, topicID)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to create share link")
		return
	}

	token, expiresAt, err := h.signer.Issue(topic.ID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to issue share token", "topic_id", topic.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create share link")
		return
	}

	logger.InfoContext(ctx, "share link issued", "topic_id", topic.ID, "expires_at", expiresAt)
	writeJSON(ctx, w, http.StatusOK, ShareResponse{
		ID:        uuid.NewString(),
		TopicID:   topic.ID,
		Token:     token,
		URL:       fmt.Sprintf("/share/%s?t=%s", url.PathEscape(topic.ID), url.QueryEscape(token)),
		ExpiresAt: expiresAt,
		CreatedAt: h.now().UTC(),
	})
}

// Page handles GET /share/{topicId}?t=.
func (h *ShareHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	topicID := chi.URLParam(r, "topicId")

	topic, err := h.threads.GetTopic(ctx, topicID)
	if err != nil {
		if isNotFound(err) {
			http.Error(w, "topic not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "failed to load shared topic", "topic_id", topicID, "error", err)
		http.Error(w, "failed to load topic", http.StatusInternalServerError)
		return
	}

	if topic.Visibility != storage.VisibilityPublic {
		if err := h.signer.Verify(r.URL.Query().Get("t"), topic.ID); err != nil {
			logger.WarnContext(ctx, "share token rejected", "topic_id", topic.ID, "error", err)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	msgs, err := h.threads.ListMessages(ctx, service.MessageQuery{TopicID: topic.ID})
	if err != nil {
		logger.ErrorContext(ctx, "failed to load shared messages", "topic_id", topic.ID, "error", err)
		http.Error(w, "failed to load topic", http.StatusInternalServerError)
		return
	}

	data := sharePageData{
		Title:    topic.DisplayTitle(),
		Meta:     shareMeta(topic),
		Messages: make([]shareMessage, 0, len(msgs)),
	}
	for _, m := range msgs {
		content, err := h.render(m.Content)
		if err != nil {
			logger.ErrorContext(ctx, "failed to render markdown", "message_id", m.ID, "error", err)
			http.Error(w, "failed to render topic", http.StatusInternalServerError)
			return
		}
		data.Messages = append(data.Messages, shareMessage{
			Role:    string(m.Role),
			Model:   m.Model,
			Content: content,
			Images:  safeImageURLs(m.Metadata.DisplayImages(h.isLocal)),
		})
	}

	var buf bytes.Buffer
	if err := h.template.Execute(&buf, data); err != nil {
		logger.ErrorContext(ctx, "failed to execute share template", "topic_id", topic.ID, "error", err)
		http.Error(w, "failed to render topic", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *ShareHandler) render(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func shareMeta(t *storage.Topic) string {
	parts := []string{t.UpdatedAt.UTC().Format("2006-01-02")}
	if t.Model != "" {
		parts = append(parts, t.Model)
	}
	if t.UserName != "" {
		parts = append(parts, t.UserName)
	}
	return strings.Join(parts, " · ")
}

// safeImageURLs keeps http(s), root-relative and inline image sources.
// html/template would otherwise rewrite data: URLs to a placeholder.
func safeImageURLs(srcs []string) []template.URL {
	out := make([]template.URL, 0, len(srcs))
	for _, s := range srcs {
		switch {
		case strings.HasPrefix(s, "data:image/"),
			strings.HasPrefix(s, "https://"),
			strings.HasPrefix(s, "http://"),
			strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//"):
			out = append(out, template.URL(s))
		}
	}
	return out
}

const sharePageTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <meta name="robots" content="noindex">
  <title>{{.Title}}</title>
  <style>
    :root {
      color-scheme: dark;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 900px;
      background: #050b18;
      color: #e4ecff;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid rgba(148, 163, 184, 0.2);
      padding-bottom: 1.5rem;
    }
    h1 {
      margin-top: 0;
      color: #fff;
      font-size: 2rem;
    }
    .message {
      background: rgba(12, 19, 35, 0.85);
      border: 1px solid rgba(99, 102, 241, 0.2);
      border-radius: 16px;
      padding: 1.5rem 2rem;
      margin-bottom: 1.25rem;
    }
    .message.user {
      border-color: rgba(96, 165, 250, 0.45);
    }
    .role {
      color: #94a3b8;
      font-size: 0.85rem;
      text-transform: uppercase;
      letter-spacing: 0.05em;
    }
    pre {
      background: #0f172a;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 10px;
      border: 1px solid rgba(99, 102, 241, 0.2);
    }
    code {
      font-family: 'SFMono-Regular', Consolas, 'Liberation Mono', Menlo, monospace;
      background: rgba(99, 102, 241, 0.18);
      padding: 2px 5px;
      border-radius: 6px;
      color: #cbd5ff;
    }
    pre code {
      background: transparent;
      padding: 0;
    }
    img {
      max-width: 100%;
      border-radius: 10px;
      margin-top: 0.75rem;
    }
    a {
      color: #60a5fa;
    }
    .meta {
      color: #94a3b8;
      font-size: 0.95rem;
      margin-top: 0.5rem;
    }
    @media (max-width: 640px) {
      body {
        padding: 1rem;
      }
      .message {
        padding: 1.25rem;
      }
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">{{.Meta}}</p>
  </header>
  {{range .Messages}}
  <section class="message {{.Role}}">
    <div class="role">{{.Role}}{{if .Model}} &middot; {{.Model}}{{end}}</div>
    <div class="content">{{.Content}}</div>
    {{range .Images}}<img src="{{.}}" alt="" loading="lazy">{{end}}
  </section>
  {{end}}
</body>
</html>`
