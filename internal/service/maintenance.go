package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatkanban/internal/contextutil"
	"chatkanban/internal/metrics"
	"chatkanban/internal/storage"
)

// Replacement swaps one exact image URL for another.
type Replacement struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FileAssignment names an uploaded image "<topicId>_<NNN>.<ext>" and where it lives.
type FileAssignment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// AssignResult reports how many images were attached to a topic.
type AssignResult struct {
	TopicID string `json:"topicId"`
	Count   int    `json:"count"`
}

// MaintenanceService runs bulk image jobs. Every job is best-effort per
// message and returns how many messages it rewrote.
type MaintenanceService interface {
	ResolveRally(ctx context.Context, rallyID string) (int, error)
	// ResolveMessages skips unknown ids.
	ResolveMessages(ctx context.Context, ids []string) (int, error)
	MigrateAllImages(ctx context.Context) (int, error)
	MigrateTopicImages(ctx context.Context, topicID string) (int, error)
	// ReplaceImageURLs limits itself to topicID when it is not empty.
	ReplaceImageURLs(ctx context.Context, topicID string, replace []Replacement) (int, error)
	AssignByFilename(ctx context.Context, files []FileAssignment) ([]AssignResult, error)
}

// maintenanceService implements MaintenanceService.
type maintenanceService struct {
	repo     storage.Repository
	resolver ImageResolver
	referer  string
	now      func() time.Time
}

// NewMaintenanceService creates a MaintenanceService.
func NewMaintenanceService(repo storage.Repository, resolver ImageResolver, referer string) MaintenanceService {
	return &maintenanceService{
		repo:     repo,
		resolver: resolver,
		referer:  referer,
		now:      time.Now,
	}
}

// ResolveRally resolves images of every message in a rally.
func (s *maintenanceService) ResolveRally(ctx context.Context, rallyID string) (int, error) {
	if strings.TrimSpace(rallyID) == "" {
		return 0, &ValidationError{Field: "rallyId", Message: "required"}
	}
	msgs, err := s.repo.ListMessagesByRallyID(ctx, rallyID)
	if err != nil {
		return 0, WrapError(err, "failed to list messages")
	}
	return s.resolveAll(ctx, "resolve_rally", msgs), nil
}

// ResolveMessages resolves images of the listed messages.
func (s *maintenanceService) ResolveMessages(ctx context.Context, ids []string) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)
	msgs := make([]storage.Message, 0, len(ids))
	for _, id := range ids {
		m, err := s.repo.GetMessage(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			logger.DebugContext(ctx, "skipping unknown message", "message_id", id)
			continue
		}
		if err != nil {
			return 0, WrapError(err, "failed to get message")
		}
		msgs = append(msgs, *m)
	}
	return s.resolveAll(ctx, "resolve_messages", msgs), nil
}

// MigrateAllImages resolves external images across every topic.
func (s *maintenanceService) MigrateAllImages(ctx context.Context) (int, error) {
	topics, err := s.repo.ListTopics(ctx)
	if err != nil {
		return 0, WrapError(err, "failed to list topics")
	}
	updated := 0
	for _, t := range topics {
		_, msgs, err := topicMessages(ctx, s.repo, t.ID)
		if err != nil {
			return updated, err
		}
		updated += s.resolveAll(ctx, "migrate_all", msgs)
	}
	return updated, nil
}

// MigrateTopicImages resolves external images of one topic.
func (s *maintenanceService) MigrateTopicImages(ctx context.Context, topicID string) (int, error) {
	if strings.TrimSpace(topicID) == "" {
		return 0, &ValidationError{Field: "topicId", Message: "required"}
	}
	_, msgs, err := topicMessages(ctx, s.repo, topicID)
	if err != nil {
		return 0, err
	}
	return s.resolveAll(ctx, "migrate_topic", msgs), nil
}

func (s *maintenanceService) resolveAll(ctx context.Context, job string, msgs []storage.Message) int {
	logger := contextutil.LoggerFromContext(ctx)
	updated := 0
	for i := range msgs {
		m := msgs[i]
		if !resolveMessage(ctx, s.resolver, s.referer, &m) {
			continue
		}
		if err := s.repo.UpdateMessage(ctx, &m); err != nil {
			logger.WarnContext(ctx, "failed to update message", "job", job, "message_id", m.ID, "error", err)
			continue
		}
		updated++
	}
	metrics.RecordMaintenance(job, updated)
	logger.InfoContext(ctx, "maintenance job finished", "job", job, "messages", len(msgs), "updated", updated)
	return updated
}

// ReplaceImageURLs substitutes exact URL matches in imageUrls and resolvedImageUrls.
func (s *maintenanceService) ReplaceImageURLs(ctx context.Context, topicID string, replace []Replacement) (int, error) {
	if len(replace) == 0 {
		return 0, &ValidationError{Field: "replace", Message: "array required"}
	}
	lookup := make(map[string]string, len(replace))
	for _, r := range replace {
		if r.From == "" || r.To == "" || r.From == r.To {
			continue
		}
		if _, dup := lookup[r.From]; !dup {
			lookup[r.From] = r.To
		}
	}

	var topicIDs []string
	if topicID != "" {
		topicIDs = []string{topicID}
	} else {
		topics, err := s.repo.ListTopics(ctx)
		if err != nil {
			return 0, WrapError(err, "failed to list topics")
		}
		for _, t := range topics {
			topicIDs = append(topicIDs, t.ID)
		}
	}

	logger := contextutil.LoggerFromContext(ctx)
	updated := 0
	for _, id := range topicIDs {
		_, msgs, err := topicMessages(ctx, s.repo, id)
		if err != nil {
			return updated, err
		}
		for i := range msgs {
			m := msgs[i]
			if m.Metadata == nil {
				continue
			}
			urls, c1 := substitute(m.Metadata.ImageURLs, lookup)
			resolved, c2 := substitute(m.Metadata.ResolvedImageURLs, lookup)
			if !c1 && !c2 {
				continue
			}
			md := m.Metadata.Clone()
			md.ImageURLs, md.ResolvedImageURLs = urls, resolved
			m.Metadata = md
			if err := s.repo.UpdateMessage(ctx, &m); err != nil {
				logger.WarnContext(ctx, "failed to update message", "job", "replace_urls", "message_id", m.ID, "error", err)
				continue
			}
			updated++
		}
	}
	metrics.RecordMaintenance("replace_urls", updated)
	return updated, nil
}

func substitute(urls []string, lookup map[string]string) ([]string, bool) {
	if len(urls) == 0 {
		return urls, false
	}
	out := make([]string, len(urls))
	changed := false
	for i, u := range urls {
		out[i] = u
		if to, ok := lookup[u]; ok {
			out[i] = to
			changed = true
		}
	}
	return out, changed
}

var assignPattern = regexp.MustCompile(`(?i)^(.+?)_(\d{3})\.[a-z0-9]+$`)

type indexedURL struct {
	index int
	url   string
}

// AssignByFilename attaches images named "<topicId>_<NNN>.<ext>" to the
// topic's first assistant message, ordered by NNN.
func (s *maintenanceService) AssignByFilename(ctx context.Context, files []FileAssignment) ([]AssignResult, error) {
	if len(files) == 0 {
		return nil, &ValidationError{Field: "files", Message: "required"}
	}
	logger := contextutil.LoggerFromContext(ctx)

	byTopic := make(map[string][]indexedURL)
	var order []string
	for _, f := range files {
		m := assignPattern.FindStringSubmatch(strings.TrimSpace(f.Filename))
		if m == nil || f.URL == "" {
			logger.DebugContext(ctx, "skipping unmatched filename", "filename", f.Filename)
			continue
		}
		idx, _ := strconv.Atoi(m[2])
		if _, ok := byTopic[m[1]]; !ok {
			order = append(order, m[1])
		}
		byTopic[m[1]] = append(byTopic[m[1]], indexedURL{index: idx, url: f.URL})
	}

	results := make([]AssignResult, 0, len(order))
	for _, topicID := range order {
		list := byTopic[topicID]
		sort.SliceStable(list, func(i, j int) bool { return list[i].index < list[j].index })
		urls := make([]string, len(list))
		for i, x := range list {
			urls[i] = x.url
		}

		if err := s.assign(ctx, topicID, urls); err != nil {
			if errors.Is(err, ErrNotFound) {
				logger.WarnContext(ctx, "skipping unknown topic", "topic_id", topicID)
				continue
			}
			return results, err
		}
		results = append(results, AssignResult{TopicID: topicID, Count: len(urls)})
	}
	metrics.RecordMaintenance("assign_by_filename", len(results))
	return results, nil
}

func (s *maintenanceService) assign(ctx context.Context, topicID string, urls []string) error {
	if _, err := s.repo.GetTopic(ctx, topicID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return WrapError(err, "failed to get topic")
	}

	rallies, msgs, err := topicMessages(ctx, s.repo, topicID)
	if err != nil {
		return err
	}

	var target *storage.Message
	for i := range msgs {
		if msgs[i].Role == storage.RoleAssistant {
			target = &msgs[i]
			break
		}
	}
	if target == nil {
		rallyID := fmt.Sprintf("rally_%s_0", topicID)
		if len(rallies) > 0 {
			rallyID = rallies[0].ID
		} else if err := s.repo.CreateRally(ctx, &storage.Rally{ID: rallyID, TopicID: topicID, Index: 0}); err != nil {
			return WrapError(err, "failed to create rally")
		}
		target = &storage.Message{
			ID:        rallyID + "_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
			RallyID:   rallyID,
			Role:      storage.RoleAssistant,
			Model:     "unknown",
			Timestamp: s.now().UTC(),
		}
	}

	md := target.Metadata.Clone()
	if md == nil {
		md = &storage.Metadata{}
	}
	md.ImageURLs = urls
	md.ResolvedImageURLs = append([]string(nil), urls...)
	target.Metadata = md
	if err := s.repo.UpdateMessage(ctx, target); err != nil {
		return WrapError(err, "failed to update message")
	}
	return nil
}
