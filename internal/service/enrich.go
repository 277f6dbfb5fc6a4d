package service

import (
	"context"

	"chatkanban/internal/contextutil"
	"chatkanban/internal/images"
	"chatkanban/internal/storage"
)

// enricher attaches resolvedImageUrls to messages at read time and warms
// the stored copy when something new was resolved.
type enricher struct {
	repo     storage.Repository
	resolver ImageResolver
	referer  string
}

func newEnricher(repo storage.Repository, resolver ImageResolver, referer string) *enricher {
	return &enricher{repo: repo, resolver: resolver, referer: referer}
}

func qualifies(m storage.Message) bool {
	return m.Metadata != nil && !m.Metadata.HasDataURLs() && m.Metadata.HasImageURLs()
}

// enrich returns copies of msgs. Resolution runs as one batch for the whole page.
func (e *enricher) enrich(ctx context.Context, msgs []storage.Message) []storage.Message {
	if e.resolver == nil {
		return msgs
	}

	var batch []string
	seen := make(map[string]bool)
	for _, m := range msgs {
		if !qualifies(m) {
			continue
		}
		for _, u := range m.Metadata.ImageURLs {
			if !e.resolver.IsLocal(u) && !seen[u] {
				seen[u] = true
				batch = append(batch, u)
			}
		}
	}

	resolved := make(map[string]string, len(batch))
	if len(batch) > 0 {
		for _, r := range e.resolver.Resolve(ctx, batch, images.Options{Referer: e.referer}) {
			if r.OK {
				resolved[r.Source] = r.URL
			}
		}
	}

	out := make([]storage.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m
		if !qualifies(m) {
			continue
		}

		merged, local, changed := mergeResolved(m.Metadata.ImageURLs, e.resolver.IsLocal, resolved)
		md := m.Metadata.Clone()
		md.ResolvedImageURLs = local
		if changed {
			md.ImageURLs = merged
			out[i].Metadata = md
			e.warm(ctx, out[i])
			continue
		}
		out[i].Metadata = md
	}
	return out
}

// mergeResolved returns the positional merge of urls (resolved copy, else the
// original), the local URLs only, and whether any external URL was replaced.
func mergeResolved(urls []string, isLocal func(string) bool, resolved map[string]string) ([]string, []string, bool) {
	merged := make([]string, len(urls))
	local := make([]string, 0, len(urls))
	changed := false
	for i, u := range urls {
		merged[i] = u
		if isLocal(u) {
			local = append(local, u)
			continue
		}
		if r, ok := resolved[u]; ok {
			merged[i] = r
			local = append(local, r)
			changed = true
		}
	}
	return merged, local, changed
}

// warm persists an enriched message. Failures are logged and dropped.
func (e *enricher) warm(ctx context.Context, m storage.Message) {
	if err := e.repo.UpdateMessage(ctx, &m); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to persist resolved images",
			"message_id", m.ID, "error", err)
	}
}

// resolveMessage resolves one message's external images. It reports whether
// the message changed, and leaves it untouched when nothing resolved.
func resolveMessage(ctx context.Context, resolver ImageResolver, referer string, m *storage.Message) bool {
	if !qualifies(*m) {
		return false
	}
	urls := m.Metadata.ImageURLs
	if allLocal(urls, resolver.IsLocal) {
		return false
	}

	results := resolver.Resolve(ctx, urls, images.Options{Referer: referer})
	resolved := make(map[string]string, len(results))
	for _, r := range results {
		if r.OK {
			resolved[r.Source] = r.URL
		}
	}
	merged, local, changed := mergeResolved(urls, resolver.IsLocal, resolved)
	if !changed {
		return false
	}

	md := m.Metadata.Clone()
	md.ImageURLs = merged
	md.ResolvedImageURLs = local
	m.Metadata = md
	return true
}

func allLocal(urls []string, isLocal func(string) bool) bool {
	for _, u := range urls {
		if !isLocal(u) {
			return false
		}
	}
	return true
}
