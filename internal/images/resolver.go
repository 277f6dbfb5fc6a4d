// Package images fetches remote chat images into the blob store and handles uploads.
package images

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"chatkanban/internal/blob"
	"chatkanban/internal/contextutil"
	"chatkanban/internal/metrics"
	"chatkanban/internal/storage"
)

const (
	// DefaultTimeout bounds one Resolve batch when callers do not set one.
	DefaultTimeout = 5 * time.Second
	// MinTimeout is the floor applied to caller-supplied timeouts.
	MinTimeout = 3 * time.Second
	// DefaultConcurrency limits parallel fetches within a batch.
	DefaultConcurrency = 8
)

// Options tunes one Resolve call.
type Options struct {
	Referer string
	Timeout time.Duration
}

// Resolution is the outcome for one input URL, in input order.
type Resolution struct {
	Source string
	URL    string
	OK     bool
}

// Compact returns the resolved URLs of rs, dropping failures.
func Compact(rs []Resolution) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		if r.OK {
			out = append(out, r.URL)
		}
	}
	return out
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// LocalPrefixes are URL prefixes already served by this deployment.
	LocalPrefixes []string
	Concurrency   int
	// Timeout applies to batches whose Options leave Timeout unset.
	Timeout time.Duration
}

// Resolver turns remote image URLs into locally stored copies.
type Resolver struct {
	fetcher       *Fetcher
	store         blob.Store
	cache         storage.ImageMap
	localPrefixes []string
	concurrency   int
	timeout       time.Duration
}

// NewResolver creates a Resolver. cache may be nil to disable the source→local map.
func NewResolver(fetcher *Fetcher, store blob.Store, cache storage.ImageMap, cfg ResolverConfig) *Resolver {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	prefixes := []string{blob.DefaultLocalURLPrefix}
	for _, p := range cfg.LocalPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return &Resolver{
		fetcher:       fetcher,
		store:         store,
		cache:         cache,
		localPrefixes: prefixes,
		concurrency:   cfg.Concurrency,
		timeout:       cfg.Timeout,
	}
}

// IsLocal reports whether u already points at a stored image.
func (r *Resolver) IsLocal(u string) bool {
	for _, p := range r.localPrefixes {
		if strings.HasPrefix(u, p) {
			return true
		}
	}
	return strings.HasPrefix(u, "http://localhost") && strings.Contains(u, "/uploads/")
}

// Resolve returns one Resolution per input URL. Local URLs pass through,
// cached sources reuse their stored copy, and the rest are fetched at most
// once each within a shared deadline. Failures never abort the batch.
func (r *Resolver) Resolve(ctx context.Context, urls []string, opts Options) []Resolution {
	logger := contextutil.LoggerFromContext(ctx).With("component", "image-resolver")
	results := make([]Resolution, len(urls))

	pending := make(map[string][]int)
	var order []string
	for i, u := range urls {
		results[i].Source = u
		switch {
		case strings.TrimSpace(u) == "":
			metrics.RecordImageResolution(metrics.ImageFailed)
		case r.IsLocal(u):
			results[i].URL, results[i].OK = u, true
			metrics.RecordImageResolution(metrics.ImageLocal)
		default:
			if _, seen := pending[u]; !seen {
				order = append(order, u)
			}
			pending[u] = append(pending[u], i)
		}
	}
	if len(order) == 0 {
		return results
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	timeout = max(timeout, MinTimeout)
	batchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var mu sync.Mutex
	fill := func(src, local string) {
		mu.Lock()
		defer mu.Unlock()
		for _, i := range pending[src] {
			results[i].URL, results[i].OK = local, true
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for _, src := range order {
		if local := r.lookup(ctx, src); local != "" {
			fill(src, local)
			metrics.RecordImageResolution(metrics.ImageCacheHit)
			continue
		}
		src := src
		g.Go(func() error {
			saved, err := r.fetchAndStore(batchCtx, src, opts.Referer)
			if err != nil {
				logger.WarnContext(ctx, "image fetch failed", "url", src, "error", err)
				metrics.RecordImageResolution(metrics.ImageFailed)
				return nil
			}
			if r.cache != nil {
				if err := r.cache.Record(context.WithoutCancel(ctx), src, saved.URL); err != nil {
					logger.WarnContext(ctx, "failed to record image mapping", "url", src, "error", err)
				}
			}
			fill(src, saved.URL)
			metrics.RecordImageResolution(metrics.ImageFetched)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// FetchAndStore downloads rawURL and stores it without consulting the cache.
func (r *Resolver) FetchAndStore(ctx context.Context, rawURL, referer string) (Saved, error) {
	return r.fetchAndStore(ctx, rawURL, referer)
}

func (r *Resolver) fetchAndStore(ctx context.Context, rawURL, referer string) (Saved, error) {
	fetched, err := r.fetcher.Fetch(ctx, rawURL, referer)
	if err != nil {
		return Saved{}, err
	}
	contentType := fetched.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ext := firstExt(extFromType(contentType), extFromName(rawURL))
	return put(ctx, r.store, NewObjectName(ext), fetched.Data, contentType)
}

func (r *Resolver) lookup(ctx context.Context, src string) string {
	if r.cache == nil {
		return ""
	}
	local, err := r.cache.Lookup(ctx, src)
	if errors.Is(err, storage.ErrNotFound) {
		return ""
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "image map lookup failed", "url", src, "error", err)
		return ""
	}
	return local
}
