package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"chatkanban/internal/metrics"
)

const (
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome Safari"
	acceptImages     = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"

	// DefaultReferer is sent when callers do not supply one. Some image CDNs refuse requests without it.
	DefaultReferer = "https://gemini.google.com/"
	// DefaultMaxBytes caps a single fetched image.
	DefaultMaxBytes int64 = 25 << 20
)

var (
	// ErrTooLarge is returned when an image body exceeds the configured cap.
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid image url")
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %s", e.Status)
}

// StatusText returns the reason phrase without the numeric code.
func (e *StatusError) StatusText() string {
	return http.StatusText(e.StatusCode)
}

// Fetched is a downloaded image.
type Fetched struct {
	Data        []byte
	ContentType string
}

// Fetcher issues image GETs with desktop-browser headers.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher creates a Fetcher. A nil client uses a client with a 30s timeout.
func NewFetcher(client *http.Client, maxBytes int64) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{client: client, maxBytes: maxBytes}
}

// Open starts a GET for rawURL. The caller must close the response body.
// Non-2xx responses are closed and returned as *StatusError.
func (f *Fetcher) Open(ctx context.Context, rawURL, referer string) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", acceptImages)
	req.Header.Set("Cache-Control", "no-cache")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}

// Fetch downloads the whole body of rawURL, up to the size cap.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, referer string) (*Fetched, error) {
	start := time.Now()
	defer func() { metrics.RecordImageFetch(time.Since(start)) }()

	resp, err := f.Open(ctx, rawURL, referer)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return &Fetched{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}
