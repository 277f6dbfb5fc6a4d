package images

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
)

// NewObjectName returns a lowercase, time-sortable ULID file name with ext appended.
func NewObjectName(ext string) string {
	entropyMu.Lock()
	if entropy == nil {
		entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	}
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	return strings.ToLower(id.String()) + ext
}

// extFromType maps an image content type to a file extension, or "".
func extFromType(contentType string) string {
	t := strings.ToLower(contentType)
	switch {
	case strings.Contains(t, "png"):
		return ".png"
	case strings.Contains(t, "jpeg"), strings.Contains(t, "jpg"):
		return ".jpg"
	case strings.Contains(t, "webp"):
		return ".webp"
	case strings.Contains(t, "gif"):
		return ".gif"
	}
	return ""
}

// extFromName maps a file name or URL (query ignored) to an image extension, or "".
func extFromName(name string) string {
	lower := strings.ToLower(strings.SplitN(name, "?", 2)[0])
	switch {
	case strings.HasSuffix(lower, ".png"):
		return ".png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return ".jpg"
	case strings.HasSuffix(lower, ".webp"):
		return ".webp"
	case strings.HasSuffix(lower, ".gif"):
		return ".gif"
	}
	return ""
}

// firstExt returns the first non-empty candidate, or ".bin".
func firstExt(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ".bin"
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeBase keeps letters, digits, dot, dash and underscore, drops trailing
// dots and strips a known image extension (the caller appends its own).
func sanitizeBase(name string) string {
	s := unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "")
	s = strings.TrimRight(s, ".")
	if ext := extFromName(s); ext != "" {
		s = s[:strings.LastIndex(s, ".")]
		s = strings.TrimRight(s, ".")
	}
	return s
}
