package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"chatkanban/internal/blob"
	"chatkanban/internal/storage"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestResolver(t *testing.T) (*Resolver, *blob.LocalStore, *storage.FileImageMap) {
	t.Helper()
	store, err := blob.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	cache, err := storage.NewFileImageMap("")
	if err != nil {
		t.Fatalf("NewFileImageMap() error = %v", err)
	}
	return NewResolver(NewFetcher(nil, 0), store, cache, ResolverConfig{}), store, cache
}

func TestResolver_Resolve_MixedLocalAndRemote(t *testing.T) {
	var gotUA, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	resolver, store, _ := newTestResolver(t)
	remote := srv.URL + "/a.png"
	got := resolver.Resolve(context.Background(), []string{remote, "/uploads/b.png"}, Options{Referer: "https://chat.example/"})

	if len(got) != 2 {
		t.Fatalf("Resolve() returned %d results, want 2", len(got))
	}
	if !got[0].OK || !strings.HasPrefix(got[0].URL, "/uploads/") || !strings.HasSuffix(got[0].URL, ".png") {
		t.Errorf("result[0] = %+v, want a local .png", got[0])
	}
	if got[0].Source != remote {
		t.Errorf("result[0].Source = %q, want %q", got[0].Source, remote)
	}
	if !got[1].OK || got[1].URL != "/uploads/b.png" {
		t.Errorf("result[1] = %+v, want passthrough", got[1])
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), strings.TrimPrefix(got[0].URL, "/uploads/")))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != string(pngBytes) {
		t.Errorf("stored bytes differ")
	}
	if !strings.Contains(gotUA, "Mozilla/5.0") {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotReferer != "https://chat.example/" {
		t.Errorf("Referer = %q", gotReferer)
	}
}

func TestResolver_Resolve_FetchesEachSourceOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg"))
	}))
	defer srv.Close()

	resolver, _, _ := newTestResolver(t)
	u := srv.URL + "/photo"
	ctx := context.Background()

	first := resolver.Resolve(ctx, []string{u, u, u}, Options{})
	for i, r := range first {
		if !r.OK || r.URL != first[0].URL {
			t.Errorf("result[%d] = %+v, want %q", i, r, first[0].URL)
		}
	}
	if !strings.HasSuffix(first[0].URL, ".jpg") {
		t.Errorf("URL = %q, want .jpg from content type", first[0].URL)
	}

	second := resolver.Resolve(ctx, []string{u}, Options{})
	if second[0].URL != first[0].URL {
		t.Errorf("second Resolve() = %q, want cached %q", second[0].URL, first[0].URL)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("upstream hits = %d, want 1", n)
	}
}

func TestResolver_Resolve_FailuresArePositional(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/gif")
		_, _ = w.Write([]byte("GIF89a"))
	}))
	defer srv.Close()

	resolver, _, _ := newTestResolver(t)
	got := resolver.Resolve(context.Background(), []string{srv.URL + "/missing.png", "", srv.URL + "/ok"}, Options{})

	if got[0].OK || got[1].OK {
		t.Errorf("failed entries should not be OK: %+v", got[:2])
	}
	if !got[2].OK || !strings.HasSuffix(got[2].URL, ".gif") {
		t.Errorf("result[2] = %+v, want a .gif", got[2])
	}
	if compact := Compact(got); len(compact) != 1 || compact[0] != got[2].URL {
		t.Errorf("Compact() = %v", compact)
	}
}

func TestResolver_Resolve_TimeoutDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	resolver, _, _ := newTestResolver(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	got := resolver.Resolve(ctx, []string{srv.URL + "/slow.png"}, Options{Timeout: time.Millisecond})
	if got[0].OK {
		t.Errorf("slow fetch should fail, got %+v", got[0])
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Resolve() took %v, parent deadline ignored", elapsed)
	}
}

func TestResolver_IsLocal(t *testing.T) {
	resolver := NewResolver(NewFetcher(nil, 0), nil, nil, ResolverConfig{LocalPrefixes: []string{"https://cdn.example/bucket/"}})
	tests := map[string]bool{
		"/uploads/a.png":                      true,
		"http://localhost:3000/uploads/a.png": true,
		"http://localhost:3000/other/a.png":   false,
		"https://cdn.example/bucket/x.webp":   true,
		"https://img.example/a.png":           false,
	}
	for u, want := range tests {
		if got := resolver.IsLocal(u); got != want {
			t.Errorf("IsLocal(%q) = %v, want %v", u, got, want)
		}
	}
}
