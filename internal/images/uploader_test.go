package images

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"chatkanban/internal/blob"
)

func newTestUploader(t *testing.T) *Uploader {
	t.Helper()
	store, err := blob.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	return NewUploader(store)
}

func TestUploader_SaveDataURL(t *testing.T) {
	up := newTestUploader(t)
	ctx := context.Background()
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	first, err := up.SaveDataURL(ctx, dataURL, "my chart.png")
	if err != nil {
		t.Fatalf("SaveDataURL() error = %v", err)
	}
	if first.URL != "/uploads/mychart.png" {
		t.Errorf("first URL = %q, want /uploads/mychart.png", first.URL)
	}
	if first.ContentType != "image/png" {
		t.Errorf("ContentType = %q", first.ContentType)
	}

	second, err := up.SaveDataURL(ctx, dataURL, "my chart.png")
	if err != nil {
		t.Fatalf("SaveDataURL() error = %v", err)
	}
	if second.URL != "/uploads/mychart_01.png" {
		t.Errorf("second URL = %q, want /uploads/mychart_01.png", second.URL)
	}

	anon, err := up.SaveDataURL(ctx, "data:image/webp;base64,"+base64.StdEncoding.EncodeToString([]byte("RIFF")), "")
	if err != nil {
		t.Fatalf("SaveDataURL() error = %v", err)
	}
	if !strings.HasSuffix(anon.URL, ".webp") || len(strings.TrimPrefix(anon.URL, "/uploads/")) != 26+len(".webp") {
		t.Errorf("anonymous URL = %q, want a ULID .webp name", anon.URL)
	}
}

func TestUploader_SaveDataURL_Invalid(t *testing.T) {
	up := newTestUploader(t)
	for _, in := range []string{"", "hello", "data:image/png,notbase64", "data:image/png;base64,***"} {
		if _, err := up.SaveDataURL(context.Background(), in, "x"); !errors.Is(err, ErrInvalidDataURL) {
			t.Errorf("SaveDataURL(%q) error = %v, want ErrInvalidDataURL", in, err)
		}
	}
}

func TestUploader_SaveBytes_Extension(t *testing.T) {
	up := newTestUploader(t)
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		wantExt     string
	}{
		{name: "from filename", filename: "cat.JPEG", contentType: "application/octet-stream", data: []byte("x"), wantExt: ".jpg"},
		{name: "from content type", filename: "blob", contentType: "image/webp", data: []byte("x"), wantExt: ".webp"},
		{name: "sniffed", filename: "", contentType: "", data: pngBytes, wantExt: ".png"},
		{name: "unknown", filename: "notes.txt", contentType: "text/plain", data: []byte("hello"), wantExt: ".bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved, err := up.SaveBytes(context.Background(), tt.data, tt.filename, tt.contentType)
			if err != nil {
				t.Fatalf("SaveBytes() error = %v", err)
			}
			if !strings.HasSuffix(saved.URL, tt.wantExt) {
				t.Errorf("URL = %q, want suffix %s", saved.URL, tt.wantExt)
			}
		})
	}
}

func TestSanitizeBase(t *testing.T) {
	tests := map[string]string{
		"report.png":   "report",
		"a b/c?.jpg":   "abc",
		"../../etc...": "....etc",
		"日本.gif":       "",
		"plain":        "plain",
	}
	for in, want := range tests {
		if got := sanitizeBase(in); got != want {
			t.Errorf("sanitizeBase(%q) = %q, want %q", in, got, want)
		}
	}
}
