package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteExport(t *testing.T) {
	payload := map[string]any{"data": []string{"topic_a"}}

	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeExport(payload, "", &buf); err != nil {
			t.Fatalf("writeExport() error = %v", err)
		}
		if !json.Valid(buf.Bytes()) {
			t.Errorf("stdout = %q, want JSON", buf.String())
		}
	})

	t.Run("file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "export.json")
		if err := writeExport(payload, path, &buf); err != nil {
			t.Fatalf("writeExport() error = %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("stdout = %q, want nothing when writing a file", buf.String())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		var got map[string][]string
		if err := json.Unmarshal(data, &got); err != nil || len(got["data"]) != 1 {
			t.Errorf("file = %q, %v; want the export", data, err)
		}
	})

	t.Run("unwritable path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "export.json")
		if err := writeExport(payload, path, &bytes.Buffer{}); err == nil {
			t.Error("writeExport() into a missing directory should fail")
		}
	})

	t.Run("unencodable value", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export.json")
		if err := writeExport(map[string]any{"bad": make(chan int)}, path, &bytes.Buffer{}); err == nil {
			t.Error("writeExport() of a channel should fail")
		}
	})
}
