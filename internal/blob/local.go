package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLocalURLPrefix is the path local blobs are served under.
const DefaultLocalURLPrefix = "/uploads/"

// LocalStore writes blobs to a directory served by the HTTP layer.
// It implements the Store interface.
type LocalStore struct {
	basePath  string
	urlPrefix string
	logger    *slog.Logger
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(basePath string) (*LocalStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{
		basePath:  basePath,
		urlPrefix: DefaultLocalURLPrefix,
		logger:    slog.Default().With("component", "local-blob"),
	}, nil
}

// Dir returns the directory blobs are written to.
func (l *LocalStore) Dir() string {
	return l.basePath
}

func (l *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(os.PathSeparator) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(l.basePath, clean), nil
}

// Put stores body under key.
func (l *LocalStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	fullPath, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	written, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	l.logger.Debug("blob stored", "key", key, "bytes", written)
	return nil
}

// Open reads the blob at key.
func (l *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	fullPath, err := l.path(key)
	if err != nil {
		return nil, "", err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return file, ContentTypeFromExt(fullPath), nil
}

// Exists reports whether key is present on disk.
func (l *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	fullPath, err := l.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// URL returns /uploads/<key>.
func (l *LocalStore) URL(key string) string {
	return l.urlPrefix + strings.TrimPrefix(filepath.ToSlash(key), "/")
}

// Health checks that the directory is writable.
func (l *LocalStore) Health(context.Context) error {
	testFile := filepath.Join(l.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("upload directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}
