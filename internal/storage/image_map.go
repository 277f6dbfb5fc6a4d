package storage

import (
	"context"
	"fmt"
	"sync"
)

// FileImageMap keeps the source→local image mapping in memory and, when a
// path is set, rewrites it as a JSON object after every Record.
// It implements the ImageMap interface.
type FileImageMap struct {
	mu      sync.RWMutex
	entries map[string]string
	path    string
}

// NewFileImageMap loads the mapping at path. An empty path keeps it in memory only.
func NewFileImageMap(path string) (*FileImageMap, error) {
	m := &FileImageMap{entries: make(map[string]string), path: path}
	if path == "" {
		return m, nil
	}
	if err := readJSONFile(path, &m.entries); err != nil {
		return nil, fmt.Errorf("failed to load image map: %w", err)
	}
	if m.entries == nil {
		m.entries = make(map[string]string)
	}
	return m, nil
}

// Lookup returns the local URL for source.
func (m *FileImageMap) Lookup(_ context.Context, source string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	local, ok := m.entries[source]
	if !ok {
		return "", ErrNotFound
	}
	return local, nil
}

// Record stores source→local and persists the mapping.
func (m *FileImageMap) Record(_ context.Context, source, local string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, existed := m.entries[source]
	m.entries[source] = local
	if m.path == "" {
		return nil
	}
	if err := writeJSONAtomic(m.path, m.entries); err != nil {
		if existed {
			m.entries[source] = prev
		} else {
			delete(m.entries, source)
		}
		return fmt.Errorf("failed to persist image map: %w", err)
	}
	return nil
}
