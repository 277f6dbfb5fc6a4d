package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a storage backend.
type Options struct {
	Backend     string
	DataDir     string // file backend: store.json and image-map.json live here
	DBPath      string // sqlite backend
	RedisURL    string // redis backend
	RedisPrefix string
}

// Stores is the set of adapters produced by Open.
type Stores struct {
	Repo   Repository
	Images ImageMap
	// Redis is set when the redis backend is selected, so callers can share the client.
	Redis redis.UniversalClient
}

// Close releases the repository.
func (s *Stores) Close() error {
	return s.Repo.Close()
}

// Open builds the repository and image map for the configured backend.
// It is meant to be called once at startup.
func Open(ctx context.Context, opts Options) (*Stores, error) {
	switch opts.Backend {
	case BackendMemory:
		images, _ := NewFileImageMap("")
		return &Stores{Repo: NewMemoryRepo(), Images: images}, nil

	case BackendFile, "":
		repo, err := NewFileRepo(filepath.Join(opts.DataDir, "store.json"))
		if err != nil {
			return nil, err
		}
		images, err := NewFileImageMap(filepath.Join(opts.DataDir, "image-map.json"))
		if err != nil {
			return nil, err
		}
		return &Stores{Repo: repo, Images: images}, nil

	case BackendSQLite:
		db, err := New(opts.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Stores{Repo: NewSQLiteRepo(db), Images: NewSQLiteImageMap(db)}, nil

	case BackendRedis:
		client, err := NewRedisClient(ctx, opts.RedisURL)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Repo:   NewRedisRepo(client, opts.RedisPrefix),
			Images: NewRedisImageMap(client, opts.RedisPrefix),
			Redis:  client,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}
