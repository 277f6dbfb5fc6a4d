package main

import (
	"context"
	"fmt"
	"log/slog"

	"chatkanban/internal/blob"
	"chatkanban/internal/config"
	"chatkanban/internal/images"
	"chatkanban/internal/importer"
	"chatkanban/internal/service"
	"chatkanban/internal/storage"
)

// app holds the adapters and services shared by every subcommand.
type app struct {
	stores      *storage.Stores
	blobs       blob.Store
	fetcher     *images.Fetcher
	resolver    *images.Resolver
	uploader    *images.Uploader
	importer    importer.Importer
	threads     service.ThreadService
	maintenance service.MaintenanceService
}

// newApp opens the configured storage and blob backends and builds the services on top.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	stores, err := storage.Open(ctx, storage.Options{
		Backend:     cfg.StoreBackend,
		DataDir:     cfg.DataDir,
		DBPath:      cfg.DBPath,
		RedisURL:    cfg.RedisURL,
		RedisPrefix: cfg.RedisKeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	slog.Info("Store initialized", "backend", cfg.StoreBackend)

	a := &app{stores: stores}
	localPrefixes := []string{}
	if cfg.PublicBaseURL != "" {
		localPrefixes = append(localPrefixes, cfg.PublicBaseURL+blob.DefaultLocalURLPrefix)
	}

	switch cfg.BlobBackend {
	case "s3":
		s3Store, err := blob.NewS3Store(ctx, blob.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
		})
		if err != nil {
			_ = stores.Close()
			return nil, fmt.Errorf("failed to create s3 store: %w", err)
		}
		a.blobs = s3Store
		localPrefixes = append(localPrefixes, s3Store.BaseURL()+"/")
		slog.Info("Blob store initialized", "backend", "s3", "bucket", cfg.S3.Bucket)
	default:
		localStore, err := blob.NewLocalStore(cfg.UploadDir)
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		a.blobs = localStore
		slog.Info("Blob store initialized", "backend", "local", "dir", localStore.Dir())
	}

	a.fetcher = images.NewFetcher(nil, cfg.ImageMaxBytes)
	a.resolver = images.NewResolver(a.fetcher, a.blobs, stores.Images, images.ResolverConfig{
		LocalPrefixes: localPrefixes,
		Concurrency:   cfg.ImageFetchConcurrency,
		Timeout:       cfg.ImageFetchTimeout,
	})
	a.uploader = images.NewUploader(a.blobs)

	// Imports from several processes sharing one Redis store need a shared lock.
	var locker importer.Locker
	if stores.Redis != nil {
		locker = importer.NewRedisLocker(stores.Redis, cfg.RedisKeyPrefix)
	}
	a.importer = importer.NewPipeline(stores.Repo, locker)

	a.threads = service.NewThreadService(stores.Repo, a.resolver, cfg.ImageDefaultReferer)
	a.maintenance = service.NewMaintenanceService(stores.Repo, a.resolver, cfg.ImageDefaultReferer)
	return a, nil
}

// Close releases the store.
func (a *app) Close() error {
	return a.stores.Close()
}
