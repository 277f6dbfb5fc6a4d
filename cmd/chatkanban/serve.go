package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chatkanban/internal/http"
	"chatkanban/internal/share"
)

const shutdownTimeout = 15 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}()

	signer, err := share.NewSigner(cfg.ShareSecret, cfg.ShareTTL)
	if err != nil {
		return err
	}
	if cfg.ShareSecret == "" {
		slog.Warn("SHARE_SECRET is not set; share links will stop working after a restart")
	}

	router := http.NewRouter(&http.Deps{
		Importer:    a.importer,
		Threads:     a.threads,
		Maintenance: a.maintenance,
		Uploader:    a.uploader,
		ImageStorer: a.resolver,
		Fetcher:     a.fetcher,
		IsLocal:     a.resolver.IsLocal,
		Signer:      signer,
		Store:       a.stores.Repo,
		Blobs:       a.blobs,
		Uploads:     a.blobs,
	})

	srv := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
