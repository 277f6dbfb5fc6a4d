package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var exportOut string

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write the export to this file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump every topic with its rallies and messages as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = a.Close()
		}()

		export, err := a.threads.Export(ctx)
		if err != nil {
			return err
		}

		if err := writeExport(export, exportOut, cmd.OutOrStdout()); err != nil {
			return err
		}
		slog.Info("Export written", "topics", len(export.Data), "out", exportOut)
		return nil
	},
}

// writeExport encodes v as indented JSON into path, or into stdout when path is empty.
func writeExport(v any, path string, stdout io.Writer) error {
	if path == "" {
		return encodeExport(stdout, v)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := encodeExport(f, v); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func encodeExport(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
