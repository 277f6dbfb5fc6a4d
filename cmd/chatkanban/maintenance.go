package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateTopic string

func init() {
	migrateImagesCmd.Flags().StringVar(&migrateTopic, "topic", "", "only migrate this topic")
	maintenanceCmd.AddCommand(migrateImagesCmd)
	rootCmd.AddCommand(maintenanceCmd)
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Run offline maintenance jobs",
}

var migrateImagesCmd = &cobra.Command{
	Use:   "migrate-images",
	Short: "Copy external message images into the blob store",
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

		var updated int
		if migrateTopic != "" {
			updated, err = a.maintenance.MigrateTopicImages(ctx, migrateTopic)
		} else {
			updated, err = a.maintenance.MigrateAllImages(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %d messages\n", updated)
		return nil
	},
}
