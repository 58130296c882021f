// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lyangfan/research-daily-briefing/internal/store"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove history older than the retention window",
	Long: `Cleanup deletes processed-paper records and stored briefings older
than storage.retain_days, then compacts the database.`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().Int("retain-days", 0, "override storage.retain_days for this run")

	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	retainDays := cfg.Storage.RetainDays
	if override, _ := cmd.Flags().GetInt("retain-days"); override > 0 {
		retainDays = override
	}

	db, err := store.NewStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	removed, err := db.Cleanup(retainDays, time.Now())
	if err != nil {
		return err
	}
	if err := db.Optimize(); err != nil {
		return err
	}

	fmt.Printf("Removed %d records older than %d days.\n", removed, retainDays)
	return nil
}
