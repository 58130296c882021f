// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lyangfan/research-daily-briefing/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show processing history statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Bool("json", false, "output statistics as JSON")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	db, err := store.NewStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Stats()
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("Processed papers: %d\n", stats.ProcessedPapers)
	fmt.Printf("Stored briefings: %d\n", stats.Briefings)
	if stats.OldestProcessed != "" {
		fmt.Printf("Oldest record:    %s\n", stats.OldestProcessed)
	}
	if stats.LatestBriefing != "" {
		fmt.Printf("Latest briefing:  %s\n", stats.LatestBriefing)
	}
	if len(stats.ByPlatform) > 0 {
		fmt.Println("By platform:")
		platforms := make([]string, 0, len(stats.ByPlatform))
		for p := range stats.ByPlatform {
			platforms = append(platforms, p)
		}
		sort.Strings(platforms)
		for _, p := range platforms {
			fmt.Printf("  %-10s %d\n", p, stats.ByPlatform[p])
		}
	}
	return nil
}
