// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lyangfan/research-daily-briefing/internal/briefing"
	"github.com/lyangfan/research-daily-briefing/internal/embedding"
	"github.com/lyangfan/research-daily-briefing/internal/fetch"
	"github.com/lyangfan/research-daily-briefing/internal/filter"
	"github.com/lyangfan/research-daily-briefing/internal/judge"
	"github.com/lyangfan/research-daily-briefing/internal/store"
	"github.com/lyangfan/research-daily-briefing/internal/summarize"
	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch, filter, and summarize today's papers into a briefing",
	Long: `Fetch polls the enabled platforms for papers published in the window,
drops papers already processed on earlier runs, filters the rest for
relevance using the configured mode (keywords, claude, hybrid, or
embedding), summarizes the survivors, and stores the briefing.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("date", "", "briefing date (YYYY-MM-DD, default: today)")
	fetchCmd.Flags().Int("days-back", 1, "how many days of submissions to cover")
	fetchCmd.Flags().Int("workers", 1, "concurrent judge invocations")
	fetchCmd.Flags().Bool("json", false, "print the briefing as JSON")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	ctx := context.Background()

	day, err := flagDate(cmd)
	if err != nil {
		return err
	}
	daysBack, _ := cmd.Flags().GetInt("days-back")
	workers, _ := cmd.Flags().GetInt("workers")

	client := &http.Client{Timeout: cfg.Fetch.Timeout}

	// Fetch.
	sources := fetch.NewSources(cfg.Fetch, client)
	window := fetch.WindowEnding(day, daysBack)
	fetched, err := fetch.FetchAll(ctx, window, sources, cfg.Fetch, os.Stderr)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "fetched %d papers (%d duplicates, %d invalid)\n",
		len(fetched.Papers), fetched.DupsRemoved, fetched.Invalid)

	// History dedup.
	db, err := store.NewStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer db.Close()

	fresh, err := db.FilterNew(fetched.Papers)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d papers not seen before\n", len(fresh))

	// Relevance filtering.
	relevant, err := filterPapers(ctx, cfg.Filter, client, fresh, workers)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d papers relevant\n", len(relevant))

	// Summaries.
	relevant, err = summarizePapers(ctx, cfg.Summarizer, relevant)
	if err != nil {
		return err
	}

	// Everything fetched this run counts as processed, relevant or not,
	// so tomorrow's run never re-judges it.
	if err := db.MarkProcessed(fresh, day); err != nil {
		return err
	}

	b := briefing.Build(day, relevant, time.Now())
	if err := db.SaveBriefing(b); err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	}

	color.New(color.FgGreen, color.Bold).Fprintf(os.Stdout, "Briefing %s saved: %d relevant papers\n", b.Date, b.TotalCount)
	for platform, n := range b.Platforms {
		color.New(color.Faint).Fprintf(os.Stdout, "  %s: %d\n", platform, n)
	}
	return nil
}

// filterPapers dispatches on the configured filter mode.
func filterPapers(ctx context.Context, cfg types.FilterConfig, client *http.Client, papers []types.Paper, workers int) ([]types.Paper, error) {
	switch cfg.Mode {
	case types.ModeKeywords:
		f, err := filter.NewRelevanceFilter(cfg, nil, os.Stderr)
		if err != nil {
			return nil, err
		}
		return f.Filter(ctx, papers), nil

	case types.ModeClaude, types.ModeHybrid, "":
		j, err := newJudge(cfg.JudgeTimeout)
		if err != nil {
			return nil, err
		}
		f, err := filter.NewRelevanceFilter(cfg, j, os.Stderr)
		if err != nil {
			return nil, err
		}
		return f.FilterConcurrent(ctx, papers, workers), nil

	case types.ModeEmbedding:
		emb, err := embedding.NewEmbedder(cfg.Embedding, client)
		if err != nil {
			return nil, err
		}
		f, err := filter.NewEmbeddingFilter(ctx, cfg, emb, os.Stderr)
		if err != nil {
			return nil, err
		}
		return f.FilterBatch(ctx, papers), nil

	default:
		return nil, fmt.Errorf("unknown filter mode %q", cfg.Mode)
	}
}

// newJudge builds the CLI judge, mapping an absent binary to a nil
// judge (keyword-only session) instead of a fatal error.
func newJudge(timeout time.Duration) (judge.Invoker, error) {
	j, err := judge.NewCLIJudge(timeout)
	if errors.Is(err, judge.ErrUnavailable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}

func summarizePapers(ctx context.Context, cfg types.SummarizerConfig, papers []types.Paper) ([]types.Paper, error) {
	inv, err := newJudge(cfg.Timeout)
	if err != nil {
		return nil, err
	}
	s, err := summarize.NewSummarizer(cfg, inv, os.Stderr)
	if err != nil {
		return nil, err
	}
	return s.SummarizeAll(ctx, papers), nil
}

func flagDate(cmd *cobra.Command) (time.Time, error) {
	dateStr, _ := cmd.Flags().GetString("date")
	if dateStr == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", dateStr)
	}
	return day, nil
}
