// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lyangfan/research-daily-briefing/internal/briefing"
	"github.com/lyangfan/research-daily-briefing/internal/store"
	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Deliver a stored briefing through the messaging channel",
	Long: `Send loads a stored briefing (the latest by default, or a specific
date), renders it, and delivers it via the configured openclaw channel.
With --test it sends a short connectivity-check message instead.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().String("date", "", "briefing date to send (YYYY-MM-DD, default: latest)")
	sendCmd.Flags().Bool("test", false, "send a connectivity test message instead of a briefing")
	sendCmd.Flags().Bool("dry-run", false, "print the rendered message without sending")

	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	ctx := context.Background()

	message, err := messageToSend(cmd, cfg)
	if err != nil {
		return err
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		fmt.Fprint(os.Stdout, message)
		return nil
	}

	sender, err := briefing.NewSender(cfg.Delivery.Channel, cfg.Delivery.Target)
	if err != nil {
		return err
	}
	if err := sender.Send(ctx, message); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintln(os.Stdout, "Briefing delivered.")
	return nil
}

func messageToSend(cmd *cobra.Command, cfg types.PipelineConfig) (string, error) {
	if test, _ := cmd.Flags().GetBool("test"); test {
		return briefing.TestMessage(time.Now()), nil
	}

	db, err := store.NewStore(cfg.Storage)
	if err != nil {
		return "", err
	}
	defer db.Close()

	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date, err = db.LatestBriefingDate()
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("no briefings stored yet: run fetch first")
		}
		if err != nil {
			return "", err
		}
	}

	b, err := db.LoadBriefing(date)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("no briefing stored for %s", date)
	}
	if err != nil {
		return "", err
	}
	return briefing.Render(*b, cfg.Delivery.MaxSummaryPapers), nil
}
