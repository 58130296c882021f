// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch polls preprint platforms for newly published papers and
// returns a unified, deduplicated list.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

// Source fetches papers from a single platform. Each platform (arXiv,
// bioRxiv, medRxiv) implements this interface.
type Source interface {
	Name() string
	Fetch(ctx context.Context, window Window, cfg types.FetchConfig) ([]types.Paper, error)
}

// Window is the publication date range to poll, inclusive on both ends.
type Window struct {
	From time.Time
	To   time.Time
}

// WindowEnding returns the window covering daysBack calendar days up to
// and including day. daysBack < 1 is treated as 1.
func WindowEnding(day time.Time, daysBack int) Window {
	if daysBack < 1 {
		daysBack = 1
	}
	day = day.Truncate(24 * time.Hour)
	return Window{
		From: day.AddDate(0, 0, -(daysBack - 1)),
		To:   day,
	}
}

// Output holds the merged papers and per-run statistics.
type Output struct {
	Papers       []types.Paper
	DupsRemoved  int
	Invalid      int
	SourceErrors []string
}

// NewSources builds the enabled sources from the configuration, sharing
// one HTTP client and one rate limiter so the per-second budget covers
// all platforms together.
func NewSources(cfg types.FetchConfig, client *http.Client) []Source {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), 1)

	var sources []Source
	if cfg.Arxiv.Enabled {
		sources = append(sources, &ArxivSource{Client: client, Limiter: limiter})
	}
	if cfg.Biorxiv.Enabled {
		sources = append(sources, &RxivSource{Client: client, Limiter: limiter, Server: "biorxiv"})
	}
	if cfg.Medrxiv.Enabled {
		sources = append(sources, &RxivSource{Client: client, Limiter: limiter, Server: "medrxiv"})
	}
	return sources
}

// FetchAll polls all sources concurrently and merges their results. A
// failing source is reported as a warning and skipped; the run continues
// with whatever the healthy sources returned. Papers missing an ID,
// title, or abstract are dropped, duplicates by ID are removed keeping
// the first occurrence, and the merged list is ordered newest first with
// ID as the tiebreak so repeated runs over the same window agree.
func FetchAll(ctx context.Context, window Window, sources []Source, cfg types.FetchConfig, w io.Writer) (Output, error) {
	if len(sources) == 0 {
		return Output{}, fmt.Errorf("no sources enabled")
	}

	type sourceResult struct {
		papers []types.Paper
		err    error
		name   string
	}

	ch := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup

	for _, s := range sources {
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()
			papers, err := s.Fetch(ctx, window, cfg)
			ch <- sourceResult{papers: papers, err: err, name: s.Name()}
		}(s)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.Paper
	var sourceErrors []string
	for sr := range ch {
		if sr.err != nil {
			msg := fmt.Sprintf("%s: %v", sr.name, sr.err)
			sourceErrors = append(sourceErrors, msg)
			fmt.Fprintf(w, "warning: source %s failed: %v\n", sr.name, sr.err)
			continue
		}
		fmt.Fprintf(w, "%s: %d papers\n", sr.name, len(sr.papers))
		all = append(all, sr.papers...)
	}

	valid, invalid := validate(all, w)
	deduped, removed := deduplicate(valid)

	sort.SliceStable(deduped, func(i, j int) bool {
		if !deduped[i].Published.Equal(deduped[j].Published) {
			return deduped[i].Published.After(deduped[j].Published)
		}
		return deduped[i].ID < deduped[j].ID
	})

	return Output{
		Papers:       deduped,
		DupsRemoved:  removed,
		Invalid:      invalid,
		SourceErrors: sourceErrors,
	}, nil
}

// validate drops papers that cannot be filtered or displayed. A paper
// without an ID cannot be deduplicated or marked processed; without a
// title or abstract the downstream filters have nothing to score.
func validate(papers []types.Paper, w io.Writer) ([]types.Paper, int) {
	var valid []types.Paper
	invalid := 0
	for _, p := range papers {
		if p.ID == "" || p.Title == "" || p.Abstract == "" {
			invalid++
			fmt.Fprintf(w, "warning: dropping incomplete paper (id=%q title=%q)\n", p.ID, p.Title)
			continue
		}
		valid = append(valid, p)
	}
	return valid, invalid
}

// deduplicate removes papers sharing an ID, keeping the first occurrence.
func deduplicate(papers []types.Paper) ([]types.Paper, int) {
	seen := make(map[string]bool, len(papers))
	var deduped []types.Paper
	removed := 0
	for _, p := range papers {
		if seen[p.ID] {
			removed++
			continue
		}
		seen[p.ID] = true
		deduped = append(deduped, p)
	}
	return deduped, removed
}
