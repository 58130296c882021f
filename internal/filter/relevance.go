// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/lyangfan/research-daily-briefing/internal/judge"
	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

// RelevanceFilter composes the keyword prefilter with per-paper judge
// invocations. On any invocation failure it degrades to the paper's own
// keyword verdict, so one bad external call never drops the whole run.
//
// All anchors (keyword list, instruction text, parser patterns) are
// fixed at construction: every paper in one run is judged against the
// same anchor.
type RelevanceFilter struct {
	keywords     []string
	maxPapers    int
	instructions string
	judge        judge.Invoker
	parser       *Parser
	w            io.Writer
}

// NewRelevanceFilter validates the configuration and builds a filter.
// A nil invoker is allowed and puts the whole session in degraded
// keyword-only mode, warned once here rather than failing on every
// call. Malformed configuration is rejected eagerly.
func NewRelevanceFilter(cfg types.FilterConfig, j judge.Invoker, w io.Writer) (*RelevanceFilter, error) {
	if cfg.MaxPapers <= 0 {
		return nil, fmt.Errorf("max_papers must be positive, got %d", cfg.MaxPapers)
	}
	if j != nil && cfg.JudgeTimeout <= 0 {
		return nil, fmt.Errorf("judge_timeout must be positive, got %v", cfg.JudgeTimeout)
	}

	patterns := DefaultPatterns
	if cfg.PatternsFile != "" {
		loaded, err := LoadPatterns(cfg.PatternsFile)
		if err != nil {
			return nil, err
		}
		patterns = loaded
	}

	instructions := ""
	if j == nil {
		// Keyword-only by choice is silent; only a degraded session
		// (a judge mode without a judge) warns.
		if cfg.Mode != types.ModeKeywords {
			fmt.Fprintln(w, "warning: judge unavailable, filtering on keywords only")
		}
	} else {
		instructions = judge.LoadInstructions()
	}

	return &RelevanceFilter{
		keywords:     cfg.Keywords,
		maxPapers:    cfg.MaxPapers,
		instructions: instructions,
		judge:        j,
		parser:       NewParser(patterns),
		w:            w,
	}, nil
}

// Filter returns the order-preserving subsequence of papers judged
// relevant. Papers first pass the keyword prefilter, the survivors are
// capped to max_papers in input order, and each remaining paper is
// judged individually. Filter never fails for per-paper reasons; the
// caller always gets a (possibly empty) list.
func (f *RelevanceFilter) Filter(ctx context.Context, papers []types.Paper) []types.Paper {
	candidates := f.candidates(papers)

	var kept []types.Paper
	for i, p := range candidates {
		relevant, line := f.judgeOne(ctx, p, i, len(candidates))
		if line != "" {
			fmt.Fprintln(f.w, line)
		}
		p.Relevant = relevant
		p.Judged = true
		if relevant {
			kept = append(kept, p)
		}
	}
	return kept
}

// FilterConcurrent behaves exactly like Filter but runs judge calls
// through a worker pool. Each paper's call is independent; a worker's
// failure affects only its own paper. Workers share nothing except the
// verdict and progress slices, each written only at the worker's own
// input index; progress lines are emitted after the pool drains, in
// input order, so the output matches the sequential path regardless of
// completion order. workers < 1 falls back to sequential.
func (f *RelevanceFilter) FilterConcurrent(ctx context.Context, papers []types.Paper, workers int) []types.Paper {
	candidates := f.candidates(papers)
	if workers < 1 || f.judge == nil {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	verdicts := make([]bool, len(candidates))
	lines := make([]string, len(candidates))

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				verdicts[i], lines[i] = f.judgeOne(ctx, candidates[i], i, len(candidates))
			}
		}()
	}
	for i := range candidates {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	for _, line := range lines {
		if line != "" {
			fmt.Fprintln(f.w, line)
		}
	}

	var kept []types.Paper
	for i, p := range candidates {
		p.Relevant = verdicts[i]
		p.Judged = true
		if verdicts[i] {
			kept = append(kept, p)
		}
	}
	return kept
}

// candidates applies the prefilter and the deterministic cap: when the
// prefiltered set exceeds max_papers, the first max_papers in input
// order survive, biasing toward earlier-discovered papers.
func (f *RelevanceFilter) candidates(papers []types.Paper) []types.Paper {
	kept := prefilter(papers, f.keywords)
	if len(kept) > f.maxPapers {
		fmt.Fprintf(f.w, "capping candidates to %d of %d\n", f.maxPapers, len(kept))
		kept = kept[:f.maxPapers]
	}
	return kept
}

// judgeOne produces the final verdict for one paper: the parsed judge
// decision, or the paper's keyword verdict when the judge is absent,
// times out, or errors. It returns the progress line rather than
// writing it so concurrent callers never share the writer.
func (f *RelevanceFilter) judgeOne(ctx context.Context, p types.Paper, i, total int) (bool, string) {
	if f.judge == nil {
		// Keyword session: the prefilter already passed this paper.
		return true, ""
	}

	prompt := judge.BuildPrompt(f.instructions, p.Title, p.Abstract)
	out, err := f.judge.Invoke(ctx, prompt)
	if err != nil {
		verdict := HasKeyword(p, f.keywords)
		return verdict, fmt.Sprintf("[%d/%d] judge failed (%v), keyword fallback=%v: %s",
			i+1, total, err, verdict, truncateTitle(p.Title))
	}

	d := f.parser.Parse(out)
	if d.Method == ParseUnparseable {
		return false, fmt.Sprintf("[%d/%d] unparseable judge response, rejecting: %s",
			i+1, total, truncateTitle(p.Title))
	}

	mark := "reject"
	if d.Relevant {
		mark = "accept"
	}
	return d.Relevant, fmt.Sprintf("[%d/%d] %s (%s): %s",
		i+1, total, mark, d.Method, truncateTitle(p.Title))
}

func truncateTitle(title string) string {
	const max = 50
	runes := []rune(title)
	if len(runes) <= max {
		return title
	}
	return string(runes[:max]) + "..."
}
