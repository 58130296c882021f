// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/lyangfan/research-daily-briefing/internal/embedding"
	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

// EmbeddingFilter scores papers by cosine similarity between each
// paper's embedded text and a single query embedding computed once at
// construction. Every paper in a run is compared against the same
// anchor vector.
type EmbeddingFilter struct {
	embedder  embedding.Embedder
	anchor    embedding.Vector
	threshold float64
	maxPapers int
	w         io.Writer
}

// NewEmbeddingFilter validates the configuration, embeds the query, and
// caches the resulting anchor vector. A query that cannot be embedded
// is a construction error: without an anchor no paper can be scored.
func NewEmbeddingFilter(ctx context.Context, cfg types.FilterConfig, emb embedding.Embedder, w io.Writer) (*EmbeddingFilter, error) {
	ec := cfg.Embedding
	if emb == nil {
		return nil, fmt.Errorf("embedding filter requires an embedder")
	}
	if ec.Query == "" {
		return nil, fmt.Errorf("embedding filter requires a non-empty query")
	}
	if ec.SimilarityThreshold < 0 || ec.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("similarity_threshold must be in [0, 1], got %g", ec.SimilarityThreshold)
	}
	if cfg.MaxPapers <= 0 {
		return nil, fmt.Errorf("max_papers must be positive, got %d", cfg.MaxPapers)
	}

	anchor, err := emb.Embed(ctx, ec.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding query with %s: %w", emb.Name(), err)
	}

	return &EmbeddingFilter{
		embedder:  emb,
		anchor:    anchor,
		threshold: ec.SimilarityThreshold,
		maxPapers: cfg.MaxPapers,
		w:         w,
	}, nil
}

// Filter embeds each paper individually and keeps those whose cosine
// similarity to the anchor meets the threshold. A paper whose embedding
// call fails is skipped with a note; it never aborts the run. Kept
// papers carry their score and are ordered by descending similarity,
// ties keeping input order.
func (f *EmbeddingFilter) Filter(ctx context.Context, papers []types.Paper) []types.Paper {
	candidates := f.cap(papers)

	var kept []types.Paper
	for i, p := range candidates {
		vec, err := f.embedder.Embed(ctx, embeddingText(p))
		if err != nil {
			fmt.Fprintf(f.w, "[%d/%d] embedding failed, skipping: %s (%v)\n",
				i+1, len(candidates), truncateTitle(p.Title), err)
			continue
		}
		kept = f.keep(kept, p, vec, i, len(candidates))
	}

	sortBySimilarity(kept)
	return kept
}

// FilterBatch embeds all capped papers in one provider call. The result
// is identical to Filter; the batch exists to cut request count. When
// the batch call fails the filter falls back to the per-paper path so a
// provider batch limit degrades throughput, not results.
func (f *EmbeddingFilter) FilterBatch(ctx context.Context, papers []types.Paper) []types.Paper {
	candidates := f.cap(papers)
	if len(candidates) == 0 {
		return nil
	}

	texts := make([]string, len(candidates))
	for i, p := range candidates {
		texts[i] = embeddingText(p)
	}

	vecs, err := f.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		fmt.Fprintf(f.w, "batch embedding failed (%v), retrying per paper\n", err)
		return f.Filter(ctx, papers)
	}

	var kept []types.Paper
	for i, p := range candidates {
		kept = f.keep(kept, p, vecs[i], i, len(candidates))
	}

	sortBySimilarity(kept)
	return kept
}

// cap truncates to max_papers before any embedding call is made, so the
// cap bounds API spend, not just output size.
func (f *EmbeddingFilter) cap(papers []types.Paper) []types.Paper {
	if len(papers) > f.maxPapers {
		fmt.Fprintf(f.w, "capping candidates to %d of %d\n", f.maxPapers, len(papers))
		return papers[:f.maxPapers]
	}
	return papers
}

// keep scores one paper against the anchor and appends it when the
// threshold is met, annotating the decision fields.
func (f *EmbeddingFilter) keep(kept []types.Paper, p types.Paper, vec embedding.Vector, i, total int) []types.Paper {
	sim := embedding.CosineSimilarity(f.anchor, vec)
	if sim < f.threshold {
		fmt.Fprintf(f.w, "[%d/%d] reject (%.3f): %s\n", i+1, total, sim, truncateTitle(p.Title))
		return kept
	}
	p.SimilarityScore = sim
	p.Relevant = true
	p.Judged = true
	fmt.Fprintf(f.w, "[%d/%d] accept (%.3f): %s\n", i+1, total, sim, truncateTitle(p.Title))
	return append(kept, p)
}

// embeddingText is the canonical text embedded for a paper: title and
// abstract joined by a single space.
func embeddingText(p types.Paper) string {
	return p.Title + " " + p.Abstract
}

func sortBySimilarity(papers []types.Paper) {
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].SimilarityScore > papers[j].SimilarityScore
	})
}
