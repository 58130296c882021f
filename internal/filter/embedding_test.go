// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyangfan/research-daily-briefing/internal/embedding"
	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

// fakeEmbedder returns scripted vectors per input text.
type fakeEmbedder struct {
	vectors  map[string]embedding.Vector
	failOn   map[string]bool
	batchErr error
	calls    map[string]int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		vectors: map[string]embedding.Vector{},
		failOn:  map[string]bool{},
		calls:   map[string]int{},
	}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (embedding.Vector, error) {
	f.calls[text]++
	if f.failOn[text] {
		return nil, errors.New("provider error")
	}
	vec, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector scripted for %q", text)
	}
	return vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]embedding.Vector, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	vecs := make([]embedding.Vector, len(texts))
	for i, t := range texts {
		vec, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (f *fakeEmbedder) Name() string { return "fake/test" }

func embeddingFilterConfig(threshold float64, maxPapers int) types.FilterConfig {
	return types.FilterConfig{
		MaxPapers: maxPapers,
		Embedding: types.EmbeddingConfig{
			Query:               "AI agents for science",
			SimilarityThreshold: threshold,
		},
	}
}

// scorePapers returns three papers whose title+abstract vectors sit at
// known angles to the (1, 0) anchor.
func scorePapers(emb *fakeEmbedder) []types.Paper {
	papers := []types.Paper{
		{ID: "arxiv:a", Title: "Aligned", Abstract: "exactly on topic"},
		{ID: "arxiv:b", Title: "Diagonal", Abstract: "half on topic"},
		{ID: "arxiv:c", Title: "Close", Abstract: "nearly on topic"},
	}
	emb.vectors["AI agents for science"] = embedding.Vector{1, 0}
	emb.vectors[embeddingText(papers[0])] = embedding.Vector{1, 0}    // sim 1.0
	emb.vectors[embeddingText(papers[1])] = embedding.Vector{1, 1}    // sim ~0.707
	emb.vectors[embeddingText(papers[2])] = embedding.Vector{9, 1}    // sim ~0.994
	return papers
}

func TestNewEmbeddingFilterValidation(t *testing.T) {
	emb := newFakeEmbedder()
	emb.vectors["AI agents for science"] = embedding.Vector{1, 0}
	ctx := context.Background()
	var out bytes.Buffer

	_, err := NewEmbeddingFilter(ctx, embeddingFilterConfig(0.75, 10), nil, &out)
	assert.Error(t, err, "nil embedder")

	_, err = NewEmbeddingFilter(ctx, embeddingFilterConfig(1.5, 10), emb, &out)
	assert.Error(t, err, "threshold above 1")

	_, err = NewEmbeddingFilter(ctx, embeddingFilterConfig(-0.1, 10), emb, &out)
	assert.Error(t, err, "negative threshold")

	_, err = NewEmbeddingFilter(ctx, embeddingFilterConfig(0.75, 0), emb, &out)
	assert.Error(t, err, "zero max_papers")

	cfg := embeddingFilterConfig(0.75, 10)
	cfg.Embedding.Query = ""
	_, err = NewEmbeddingFilter(ctx, cfg, emb, &out)
	assert.Error(t, err, "empty query")

	emb.failOn["AI agents for science"] = true
	_, err = NewEmbeddingFilter(ctx, embeddingFilterConfig(0.75, 10), emb, &out)
	assert.Error(t, err, "query embedding failure")
}

func TestEmbeddingFilterQueryEmbeddedOnce(t *testing.T) {
	emb := newFakeEmbedder()
	papers := scorePapers(emb)

	f, err := NewEmbeddingFilter(context.Background(), embeddingFilterConfig(0.5, 10), emb, &bytes.Buffer{})
	require.NoError(t, err)

	f.Filter(context.Background(), papers)
	f.Filter(context.Background(), papers)
	assert.Equal(t, 1, emb.calls["AI agents for science"], "anchor must be cached across calls")
}

func TestEmbeddingFilterThresholdAndOrder(t *testing.T) {
	emb := newFakeEmbedder()
	papers := scorePapers(emb)

	f, err := NewEmbeddingFilter(context.Background(), embeddingFilterConfig(0.75, 10), emb, &bytes.Buffer{})
	require.NoError(t, err)

	kept := f.Filter(context.Background(), papers)

	require.Len(t, kept, 2, "diagonal paper below threshold")
	assert.Equal(t, "arxiv:a", kept[0].ID)
	assert.Equal(t, "arxiv:c", kept[1].ID)
	assert.InDelta(t, 1.0, kept[0].SimilarityScore, 1e-9)
	assert.Greater(t, kept[0].SimilarityScore, kept[1].SimilarityScore)
	assert.True(t, kept[0].Relevant)
	assert.True(t, kept[0].Judged)
}

func TestEmbeddingFilterLooseThresholdKeepsAllSorted(t *testing.T) {
	emb := newFakeEmbedder()
	papers := scorePapers(emb)

	f, err := NewEmbeddingFilter(context.Background(), embeddingFilterConfig(0.6, 10), emb, &bytes.Buffer{})
	require.NoError(t, err)

	kept := f.Filter(context.Background(), papers)

	require.Len(t, kept, 3)
	assert.Equal(t, []string{"arxiv:a", "arxiv:c", "arxiv:b"},
		[]string{kept[0].ID, kept[1].ID, kept[2].ID}, "descending similarity order")
}

func TestEmbeddingFilterSkipsFailedPaper(t *testing.T) {
	emb := newFakeEmbedder()
	papers := scorePapers(emb)
	emb.failOn[embeddingText(papers[2])] = true

	var out bytes.Buffer
	f, err := NewEmbeddingFilter(context.Background(), embeddingFilterConfig(0.5, 10), emb, &out)
	require.NoError(t, err)

	kept := f.Filter(context.Background(), papers)

	require.Len(t, kept, 2)
	assert.Equal(t, "arxiv:a", kept[0].ID)
	assert.Equal(t, "arxiv:b", kept[1].ID)
	assert.Contains(t, out.String(), "skipping")
}

func TestEmbeddingFilterCapBoundsEmbeddingCalls(t *testing.T) {
	emb := newFakeEmbedder()
	papers := scorePapers(emb)

	f, err := NewEmbeddingFilter(context.Background(), embeddingFilterConfig(0.5, 2), emb, &bytes.Buffer{})
	require.NoError(t, err)

	kept := f.Filter(context.Background(), papers)

	assert.Equal(t, 0, emb.calls[embeddingText(papers[2])], "capped paper must not be embedded")
	require.Len(t, kept, 2)
}

func TestEmbeddingFilterBatchMatchesPerItem(t *testing.T) {
	threshold := 0.75

	embSeq := newFakeEmbedder()
	papers := scorePapers(embSeq)
	fSeq, err := NewEmbeddingFilter(context.Background(), embeddingFilterConfig(threshold, 10), embSeq, &bytes.Buffer{})
	require.NoError(t, err)
	seq := fSeq.Filter(context.Background(), papers)

	embBatch := newFakeEmbedder()
	scorePapers(embBatch)
	fBatch, err := NewEmbeddingFilter(context.Background(), embeddingFilterConfig(threshold, 10), embBatch, &bytes.Buffer{})
	require.NoError(t, err)
	batch := fBatch.FilterBatch(context.Background(), papers)

	require.Equal(t, len(seq), len(batch))
	for i := range seq {
		assert.Equal(t, seq[i].ID, batch[i].ID)
		assert.InDelta(t, seq[i].SimilarityScore, batch[i].SimilarityScore, 1e-12)
	}
}

func TestEmbeddingFilterBatchFallsBackOnError(t *testing.T) {
	emb := newFakeEmbedder()
	papers := scorePapers(emb)
	emb.batchErr = errors.New("batch size exceeded")

	var out bytes.Buffer
	f, err := NewEmbeddingFilter(context.Background(), embeddingFilterConfig(0.75, 10), emb, &out)
	require.NoError(t, err)

	kept := f.FilterBatch(context.Background(), papers)

	require.Len(t, kept, 2, "fallback path must still produce results")
	assert.Contains(t, out.String(), "retrying per paper")
}
