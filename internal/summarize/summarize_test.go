// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

type scriptedInvoker struct {
	respond func(prompt string) (string, error)
}

func (s *scriptedInvoker) Invoke(_ context.Context, prompt string) (string, error) {
	return s.respond(prompt)
}

func TestNewSummarizerDefaults(t *testing.T) {
	s, err := NewSummarizer(types.SummarizerConfig{}, nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "zh", s.language)
	assert.Equal(t, 200, s.maxLength)
}

func TestNewSummarizerRejectsUnknownLanguage(t *testing.T) {
	_, err := NewSummarizer(types.SummarizerConfig{Language: "fr"}, nil, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "language")
}

func TestSummarizeAll(t *testing.T) {
	inv := &scriptedInvoker{respond: func(prompt string) (string, error) {
		assert.Contains(t, prompt, "中文")
		return "  本文提出一种智能体方法。\n", nil
	}}
	s, err := NewSummarizer(types.SummarizerConfig{Language: "zh", MaxLength: 100}, inv, &bytes.Buffer{})
	require.NoError(t, err)

	papers := []types.Paper{
		{ID: "arxiv:1", Title: "T1", Abstract: "A1"},
		{ID: "arxiv:2", Title: "T2", Abstract: "A2"},
	}
	out := s.SummarizeAll(context.Background(), papers)

	require.Len(t, out, 2)
	assert.Equal(t, "arxiv:1", out[0].ID, "order preserved")
	assert.Equal(t, "本文提出一种智能体方法。", out[0].Summary, "output trimmed")
	assert.Equal(t, "zh", out[0].SummaryLanguage)
}

func TestSummarizeFallsBackToAbstractOnFailure(t *testing.T) {
	inv := &scriptedInvoker{respond: func(string) (string, error) {
		return "", errors.New("exit status 1")
	}}
	var log bytes.Buffer
	s, err := NewSummarizer(types.SummarizerConfig{MaxLength: 10}, inv, &log)
	require.NoError(t, err)

	out := s.SummarizeAll(context.Background(), []types.Paper{
		{ID: "arxiv:1", Title: "T", Abstract: "A fairly long abstract text"},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "A fairly l…", out[0].Summary, "abstract truncated to max length")
	assert.Equal(t, "original", out[0].SummaryLanguage)
	assert.Contains(t, log.String(), "using abstract")
}

func TestSummarizeEmptyResponseFallsBack(t *testing.T) {
	inv := &scriptedInvoker{respond: func(string) (string, error) {
		return "   \n", nil
	}}
	s, err := NewSummarizer(types.SummarizerConfig{}, inv, &bytes.Buffer{})
	require.NoError(t, err)

	out := s.SummarizeAll(context.Background(), []types.Paper{
		{ID: "arxiv:1", Title: "T", Abstract: "The abstract"},
	})
	assert.Equal(t, "The abstract", out[0].Summary)
	assert.Equal(t, "original", out[0].SummaryLanguage)
}

func TestSummarizeNilInvokerUsesAbstract(t *testing.T) {
	s, err := NewSummarizer(types.SummarizerConfig{}, nil, &bytes.Buffer{})
	require.NoError(t, err)

	out := s.SummarizeAll(context.Background(), []types.Paper{
		{ID: "arxiv:1", Title: "T", Abstract: "The abstract"},
	})
	assert.Equal(t, "original", out[0].SummaryLanguage)
}

func TestTruncateRunesCountsRunes(t *testing.T) {
	s := strings.Repeat("智", 5)
	assert.Equal(t, "智智智…", truncateRunes(s, 3))
	assert.Equal(t, s, truncateRunes(s, 5))
}
