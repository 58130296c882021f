// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize produces short digest summaries for relevant papers.
package summarize

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lyangfan/research-daily-briefing/internal/judge"
	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

const (
	defaultLanguage  = "zh"
	defaultMaxLength = 200
)

// languageNames maps config language codes to the names used in prompts.
var languageNames = map[string]string{
	"zh": "中文",
	"en": "English",
}

// Summarizer writes one short summary per paper through the same CLI
// invoker the relevance judge uses. A failed invocation falls back to
// the paper's truncated abstract so the digest never has gaps.
type Summarizer struct {
	invoker   judge.Invoker
	language  string
	maxLength int
	w         io.Writer
}

// NewSummarizer builds a summarizer. A nil invoker is allowed: every
// summary then takes the abstract fallback path.
func NewSummarizer(cfg types.SummarizerConfig, invoker judge.Invoker, w io.Writer) (*Summarizer, error) {
	language := cfg.Language
	if language == "" {
		language = defaultLanguage
	}
	if _, ok := languageNames[language]; !ok {
		return nil, fmt.Errorf("unsupported summary language %q", language)
	}
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}
	return &Summarizer{
		invoker:   invoker,
		language:  language,
		maxLength: maxLength,
		w:         w,
	}, nil
}

// SummarizeAll annotates each paper with a summary, in place order. Per
// paper failures fall back to the abstract; they never abort the batch.
func (s *Summarizer) SummarizeAll(ctx context.Context, papers []types.Paper) []types.Paper {
	out := make([]types.Paper, len(papers))
	for i, p := range papers {
		summary, lang := s.summarizeOne(ctx, p)
		p.Summary = summary
		p.SummaryLanguage = lang
		out[i] = p
		fmt.Fprintf(s.w, "[%d/%d] summarized (%s): %s\n", i+1, len(papers), lang, p.ID)
	}
	return out
}

// summarizeOne returns the summary text and the language it is in:
// the configured language on success, "original" for the abstract
// fallback.
func (s *Summarizer) summarizeOne(ctx context.Context, p types.Paper) (string, string) {
	if s.invoker == nil {
		return truncateRunes(p.Abstract, s.maxLength), "original"
	}

	out, err := s.invoker.Invoke(ctx, s.buildPrompt(p))
	if err != nil {
		fmt.Fprintf(s.w, "warning: summarizing %s failed (%v), using abstract\n", p.ID, err)
		return truncateRunes(p.Abstract, s.maxLength), "original"
	}

	summary := strings.TrimSpace(out)
	if summary == "" {
		return truncateRunes(p.Abstract, s.maxLength), "original"
	}
	return truncateRunes(summary, s.maxLength), s.language
}

func (s *Summarizer) buildPrompt(p types.Paper) string {
	return fmt.Sprintf(`请用%s总结以下论文，不超过 %d 字，突出研究问题、方法和主要结论。只输出总结正文，不要标题或前缀。

论文标题：%s

论文摘要：%s`,
		languageNames[s.language], s.maxLength, p.Title, p.Abstract)
}

// truncateRunes cuts s to at most max runes, appending an ellipsis when
// anything was cut. Counting runes keeps CJK summaries within budget.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
