// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter decides which fetched papers are relevant. It layers
// three strategies with different cost/precision tradeoffs: a keyword
// prefilter, an embedding-similarity filter, and an LLM judgment filter,
// each degrading to a cheaper signal when its dependency is unavailable.
package filter

import (
	"strings"

	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

// HasKeyword reports whether any configured keyword occurs as a
// case-insensitive substring of the paper's title or abstract. No
// tokenization or stemming; a plain containment check.
//
// An empty keyword list passes every paper: empty configuration means
// "do not filter", not "filter everything out".
func HasKeyword(p types.Paper, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	title := strings.ToLower(p.Title)
	abstract := strings.ToLower(p.Abstract)

	for _, kw := range keywords {
		k := strings.ToLower(kw)
		if strings.Contains(title, k) || strings.Contains(abstract, k) {
			return true
		}
	}
	return false
}

// prefilter returns the papers that pass HasKeyword, preserving input order.
func prefilter(papers []types.Paper, keywords []string) []types.Paper {
	if len(keywords) == 0 {
		return papers
	}
	var kept []types.Paper
	for _, p := range papers {
		if HasKeyword(p, keywords) {
			kept = append(kept, p)
		}
	}
	return kept
}
