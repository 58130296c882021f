// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"testing"

	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

func TestHasKeyword(t *testing.T) {
	tests := []struct {
		name     string
		paper    types.Paper
		keywords []string
		want     bool
	}{
		{
			name:     "match in title",
			paper:    types.Paper{Title: "Multi-Agent Reinforcement Learning", Abstract: "We study cooperation."},
			keywords: []string{"agent"},
			want:     true,
		},
		{
			name:     "match in abstract only",
			paper:    types.Paper{Title: "A Study of Cooperation", Abstract: "LLM agents coordinate tasks."},
			keywords: []string{"llm"},
			want:     true,
		},
		{
			name:     "case-insensitive both ways",
			paper:    types.Paper{Title: "AGENT framework", Abstract: ""},
			keywords: []string{"AgEnT"},
			want:     true,
		},
		{
			name:     "substring inside a larger word counts",
			paper:    types.Paper{Title: "Reagents in organic chemistry", Abstract: ""},
			keywords: []string{"agent"},
			want:     true,
		},
		{
			name:     "no match",
			paper:    types.Paper{Title: "Protein folding dynamics", Abstract: "Molecular simulation."},
			keywords: []string{"agent", "llm"},
			want:     false,
		},
		{
			name:     "empty keyword list passes everything",
			paper:    types.Paper{Title: "Anything at all", Abstract: ""},
			keywords: nil,
			want:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasKeyword(tt.paper, tt.keywords); got != tt.want {
				t.Errorf("HasKeyword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrefilterPreservesOrder(t *testing.T) {
	papers := []types.Paper{
		{ID: "arxiv:1", Title: "agent one"},
		{ID: "arxiv:2", Title: "unrelated"},
		{ID: "arxiv:3", Title: "agent three"},
	}
	kept := prefilter(papers, []string{"agent"})
	if len(kept) != 2 {
		t.Fatalf("kept %d papers, want 2", len(kept))
	}
	if kept[0].ID != "arxiv:1" || kept[1].ID != "arxiv:3" {
		t.Errorf("order not preserved: got %s, %s", kept[0].ID, kept[1].ID)
	}
}

func TestPrefilterEmptyKeywordsPassesAll(t *testing.T) {
	papers := []types.Paper{{ID: "arxiv:1"}, {ID: "arxiv:2"}}
	kept := prefilter(papers, nil)
	if len(kept) != len(papers) {
		t.Errorf("kept %d papers, want %d", len(kept), len(papers))
	}
}
