// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDialects(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		name         string
		text         string
		wantRelevant bool
		wantMethod   ParseMethod
	}{
		{
			name:         "bold field yes",
			text:         "**Decision**: Yes\n**Reasoning**: Uses LLM agents for lab automation.\n**Confidence**: High",
			wantRelevant: true,
			wantMethod:   ParseBoldField,
		},
		{
			name:         "bold field no",
			text:         "**Decision**: No\n**Reasoning**: Pure materials science.",
			wantRelevant: false,
			wantMethod:   ParseBoldField,
		},
		{
			name:         "bold field uppercase value",
			text:         "**Decision**: YES",
			wantRelevant: true,
			wantMethod:   ParseBoldField,
		},
		{
			name: "bold no wins over bare yes elsewhere",
			text: "**Decision**: No\nThe paper does mention agents, and yes it cites LLM work, " +
				"but the application is not scientific.",
			wantRelevant: false,
			wantMethod:   ParseBoldField,
		},
		{
			name:         "plain field yes",
			text:         "Decision: yes\nReasoning: multi-agent pipeline for chemistry.",
			wantRelevant: true,
			wantMethod:   ParsePlainField,
		},
		{
			name:         "plain field no with backticks",
			text:         "decision:``no``",
			wantRelevant: false,
			wantMethod:   ParsePlainField,
		},
		{
			name:         "first word yes with period",
			text:         "Yes. This paper presents an agent for hypothesis generation.",
			wantRelevant: true,
			wantMethod:   ParseFirstWord,
		},
		{
			name:         "first word no with comma",
			text:         "No, this is a survey of GPU kernels.",
			wantRelevant: false,
			wantMethod:   ParseFirstWord,
		},
		{
			name:         "localized relevant",
			text:         "相关",
			wantRelevant: true,
			wantMethod:   ParseLocalized,
		},
		{
			name:         "localized not relevant",
			text:         "不相关",
			wantRelevant: false,
			wantMethod:   ParseLocalized,
		},
		{
			name:         "pattern analysis format negative",
			text:         "Analysis:\n- Agent presence: yes\n- Scientific application: no\nThe work targets e-commerce.",
			wantRelevant: false,
			wantMethod:   ParsePattern,
		},
		{
			name:         "pattern not relevant phrase",
			text:         "After review, this paper is not relevant to the topic.",
			wantRelevant: false,
			wantMethod:   ParsePattern,
		},
		{
			name:         "keyword balance one-sided yes",
			text:         "I would pass this one through.",
			wantRelevant: true,
			wantMethod:   ParseKeywordBalance,
		},
		{
			name:         "mixed signals stay unparseable",
			text:         "Hard to say whether to pass or fail this one.",
			wantRelevant: false,
			wantMethod:   ParseUnparseable,
		},
		{
			name:         "empty input",
			text:         "",
			wantRelevant: false,
			wantMethod:   ParseUnparseable,
		},
		{
			name:         "whitespace only",
			text:         "   \n\t\n",
			wantRelevant: false,
			wantMethod:   ParseUnparseable,
		},
		{
			name:         "garbage defaults to not relevant",
			text:         "@@@@ ???? ####",
			wantRelevant: false,
			wantMethod:   ParseUnparseable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Parse(tt.text)
			if d.Relevant != tt.wantRelevant {
				t.Errorf("Relevant = %v, want %v", d.Relevant, tt.wantRelevant)
			}
			if d.Method != tt.wantMethod {
				t.Errorf("Method = %s, want %s", d.Method, tt.wantMethod)
			}
		})
	}
}

func TestParseStrictRuleNoEvidenceFallsThrough(t *testing.T) {
	p := NewParser(nil)

	// The bold marker is present but carries no yes/no token, so the
	// bold rule must not commit; the first-word rule decides instead.
	d := p.Parse("**Decision**: unclear\nyes, on balance it qualifies.")
	if !d.Relevant {
		t.Error("expected relevant verdict from a looser rule")
	}
	if d.Method == ParseBoldField {
		t.Errorf("bold rule committed without a yes/no token")
	}
}

func TestParseExtractsReasoningAndConfidence(t *testing.T) {
	p := NewParser(nil)

	d := p.Parse("**Decision**: Yes\n**Reasoning**: Agents drive a wet lab.\n**Confidence**: Medium")
	if d.Reasoning != "Agents drive a wet lab." {
		t.Errorf("Reasoning = %q", d.Reasoning)
	}
	if d.Confidence != "Medium" {
		t.Errorf("Confidence = %q", d.Confidence)
	}
}

func TestParsePatternOrderFirstMatchWins(t *testing.T) {
	p := NewParser([]Pattern{
		{Match: "reject", Relevant: false},
		{Match: "accept", Relevant: true},
	})
	d := p.Parse("verdict verdict reject although one could accept it")
	if d.Relevant {
		t.Error("earlier pattern in the list must win")
	}
	if d.Method != ParsePattern {
		t.Errorf("Method = %s, want %s", d.Method, ParsePattern)
	}
}

func TestLoadPatterns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	content := "- match: \"custom: approved\"\n  relevant: true\n- match: \"custom: denied\"\n  relevant: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	patterns, err := LoadPatterns(path)
	if err != nil {
		t.Fatalf("LoadPatterns() error = %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns, want 2", len(patterns))
	}
	if !patterns[0].Relevant || patterns[1].Relevant {
		t.Error("pattern polarities not preserved")
	}

	d := NewParser(patterns).Parse("custom: denied")
	if d.Relevant || d.Method != ParsePattern {
		t.Errorf("custom pattern not applied: %+v", d)
	}
}

func TestLoadPatternsRejectsEmptyAndMalformed(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("[]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPatterns(empty); err == nil {
		t.Error("empty pattern list should be rejected")
	}

	blank := filepath.Join(dir, "blank.yaml")
	if err := os.WriteFile(blank, []byte("- match: \"  \"\n  relevant: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPatterns(blank); err == nil {
		t.Error("blank match string should be rejected")
	}

	if _, err := LoadPatterns(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file should be rejected")
	}
}
