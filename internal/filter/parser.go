// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ParseMethod records which extraction rule produced a decision. It is
// diagnostic only and never drives control flow.
type ParseMethod string

const (
	ParseBoldField      ParseMethod = "bold_field"
	ParsePlainField     ParseMethod = "plain_field"
	ParseFirstWord      ParseMethod = "first_word"
	ParseLocalized      ParseMethod = "localized"
	ParsePattern        ParseMethod = "pattern"
	ParseKeywordBalance ParseMethod = "keyword_balance"
	ParseUnparseable    ParseMethod = "unparseable"
)

// Decision is the parsed outcome of one judge invocation. It is
// ephemeral: consumed within a single filter call and folded into the
// Paper's decision fields, never persisted directly.
type Decision struct {
	Relevant   bool
	Reasoning  string
	Confidence string
	Method     ParseMethod
}

// Pattern pairs a literal lowercase substring with an explicit polarity
// for the pattern-cascade rule. List order encodes priority: the first
// pattern found anywhere in the response decides, so negative and
// specific patterns must precede generic positive ones (a bare "yes"
// inside a larger negative sentence must not win).
type Pattern struct {
	Match    string `yaml:"match"`
	Relevant bool   `yaml:"relevant"`
}

// DefaultPatterns reproduces the response dialects observed from the
// judge. The judge's phrasing drifts between versions, so deployments
// can override the list with a YAML file (LoadPatterns); relative order
// must keep negative/specific entries before positive/generic ones.
var DefaultPatterns = []Pattern{
	// Analysis-format verdicts.
	{Match: "scientific application: no", Relevant: false},
	{Match: "scientific application: yes", Relevant: true},
	{Match: "agent presence: no", Relevant: false},
	{Match: "not relevant", Relevant: false},
	{Match: "relevant for scientific", Relevant: true},
	// Explicit decision declarations, with and without quoting/markup.
	{Match: "decision: yes", Relevant: true},
	{Match: "decision:``yes", Relevant: true},
	{Match: `"decision": yes`, Relevant: true},
	{Match: "**decision**: yes", Relevant: true},
	{Match: ": yes (agent", Relevant: true},
	{Match: ": yes (scientific", Relevant: true},
	{Match: "decision: no", Relevant: false},
	{Match: "decision:``no", Relevant: false},
	{Match: `"decision": no`, Relevant: false},
	{Match: "**decision**: no", Relevant: false},
	{Match: ": no (not", Relevant: false},
	{Match: ": no (focuses", Relevant: false},
	{Match: "not a scientific", Relevant: false},
	{Match: "no (focuses on", Relevant: false},
}

// LoadPatterns reads a pattern list from a YAML file. File order is
// priority order.
func LoadPatterns(path string) ([]Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading patterns file: %w", err)
	}
	var patterns []Pattern
	if err := yaml.Unmarshal(data, &patterns); err != nil {
		return nil, fmt.Errorf("parsing patterns file: %w", err)
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("patterns file %s contains no patterns", path)
	}
	for i, p := range patterns {
		if strings.TrimSpace(p.Match) == "" {
			return nil, fmt.Errorf("patterns file %s: entry %d has empty match", path, i)
		}
	}
	return patterns, nil
}

// Parser extracts a binary relevance decision from free-form judge
// output. The judge's format is not standardized across calls, so the
// parser tries a strict-to-loose cascade of extraction rules and stops
// at the first rule that commits: a strict rule finding no evidence must
// not block a looser rule, and once any rule commits no looser rule may
// override it.
type Parser struct {
	patterns []Pattern
}

// NewParser returns a parser using the given pattern list for the
// pattern-cascade rule, or DefaultPatterns when nil.
func NewParser(patterns []Pattern) *Parser {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Parser{patterns: patterns}
}

// parseRule attempts one extraction strategy. It returns the verdict and
// whether the rule matched at all.
type parseRule struct {
	method ParseMethod
	apply  func(p *Parser, text, lower string) (relevant, matched bool)
}

var parseRules = []parseRule{
	{ParseBoldField, (*Parser).boldField},
	{ParsePlainField, (*Parser).plainField},
	{ParseFirstWord, (*Parser).firstWord},
	{ParseLocalized, (*Parser).localized},
	{ParsePattern, (*Parser).patternCascade},
	{ParseKeywordBalance, (*Parser).keywordBalance},
}

// Parse never fails: for arbitrary input, including empty text, it
// returns a Decision. An unclassifiable response is reported as not
// relevant with Method ParseUnparseable so a single malformed response
// never aborts a multi-paper run.
func (p *Parser) Parse(text string) Decision {
	lower := strings.ToLower(text)

	d := Decision{Method: ParseUnparseable}
	for _, rule := range parseRules {
		if relevant, matched := rule.apply(p, text, lower); matched {
			d.Relevant = relevant
			d.Method = rule.method
			break
		}
	}

	d.Reasoning = fieldAfterLabel(text, "reasoning")
	d.Confidence = fieldAfterLabel(text, "confidence")
	return d
}

// boldField scans for a markdown-bold "**Decision**" label. On the
// matching line, emphasis markers and colons are stripped and the
// remaining words checked for a literal yes/no token.
func (p *Parser) boldField(_, lower string) (bool, bool) {
	if !strings.Contains(lower, "**decision**") {
		return false, false
	}
	for _, line := range strings.Split(lower, "\n") {
		if !strings.Contains(line, "**decision**") {
			continue
		}
		clean := strings.ReplaceAll(line, "*", "")
		clean = strings.ReplaceAll(clean, ":", " ")
		for _, word := range strings.Fields(clean) {
			switch word {
			case "yes":
				return true, true
			case "no":
				return false, true
			}
		}
	}
	return false, false
}

// plainField scans for an unmarked "decision:" label and classifies by
// the prefix of the value, tolerating stray backticks before the word.
func (p *Parser) plainField(_, lower string) (bool, bool) {
	if !strings.Contains(lower, "decision:") {
		return false, false
	}
	for _, line := range strings.Split(lower, "\n") {
		idx := strings.Index(line, "decision:")
		if idx < 0 {
			continue
		}
		value := strings.TrimSpace(line[idx+len("decision:"):])
		switch {
		case strings.HasPrefix(value, "yes"), strings.HasPrefix(value, "``yes"):
			return true, true
		case strings.HasPrefix(value, "no"), strings.HasPrefix(value, "``no"):
			return false, true
		}
	}
	return false, false
}

// firstWord classifies by the first word of the first non-empty line,
// tolerating trailing sentence punctuation.
func (p *Parser) firstWord(text, _ string) (bool, bool) {
	word := firstResponseWord(text)
	switch word {
	case "yes", "yes.", "yes,":
		return true, true
	case "no", "no.", "no,":
		return false, true
	}
	return false, false
}

// localized classifies by the judge's working-language verdict tokens.
func (p *Parser) localized(text, _ string) (bool, bool) {
	word := firstResponseWord(text)
	switch word {
	case "相关", "是":
		return true, true
	case "不相关", "否", "不是":
		return false, true
	}
	return false, false
}

// patternCascade checks the ordered literal pattern list against the
// whole lowercased response. The first pattern present decides.
func (p *Parser) patternCascade(_, lower string) (bool, bool) {
	for _, pat := range p.patterns {
		if strings.Contains(lower, pat.Match) {
			return pat.Relevant, true
		}
	}
	return false, false
}

// affirmative and negative indicator sets for the last-resort balance check.
var (
	yesIndicators = []string{"yes", "相关", "relevant", "pass"}
	noIndicators  = []string{"not relevant", "不相关", "fail", "no"}
)

// keywordBalance classifies only when one indicator set is present and
// the other absent; mixed signals stay unparsed.
func (p *Parser) keywordBalance(_, lower string) (bool, bool) {
	hasYes := containsAny(lower, yesIndicators)
	hasNo := containsAny(lower, noIndicators)

	switch {
	case hasYes && !hasNo:
		return true, true
	case hasNo && !hasYes:
		return false, true
	}
	return false, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// firstResponseWord returns the lowercased first whitespace-delimited
// word of the first non-empty line, or "".
func firstResponseWord(text string) string {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return strings.ToLower(fields[0])
		}
	}
	return ""
}

// fieldAfterLabel extracts the value of a "Label:" or "**Label**:" line,
// case-insensitively. Returns "" when the label is absent.
func fieldAfterLabel(text, label string) string {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		idx := strings.Index(lower, label)
		if idx < 0 {
			continue
		}
		rest := line[idx+len(label):]
		rest = strings.TrimLeft(rest, "*")
		if !strings.HasPrefix(rest, ":") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(rest, ":"))
		if value != "" {
			return value
		}
	}
	return ""
}
