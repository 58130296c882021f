// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Paper holds metadata for one preprint under evaluation.
// Fetchers create Paper records; filter stages enrich them in place
// (decision and score fields only, nothing already set is overwritten);
// the summarizer and formatter read them.
type Paper struct {
	// ID is a stable cross-source identifier (e.g. "arxiv:2501.01234",
	// "biorxiv:10.1101/2026.01.02.573901").
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract. May be empty for some sources.
	Abstract string `json:"abstract" yaml:"abstract"`

	// URL is the landing page for the paper.
	URL string `json:"url" yaml:"url"`

	// PDFURL is the direct PDF link, when the source provides one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Platform identifies the source ("arxiv", "biorxiv", "medrxiv").
	Platform string `json:"platform" yaml:"platform"`

	// Published is the submission or posting date.
	Published time.Time `json:"published_date" yaml:"published_date"`

	// Categories lists source category tags (e.g. "cs.AI", "bioinformatics").
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// FullText is extracted PDF text, attached by the download collaborator.
	FullText string `json:"full_text,omitempty" yaml:"full_text,omitempty"`

	// SimilarityScore is set only by the embedding filter path.
	SimilarityScore float64 `json:"similarity_score,omitempty" yaml:"similarity_score,omitempty"`

	// Relevant records the filter decision; Judged reports whether a
	// decision was made at all (a zero Paper has neither).
	Relevant bool `json:"relevant,omitempty" yaml:"relevant,omitempty"`
	Judged   bool `json:"judged,omitempty" yaml:"judged,omitempty"`

	// Summary and SummaryLanguage are attached by the summarizer.
	// SummaryLanguage is "original" when the summary fell back to the
	// abstract.
	Summary         string `json:"summary,omitempty" yaml:"summary,omitempty"`
	SummaryLanguage string `json:"summary_language,omitempty" yaml:"summary_language,omitempty"`
}

// Briefing is one day's digest: the accepted, summarized papers plus
// run metadata. Stored as JSON in the briefings table and rendered by
// the formatter.
type Briefing struct {
	// Date is the briefing date (YYYY-MM-DD).
	Date string `json:"date" yaml:"date"`

	// UpdateTime records when the briefing was generated.
	UpdateTime time.Time `json:"update_time" yaml:"update_time"`

	// Papers are the accepted papers in final filter order.
	Papers []Paper `json:"papers" yaml:"papers"`

	// TotalCount is len(Papers), denormalized for storage queries.
	TotalCount int `json:"total_count" yaml:"total_count"`

	// Platforms maps each source platform to its paper count.
	Platforms map[string]int `json:"platforms" yaml:"platforms"`
}
