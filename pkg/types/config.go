// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-briefing/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig holds settings for one paper source platform.
type SourceConfig struct {
	// Enabled controls whether the source is polled.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Categories lists source category tags to poll (arXiv categories
	// such as "cs.AI", or bioRxiv/medRxiv sections such as "bioinformatics").
	Categories []string `json:"categories" yaml:"categories"`

	// MaxResults caps the number of papers fetched per category page
	// (default 100).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// FetchConfig holds settings for the fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Arxiv, Biorxiv, and Medrxiv configure the individual sources.
	Arxiv   SourceConfig `json:"arxiv" yaml:"arxiv"`
	Biorxiv SourceConfig `json:"biorxiv" yaml:"biorxiv"`
	Medrxiv SourceConfig `json:"medrxiv" yaml:"medrxiv"`

	// RequestsPerSecond paces successive API requests within one source
	// (default 1).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// FilterMode selects the relevance filtering strategy.
type FilterMode string

const (
	// ModeKeywords filters on the keyword list alone.
	ModeKeywords FilterMode = "keywords"
	// ModeClaude filters with the judge CLI after a keyword prefilter.
	ModeClaude FilterMode = "claude"
	// ModeHybrid behaves like ModeClaude but is the documented default.
	ModeHybrid FilterMode = "hybrid"
	// ModeEmbedding filters on embedding similarity against a query text.
	ModeEmbedding FilterMode = "embedding"
)

// EmbeddingProvider identifies the vector backend.
type EmbeddingProvider string

const (
	ProviderOpenAI EmbeddingProvider = "openai"
	ProviderZhipu  EmbeddingProvider = "zhipu"
)

// EmbeddingConfig holds settings for the embedding filter path.
type EmbeddingConfig struct {
	// Provider selects the vector backend: openai or zhipu.
	Provider EmbeddingProvider `json:"provider" yaml:"provider"`

	// Model is the embedding model identifier
	// (default "text-embedding-3-small" for openai, "embedding-3" for zhipu).
	Model string `json:"model" yaml:"model"`

	// Query is the fixed topic description every paper is compared against.
	Query string `json:"query" yaml:"query"`

	// SimilarityThreshold is the minimum cosine similarity to keep a
	// paper, in [0,1] (default 0.75).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`

	// APIKey authenticates with the provider. Usually supplied via
	// environment or .secrets/ rather than the config file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// FilterConfig holds settings for the relevance filtering stage.
type FilterConfig struct {
	// Mode selects the strategy: keywords, claude, hybrid, or embedding.
	Mode FilterMode `json:"mode" yaml:"mode"`

	// Keywords is the prefilter term list. An empty list disables the
	// prefilter (everything passes), it does not reject everything.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// MaxPapers caps how many prefiltered papers are sent to the judge
	// or embedded, in input order (default 30).
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// JudgeTimeout bounds a single judge invocation (default 120s).
	JudgeTimeout time.Duration `json:"judge_timeout" yaml:"judge_timeout"`

	// PatternsFile optionally overrides the built-in response pattern
	// list used by the parser's pattern cascade.
	PatternsFile string `json:"patterns_file,omitempty" yaml:"patterns_file,omitempty"`

	// Embedding configures the embedding path (mode "embedding").
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
}

// SummarizerConfig holds settings for the summarization stage.
type SummarizerConfig struct {
	// Language is the target summary language, "zh" or "en" (default "zh").
	Language string `json:"language" yaml:"language"`

	// MaxLength bounds summaries and the abstract fallback
	// (default 200 characters).
	MaxLength int `json:"max_length" yaml:"max_length"`

	// Timeout bounds a single summary invocation (default 600s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// StorageConfig holds settings for the persistence stage.
type StorageConfig struct {
	// Dir is the directory holding the briefings database.
	Dir string `json:"dir" yaml:"dir"`

	// RetainDays is how long processed-paper records and briefings are
	// kept before cleanup (default 90).
	RetainDays int `json:"retain_days" yaml:"retain_days"`
}

// DeliveryConfig holds settings for digest delivery.
type DeliveryConfig struct {
	// Channel is the openclaw messaging channel (default "feishu").
	Channel string `json:"channel" yaml:"channel"`

	// Target is the delivery target identifier. Usually supplied via
	// the OPENCLAW_FEISHU_TARGET environment variable.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// MaxSummaryPapers caps how many papers the rendered message shows
	// in full; 0 shows all.
	MaxSummaryPapers int `json:"max_summary_papers" yaml:"max_summary_papers"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Filter     FilterConfig     `json:"filter" yaml:"filter"`
	Summarizer SummarizerConfig `json:"summarizer" yaml:"summarizer"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	Delivery   DeliveryConfig   `json:"delivery" yaml:"delivery"`
}
