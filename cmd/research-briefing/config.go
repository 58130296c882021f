// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/viper"

	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

// pipelineConfig assembles the full configuration from viper (config
// file and RESEARCH_BRIEFING_* environment), secrets, and defaults.
func pipelineConfig() types.PipelineConfig {
	viper.SetDefault("fetch.timeout", "30s")
	viper.SetDefault("fetch.user_agent", "research-briefing/"+version)
	viper.SetDefault("fetch.requests_per_second", 1.0)
	viper.SetDefault("fetch.arxiv.enabled", true)
	viper.SetDefault("fetch.arxiv.categories", []string{"cs.AI", "cs.MA"})
	viper.SetDefault("fetch.arxiv.max_results", 100)
	viper.SetDefault("fetch.biorxiv.enabled", false)
	viper.SetDefault("fetch.biorxiv.categories", []string{"bioinformatics"})
	viper.SetDefault("fetch.biorxiv.max_results", 100)
	viper.SetDefault("fetch.medrxiv.enabled", false)
	viper.SetDefault("fetch.medrxiv.categories", []string{"health informatics"})
	viper.SetDefault("fetch.medrxiv.max_results", 100)

	viper.SetDefault("filter.mode", string(types.ModeHybrid))
	viper.SetDefault("filter.max_papers", 30)
	viper.SetDefault("filter.judge_timeout", "120s")
	viper.SetDefault("filter.embedding.provider", string(types.ProviderOpenAI))
	viper.SetDefault("filter.embedding.similarity_threshold", 0.75)

	viper.SetDefault("summarizer.language", "zh")
	viper.SetDefault("summarizer.max_length", 200)
	viper.SetDefault("summarizer.timeout", "600s")

	viper.SetDefault("storage.dir", "data")
	viper.SetDefault("storage.retain_days", 90)

	viper.SetDefault("delivery.channel", "feishu")
	viper.SetDefault("delivery.max_summary_papers", 10)

	cfg := types.PipelineConfig{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("fetch.timeout"),
				UserAgent: viper.GetString("fetch.user_agent"),
			},
			Arxiv:             sourceConfig("fetch.arxiv"),
			Biorxiv:           sourceConfig("fetch.biorxiv"),
			Medrxiv:           sourceConfig("fetch.medrxiv"),
			RequestsPerSecond: viper.GetFloat64("fetch.requests_per_second"),
		},
		Filter: types.FilterConfig{
			Mode:         types.FilterMode(viper.GetString("filter.mode")),
			Keywords:     viper.GetStringSlice("filter.keywords"),
			MaxPapers:    viper.GetInt("filter.max_papers"),
			JudgeTimeout: viper.GetDuration("filter.judge_timeout"),
			PatternsFile: viper.GetString("filter.patterns_file"),
			Embedding: types.EmbeddingConfig{
				Provider:            types.EmbeddingProvider(viper.GetString("filter.embedding.provider")),
				Model:               viper.GetString("filter.embedding.model"),
				Query:               viper.GetString("filter.embedding.query"),
				SimilarityThreshold: viper.GetFloat64("filter.embedding.similarity_threshold"),
			},
		},
		Summarizer: types.SummarizerConfig{
			Language:  viper.GetString("summarizer.language"),
			MaxLength: viper.GetInt("summarizer.max_length"),
			Timeout:   viper.GetDuration("summarizer.timeout"),
		},
		Storage: types.StorageConfig{
			Dir:        viper.GetString("storage.dir"),
			RetainDays: viper.GetInt("storage.retain_days"),
		},
		Delivery: types.DeliveryConfig{
			Channel:          viper.GetString("delivery.channel"),
			Target:           viper.GetString("delivery.target"),
			MaxSummaryPapers: viper.GetInt("delivery.max_summary_papers"),
		},
	}

	cfg.Filter.Embedding.APIKey = embeddingAPIKey(cfg.Filter.Embedding.Provider)
	if cfg.Delivery.Target == "" {
		cfg.Delivery.Target = secretDefault("openclaw-feishu-target", os.Getenv("OPENCLAW_FEISHU_TARGET"))
	}
	return cfg
}

func sourceConfig(prefix string) types.SourceConfig {
	return types.SourceConfig{
		Enabled:    viper.GetBool(prefix + ".enabled"),
		Categories: viper.GetStringSlice(prefix + ".categories"),
		MaxResults: viper.GetInt(prefix + ".max_results"),
	}
}

// embeddingAPIKey resolves the provider key: config value, then the
// provider's conventional environment variable, then .secrets/.
func embeddingAPIKey(provider types.EmbeddingProvider) string {
	if key := viper.GetString("filter.embedding.api_key"); key != "" {
		return key
	}
	switch provider {
	case types.ProviderZhipu:
		return secretDefault("zhipu-api-key", os.Getenv("ZHIPU_API_KEY"))
	default:
		return secretDefault("openai-api-key", os.Getenv("OPENAI_API_KEY"))
	}
}
