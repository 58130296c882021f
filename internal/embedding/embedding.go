// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding provides vector embedding clients and similarity scoring.
// Each provider (OpenAI, Zhipu) implements the Embedder interface per the
// Strategy pattern; the filter stage is written against the interface only.
package embedding

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/lyangfan/research-daily-briefing/pkg/types"
)

// Vector is a dense embedding vector. Dimensionality is provider-defined;
// only relative comparison under cosine similarity matters.
type Vector []float64

// Embedder converts text into embedding vectors.
type Embedder interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) (Vector, error)

	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([]Vector, error)

	// Name identifies the provider and model for logging.
	Name() string
}

// CosineSimilarity returns dot(a,b) / (||a|| * ||b||). It returns 0.0
// when either vector has zero norm, or when the lengths differ or are
// zero, so a degenerate vector can never divide by zero or rank above
// a real match.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// NewEmbedder builds the configured provider client. A missing API key
// is a construction error so a misconfigured session fails once, up
// front, not per call.
func NewEmbedder(cfg types.EmbeddingConfig, client *http.Client) (Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding provider %q: API key not configured", cfg.Provider)
	}

	switch cfg.Provider {
	case types.ProviderOpenAI, "":
		return NewOpenAIEmbedder(cfg.APIKey, cfg.Model, client), nil
	case types.ProviderZhipu:
		return NewZhipuEmbedder(cfg.APIKey, cfg.Model, client), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
