// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lyangfan/research-daily-briefing/internal/httputil"
)

// zhipuAPIBase is the Zhipu AI embeddings endpoint. Declared as a var so
// tests can substitute an httptest server.
var zhipuAPIBase = "https://open.bigmodel.cn/api/paas/v4/embeddings"

const defaultZhipuModel = "embedding-3"

// ZhipuEmbedder calls the Zhipu AI embeddings API. The wire format
// mirrors OpenAI's but the endpoint, auth, and models differ.
type ZhipuEmbedder struct {
	apiKey string
	model  string
	client *http.Client
}

// NewZhipuEmbedder returns an embedder for the given key and model.
// An empty model selects embedding-3.
func NewZhipuEmbedder(apiKey, model string, client *http.Client) *ZhipuEmbedder {
	if model == "" {
		model = defaultZhipuModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ZhipuEmbedder{apiKey: apiKey, model: model, client: client}
}

// Name returns the provider and model identifier.
func (e *ZhipuEmbedder) Name() string { return "zhipu/" + e.model }

// Embed returns the vector for a single text.
func (e *ZhipuEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	vectors, err := e.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per input text in a single API call.
func (e *ZhipuEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	return e.request(ctx, texts)
}

type zhipuRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type zhipuResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (e *ZhipuEmbedder) request(ctx context.Context, texts []string) ([]Vector, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no input texts")
	}

	body, err := json.Marshal(zhipuRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, zhipuAPIBase, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, e.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Zhipu embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("Zhipu embeddings API returned HTTP %d: %s", resp.StatusCode, msg)
	}

	var zr zhipuResponse
	if err := json.NewDecoder(resp.Body).Decode(&zr); err != nil {
		return nil, fmt.Errorf("parsing Zhipu response: %w", err)
	}
	if len(zr.Data) == 0 {
		return nil, fmt.Errorf("Zhipu response contained no embeddings")
	}
	if len(zr.Data) != len(texts) {
		return nil, fmt.Errorf("Zhipu returned %d embeddings for %d inputs", len(zr.Data), len(texts))
	}

	vectors := make([]Vector, len(texts))
	for _, d := range zr.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("Zhipu returned out-of-range index %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
