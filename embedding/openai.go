// Package embedding provides the core.Embedder implementations: a remote
// OpenAI-compatible client for production and a local deterministic hashing
// embedder for tests and offline runs.
package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/gowthusaidatta/shl-assessment-recommendation-system/core"
)

// OpenAIConfig points the embedder at any OpenAI-compatible endpoint
// (OpenAI, SiliconFlow, Ollama, vLLM, ...).
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // empty = api.openai.com
	Model      string
	Dimensions int

	// RequestsPerSecond paces outbound calls; 0 disables pacing.
	RequestsPerSecond float64
}

// OpenAIEmbedder embeds text through an OpenAI-compatible /embeddings
// endpoint.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	dims    int
	limiter *rate.Limiter
}

// NewOpenAIEmbedder builds the client. Model and dimensions are required:
// the index is built in one embedding space and must stay there.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.Model == "" {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "embedding model is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, core.NewDomainError(core.ModuleIndex, core.ErrorCodeInvalidInput, "embedding dimensions must be > 0")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		dims:    cfg.Dimensions,
		limiter: limiter,
	}, nil
}

// Embed embeds one text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one call, output order matching input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed")
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dims,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for i, data := range resp.Data {
		// Providers may reorder; Index is authoritative when sane.
		slot := i
		if data.Index >= 0 && data.Index < len(texts) {
			slot = data.Index
		}
		vec := make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float64(v)
		}
		if len(vec) != e.dims {
			return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", slot, len(vec), e.dims)
		}
		vectors[slot] = vec
	}
	for i, vec := range vectors {
		if vec == nil {
			return nil, fmt.Errorf("embedding response is missing input %d", i)
		}
	}
	return vectors, nil
}

// Dimensions returns the embedding width.
func (e *OpenAIEmbedder) Dimensions() int { return e.dims }

var _ core.Embedder = (*OpenAIEmbedder)(nil)
