package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Provider generates embedding vectors. The core never computes vectors
// itself; it only calls out to a provider and caches the results.
type Provider interface {
	// Embed generates a vector for text. Implementations must respect
	// ctx cancellation: this is the only network-bound call in the system
	// and callers hold no locks while waiting on it.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelID and ModelVersion identify the generating model. A change in
	// either invalidates every cached record.
	ModelID() string
	ModelVersion() string
}

// Config holds embedding provider settings.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	ModelVersion string
	Timeout      time.Duration
	MaxRetries   int
}

// OpenAIProvider talks to an OpenAI-compatible embeddings endpoint.
type OpenAIProvider struct {
	client       *openai.Client
	model        string
	modelVersion string
	timeout      time.Duration
	maxRetries   int
}

// NewOpenAIProvider creates a provider from cfg, applying defaults for
// unset values.
func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.ModelVersion == "" {
		cfg.ModelVersion = "1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        cfg.Model,
		modelVersion: cfg.ModelVersion,
		timeout:      cfg.Timeout,
		maxRetries:   cfg.MaxRetries,
	}
}

// Embed generates a vector for text, bounded by the configured timeout
// and retried with backoff on transient failures.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("embed: %w", ctx.Err())
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(p.model),
			Input: text,
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Data) == 0 {
			lastErr = fmt.Errorf("empty embedding response")
			continue
		}
		return resp.Data[0].Embedding, nil
	}
	return nil, fmt.Errorf("embed: after %d attempts: %w", p.maxRetries, lastErr)
}

// ModelID returns the configured model identifier.
func (p *OpenAIProvider) ModelID() string { return p.model }

// ModelVersion returns the configured model version. OpenAI-compatible
// endpoints expose no version API, so the version is operator-declared:
// bumping it in config forces a full re-embed on the next sync.
func (p *OpenAIProvider) ModelVersion() string { return p.modelVersion }
