package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrEmptyText is returned when there is nothing to embed.
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrMissingEmbeddings is returned when the provider answers with fewer vectors than inputs.
	ErrMissingEmbeddings = errors.New("provider returned fewer embeddings than inputs")
)

// EmbeddingAPI is the subset of the go-openai client used for embeddings.
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Config configures the OpenAI embeddings client.
type Config struct {
	Model      string
	BatchSize  int
	MaxRetries int
}

// Client is an OpenAI-compatible embeddings client implementing domain.BatchEmbedder.
type Client struct {
	api        EmbeddingAPI
	model      openai.EmbeddingModel
	batchSize  int
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new embeddings client on top of api.
func NewClient(api EmbeddingAPI, cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{
		api:        api,
		model:      openai.EmbeddingModel(cfg.Model),
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		sleep:      sleepContext,
	}
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	vectors, err := c.create(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in provider calls of at most BatchSize inputs,
// preserving input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		for _, t := range texts[start:end] {
			if t == "" {
				return nil, ErrEmptyText
			}
		}
		vectors, err := c.create(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (c *Client) create(ctx context.Context, inputs []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{Input: inputs, Model: c.model}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, retryDelay(attempt-1)); err != nil {
				return nil, err
			}
		}
		resp, err := c.api.CreateEmbeddings(ctx, req)
		if err != nil {
			lastErr = err
			if retryable(err) {
				continue
			}
			return nil, fmt.Errorf("failed to create embeddings: %w", err)
		}
		vectors := make([][]float32, len(inputs))
		for _, d := range resp.Data {
			if d.Index >= 0 && d.Index < len(vectors) {
				vectors[d.Index] = d.Embedding
			}
		}
		for _, v := range vectors {
			if len(v) == 0 {
				return nil, ErrMissingEmbeddings
			}
		}
		return vectors, nil
	}
	return nil, fmt.Errorf("failed to create embeddings after %d attempts: %w", c.maxRetries+1, lastErr)
}

func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
