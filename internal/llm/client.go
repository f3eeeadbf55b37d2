// Package llm provides the chat model used to answer queries.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"ragchat/internal/config"
)

// ErrNoChoices is returned when the provider answers without any completion.
var ErrNoChoices = errors.New("no choices in chat completion response")

// Message represents a single message in a conversation.
type Message struct {
	Role    string // "system", "user", or "assistant"
	Content string
}

// ChatAPI is the subset of the go-openai client used for chat completions.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewOpenAIClient builds the provider client shared by the chat model and
// the embedder.
func NewOpenAIClient(cfg config.OpenAIConfig) *openai.Client {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	if cfg.TimeoutSecs > 0 {
		c.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second}
	}
	return openai.NewClientWithConfig(c)
}

// OpenAIChat implements domain.ChatModel over the chat completions API.
type OpenAIChat struct {
	api         ChatAPI
	model       string
	temperature float32
}

// NewOpenAIChat creates a chat model with a fixed model name and temperature.
func NewOpenAIChat(api ChatAPI, model string, temperature float64) *OpenAIChat {
	t := float32(temperature)
	if t == 0 {
		// go-openai drops a zero temperature from the request body
		t = math.SmallestNonzeroFloat32
	}
	return &OpenAIChat{api: api, model: model, temperature: t}
}

// Complete sends prompt as a single user message.
func (c *OpenAIChat) Complete(ctx context.Context, prompt string) (string, error) {
	return c.Generate(ctx, []Message{{Role: openai.ChatMessageRoleUser, Content: prompt}})
}

// Generate returns the model's response for the given messages.
func (c *OpenAIChat) Generate(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
