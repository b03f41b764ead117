package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"scriptsum/internal/domain"
	"scriptsum/internal/openaicompat"
)

const DefaultModel = "gpt-4o-mini"

// Config configures the chat completions client.
type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// Client answers prompts through an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	api         *openaicompat.Client
	model       string
	temperature float64
	maxTokens   int
}

func NewClient(cfg Config) (*Client, error) {
	api, err := openaicompat.NewClient(openaicompat.Config{
		BaseURL:    cfg.BaseURL,
		APIKeyEnv:  cfg.APIKeyEnv,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Client{api: api, model: cfg.Model, temperature: cfg.Temperature, maxTokens: cfg.MaxTokens}, nil
}

func (c *Client) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends the prompt as a user message. The client's configured
// temperature applies unless the request sets a positive one.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error) {
	var msgs []chatMessage
	if req.SystemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	if req.Temperature > 0 {
		body.Temperature = req.Temperature
	}
	if req.MaxTokens > 0 {
		body.MaxTokens = req.MaxTokens
	}

	var resp chatResponse
	if err := c.api.PostJSON(ctx, "/chat/completions", body, &resp); err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai chat completion: no choices returned")
	}
	choice := resp.Choices[0]
	return &domain.CompletionResponse{
		Text:         strings.TrimSpace(choice.Message.Content),
		FinishReason: choice.FinishReason,
		ModelName:    resp.Model,
		TokensUsed:   resp.Usage.TotalTokens,
	}, nil
}
