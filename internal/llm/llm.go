// Package llm selects the language model that answers the summary question.
package llm

import (
	"fmt"
	"time"

	"scriptsum/internal/config"
	"scriptsum/internal/domain"
	"scriptsum/internal/llm/extractive"
	"scriptsum/internal/llm/openai"
	"scriptsum/internal/summarizer"
)

func New(cfg config.LLMConfig) (domain.LanguageModel, error) {
	switch cfg.Type {
	case "openai", "":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai llm config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:     cfg.OpenAI.BaseURL,
			APIKeyEnv:   cfg.OpenAI.APIKeyEnv,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Timeout:     time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries:  cfg.OpenAI.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai llm init failed: %w", err)
		}
		return client, nil
	case "extractive":
		maxSentences := 0
		if cfg.Extractive != nil {
			maxSentences = cfg.Extractive.MaxSentences
		}
		return extractive.New(summarizer.NewFrequencySummarizer(), maxSentences), nil
	default:
		return nil, fmt.Errorf("unknown llm: %s", cfg.Type)
	}
}
