// Package embedding selects the embedder used for index builds.
package embedding

import (
	"fmt"
	"time"

	"scriptsum/internal/config"
	"scriptsum/internal/domain"
	"scriptsum/internal/embedding/openai"
	"scriptsum/internal/embedding/tfidf"
)

// Factory returns the embedder for one index build.
type Factory func() (domain.Embedder, error)

// NewFactory builds a Factory from cfg. Remote embedders are shared across
// builds; TF-IDF is stateful and is created fresh each time.
func NewFactory(cfg config.EmbedderConfig) (Factory, error) {
	switch cfg.Type {
	case "tfidf":
		return func() (domain.Embedder, error) { return tfidf.NewEmbedder(), nil }, nil
	case "openai", "":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries: cfg.OpenAI.MaxRetries,
			BatchSize:  cfg.OpenAI.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return func() (domain.Embedder, error) { return client, nil }, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}
