// Package extractive is an offline language model: it answers by extracting
// the most representative sentences from the retrieved sources.
package extractive

import (
	"context"
	"errors"
	"strings"

	"scriptsum/internal/domain"
)

// Model implements domain.LanguageModel on top of a sentence summarizer.
type Model struct {
	summarizer   domain.Summarizer
	maxSentences int
}

func New(summarizer domain.Summarizer, maxSentences int) *Model {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	return &Model{summarizer: summarizer, maxSentences: maxSentences}
}

func (m *Model) Name() string { return "extractive" }

// Complete summarizes req.Sources. When no sources are attached the prompt
// itself is summarized.
func (m *Model) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	input := strings.Join(req.Sources, "\n")
	if strings.TrimSpace(input) == "" {
		input = req.Prompt
	}
	if strings.TrimSpace(input) == "" {
		return nil, errors.New("extractive: nothing to summarize")
	}
	text, err := m.summarizer.Summarize(input, m.maxSentences)
	if err != nil {
		return nil, err
	}
	return &domain.CompletionResponse{Text: text, FinishReason: "stop", ModelName: m.Name()}, nil
}
