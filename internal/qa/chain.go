// Package qa answers questions over an indexed script: retrieve the closest
// chunks, stuff them into a prompt, ask the language model.
package qa

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"scriptsum/internal/domain"
)

var condenseTemplate = template.Must(template.New("condense").Parse(
	`Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question.

Chat History:
{{range .History}}Human: {{.Question}}
Assistant: {{.Answer}}
{{end}}Follow Up Input: {{.Question}}
Standalone question:`))

var answerTemplate = template.Must(template.New("answer").Parse(
	`Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{{range $i, $c := .Context}}{{if $i}}

{{end}}{{$c}}{{end}}

Question: {{.Question}}
Helpful Answer:`))

// Result is the chain's answer and the chunks it was grounded on.
type Result struct {
	Text            string
	Question        string
	SourceDocuments []domain.SearchResult
}

// Chain is a conversational retrieval QA chain.
type Chain struct {
	model     domain.LanguageModel
	retriever Retriever
}

func NewChain(model domain.LanguageModel, retriever Retriever) *Chain {
	return &Chain{model: model, retriever: retriever}
}

// Call answers question. A non-empty history first has the model rewrite the
// question into a standalone one, which is then used for retrieval and answering.
func (c *Chain) Call(ctx context.Context, question string, history []domain.ChatTurn) (*Result, error) {
	standalone := question
	if len(history) > 0 {
		prompt, err := render(condenseTemplate, map[string]any{"History": history, "Question": question})
		if err != nil {
			return nil, err
		}
		resp, err := c.model.Complete(ctx, domain.CompletionRequest{Prompt: prompt})
		if err != nil {
			return nil, fmt.Errorf("condense question: %w", err)
		}
		if q := strings.TrimSpace(resp.Text); q != "" {
			standalone = q
		}
	}

	docs, err := c.retriever.Retrieve(ctx, standalone)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	sources := make([]string, len(docs))
	for i, d := range docs {
		sources[i] = d.Chunk.Text
	}
	prompt, err := render(answerTemplate, map[string]any{"Context": sources, "Question": standalone})
	if err != nil {
		return nil, err
	}
	resp, err := c.model.Complete(ctx, domain.CompletionRequest{Prompt: prompt, Sources: sources})
	if err != nil {
		return nil, fmt.Errorf("answer question: %w", err)
	}
	return &Result{Text: strings.TrimSpace(resp.Text), Question: standalone, SourceDocuments: docs}, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}
