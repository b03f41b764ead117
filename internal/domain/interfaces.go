package domain

import "context"

// Document represents a single script loaded into the system.
type Document struct {
	ID      string
	Source  string
	Content string
}

// Chunk is a bounded part of a document used as the unit of embedding and retrieval.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// ChatTurn is one previous question/answer pair fed to a conversational chain.
type ChatTurn struct {
	Question string
	Answer   string
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// BatchEmbedder is implemented by embedders that can embed many texts in one call.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// VectorStore holds vectors for one index build and supports similarity search.
// Close releases whatever the build allocated (collections, rows, connections).
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Clear(ctx context.Context) error
	Close() error
}

// CompletionRequest is a single prompt sent to a language model.
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	// Sources carries the retrieved chunk texts the prompt was built from.
	Sources []string
}

// CompletionResponse is the text a language model produced.
type CompletionResponse struct {
	Text         string
	FinishReason string
	ModelName    string
	TokensUsed   int
}

// LanguageModel answers prompts.
type LanguageModel interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
