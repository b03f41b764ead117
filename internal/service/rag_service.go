package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"scriptsum/internal/apperr"
	"scriptsum/internal/domain"
	"scriptsum/internal/embedding"
	"scriptsum/internal/logging"
	"scriptsum/internal/qa"
	"scriptsum/internal/session"
	"scriptsum/internal/vectorstore"
)

// ErrNoScript is returned when a session has no script and no fallback file exists.
var ErrNoScript = apperr.Validation("No script provided.")

// Stage names a step of the summary pipeline.
type Stage string

const (
	StageLoading   Stage = "loading"
	StageSplitting Stage = "splitting"
	StageEmbedding Stage = "embedding"
	StageIndexing  Stage = "indexing"
	StageAnswering Stage = "answering"
	StageDone      Stage = "done"
)

// Observer receives pipeline progress. It is called synchronously.
type Observer func(stage Stage, detail string)

// Summary is the answer returned to clients.
type Summary struct {
	Summary   string   `json:"summary"`
	ActorList []string `json:"actorList"`
}

// Options wires the collaborators of a RAGService.
type Options struct {
	Chunker      domain.Chunker
	NewEmbedder  embedding.Factory
	NewStore     vectorstore.Factory
	Model        domain.LanguageModel
	Sessions     session.Store
	FallbackPath string
	Question     string
	TopK         int
	Logger       *slog.Logger
}

// RAGService splits a session's script, indexes it and asks the fixed question.
type RAGService struct {
	chunker      domain.Chunker
	newEmbedder  embedding.Factory
	newStore     vectorstore.Factory
	model        domain.LanguageModel
	sessions     session.Store
	fallbackPath string
	question     string
	topK         int
	log          *slog.Logger
}

func NewRAGService(opts Options) (*RAGService, error) {
	switch {
	case opts.Chunker == nil:
		return nil, errors.New("chunker is required")
	case opts.NewEmbedder == nil:
		return nil, errors.New("embedder factory is required")
	case opts.NewStore == nil:
		return nil, errors.New("vector store factory is required")
	case opts.Model == nil:
		return nil, errors.New("language model is required")
	case opts.Sessions == nil:
		return nil, errors.New("session store is required")
	case strings.TrimSpace(opts.Question) == "":
		return nil, errors.New("question is required")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &RAGService{
		chunker:      opts.Chunker,
		newEmbedder:  opts.NewEmbedder,
		newStore:     opts.NewStore,
		model:        opts.Model,
		sessions:     opts.Sessions,
		fallbackPath: opts.FallbackPath,
		question:     opts.Question,
		topK:         opts.TopK,
		log:          log,
	}, nil
}

// SubmitScript overwrites the script stored for sessionID.
func (s *RAGService) SubmitScript(ctx context.Context, sessionID, script string) error {
	if err := s.sessions.Put(ctx, sessionOrDefault(sessionID), script); err != nil {
		return apperr.Internal("Failed to store script.", err)
	}
	s.log.Info("script received", "session", sessionOrDefault(sessionID), "chars", len(script))
	return nil
}

// ResolveScript returns the session's script, or the fallback file when the
// session has none.
func (s *RAGService) ResolveScript(ctx context.Context, sessionID string) (domain.Document, error) {
	sessionID = sessionOrDefault(sessionID)
	sc, ok, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Document{}, apperr.Internal("Failed to load script.", err)
	}
	if ok && strings.TrimSpace(sc.Text) != "" {
		source := "session:" + sessionID
		return domain.Document{ID: hashString(source), Source: source, Content: sc.Text}, nil
	}
	if s.fallbackPath == "" {
		return domain.Document{}, ErrNoScript
	}
	data, err := os.ReadFile(s.fallbackPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Document{}, ErrNoScript
		}
		return domain.Document{}, apperr.Internal("Failed to read fallback script.", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return domain.Document{}, ErrNoScript
	}
	s.log.Debug("using fallback script", "path", s.fallbackPath)
	return domain.Document{ID: hashString(s.fallbackPath), Source: s.fallbackPath, Content: string(data)}, nil
}

// CreateDocuments splits doc into ordered, size-bounded chunks.
func (s *RAGService) CreateDocuments(doc domain.Document) ([]domain.Chunk, error) {
	chunks, err := s.chunker.Chunk(doc)
	if err != nil {
		return nil, apperr.Internal("Failed to split script.", err)
	}
	if len(chunks) == 0 {
		return nil, ErrNoScript
	}
	return chunks, nil
}

// Index is one vector index build together with the embedder that produced it.
type Index struct {
	Store    domain.VectorStore
	Embedder domain.Embedder
	Chunks   []domain.Chunk
}

func (i *Index) Close() error { return i.Store.Close() }

// CreateVectorStore embeds every chunk and loads the vectors into a new store.
// The caller owns the returned Index and must Close it.
func (s *RAGService) CreateVectorStore(ctx context.Context, chunks []domain.Chunk, observe Observer) (*Index, error) {
	if len(chunks) == 0 {
		return nil, ErrNoScript
	}
	emb, err := s.newEmbedder()
	if err != nil {
		return nil, apperr.Internal("Failed to create embedder.", err)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	if err := emb.Prepare(texts); err != nil {
		return nil, apperr.Internal("Failed to prepare embedder.", err)
	}

	notify(observe, StageEmbedding, fmt.Sprintf("%d chunks with %s", len(chunks), emb.Name()))
	vectors, err := embedAll(ctx, emb, texts)
	if err != nil {
		return nil, apperr.Upstream("Embedding service failed.", err)
	}

	notify(observe, StageIndexing, fmt.Sprintf("%d vectors", len(vectors)))
	store, err := s.newStore(ctx)
	if err != nil {
		return nil, apperr.Upstream("Vector store unavailable.", err)
	}
	if err := store.Init(ctx, len(vectors[0])); err != nil {
		store.Close()
		return nil, apperr.Upstream("Vector store unavailable.", err)
	}
	if err := store.Upsert(ctx, chunks, vectors); err != nil {
		store.Close()
		return nil, apperr.Upstream("Vector store rejected the chunks.", err)
	}
	return &Index{Store: store, Embedder: emb, Chunks: chunks}, nil
}

func embedAll(ctx context.Context, emb domain.Embedder, texts []string) ([][]float64, error) {
	if be, ok := emb.(domain.BatchEmbedder); ok {
		vectors, err := be.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
		}
		return vectors, nil
	}
	vectors := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := emb.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

// CreateChain binds a conversational retrieval QA chain to idx.
func (s *RAGService) CreateChain(idx *Index) *qa.Chain {
	retriever := qa.NewVectorRetriever(idx.Embedder, idx.Store, idx.Chunks, s.topK)
	return qa.NewChain(s.model, retriever)
}

// Summarize runs the whole pipeline for sessionID: resolve the script, split,
// embed, index, and ask the fixed question. The index is discarded afterwards.
func (s *RAGService) Summarize(ctx context.Context, sessionID string, observe Observer) (*Summary, error) {
	start := time.Now()
	notify(observe, StageLoading, "")
	doc, err := s.ResolveScript(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	notify(observe, StageSplitting, doc.Source)
	chunks, err := s.CreateDocuments(doc)
	if err != nil {
		return nil, err
	}

	idx, err := s.CreateVectorStore(ctx, chunks, observe)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := idx.Close(); err != nil {
			s.log.Warn("closing vector index", "err", err)
		}
	}()

	notify(observe, StageAnswering, s.model.Name())
	res, err := s.CreateChain(idx).Call(ctx, s.question, nil)
	if err != nil {
		return nil, apperr.Upstream("Language model failed.", err)
	}

	summary := &Summary{
		Summary:   res.Text,
		ActorList: FormatActorList(ExtractActorNames(res.Text)),
	}
	s.log.Info("summary generated",
		"session", sessionOrDefault(sessionID),
		"source", doc.Source,
		"chunks", len(chunks),
		"sources_used", len(res.SourceDocuments),
		"elapsed", time.Since(start).Round(time.Millisecond))
	notify(observe, StageDone, "")
	return summary, nil
}

// ExtractActorNames returns placeholder names; the summary text is not parsed.
func ExtractActorNames(summary string) []string {
	return []string{"Actor 1", "Actor 2", "Actor 3"}
}

// FormatActorList renders names as markdown bullet items.
func FormatActorList(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "- " + n
	}
	return out
}

func notify(observe Observer, stage Stage, detail string) {
	if observe != nil {
		observe(stage, detail)
	}
}

func sessionOrDefault(id string) string {
	if strings.TrimSpace(id) == "" {
		return session.DefaultID
	}
	return id
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
