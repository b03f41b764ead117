// Package app assembles the summarizer from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"scriptsum/internal/chunker"
	"scriptsum/internal/config"
	"scriptsum/internal/embedding"
	"scriptsum/internal/llm"
	"scriptsum/internal/logging"
	"scriptsum/internal/service"
	"scriptsum/internal/session"
	"scriptsum/internal/vectorstore"
)

// Build wires chunker, embedder, vector store, language model and session
// store into a RAGService. cleanup releases whatever Build opened.
func Build(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (svc *service.RAGService, cleanup func() error, err error) {
	if log == nil {
		log = logging.Discard()
	}
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	defer func() {
		if err != nil {
			_ = closeAll()
		}
	}()

	ch, err := chunker.New(cfg.Chunker)
	if err != nil {
		return nil, nil, err
	}
	newEmbedder, err := embedding.NewFactory(cfg.Embedder)
	if err != nil {
		return nil, nil, err
	}
	newStore, closeStore, err := vectorstore.NewFactory(ctx, cfg.VectorStore)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeStore)

	model, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, nil, err
	}

	sessions, err := openSessions(cfg.Session)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, sessions.Close)

	svc, err = service.NewRAGService(service.Options{
		Chunker:      ch,
		NewEmbedder:  newEmbedder,
		NewStore:     newStore,
		Model:        model,
		Sessions:     sessions,
		FallbackPath: cfg.Script.FallbackPath,
		Question:     cfg.Script.Question,
		TopK:         cfg.Retrieval.TopK,
		Logger:       log,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info("summarizer ready",
		"chunker", cfg.Chunker.Type,
		"embedder", cfg.Embedder.Type,
		"vector_store", cfg.VectorStore.Type,
		"llm", model.Name(),
		"sessions", cfg.Session.Store)
	return svc, closeAll, nil
}

func openSessions(cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Store {
	case "memory", "":
		return session.NewMemoryStore(), nil
	case "sqlite":
		return session.OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown session store: %s", cfg.Store)
	}
}
