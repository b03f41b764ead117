package chunker

import (
	"fmt"

	"scriptsum/internal/config"
	"scriptsum/internal/domain"
)

// New selects the chunker implementation from cfg.
func New(cfg config.ChunkerConfig) (domain.Chunker, error) {
	switch cfg.Type {
	case "recursive", "":
		return NewRecursiveChunker(cfg.ChunkSize, cfg.ChunkOverlap), nil
	case "sentence":
		return NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences, cfg.ChunkSize), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Type)
	}
}
