package memory

import (
	"context"
	"testing"

	"scriptsum/internal/domain"
)

func chunks(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.Chunk{DocumentID: "d", ChunkID: "d:" + string(rune('a'+i)), Text: t, Index: i}
	}
	return out
}

func TestSearchOrdersByCosine(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	if err := s.Init(ctx, 2); err != nil {
		t.Fatalf("init: %v", err)
	}
	err := s.Upsert(ctx, chunks("east", "north", "northeast"), [][]float64{{1, 0}, {0, 5}, {1, 1}})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	res, err := s.Search(ctx, []float64{0, 1}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 2 || res[0].Chunk.Text != "north" || res[1].Chunk.Text != "northeast" {
		t.Fatalf("unexpected results: %+v", res)
	}
	if res[0].Score < 0.999 {
		t.Errorf("score = %f", res[0].Score)
	}
}

func TestUpsertReplacesByChunkID(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	_ = s.Init(ctx, 1)
	_ = s.Upsert(ctx, chunks("old"), [][]float64{{1}})
	_ = s.Upsert(ctx, chunks("new"), [][]float64{{1}})
	if s.Len() != 1 {
		t.Fatalf("len = %d", s.Len())
	}
	res, _ := s.Search(ctx, []float64{1}, 5)
	if res[0].Chunk.Text != "new" {
		t.Errorf("text = %q", res[0].Chunk.Text)
	}
}

func TestUpsertValidates(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	if err := s.Upsert(ctx, chunks("x"), [][]float64{{1}}); err == nil {
		t.Error("expected error before Init")
	}
	_ = s.Init(ctx, 2)
	if err := s.Upsert(ctx, chunks("x"), [][]float64{{1}}); err == nil {
		t.Error("expected dimension error")
	}
	if err := s.Upsert(ctx, chunks("x", "y"), [][]float64{{1, 0}}); err == nil {
		t.Error("expected length error")
	}
	if err := s.Init(ctx, 0); err == nil {
		t.Error("expected invalid dimension error")
	}
}

func TestCloseEmpties(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	_ = s.Init(ctx, 1)
	_ = s.Upsert(ctx, chunks("x"), [][]float64{{1}})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("len = %d after close", s.Len())
	}
}
