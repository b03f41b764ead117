package tfidf

import (
	"context"
	"math"
	"testing"
)

func TestEmbedRequiresPrepare(t *testing.T) {
	if _, err := NewEmbedder().Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error before Prepare")
	}
}

func TestPrepareAndEmbed(t *testing.T) {
	corpus := []string{
		"Kramer bursts into the apartment.",
		"George hides in the parking garage.",
		"Elaine dances at the office party.",
	}
	e := NewEmbedder()
	if err := e.Prepare(corpus); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if e.Dimension() == 0 {
		t.Fatal("zero dimension")
	}

	vecs, err := e.EmbedBatch(context.Background(), corpus)
	if err != nil {
		t.Fatalf("embed batch: %v", err)
	}
	for i, v := range vecs {
		norm := 0.0
		for _, x := range v {
			norm += x * x
		}
		if math.Abs(norm-1) > 1e-9 {
			t.Errorf("vector %d not normalized: %f", i, norm)
		}
	}

	q, err := e.Embed(context.Background(), "where is george parking")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	best, bestScore := -1, -1.0
	for i, v := range vecs {
		s := 0.0
		for j := range v {
			s += v[j] * q[j]
		}
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	if best != 1 {
		t.Errorf("nearest = %d, want 1", best)
	}
}

func TestEmbedUnknownTermsIsZero(t *testing.T) {
	e := NewEmbedder()
	if err := e.Prepare([]string{"jerry comedian"}); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	v, err := e.Embed(context.Background(), "the and of")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for _, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector, got %v", v)
		}
	}
}

func TestEmbedHonorsCancelledContext(t *testing.T) {
	e := NewEmbedder()
	if err := e.Prepare([]string{"newman"}); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Embed(ctx, "newman"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestPrepareWithoutWords(t *testing.T) {
	e := NewEmbedder()
	if err := e.Prepare([]string{"1234 5678 !!!", "the and of to"}); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if e.Dimension() != 1 {
		t.Fatalf("dimension = %d, want 1", e.Dimension())
	}
	vecs, err := e.EmbedBatch(context.Background(), []string{"1234", "Jerry"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for i, v := range vecs {
		if len(v) != 1 || v[0] != 0 {
			t.Errorf("vector %d = %v, want [0]", i, v)
		}
	}
}
