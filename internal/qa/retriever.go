package qa

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"scriptsum/internal/domain"
)

// Retriever returns the chunks most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.SearchResult, error)
}

// VectorRetriever embeds the query and searches a vector store. When the query
// embeds to the zero vector, or every hit scores zero, it falls back to
// lexical overlap over the indexed chunks.
type VectorRetriever struct {
	embedder domain.Embedder
	store    domain.VectorStore
	chunks   []domain.Chunk
	topK     int
}

func NewVectorRetriever(embedder domain.Embedder, store domain.VectorStore, chunks []domain.Chunk, topK int) *VectorRetriever {
	if topK <= 0 {
		topK = 4
	}
	return &VectorRetriever{embedder: embedder, store: store, chunks: chunks, topK: topK}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, query string) ([]domain.SearchResult, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if isZero(vec) {
		return r.lexicalSearch(query), nil
	}
	res, err := r.store.Search(ctx, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	for _, hit := range res {
		if hit.Score > 1e-9 {
			return res, nil
		}
	}
	return r.lexicalSearch(query), nil
}

func isZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

var wordPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// lexicalSearch ranks chunks by the Ochiai coefficient of their word sets.
// Ties keep chunk order, so a query sharing no words returns the opening chunks.
func (r *VectorRetriever) lexicalSearch(query string) []domain.SearchResult {
	qset := tokenSet(query)
	out := make([]domain.SearchResult, len(r.chunks))
	for i, ch := range r.chunks {
		out[i] = domain.SearchResult{Chunk: ch, Score: ochiai(qset, tokenSet(ch.Text))}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > r.topK {
		out = out[:r.topK]
	}
	return out
}

func tokenSet(s string) map[string]struct{} {
	tokens := wordPattern.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// ochiai is |A∩B| / sqrt(|A||B|).
func ochiai(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(a))*float64(len(b)))
}
