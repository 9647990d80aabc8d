package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	retrievalmodel "github.com/lexhq/lex-backend/internal/model/retrieval"
)

// ErrUnavailable means the embedding model or the semantic index could not be
// reached. Retrieval fails loudly instead of returning empty context, so the
// analyzer never treats a broken index as a deliberately empty one.
var ErrUnavailable = errors.New("retrieval backend unavailable")

// DefaultTopK is the number of passages fetched per query.
const DefaultTopK = 3

// Embedder produces a fixed-length vector for a query text. It must be the
// same model the index was built with.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index performs nearest-neighbour search over the pre-built passage index.
type Index interface {
	Search(ctx context.Context, vector []float32, limit int) ([]retrievalmodel.Passage, error)
}

// Service fetches supporting context for a document from the semantic index.
type Service struct {
	embedder Embedder
	index    Index
	topK     int
}

// NewService wires the retriever. topK <= 0 selects DefaultTopK.
func NewService(embedder Embedder, index Index, topK int) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{embedder: embedder, index: index, topK: topK}
}

// Retrieve embeds the full query text, normalizes the vector and returns the
// top-k passages in most-similar-first order.
func (s *Service) Retrieve(ctx context.Context, query string) ([]retrievalmodel.Passage, error) {
	if s == nil || s.embedder == nil || s.index == nil {
		return nil, ErrUnavailable
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", ErrUnavailable, err)
	}
	normalize(vector)

	passages, err := s.index.Search(ctx, vector, s.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: searching index: %v", ErrUnavailable, err)
	}

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Distance < passages[j].Distance
	})
	return passages, nil
}

// normalize scales the vector to unit length in place, matching the
// normalization applied at index-build time.
func normalize(vector []float32) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vector {
		vector[i] /= norm
	}
}
