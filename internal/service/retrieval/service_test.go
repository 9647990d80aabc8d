package retrieval

import (
	"context"
	"errors"
	"math"
	"testing"

	retrievalmodel "github.com/lexhq/lex-backend/internal/model/retrieval"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vector, f.err
}

type fakeIndex struct {
	passages  []retrievalmodel.Passage
	err       error
	gotVector []float32
	gotLimit  int
}

func (f *fakeIndex) Search(_ context.Context, vector []float32, limit int) ([]retrievalmodel.Passage, error) {
	f.gotVector = vector
	f.gotLimit = limit
	return f.passages, f.err
}

func TestRetrieveNormalizesAndOrders(t *testing.T) {
	index := &fakeIndex{passages: []retrievalmodel.Passage{
		{Text: "b", Source: "b.pdf", Distance: 0.8},
		{Text: "a", Source: "a.pdf", Distance: 0.2},
		{Text: "c", Source: "c.pdf", Distance: 0.5},
	}}
	svc := NewService(&fakeEmbedder{vector: []float32{3, 4}}, index, 3)

	got, err := svc.Retrieve(context.Background(), "lease agreement")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	var norm float64
	for _, v := range index.gotVector {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-6 {
		t.Fatalf("query vector not normalized, squared norm = %f", norm)
	}

	if index.gotLimit != 3 {
		t.Fatalf("limit = %d, want 3", index.gotLimit)
	}
	if got[0].Source != "a.pdf" || got[1].Source != "c.pdf" || got[2].Source != "b.pdf" {
		t.Fatalf("passages not in ascending-distance order: %+v", got)
	}
}

func TestRetrieveEmbedderFailureIsUnavailable(t *testing.T) {
	svc := NewService(&fakeEmbedder{err: errors.New("model down")}, &fakeIndex{}, 3)

	_, err := svc.Retrieve(context.Background(), "query")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestRetrieveIndexFailureIsUnavailable(t *testing.T) {
	svc := NewService(&fakeEmbedder{vector: []float32{1}}, &fakeIndex{err: errors.New("index down")}, 3)

	_, err := svc.Retrieve(context.Background(), "query")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestNilServiceIsUnavailable(t *testing.T) {
	var svc *Service
	if _, err := svc.Retrieve(context.Background(), "query"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestNewServiceDefaultsTopK(t *testing.T) {
	index := &fakeIndex{}
	svc := NewService(&fakeEmbedder{vector: []float32{1}}, index, 0)

	if _, err := svc.Retrieve(context.Background(), "query"); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if index.gotLimit != DefaultTopK {
		t.Fatalf("limit = %d, want %d", index.gotLimit, DefaultTopK)
	}
}
