package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// fakeEmbedder implements Embedder with a fixed vector or error.
type fakeEmbedder struct {
	// vector is returned for every input text.
	vector []float32
	// err is returned as-is when non-nil.
	err error
	// lastMode records the mode of the most recent Embed call.
	lastMode EmbedMode
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	f.lastMode = mode
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

// fakeStore implements VectorStore over an in-memory hit list.
type fakeStore struct {
	// hits is returned (up to the requested limit) by Query, after the
	// simulated server-side pageGTE condition.
	hits []Hit
	// queryErr fails Query when non-nil.
	queryErr error
	// ensured records collections passed to Ensure.
	ensured []string
	// lastLimit records the candidate count of the most recent Query.
	lastLimit int
}

func (f *fakeStore) Ensure(_ context.Context, collection string) error {
	f.ensured = append(f.ensured, collection)
	return nil
}

func (f *fakeStore) Reset(context.Context, string) error { return nil }

func (f *fakeStore) Upsert(context.Context, string, []Chunk, [][]float32) error { return nil }

func (f *fakeStore) Query(_ context.Context, _ string, _ []float32, limit int, pageGTE *int) ([]Hit, error) {
	f.lastLimit = limit
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []Hit
	for _, h := range f.hits {
		if pageGTE != nil && h.PageNo < *pageGTE {
			continue
		}
		out = append(out, h)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) Collections(context.Context) ([]string, error) { return nil, nil }

func (f *fakeStore) Close() error { return nil }

// hitsOnPages builds one hit per page number, in the given rank order.
func hitsOnPages(pages ...int) []Hit {
	hits := make([]Hit, len(pages))
	for i, p := range pages {
		hits[i] = Hit{
			ID:     fmt.Sprintf("chunk-%d", i),
			PageNo: p,
			Text:   fmt.Sprintf("content of page %d", p),
			Score:  float32(len(pages)-i) / float32(len(pages)),
		}
	}
	return hits
}

// ---------------------------------------------------------------------------
// Retrieve
// ---------------------------------------------------------------------------

func TestRetrieve_EmptyCollection(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	r, err := NewRetriever(&fakeEmbedder{vector: []float32{0.1}}, store)
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}

	hits, err := r.Retrieve(context.Background(), "fresh", "anything", nil, 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected zero hits from empty collection, got %d", len(hits))
	}
	if len(store.ensured) != 1 || store.ensured[0] != "fresh" {
		t.Errorf("expected collection to be lazily ensured, got %v", store.ensured)
	}
}

func TestRetrieve_QueryModeEmbedding(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	r, err := NewRetriever(emb, &fakeStore{})
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}

	if _, err := r.Retrieve(context.Background(), "c", "q", nil, 3); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if emb.lastMode != EmbedModeQuery {
		t.Errorf("expected query-mode embedding, got %q", emb.lastMode)
	}
}

func TestRetrieve_PageFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		hits      []Hit
		filter    *PageFilter
		budget    int
		wantPages []int
		wantLimit int
	}{
		{
			name:      "no filter requests exact budget",
			hits:      hitsOnPages(1, 2, 3, 4, 5, 6),
			filter:    nil,
			budget:    4,
			wantPages: []int{1, 2, 3, 4},
			wantLimit: 4,
		},
		{
			name:      "filter keeps in-range hits in rank order",
			hits:      hitsOnPages(7, 3, 9, 4, 5, 2),
			filter:    &PageFilter{Lower: 3, Upper: 5},
			budget:    10,
			wantPages: []int{3, 4, 5},
			wantLimit: 1000,
		},
		{
			name:      "filter then truncate to budget",
			hits:      hitsOnPages(3, 4, 5, 3, 4),
			filter:    &PageFilter{Lower: 3, Upper: 5},
			budget:    2,
			wantPages: []int{3, 4},
			wantLimit: 1000,
		},
		{
			name:      "inverted range matches nothing",
			hits:      hitsOnPages(3, 4, 5, 6, 7, 8, 9),
			filter:    &PageFilter{Lower: 9, Upper: 3},
			budget:    10,
			wantPages: nil,
			wantLimit: 1000,
		},
		{
			name:      "boundary pages are inclusive",
			hits:      hitsOnPages(2, 3, 5, 6),
			filter:    &PageFilter{Lower: 3, Upper: 5},
			budget:    10,
			wantPages: []int{3, 5},
			wantLimit: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{hits: tt.hits}
			r, err := NewRetriever(&fakeEmbedder{vector: []float32{0.5}}, store)
			if err != nil {
				t.Fatalf("NewRetriever: %v", err)
			}

			got, err := r.Retrieve(context.Background(), "book", "q", tt.filter, tt.budget)
			if err != nil {
				t.Fatalf("Retrieve: %v", err)
			}

			if len(got) != len(tt.wantPages) {
				t.Fatalf("got %d hits, want %d", len(got), len(tt.wantPages))
			}
			for i, h := range got {
				if h.PageNo != tt.wantPages[i] {
					t.Errorf("hit %d: page %d, want %d", i, h.PageNo, tt.wantPages[i])
				}
			}
			if store.lastLimit != tt.wantLimit {
				t.Errorf("candidate limit %d, want %d", store.lastLimit, tt.wantLimit)
			}
		})
	}
}

func TestRetrieve_ErrorTaxonomy(t *testing.T) {
	t.Parallel()

	t.Run("embedding failure", func(t *testing.T) {
		t.Parallel()
		r, _ := NewRetriever(&fakeEmbedder{err: fmt.Errorf("quota exceeded")}, &fakeStore{})
		_, err := r.Retrieve(context.Background(), "c", "q", nil, 3)
		if !errors.Is(err, ErrEmbedding) {
			t.Errorf("expected ErrEmbedding, got %v", err)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{queryErr: fmt.Errorf("connection refused")}
		r, _ := NewRetriever(&fakeEmbedder{vector: []float32{0.1}}, store)
		_, err := r.Retrieve(context.Background(), "c", "q", nil, 3)
		if !errors.Is(err, ErrRetrieval) {
			t.Errorf("expected ErrRetrieval, got %v", err)
		}
	})
}
