package rag

import (
	"context"
	"fmt"
)

const (
	// defaultBudget is the number of hits returned when the caller passes 0.
	defaultBudget = 10

	// overfetchLimit is the candidate count requested from the vector store
	// when a page filter is present. Server-side numeric filtering is partial
	// (lower bound only), so the retriever over-fetches and applies the exact
	// inclusive range client-side. Capped implicitly by collection size.
	overfetchLimit = 1000
)

// Retriever embeds a query and returns the ranked hits for it, applying the
// optional page filter exactly. It is the read path shared by every feature.
type Retriever struct {
	// embedder converts query text to a dense vector (query task mode).
	embedder Embedder

	// store performs the vector similarity search.
	store VectorStore

	// defaultBudget is the result count used when Retrieve is called with 0.
	defaultBudget int
}

// NewRetriever constructs a Retriever from the given Embedder and VectorStore.
func NewRetriever(embedder Embedder, store VectorStore) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	return &Retriever{
		embedder:      embedder,
		store:         store,
		defaultBudget: defaultBudget,
	}, nil
}

// Retrieve returns the ranked hits for query against the named collection,
// truncated to budget (0 selects the default). The collection is created
// lazily, so querying a textbook that was never ingested yields zero hits
// rather than an error.
//
// When filter is non-nil, hits outside [filter.Lower, filter.Upper] are
// discarded while the similarity ranking of the kept hits is preserved
// (stable filter, no re-sort). Ties in score keep the vector store's own
// order — stable but unspecified beyond that, since the store controls it.
//
// Failures are wrapped in ErrEmbedding or ErrRetrieval; callers degrade to
// an empty-hit response instead of failing the request.
func (r *Retriever) Retrieve(ctx context.Context, collection, query string, filter *PageFilter, budget int) ([]Hit, error) {
	if budget <= 0 {
		budget = r.defaultBudget
	}

	if err := r.store.Ensure(ctx, collection); err != nil {
		return nil, fmt.Errorf("%w: ensure %q: %v", ErrRetrieval, collection, err)
	}

	vectors, err := r.embedder.Embed(ctx, []string{query}, EmbedModeQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: embedder returned no vector for query", ErrEmbedding)
	}

	limit := budget
	var pageGTE *int
	if filter != nil {
		limit = overfetchLimit
		pageGTE = &filter.Lower
	}

	hits, err := r.store.Query(ctx, collection, vectors[0], limit, pageGTE)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	if filter != nil {
		kept := hits[:0]
		for _, h := range hits {
			if filter.Contains(h.PageNo) {
				kept = append(kept, h)
			}
		}
		hits = kept
	}

	if len(hits) > budget {
		hits = hits[:budget]
	}

	return hits, nil
}
