// Package rag defines the retrieval pipeline shared by every shiksha
// feature: textbook chat, question-paper generation, and answer-sheet
// correction all embed a query, search a named vector collection, and
// assemble the ranked hits into prompt context. Concrete backends (Qdrant,
// Gemini embeddings, etc.) satisfy the interfaces here so the orchestrators
// never depend on a specific vendor.
package rag

import (
	"context"
	"errors"
)

// ErrEmbedding indicates the embedding vendor call failed. Callers degrade
// to an empty-hit response rather than failing the whole request.
var ErrEmbedding = errors.New("rag: embedding failed")

// ErrRetrieval indicates the vector-store call failed. Callers degrade to an
// empty-hit response rather than failing the whole request.
var ErrRetrieval = errors.New("rag: retrieval failed")

// Chunk is a page-tagged contiguous excerpt of source text, the unit of
// embedding and storage. Chunks are immutable once stored; a collection is
// superseded only by a full reset.
type Chunk struct {
	// ID is the unique identifier of the chunk within its collection.
	ID string
	// PageNo is the 1-based source page the chunk was cut from.
	PageNo int
	// Text is the chunk content. Never empty or whitespace-only.
	Text string
}

// Hit is a chunk retrieved for a query, ranked by vector similarity.
type Hit struct {
	// ID is the stored chunk's identifier.
	ID string
	// PageNo is the source page of the retrieved chunk.
	PageNo int
	// Text is the retrieved chunk content.
	Text string
	// Score is the similarity score assigned by the vector store.
	Score float32
}

// PageFilter is an inclusive page-number range constraint on retrieval.
// Lower and Upper are taken verbatim from the query text; an inverted range
// (Lower > Upper) is kept as-is and matches nothing. See ExtractPageFilter.
type PageFilter struct {
	// Lower is the inclusive lower bound.
	Lower int
	// Upper is the inclusive upper bound.
	Upper int
}

// Contains reports whether pageNo falls within the inclusive range.
func (f PageFilter) Contains(pageNo int) bool {
	return pageNo >= f.Lower && pageNo <= f.Upper
}

// EmbedMode selects the embedding task type. Gemini produces different
// vectors for stored documents and for queries; the asymmetry affects
// retrieval quality and must match the write/read path.
type EmbedMode string

const (
	// EmbedModeDocument embeds text for storage in a collection.
	EmbedModeDocument EmbedMode = "document"
	// EmbedModeQuery embeds text for searching a collection.
	EmbedModeQuery EmbedMode = "query"
)

// Embedder converts text into dense vector embeddings. The returned slice is
// parallel to the input. Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error)
}

// VectorStore is the per-named-collection nearest-neighbour store.
// Implementations must be safe for concurrent use.
type VectorStore interface {
	// Ensure creates the named collection if it does not exist. Creating an
	// empty collection is a valid outcome — retrieval then returns no hits.
	Ensure(ctx context.Context, collection string) error

	// Reset deletes and recreates the named collection. Ingestion always
	// resets before bulk-writing, so re-ingesting is idempotent. Concurrent
	// readers may observe a transiently empty collection; no transactional
	// isolation is provided.
	Reset(ctx context.Context, collection string) error

	// Upsert stores chunks with their pre-computed embeddings.
	// embeddings[i] is the vector for chunks[i].
	Upsert(ctx context.Context, collection string, chunks []Chunk, embeddings [][]float32) error

	// Query returns up to limit hits ranked by similarity to vector.
	// When pageGTE is non-nil a server-side page_no >= *pageGTE condition is
	// applied; this is deliberately partial (lower bound only) and callers
	// must still filter exactly — see Retriever.
	Query(ctx context.Context, collection string, vector []float32, limit int, pageGTE *int) ([]Hit, error)

	// Collections lists all collection names in the store.
	Collections(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
