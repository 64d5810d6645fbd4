// Package ingestion implements the textbook ingestion pipeline.
// It extracts text from an uploaded PDF page by page, chunks the content,
// embeds each chunk, and replaces the book's vector collection with the
// result. The pipeline is invoked by the upload endpoint and the
// `shiksha ingest` CLI command.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shiksha-ai/shiksha-go/internal/chunker"
	"github.com/shiksha-ai/shiksha-go/internal/embedder"
	"github.com/shiksha-ai/shiksha-go/internal/logging"
	"github.com/shiksha-ai/shiksha-go/internal/pdf"
	"github.com/shiksha-ai/shiksha-go/internal/rag"
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum number of characters per chunk.
	// Defaults to chunker.DefaultChunkSize if zero.
	ChunkSize int
}

// Result summarizes a completed ingestion run.
type Result struct {
	// Collection is the vector collection the book was ingested into.
	Collection string `json:"collection"`
	// Pages is the number of pages extracted from the PDF.
	Pages int `json:"pages"`
	// Chunks is the number of chunks produced and upserted.
	Chunks int `json:"chunks"`
	// Embedded is the number of chunks that received a vector. Chunks from
	// failed embedding batches are dropped, so this can be below Chunks.
	Embedded int `json:"embedded"`
}

// Pipeline orchestrates the extract → chunk → embed → upsert flow for
// uploaded textbooks.
type Pipeline struct {
	// embedder converts text chunks into dense vector embeddings.
	embedder rag.Embedder

	// store persists the embedded chunks.
	store rag.VectorStore

	// cfg holds the resolved pipeline configuration.
	cfg *Config
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(emb rag.Embedder, store rag.VectorStore, cfg *Config) (*Pipeline, error) {
	if emb == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = chunker.DefaultChunkSize
	}
	return &Pipeline{embedder: emb, store: store, cfg: cfg}, nil
}

// IngestPDF extracts the pages of a PDF document and ingests them into the
// named collection.
func (p *Pipeline) IngestPDF(ctx context.Context, collection string, data []byte) (*Result, error) {
	pages, err := pdf.ExtractPagesBytes(data)
	if err != nil {
		return nil, fmt.Errorf("ingestion: extract %s: %w", collection, err)
	}
	return p.IngestPages(ctx, collection, pages)
}

// IngestPages ingests already-extracted pages into the named collection.
// Re-ingesting an existing collection replaces its contents entirely, so
// uploading a corrected edition of a book does not leave stale chunks behind.
func (p *Pipeline) IngestPages(ctx context.Context, collection string, pages []pdf.Page) (*Result, error) {
	log := logging.FromContext(ctx)

	chunks := chunker.Split(pages, p.cfg.ChunkSize)
	log.Info("document chunked",
		slog.String("collection", collection),
		slog.Int("pages", len(pages)),
		slog.Int("chunks", len(chunks)),
	)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings := embedder.BatchEmbed(ctx, p.embedder, texts, rag.EmbedModeDocument, log)

	if err := p.store.Reset(ctx, collection); err != nil {
		return nil, fmt.Errorf("ingestion: reset collection %s: %w", collection, err)
	}
	if err := p.store.Upsert(ctx, collection, chunks, embeddings); err != nil {
		return nil, fmt.Errorf("ingestion: upsert %s: %w", collection, err)
	}

	embedded := 0
	for _, v := range embeddings {
		if len(v) > 0 {
			embedded++
		}
	}

	log.Info("document ingested",
		slog.String("collection", collection),
		slog.Int("chunks", len(chunks)),
		slog.Int("embedded", embedded),
	)

	return &Result{
		Collection: collection,
		Pages:      len(pages),
		Chunks:     len(chunks),
		Embedded:   embedded,
	}, nil
}
