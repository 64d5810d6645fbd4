package ingestion

import (
	"context"
	"strings"
	"testing"

	"github.com/shiksha-ai/shiksha-go/internal/pdf"
	"github.com/shiksha-ai/shiksha-go/internal/rag"
)

type fakeEmbedder struct {
	lastMode rag.EmbedMode
	calls    int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string, mode rag.EmbedMode) ([][]float32, error) {
	f.calls++
	f.lastMode = mode
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 2, 3}
	}
	return vectors, nil
}

type fakeStore struct {
	rag.VectorStore

	resets   []string
	upserted map[string][]rag.Chunk
}

func (f *fakeStore) Reset(_ context.Context, collection string) error {
	f.resets = append(f.resets, collection)
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, collection string, chunks []rag.Chunk, _ [][]float32) error {
	if f.upserted == nil {
		f.upserted = make(map[string][]rag.Chunk)
	}
	f.upserted[collection] = chunks
	return nil
}

func TestIngestPages(t *testing.T) {
	t.Parallel()

	emb := &fakeEmbedder{}
	store := &fakeStore{}
	p, err := NewPipeline(emb, store, nil)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	pages := []pdf.Page{
		{No: 1, Text: strings.Repeat("a", 1500)},
		{No: 2, Text: "short page"},
	}

	res, err := p.IngestPages(context.Background(), "biology", pages)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if res.Pages != 2 {
		t.Errorf("pages = %d, want 2", res.Pages)
	}
	if res.Chunks != 3 {
		t.Errorf("chunks = %d, want 3", res.Chunks)
	}
	if res.Embedded != 3 {
		t.Errorf("embedded = %d, want 3", res.Embedded)
	}
	if emb.lastMode != rag.EmbedModeDocument {
		t.Errorf("embed mode = %v, want document", emb.lastMode)
	}
	if len(store.resets) != 1 || store.resets[0] != "biology" {
		t.Errorf("resets = %v, want [biology]", store.resets)
	}
	if got := len(store.upserted["biology"]); got != 3 {
		t.Errorf("upserted chunks = %d, want 3", got)
	}
}

func TestNewPipelineValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewPipeline(nil, &fakeStore{}, nil); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := NewPipeline(&fakeEmbedder{}, nil, nil); err == nil {
		t.Error("expected error for nil store")
	}
}
