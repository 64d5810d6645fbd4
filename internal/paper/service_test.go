package paper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shiksha-ai/shiksha-go/internal/docstore"
	"github.com/shiksha-ai/shiksha-go/internal/rag"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string, _ rag.EmbedMode) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1}
	}
	return vectors, nil
}

type stubStore struct {
	rag.VectorStore

	hits []rag.Hit
}

func (s *stubStore) Ensure(context.Context, string) error { return nil }

func (s *stubStore) Query(_ context.Context, _ string, _ []float32, limit int, pageGTE *int) ([]rag.Hit, error) {
	out := s.hits
	if pageGTE != nil {
		var kept []rag.Hit
		for _, h := range out {
			if h.PageNo >= *pageGTE {
				kept = append(kept, h)
			}
		}
		out = kept
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubGenerator struct {
	response string
	err      error
}

func (s *stubGenerator) Generate(context.Context, string, string) (string, error) {
	return s.response, s.err
}

func newTestService(t *testing.T, hits []rag.Hit, gen *stubGenerator) *Service {
	t.Helper()
	ds, err := docstore.Open(":memory:")
	if err != nil {
		t.Fatalf("open docstore: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	retriever, err := rag.NewRetriever(stubEmbedder{}, &stubStore{hits: hits})
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}
	return NewService(retriever, rag.NewAssembler(0), gen, ds)
}

func TestGeneratePersistsSequentialIDs(t *testing.T) {
	t.Parallel()

	hits := []rag.Hit{{PageNo: 2, Text: "Plants make food by photosynthesis."}}
	gen := &stubGenerator{response: `[{"question": "Define photosynthesis.", "marks": 2, "difficulty": "easy", "topic": "plants"}]`}
	svc := newTestService(t, hits, gen)
	ctx := context.Background()

	first, err := svc.Generate(ctx, "biology", "20 marks paper on photosynthesis", "easy")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.PaperID != "paper-1" {
		t.Errorf("first paper id = %s, want paper-1", first.PaperID)
	}
	if first.Paper.ID != first.PaperID {
		t.Errorf("paper id %s should match response id %s", first.Paper.ID, first.PaperID)
	}
	if first.Paper.Difficulty != "easy" {
		t.Errorf("difficulty = %s, want easy", first.Paper.Difficulty)
	}
	if len(first.Paper.Questions) != 1 || first.Paper.Questions[0].No != 1 {
		t.Errorf("questions = %+v, want one numbered question", first.Paper.Questions)
	}
	if len(first.Sources) != 1 || first.Sources[0].PageNo != 2 {
		t.Errorf("sources = %+v", first.Sources)
	}

	second, err := svc.Generate(ctx, "biology", "20 marks paper", "medium")
	if err != nil {
		t.Fatalf("generate second: %v", err)
	}
	if second.PaperID != "paper-2" {
		t.Errorf("second paper id = %s, want paper-2", second.PaperID)
	}

	ids, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("list = %v, want 2 papers", ids)
	}

	got, err := svc.Get(ctx, "paper-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PaperID != "paper-1" {
		t.Errorf("fetched paper id = %s", got.PaperID)
	}
}

func TestGenerateNoContent(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil, &stubGenerator{})
	_, err := svc.Generate(context.Background(), "biology", "20 marks paper", "medium")
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("want ErrNoContent, got %v", err)
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string, rag.EmbedMode) ([][]float32, error) {
	return nil, fmt.Errorf("quota exceeded")
}

func TestGenerateRetrievalFailureIsNoContent(t *testing.T) {
	t.Parallel()

	ds, err := docstore.Open(":memory:")
	if err != nil {
		t.Fatalf("open docstore: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	retriever, err := rag.NewRetriever(failingEmbedder{}, &stubStore{})
	if err != nil {
		t.Fatalf("NewRetriever: %v", err)
	}
	svc := NewService(retriever, rag.NewAssembler(0), &stubGenerator{}, ds)

	_, err = svc.Generate(context.Background(), "biology", "20 marks paper", "medium")
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("embedding outage should read as no content, got %v", err)
	}
}

func TestGenerateFallsBackOnModelFailure(t *testing.T) {
	t.Parallel()

	hits := []rag.Hit{{PageNo: 1, Text: "Some content."}}
	gen := &stubGenerator{err: fmt.Errorf("quota exceeded")}
	svc := newTestService(t, hits, gen)

	resp, err := svc.Generate(context.Background(), "biology", "20 marks paper", "medium")
	if err != nil {
		t.Fatalf("generate should fall back, got %v", err)
	}
	// Default 20-mark allocation is 3x2 + 3x3 + 1x5 = 7 questions.
	if len(resp.Paper.Questions) != 7 {
		t.Errorf("fallback questions = %d, want 7", len(resp.Paper.Questions))
	}
	for i, q := range resp.Paper.Questions {
		if q.No != i+1 {
			t.Errorf("question %d numbered %d", i, q.No)
		}
	}
}

func TestGetMissingPaper(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, nil, &stubGenerator{})
	_, err := svc.Get(context.Background(), "paper-42")
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("want docstore.ErrNotFound, got %v", err)
	}
}
