package embedder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/shiksha-ai/shiksha-go/internal/rag"
)

// flakyEmbedder fails every batch whose first text starts with "bad".
type flakyEmbedder struct {
	calls     int
	lastModes []rag.EmbedMode
}

func (f *flakyEmbedder) Embed(_ context.Context, texts []string, mode rag.EmbedMode) ([][]float32, error) {
	f.calls++
	f.lastModes = append(f.lastModes, mode)
	if len(texts) > 0 && strings.HasPrefix(texts[0], "bad") {
		return nil, fmt.Errorf("backend unavailable")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i)}
	}
	return vectors, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBatchEmbedSplitsBatches(t *testing.T) {
	t.Parallel()

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "chunk " + strconv.Itoa(i)
	}

	f := &flakyEmbedder{}
	got := BatchEmbed(context.Background(), f, texts, rag.EmbedModeDocument, discard())

	if f.calls != 3 {
		t.Errorf("calls = %d, want 3", f.calls)
	}
	if len(got) != len(texts) {
		t.Errorf("embeddings = %d, want %d", len(got), len(texts))
	}
	for _, mode := range f.lastModes {
		if mode != rag.EmbedModeDocument {
			t.Errorf("mode = %v, want document", mode)
		}
	}
}

func TestBatchEmbedIsolatesFailures(t *testing.T) {
	t.Parallel()

	// 150 texts: the second batch (index 100..149) starts with "bad" and fails.
	texts := make([]string, 150)
	for i := range texts {
		texts[i] = "chunk " + strconv.Itoa(i)
	}
	texts[100] = "bad chunk"

	f := &flakyEmbedder{}
	got := BatchEmbed(context.Background(), f, texts, rag.EmbedModeDocument, discard())

	if len(got) != 150 {
		t.Fatalf("embeddings = %d, want 150", len(got))
	}
	if got[0] == nil || got[99] == nil {
		t.Error("first batch should have vectors")
	}
	for i := 100; i < 150; i++ {
		if got[i] != nil {
			t.Fatalf("entry %d from the failed batch should be nil", i)
		}
	}
}

func TestBatchEmbedEmpty(t *testing.T) {
	t.Parallel()

	f := &flakyEmbedder{}
	got := BatchEmbed(context.Background(), f, nil, rag.EmbedModeDocument, discard())
	if len(got) != 0 {
		t.Errorf("embeddings = %d, want 0", len(got))
	}
	if f.calls != 0 {
		t.Errorf("calls = %d, want 0", f.calls)
	}
}
