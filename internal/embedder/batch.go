package embedder

import (
	"context"
	"log/slog"

	"github.com/shiksha-ai/shiksha-go/internal/rag"
)

// BatchSize is the maximum number of texts sent to the backend per request.
// Embedding APIs cap the batch size around this value.
const BatchSize = 100

// BatchEmbed embeds texts in batches of at most BatchSize. A failed batch
// does not abort the run: its entries come back as nil vectors and the error
// is logged, so one bad batch loses at most BatchSize chunks rather than the
// whole document. The returned slice is parallel to the input.
func BatchEmbed(ctx context.Context, e rag.Embedder, texts []string, mode rag.EmbedMode, log *slog.Logger) [][]float32 {
	embeddings := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += BatchSize {
		end := min(start+BatchSize, len(texts))
		batch := texts[start:end]

		vectors, err := e.Embed(ctx, batch, mode)
		if err != nil {
			log.Warn("embedding batch failed, skipping",
				slog.Int("batch_start", start),
				slog.Int("batch_size", len(batch)),
				slog.String("error", err.Error()),
			)
			embeddings = append(embeddings, make([][]float32, len(batch))...)
			continue
		}
		embeddings = append(embeddings, vectors...)
	}

	return embeddings
}
