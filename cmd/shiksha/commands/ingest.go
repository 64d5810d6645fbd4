package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shiksha-ai/shiksha-go/internal/chunker"
	"github.com/shiksha-ai/shiksha-go/internal/ingestion"
	"github.com/shiksha-ai/shiksha-go/internal/logging"
)

// NewIngestCmd constructs the `shiksha ingest` command, which indexes a
// textbook PDF into the vector store from the command line.
func NewIngestCmd() *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:   "ingest <textbook.pdf>",
		Short: "Ingest a textbook PDF into the vector store",
		Long: `Extract, chunk, embed, and index a textbook PDF.

The collection name defaults to the PDF filename with spaces replaced by
underscores (e.g. "Class 10 Science.pdf" becomes "Class_10_Science").
Re-ingesting a collection replaces its previous contents.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  MODEL_PROVIDER       Embedding backend: gemini, openai, ollama (default: gemini)
  EMBEDDING_*          Provider-specific overrides (see README)

Examples:
  shiksha ingest "Class 10 Science.pdf"
  shiksha ingest --collection biology chapter3.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("ingest: failed to read %s: %w", path, err)
			}

			if collection == "" {
				collection = chunker.CollectionName(path)
			}

			ret, closeRetrieval, err := buildRetrieval(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer closeRetrieval()

			pipeline, err := ingestion.NewPipeline(ret.Embedder, ret.Store, nil)
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			log.Info("starting ingestion",
				slog.String("file", path),
				slog.String("collection", collection),
			)

			res, err := pipeline.IngestPDF(ctx, collection, data)
			if err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}

			fmt.Printf("Stored %d chunks in '%s' (%d pages, %d embedded).\n",
				res.Chunks, res.Collection, res.Pages, res.Embedded)
			return nil
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Collection name (default: derived from the PDF filename)")

	return cmd
}
