package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shiksha-ai/shiksha-go/internal/logging"
	"github.com/shiksha-ai/shiksha-go/internal/paper"
	"github.com/shiksha-ai/shiksha-go/internal/provider"
)

// NewPaperCmd constructs the `shiksha paper` command, which generates a
// question paper from the command line and prints it as JSON.
func NewPaperCmd() *cobra.Command {
	var collection string
	var paperType string

	cmd := &cobra.Command{
		Use:   "paper [requirements]",
		Short: "Generate a question paper from an ingested textbook",
		Long: `Generate a question paper from textbook content.

The requirements prompt controls total marks, mark distribution, topic,
difficulty, and page range. The generated paper is stored and printed as
JSON, including its document ID for later correction runs.

Examples:
  shiksha paper -c Class_10_Science "20 marks paper on photosynthesis"
  shiksha paper -c Class_10_Science -t hard "40 marks with 2 and 5 marks questions from page 10 to 60"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if collection == "" {
				return fmt.Errorf("paper: --collection is required")
			}

			generator, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("paper: failed to initialise model provider: %w", err)
			}

			ret, closeRetrieval, err := buildRetrieval(ctx, log)
			if err != nil {
				return fmt.Errorf("paper: %w", err)
			}
			defer closeRetrieval()

			docs, err := buildDocstore(log)
			if err != nil {
				return fmt.Errorf("paper: %w", err)
			}
			defer func() { _ = docs.Close() }()

			svc := paper.NewService(ret.Retriever, ret.Assembler, generator, docs)

			resp, err := svc.Generate(ctx, collection, args[0], paperType)
			if err != nil {
				return fmt.Errorf("paper: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("paper: encode: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Textbook collection to draw content from (required)")
	cmd.Flags().StringVarP(&paperType, "type", "t", "", "Difficulty override: easy, medium, or hard")

	return cmd
}
