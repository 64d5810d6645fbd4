package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shiksha-ai/shiksha-go/internal/logging"
	"github.com/shiksha-ai/shiksha-go/internal/provider"
	"github.com/shiksha-ai/shiksha-go/internal/tutor"
)

// NewAskCmd constructs the `shiksha ask` command, which answers a single
// question grounded in an ingested textbook collection.
func NewAskCmd() *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question against an ingested textbook",
		Long: `Ask a natural language question grounded in a textbook collection.

Mention a page range in the question to restrict retrieval, e.g.
"explain photosynthesis from page 30 to 45".

Examples:
  shiksha ask -c Class_10_Science "what is osmosis?"
  shiksha ask -c Class_10_Science "summarise pages 10 to 25"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if collection == "" {
				return fmt.Errorf("ask: --collection is required")
			}

			generator, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("ask: failed to initialise model provider: %w", err)
			}

			ret, closeRetrieval, err := buildRetrieval(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer closeRetrieval()

			t := tutor.New(ret.Retriever, ret.Assembler, generator, chatTopK)

			ans, err := t.Ask(ctx, collection, args[0])
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			fmt.Println(ans.Text)
			if len(ans.Sources) > 0 {
				fmt.Println("\nSources:")
				for _, src := range ans.Sources {
					fmt.Printf("  (Page %d) %s\n", src.PageNo, src.Excerpt)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Textbook collection to answer from (required)")

	return cmd
}
