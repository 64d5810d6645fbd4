package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shiksha-ai/shiksha-go/internal/leaderboard"
	"github.com/shiksha-ai/shiksha-go/internal/logging"
)

// NewSeedLeaderboardCmd constructs the `shiksha seed-leaderboard` command,
// which populates the leaderboard with a synthetic class of students.
func NewSeedLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-leaderboard",
		Short: "Seed the student leaderboard with synthetic data",
		Long: `Generate a synthetic class of students with correlated subject marks,
grade-tiered feedback, and ranks, and store it in the document store.

Re-running replaces the existing entries for the seeded student IDs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			docs, err := buildDocstore(log)
			if err != nil {
				return fmt.Errorf("seed-leaderboard: %w", err)
			}
			defer func() { _ = docs.Close() }()

			students, err := leaderboard.NewService(docs).Seed(ctx)
			if err != nil {
				return fmt.Errorf("seed-leaderboard: %w", err)
			}

			fmt.Printf("Seeded %d students.\n\n", len(students))
			fmt.Printf("%-5s %-20s %-12s %7s\n", "Rank", "Name", "ID", "Percent")
			for _, s := range students {
				fmt.Printf("%-5d %-20s %-12s %6.1f%%\n", s.Rank, s.Name, s.ID, s.Percentage)
			}
			return nil
		},
	}
}
