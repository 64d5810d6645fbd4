// Command shiksha is the entry point for the shiksha educational RAG backend.
// It provides a CLI interface (via Cobra) and an HTTP server exposing
// textbook chat, question-paper generation, answer-sheet correction,
// attendance, and the student leaderboard.
package main

import (
	"fmt"
	"os"

	"github.com/shiksha-ai/shiksha-go/cmd/shiksha/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
