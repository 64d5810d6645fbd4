// Package tutor orchestrates the chat-with-textbook flow: extract an optional
// page range from the prompt, retrieve matching chunks, assemble them into a
// context block, and ask the model to answer as a tutor.
package tutor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shiksha-ai/shiksha-go/internal/logging"
	"github.com/shiksha-ai/shiksha-go/internal/provider"
	"github.com/shiksha-ai/shiksha-go/internal/rag"
)

// instruction is the system message for textbook Q&A.
const instruction = "You are a helpful tutor."

// Answer is the result of a chat turn.
type Answer struct {
	// Text is the model's reply.
	Text string `json:"answer"`
	// Sources are the page-tagged excerpts the reply was grounded on.
	Sources []rag.Source `json:"context_with_pages"`
}

// Tutor answers questions against an ingested textbook collection.
type Tutor struct {
	retriever *rag.Retriever
	assembler *rag.Assembler
	generator provider.Generator
	topK      int
}

// New constructs a Tutor. topK caps the number of retrieved chunks; zero
// selects the retriever default.
func New(retriever *rag.Retriever, assembler *rag.Assembler, generator provider.Generator, topK int) *Tutor {
	return &Tutor{
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		topK:      topK,
	}
}

// Ask answers the prompt against the named collection. Retrieval failures do
// not abort the turn: the model is asked with the no-context sentinel instead,
// so a vector store outage degrades to a generic answer rather than a 500.
func (t *Tutor) Ask(ctx context.Context, collection, prompt string) (*Answer, error) {
	log := logging.FromContext(ctx)

	filter := rag.ExtractPageFilter(prompt)
	hits, err := t.retriever.Retrieve(ctx, collection, prompt, filter, t.topK)
	if err != nil {
		log.Warn("retrieval failed, answering without context",
			slog.String("collection", collection),
			slog.String("error", err.Error()),
		)
		hits = nil
	}

	contextBlock, sources := t.assembler.Assemble(hits)

	combined := fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", contextBlock, prompt)
	reply, err := t.generator.Generate(ctx, instruction, combined)
	if err != nil {
		return nil, fmt.Errorf("tutor: generate: %w", err)
	}

	return &Answer{Text: reply, Sources: sources}, nil
}
