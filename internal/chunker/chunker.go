// Package chunker splits extracted page text into the fixed-size, page-tagged
// chunks that form the unit of embedding and retrieval.
package chunker

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/shiksha-ai/shiksha-go/internal/pdf"
	"github.com/shiksha-ai/shiksha-go/internal/rag"
)

// DefaultChunkSize is the maximum number of bytes per chunk when the caller
// passes 0. Roughly a paragraph or two of textbook prose.
const DefaultChunkSize = 1000

// Split cuts each page's text into consecutive, non-overlapping chunks of at
// most chunkSize bytes, never splitting a UTF-8 rune across two chunks; the
// final chunk of a page may be shorter. Chunks that
// are empty after trimming are dropped — they waste embedding calls and can
// never match a query. Each chunk keeps the page number it came from and
// receives a fresh unique ID.
func Split(pages []pdf.Page, chunkSize int) []rag.Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var chunks []rag.Chunk
	for _, page := range pages {
		text := page.Text
		for i := 0; i < len(text); {
			end := i + chunkSize
			if end >= len(text) {
				end = len(text)
			} else {
				// Never cut inside a multi-byte rune. Kannada and Hindi
				// textbook text is three bytes per character.
				for end > i && !utf8.RuneStart(text[end]) {
					end--
				}
				if end == i {
					end = i + chunkSize
				}
			}
			piece := strings.TrimSpace(text[i:end])
			i = end
			if piece == "" {
				continue
			}
			chunks = append(chunks, rag.Chunk{
				ID:     uuid.NewString(),
				PageNo: page.No,
				Text:   piece,
			})
		}
	}

	return chunks
}

// CollectionName derives the vector-store collection name from an uploaded
// file name: the base name minus its extension, with spaces replaced by
// underscores. "Class 10 Science.pdf" becomes "Class_10_Science".
func CollectionName(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return strings.ReplaceAll(base, " ", "_")
}
