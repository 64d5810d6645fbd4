package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shiksha-ai/shiksha-go/internal/pdf"
)

func TestSplitSizes(t *testing.T) {
	t.Parallel()

	pages := []pdf.Page{{No: 1, Text: strings.Repeat("a", 2500)}}
	chunks := Split(pages, DefaultChunkSize)

	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	for i, want := range []int{1000, 1000, 500} {
		if got := len(chunks[i].Text); got != want {
			t.Errorf("chunk %d length = %d, want %d", i, got, want)
		}
		if chunks[i].PageNo != 1 {
			t.Errorf("chunk %d page = %d, want 1", i, chunks[i].PageNo)
		}
		if chunks[i].ID == "" {
			t.Errorf("chunk %d missing id", i)
		}
	}
}

func TestSplitRoundTrip(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("b", 1999)
	chunks := Split([]pdf.Page{{No: 4, Text: text}}, DefaultChunkSize)

	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(c.Text)
	}
	if sb.String() != text {
		t.Error("concatenated chunks should reproduce the page text")
	}
}

func TestSplitKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	// Kannada characters are three bytes each; a chunk boundary that is not
	// a multiple of three would land mid-rune with naive byte slicing.
	text := strings.Repeat("ಓದು", 200)
	chunks := Split([]pdf.Page{{No: 7, Text: text}}, 100)

	if len(chunks) < 2 {
		t.Fatalf("chunks = %d, want several", len(chunks))
	}
	var sb strings.Builder
	for i, c := range chunks {
		if !utf8.ValidString(c.Text) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, c.Text)
		}
		if got := len(c.Text); got > 100 {
			t.Errorf("chunk %d length = %d, want <= 100", i, got)
		}
		sb.WriteString(c.Text)
	}
	if sb.String() != text {
		t.Error("concatenated chunks should reproduce the page text")
	}
}

func TestSplitSkipsEmptyPages(t *testing.T) {
	t.Parallel()

	pages := []pdf.Page{
		{No: 1, Text: "   \n\t  "},
		{No: 2, Text: "real content"},
		{No: 3, Text: ""},
	}
	chunks := Split(pages, DefaultChunkSize)
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	if chunks[0].PageNo != 2 {
		t.Errorf("page = %d, want 2", chunks[0].PageNo)
	}
}

func TestSplitDistinctIDs(t *testing.T) {
	t.Parallel()

	chunks := Split([]pdf.Page{{No: 1, Text: strings.Repeat("c", 3000)}}, DefaultChunkSize)
	seen := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		if seen[c.ID] {
			t.Fatalf("duplicate chunk id %s", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestCollectionName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"biology.pdf", "biology"},
		{"Class 10 Science.pdf", "Class_10_Science"},
		{"/tmp/uploads/physics vol 2.pdf", "physics_vol_2"},
		{"notes", "notes"},
	}
	for _, tt := range tests {
		if got := CollectionName(tt.in); got != tt.want {
			t.Errorf("CollectionName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
