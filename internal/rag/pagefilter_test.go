package rag

import "testing"

func TestExtractPageFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prompt string
		want   *PageFilter
	}{
		{
			name:   "page N to M",
			prompt: "summarize page 3 to 5",
			want:   &PageFilter{Lower: 3, Upper: 5},
		},
		{
			name:   "hyphen separator",
			prompt: "make questions from page 10-25 please",
			want:   &PageFilter{Lower: 10, Upper: 25},
		},
		{
			name:   "plural pages",
			prompt: "explain pages 7 to 9",
			want:   &PageFilter{Lower: 7, Upper: 9},
		},
		{
			name:   "case insensitive",
			prompt: "Page 1 TO 2",
			want:   &PageFilter{Lower: 1, Upper: 2},
		},
		{
			name:   "inverted range preserved verbatim",
			prompt: "page 9 to 3",
			want:   &PageFilter{Lower: 9, Upper: 3},
		},
		{
			name:   "no page mention",
			prompt: "what is photosynthesis?",
			want:   nil,
		},
		{
			name:   "single page is not a range",
			prompt: "what is on page 4?",
			want:   nil,
		},
		{
			name:   "empty prompt",
			prompt: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ExtractPageFilter(tt.prompt)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %+v, want nil", got)
			case tt.want != nil && got == nil:
				t.Errorf("got nil, want %+v", tt.want)
			case tt.want != nil && got != nil && *got != *tt.want:
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPageFilterContains(t *testing.T) {
	t.Parallel()

	f := PageFilter{Lower: 3, Upper: 5}
	for page, want := range map[int]bool{2: false, 3: true, 4: true, 5: true, 6: false} {
		if got := f.Contains(page); got != want {
			t.Errorf("Contains(%d) = %v, want %v", page, got, want)
		}
	}

	inverted := PageFilter{Lower: 9, Upper: 3}
	for _, page := range []int{2, 3, 5, 9, 10} {
		if inverted.Contains(page) {
			t.Errorf("inverted range should match nothing, matched page %d", page)
		}
	}
}
