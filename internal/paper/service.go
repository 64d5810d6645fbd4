package paper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shiksha-ai/shiksha-go/internal/docstore"
	"github.com/shiksha-ai/shiksha-go/internal/logging"
	"github.com/shiksha-ai/shiksha-go/internal/provider"
	"github.com/shiksha-ai/shiksha-go/internal/rag"
)

// ErrNoContent is returned when retrieval finds nothing for the requested
// topic or page range, so there is no material to write questions from.
var ErrNoContent = errors.New("paper: no relevant content found for the given requirements")

// StoreCollection is the docstore collection that holds generated papers.
const StoreCollection = "questionpaper"

// idPrefix is the document ID prefix for generated papers.
const idPrefix = "paper"

// Question is one exam question.
type Question struct {
	No         int    `json:"question_no,omitempty"`
	Text       string `json:"question"`
	Marks      int    `json:"marks"`
	Difficulty string `json:"difficulty"`
	Topic      string `json:"topic"`
}

// Paper is a generated question paper.
type Paper struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Collection   string     `json:"collection_name"`
	TotalMarks   int        `json:"total_marks"`
	Difficulty   string     `json:"difficulty"`
	Instructions string     `json:"instructions"`
	Questions    []Question `json:"questions"`
}

// Response is the stored and returned form of a generation run.
type Response struct {
	PaperID    string       `json:"question_paper_id"`
	Collection string       `json:"collection_name"`
	Paper      Paper        `json:"question_paper"`
	Sources    []rag.Source `json:"sources"`
}

// difficultyDescriptions maps a difficulty tier to the phrasing used in the
// generation instruction.
var difficultyDescriptions = map[string]string{
	"easy":   "simple, straightforward questions that test basic understanding",
	"medium": "moderate difficulty questions that require some analysis",
	"hard":   "challenging questions that require deep understanding and critical thinking",
}

// Service generates, persists, and serves question papers.
type Service struct {
	retriever *rag.Retriever
	assembler *rag.Assembler
	generator provider.Generator
	store     docstore.Store
}

// NewService constructs a paper Service.
func NewService(retriever *rag.Retriever, assembler *rag.Assembler, generator provider.Generator, store docstore.Store) *Service {
	return &Service{
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		store:     store,
	}
}

// Generate builds a question paper for the prompt against the named
// collection and persists it under a sequential paper-N document ID.
func (s *Service) Generate(ctx context.Context, collection, userPrompt, paperType string) (*Response, error) {
	log := logging.FromContext(ctx)

	req := ParseRequirements(userPrompt)
	if paperType != "" {
		req.Difficulty = paperType
	}

	hits, err := s.retriever.Retrieve(ctx, collection, userPrompt, req.PageRange, 0)
	if err != nil {
		// A vendor outage looks the same to the caller as an empty
		// collection: there is nothing to write questions from.
		log.Warn("retrieval failed, treating as no content", slog.String("error", err.Error()))
		hits = nil
	}
	if len(hits) == 0 {
		return nil, ErrNoContent
	}

	content, sources := s.assembler.Assemble(hits)
	allocation := Allocate(req.TotalMarks, req.Distribution)

	questions := s.generateQuestions(ctx, content, req, allocation)
	for i := range questions {
		questions[i].No = i + 1
	}

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		PaperID:    id,
		Collection: collection,
		Paper: Paper{
			ID:           id,
			Title:        fmt.Sprintf("Question Paper - %d Marks", req.TotalMarks),
			Collection:   collection,
			TotalMarks:   req.TotalMarks,
			Difficulty:   req.Difficulty,
			Instructions: "Answer all questions. All questions are compulsory.",
			Questions:    questions,
		},
		Sources: sources,
	}

	if err := s.store.Put(ctx, StoreCollection, id, resp); err != nil {
		return nil, fmt.Errorf("paper: persist %s: %w", id, err)
	}

	log.Info("question paper generated",
		slog.String("paper_id", id),
		slog.String("collection", collection),
		slog.Int("questions", len(questions)),
		slog.Int("total_marks", req.TotalMarks),
	)

	return resp, nil
}

// Get fetches a stored paper by document ID.
func (s *Service) Get(ctx context.Context, id string) (*Response, error) {
	var resp Response
	if err := s.store.Get(ctx, StoreCollection, id, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns the document IDs of all stored papers.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.store.Keys(ctx, StoreCollection)
}

// generateQuestions asks the model for questions matching the allocation and
// falls back to deterministic placeholders when the response is unusable.
func (s *Service) generateQuestions(ctx context.Context, content string, req Requirements, allocation []Allocation) []Question {
	log := logging.FromContext(ctx)

	var needed []string
	for _, a := range allocation {
		for range a.Count {
			needed = append(needed, fmt.Sprintf("%d marks", a.Marks))
		}
	}

	difficulty := difficultyDescriptions[req.Difficulty]
	if difficulty == "" {
		difficulty = difficultyDescriptions["medium"]
	}

	instruction := fmt.Sprintf(`You are an expert teacher creating exam questions.
Generate %s.
Requirements:
- Generate questions for: %s
- Each question should be clear and specific
- Questions should test different aspects of the content
- Return ONLY a valid JSON array with this exact structure:
[
    {
        "question": "Question text here?",
        "marks": 2,
        "difficulty": "easy/medium/hard",
        "topic": "relevant topic"
    }
]`, difficulty, strings.Join(needed, ", "))

	prompt := fmt.Sprintf(`Based on the following content, create exam questions:

Content:
%s

Generate exactly these questions:
%s

Return only the JSON array, no other text.`, content, strings.Join(needed, ", "))

	resp, err := s.generator.Generate(ctx, instruction, prompt)
	if err == nil {
		if questions := ExtractQuestions(resp); len(questions) > 0 {
			return questions
		}
		log.Warn("model response had no parseable question array, using fallback")
	} else {
		log.Warn("question generation failed, using fallback", slog.String("error", err.Error()))
	}

	return fallbackQuestions(req, allocation)
}

// fallbackQuestions produces one placeholder question per allocated slot so
// the paper structure survives a model outage.
func fallbackQuestions(req Requirements, allocation []Allocation) []Question {
	topic := req.Topic
	if topic == "" {
		topic = "General"
	}

	var out []Question
	n := 1
	for _, a := range allocation {
		for range a.Count {
			out = append(out, Question{
				Text:       fmt.Sprintf("Q%d (%d marks): Explain key concepts from the given content.", n, a.Marks),
				Marks:      a.Marks,
				Difficulty: req.Difficulty,
				Topic:      topic,
			})
			n++
		}
	}
	return out
}

// nextID returns the next sequential paper document ID (paper-1, paper-2, ...).
func (s *Service) nextID(ctx context.Context) (string, error) {
	keys, err := s.store.Keys(ctx, StoreCollection)
	if err != nil {
		return "", fmt.Errorf("paper: list existing papers: %w", err)
	}

	maxIndex := 0
	for _, k := range keys {
		rest, ok := strings.CutPrefix(k, idPrefix+"-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > maxIndex {
			maxIndex = n
		}
	}
	return fmt.Sprintf("%s-%d", idPrefix, maxIndex+1), nil
}
