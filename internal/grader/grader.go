// Package grader corrects scanned handwritten answer sheets against a stored
// question paper. Each sheet is OCRed, the per-question answers are merged,
// and the model grades them as an examiner with textbook context retrieved
// for the student's own answers.
package grader

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shiksha-ai/shiksha-go/internal/docstore"
	"github.com/shiksha-ai/shiksha-go/internal/logging"
	"github.com/shiksha-ai/shiksha-go/internal/ocr"
	"github.com/shiksha-ai/shiksha-go/internal/paper"
	"github.com/shiksha-ai/shiksha-go/internal/provider"
	"github.com/shiksha-ai/shiksha-go/internal/rag"
)

// StoreCollection is the docstore collection that holds graded results.
const StoreCollection = "studentmarks"

// ragTopK is the number of textbook chunks retrieved for the examiner context.
const ragTopK = 15

// strictness maps a correction tier to the examiner's marking stance.
var strictness = map[string]string{
	"easy":   "Be lenient and focus on basic coverage of points.",
	"medium": "Score with typical marking scheme for Indian board exams.",
	"hard":   "Mark strictly, expect in-depth, precise, textbook-aligned answers.",
}

// QuestionResult is the graded outcome for a single question.
type QuestionResult struct {
	QuestionNo    string `json:"question_no"`
	Question      string `json:"question"`
	Marks         int    `json:"marks"`
	Source        string `json:"source,omitempty"`
	Remarks       string `json:"remarks"`
	StudentAnswer string `json:"studentanswer"`
}

// Result is a fully graded answer sheet.
type Result struct {
	// TotalMarks is "obtained/max". Questions the model failed to grade
	// contribute zero to obtained but their marks still count toward max.
	TotalMarks string           `json:"totalmarks"`
	Questions  []QuestionResult `json:"eachquestion_marks"`
	StudentID  string           `json:"studentid"`
	PaperID    string           `json:"question_paper_id"`
	Subject    string           `json:"subject"`
}

// PaperGetter fetches a stored question paper by document ID.
type PaperGetter interface {
	Get(ctx context.Context, id string) (*paper.Response, error)
}

// Service grades answer sheets.
type Service struct {
	engine    ocr.Engine
	retriever *rag.Retriever
	generator provider.Generator
	papers    PaperGetter
	store     docstore.Store
}

// NewService constructs a grader Service.
func NewService(engine ocr.Engine, retriever *rag.Retriever, generator provider.Generator, papers PaperGetter, store docstore.Store) *Service {
	return &Service{
		engine:    engine,
		retriever: retriever,
		generator: generator,
		papers:    papers,
		store:     store,
	}
}

// MergeAnswers folds per-sheet answer maps into one. Sheets are applied in
// upload order and a later sheet overwrites an earlier one on the same
// question number, so a re-scanned page wins.
func MergeAnswers(sheets []map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, sheet := range sheets {
		for q, a := range sheet {
			merged[q] = a
		}
	}
	return merged
}

// Grade OCRs the images, merges the answers, and grades them against the
// stored question paper. The result is persisted under studentid-<id> so a
// re-correction replaces the previous one.
func (s *Service) Grade(ctx context.Context, images [][]byte, studentID, paperID, subject, collection, correctionType string) (*Result, error) {
	log := logging.FromContext(ctx)

	sheets := make([]map[string]string, 0, len(images))
	for i, img := range images {
		text, err := s.engine.Recognize(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("grader: ocr image %d: %w", i, err)
		}
		sheets = append(sheets, ocr.ParseAnswers(text))
	}
	merged := MergeAnswers(sheets)

	qp, err := s.papers.Get(ctx, paperID)
	if err != nil {
		return nil, err
	}

	graded := s.gradeAnswers(ctx, merged, qp, collection, correctionType)

	maxTotal := 0
	for _, q := range qp.Paper.Questions {
		maxTotal += q.Marks
	}
	obtained := 0
	for _, g := range graded {
		obtained += g.Marks
	}

	result := &Result{
		TotalMarks: fmt.Sprintf("%d/%d", obtained, maxTotal),
		Questions:  graded,
		StudentID:  studentID,
		PaperID:    paperID,
		Subject:    subject,
	}

	key := "studentid-" + studentID
	if err := s.store.Put(ctx, StoreCollection, key, result); err != nil {
		return nil, fmt.Errorf("grader: persist %s: %w", key, err)
	}

	log.Info("answer sheet graded",
		slog.String("student_id", studentID),
		slog.String("paper_id", paperID),
		slog.String("total", result.TotalMarks),
	)

	return result, nil
}

// llmEntry is the examiner model's per-question output. Question numbers and
// marks arrive with inconsistent types, so both are decoded loosely.
type llmEntry struct {
	QuestionNo json.RawMessage `json:"question_no"`
	Question   string          `json:"question"`
	Marks      float64         `json:"marks"`
	Source     string          `json:"source"`
	Remarks    string          `json:"remarks"`
}

var arrayRe = regexp.MustCompile(`(?s)(\[.+\])`)

// gradeAnswers asks the model to grade the merged answers. A failed call or
// unparseable response yields no graded entries, which the caller scores as
// zero obtained marks.
func (s *Service) gradeAnswers(ctx context.Context, merged map[string]string, qp *paper.Response, collection, correctionType string) []QuestionResult {
	log := logging.FromContext(ctx)

	mergedText := formatAnswers(merged)

	// The student's own answers are the retrieval query: the grading context
	// should cover what the student wrote about, not just the questions.
	var contextBlock string
	hits, err := s.retriever.Retrieve(ctx, collection, mergedText, nil, ragTopK)
	if err != nil {
		log.Warn("grading context retrieval failed", slog.String("error", err.Error()))
	} else {
		blocks := make([]string, len(hits))
		for i, h := range hits {
			blocks[i] = fmt.Sprintf("(Page %d): %s", h.PageNo, h.Text)
		}
		contextBlock = strings.Join(blocks, "\n")
	}

	questionLines := make([]string, len(qp.Paper.Questions))
	for i, q := range qp.Paper.Questions {
		questionLines[i] = fmt.Sprintf("%d. %s [Max: %d marks]", q.No, q.Text, q.Marks)
	}

	stance := strictness[correctionType]
	if stance == "" {
		stance = strictness["medium"]
	}

	instruction := fmt.Sprintf(`You are a senior examiner. %s
Given the question paper, student's recognized answers, and the relevant textbook context, evaluate each answer, assign marks, give a brief justification, and produce short remarks for each answer.
Respond as a JSON array:
[
  {
    "question_no": ...,
    "question": "...",
    "marks": ...,
    "source": "...",
    "remarks": "..."
  }, ...
]`, stance)

	prompt := fmt.Sprintf(`QUESTION PAPER (listing all questions):
%s

STUDENT'S ANSWERS (from OCR):
%s

RELEVANT TEXTBOOK CONTEXT:
%s

For each question, evaluate and return marks, context, and remarks as a JSON array as detailed above.`,
		strings.Join(questionLines, "\n"), mergedText, contextBlock)

	var entries []llmEntry
	resp, err := s.generator.Generate(ctx, instruction, prompt)
	if err != nil {
		log.Warn("examiner model call failed, scoring zero", slog.String("error", err.Error()))
	} else if m := arrayRe.FindStringSubmatch(resp); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &entries); err != nil {
			log.Warn("examiner output not parseable, scoring zero", slog.String("error", err.Error()))
			entries = nil
		}
	} else {
		log.Warn("examiner output had no JSON array, scoring zero")
	}

	// Backfill question text and the student's own answer where the model
	// left them out.
	byNo := make(map[string]string, len(qp.Paper.Questions))
	for _, q := range qp.Paper.Questions {
		byNo[strconv.Itoa(q.No)] = q.Text
	}

	out := make([]QuestionResult, 0, len(entries))
	for _, e := range entries {
		no := rawToString(e.QuestionNo)
		question := e.Question
		if question == "" {
			question = byNo[no]
		}
		out = append(out, QuestionResult{
			QuestionNo:    no,
			Question:      question,
			Marks:         int(math.Round(e.Marks)),
			Source:        e.Source,
			Remarks:       e.Remarks,
			StudentAnswer: merged[no],
		})
	}
	return out
}

// formatAnswers renders merged answers as "Q<no>: <answer>" lines in
// ascending question order, so prompts are deterministic.
func formatAnswers(merged map[string]string) string {
	nos := make([]string, 0, len(merged))
	for q := range merged {
		nos = append(nos, q)
	}
	sort.Slice(nos, func(i, j int) bool {
		a, errA := strconv.Atoi(nos[i])
		b, errB := strconv.Atoi(nos[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return nos[i] < nos[j]
	})

	lines := make([]string, len(nos))
	for i, q := range nos {
		lines[i] = fmt.Sprintf("Q%s: %s", q, merged[q])
	}
	return strings.Join(lines, "\n")
}

// rawToString renders a loosely-typed JSON value ("3", 3, 3.0) as a plain string.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.Itoa(int(f))
	}
	return strings.Trim(string(raw), `"`)
}
