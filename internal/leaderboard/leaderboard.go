// Package leaderboard maintains a synthetic class leaderboard: seeded student
// records with subject-correlated marks and grade-tiered feedback, ranked by
// percentage and backed by the document store.
package leaderboard

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/shiksha-ai/shiksha-go/internal/docstore"
)

// StoreCollection is the docstore collection that holds leaderboard records.
const StoreCollection = "student_leaderboard"

// Subjects lists the graded subjects in marks order.
var Subjects = []string{"maths", "science", "social", "english", "kannada"}

// seedNames are the synthetic roster names.
var seedNames = []string{
	"Arjun Sharma", "Priya Patel", "Rahul Kumar", "Sneha Reddy",
	"Aditya Singh", "Kavya Nair", "Rohan Gupta", "Ananya Iyer",
	"Vikram Joshi", "Meera Agarwal",
}

// spreads is the per-subject deviation from a student's base performance,
// aligned with Subjects. Nearer subjects correlate more tightly.
var spreads = []int{15, 12, 10, 8, 10}

// feedbackTemplates holds grade-tiered feedback lines per subject.
var feedbackTemplates = map[string]map[string][]string{
	"maths": {
		"excellent": {"Outstanding problem-solving skills", "Exceptional mathematical reasoning"},
		"good":      {"Good grasp of concepts", "Neat calculations", "Well-structured solutions"},
		"average":   {"Need to practice more word problems", "Focus on formula memorization", "Improve calculation speed"},
		"poor":      {"Requires basic concept revision", "Practice multiplication tables", "Seek extra help for geometry"},
	},
	"science": {
		"excellent": {"Excellent understanding of scientific concepts", "Great practical knowledge"},
		"good":      {"Good theoretical knowledge", "Clear diagram representations", "Well-explained answers"},
		"average":   {"Need to focus on practical applications", "Improve diagram labeling", "Study environmental science more"},
		"poor":      {"Revise basic scientific principles", "Practice more experiments", "Focus on physics formulas"},
	},
	"social": {
		"excellent": {"Exceptional knowledge of history and geography", "Great analytical skills"},
		"good":      {"Good understanding of civics", "Well-structured answers", "Good map reading skills"},
		"average":   {"Need to improve essay writing", "Focus on current affairs", "Practice more map work"},
		"poor":      {"Revise Indian history thoroughly", "Improve handwriting for long answers", "Study constitution basics"},
	},
	"english": {
		"excellent": {"Excellent vocabulary and grammar", "Outstanding creative writing"},
		"good":      {"Good comprehension skills", "Clear expression of ideas", "Good vocabulary usage"},
		"average":   {"Need to focus on grammar", "Improve handwriting", "Practice more essay writing"},
		"poor":      {"Basic grammar revision needed", "Focus on spelling mistakes", "Read more stories for comprehension"},
	},
	"kannada": {
		"excellent": {"ಅತ್ಯುತ್ತಮ ಭಾಷಾ ಪ್ರಾವೀಣ್ಯತೆ", "Excellent language proficiency"},
		"good":      {"Good understanding of Kannada literature", "Clear handwriting in Kannada", "Good translation skills"},
		"average":   {"Need to practice Kannada writing", "Focus on grammar rules", "Improve vocabulary"},
		"poor":      {"Basic Kannada grammar revision needed", "Practice more letter writing", "Focus on prose comprehension"},
	},
}

// Student is one leaderboard record.
type Student struct {
	Name       string         `json:"student_name"`
	ID         string         `json:"student_id"`
	Marks      map[string]int `json:"marks"`
	Total      int            `json:"all_subject_marks"`
	Percentage float64        `json:"percentage"`
	Rank       int            `json:"rank"`
	Feedbacks  []string       `json:"feedbacks"`
	Class      string         `json:"class"`
	Section    string         `json:"section"`
	ExamDate   string         `json:"exam_date"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Service seeds and serves the leaderboard.
type Service struct {
	store docstore.Store
}

// NewService constructs a leaderboard Service.
func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// gradeCategory buckets marks into a feedback tier.
func gradeCategory(marks int) string {
	switch {
	case marks >= 90:
		return "excellent"
	case marks >= 75:
		return "good"
	case marks >= 50:
		return "average"
	default:
		return "poor"
	}
}

// subjectFeedback picks a feedback line for the subject at the marks' tier.
func subjectFeedback(subject string, marks int) string {
	lines := feedbackTemplates[subject][gradeCategory(marks)]
	return lines[rand.IntN(len(lines))]
}

// overallFeedback summarizes the student's standing.
func overallFeedback(percentage float64, rank int) string {
	switch {
	case percentage >= 90:
		return fmt.Sprintf("Excellent performance! Ranked %d. Keep up the outstanding work!", rank)
	case percentage >= 75:
		return fmt.Sprintf("Good performance! Ranked %d. With little more effort, you can achieve excellence.", rank)
	case percentage >= 50:
		return fmt.Sprintf("Average performance. Ranked %d. Focus on weak subjects to improve overall score.", rank)
	default:
		return fmt.Sprintf("Below average performance. Ranked %d. Requires immediate attention and extra coaching.", rank)
	}
}

// Seed generates the synthetic roster, ranks it by percentage, and persists
// it. Existing records under the same student IDs are overwritten.
func (s *Service) Seed(ctx context.Context) ([]Student, error) {
	students := make([]Student, 0, len(seedNames))

	for i, name := range seedNames {
		base := 40 + rand.IntN(56)

		marks := make(map[string]int, len(Subjects))
		total := 0
		for j, subject := range Subjects {
			spread := spreads[j]
			m := base + rand.IntN(2*spread+1) - spread
			m = max(0, min(100, m))
			marks[subject] = m
			total += m
		}
		percentage := float64(total) / float64(len(Subjects))

		var feedbacks []string
		for _, subject := range Subjects {
			feedbacks = append(feedbacks, subjectFeedback(subject, marks[subject]))
		}
		if marks["maths"] < 50 {
			feedbacks = append(feedbacks, "Mathematics needs immediate attention")
		}
		if marks["english"] < 60 {
			feedbacks = append(feedbacks, "Focus on English grammar and vocabulary")
		}
		if marks["maths"] >= 85 && marks["science"] >= 85 {
			feedbacks = append(feedbacks, "Strong in STEM subjects - consider science stream")
		}
		if percentage >= 90 {
			feedbacks = append(feedbacks, "Exceptional overall performance!")
		}

		students = append(students, Student{
			Name:       name,
			ID:         fmt.Sprintf("STU2025%03d", i+1),
			Marks:      marks,
			Total:      total,
			Percentage: percentage,
			Feedbacks:  feedbacks,
			Class:      "10th Standard",
			Section:    "A",
			ExamDate:   "2025-07-20",
			CreatedAt:  time.Now(),
		})
	}

	rankStudents(students)
	for i := range students {
		students[i].Feedbacks = append(students[i].Feedbacks, overallFeedback(students[i].Percentage, students[i].Rank))
		if err := s.store.Put(ctx, StoreCollection, students[i].ID, students[i]); err != nil {
			return nil, fmt.Errorf("leaderboard: seed %s: %w", students[i].ID, err)
		}
	}

	return students, nil
}

// List returns every leaderboard record in rank order.
func (s *Service) List(ctx context.Context) ([]Student, error) {
	keys, err := s.store.Keys(ctx, StoreCollection)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: list keys: %w", err)
	}

	students := make([]Student, 0, len(keys))
	for _, k := range keys {
		var st Student
		if err := s.store.Get(ctx, StoreCollection, k, &st); err != nil {
			return nil, fmt.Errorf("leaderboard: load %s: %w", k, err)
		}
		students = append(students, st)
	}

	sort.Slice(students, func(i, j int) bool { return students[i].Rank < students[j].Rank })
	return students, nil
}

// Report fetches one student's full record.
func (s *Service) Report(ctx context.Context, studentID string) (*Student, error) {
	var st Student
	if err := s.store.Get(ctx, StoreCollection, studentID, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// UpdateMarks sets a student's marks for one subject, recomputes their total
// and percentage, and appends a fresh feedback line for the subject. Ranks of
// other students are not recomputed.
func (s *Service) UpdateMarks(ctx context.Context, studentID, subject string, marks int) (*Student, error) {
	if _, ok := feedbackTemplates[subject]; !ok {
		return nil, fmt.Errorf("leaderboard: unknown subject %q", subject)
	}
	if marks < 0 || marks > 100 {
		return nil, fmt.Errorf("leaderboard: marks %d out of range [0, 100]", marks)
	}

	var st Student
	if err := s.store.Get(ctx, StoreCollection, studentID, &st); err != nil {
		return nil, err
	}

	st.Marks[subject] = marks
	st.Total = 0
	for _, subj := range Subjects {
		st.Total += st.Marks[subj]
	}
	st.Percentage = float64(st.Total) / float64(len(Subjects))
	st.Feedbacks = append(st.Feedbacks, subjectFeedback(subject, marks))

	if err := s.store.Put(ctx, StoreCollection, studentID, st); err != nil {
		return nil, fmt.Errorf("leaderboard: update %s: %w", studentID, err)
	}
	return &st, nil
}

// rankStudents sorts by percentage descending and assigns 1-based ranks.
// Ties keep their seeding order.
func rankStudents(students []Student) {
	sort.SliceStable(students, func(i, j int) bool {
		return students[i].Percentage > students[j].Percentage
	})
	for i := range students {
		students[i].Rank = i + 1
	}
}
