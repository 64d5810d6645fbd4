package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shiksha-ai/shiksha-go/internal/attendance"
	"github.com/shiksha-ai/shiksha-go/internal/grader"
	"github.com/shiksha-ai/shiksha-go/internal/ingestion"
	"github.com/shiksha-ai/shiksha-go/internal/leaderboard"
	"github.com/shiksha-ai/shiksha-go/internal/paper"
	"github.com/shiksha-ai/shiksha-go/internal/tutor"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	// Multipart PDF uploads need headroom here.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry receives all Prometheus metric registrations.
	// If nil, a fresh private registry is created.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs the GET /metrics endpoint. Must gather from the
	// same registry as MetricsRegistry.
	MetricsGatherer prometheus.Gatherer
}

// Ingestor is the interface handleTextbookUpload calls to index a PDF.
// *ingestion.Pipeline satisfies it; tests inject a fake.
type Ingestor interface {
	IngestPDF(ctx context.Context, collection string, data []byte) (*ingestion.Result, error)
}

// CollectionLister reports the vector collections currently indexed.
type CollectionLister interface {
	Collections(ctx context.Context) ([]string, error)
}

// Chatter is the interface handleChat calls to answer a question against a
// textbook collection. *tutor.Tutor satisfies it.
type Chatter interface {
	Ask(ctx context.Context, collection, prompt string) (*tutor.Answer, error)
}

// PaperService generates, fetches, and lists question papers.
// *paper.Service satisfies it.
type PaperService interface {
	Generate(ctx context.Context, collection, userPrompt, paperType string) (*paper.Response, error)
	Get(ctx context.Context, id string) (*paper.Response, error)
	List(ctx context.Context) ([]string, error)
}

// GradeService corrects a student's scanned answer sheets against a stored
// question paper. *grader.Service satisfies it.
type GradeService interface {
	Grade(ctx context.Context, images [][]byte, studentID, paperID, subject, collection, correctionType string) (*grader.Result, error)
}

// OCREngine extracts text from a handwritten answer-sheet image.
// ocr.Engine implementations satisfy it.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// AttendanceService marks a roster against a group photo.
// *attendance.Service satisfies it.
type AttendanceService interface {
	Take(ctx context.Context, group []byte, roster []attendance.Student) []attendance.Record
}

// BoardService is the synthetic student leaderboard.
// *leaderboard.Service satisfies it.
type BoardService interface {
	Seed(ctx context.Context) ([]leaderboard.Student, error)
	List(ctx context.Context) ([]leaderboard.Student, error)
	Report(ctx context.Context, studentID string) (*leaderboard.Student, error)
	UpdateMarks(ctx context.Context, studentID, subject string, marks int) (*leaderboard.Student, error)
}

// Services bundles the domain services the HTTP server fronts. Any nil field
// leaves its routes unregistered, so a partially configured deployment (for
// example no AWS credentials) still serves everything else.
type Services struct {
	Ingestor    Ingestor
	Collections CollectionLister
	Tutor       Chatter
	Papers      PaperService
	Grader      GradeService
	OCR         OCREngine
	Attendance  AttendanceService
	Leaderboard BoardService
}

// Server is the HTTP server that fronts the domain services.
type Server struct {
	// svc holds the domain services behind the API routes.
	svc *Services
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// chatRequest is the JSON body for POST /api/chat.
type chatRequest struct {
	// Prompt is the student's natural language question.
	Prompt string `json:"prompt"`
	// CollectionName is the textbook collection to answer from.
	CollectionName string `json:"collection_name"`
}

// paperRequest is the JSON body for POST /api/papers.
type paperRequest struct {
	// CollectionName is the textbook collection to draw content from.
	CollectionName string `json:"collection_name"`
	// UserPrompt describes the paper: marks, topics, page ranges.
	UserPrompt string `json:"user_prompt"`
	// PaperType optionally overrides the difficulty (easy/medium/hard).
	PaperType string `json:"paper_type"`
}

// ocrRequest is the JSON body for POST /api/ocr.
type ocrRequest struct {
	// Base64 is the standard-encoded answer sheet image.
	Base64 string `json:"base64"`
}

// uploadResponse is the JSON response for POST /api/textbooks.
type uploadResponse struct {
	// Message summarises the ingestion, e.g. "Stored 42 chunks in 'Class_10_Science'."
	Message string `json:"message"`
	// CollectionName is the vector collection the textbook was indexed into.
	CollectionName string `json:"collection_name"`
	// Pages is the number of PDF pages extracted.
	Pages int `json:"pages"`
	// Chunks is the number of text chunks stored.
	Chunks int `json:"chunks"`
	// Embedded is the number of chunks with a usable embedding.
	Embedded int `json:"embedded"`
}

// marksUpdateRequest is the JSON body for PUT /api/leaderboard/{studentID}/marks.
type marksUpdateRequest struct {
	// Subject is one of the leaderboard subjects (maths, science, ...).
	Subject string `json:"subject"`
	// Marks is the new mark for that subject, 0-100.
	Marks int `json:"marks"`
}

// attendanceResponse is the JSON response for POST /api/attendance.
type attendanceResponse struct {
	// Attendance lists one record per roster student, in roster order.
	Attendance []attendance.Record `json:"attendance"`
	// Present is the number of students matched in the group photo.
	Present int `json:"present"`
	// Total is the roster size.
	Total int `json:"total"`
}
