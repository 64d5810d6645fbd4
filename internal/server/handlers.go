package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/shiksha-ai/shiksha-go/internal/attendance"
	"github.com/shiksha-ai/shiksha-go/internal/chunker"
	"github.com/shiksha-ai/shiksha-go/internal/docstore"
	"github.com/shiksha-ai/shiksha-go/internal/logging"
	"github.com/shiksha-ai/shiksha-go/internal/ocr"
	"github.com/shiksha-ai/shiksha-go/internal/paper"
)

// maxUploadBytes bounds multipart request memory: textbook PDFs and scanned
// answer sheets both come in well under this.
const maxUploadBytes = 64 << 20

// handleTextbookUpload handles POST /api/textbooks. It accepts a multipart
// form with a single "file" part holding the textbook PDF, indexes it into
// the collection derived from the filename, and reports the chunk count.
func (s *Server) handleTextbookUpload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	file, header, err := s.formFile(r, "file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		http.Error(w, "only PDF files are accepted", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	collection := chunker.CollectionName(header.Filename)
	res, err := s.svc.Ingestor.IngestPDF(r.Context(), collection, data)
	if err != nil {
		s.metrics.ingestRequestsTotal.WithLabelValues("error").Inc()
		log.Error("textbook ingestion failed",
			slog.String("collection", collection),
			slog.Any("error", err),
		)
		http.Error(w, "failed to ingest PDF", http.StatusInternalServerError)
		return
	}

	s.metrics.ingestRequestsTotal.WithLabelValues("ok").Inc()
	s.metrics.ingestChunksTotal.Add(float64(res.Chunks))

	s.writeJSON(w, r, http.StatusOK, uploadResponse{
		Message:        fmt.Sprintf("Stored %d chunks in '%s'.", res.Chunks, res.Collection),
		CollectionName: res.Collection,
		Pages:          res.Pages,
		Chunks:         res.Chunks,
		Embedded:       res.Embedded,
	})
}

// handleCollections handles GET /api/collections.
func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	names, err := s.svc.Collections.Collections(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("list collections failed", slog.Any("error", err))
		http.Error(w, "failed to list collections", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string][]string{"collections": names})
}

// handleChat handles POST /api/chat: answer a question grounded in the
// requested textbook collection, honouring any page range in the prompt.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}
	if req.CollectionName == "" {
		http.Error(w, "collection_name is required", http.StatusBadRequest)
		return
	}

	ans, err := s.svc.Tutor.Ask(r.Context(), req.CollectionName, req.Prompt)
	if err != nil {
		s.metrics.chatRequestsTotal.WithLabelValues("error").Inc()
		logging.FromContext(r.Context()).Error("chat failed",
			slog.String("collection", req.CollectionName),
			slog.Any("error", err),
		)
		http.Error(w, "failed to generate answer", http.StatusInternalServerError)
		return
	}

	s.metrics.chatRequestsTotal.WithLabelValues("ok").Inc()
	s.writeJSON(w, r, http.StatusOK, ans)
}

// handlePaperCreate handles POST /api/papers.
func (s *Server) handlePaperCreate(w http.ResponseWriter, r *http.Request) {
	var req paperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CollectionName == "" {
		http.Error(w, "collection_name is required", http.StatusBadRequest)
		return
	}
	if req.UserPrompt == "" {
		http.Error(w, "user_prompt is required", http.StatusBadRequest)
		return
	}

	resp, err := s.svc.Papers.Generate(r.Context(), req.CollectionName, req.UserPrompt, req.PaperType)
	if err != nil {
		if errors.Is(err, paper.ErrNoContent) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logging.FromContext(r.Context()).Error("paper generation failed",
			slog.String("collection", req.CollectionName),
			slog.Any("error", err),
		)
		http.Error(w, "failed to generate question paper", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, r, http.StatusOK, resp)
}

// handlePaperList handles GET /api/papers.
func (s *Server) handlePaperList(w http.ResponseWriter, r *http.Request) {
	ids, err := s.svc.Papers.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("list papers failed", slog.Any("error", err))
		http.Error(w, "failed to list question papers", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string][]string{"questionpapers": ids})
}

// handlePaperGet handles GET /api/papers/{id}.
func (s *Server) handlePaperGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	resp, err := s.svc.Papers.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, fmt.Sprintf("no question paper found with ID: %s", id), http.StatusNotFound)
			return
		}
		logging.FromContext(r.Context()).Error("get paper failed",
			slog.String("id", id),
			slog.Any("error", err),
		)
		http.Error(w, "failed to fetch question paper", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, r, http.StatusOK, resp)
}

// handleCorrection handles POST /api/corrections. It accepts a multipart form
// with one or more "images" parts (scanned answer sheets, in page order) plus
// the form fields identifying the student, paper, and collection.
func (s *Server) handleCorrection(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		http.Error(w, "at least one answer sheet image is required", http.StatusBadRequest)
		return
	}
	images, err := readFileParts(headers)
	if err != nil {
		http.Error(w, "failed to read answer sheet image", http.StatusBadRequest)
		return
	}

	studentID := r.FormValue("studentid")
	paperID := r.FormValue("question_paper_id")
	subject := r.FormValue("subject")
	collection := r.FormValue("collection_name")
	correctionType := r.FormValue("correctiontype")
	for name, v := range map[string]string{
		"studentid":         studentID,
		"question_paper_id": paperID,
		"subject":           subject,
		"collection_name":   collection,
	} {
		if v == "" {
			http.Error(w, name+" is required", http.StatusBadRequest)
			return
		}
	}

	result, err := s.svc.Grader.Grade(r.Context(), images, studentID, paperID, subject, collection, correctionType)
	if err != nil {
		s.metrics.gradingRequestsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, fmt.Sprintf("no question paper found with ID: %s", paperID), http.StatusNotFound)
			return
		}
		logging.FromContext(r.Context()).Error("answer sheet correction failed",
			slog.String("student_id", studentID),
			slog.String("paper_id", paperID),
			slog.Any("error", err),
		)
		http.Error(w, "failed to correct answer sheet", http.StatusInternalServerError)
		return
	}

	s.metrics.gradingRequestsTotal.WithLabelValues("ok").Inc()
	s.writeJSON(w, r, http.StatusOK, result)
}

// handleOCR handles POST /api/ocr: extract handwritten text from a single
// base64-encoded image and return the parsed question-number -> answer map.
func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	var req ocrRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Base64 == "" {
		http.Error(w, "base64 is required", http.StatusBadRequest)
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Base64)
	if err != nil {
		http.Error(w, "invalid base64 image", http.StatusBadRequest)
		return
	}

	text, err := s.svc.OCR.Recognize(r.Context(), image)
	if err != nil {
		logging.FromContext(r.Context()).Error("ocr failed", slog.Any("error", err))
		http.Error(w, "failed to run OCR", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, r, http.StatusOK, ocr.ParseAnswers(text))
}

// handleAttendance handles POST /api/attendance. The multipart form carries a
// "photo" part (the classroom group photo) and one or more "students" parts;
// each student part's filename, minus extension, is the student ID and its
// content is that student's reference photo.
func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	group, _, err := s.formFile(r, "photo")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer group.Close()
	groupBytes, err := io.ReadAll(group)
	if err != nil {
		http.Error(w, "failed to read group photo", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["students"]
	if len(headers) == 0 {
		http.Error(w, "at least one student reference photo is required", http.StatusBadRequest)
		return
	}

	roster := make([]attendance.Student, 0, len(headers))
	for _, h := range headers {
		photo, err := readFilePart(h)
		if err != nil {
			http.Error(w, "failed to read student photo", http.StatusBadRequest)
			return
		}
		name := h.Filename
		name = strings.TrimSuffix(name, filepath.Ext(name))
		roster = append(roster, attendance.Student{ID: name, Photo: photo})
	}

	records := s.svc.Attendance.Take(r.Context(), groupBytes, roster)

	present := 0
	for _, rec := range records {
		if rec.Status == attendance.StatusPresent {
			present++
		}
	}

	s.writeJSON(w, r, http.StatusOK, attendanceResponse{
		Attendance: records,
		Present:    present,
		Total:      len(records),
	})
}

// handleLeaderboardSeed handles POST /api/leaderboard/seed.
func (s *Server) handleLeaderboardSeed(w http.ResponseWriter, r *http.Request) {
	students, err := s.svc.Leaderboard.Seed(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("leaderboard seed failed", slog.Any("error", err))
		http.Error(w, "failed to seed leaderboard", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"message":     fmt.Sprintf("Seeded %d students.", len(students)),
		"leaderboard": students,
	})
}

// handleLeaderboardList handles GET /api/leaderboard.
func (s *Server) handleLeaderboardList(w http.ResponseWriter, r *http.Request) {
	students, err := s.svc.Leaderboard.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("leaderboard list failed", slog.Any("error", err))
		http.Error(w, "failed to list leaderboard", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"leaderboard": students})
}

// handleLeaderboardReport handles GET /api/leaderboard/{studentID}.
func (s *Server) handleLeaderboardReport(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentID")

	student, err := s.svc.Leaderboard.Report(r.Context(), studentID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, fmt.Sprintf("no student found with ID: %s", studentID), http.StatusNotFound)
			return
		}
		logging.FromContext(r.Context()).Error("leaderboard report failed",
			slog.String("student_id", studentID),
			slog.Any("error", err),
		)
		http.Error(w, "failed to fetch student report", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, r, http.StatusOK, student)
}

// handleLeaderboardMarks handles PUT /api/leaderboard/{studentID}/marks.
func (s *Server) handleLeaderboardMarks(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentID")

	var req marksUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Subject == "" {
		http.Error(w, "subject is required", http.StatusBadRequest)
		return
	}

	student, err := s.svc.Leaderboard.UpdateMarks(r.Context(), studentID, req.Subject, req.Marks)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, fmt.Sprintf("no student found with ID: %s", studentID), http.StatusNotFound)
			return
		}
		// Validation failures (unknown subject, out-of-range marks) come
		// back as plain errors from the service.
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.writeJSON(w, r, http.StatusOK, student)
}

// formFile fetches a single named multipart file part, with a bounded parse.
func (s *Server) formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("invalid multipart form")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("%s is required", field)
	}
	return file, header, nil
}

// readFilePart opens and fully reads one multipart file header.
func readFilePart(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// readFileParts reads each multipart file header in order.
func readFileParts(headers []*multipart.FileHeader) ([][]byte, error) {
	out := make([][]byte, 0, len(headers))
	for _, h := range headers {
		b, err := readFilePart(h)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
