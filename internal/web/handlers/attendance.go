package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/database"
	"github.com/kozaktomas/rollcall/internal/notify"
	"github.com/kozaktomas/rollcall/internal/recognition"
)

// AttendanceHandler handles attendance capture and history endpoints.
type AttendanceHandler struct {
	students    database.StudentReader
	attendance  database.AttendanceWriter
	recognizer  Recognizer
	guardian    *notify.Guardian
	saveTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]bool // one recognition pass per class at a time
}

// NewAttendanceHandler creates a new attendance handler. guardian may be nil
// when no SMS gateway is configured.
func NewAttendanceHandler(students database.StudentReader, repo database.AttendanceWriter, recognizer Recognizer, guardian *notify.Guardian, saveTimeout time.Duration) *AttendanceHandler {
	return &AttendanceHandler{
		students:    students,
		attendance:  repo,
		recognizer:  recognizer,
		guardian:    guardian,
		saveTimeout: saveTimeout,
		inflight:    make(map[string]bool),
	}
}

// tryAcquire marks a class as having a recognition pass in flight.
func (h *AttendanceHandler) tryAcquire(class string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inflight[class] {
		return false
	}
	h.inflight[class] = true
	return true
}

func (h *AttendanceHandler) release(class string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inflight, class)
}

// RecordResponse represents one attendance record in API responses.
type RecordResponse struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Grade       string `json:"grade"`
	Section     string `json:"section"`
	Status      string `json:"status"`
	RecordedAt  string `json:"recorded_at"`
}

func recordToResponse(rec *database.AttendanceRecord) RecordResponse {
	return RecordResponse{
		ID:          rec.ID,
		StudentID:   rec.StudentID,
		StudentName: rec.StudentName,
		Grade:       rec.Grade,
		Section:     rec.Section,
		Status:      rec.Status,
		RecordedAt:  rec.RecordedAt.Format(time.RFC3339),
	}
}

// TakeResponse is the result of one attendance capture.
type TakeResponse struct {
	Recognized int              `json:"recognized"`
	Records    []RecordResponse `json:"records"`
}

// Take runs one attendance capture for a class: recognize the faces in the
// uploaded photo against the class roster, mark matched students PRESENT and
// everyone else ABSENT, save the session and notify guardians of absentees.
// Only one capture per class runs at a time; concurrent captures get 409.
func (h *AttendanceHandler) Take(w http.ResponseWriter, r *http.Request) {
	grade := r.FormValue("grade")
	section := r.FormValue("section")
	if grade == "" || section == "" {
		respondError(w, http.StatusBadRequest, "grade and section are required")
		return
	}

	class := grade + "/" + section
	if !h.tryAcquire(class) {
		respondError(w, http.StatusConflict, "attendance capture already in progress for this class")
		return
	}
	defer h.release(class)

	img, err := readPhoto(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "photo is required and must be a valid image")
		return
	}

	students, err := h.students.List(r.Context(), grade, section)
	if err != nil {
		log.Printf("failed to load roster %s: %v", sanitizeForLog(class), err)
		respondError(w, http.StatusInternalServerError, "failed to load class roster")
		return
	}
	if len(students) == 0 {
		respondError(w, http.StatusNotFound, "no students in this class")
		return
	}

	gallery := make([]recognition.Enrolled, 0, len(students))
	for i := range students {
		if students[i].FaceEnrolled && students[i].Embedding != nil {
			gallery = append(gallery, recognition.Enrolled{
				StudentID: students[i].ID,
				Embedding: students[i].Embedding,
			})
		}
	}

	matches, err := h.recognizer.Recognize(r.Context(), img, gallery)
	if errors.Is(err, recognition.ErrNoFaces) {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		log.Printf("recognition failed for %s: %v", sanitizeForLog(class), err)
		respondError(w, http.StatusInternalServerError, "recognition failed")
		return
	}

	rosterIDs := make([]string, len(students))
	for i := range students {
		rosterIDs[i] = students[i].ID
	}
	statuses := attendance.Resolve(rosterIDs, matches)

	now := time.Now()
	records := make([]database.AttendanceRecord, 0, len(students))
	for i := range students {
		s := &students[i]
		records = append(records, database.AttendanceRecord{
			ID:          attendance.RecordID(s.ID, now),
			StudentID:   s.ID,
			StudentName: s.FullName(),
			Grade:       s.Grade,
			Section:     s.Section,
			Status:      string(statuses[s.ID]),
			RecordedAt:  now,
			OwnerID:     s.OwnerID,
		})
	}

	// The save gets its own deadline so a stalled database cannot hold the
	// class lock forever.
	saveCtx, cancel := context.WithTimeout(r.Context(), h.saveTimeout)
	defer cancel()
	if err := h.attendance.SaveDay(saveCtx, records); err != nil {
		log.Printf("failed to save attendance for %s: %v", sanitizeForLog(class), err)
		respondError(w, http.StatusInternalServerError, "failed to save attendance")
		return
	}

	if h.guardian != nil {
		// Fire and forget; attendance is saved either way.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			h.guardian.NotifySession(ctx, students, statuses, now)
		}()
	}

	response := TakeResponse{Recognized: len(matches)}
	response.Records = make([]RecordResponse, len(records))
	for i := range records {
		response.Records[i] = recordToResponse(&records[i])
	}

	respondJSON(w, http.StatusOK, response)
}

// overrideRequest represents a manual status correction.
type overrideRequest struct {
	Status string `json:"status"`
	Date   string `json:"date"` // yyyy-MM-dd, defaults to today
}

// Override manually sets a student's status for a day. This is the only way a
// student becomes LATE; recognition never produces it.
func (h *AttendanceHandler) Override(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	status, err := attendance.ParseStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	at := time.Now()
	if req.Date != "" {
		day, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be yyyy-MM-dd")
			return
		}
		at = day
	}

	student, err := h.students.Get(r.Context(), id)
	if err != nil {
		log.Printf("failed to get student: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to get student")
		return
	}
	if student == nil {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}

	record := database.AttendanceRecord{
		ID:          attendance.RecordID(student.ID, at),
		StudentID:   student.ID,
		StudentName: student.FullName(),
		Grade:       student.Grade,
		Section:     student.Section,
		Status:      string(status),
		RecordedAt:  at,
		OwnerID:     student.OwnerID,
	}

	if err := h.attendance.SaveDay(r.Context(), []database.AttendanceRecord{record}); err != nil {
		log.Printf("failed to save override for %s: %v", sanitizeForLog(student.FullName()), err)
		respondError(w, http.StatusInternalServerError, "failed to save attendance")
		return
	}

	respondJSON(w, http.StatusOK, recordToResponse(&record))
}

// ListClass returns attendance records for a class within a date range.
// Defaults to the last 30 days.
func (h *AttendanceHandler) ListClass(w http.ResponseWriter, r *http.Request) {
	grade := r.URL.Query().Get("grade")
	section := r.URL.Query().Get("section")
	if grade == "" || section == "" {
		respondError(w, http.StatusBadRequest, "grade and section are required")
		return
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "from must be yyyy-MM-dd")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "to must be yyyy-MM-dd")
			return
		}
		to = t.AddDate(0, 0, 1) // include the whole end day
	}

	records, err := h.attendance.ListByClass(r.Context(), grade, section, from, to)
	if err != nil {
		log.Printf("failed to list attendance: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}

	response := make([]RecordResponse, len(records))
	for i := range records {
		response[i] = recordToResponse(&records[i])
	}

	respondJSON(w, http.StatusOK, response)
}

// ListStudent returns a student's attendance history, newest first.
func (h *AttendanceHandler) ListStudent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 30
	}

	records, err := h.attendance.ListByStudent(r.Context(), id, limit)
	if err != nil {
		log.Printf("failed to list attendance: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}

	response := make([]RecordResponse, len(records))
	for i := range records {
		response[i] = recordToResponse(&records[i])
	}

	respondJSON(w, http.StatusOK, response)
}
