package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kozaktomas/rollcall/internal/database"
)

// StudentsHandler handles roster endpoints.
type StudentsHandler struct {
	students   database.StudentWriter
	recognizer Recognizer
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(students database.StudentWriter, recognizer Recognizer) *StudentsHandler {
	return &StudentsHandler{
		students:   students,
		recognizer: recognizer,
	}
}

// StudentResponse represents a student in API responses. The embedding itself
// never leaves the server; clients only see whether a face is enrolled.
type StudentResponse struct {
	ID            string `json:"id"`
	FirstName     string `json:"first_name"`
	MiddleInitial string `json:"middle_initial,omitempty"`
	LastName      string `json:"last_name"`
	FullName      string `json:"full_name"`
	GuardianPhone string `json:"guardian_phone,omitempty"`
	Grade         string `json:"grade"`
	Section       string `json:"section"`
	FaceEnrolled  bool   `json:"face_enrolled"`
}

func studentToResponse(s *database.Student) StudentResponse {
	return StudentResponse{
		ID:            s.ID,
		FirstName:     s.FirstName,
		MiddleInitial: s.MiddleInitial,
		LastName:      s.LastName,
		FullName:      s.FullName(),
		GuardianPhone: s.GuardianPhone,
		Grade:         s.Grade,
		Section:       s.Section,
		FaceEnrolled:  s.FaceEnrolled,
	}
}

// List returns all students of a grade/section.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	grade := r.URL.Query().Get("grade")
	section := r.URL.Query().Get("section")
	if grade == "" || section == "" {
		respondError(w, http.StatusBadRequest, "grade and section are required")
		return
	}

	students, err := h.students.List(r.Context(), grade, section)
	if err != nil {
		log.Printf("failed to list students: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list students")
		return
	}

	response := make([]StudentResponse, len(students))
	for i := range students {
		response[i] = studentToResponse(&students[i])
	}

	respondJSON(w, http.StatusOK, response)
}

// createStudentRequest represents the create request body.
type createStudentRequest struct {
	FirstName     string `json:"first_name"`
	MiddleInitial string `json:"middle_initial"`
	LastName      string `json:"last_name"`
	GuardianPhone string `json:"guardian_phone"`
	Grade         string `json:"grade"`
	Section       string `json:"section"`
	OwnerID       string `json:"owner_id"`
}

// Create registers a new student without an enrolled face.
func (h *StudentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Grade == "" || req.Section == "" {
		respondError(w, http.StatusBadRequest, "first_name, last_name, grade and section are required")
		return
	}

	student := &database.Student{
		ID:            uuid.NewString(),
		FirstName:     req.FirstName,
		MiddleInitial: req.MiddleInitial,
		LastName:      req.LastName,
		GuardianPhone: req.GuardianPhone,
		Grade:         req.Grade,
		Section:       req.Section,
		OwnerID:       req.OwnerID,
	}

	if err := h.students.Create(r.Context(), student); err != nil {
		log.Printf("failed to create student %s: %v", sanitizeForLog(student.FullName()), err)
		respondError(w, http.StatusInternalServerError, "failed to create student")
		return
	}

	respondJSON(w, http.StatusCreated, studentToResponse(student))
}

// Get returns a single student by id.
func (h *StudentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

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

	respondJSON(w, http.StatusOK, studentToResponse(student))
}

// Delete removes a student from the roster.
func (h *StudentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.students.Delete(r.Context(), id); err != nil {
		log.Printf("failed to delete student: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to delete student")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// Enroll captures a student's reference face. The photo must contain exactly
// one face; anything else is rejected so the stored embedding is unambiguous.
// Re-enrolling replaces the previous embedding.
func (h *StudentsHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

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

	img, err := readPhoto(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "photo is required and must be a valid image")
		return
	}

	// Zero faces and multiple faces are both enrollment failures; the error
	// message tells the user which.
	emb, err := h.recognizer.EmbedSingle(r.Context(), img)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.students.UpdateEmbedding(r.Context(), id, emb); err != nil {
		log.Printf("failed to store enrollment for %s: %v", sanitizeForLog(student.FullName()), err)
		respondError(w, http.StatusInternalServerError, "failed to store enrollment")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":            id,
		"face_enrolled": true,
	})
}

// Unenroll clears a student's reference face.
func (h *StudentsHandler) Unenroll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.students.UpdateEmbedding(r.Context(), id, nil); err != nil {
		log.Printf("failed to clear enrollment: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to clear enrollment")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"id":            id,
		"face_enrolled": false,
	})
}

// IdentifyResponse is one candidate from a similarity lookup.
type IdentifyResponse struct {
	Student  StudentResponse `json:"student"`
	Distance float64         `json:"distance"`
}

// Identify finds enrolled students most similar to the face in the uploaded
// photo, closest first. Intended as a "who is this" helper; it never marks
// attendance.
func (h *StudentsHandler) Identify(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 5
	}

	img, err := readPhoto(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "photo is required and must be a valid image")
		return
	}

	emb, err := h.recognizer.EmbedSingle(r.Context(), img)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	students, distances, err := h.students.FindSimilar(r.Context(), emb, limit)
	if err != nil {
		log.Printf("failed to search similar students: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to search similar students")
		return
	}

	response := make([]IdentifyResponse, len(students))
	for i := range students {
		response[i] = IdentifyResponse{
			Student:  studentToResponse(&students[i]),
			Distance: distances[i],
		}
	}

	respondJSON(w, http.StatusOK, response)
}
