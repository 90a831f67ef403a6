package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/rollcall/internal/database"
	"github.com/kozaktomas/rollcall/internal/recognition"
)

// fakeStudentRepo is an in-memory StudentWriter for handler tests.
type fakeStudentRepo struct {
	students map[string]*database.Student
	listErr  error
}

func newFakeStudentRepo(students ...*database.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: make(map[string]*database.Student)}
	for _, s := range students {
		repo.students[s.ID] = s
	}
	return repo
}

func (f *fakeStudentRepo) List(_ context.Context, grade, section string) ([]database.Student, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []database.Student
	for _, s := range f.students {
		if s.Grade == grade && s.Section == section {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) Get(_ context.Context, id string) (*database.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStudentRepo) FindByName(_ context.Context, name string) (*database.Student, error) {
	normalized := database.NormalizeName(name)
	for _, s := range f.students {
		if database.NormalizeName(s.FullName()) == normalized {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStudentRepo) FindSimilar(_ context.Context, _ []float32, limit int) ([]database.Student, []float64, error) {
	var students []database.Student
	var distances []float64
	for _, s := range f.students {
		if s.Embedding == nil || len(students) >= limit {
			continue
		}
		students = append(students, *s)
		distances = append(distances, 0.1)
	}
	return students, distances, nil
}

func (f *fakeStudentRepo) Create(_ context.Context, s *database.Student) error {
	copied := *s
	f.students[s.ID] = &copied
	return nil
}

func (f *fakeStudentRepo) UpdateEmbedding(_ context.Context, id string, emb []float32) error {
	s, ok := f.students[id]
	if !ok {
		return nil
	}
	s.Embedding = emb
	s.FaceEnrolled = emb != nil
	return nil
}

func (f *fakeStudentRepo) Delete(_ context.Context, id string) error {
	delete(f.students, id)
	return nil
}

// fakeAttendanceRepo records saved sessions in memory.
type fakeAttendanceRepo struct {
	saved   [][]database.AttendanceRecord
	records []database.AttendanceRecord
	saveErr error
}

func (f *fakeAttendanceRepo) SaveDay(_ context.Context, records []database.AttendanceRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, records)
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeAttendanceRepo) ListByClass(_ context.Context, grade, section string, from, to time.Time) ([]database.AttendanceRecord, error) {
	var out []database.AttendanceRecord
	for _, rec := range f.records {
		if rec.Grade == grade && rec.Section == section {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) ListByStudent(_ context.Context, studentID string, limit int) ([]database.AttendanceRecord, error) {
	var out []database.AttendanceRecord
	for _, rec := range f.records {
		if rec.StudentID == studentID && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

// fakeRecognizer returns canned pipeline results.
type fakeRecognizer struct {
	matches   []recognition.Match
	embedding []float32
	err       error
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ image.Image, _ []recognition.Enrolled) ([]recognition.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func (f *fakeRecognizer) EmbedSingle(_ context.Context, _ image.Image) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.embedding, nil
}

// photoRequest builds a multipart request with a tiny PNG and extra form fields.
func photoRequest(t *testing.T, path string, fields map[string]string) *http.Request {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	part, err := writer.CreateFormFile("photo", "class.png")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if err := png.Encode(part, img); err != nil {
		t.Fatalf("failed to encode photo: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}
