package handlers

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/kozaktomas/rollcall/internal/recognition"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// maxPhotoSize bounds uploaded photo size (16 MB).
const maxPhotoSize = 16 << 20

// Recognizer runs the face recognition pipeline on captured photos.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, gallery []recognition.Enrolled) ([]recognition.Match, error)
	EmbedSingle(ctx context.Context, img image.Image) ([]float32, error)
}

// readPhoto pulls the uploaded photo out of a multipart form and decodes it.
func readPhoto(r *http.Request) (image.Image, error) {
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return recognition.DecodeImage(data)
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
