package recognition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"

	_ "golang.org/x/image/bmp"

	"github.com/kozaktomas/rollcall/internal/vision"
)

// ErrNoFaces is returned when a photo yields no usable faces, either because
// detection found nothing or because the detector failed on the image. Both
// mean the same thing to callers: ask the user to retake the photo. No state
// is mutated.
var ErrNoFaces = errors.New("no face detected, try again")

// FaceDetector locates face bounding boxes in a photo.
type FaceDetector interface {
	Detect(img image.Image) ([]image.Rectangle, error)
}

// FaceEmbedder turns a normalized face crop into an embedding vector.
type FaceEmbedder interface {
	Embed(face *vision.FaceTensor) ([]float32, error)
	InputSize() int
}

// Pipeline is the full recognition pass: detect faces, crop and normalize
// each region, embed, and match against the enrolled gallery. A pipeline is
// a pure function of the photo and the roster snapshot; it persists nothing
// and never mutates its inputs, so every pass is self-contained.
type Pipeline struct {
	detector  FaceDetector
	embedder  FaceEmbedder
	threshold float64
}

// NewPipeline wires a detector and embedder with the match threshold.
func NewPipeline(detector FaceDetector, embedder FaceEmbedder, threshold float64) *Pipeline {
	return &Pipeline{
		detector:  detector,
		embedder:  embedder,
		threshold: threshold,
	}
}

// Threshold returns the configured cosine similarity threshold.
func (p *Pipeline) Threshold() float64 {
	return p.threshold
}

// DecodeImage decodes a captured photo (JPEG, PNG, GIF or BMP).
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Recognize runs one recognition pass over a photo. Per-face failures
// (degenerate regions, inference errors) are skipped so one bad frame does
// not block marking clearly recognized students. Returns ErrNoFaces when the
// photo yields no usable faces at all. The context is checked between faces
// so a torn-down caller cancels the pass cooperatively.
func (p *Pipeline) Recognize(ctx context.Context, img image.Image, gallery []Enrolled) ([]Match, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image supplied", ErrNoFaces)
	}

	regions, err := p.detector.Detect(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFaces, err)
	}
	if len(regions) == 0 {
		return nil, ErrNoFaces
	}

	// Embed faces in photo order; order determines match-claiming priority.
	queries := make([][]float32, len(regions))
	usable := 0
	for i, region := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tensor, err := vision.CropFace(img, region, p.embedder.InputSize())
		if err != nil {
			log.Printf("skipping face %d: %v", i, err)
			continue
		}

		emb, err := p.embedder.Embed(tensor)
		if err != nil {
			log.Printf("skipping face %d: %v", i, err)
			continue
		}

		queries[i] = emb
		usable++
	}

	if usable == 0 {
		return nil, ErrNoFaces
	}

	return MatchAll(queries, gallery, p.threshold), nil
}

// EmbedSingle detects exactly one face in a photo and returns its embedding.
// Used at enrollment time, where a photo with zero or multiple faces is
// rejected so the stored reference embedding is unambiguous.
func (p *Pipeline) EmbedSingle(ctx context.Context, img image.Image) ([]float32, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image supplied", ErrNoFaces)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	regions, err := p.detector.Detect(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFaces, err)
	}
	if len(regions) == 0 {
		return nil, ErrNoFaces
	}
	if len(regions) > 1 {
		return nil, fmt.Errorf("found %d faces, enrollment photo must contain exactly one", len(regions))
	}

	tensor, err := vision.CropFace(img, regions[0], p.embedder.InputSize())
	if err != nil {
		return nil, err
	}
	return p.embedder.Embed(tensor)
}
