package recognition

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/kozaktomas/rollcall/internal/vision"
)

// fakeDetector returns preset regions or an error.
type fakeDetector struct {
	regions []image.Rectangle
	err     error
}

func (d *fakeDetector) Detect(img image.Image) ([]image.Rectangle, error) {
	return d.regions, d.err
}

// fakeEmbedder maps call order (photo order) to a preset embedding, so tests
// can steer which face produces which query vector.
type fakeEmbedder struct {
	byIndex map[int][]float32
	errOn   map[int]bool
	calls   int
}

func (e *fakeEmbedder) InputSize() int { return 8 }

func (e *fakeEmbedder) Embed(face *vision.FaceTensor) ([]float32, error) {
	e.calls++
	// Identify the face by call order: the pipeline embeds in photo order.
	idx := e.calls - 1
	if e.errOn[idx] {
		return nil, vision.ErrEmbedding
	}
	if emb, ok := e.byIndex[idx]; ok {
		return emb, nil
	}
	return []float32{0, 0}, nil
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 100, A: 255})
		}
	}
	return img
}

func TestRecognize_NoFacesDetected(t *testing.T) {
	p := NewPipeline(&fakeDetector{}, &fakeEmbedder{}, 0.5)

	_, err := p.Recognize(context.Background(), testImage(), nil)
	if !errors.Is(err, ErrNoFaces) {
		t.Errorf("expected ErrNoFaces, got %v", err)
	}
}

func TestRecognize_DetectorErrorSameAsEmpty(t *testing.T) {
	p := NewPipeline(&fakeDetector{err: vision.ErrDetection}, &fakeEmbedder{}, 0.5)

	_, err := p.Recognize(context.Background(), testImage(), nil)
	if !errors.Is(err, ErrNoFaces) {
		t.Errorf("detector failure must surface as ErrNoFaces, got %v", err)
	}
}

func TestRecognize_NilImage(t *testing.T) {
	p := NewPipeline(&fakeDetector{}, &fakeEmbedder{}, 0.5)

	_, err := p.Recognize(context.Background(), nil, nil)
	if !errors.Is(err, ErrNoFaces) {
		t.Errorf("expected ErrNoFaces for nil image, got %v", err)
	}
}

func TestRecognize_MatchesInPhotoOrder(t *testing.T) {
	regions := []image.Rectangle{
		image.Rect(0, 0, 16, 16),
		image.Rect(20, 0, 36, 16),
	}
	embedder := &fakeEmbedder{
		byIndex: map[int][]float32{
			0: {1, 0},
			1: {0, 1},
		},
	}
	p := NewPipeline(&fakeDetector{regions: regions}, embedder, 0.5)

	gallery := []Enrolled{
		{StudentID: "alice", Embedding: []float32{1, 0}},
		{StudentID: "bob", Embedding: []float32{0, 1}},
	}

	matches, err := p.Recognize(context.Background(), testImage(), gallery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].StudentID != "alice" || matches[0].FaceIndex != 0 {
		t.Errorf("unexpected first match %+v", matches[0])
	}
	if matches[1].StudentID != "bob" || matches[1].FaceIndex != 1 {
		t.Errorf("unexpected second match %+v", matches[1])
	}
}

func TestRecognize_EmbeddingFailureSkipsFaceOnly(t *testing.T) {
	regions := []image.Rectangle{
		image.Rect(0, 0, 16, 16),
		image.Rect(20, 0, 36, 16),
	}
	embedder := &fakeEmbedder{
		byIndex: map[int][]float32{1: {1, 0}},
		errOn:   map[int]bool{0: true},
	}
	p := NewPipeline(&fakeDetector{regions: regions}, embedder, 0.5)

	gallery := []Enrolled{{StudentID: "alice", Embedding: []float32{1, 0}}}

	matches, err := p.Recognize(context.Background(), testImage(), gallery)
	if err != nil {
		t.Fatalf("one bad face must not abort the batch: %v", err)
	}
	if len(matches) != 1 || matches[0].StudentID != "alice" || matches[0].FaceIndex != 1 {
		t.Errorf("unexpected matches %+v", matches)
	}
}

func TestRecognize_AllFacesFailed(t *testing.T) {
	regions := []image.Rectangle{image.Rect(0, 0, 16, 16)}
	embedder := &fakeEmbedder{errOn: map[int]bool{0: true}}
	p := NewPipeline(&fakeDetector{regions: regions}, embedder, 0.5)

	_, err := p.Recognize(context.Background(), testImage(), nil)
	if !errors.Is(err, ErrNoFaces) {
		t.Errorf("expected ErrNoFaces when every face fails, got %v", err)
	}
}

func TestRecognize_Cancellation(t *testing.T) {
	regions := []image.Rectangle{image.Rect(0, 0, 16, 16)}
	p := NewPipeline(&fakeDetector{regions: regions}, &fakeEmbedder{}, 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Recognize(ctx, testImage(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEmbedSingle_RequiresExactlyOneFace(t *testing.T) {
	embedder := &fakeEmbedder{byIndex: map[int][]float32{0: {1, 0}}}

	t.Run("one face", func(t *testing.T) {
		p := NewPipeline(&fakeDetector{regions: []image.Rectangle{image.Rect(0, 0, 16, 16)}}, embedder, 0.5)
		emb, err := p.EmbedSingle(context.Background(), testImage())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(emb) != 2 {
			t.Errorf("unexpected embedding %v", emb)
		}
	})

	t.Run("no face", func(t *testing.T) {
		p := NewPipeline(&fakeDetector{}, embedder, 0.5)
		if _, err := p.EmbedSingle(context.Background(), testImage()); !errors.Is(err, ErrNoFaces) {
			t.Errorf("expected ErrNoFaces, got %v", err)
		}
	})

	t.Run("two faces", func(t *testing.T) {
		p := NewPipeline(&fakeDetector{regions: []image.Rectangle{
			image.Rect(0, 0, 16, 16), image.Rect(20, 0, 36, 16),
		}}, embedder, 0.5)
		if _, err := p.EmbedSingle(context.Background(), testImage()); err == nil {
			t.Error("expected error for multi-face enrollment photo")
		}
	})
}
