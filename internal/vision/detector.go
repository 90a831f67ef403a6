package vision

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// DetectorOptions tune the cascade classifier. Zero values fall back to
// defaults suitable for classroom photos.
type DetectorOptions struct {
	MinSize     int     // minimum face size in pixels (default 20)
	MaxSize     int     // maximum face size in pixels (default 1000)
	QThreshold  float32 // minimum detection quality score (default 5.0)
	ShiftFactor float64 // detection window shift (default 0.1)
	ScaleFactor float64 // detection window scale step (default 1.1)
}

func (o *DetectorOptions) applyDefaults() {
	if o.MinSize == 0 {
		o.MinSize = 20
	}
	if o.MaxSize == 0 {
		o.MaxSize = 1000
	}
	if o.QThreshold == 0 {
		o.QThreshold = 5.0
	}
	if o.ShiftFactor == 0 {
		o.ShiftFactor = 0.1
	}
	if o.ScaleFactor == 0 {
		o.ScaleFactor = 1.1
	}
}

// Detector locates face bounding boxes in a photo using a pigo cascade
// classifier. The cascade binary is loaded once at construction and the
// classifier is read-only afterwards, safe for concurrent use.
type Detector struct {
	classifier *pigo.Pigo
	opts       DetectorOptions
}

// NewDetector loads the face cascade binary from the given path.
// A missing or unreadable cascade is a fatal configuration error.
func NewDetector(cascadePath string, opts DetectorOptions) (*Detector, error) {
	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading cascade %q: %v", ErrModelLoad, cascadePath, err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("%w: unpacking cascade %q: %v", ErrModelLoad, cascadePath, err)
	}

	opts.applyDefaults()
	return &Detector{classifier: classifier, opts: opts}, nil
}

// Detect returns zero or more face bounding boxes found in the image,
// in detector order. No ordering is guaranteed to callers. Detection is a
// pure function of the image.
func (d *Detector) Detect(img image.Image) ([]image.Rectangle, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrDetection)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDetection)
	}

	src := pigo.ImgToNRGBA(img)
	pixels := pigo.RgbToGrayscale(src)
	cols, rows := src.Bounds().Max.X, src.Bounds().Max.Y

	cParams := pigo.CascadeParams{
		MinSize:     d.opts.MinSize,
		MaxSize:     d.opts.MaxSize,
		ShiftFactor: d.opts.ShiftFactor,
		ScaleFactor: d.opts.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(cParams, 0.0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	regions := make([]image.Rectangle, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.opts.QThreshold {
			continue
		}
		half := det.Scale / 2
		regions = append(regions, image.Rect(
			det.Col-half,
			det.Row-half,
			det.Col+half,
			det.Row+half,
		))
	}

	return regions, nil
}
