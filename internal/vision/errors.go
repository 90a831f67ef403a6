// Package vision implements the on-device face pipeline: cascade-based face
// detection, crop/resize preprocessing and FaceNet embedding extraction.
package vision

import "errors"

var (
	// ErrModelLoad indicates a missing or corrupt model asset at startup.
	// This is fatal for the whole pipeline and is never retried per frame.
	ErrModelLoad = errors.New("model asset missing or corrupt, ensure model asset is present")

	// ErrDetection indicates the detector failed on an image. Callers treat
	// this the same as an empty detection result: no usable faces.
	ErrDetection = errors.New("face detection failed")

	// ErrInvalidRegion indicates a detected region degenerated to zero size
	// after clamping to the image bounds. The face is skipped.
	ErrInvalidRegion = errors.New("invalid face region")

	// ErrEmbedding indicates inference failed for a single face. The face is
	// dropped from matching, the batch continues.
	ErrEmbedding = errors.New("embedding inference failed")
)
