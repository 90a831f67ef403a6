package vision

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// FaceTensor is a fixed-size, 3-channel float pixel buffer ready for the
// embedding model. Pixels are normalized to [0,1] in NHWC order, matching the
// FaceNet training distribution. The same normalization is applied at both
// enrollment and recognition time; a mismatch would silently degrade every
// similarity score.
type FaceTensor struct {
	Size int       // width and height in pixels
	Data []float32 // len == Size*Size*3, row-major RGB
}

// clampRegion clips a region to the image bounds so cropping never reads
// out of bounds.
func clampRegion(region image.Rectangle, bounds image.Rectangle) image.Rectangle {
	return region.Intersect(bounds)
}

// CropFace crops the region out of the source image and resizes it with
// bilinear interpolation to a size x size square, producing a normalized
// tensor. A region that degenerates to zero width or height after clamping
// is an error, not a zero-filled image. Pass the full image bounds as the
// region when no detection is available (single-face enrollment).
func CropFace(src image.Image, region image.Rectangle, size int) (*FaceTensor, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidRegion)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: non-positive target size %d", ErrInvalidRegion, size)
	}

	clamped := clampRegion(region, src.Bounds())
	if clamped.Dx() <= 0 || clamped.Dy() <= 0 {
		return nil, fmt.Errorf("%w: region %v outside image bounds %v", ErrInvalidRegion, region, src.Bounds())
	}

	resized := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(resized, resized.Bounds(), src, clamped, draw.Src, nil)

	data := make([]float32, size*size*3)
	idx := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			data[idx] = float32(r>>8) / 255.0
			data[idx+1] = float32(g>>8) / 255.0
			data[idx+2] = float32(b>>8) / 255.0
			idx += 3
		}
	}

	return &FaceTensor{Size: size, Data: data}, nil
}
