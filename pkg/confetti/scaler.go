package confetti

import (
	"image"

	"golang.org/x/image/draw"
)

// ImageScaler produces a resized copy of a source image.
type ImageScaler interface {
	ScaleImage(src image.Image, factor float64) image.Image
}

// NearestScaler scales with nearest neighbour sampling (no filtering).
type NearestScaler struct{}

// ScaleImage implements ImageScaler. The result is at least 1x1.
func (NearestScaler) ScaleImage(src image.Image, factor float64) image.Image {
	b := src.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
