package confetti

import "image"

// Rect is an axis aligned rectangle in canvas coordinates.
type Rect struct {
	Left, Top, Right, Bottom float64
}

func (r Rect) Width() float64   { return r.Right - r.Left }
func (r Rect) Height() float64  { return r.Bottom - r.Top }
func (r Rect) CenterX() float64 { return (r.Left + r.Right) / 2 }
func (r Rect) CenterY() float64 { return (r.Top + r.Bottom) / 2 }

// Paint describes how a primitive is filled.
// Alpha overrides the alpha channel of Color. Tint marks image draws that
// replace every opaque pixel's colour with Color while keeping its coverage.
type Paint struct {
	Color Color
	Alpha uint8
	Tint  bool
}

// Canvas is the 2D drawing surface particles are displayed on.
// Rotate applies to everything drawn until the matching Restore.
type Canvas interface {
	Width() float64
	Height() float64
	Save()
	Restore()
	Rotate(degrees, px, py float64)
	DrawOval(r Rect, p Paint)
	DrawRect(r Rect, p Paint)
	DrawImage(img image.Image, x, y float64, p Paint)
}
