package confetti

import (
	"fmt"
	"image"
)

// ShapeKind selects the primitive a particle is drawn with.
type ShapeKind int

const (
	Circle ShapeKind = iota
	Rectangle
	Bitmap
)

func (k ShapeKind) String() string {
	switch k {
	case Circle:
		return "circle"
	case Rectangle:
		return "rect"
	case Bitmap:
		return "bitmap"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// Shape is the drawn primitive of a particle.
//
// Only Bitmap shapes use the remaining fields:
//   - Image: source image, scaled once per particle at construction
//   - Colors: palette, one entry is picked per particle and used as tint
//   - Scale, ScaleRange: per particle scale is drawn from [Scale-ScaleRange, Scale+ScaleRange]
type Shape struct {
	Kind       ShapeKind
	Image      image.Image
	Colors     []Color
	Scale      float64
	ScaleRange float64
}

var (
	CircleShape = Shape{Kind: Circle}
	RectShape   = Shape{Kind: Rectangle}
)

// BitmapShape returns a Bitmap shape.
func BitmapShape(img image.Image, colors []Color, scale, scaleRange float64) Shape {
	return Shape{
		Kind:       Bitmap,
		Image:      img,
		Colors:     colors,
		Scale:      scale,
		ScaleRange: scaleRange,
	}
}

func (s Shape) validate() error {
	switch s.Kind {
	case Circle, Rectangle:
		return nil
	case Bitmap:
		if s.Image == nil {
			return ErrMissingImage
		}
		if len(s.Colors) == 0 {
			return ErrEmptyPalette
		}
		return nil
	default:
		return fmt.Errorf("unknown shape kind %v", s.Kind)
	}
}

// scaleBounds returns the range the bitmap scale factor is drawn from.
func (s Shape) scaleBounds() (lo, hi float64) {
	lo = s.Scale - s.ScaleRange
	if lo < minBitmapScale {
		lo = minBitmapScale
	}
	hi = s.Scale + s.ScaleRange
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Size fixes the rendered footprint and the force response of a particle.
type Size struct {
	SizeInPx float64
	Mass     float64
}

// DefaultMass is used by NewSize when no mass is given.
const DefaultMass = 5.0

// NewSize returns a Size with DefaultMass.
func NewSize(sizeInPx float64) Size {
	return Size{SizeInPx: sizeInPx, Mass: DefaultMass}
}

func (s Size) validate() error {
	if !(s.Mass > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidMass, s.Mass)
	}
	if !(s.SizeInPx > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidSize, s.SizeInPx)
	}
	return nil
}
