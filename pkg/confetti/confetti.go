// Package confetti models a single confetti particle: its physics, its
// lifecycle and how it is drawn onto a Canvas.
//
// A driver owns the particle collection. Every frame it calls ApplyForce
// (gravity, wind) and then Render on each live particle, and drops the
// particles whose IsDead reports true. All operations run on the render
// goroutine; a Confetti is not safe for concurrent use.
package confetti

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"
)

const (
	// ReferenceFrameRate normalizes motion to 60 updates per second so the
	// perceived speed does not depend on the host frame rate.
	ReferenceFrameRate = 60.0

	// FadeBased selects alpha driven death instead of a countdown.
	FadeBased time.Duration = -1

	// DefaultDensity is used when Options.Density is zero.
	DefaultDensity = 1.0

	minRotationSpeedPerDensity = 0.29
	fadeStep                   = 5.0
	minBitmapScale             = 0.01
	maxAlpha                   = 255.0

	// expiryTolerance absorbs float rounding in the countdown (milliseconds),
	// so expiry does not depend on how the elapsed time was split.
	expiryTolerance = 1e-6
)

// Construction errors returned by New, usable with errors.Is.
var (
	ErrInvalidMass    = errors.New("confetti: mass must be greater than zero")
	ErrInvalidSize    = errors.New("confetti: size must be greater than zero")
	ErrInvalidDensity = errors.New("confetti: display density must be greater than zero")
	ErrEmptyPalette   = errors.New("confetti: bitmap shape has an empty color palette")
	ErrMissingImage   = errors.New("confetti: bitmap shape has no image")
)

// Options are the construction inputs of a particle.
type Options struct {
	Location     Vector
	Velocity     Vector
	Acceleration Vector

	// Color is ignored for Bitmap shapes, which pick from their own palette.
	Color Color
	Size  Size
	Shape Shape

	// Lifespan > 0 is a fixed countdown. Zero or FadeBased fades instead.
	Lifespan time.Duration
	// FadeOut decays alpha gradually; without it a fade based particle dies
	// on its first update.
	FadeOut bool

	// Density is the host pixel density, it bounds the rotation speed.
	Density float64

	Rand   Rand
	Scaler ImageScaler
}

// Confetti is one confetti piece.
type Confetti struct {
	location     Vector
	velocity     Vector
	acceleration Vector

	color Color
	size  Size
	shape Shape

	timed    bool
	lifespan float64 // remaining milliseconds, only meaningful when timed
	fadeOut  bool
	alpha    float64

	width         float64
	rotation      float64
	rotationSpeed float64
	rotationWidth float64

	image       image.Image
	bitmapScale float64
}

// New builds a particle and performs its one-time random draws.
func New(opts Options) (*Confetti, error) {
	if err := opts.Size.validate(); err != nil {
		return nil, err
	}
	if err := opts.Shape.validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	density := opts.Density
	if density == 0 {
		density = DefaultDensity
	}
	if !(density > 0) || math.IsInf(density, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidDensity, opts.Density)
	}

	rng := opts.Rand
	if rng == nil {
		rng = NewRand(time.Now().UnixNano())
	}

	c := &Confetti{
		location:      opts.Location.Copy(),
		velocity:      opts.Velocity.Copy(),
		acceleration:  opts.Acceleration.Copy(),
		color:         opts.Color,
		size:          opts.Size,
		shape:         opts.Shape,
		fadeOut:       opts.FadeOut,
		alpha:         maxAlpha,
		width:         opts.Size.SizeInPx,
		rotationWidth: opts.Size.SizeInPx,
	}

	if opts.Lifespan > 0 {
		c.timed = true
		c.lifespan = float64(opts.Lifespan) / float64(time.Millisecond)
	}

	minSpeed := minRotationSpeedPerDensity * density
	c.rotationSpeed = between(rng, minSpeed, 3*minSpeed)

	if c.shape.Kind == Bitmap {
		c.color = c.shape.Colors[rng.Intn(len(c.shape.Colors))]

		lo, hi := c.shape.scaleBounds()
		c.bitmapScale = between(rng, lo, hi)

		scaler := opts.Scaler
		if scaler == nil {
			scaler = NearestScaler{}
		}
		c.image = scaler.ScaleImage(c.shape.Image, c.bitmapScale)
	}

	return c, nil
}

// ApplyForce accumulates force/mass into the acceleration.
// Acceleration is never cleared by Update, so a force applied every frame
// keeps increasing the velocity change per frame.
func (c *Confetti) ApplyForce(force Vector) {
	f := force.Copy()
	f.Div(c.size.Mass)
	c.acceleration.Add(f)
}

// Render updates the particle and then displays it.
func (c *Confetti) Render(canvas Canvas, deltaTime float64) {
	c.Update(deltaTime)
	c.Display(canvas)
}

// Update advances the simulation by deltaTime seconds.
// A step that is not a positive finite number is ignored.
func (c *Confetti) Update(deltaTime float64) {
	if c.IsDead() || !(deltaTime > 0) || math.IsInf(deltaTime, 1) {
		return
	}

	c.velocity.Add(c.acceleration)

	v := c.velocity.Copy()
	v.Mult(deltaTime * ReferenceFrameRate)
	c.location.Add(v)

	if c.timed {
		c.lifespan -= deltaTime * 1000
		if c.lifespan <= expiryTolerance {
			c.lifespan = 0
		}
	} else {
		c.updateAlpha(deltaTime)
	}

	step := c.rotationSpeed * deltaTime * ReferenceFrameRate
	c.rotation = math.Mod(c.rotation+step, 360)
	if c.rotation < 0 {
		c.rotation += 360
	}

	c.rotationWidth -= step
	if c.rotationWidth < 0 {
		c.rotationWidth = c.width
	}
}

func (c *Confetti) updateAlpha(deltaTime float64) {
	if !c.fadeOut {
		c.alpha = 0
		return
	}
	c.alpha = math.Min(c.alpha-fadeStep*deltaTime*ReferenceFrameRate, maxAlpha)
	if c.alpha < 0 {
		c.alpha = 0
	}
}

// Display draws the particle. A particle below the bottom edge is killed
// instead; one outside the other edges is skipped but stays alive.
func (c *Confetti) Display(canvas Canvas) {
	if c.IsDead() {
		return
	}

	if c.location.Y > canvas.Height() {
		c.kill()
		return
	}

	if c.location.X > canvas.Width() || c.location.X+c.width < 0 || c.location.Y+c.width < 0 {
		return
	}

	r := c.Bounds()
	paint := Paint{Color: c.color, Alpha: c.Alpha()}

	canvas.Save()
	canvas.Rotate(c.rotation, r.CenterX(), r.CenterY())
	switch c.shape.Kind {
	case Circle:
		canvas.DrawOval(r, paint)
	case Rectangle:
		canvas.DrawRect(r, paint)
	case Bitmap:
		if c.image != nil {
			paint.Tint = true
			canvas.DrawImage(c.image, r.Left, r.Top, paint)
		}
	}
	canvas.Restore()
}

// kill forces the lifespan to zero.
func (c *Confetti) kill() {
	c.timed = true
	c.lifespan = 0
}

// IsDead reports whether the particle has faded out, run out of time or
// fallen below the canvas. Dead is terminal.
func (c *Confetti) IsDead() bool {
	return c.alpha <= 0 || (c.timed && c.lifespan <= 0)
}

// Bounds returns the drawing rectangle before rotation.
// Left and right are swapped when needed so Left <= Right; some backends
// refuse inverted rectangles.
func (c *Confetti) Bounds() Rect {
	left := c.location.X + (c.width - c.rotationWidth)
	right := c.location.X + c.rotationWidth
	if left > right {
		left, right = right, left
	}
	return Rect{Left: left, Top: c.location.Y, Right: right, Bottom: c.location.Y + c.width}
}

// Location returns the top-left corner of the particle.
func (c *Confetti) Location() Vector { return c.location }

// Velocity returns the velocity in pixels per reference frame.
func (c *Confetti) Velocity() Vector { return c.velocity }

// Acceleration returns the accumulated acceleration.
func (c *Confetti) Acceleration() Vector { return c.acceleration }

// Color returns the fill colour, or the picked palette tint for bitmaps.
func (c *Confetti) Color() Color { return c.color }

// Size returns the size and mass the particle was built with.
func (c *Confetti) Size() Size { return c.size }

// Shape returns the drawn primitive.
func (c *Confetti) Shape() Shape { return c.shape }

// FadeOut reports whether a fade based particle decays gradually.
func (c *Confetti) FadeOut() bool { return c.fadeOut }

// Alpha returns the current opacity in [0,255].
func (c *Confetti) Alpha() uint8 {
	return uint8(math.Max(0, math.Min(c.alpha, maxAlpha)))
}

// Lifespan returns the remaining countdown, or FadeBased.
func (c *Confetti) Lifespan() time.Duration {
	if !c.timed {
		return FadeBased
	}
	return time.Duration(c.lifespan * float64(time.Millisecond))
}

// Rotation returns the rotation in degrees, in [0,360).
func (c *Confetti) Rotation() float64 { return c.rotation }

// RotationSpeed returns the degrees turned per reference frame.
func (c *Confetti) RotationSpeed() float64 { return c.rotationSpeed }

// RotationWidth returns the current drawn width of the flipping piece.
func (c *Confetti) RotationWidth() float64 { return c.rotationWidth }

// Image returns the scaled bitmap, nil for non bitmap shapes.
func (c *Confetti) Image() image.Image { return c.image }

// BitmapScale returns the scale factor drawn for bitmap shapes.
func (c *Confetti) BitmapScale() float64 { return c.bitmapScale }
