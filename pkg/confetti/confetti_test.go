package confetti_test

import (
	"errors"
	"image"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/decker502/konfetti/pkg/canvas/recorder"
	"github.com/decker502/konfetti/pkg/confetti"
)

// scriptedRand replays fixed draws so derived values can be asserted exactly.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *scriptedRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	i := r.ints[0]
	r.ints = r.ints[1:]
	return i % n
}

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func newParticle(t *testing.T, opts confetti.Options) *confetti.Confetti {
	t.Helper()
	if opts.Size == (confetti.Size{}) {
		opts.Size = confetti.Size{SizeInPx: 10, Mass: 2}
	}
	if opts.Rand == nil {
		opts.Rand = &scriptedRand{}
	}
	c, err := confetti.New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	tests := []struct {
		name    string
		opts    confetti.Options
		wantErr error
	}{
		{
			name:    "zero mass",
			opts:    confetti.Options{Size: confetti.Size{SizeInPx: 10, Mass: 0}},
			wantErr: confetti.ErrInvalidMass,
		},
		{
			name:    "negative mass",
			opts:    confetti.Options{Size: confetti.Size{SizeInPx: 10, Mass: -1}},
			wantErr: confetti.ErrInvalidMass,
		},
		{
			name:    "NaN mass",
			opts:    confetti.Options{Size: confetti.Size{SizeInPx: 10, Mass: math.NaN()}},
			wantErr: confetti.ErrInvalidMass,
		},
		{
			name:    "zero size",
			opts:    confetti.Options{Size: confetti.Size{SizeInPx: 0, Mass: 1}},
			wantErr: confetti.ErrInvalidSize,
		},
		{
			name:    "negative density",
			opts:    confetti.Options{Size: confetti.NewSize(10), Density: -2},
			wantErr: confetti.ErrInvalidDensity,
		},
		{
			name:    "bitmap without image",
			opts:    confetti.Options{Size: confetti.NewSize(10), Shape: confetti.BitmapShape(nil, []confetti.Color{1}, 1, 0)},
			wantErr: confetti.ErrMissingImage,
		},
		{
			name:    "bitmap with empty palette",
			opts:    confetti.Options{Size: confetti.NewSize(10), Shape: confetti.BitmapShape(img, nil, 1, 0)},
			wantErr: confetti.ErrEmptyPalette,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := confetti.New(tt.opts)
			if err == nil {
				t.Fatalf("expected error, got particle %+v", c)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_RotationSpeedRange(t *testing.T) {
	tests := []struct {
		name    string
		density float64
		draw    float64
		want    float64
	}{
		{name: "lower bound", density: 1, draw: 0, want: 0.29},
		{name: "midpoint", density: 2, draw: 0.5, want: 0.58 + 0.5*(1.74-0.58)},
		{name: "default density", density: 0, draw: 0, want: 0.29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newParticle(t, confetti.Options{
				Density: tt.density,
				Rand:    &scriptedRand{floats: []float64{tt.draw}},
			})
			if !approx(c.RotationSpeed(), tt.want) {
				t.Errorf("RotationSpeed = %v, want %v", c.RotationSpeed(), tt.want)
			}
		})
	}

	// 随机源的全部取值都落在 [min, 3*min) 内
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		c := newParticle(t, confetti.Options{Density: 3, Rand: rng})
		if c.RotationSpeed() < 0.87-eps || c.RotationSpeed() >= 2.61 {
			t.Fatalf("RotationSpeed %v outside [0.87, 2.61)", c.RotationSpeed())
		}
	}
}

func TestNew_BitmapDraws(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 20))
	palette := []confetti.Color{0xffff0000, 0xff00ff00, 0xff0000ff}

	c := newParticle(t, confetti.Options{
		Color: 0xffffffff,
		Shape: confetti.BitmapShape(src, palette, 1, 0.5),
		// rotation speed, then bitmap scale
		Rand: &scriptedRand{floats: []float64{0, 0}, ints: []int{2}},
	})

	if c.Color() != palette[2] {
		t.Errorf("Color = %v, want palette entry %v", c.Color(), palette[2])
	}
	if !approx(c.BitmapScale(), 0.5) {
		t.Errorf("BitmapScale = %v, want 0.5", c.BitmapScale())
	}
	if c.Image() == nil {
		t.Fatal("bitmap particle has no scaled image")
	}
	if b := c.Image().Bounds(); b.Dx() != 5 || b.Dy() != 10 {
		t.Errorf("scaled image = %dx%d, want 5x10", b.Dx(), b.Dy())
	}
}

func TestNew_BitmapScaleClamped(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 100))

	c := newParticle(t, confetti.Options{
		Shape: confetti.BitmapShape(src, []confetti.Color{1}, 0.2, 0.5),
		Rand:  &scriptedRand{floats: []float64{0, 0}},
	})
	if !approx(c.BitmapScale(), 0.01) {
		t.Errorf("BitmapScale = %v, want clamp to 0.01", c.BitmapScale())
	}
	if b := c.Image().Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Errorf("scaled image = %dx%d, want 1x1", b.Dx(), b.Dy())
	}
}

func TestNew_DoesNotAliasOptions(t *testing.T) {
	opts := confetti.Options{
		Location: confetti.Vector{X: 1, Y: 1},
		Velocity: confetti.Vector{X: 2, Y: 2},
	}
	c := newParticle(t, opts)
	c.Update(1.0 / 60)

	if opts.Location != (confetti.Vector{X: 1, Y: 1}) || opts.Velocity != (confetti.Vector{X: 2, Y: 2}) {
		t.Errorf("options mutated by Update: %+v %+v", opts.Location, opts.Velocity)
	}
}

func TestApplyForce(t *testing.T) {
	c := newParticle(t, confetti.Options{Size: confetti.Size{SizeInPx: 10, Mass: 2}})

	force := confetti.Vector{X: 0, Y: 10}
	c.ApplyForce(force)
	if c.Acceleration() != (confetti.Vector{X: 0, Y: 5}) {
		t.Fatalf("Acceleration = %+v, want (0,5)", c.Acceleration())
	}
	if force != (confetti.Vector{X: 0, Y: 10}) {
		t.Errorf("caller force mutated: %+v", force)
	}

	c.ApplyForce(force)
	if c.Acceleration() != (confetti.Vector{X: 0, Y: 10}) {
		t.Errorf("Acceleration after two forces = %+v, want (0,10)", c.Acceleration())
	}
}

func TestUpdate_ReferenceExample(t *testing.T) {
	c := newParticle(t, confetti.Options{
		Size:    confetti.Size{SizeInPx: 10, Mass: 2},
		FadeOut: true,
	})
	c.ApplyForce(confetti.Vector{X: 0, Y: 10})
	c.Update(1.0 / 60)

	if c.Velocity() != (confetti.Vector{X: 0, Y: 5}) {
		t.Errorf("Velocity = %+v, want (0,5)", c.Velocity())
	}
	if !approx(c.Location().Y, 5) || c.Location().X != 0 {
		t.Errorf("Location = %+v, want (0,5)", c.Location())
	}
}

func TestUpdate_FrameRateIndependentMotion(t *testing.T) {
	opts := confetti.Options{Velocity: confetti.Vector{X: 3, Y: 1}, Lifespan: 10 * time.Second}
	at60 := newParticle(t, opts)
	at120 := newParticle(t, opts)

	for i := 0; i < 60; i++ {
		at60.Update(1.0 / 60)
	}
	for i := 0; i < 120; i++ {
		at120.Update(1.0 / 120)
	}

	if math.Abs(at60.Location().X-at120.Location().X) > 1e-6 || math.Abs(at60.Location().Y-at120.Location().Y) > 1e-6 {
		t.Errorf("60fps %+v vs 120fps %+v", at60.Location(), at120.Location())
	}
	if !approx(at60.Location().X, 180) {
		t.Errorf("X after one second = %v, want 180", at60.Location().X)
	}
}

func TestUpdate_AlphaAndRotationInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 20; n++ {
		c := newParticle(t, confetti.Options{Density: 4, FadeOut: true, Rand: rng})
		for i := 0; i < 500; i++ {
			c.Update(rng.Float64() / 10)
			if r := c.Rotation(); r < 0 || r >= 360 {
				t.Fatalf("rotation %v outside [0,360)", r)
			}
			if w := c.RotationWidth(); w < 0 || w > c.Size().SizeInPx {
				t.Fatalf("rotation width %v outside [0,%v]", w, c.Size().SizeInPx)
			}
		}
		if !c.IsDead() || c.Alpha() != 0 {
			t.Errorf("particle should have faded out, alpha=%d", c.Alpha())
		}
	}
}

func TestUpdate_FadeOut(t *testing.T) {
	c := newParticle(t, confetti.Options{FadeOut: true})
	c.Update(1.0 / 60)
	if c.Alpha() != 250 {
		t.Errorf("Alpha after one frame = %d, want 250", c.Alpha())
	}

	// 255 / 5 = 51 帧
	for i := 0; i < 49; i++ {
		c.Update(1.0 / 60)
	}
	if c.IsDead() {
		t.Fatalf("particle dead too early, alpha=%d", c.Alpha())
	}
	c.Update(1.0 / 60)
	if !c.IsDead() {
		t.Errorf("particle should be dead after 51 frames, alpha=%d", c.Alpha())
	}
	if c.Lifespan() != confetti.FadeBased {
		t.Errorf("Lifespan = %v, want FadeBased", c.Lifespan())
	}
}

func TestUpdate_NoFadeDiesAfterOneUpdate(t *testing.T) {
	c := newParticle(t, confetti.Options{FadeOut: false, Lifespan: confetti.FadeBased})
	if c.IsDead() {
		t.Fatal("particle dead before first update")
	}
	c.Update(1.0 / 60)
	if !c.IsDead() {
		t.Error("fade based particle without fade out should die after one update")
	}
}

func repeatStep(dt float64, n int) []float64 {
	steps := make([]float64, n)
	for i := range steps {
		steps[i] = dt
	}
	return steps
}

func TestUpdate_TimedLifespanSplitIndependent(t *testing.T) {
	tests := []struct {
		name  string
		steps []float64
	}{
		{name: "one call", steps: []float64{1.0}},
		{name: "ten calls", steps: repeatStep(0.1, 10)},
		{name: "uneven", steps: []float64{0.25, 0.5, 0.125, 0.125}},
		{name: "60 frames", steps: repeatStep(1.0/60, 60)},
		{name: "thirds", steps: repeatStep(1.0/3, 3)},
		{name: "sixths", steps: repeatStep(1.0/6, 6)},
		{name: "144 frames", steps: repeatStep(1.0/144, 144)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newParticle(t, confetti.Options{Lifespan: time.Second, FadeOut: true})
			for i, dt := range tt.steps {
				if c.IsDead() {
					t.Fatalf("expired early at step %d", i)
				}
				c.Update(dt)
			}
			if !c.IsDead() {
				t.Errorf("particle should be expired, remaining %v", c.Lifespan())
			}
			// 定时模式不走透明度衰减
			if c.Alpha() != 255 {
				t.Errorf("timed particle alpha = %d, want 255", c.Alpha())
			}
		})
	}
}

func TestUpdate_IgnoresInvalidDelta(t *testing.T) {
	tests := []struct {
		name string
		dt   float64
	}{
		{name: "zero", dt: 0},
		{name: "negative", dt: -1},
		{name: "NaN", dt: math.NaN()},
		{name: "+Inf", dt: math.Inf(1)},
		{name: "-Inf", dt: math.Inf(-1)},
	}

	for _, tt := range tests {
		for _, timed := range []bool{false, true} {
			opts := confetti.Options{
				Velocity: confetti.Vector{X: 1, Y: 2},
				FadeOut:  true,
				Density:  2,
				Rand:     &scriptedRand{floats: []float64{0.5}},
			}
			if timed {
				opts.Lifespan = time.Second
			}
			c := newParticle(t, opts)
			loc, rot, life := c.Location(), c.Rotation(), c.Lifespan()

			c.Update(tt.dt)

			if c.IsDead() {
				t.Errorf("%s (timed=%v): particle died", tt.name, timed)
			}
			if c.Alpha() != 255 {
				t.Errorf("%s (timed=%v): alpha = %d, want 255", tt.name, timed, c.Alpha())
			}
			if c.Location() != loc {
				t.Errorf("%s (timed=%v): location moved to %+v", tt.name, timed, c.Location())
			}
			if c.Rotation() != rot || math.IsNaN(c.Rotation()) {
				t.Errorf("%s (timed=%v): rotation = %v, want %v", tt.name, timed, c.Rotation(), rot)
			}
			if c.Lifespan() != life {
				t.Errorf("%s (timed=%v): lifespan = %v, want %v", tt.name, timed, c.Lifespan(), life)
			}

			// 无效步长之后仍可正常推进
			c.Update(1.0 / 60)
			if c.Alpha() > 255 || math.IsNaN(c.Rotation()) {
				t.Errorf("%s (timed=%v): invalid state after valid update", tt.name, timed)
			}
		}
	}
}

func TestUpdate_DeterministicWithSeed(t *testing.T) {
	build := func() *confetti.Confetti {
		return newParticle(t, confetti.Options{
			Velocity: confetti.Vector{X: 1.5, Y: -2},
			Density:  2.5,
			FadeOut:  true,
			Rand:     confetti.NewRand(99),
		})
	}
	a, b := build(), build()
	steps := []float64{0.016, 0.033, 0.008, 0.016, 0.05}
	for _, dt := range steps {
		a.ApplyForce(confetti.Vector{Y: 0.01})
		b.ApplyForce(confetti.Vector{Y: 0.01})
		a.Update(dt)
		b.Update(dt)
	}

	if a.Location() != b.Location() || a.Rotation() != b.Rotation() || a.Alpha() != b.Alpha() {
		t.Errorf("diverged: %+v/%v/%d vs %+v/%v/%d",
			a.Location(), a.Rotation(), a.Alpha(), b.Location(), b.Rotation(), b.Alpha())
	}
}

func TestDisplay_KillsBelowBottom(t *testing.T) {
	cv := recorder.New(100, 100)
	c := newParticle(t, confetti.Options{Location: confetti.Vector{X: 10, Y: 101}, FadeOut: true})

	c.Display(cv)
	if !c.IsDead() {
		t.Fatal("particle below the bottom edge should be dead")
	}
	if c.Lifespan() != 0 {
		t.Errorf("Lifespan = %v, want 0", c.Lifespan())
	}
	if len(cv.Ops) != 0 {
		t.Errorf("dead particle drew %d ops", len(cv.Ops))
	}

	c.Render(cv, 1.0/60)
	if len(cv.Ops) != 0 {
		t.Errorf("dead particle drawn again: %v", cv.Ops)
	}
}

func TestDisplay_CullsOutsideWithoutKilling(t *testing.T) {
	tests := []struct {
		name string
		loc  confetti.Vector
	}{
		{name: "past right edge", loc: confetti.Vector{X: 101, Y: 50}},
		{name: "left of origin", loc: confetti.Vector{X: -11, Y: 50}},
		{name: "above origin", loc: confetti.Vector{X: 50, Y: -11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := recorder.New(100, 100)
			c := newParticle(t, confetti.Options{Location: tt.loc, FadeOut: true})
			c.Display(cv)
			if len(cv.Ops) != 0 {
				t.Errorf("culled particle drew %v", cv.Ops)
			}
			if c.IsDead() {
				t.Error("culled particle should stay alive")
			}
		})
	}
}

func TestDisplay_DrawSequence(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))

	tests := []struct {
		name  string
		shape confetti.Shape
		want  recorder.OpKind
	}{
		{name: "circle", shape: confetti.CircleShape, want: recorder.OpOval},
		{name: "rect", shape: confetti.RectShape, want: recorder.OpRect},
		{name: "bitmap", shape: confetti.BitmapShape(src, []confetti.Color{0xff123456}, 1, 0), want: recorder.OpImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := recorder.New(100, 100)
			c := newParticle(t, confetti.Options{
				Location: confetti.Vector{X: 20, Y: 30},
				Color:    0xffabcdef,
				Shape:    tt.shape,
				FadeOut:  true,
			})
			c.Render(cv, 1.0/60)

			if len(cv.Ops) != 4 {
				t.Fatalf("expected 4 ops, got %v", cv.Ops)
			}
			if cv.Ops[0].Kind != recorder.OpSave || cv.Ops[3].Kind != recorder.OpRestore {
				t.Errorf("draw not wrapped in save/restore: %v", cv.Ops)
			}

			rot := cv.Ops[1]
			bounds := c.Bounds()
			if rot.Kind != recorder.OpRotate || rot.Degrees != c.Rotation() ||
				!approx(rot.X, bounds.CenterX()) || !approx(rot.Y, bounds.CenterY()) {
				t.Errorf("rotate op = %+v, want %v around (%v,%v)", rot, c.Rotation(), bounds.CenterX(), bounds.CenterY())
			}

			draw := cv.Ops[2]
			if draw.Kind != tt.want {
				t.Fatalf("draw kind = %v, want %v", draw.Kind, tt.want)
			}
			if draw.Paint.Alpha != c.Alpha() {
				t.Errorf("paint alpha = %d, want %d", draw.Paint.Alpha, c.Alpha())
			}
			if draw.Paint.Color != c.Color() {
				t.Errorf("paint color = %v, want %v", draw.Paint.Color, c.Color())
			}
			if tt.want == recorder.OpImage {
				if !draw.Paint.Tint || draw.Image != c.Image() || draw.X != bounds.Left || draw.Y != bounds.Top {
					t.Errorf("image op = %+v", draw)
				}
			}
		})
	}
}

func TestBounds_SwapsInvertedEdges(t *testing.T) {
	c := newParticle(t, confetti.Options{
		Location: confetti.Vector{X: 50, Y: 40},
		Size:     confetti.Size{SizeInPx: 10, Mass: 1},
	})

	r := c.Bounds()
	if r.Left != 50 || r.Right != 60 || r.Top != 40 || r.Bottom != 50 {
		t.Errorf("initial bounds = %+v", r)
	}

	// left = x + (10-2) = 58, right = x + 2 = 52
	c.SetRotationWidth(2)
	r = c.Bounds()
	if r.Left != 52 || r.Right != 58 {
		t.Errorf("swapped bounds = %+v, want left 52 right 58", r)
	}
	if r.Left > r.Right {
		t.Error("left must not exceed right")
	}
}
