// Package recorder provides a confetti.Canvas that records calls instead of
// drawing. It does not link Ebitengine, so tests and the headless simulator
// run without a display.
package recorder

import (
	"fmt"
	"image"

	"github.com/decker502/konfetti/pkg/confetti"
)

// OpKind identifies a recorded canvas call.
type OpKind int

const (
	OpSave OpKind = iota
	OpRestore
	OpRotate
	OpOval
	OpRect
	OpImage
)

func (k OpKind) String() string {
	switch k {
	case OpSave:
		return "save"
	case OpRestore:
		return "restore"
	case OpRotate:
		return "rotate"
	case OpOval:
		return "oval"
	case OpRect:
		return "rect"
	case OpImage:
		return "image"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// Op is one recorded call. Only the fields relevant to Kind are set.
type Op struct {
	Kind    OpKind
	Rect    confetti.Rect
	Paint   confetti.Paint
	Image   image.Image
	X, Y    float64
	Degrees float64
}

// Recorder is a confetti.Canvas that draws nothing and records every call.
// It backs the headless simulator and the tests.
type Recorder struct {
	W, H float64
	Ops  []Op

	depth int
}

// New returns a Recorder of the given size.
func New(width, height float64) *Recorder {
	return &Recorder{W: width, H: height}
}

func (r *Recorder) Width() float64  { return r.W }
func (r *Recorder) Height() float64 { return r.H }

func (r *Recorder) Save() {
	r.depth++
	r.Ops = append(r.Ops, Op{Kind: OpSave})
}

func (r *Recorder) Restore() {
	if r.depth == 0 {
		panic("canvas: Restore without Save")
	}
	r.depth--
	r.Ops = append(r.Ops, Op{Kind: OpRestore})
}

func (r *Recorder) Rotate(degrees, px, py float64) {
	r.Ops = append(r.Ops, Op{Kind: OpRotate, Degrees: degrees, X: px, Y: py})
}

func (r *Recorder) DrawOval(rect confetti.Rect, p confetti.Paint) {
	r.Ops = append(r.Ops, Op{Kind: OpOval, Rect: rect, Paint: p})
}

func (r *Recorder) DrawRect(rect confetti.Rect, p confetti.Paint) {
	r.Ops = append(r.Ops, Op{Kind: OpRect, Rect: rect, Paint: p})
}

func (r *Recorder) DrawImage(img image.Image, x, y float64, p confetti.Paint) {
	r.Ops = append(r.Ops, Op{Kind: OpImage, Image: img, X: x, Y: y, Paint: p})
}

// DrawCalls counts the recorded oval, rect and image draws.
func (r *Recorder) DrawCalls() int {
	n := 0
	for _, op := range r.Ops {
		switch op.Kind {
		case OpOval, OpRect, OpImage:
			n++
		}
	}
	return n
}

// Depth returns the current Save nesting.
func (r *Recorder) Depth() int { return r.depth }

// Reset drops the recorded calls, keeping the size.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
	r.depth = 0
}
