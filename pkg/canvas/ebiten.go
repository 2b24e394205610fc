// Package canvas provides the Ebitengine backed confetti.Canvas used by the
// game loop. Headless runs use pkg/canvas/recorder instead.
package canvas

import (
	"image"
	"image/color"
	"log"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/colorm"

	"github.com/decker502/konfetti/pkg/confetti"
)

const (
	// ovalSegments 椭圆近似的多边形边数
	ovalSegments = 20
	// maxConvertedImages 非 ebiten.Image 的转换缓存上限
	maxConvertedImages = 256
)

var (
	whiteOnce     sync.Once
	whiteSubImage *ebiten.Image
)

// solidSource returns a 1x1 white source for DrawTriangles.
func solidSource() *ebiten.Image {
	whiteOnce.Do(func() {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteSubImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	})
	return whiteSubImage
}

// Canvas draws confetti onto an *ebiten.Image.
// Transforms follow the save/rotate/restore model: Rotate composes onto the
// current transform and Restore pops back to the last Save.
type Canvas struct {
	dst   *ebiten.Image
	geoM  ebiten.GeoM
	stack []ebiten.GeoM

	vertices []ebiten.Vertex
	indices  []uint16

	converted map[image.Image]*ebiten.Image
}

// New returns a Canvas drawing onto dst.
func New(dst *ebiten.Image) *Canvas {
	return &Canvas{
		dst:       dst,
		converted: make(map[image.Image]*ebiten.Image),
	}
}

// Reset retargets the canvas (screens may change between frames) and
// clears any unbalanced transform state.
func (c *Canvas) Reset(dst *ebiten.Image) {
	if len(c.stack) != 0 {
		log.Printf("[Canvas] 警告：%d 个 Save 未配对 Restore", len(c.stack))
	}
	c.dst = dst
	c.geoM.Reset()
	c.stack = c.stack[:0]
}

func (c *Canvas) Width() float64  { return float64(c.dst.Bounds().Dx()) }
func (c *Canvas) Height() float64 { return float64(c.dst.Bounds().Dy()) }

func (c *Canvas) Save() {
	c.stack = append(c.stack, c.geoM)
}

func (c *Canvas) Restore() {
	n := len(c.stack)
	if n == 0 {
		return
	}
	c.geoM = c.stack[n-1]
	c.stack = c.stack[:n-1]
}

// Rotate rotates subsequent drawing by degrees (clockwise on screen) around (px, py).
func (c *Canvas) Rotate(degrees, px, py float64) {
	var r ebiten.GeoM
	r.Translate(-px, -py)
	r.Rotate(degrees * math.Pi / 180)
	r.Translate(px, py)
	r.Concat(c.geoM)
	c.geoM = r
}

func (c *Canvas) DrawRect(r confetti.Rect, p confetti.Paint) {
	c.begin()
	c.addVertex(r.Left, r.Top, p)
	c.addVertex(r.Right, r.Top, p)
	c.addVertex(r.Right, r.Bottom, p)
	c.addVertex(r.Left, r.Bottom, p)
	c.indices = append(c.indices, 0, 1, 2, 0, 2, 3)
	c.flush()
}

func (c *Canvas) DrawOval(r confetti.Rect, p confetti.Paint) {
	rx, ry := r.Width()/2, r.Height()/2
	cx, cy := r.CenterX(), r.CenterY()

	c.begin()
	c.addVertex(cx, cy, p)
	for i := 0; i < ovalSegments; i++ {
		a := 2 * math.Pi * float64(i) / ovalSegments
		c.addVertex(cx+rx*math.Cos(a), cy+ry*math.Sin(a), p)
	}
	for i := 1; i <= ovalSegments; i++ {
		next := i%ovalSegments + 1
		c.indices = append(c.indices, 0, uint16(i), uint16(next))
	}
	c.flush()
}

// DrawImage draws img with its top-left corner at (x, y). With Paint.Tint
// every pixel takes the paint colour and keeps its own coverage.
func (c *Canvas) DrawImage(img image.Image, x, y float64, p confetti.Paint) {
	src := c.ebitenImage(img)

	var cm colorm.ColorM
	if p.Tint {
		cm.Scale(0, 0, 0, 1)
		cm.Translate(float64(p.Color.R())/0xff, float64(p.Color.G())/0xff, float64(p.Color.B())/0xff, 0)
	}
	cm.Scale(1, 1, 1, float64(p.Alpha)/0xff)

	colorm.DrawImage(c.dst, src, cm, c.imageOptions(x, y))
}

// imageOptions places an image at (x, y) under the current transform.
// Bitmaps are already nearest scaled on the CPU; sampling stays nearest so
// rotated pixel art keeps hard edges.
func (c *Canvas) imageOptions(x, y float64) *colorm.DrawImageOptions {
	op := &colorm.DrawImageOptions{}
	op.GeoM.Translate(x, y)
	op.GeoM.Concat(c.geoM)
	op.Filter = ebiten.FilterNearest
	return op
}

func (c *Canvas) ebitenImage(img image.Image) *ebiten.Image {
	if e, ok := img.(*ebiten.Image); ok {
		return e
	}
	if e, ok := c.converted[img]; ok {
		return e
	}
	if len(c.converted) >= maxConvertedImages {
		for k, e := range c.converted {
			e.Deallocate()
			delete(c.converted, k)
		}
	}
	e := ebiten.NewImageFromImage(img)
	c.converted[img] = e
	return e
}

func (c *Canvas) begin() {
	c.vertices = c.vertices[:0]
	c.indices = c.indices[:0]
}

func (c *Canvas) addVertex(x, y float64, p confetti.Paint) {
	dx, dy := c.geoM.Apply(x, y)
	c.vertices = append(c.vertices, ebiten.Vertex{
		DstX:   float32(dx),
		DstY:   float32(dy),
		SrcX:   1,
		SrcY:   1,
		ColorR: float32(p.Color.R()) / 0xff,
		ColorG: float32(p.Color.G()) / 0xff,
		ColorB: float32(p.Color.B()) / 0xff,
		ColorA: float32(p.Alpha) / 0xff,
	})
}

func (c *Canvas) flush() {
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	c.dst.DrawTriangles(c.vertices, c.indices, solidSource(), op)
}

// Scaler scales bitmaps once per particle and uploads the result as an
// *ebiten.Image so Canvas can draw it without conversion.
type Scaler struct {
	base confetti.NearestScaler
}

// ScaleImage implements confetti.ImageScaler.
func (s Scaler) ScaleImage(src image.Image, factor float64) image.Image {
	return ebiten.NewImageFromImage(s.base.ScaleImage(src, factor))
}

// DeviceDensity returns the pixel density of the current monitor, 1 when unknown.
func DeviceDensity() float64 {
	if m := ebiten.Monitor(); m != nil {
		if f := m.DeviceScaleFactor(); f > 0 {
			return f
		}
	}
	return confetti.DefaultDensity
}
