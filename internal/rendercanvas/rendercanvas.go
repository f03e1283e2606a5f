// Package rendercanvas is the default render.Canvas implementation, backed
// by the pack's own 2D drawing library (github.com/fogleman/gg) in place of
// a hand-rolled scanline rasterizer.
package rendercanvas

import (
	"image"
	"image/color"
	"sync"

	"github.com/fogleman/gg"

	"github.com/pspoerri/tilestore/internal/render"
	"github.com/pspoerri/tilestore/internal/tilestore"
)

// rgbaPoolKey identifies a backing-image pool by dimensions.
type rgbaPoolKey struct{ w, h int }

// rgbaPools maps (width, height) -> *sync.Pool of *image.RGBA, adapted from
// the teacher's tile.GetRGBA/PutRGBA pair. In practice a run only ever
// renders one or two distinct output sizes, so the map stays tiny.
var rgbaPools sync.Map

func getRGBA(w, h int) *image.RGBA {
	key := rgbaPoolKey{w, h}
	if p, ok := rgbaPools.Load(key); ok {
		if v := p.(*sync.Pool).Get(); v != nil {
			img := v.(*image.RGBA)
			clear(img.Pix)
			return img
		}
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func putRGBA(img *image.RGBA) {
	if img == nil {
		return
	}
	key := rgbaPoolKey{img.Rect.Dx(), img.Rect.Dy()}
	p, _ := rgbaPools.LoadOrStore(key, &sync.Pool{})
	p.(*sync.Pool).Put(img)
}

// Canvas wraps a *gg.Context, drawing directly onto a pooled *image.RGBA, to
// satisfy render.Canvas.
type Canvas struct {
	ctx *gg.Context
	img *image.RGBA
}

// New returns a Canvas sized width x height, ready for drawing. Its backing
// image comes from a dimension-keyed pool; call Release when done with it
// to let a later New of the same size reuse the backing array.
func New(width, height int) *Canvas {
	img := getRGBA(width, height)
	return &Canvas{ctx: gg.NewContextForRGBA(img), img: img}
}

// Image returns the composited image. Call this only after Render has
// finished drawing onto the canvas.
func (c *Canvas) Image() image.Image {
	return c.ctx.Image()
}

// Release returns the canvas's backing image to the pool. The canvas must
// not be used again afterward, and any caller still holding the result of
// Image must be done reading it.
func (c *Canvas) Release() {
	putRGBA(c.img)
	c.img = nil
	c.ctx = nil
}

// Fill paints the entire canvas with col, used once at the start of a
// render call to establish the background.
func (c *Canvas) Fill(col color.Color) {
	c.ctx.SetColor(col)
	c.ctx.Clear()
}

// Stroke draws pts as a connected polyline, optionally dashed.
func (c *Canvas) Stroke(pts []tilestore.Coordinate, col color.Color, width float64, dashed bool) {
	if len(pts) < 2 {
		return
	}
	if dashed {
		c.ctx.SetDash(width*3, width*2)
	} else {
		c.ctx.SetDash()
	}
	c.ctx.SetLineWidth(width)
	c.ctx.SetColor(col)
	c.path(pts)
	c.ctx.Stroke()
	c.ctx.SetDash()
}

// Polyline draws pts as a connected, undashed line.
func (c *Canvas) Polyline(pts []tilestore.Coordinate, col color.Color, width float64) {
	if len(pts) < 2 {
		return
	}
	c.ctx.SetDash()
	c.ctx.SetLineWidth(width)
	c.ctx.SetColor(col)
	c.path(pts)
	c.ctx.Stroke()
}

// Polygon fills the closed path formed by pts.
func (c *Canvas) Polygon(pts []tilestore.Coordinate, fill color.Color) {
	if len(pts) < 2 {
		return
	}
	c.ctx.SetColor(fill)
	c.path(pts)
	c.ctx.ClosePath()
	c.ctx.Fill()
}

// Text draws s at p in style.Color. style.FontSize is not applied; the
// context's current font face is used.
func (c *Canvas) Text(p tilestore.Coordinate, s string, style render.TextStyle) {
	c.ctx.SetColor(style.Color)
	c.ctx.DrawString(s, float64(p.X), float64(p.Y))
}

func (c *Canvas) path(pts []tilestore.Coordinate) {
	c.ctx.MoveTo(float64(pts[0].X), float64(pts[0].Y))
	for _, pt := range pts[1:] {
		c.ctx.LineTo(float64(pt.X), float64(pt.Y))
	}
}

var _ render.Canvas = (*Canvas)(nil)
