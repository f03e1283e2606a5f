// Package render tessellates classified features into shapes, orders them
// by z-index on a priority queue, and composites the drained shapes onto a
// raster canvas, mirroring the draw loop structure the teacher's tile
// generator uses to walk a raster row by row.
package render

import (
	"container/heap"
	"image"
	"image/color"

	"github.com/pspoerri/tilestore/internal/feature"
	"github.com/pspoerri/tilestore/internal/shape"
	"github.com/pspoerri/tilestore/internal/tilestore"
)

// TextStyle describes how a label is drawn by Canvas.Text.
type TextStyle struct {
	Color    color.Color
	FontSize float64
}

// Canvas is the abstract 2D drawing surface the renderer draws onto. The
// concrete implementation (internal/rendercanvas) wraps a real drawing
// library; this package never depends on one directly, per spec's
// "external collaborator" treatment of the concrete canvas. Image returns
// the canvas's backing image after drawing has finished.
type Canvas interface {
	Fill(c color.Color)
	Stroke(pts []tilestore.Coordinate, c color.Color, width float64, dashed bool)
	Polyline(pts []tilestore.Coordinate, c color.Color, width float64)
	Polygon(pts []tilestore.Coordinate, fill color.Color)
	Text(p tilestore.Coordinate, s string, style TextStyle)
	Image() image.Image
}

// queueItem pairs a shape with the heap bookkeeping container/heap needs.
type queueItem struct {
	shape shape.Shape
	index int
}

// Queue is a binary min-heap of shapes keyed by (zIndex, seq), so the
// smallest z-index drains first and ties break by insertion order.
type Queue struct {
	items []*queueItem
}

// NewQueue returns an empty, ready-to-use Queue.
func NewQueue() *Queue {
	q := &Queue{}
	heap.Init((*queueHeap)(q))
	return q
}

// Push enqueues s.
func (q *Queue) Push(s shape.Shape) {
	heap.Push((*queueHeap)(q), &queueItem{shape: s})
}

// Len reports the number of shapes still queued.
func (q *Queue) Len() int { return len(q.items) }

// pop removes and returns the lowest-(zIndex,seq) shape.
func (q *Queue) pop() shape.Shape {
	item := heap.Pop((*queueHeap)(q)).(*queueItem)
	return item.shape
}

// queueHeap implements container/heap.Interface over Queue.items.
type queueHeap Queue

func (h queueHeap) Len() int { return len(h.items) }
func (h queueHeap) Less(i, j int) bool {
	hi, hj := shape.HeaderOf(h.items[i].shape), shape.HeaderOf(h.items[j].shape)
	if hi.ZIndex != hj.ZIndex {
		return hi.ZIndex < hj.ZIndex
	}
	return hi.Seq() < hj.Seq()
}
func (h queueHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *queueHeap) Push(x any) {
	item := x.(*queueItem)
	item.index = len(h.items)
	h.items = append(h.items, item)
}
func (h *queueHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	return item
}

// SeqCounter hands out stable insertion-order tiebreakers across calls to
// Tessellate for one render; callers create a fresh counter per render call.
type SeqCounter struct{ next int }

// NewSeqCounter returns a fresh insertion-order counter for one render call.
func NewSeqCounter() *SeqCounter { return &SeqCounter{} }

func (c *SeqCounter) take() int {
	v := c.next
	c.next++
	return v
}

// Tessellate builds the shape variant selected by f.Environment, pushes it
// onto q keyed by its z-index, and grows bbox to cover its (pre-scaled)
// screen coordinates. Returns (nil, false) for EnvironmentCategory Unknown,
// which the spec requires the renderer to drop.
func Tessellate(f feature.MapFeatureData, seq *SeqCounter, bbox *tilestore.ScreenBoundingBox, q *Queue) (shape.Shape, bool) {
	coords := append([]tilestore.Coordinate(nil), f.Coordinates...)

	var s shape.Shape
	switch f.Environment {
	case tilestore.Plain:
		s = shape.NewGeoFeature(shape.GeoFeaturePlain, coords, seq.take())
	case tilestore.Forest:
		s = shape.NewGeoFeature(shape.GeoFeatureForest, coords, seq.take())
	case tilestore.Mountains:
		s = shape.NewGeoFeature(shape.GeoFeatureMountains, coords, seq.take())
	case tilestore.Desert:
		s = shape.NewGeoFeature(shape.GeoFeatureDesert, coords, seq.take())
	case tilestore.Lakes:
		s = shape.NewGeoFeature(shape.GeoFeatureLakes, coords, seq.take())
	case tilestore.NationalPark:
		s = shape.NewGeoFeature(shape.GeoFeatureNationalPark, coords, seq.take())
	case tilestore.Civilian, tilestore.Buildings:
		s = shape.NewGeoFeature(shape.GeoFeatureResidential, coords, seq.take())
	case tilestore.Water:
		s = shape.NewWaterway(f.GeometryKind == tilestore.GeometryPolygon, coords, seq.take())
	case tilestore.Road:
		s = shape.NewRoad(coords, seq.take())
	case tilestore.Highway:
		s = shape.NewHighway(coords, seq.take())
	case tilestore.Railway:
		s = shape.NewRailway(coords, seq.take())
	case tilestore.Border:
		s = shape.NewBorder(coords, seq.take())
	case tilestore.PopulatedPlace:
		s = shape.NewPopulatedPlace(f.Label, coords, seq.take())
	default:
		return nil, false
	}

	q.Push(s)
	for _, c := range coords {
		bbox.Grow(c.X, c.Y)
	}
	return s, true
}

// Render drains q in ascending z-order, translating and scaling each shape
// into canvas pixel space before drawing it, and returns canvas's backing
// image. An empty scene (non-positive bbox extent) returns the white
// background-filled canvas without draining any shapes onto it. canvas is
// expected to already be sized width x height (internal/rendercanvas pools
// its backing *image.RGBA by dimensions, adapted from the teacher's
// tile.GetRGBA/PutRGBA pair).
func Render(q *Queue, bbox tilestore.ScreenBoundingBox, width, height int, canvas Canvas) image.Image {
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	canvas.Fill(white)

	widthExtent, heightExtent := bbox.Width(), bbox.Height()
	if widthExtent <= 0 || heightExtent <= 0 {
		return canvas.Image()
	}

	scaleX := float32(width) / widthExtent
	scaleY := float32(height) / heightExtent
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}
	canvasHeight := float32(height)

	for q.Len() > 0 {
		s := q.pop()
		header := shape.HeaderOf(s)
		if len(header.ScreenCoordinates) < 2 {
			continue
		}
		drawShape(s, bbox.MinX, bbox.MinY, scale, canvasHeight, canvas)
	}

	return canvas.Image()
}

// drawShape translates and scales s in place, then issues the drawing
// primitive appropriate to its concrete type.
func drawShape(s shape.Shape, originX, originY, scale, canvasHeight float32, canvas Canvas) {
	switch v := s.(type) {
	case *shape.GeoFeature:
		v.TranslateAndScale(originX, originY, scale, canvasHeight)
		canvas.Polygon(v.ScreenCoordinates, v.Fill)
	case *shape.Waterway:
		v.TranslateAndScale(originX, originY, scale, canvasHeight)
		if v.IsPolygon {
			canvas.Polygon(v.ScreenCoordinates, v.Color)
		} else {
			canvas.Polyline(v.ScreenCoordinates, v.Color, 2)
		}
	case *shape.Road:
		v.TranslateAndScale(originX, originY, scale, canvasHeight)
		canvas.Stroke(v.ScreenCoordinates, v.Color, v.Width, false)
	case *shape.Highway:
		v.TranslateAndScale(originX, originY, scale, canvasHeight)
		canvas.Stroke(v.ScreenCoordinates, v.Color, v.Width, false)
	case *shape.Railway:
		v.TranslateAndScale(originX, originY, scale, canvasHeight)
		canvas.Stroke(v.ScreenCoordinates, v.Color, v.Width, true)
	case *shape.Border:
		v.TranslateAndScale(originX, originY, scale, canvasHeight)
		canvas.Stroke(v.ScreenCoordinates, v.Color, v.Width, true)
	case *shape.PopulatedPlace:
		v.TranslateAndScale(originX, originY, scale, canvasHeight)
		canvas.Text(v.ScreenCoordinates[0], v.Label, TextStyle{Color: color.Black, FontSize: 12})
	}
}
