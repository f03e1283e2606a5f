package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/pspoerri/tilestore/internal/feature"
	"github.com/pspoerri/tilestore/internal/shape"
	"github.com/pspoerri/tilestore/internal/tilestore"
)

// recordingCanvas is a fake Canvas that records the order and kind of
// drawing calls it receives, standing in for internal/rendercanvas's real
// gg-backed implementation in unit tests.
type recordingCanvas struct {
	width, height int

	fills     []color.Color
	strokes   [][]tilestore.Coordinate
	polylines [][]tilestore.Coordinate
	polygons  [][]tilestore.Coordinate
	texts     []string
	order     []string // "stroke"/"polygon", in call order
}

func newRecordingCanvas(width, height int) *recordingCanvas {
	return &recordingCanvas{width: width, height: height}
}

func (c *recordingCanvas) Image() image.Image {
	return image.NewRGBA(image.Rect(0, 0, c.width, c.height))
}

func (c *recordingCanvas) Fill(col color.Color) { c.fills = append(c.fills, col) }
func (c *recordingCanvas) Stroke(pts []tilestore.Coordinate, col color.Color, width float64, dashed bool) {
	c.strokes = append(c.strokes, pts)
	c.order = append(c.order, "stroke")
}
func (c *recordingCanvas) Polyline(pts []tilestore.Coordinate, col color.Color, width float64) {
	c.polylines = append(c.polylines, pts)
}
func (c *recordingCanvas) Polygon(pts []tilestore.Coordinate, fill color.Color) {
	c.polygons = append(c.polygons, pts)
	c.order = append(c.order, "polygon")
}
func (c *recordingCanvas) Text(p tilestore.Coordinate, s string, style TextStyle) {
	c.texts = append(c.texts, s)
}

func TestTessellateDropsUnknown(t *testing.T) {
	q := NewQueue()
	bbox := tilestore.NewScreenBoundingBox()
	seq := NewSeqCounter()

	_, ok := Tessellate(feature.MapFeatureData{Environment: tilestore.Unknown}, seq, &bbox, q)
	if ok {
		t.Fatal("expected Unknown environment to be dropped")
	}
	if q.Len() != 0 {
		t.Fatalf("queue should stay empty, got %d", q.Len())
	}
}

func TestTessellateGrowsScreenBBox(t *testing.T) {
	q := NewQueue()
	bbox := tilestore.NewScreenBoundingBox()
	seq := NewSeqCounter()

	Tessellate(feature.MapFeatureData{
		Environment: tilestore.Road,
		Coordinates: []tilestore.Coordinate{{X: 0, Y: 0}, {X: 10, Y: 0}},
	}, seq, &bbox, q)
	Tessellate(feature.MapFeatureData{
		Environment: tilestore.Forest,
		Coordinates: []tilestore.Coordinate{{X: 5, Y: 5}, {X: 5, Y: 15}},
	}, seq, &bbox, q)

	if bbox.MinX != 0 || bbox.MaxX != 10 || bbox.MinY != 0 || bbox.MaxY != 15 {
		t.Fatalf("bbox = %+v, want {0 10 0 15}", bbox)
	}
}

func TestTessellatePreservesCoordinateCount(t *testing.T) {
	q := NewQueue()
	bbox := tilestore.NewScreenBoundingBox()
	seq := NewSeqCounter()

	coords := []tilestore.Coordinate{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	s, ok := Tessellate(feature.MapFeatureData{Environment: tilestore.Road, Coordinates: coords}, seq, &bbox, q)
	if !ok {
		t.Fatal("expected a shape")
	}
	got := len(shape.HeaderOf(s).ScreenCoordinates)
	if got != len(coords) {
		t.Fatalf("screenCoordinates length = %d, want %d", got, len(coords))
	}
}

func TestQueueDrainOrderIsNonDecreasingZIndex(t *testing.T) {
	q := NewQueue()
	bbox := tilestore.NewScreenBoundingBox()
	seq := NewSeqCounter()

	// Road (z=50) enqueued before Forest (z=20): drain must yield Forest first.
	Tessellate(feature.MapFeatureData{Environment: tilestore.Road, Coordinates: []tilestore.Coordinate{{X: 0, Y: 0}, {X: 1, Y: 1}}}, seq, &bbox, q)
	Tessellate(feature.MapFeatureData{Environment: tilestore.Forest, Coordinates: []tilestore.Coordinate{{X: 0, Y: 0}, {X: 1, Y: 1}}}, seq, &bbox, q)

	canvas := newRecordingCanvas(100, 100)
	Render(q, bbox, 100, 100, canvas)

	if len(canvas.polygons) != 1 || len(canvas.strokes) != 1 {
		t.Fatalf("expected one polygon (forest) and one stroke (road), got polygons=%d strokes=%d", len(canvas.polygons), len(canvas.strokes))
	}
	if canvas.order[0] != "polygon" || canvas.order[1] != "stroke" {
		t.Fatalf("draw order = %v, want [polygon stroke] (forest before road)", canvas.order)
	}
}

func TestRenderEmptySceneReturnsBackgroundOnly(t *testing.T) {
	q := NewQueue()
	bbox := tilestore.NewScreenBoundingBox()
	canvas := newRecordingCanvas(20, 10)

	img := Render(q, bbox, 20, 10, canvas)
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Fatalf("image size = %dx%d, want 20x10", img.Bounds().Dx(), img.Bounds().Dy())
	}
	if len(canvas.polygons) != 0 || len(canvas.strokes) != 0 {
		t.Fatal("expected no shapes drawn for an empty scene")
	}
}

func TestRenderSkipsDegenerateShapes(t *testing.T) {
	q := NewQueue()
	bbox := tilestore.NewScreenBoundingBox()
	seq := NewSeqCounter()

	// A single-coordinate Road is degenerate and must be skipped at render
	// time without aborting the rest of the drain.
	Tessellate(feature.MapFeatureData{Environment: tilestore.Road, Coordinates: []tilestore.Coordinate{{X: 0, Y: 0}}}, seq, &bbox, q)
	Tessellate(feature.MapFeatureData{Environment: tilestore.Highway, Coordinates: []tilestore.Coordinate{{X: 0, Y: 0}, {X: 5, Y: 5}}}, seq, &bbox, q)

	canvas := newRecordingCanvas(50, 50)
	Render(q, bbox, 50, 50, canvas)

	if len(canvas.strokes) != 1 {
		t.Fatalf("expected exactly one stroke (the non-degenerate highway), got %d", len(canvas.strokes))
	}
}

func TestRenderReturnsCorrectImageDimensions(t *testing.T) {
	q := NewQueue()
	bbox := tilestore.NewScreenBoundingBox()
	seq := NewSeqCounter()
	Tessellate(feature.MapFeatureData{Environment: tilestore.Road, Coordinates: []tilestore.Coordinate{{X: 0, Y: 0}, {X: 1, Y: 1}}}, seq, &bbox, q)

	canvas := newRecordingCanvas(64, 32)
	img := Render(q, bbox, 64, 32, canvas)
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Fatalf("image size = %dx%d, want 64x32", img.Bounds().Dx(), img.Bounds().Dy())
	}
}
