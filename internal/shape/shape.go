// Package shape implements the tagged-variant shape model the renderer
// draws: a shared header carrying screen coordinates and a draw priority,
// plus one struct per visual variant. Dispatch on variant happens by type
// switch in the renderer's drain loop, the same shape the teacher's
// internal/encode package uses to dispatch an Encoder by declared format,
// rather than a shared interface method and vtable indirection.
package shape

import (
	"image/color"

	"github.com/pspoerri/tilestore/internal/tilestore"
)

// Header is embedded in every shape variant. ZIndex is the draw-order
// priority (lower draws first); seq is the stable insertion-order
// tiebreaker the renderer's priority queue uses when two shapes share a
// z-index.
type Header struct {
	ScreenCoordinates []tilestore.Coordinate
	ZIndex            int32
	seq               int
}

// Seq returns the insertion-order tiebreaker assigned at construction.
func (h Header) Seq() int { return h.seq }

// TranslateAndScale maps every screen coordinate from source-plane space
// into canvas pixel space: (x, y) -> ((x-originX)*scale, canvasHeight -
// (y-originY)*scale). Y is inverted because screen Y grows downward while
// the source plane's Y does not.
func (h *Header) TranslateAndScale(originX, originY, scale, canvasHeight float32) {
	for i, c := range h.ScreenCoordinates {
		h.ScreenCoordinates[i] = tilestore.Coordinate{
			X: (c.X - originX) * scale,
			Y: canvasHeight - (c.Y-originY)*scale,
		}
	}
}

// GeoFeatureKind distinguishes the filled-polygon subtypes sharing the
// GeoFeature variant, each with its own z-index band (10-35) and fill
// color.
type GeoFeatureKind uint8

const (
	GeoFeaturePlain GeoFeatureKind = iota
	GeoFeatureForest
	GeoFeatureMountains
	GeoFeatureDesert
	GeoFeatureLakes
	GeoFeatureNationalPark
	GeoFeatureResidential
)

// geoFeatureZIndex assigns each subtype's fixed z-index within the 10-35
// band, lowest drawn first.
var geoFeatureZIndex = map[GeoFeatureKind]int32{
	GeoFeaturePlain:        10,
	GeoFeatureMountains:    15,
	GeoFeatureDesert:       18,
	GeoFeatureForest:       20,
	GeoFeatureLakes:        25,
	GeoFeatureResidential:  30,
	GeoFeatureNationalPark: 35,
}

// geoFeatureColor is the fill table fixed at construction, per spec's "the
// implementer fixes a table at construction" note.
var geoFeatureColor = map[GeoFeatureKind]color.Color{
	GeoFeaturePlain:        color.RGBA{R: 0xd9, G: 0xe8, B: 0xc2, A: 0xff},
	GeoFeatureMountains:    color.RGBA{R: 0xb3, G: 0xa8, B: 0x9a, A: 0xff},
	GeoFeatureDesert:       color.RGBA{R: 0xe9, G: 0xdc, B: 0xab, A: 0xff},
	GeoFeatureForest:       color.RGBA{R: 0x8f, G: 0xbc, B: 0x6a, A: 0xff},
	GeoFeatureLakes:        color.RGBA{R: 0x9e, G: 0xc9, B: 0xe3, A: 0xff},
	GeoFeatureResidential:  color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff},
	GeoFeatureNationalPark: color.RGBA{R: 0xa9, G: 0xd1, B: 0x8a, A: 0xff},
}

// GeoFeature is a filled-polygon shape for terrain/landuse categories.
type GeoFeature struct {
	Header
	Kind GeoFeatureKind
	Fill color.Color
}

// NewGeoFeature constructs a GeoFeature, fixing its z-index and fill color
// from kind's entry in the style table.
func NewGeoFeature(kind GeoFeatureKind, coords []tilestore.Coordinate, seq int) *GeoFeature {
	return &GeoFeature{
		Header: Header{ScreenCoordinates: coords, ZIndex: geoFeatureZIndex[kind], seq: seq},
		Kind:   kind,
		Fill:   geoFeatureColor[kind],
	}
}

// Waterway is a line or filled polygon depending on the source geometry.
type Waterway struct {
	Header
	IsPolygon bool
	Color     color.Color
}

const waterwayZIndex int32 = 40

var waterwayColor = color.RGBA{R: 0x5b, G: 0x9b, B: 0xd5, A: 0xff}

// NewWaterway constructs a Waterway shape; isPolygon selects fill vs stroke
// at draw time.
func NewWaterway(isPolygon bool, coords []tilestore.Coordinate, seq int) *Waterway {
	return &Waterway{
		Header:    Header{ScreenCoordinates: coords, ZIndex: waterwayZIndex, seq: seq},
		IsPolygon: isPolygon,
		Color:     waterwayColor,
	}
}

// Road is a line shape drawn with a light stroke, mid width.
type Road struct {
	Header
	Color color.Color
	Width float64
}

const roadZIndex int32 = 50

// NewRoad constructs a Road shape.
func NewRoad(coords []tilestore.Coordinate, seq int) *Road {
	return &Road{
		Header: Header{ScreenCoordinates: coords, ZIndex: roadZIndex, seq: seq},
		Color:  color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Width:  2,
	}
}

// Highway is a line shape drawn with a heavier, high-contrast stroke.
type Highway struct {
	Header
	Color color.Color
	Width float64
}

const highwayZIndex int32 = 60

// NewHighway constructs a Highway shape.
func NewHighway(coords []tilestore.Coordinate, seq int) *Highway {
	return &Highway{
		Header: Header{ScreenCoordinates: coords, ZIndex: highwayZIndex, seq: seq},
		Color:  color.RGBA{R: 0xe8, G: 0x8a, B: 0x2e, A: 0xff},
		Width:  4,
	}
}

// Railway is a line shape drawn dashed.
type Railway struct {
	Header
	Color color.Color
	Width float64
}

const railwayZIndex int32 = 55

// NewRailway constructs a Railway shape.
func NewRailway(coords []tilestore.Coordinate, seq int) *Railway {
	return &Railway{
		Header: Header{ScreenCoordinates: coords, ZIndex: railwayZIndex, seq: seq},
		Color:  color.RGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff},
		Width:  1.5,
	}
}

// Border is a line shape drawn dashed and bold.
type Border struct {
	Header
	Color color.Color
	Width float64
}

const borderZIndex int32 = 70

// NewBorder constructs a Border shape.
func NewBorder(coords []tilestore.Coordinate, seq int) *Border {
	return &Border{
		Header: Header{ScreenCoordinates: coords, ZIndex: borderZIndex, seq: seq},
		Color:  color.RGBA{R: 0x80, G: 0x20, B: 0x20, A: 0xff},
		Width:  3,
	}
}

// PopulatedPlace is a point shape drawn as a text label.
type PopulatedPlace struct {
	Header
	Label string
}

const populatedPlaceZIndex int32 = 90

// NewPopulatedPlace constructs a PopulatedPlace shape.
func NewPopulatedPlace(label string, coords []tilestore.Coordinate, seq int) *PopulatedPlace {
	return &PopulatedPlace{
		Header: Header{ScreenCoordinates: coords, ZIndex: populatedPlaceZIndex, seq: seq},
		Label:  label,
	}
}

// Shape is any of the constructors' return types; the renderer dispatches
// on the concrete type via a type switch rather than a method on this
// interface.
type Shape interface {
	header() Header
}

func (s *GeoFeature) header() Header     { return s.Header }
func (s *Waterway) header() Header       { return s.Header }
func (s *Road) header() Header           { return s.Header }
func (s *Highway) header() Header        { return s.Header }
func (s *Railway) header() Header        { return s.Header }
func (s *Border) header() Header         { return s.Header }
func (s *PopulatedPlace) header() Header { return s.Header }

// HeaderOf returns the shared header of any shape variant, for generic
// queue/bbox bookkeeping that doesn't need to know the concrete type.
func HeaderOf(s Shape) Header { return s.header() }
