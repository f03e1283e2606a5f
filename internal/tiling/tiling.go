// Package tiling provides the default, concrete implementation of the tile
// cover function spec.md treats as an external collaborator
// ("tilesForBoundingBox"). internal/feature never calls this package
// directly — callers (tests, cmd/rendertile) compute the covering tile ids
// and pass them in, so the iterator stays agnostic of any one tiling
// scheme.
package tiling

import (
	"math"
	"sort"

	"github.com/pspoerri/tilestore/internal/tilestore"
)

// TilesForBoundingBox returns the ids of every tile at the given zoom level
// that intersects box, ordered along the Hilbert curve so that a caller
// walking them in sequence touches nearby mapped pages in quick succession.
func TilesForBoundingBox(box tilestore.GeographicBoundingBox, zoom int) []uint32 {
	if box.Empty() {
		return nil
	}

	minTX, minTY := lonLatToTile(box.MinLon, box.MaxLat, zoom) // maxLat -> smaller tile Y
	maxTX, maxTY := lonLatToTile(box.MaxLon, box.MinLat, zoom)

	type xy struct{ x, y int }
	var cells []xy
	for ty := minTY; ty <= maxTY; ty++ {
		for tx := minTX; tx <= maxTX; tx++ {
			cells = append(cells, xy{tx, ty})
		}
	}

	n := uint64(1) << uint(zoom)
	sort.Slice(cells, func(i, j int) bool {
		return xyToHilbert(uint64(cells[i].x), uint64(cells[i].y), n) < xyToHilbert(uint64(cells[j].x), uint64(cells[j].y), n)
	})

	ids := make([]uint32, len(cells))
	for i, c := range cells {
		ids[i] = TileID(zoom, c.x, c.y)
	}
	return ids
}

// TileID packs a (zoom, x, y) web-Mercator tile coordinate into the uint32
// id this store's TileHeaderEntry expects, using its Hilbert-curve index
// within that zoom level so spatially close tiles get numerically close ids.
func TileID(zoom, x, y int) uint32 {
	n := uint64(1) << uint(zoom)
	return uint32(xyToHilbert(uint64(x), uint64(y), n))
}

// lonLatToTile converts WGS84 lon/lat to tile coordinates at the given zoom,
// clamping to the valid tile range (the web-Mercator projection is undefined
// at the poles).
func lonLatToTile(lon, lat float64, zoom int) (x, y int) {
	n := math.Pow(2, float64(zoom))
	x = int(math.Floor((lon + 180.0) / 360.0 * n))
	latRad := lat * math.Pi / 180.0
	y = int(math.Floor((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n))

	maxTile := int(n) - 1
	if x < 0 {
		x = 0
	}
	if x > maxTile {
		x = maxTile
	}
	if y < 0 {
		y = 0
	}
	if y > maxTile {
		y = maxTile
	}
	return
}

// xyToHilbert converts (x, y) to a Hilbert curve index for an n x n grid.
// n must be a power of two.
func xyToHilbert(x, y, n uint64) uint64 {
	var d uint64
	s := n / 2
	for s > 0 {
		var rx, ry uint64
		if (x & s) > 0 {
			rx = 1
		}
		if (y & s) > 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)
		if ry == 0 {
			if rx == 1 {
				x = s*2 - 1 - x
				y = s*2 - 1 - y
			}
			x, y = y, x
		}
		s /= 2
	}
	return d
}
