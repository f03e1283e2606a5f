// Package testutil builds small, in-memory tile files for tests that need a
// real *tilestore.Store rather than a mock — the same way the teacher repo's
// pmtiles package round-trips through a temp file in its writer tests
// instead of faking the reader interface.
package testutil

import (
	"encoding/binary"
	"math"
	"os"
	"testing"
	"unicode/utf16"

	"github.com/pspoerri/tilestore/internal/tilestore"
)

// Feature describes one synthetic feature to bake into a fixture tile.
type Feature struct {
	ID     int64
	Label  string // "" means no label
	Kind   tilestore.GeometryKind
	Coords []tilestore.Coordinate
	Props  map[string]string
}

// Tile describes one synthetic tile block.
type Tile struct {
	TileID   uint32
	Features []Feature
}

func encodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[i*2:], u)
	}
	return buf
}

func int32LE(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

type builtTileBody struct {
	tileID         uint32
	header         []byte
	featureRecords []byte
	propIndices    []byte
	coordBuf       []byte
	stringEntries  []byte
	charBuf        []byte
}

func buildTileBody(t Tile) builtTileBody {
	var (
		featureRecords []byte
		propIndices    []byte
		coordBuf       []byte
		charBuf        []byte
		stringEntries  []byte
		stringIndex    = map[string]int32{}
		coordCount     int32
	)

	addString := func(s string) int32 {
		if idx, ok := stringIndex[s]; ok {
			return idx
		}
		encoded := encodeUTF16LE(s)
		offsetUnits := uint32(len(charBuf) / 2)
		entry := make([]byte, tilestore.StringEntrySize)
		binary.LittleEndian.PutUint32(entry[0:4], offsetUnits)
		binary.LittleEndian.PutUint32(entry[4:8], uint32(len(encoded)/2))
		idx := int32(len(stringEntries) / tilestore.StringEntrySize)
		stringEntries = append(stringEntries, entry...)
		charBuf = append(charBuf, encoded...)
		stringIndex[s] = idx
		return idx
	}

	for _, f := range t.Features {
		labelOffset := int32(-1)
		if f.Label != "" {
			labelOffset = addString(f.Label)
		}

		coordOffset := coordCount
		for _, c := range f.Coords {
			cb := make([]byte, tilestore.CoordinateSize)
			binary.LittleEndian.PutUint32(cb[0:4], math.Float32bits(c.X))
			binary.LittleEndian.PutUint32(cb[4:8], math.Float32bits(c.Y))
			coordBuf = append(coordBuf, cb...)
			coordCount++
		}

		propsOffset := int32(len(propIndices) / tilestore.PropertyIndexSize)
		for k, v := range f.Props {
			ki := addString(k)
			vi := addString(v)
			propIndices = append(propIndices, int32LE(ki)...)
			propIndices = append(propIndices, int32LE(vi)...)
		}

		rec := make([]byte, tilestore.MapFeatureRecordSize)
		binary.LittleEndian.PutUint64(rec[0:8], uint64(f.ID))
		binary.LittleEndian.PutUint32(rec[8:12], uint32(labelOffset))
		rec[12] = uint8(f.Kind)
		binary.LittleEndian.PutUint32(rec[16:20], uint32(coordOffset))
		binary.LittleEndian.PutUint32(rec[20:24], uint32(len(f.Coords)))
		binary.LittleEndian.PutUint32(rec[24:28], uint32(propsOffset))
		binary.LittleEndian.PutUint32(rec[28:32], uint32(len(f.Props)))
		featureRecords = append(featureRecords, rec...)
	}

	blockHeader := make([]byte, tilestore.TileBlockHeaderSize)
	binary.LittleEndian.PutUint32(blockHeader[0:4], uint32(len(t.Features)))
	binary.LittleEndian.PutUint32(blockHeader[4:8], uint32(coordCount))
	binary.LittleEndian.PutUint32(blockHeader[8:12], uint32(len(stringEntries)/tilestore.StringEntrySize))
	binary.LittleEndian.PutUint32(blockHeader[12:16], uint32(len(charBuf)/2))

	return builtTileBody{
		tileID:         t.TileID,
		header:         blockHeader,
		featureRecords: featureRecords,
		propIndices:    propIndices,
		coordBuf:       coordBuf,
		stringEntries:  stringEntries,
		charBuf:        charBuf,
	}
}

// Build serializes tiles into a complete tile file, byte-exact with the
// format tilestore.Open expects.
func Build(tiles []Tile) []byte {
	bodies := make([]builtTileBody, len(tiles))
	for i, t := range tiles {
		bodies[i] = buildTileBody(t)
	}

	header := make([]byte, tilestore.FileHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], tilestore.FormatVersion)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(bodies)))

	indexSize := len(bodies) * tilestore.TileHeaderEntrySize
	base := int64(tilestore.FileHeaderSize + indexSize)

	blockLen := func(b builtTileBody) int64 {
		return int64(len(b.header) + len(b.featureRecords) + len(b.propIndices) +
			len(b.coordBuf) + len(b.stringEntries) + len(b.charBuf))
	}

	offsets := make([]int64, len(bodies))
	cursor := base
	for i, b := range bodies {
		offsets[i] = cursor
		cursor += blockLen(b)
	}

	index := make([]byte, indexSize)
	for i, b := range bodies {
		entry := index[i*tilestore.TileHeaderEntrySize : (i+1)*tilestore.TileHeaderEntrySize]
		binary.LittleEndian.PutUint32(entry[0:4], b.tileID)
		binary.LittleEndian.PutUint64(entry[4:12], uint64(offsets[i]))
	}

	out := make([]byte, 0, cursor)
	out = append(out, header...)
	out = append(out, index...)

	for i, b := range bodies {
		coordsAbs := offsets[i] + int64(tilestore.TileBlockHeaderSize+len(b.featureRecords)+len(b.propIndices))
		stringsAbs := coordsAbs + int64(len(b.coordBuf))
		charsAbs := stringsAbs + int64(len(b.stringEntries))

		// PropertiesOffset is an absolute byte offset into the mapped region;
		// buildTileBody recorded it as an index into this tile's property run.
		propsAbs := offsets[i] + int64(tilestore.TileBlockHeaderSize+len(b.featureRecords))
		for r := 0; r < len(b.featureRecords); r += tilestore.MapFeatureRecordSize {
			rec := b.featureRecords[r : r+tilestore.MapFeatureRecordSize]
			rel := int64(binary.LittleEndian.Uint32(rec[24:28]))
			binary.LittleEndian.PutUint32(rec[24:28], uint32(propsAbs+rel*tilestore.PropertyIndexSize))
		}

		binary.LittleEndian.PutUint64(b.header[16:24], uint64(coordsAbs))
		binary.LittleEndian.PutUint64(b.header[24:32], uint64(stringsAbs))
		binary.LittleEndian.PutUint64(b.header[32:40], uint64(charsAbs))

		out = append(out, b.header...)
		out = append(out, b.featureRecords...)
		out = append(out, b.propIndices...)
		out = append(out, b.coordBuf...)
		out = append(out, b.stringEntries...)
		out = append(out, b.charBuf...)
	}

	return out
}

// OpenFixture writes tiles to a temp file and opens it as a Store,
// registering cleanup with t.
func OpenFixture(t *testing.T, tiles []Tile) *tilestore.Store {
	t.Helper()
	data := Build(tiles)
	f, err := os.CreateTemp(t.TempDir(), "tilestore-fixture-*.bin")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}

	s, err := tilestore.Open(path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
