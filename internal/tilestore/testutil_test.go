package tilestore

import (
	"encoding/binary"
	"math"
	"os"
	"testing"
	"unicode/utf16"
)

// fixtureFeature and fixtureTile describe a tiny synthetic tile file built
// entirely in memory, the same shape pmtiles/writer_test.go uses in the
// teacher repo to round-trip through a real file rather than mocking one.
type fixtureFeature struct {
	ID     int64
	Label  string // "" means no label
	Kind   GeometryKind
	Coords []Coordinate
	Props  map[string]string
}

type fixtureTile struct {
	TileID   uint32
	Features []fixtureFeature
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

// builtTileBody holds one tile's serialized block, with the byte offsets
// (relative to the start of the block) that still need to be turned into
// absolute mapped-region offsets once the tile's base address is known.
type builtTileBody struct {
	tileID         uint32
	header         []byte
	featureRecords []byte
	propIndices    []byte
	coordBuf       []byte
	stringEntries  []byte
	charBuf        []byte
	coordCount     int
	stringsCount   int
}

func buildTileBody(t fixtureTile) builtTileBody {
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
		entry := make([]byte, StringEntrySize)
		binary.LittleEndian.PutUint32(entry[0:4], offsetUnits)
		binary.LittleEndian.PutUint32(entry[4:8], uint32(len(encoded)/2))
		idx := int32(len(stringEntries) / StringEntrySize)
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
			cb := make([]byte, CoordinateSize)
			binary.LittleEndian.PutUint32(cb[0:4], math.Float32bits(c.X))
			binary.LittleEndian.PutUint32(cb[4:8], math.Float32bits(c.Y))
			coordBuf = append(coordBuf, cb...)
			coordCount++
		}

		propsOffset := int32(len(propIndices) / PropertyIndexSize)
		for k, v := range f.Props {
			ki := addString(k)
			vi := addString(v)
			propIndices = append(propIndices, int32LE(ki)...)
			propIndices = append(propIndices, int32LE(vi)...)
		}

		rec := make([]byte, MapFeatureRecordSize)
		binary.LittleEndian.PutUint64(rec[0:8], uint64(f.ID))
		binary.LittleEndian.PutUint32(rec[8:12], uint32(labelOffset))
		rec[12] = uint8(f.Kind)
		binary.LittleEndian.PutUint32(rec[16:20], uint32(coordOffset))
		binary.LittleEndian.PutUint32(rec[20:24], uint32(len(f.Coords)))
		binary.LittleEndian.PutUint32(rec[24:28], uint32(propsOffset))
		binary.LittleEndian.PutUint32(rec[28:32], uint32(len(f.Props)))
		featureRecords = append(featureRecords, rec...)
	}

	blockHeader := make([]byte, TileBlockHeaderSize)
	binary.LittleEndian.PutUint32(blockHeader[0:4], uint32(len(t.Features)))
	binary.LittleEndian.PutUint32(blockHeader[4:8], uint32(coordCount))
	binary.LittleEndian.PutUint32(blockHeader[8:12], uint32(len(stringEntries)/StringEntrySize))
	binary.LittleEndian.PutUint32(blockHeader[12:16], uint32(len(charBuf)/2))

	return builtTileBody{
		tileID:         t.TileID,
		header:         blockHeader,
		featureRecords: featureRecords,
		propIndices:    propIndices,
		coordBuf:       coordBuf,
		stringEntries:  stringEntries,
		charBuf:        charBuf,
		coordCount:     int(coordCount),
		stringsCount:   len(stringEntries) / StringEntrySize,
	}
}

// buildFixture serializes tiles into a complete tile file, byte-exact with
// SPEC_FULL.md §6. Layout within each tile block is: header, feature
// records, property indices, coordinates, string entries, characters (see
// DESIGN.md for why the property-index run sits where it does).
func buildFixture(tiles []fixtureTile) []byte {
	bodies := make([]builtTileBody, len(tiles))
	for i, t := range tiles {
		bodies[i] = buildTileBody(t)
	}

	header := make([]byte, FileHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], FormatVersion)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(bodies)))

	indexSize := len(bodies) * TileHeaderEntrySize
	base := int64(FileHeaderSize + indexSize)

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
		entry := index[i*TileHeaderEntrySize : (i+1)*TileHeaderEntrySize]
		binary.LittleEndian.PutUint32(entry[0:4], b.tileID)
		binary.LittleEndian.PutUint64(entry[4:12], uint64(offsets[i]))
	}

	out := make([]byte, 0, cursor)
	out = append(out, header...)
	out = append(out, index...)

	for i, b := range bodies {
		coordsAbs := offsets[i] + int64(TileBlockHeaderSize+len(b.featureRecords)+len(b.propIndices))
		stringsAbs := coordsAbs + int64(len(b.coordBuf))
		charsAbs := stringsAbs + int64(len(b.stringEntries))

		// PropertiesOffset is an absolute byte offset into the mapped region;
		// buildTileBody recorded it as an index into this tile's property run.
		propsAbs := offsets[i] + int64(TileBlockHeaderSize+len(b.featureRecords))
		for r := 0; r < len(b.featureRecords); r += MapFeatureRecordSize {
			rec := b.featureRecords[r : r+MapFeatureRecordSize]
			rel := int64(binary.LittleEndian.Uint32(rec[24:28]))
			binary.LittleEndian.PutUint32(rec[24:28], uint32(propsAbs+rel*PropertyIndexSize))
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

// openFixture writes a fixture to a temp file and opens it as a Store,
// registering cleanup with t.
func openFixture(t *testing.T, tiles []fixtureTile) *Store {
	t.Helper()
	data := buildFixture(tiles)
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

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
