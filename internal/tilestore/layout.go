package tilestore

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/text/encoding/unicode"
)

// utf16LE turns the tile file's raw 16-bit character units into Go
// strings. Using x/text's decoder instead of a hand-rolled surrogate-pair
// walk means malformed surrogate pairs degrade to U+FFFD rather than a
// panic or silent truncation — the file format never validates this itself.
// A decoder keeps state, so stringAt makes a fresh one per call instead of
// sharing one between goroutines.
var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func decodeFileHeader(data []byte) FileHeader {
	return FileHeader{
		Version:   binary.LittleEndian.Uint32(data[0:4]),
		TileCount: binary.LittleEndian.Uint32(data[4:8]),
	}
}

func decodeTileHeaderEntry(data []byte) TileHeaderEntry {
	return TileHeaderEntry{
		TileID:        binary.LittleEndian.Uint32(data[0:4]),
		OffsetInBytes: binary.LittleEndian.Uint64(data[4:12]),
	}
}

func decodeTileBlockHeader(data []byte) TileBlockHeader {
	return TileBlockHeader{
		FeaturesCount:            binary.LittleEndian.Uint32(data[0:4]),
		CoordinatesCount:         binary.LittleEndian.Uint32(data[4:8]),
		StringsCount:             binary.LittleEndian.Uint32(data[8:12]),
		CharactersCount:          binary.LittleEndian.Uint32(data[12:16]),
		CoordinatesOffsetInBytes: binary.LittleEndian.Uint64(data[16:24]),
		StringsOffsetInBytes:     binary.LittleEndian.Uint64(data[24:32]),
		CharactersOffsetInBytes:  binary.LittleEndian.Uint64(data[32:40]),
	}
}

func decodeMapFeatureRecord(data []byte) MapFeatureRecord {
	return MapFeatureRecord{
		ID:               int64(binary.LittleEndian.Uint64(data[0:8])),
		LabelOffset:      int32(binary.LittleEndian.Uint32(data[8:12])),
		GeometryKind:     data[12],
		CoordinateOffset: int32(binary.LittleEndian.Uint32(data[16:20])),
		CoordinateCount:  int32(binary.LittleEndian.Uint32(data[20:24])),
		PropertiesOffset: int32(binary.LittleEndian.Uint32(data[24:28])),
		PropertyCount:    int32(binary.LittleEndian.Uint32(data[28:32])),
	}
}

func decodeCoordinate(data []byte) Coordinate {
	return Coordinate{
		X: decodeFloat32(data[0:4]),
		Y: decodeFloat32(data[4:8]),
	}
}

func decodeFloat32(data []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

func decodeStringEntry(data []byte) StringEntry {
	return StringEntry{
		Offset: binary.LittleEndian.Uint32(data[0:4]),
		Length: binary.LittleEndian.Uint32(data[4:8]),
	}
}

// nthTileHeader returns the i-th TileHeaderEntry.
func (s *Store) nthTileHeader(i int) TileHeaderEntry {
	off := FileHeaderSize + i*TileHeaderEntrySize
	return decodeTileHeaderEntry(s.data[off : off+TileHeaderEntrySize])
}

// nthTileHeaderChecked is the bounds-checked counterpart used when Strict()
// is enabled.
func (s *Store) nthTileHeaderChecked(i int) (TileHeaderEntry, error) {
	if i < 0 || i >= s.TileCount() {
		return TileHeaderEntry{}, &LayoutError{Detail: fmt.Sprintf("tile index %d out of range [0,%d)", i, s.TileCount())}
	}
	off := FileHeaderSize + i*TileHeaderEntrySize
	if off+TileHeaderEntrySize > len(s.data) {
		return TileHeaderEntry{}, &LayoutError{Detail: fmt.Sprintf("tile header entry %d overruns mapped region", i)}
	}
	return s.nthTileHeader(i), nil
}

// findTile locates a tile by id via a linear scan of the index (tile counts
// are O(thousands); a linear scan is the spec's accepted default). It
// returns the tile's block header and the absolute base offset of that
// block, or ErrNotFound.
func (s *Store) findTile(tileID uint32) (TileBlockHeader, int64, error) {
	for i := 0; i < s.TileCount(); i++ {
		entry := s.nthTileHeader(i)
		if entry.TileID != tileID {
			continue
		}
		base := int64(entry.OffsetInBytes)
		if Strict() {
			if base < 0 || base+TileBlockHeaderSize > int64(len(s.data)) {
				return TileBlockHeader{}, 0, &LayoutError{Detail: fmt.Sprintf("tile %d block header overruns mapped region", tileID)}
			}
		}
		header := decodeTileBlockHeader(s.data[base : base+TileBlockHeaderSize])
		return header, base, nil
	}
	return TileBlockHeader{}, 0, ErrNotFound
}

// featureAt returns the i-th MapFeatureRecord within the tile block starting
// at baseOffset.
func (s *Store) featureAt(i int, baseOffset int64) MapFeatureRecord {
	off := baseOffset + TileBlockHeaderSize + int64(i)*MapFeatureRecordSize
	return decodeMapFeatureRecord(s.data[off : off+MapFeatureRecordSize])
}

func (s *Store) featureAtChecked(i int, baseOffset int64, count int) (MapFeatureRecord, error) {
	if i < 0 || i >= count {
		return MapFeatureRecord{}, &LayoutError{Detail: fmt.Sprintf("feature index %d out of range [0,%d)", i, count)}
	}
	off := baseOffset + TileBlockHeaderSize + int64(i)*MapFeatureRecordSize
	if off+MapFeatureRecordSize > int64(len(s.data)) {
		return MapFeatureRecord{}, &LayoutError{Detail: fmt.Sprintf("feature record %d overruns mapped region", i)}
	}
	return s.featureAt(i, baseOffset), nil
}

// coordinates returns count coordinates starting at the start-th entry from
// coordOffset (absolute byte offset within the mapped region), decoded into
// a newly allocated slice.
func (s *Store) coordinates(coordOffset int64, start, count int) []Coordinate {
	out := make([]Coordinate, count)
	for i := 0; i < count; i++ {
		off := coordOffset + int64(start+i)*CoordinateSize
		out[i] = decodeCoordinate(s.data[off : off+CoordinateSize])
	}
	return out
}

func (s *Store) coordinatesChecked(coordOffset int64, start, count, available int) ([]Coordinate, error) {
	if start < 0 || count < 0 || start+count > available {
		return nil, &LayoutError{Detail: fmt.Sprintf("coordinate range [%d,%d) out of range [0,%d)", start, start+count, available)}
	}
	end := coordOffset + int64(start+count)*CoordinateSize
	if end > int64(len(s.data)) {
		return nil, &LayoutError{Detail: "coordinate view overruns mapped region"}
	}
	return s.coordinates(coordOffset, start, count), nil
}

// stringAt decodes the i-th StringEntry's character run (relative to
// charsOffset) into a Go string.
func (s *Store) stringAt(stringsOffset, charsOffset int64, i int) (string, error) {
	entryOff := stringsOffset + int64(i)*StringEntrySize
	entry := decodeStringEntry(s.data[entryOff : entryOff+StringEntrySize])

	byteOff := charsOffset + int64(entry.Offset)*2
	byteLen := int64(entry.Length) * 2
	raw := s.data[byteOff : byteOff+byteLen]

	decoded, err := utf16LE.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("tilestore: decoding string at index %d: %w", i, err)
	}
	return string(decoded), nil
}

// propertyIndexAt reads the i-th int32 string-table index out of a feature's
// property-index run (see the PropertiesOffset doc comment on
// MapFeatureRecord, and the layout note in DESIGN.md: the property-index
// array is a flat run of little-endian int32s, addressed by an absolute
// byte offset exactly like every other *OffsetInBytes field).
func (s *Store) propertyIndexAt(propertiesOffset int64, i int) int32 {
	off := propertiesOffset + int64(i)*PropertyIndexSize
	return int32(binary.LittleEndian.Uint32(s.data[off : off+PropertyIndexSize]))
}

func (s *Store) propertyIndexAtChecked(propertiesOffset int64, i, pairCount int) (int32, error) {
	if i < 0 || i >= pairCount*2 {
		return 0, &LayoutError{Detail: fmt.Sprintf("property index %d out of range [0,%d)", i, pairCount*2)}
	}
	off := propertiesOffset + int64(i)*PropertyIndexSize
	if off+PropertyIndexSize > int64(len(s.data)) {
		return 0, &LayoutError{Detail: "property index overruns mapped region"}
	}
	return s.propertyIndexAt(propertiesOffset, i), nil
}

func (s *Store) stringAtChecked(stringsOffset, charsOffset int64, i, stringsCount, charactersCount int) (string, error) {
	if i < 0 || i >= stringsCount {
		return "", &LayoutError{Detail: fmt.Sprintf("string index %d out of range [0,%d)", i, stringsCount)}
	}
	entryOff := stringsOffset + int64(i)*StringEntrySize
	if entryOff+StringEntrySize > int64(len(s.data)) {
		return "", &LayoutError{Detail: fmt.Sprintf("string entry %d overruns mapped region", i)}
	}
	entry := decodeStringEntry(s.data[entryOff : entryOff+StringEntrySize])
	if int64(entry.Offset)+int64(entry.Length) > int64(charactersCount) {
		return "", &LayoutError{Detail: fmt.Sprintf("string entry %d overruns character array", i)}
	}
	return s.stringAt(stringsOffset, charsOffset, i)
}
