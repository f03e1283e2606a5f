package tilestore

// Exported, strict-mode-aware wrappers over the private layout accessors.
// internal/feature (component C) drives the store entirely through these;
// the unexported *Checked/unchecked split stays an implementation detail of
// this package.

// NthTileHeader returns the i-th TileHeaderEntry in index order, for
// callers (like cmd/tileinfo) that want to walk the whole index rather than
// look a single tile id up.
func (s *Store) NthTileHeader(i int) (TileHeaderEntry, error) {
	if s.closed() {
		return TileHeaderEntry{}, ErrClosed
	}
	if Strict() {
		return s.nthTileHeaderChecked(i)
	}
	return s.nthTileHeader(i), nil
}

// FindTile locates a tile by id. It reports ErrNotFound if the id is absent
// from the index — callers should treat that as "skip this tile silently"
// per SPEC_FULL.md §4.C.
func (s *Store) FindTile(tileID uint32) (TileBlockHeader, int64, error) {
	if s.closed() {
		return TileBlockHeader{}, 0, ErrClosed
	}
	return s.findTile(tileID)
}

// FeatureAt returns the i-th feature record within the tile block at
// baseOffset, which holds featuresCount records.
func (s *Store) FeatureAt(i int, baseOffset int64, featuresCount int) (MapFeatureRecord, error) {
	if s.closed() {
		return MapFeatureRecord{}, ErrClosed
	}
	if Strict() {
		return s.featureAtChecked(i, baseOffset, featuresCount)
	}
	return s.featureAt(i, baseOffset), nil
}

// Coordinates returns count coordinates starting at index start within a
// tile's coordinate array (coordOffset is the tile's
// CoordinatesOffsetInBytes, available is the tile's CoordinatesCount). The
// result is a newly allocated copy, not a view into the mapped region.
func (s *Store) Coordinates(coordOffset int64, start, count, available int) ([]Coordinate, error) {
	if s.closed() {
		return nil, ErrClosed
	}
	if Strict() {
		return s.coordinatesChecked(coordOffset, start, count, available)
	}
	return s.coordinates(coordOffset, start, count), nil
}

// PropertyIndexAt reads the i-th string-table index out of a feature's
// property-index run (propertiesOffset is the feature's PropertiesOffset,
// pairCount is its PropertyCount; i ranges over [0, 2*pairCount)).
func (s *Store) PropertyIndexAt(propertiesOffset int64, i, pairCount int) (int32, error) {
	if s.closed() {
		return 0, ErrClosed
	}
	if Strict() {
		return s.propertyIndexAtChecked(propertiesOffset, i, pairCount)
	}
	return s.propertyIndexAt(propertiesOffset, i), nil
}

// StringAt decodes the i-th string in a tile's string table.
func (s *Store) StringAt(stringsOffset, charsOffset int64, i, stringsCount, charactersCount int) (string, error) {
	if s.closed() {
		return "", ErrClosed
	}
	if Strict() {
		return s.stringAtChecked(stringsOffset, charsOffset, i, stringsCount, charactersCount)
	}
	return s.stringAt(stringsOffset, charsOffset, i)
}
