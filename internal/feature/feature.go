// Package feature walks covering tiles of a memory-mapped store and yields
// fully hydrated feature records to a caller-supplied callback, the way the
// teacher's tile generator walks a decoded raster row by row rather than
// handing back a whole image at once.
package feature

import (
	"errors"
	"fmt"

	"github.com/pspoerri/tilestore/internal/classify"
	"github.com/pspoerri/tilestore/internal/tilestore"
)

// MapFeatureData is one hydrated feature, valid only for the duration of the
// callback that receives it. Label and Coordinates are decoded copies,
// allocated per feature, not views into the store's mapped region.
// Properties is one map reused across all features of a ForEachFeature
// call, cleared and refilled for each feature.
type MapFeatureData struct {
	ID           int64
	GeometryKind tilestore.GeometryKind
	Label        string
	Coordinates  []tilestore.Coordinate
	Properties   map[string]string
	Environment  tilestore.EnvironmentCategory
	Name         string
}

// ForEachFeature determines the covering tiles from tileIDs (the caller's
// tilesForBoundingBox result), walks each tile's features in storage order,
// and invokes callback for every feature with at least one coordinate
// inside box. Iteration stops immediately, across all remaining tiles, the
// moment callback returns false.
//
// Deduplication: this store assigns each feature to a single primary tile
// at build time, so no feature appears in more than one covering tile's
// block. ForEachFeature still keeps a defensive seen-tile-id set to avoid
// double-processing a tile id that appears twice in tileIDs (e.g. from an
// overlapping multi-zoom cover), rather than relying on the caller to
// dedup its own tile list.
func ForEachFeature(store *tilestore.Store, box tilestore.GeographicBoundingBox, tileIDs []uint32, callback func(MapFeatureData) bool) error {
	if callback == nil {
		return nil
	}
	if box.Empty() {
		return nil
	}

	seenTiles := make(map[uint32]struct{}, len(tileIDs))
	props := make(map[string]string)

	for _, tileID := range tileIDs {
		if _, ok := seenTiles[tileID]; ok {
			continue
		}
		seenTiles[tileID] = struct{}{}

		header, base, err := store.FindTile(tileID)
		if err != nil {
			if errors.Is(err, tilestore.ErrNotFound) {
				continue
			}
			return fmt.Errorf("feature: tile %d: %w", tileID, err)
		}

		stop, err := visitTile(store, header, base, box, props, callback)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

func visitTile(store *tilestore.Store, header tilestore.TileBlockHeader, base int64, box tilestore.GeographicBoundingBox, props map[string]string, callback func(MapFeatureData) bool) (stop bool, err error) {
	featuresCount := int(header.FeaturesCount)
	for i := 0; i < featuresCount; i++ {
		rec, err := store.FeatureAt(i, base, featuresCount)
		if err != nil {
			return false, fmt.Errorf("feature: record %d: %w", i, err)
		}

		coords, err := store.Coordinates(int64(header.CoordinatesOffsetInBytes), int(rec.CoordinateOffset), int(rec.CoordinateCount), int(header.CoordinatesCount))
		if err != nil {
			return false, fmt.Errorf("feature: coordinates for record %d: %w", rec.ID, err)
		}

		if !anyCoordinateInBox(coords, box) {
			continue
		}

		clear(props)
		if err := hydrateProperties(store, header, rec, props); err != nil {
			return false, fmt.Errorf("feature: properties for record %d: %w", rec.ID, err)
		}

		label := ""
		if rec.LabelOffset >= 0 {
			label, err = store.StringAt(int64(header.StringsOffsetInBytes), int64(header.CharactersOffsetInBytes), int(rec.LabelOffset), int(header.StringsCount), int(header.CharactersCount))
			if err != nil {
				return false, fmt.Errorf("feature: label for record %d: %w", rec.ID, err)
			}
		}

		kind := tilestore.GeometryKind(rec.GeometryKind)
		data := MapFeatureData{
			ID:           rec.ID,
			GeometryKind: kind,
			Label:        label,
			Coordinates:  coords,
			Properties:   props,
			Environment:  classify.Classify(kind, props),
			Name:         props["name"],
		}

		if !callback(data) {
			return true, nil
		}
	}
	return false, nil
}

func hydrateProperties(store *tilestore.Store, header tilestore.TileBlockHeader, rec tilestore.MapFeatureRecord, out map[string]string) error {
	pairCount := int(rec.PropertyCount)
	for i := 0; i < pairCount; i++ {
		keyIdx, err := store.PropertyIndexAt(int64(rec.PropertiesOffset), 2*i, pairCount)
		if err != nil {
			return err
		}
		valIdx, err := store.PropertyIndexAt(int64(rec.PropertiesOffset), 2*i+1, pairCount)
		if err != nil {
			return err
		}
		key, err := store.StringAt(int64(header.StringsOffsetInBytes), int64(header.CharactersOffsetInBytes), int(keyIdx), int(header.StringsCount), int(header.CharactersCount))
		if err != nil {
			return err
		}
		val, err := store.StringAt(int64(header.StringsOffsetInBytes), int64(header.CharactersOffsetInBytes), int(valIdx), int(header.StringsCount), int(header.CharactersCount))
		if err != nil {
			return err
		}
		out[key] = val // last occurrence wins, matching a plain map assignment
	}
	return nil
}

func anyCoordinateInBox(coords []tilestore.Coordinate, box tilestore.GeographicBoundingBox) bool {
	for _, c := range coords {
		if box.Contains(float64(c.Y), float64(c.X)) {
			return true
		}
	}
	return false
}
