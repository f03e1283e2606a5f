// Package classify maps an unordered property bag and a geometry kind onto
// one of the environment categories the renderer uses to pick shape, style,
// and z-index. The rule table is a closed, ordered decision list: the first
// matching rule wins, written as a straight-line rule chain rather than a
// generic tree.
package classify

import (
	"strings"

	"github.com/pspoerri/tilestore/internal/tilestore"
)

// HighwayTypes is the closed set of "road-like" highway values, checked by
// prefix per rule 2.
var HighwayTypes = map[string]struct{}{
	"primary":       {},
	"secondary":     {},
	"tertiary":      {},
	"residential":   {},
	"service":       {},
	"unclassified":  {},
	"living_street": {},
	"pedestrian":    {},
	"track":         {},
	"road":          {},
}

var majorHighwayTypes = map[string]struct{}{
	"motorway": {},
	"trunk":    {},
}

var populatedPlacePrefixes = []string{"city", "town", "locality", "hamlet"}

var naturalPlain = map[string]struct{}{
	"fell": {}, "grassland": {}, "heath": {}, "moor": {}, "scrub": {}, "wetland": {},
}
var naturalForest = map[string]struct{}{
	"wood": {}, "tree_row": {},
}
var naturalMountains = map[string]struct{}{
	"bare_rock": {}, "rock": {}, "scree": {},
}
var naturalDesert = map[string]struct{}{
	"beach": {}, "sand": {},
}

var landuseCivilianPrefixes = []string{
	"residential", "cemetery", "industrial", "commercial", "square",
	"construction", "military", "quarry", "brownfield",
}

var landusePlain = map[string]struct{}{
	"farm": {}, "meadow": {}, "grass": {}, "greenfield": {},
	"recreation_ground": {}, "winter_sports": {}, "allotments": {},
}

var landuseLakes = map[string]struct{}{
	"reservoir": {}, "basin": {},
}

// Classify applies the ordered rule table of 4.D to the given geometry kind
// and property mapping. Comparisons are byte-exact ASCII; "prefix" rules use
// strings.HasPrefix, everything else is exact equality. Duplicate keys in
// props are the caller's problem: a Go map already collapses them to the
// last write, which matches the spec's "last occurrence wins" requirement.
func Classify(kind tilestore.GeometryKind, props map[string]string) tilestore.EnvironmentCategory {
	isPolygon := kind == tilestore.GeometryPolygon

	// Rule 1: highway in {motorway, trunk} -> Highway.
	if hw, ok := props["highway"]; ok {
		if _, major := majorHighwayTypes[hw]; major {
			return tilestore.Highway
		}
	}

	// Rule 2: highway present and road-like -> Road.
	if hw, ok := props["highway"]; ok {
		if hasAnyPrefix(hw, HighwayTypes) {
			return tilestore.Road
		}
	}

	// Rule 3: any key starting with "water" AND geometry != Point -> Water.
	if kind != tilestore.GeometryPoint && anyKeyHasPrefix(props, "water") {
		return tilestore.Water
	}

	// Rule 4: boundary=administrative AND admin_level=2 -> Border.
	if props["boundary"] == "administrative" && props["admin_level"] == "2" {
		return tilestore.Border
	}

	// Rule 5: Point AND place present with value starting with a populated
	// place prefix -> PopulatedPlace.
	if kind == tilestore.GeometryPoint {
		if place, ok := props["place"]; ok {
			for _, prefix := range populatedPlacePrefixes {
				if strings.HasPrefix(place, prefix) {
					return tilestore.PopulatedPlace
				}
			}
		}
	}

	// Rule 6: any key starting with "railway" -> Railway.
	if anyKeyHasPrefix(props, "railway") {
		return tilestore.Railway
	}

	// Rule 7: Polygon AND key starting with "natural": switch on value.
	// The geometry check is an AND with the key check, not nested inside a
	// per-property predicate (see the classifier determinism design note).
	if isPolygon {
		if natural, ok := findValueByKeyPrefix(props, "natural"); ok {
			switch {
			case inSet(natural, naturalPlain):
				return tilestore.Plain
			case inSet(natural, naturalForest):
				return tilestore.Forest
			case inSet(natural, naturalMountains):
				return tilestore.Mountains
			case inSet(natural, naturalDesert):
				return tilestore.Desert
			case natural == "water":
				return tilestore.Lakes
			default:
				return tilestore.Unknown
			}
		}
	}

	// Rule 8: boundary starts with "forest" -> Forest.
	if boundary, ok := props["boundary"]; ok && strings.HasPrefix(boundary, "forest") {
		return tilestore.Forest
	}

	// Rule 9: landuse starts with "forest" or "orchard" -> Forest.
	if landuse, ok := props["landuse"]; ok {
		if strings.HasPrefix(landuse, "forest") || strings.HasPrefix(landuse, "orchard") {
			return tilestore.Forest
		}
	}

	if isPolygon {
		landuse, hasLanduse := props["landuse"]

		// Rule 10: landuse in civilian set (prefix match) -> Civilian.
		if hasLanduse {
			for _, prefix := range landuseCivilianPrefixes {
				if strings.HasPrefix(landuse, prefix) {
					return tilestore.Civilian
				}
			}
		}

		// Rule 11: landuse in plain set -> Plain.
		if hasLanduse {
			if _, ok := landusePlain[landuse]; ok {
				return tilestore.Plain
			}
		}

		// Rule 12: landuse in lakes set -> Lakes.
		if hasLanduse {
			if _, ok := landuseLakes[landuse]; ok {
				return tilestore.Lakes
			}
		}

		// Rule 13: any key starting with "building" -> Buildings.
		if anyKeyHasPrefix(props, "building") {
			return tilestore.Buildings
		}

		// Rule 14: any key starting with "leisure" -> NationalPark.
		if anyKeyHasPrefix(props, "leisure") {
			return tilestore.NationalPark
		}

		// Rule 15: any key starting with "amenity" -> Buildings.
		if anyKeyHasPrefix(props, "amenity") {
			return tilestore.Buildings
		}
	}

	// Rule 16: otherwise -> Unknown.
	return tilestore.Unknown
}

func hasAnyPrefix(value string, prefixes map[string]struct{}) bool {
	for prefix := range prefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

func anyKeyHasPrefix(props map[string]string, prefix string) bool {
	for k := range props {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// findValueByKeyPrefix returns the value of the first property whose key
// starts with prefix. Map iteration order is unspecified, but 4.D's rule 7
// only ever expects a single "natural"-prefixed key per feature in practice.
func findValueByKeyPrefix(props map[string]string, prefix string) (string, bool) {
	for k, v := range props {
		if strings.HasPrefix(k, prefix) {
			return v, true
		}
	}
	return "", false
}

func inSet(v string, set map[string]struct{}) bool {
	_, ok := set[v]
	return ok
}
