package tilestore

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a Store after Close has been called.
var ErrClosed = errors.New("tilestore: store is closed")

// ErrNotFound is returned when a tile id is not present in the index.
var ErrNotFound = errors.New("tilestore: tile not found")

// OpenError wraps a failure to open a tile file: missing, too small, or
// permission denied. It is always fatal to the Store being constructed.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("tilestore: open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// LayoutError reports that a tile header, feature record, or string/coordinate
// offset points outside the mapped region. Only the Checked accessors and
// ForEachFeature (internal/feature) ever produce one; the fast, unchecked
// accessors trust the file to be well-formed.
type LayoutError struct {
	Detail string
}

func (e *LayoutError) Error() string {
	return "tilestore: layout error: " + e.Detail
}

// strict controls whether the bounds-checked accessor variants are used by
// callers that want the debug-mode guarantees from SPEC_FULL.md §4.B. It is
// a runtime toggle rather than a build tag so both code paths can be
// exercised and tested from the same binary.
var strict = false

// SetStrict enables or disables bounds-checked layout accessors process-wide.
// Intended for tests and for callers reading untrusted files; release builds
// serving a known-good corpus typically leave it off for speed.
func SetStrict(enabled bool) { strict = enabled }

// Strict reports the current bounds-checking mode.
func Strict() bool { return strict }
