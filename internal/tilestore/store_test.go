package tilestore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	if err == nil {
		t.Fatal("expected an error opening a missing file")
	}
	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("expected *OpenError, got %T: %v", err, err)
	}
}

func TestOpenTooSmall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected an error opening a too-small file")
	}
}

func TestOpenSizeMismatchWithDeclaredTileCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short-index.bin")
	header := make([]byte, FileHeaderSize)
	header[4] = 100 // claim 100 tiles with no index data to back it
	if err := os.WriteFile(path, header, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected an error when the file is smaller than header+index")
	}
}

func TestOpenCloseRoundTrip(t *testing.T) {
	s := openFixture(t, []fixtureTile{
		{TileID: 42, Features: nil},
	})
	if s.TileCount() != 1 {
		t.Fatalf("TileCount() = %d, want 1", s.TileCount())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Double close is a no-op.
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestFindTile(t *testing.T) {
	s := openFixture(t, []fixtureTile{
		{TileID: 1, Features: []fixtureFeature{{ID: 10, Kind: GeometryLine, Coords: []Coordinate{{X: 1, Y: 2}}}}},
		{TileID: 2, Features: []fixtureFeature{{ID: 20, Kind: GeometryPoint, Coords: []Coordinate{{X: 3, Y: 4}}}}},
	})

	header, base, err := s.FindTile(2)
	if err != nil {
		t.Fatalf("FindTile(2): %v", err)
	}
	if header.FeaturesCount != 1 {
		t.Fatalf("FeaturesCount = %d, want 1", header.FeaturesCount)
	}
	if base <= 0 {
		t.Fatalf("base offset should be positive, got %d", base)
	}

	if _, _, err := s.FindTile(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindTile(999) error = %v, want ErrNotFound", err)
	}
}
