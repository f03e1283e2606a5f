package tilestore

import (
	"fmt"
	"os"
)

// Store owns a read-only memory mapping of a tile file. The mapping and
// parsed header are acquired together in Open and the mapping is released in
// Close; the file handle itself is closed before Open returns, since the
// mapping outlives it. There is no partial state. A Store is safe to share
// read-only across goroutines, provided each caller keeps its own iteration
// state (see internal/feature).
type Store struct {
	data   []byte
	header FileHeader
	path   string
}

// Open memory-maps path read-only and validates that the file is at least
// large enough to hold its declared header and tile index. It does not
// validate individual tile blocks; with strict bounds checking on
// (SetStrict), malformed tile data surfaces as a LayoutError from the
// feature iterator that first walks into it, while the unchecked accessors
// assume a well-formed file.
func Open(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	size := fi.Size()
	if size < FileHeaderSize {
		return nil, &OpenError{Path: path, Err: fmt.Errorf("file too small: %d bytes", size)}
	}

	data, err := mmapFile(f.Fd(), int(size))
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	header := decodeFileHeader(data)

	needed := int64(FileHeaderSize) + int64(header.TileCount)*int64(TileHeaderEntrySize)
	if size < needed {
		munmapFile(data)
		return nil, &OpenError{
			Path: path,
			Err:  fmt.Errorf("file size %d smaller than header+index size %d (tileCount=%d)", size, needed, header.TileCount),
		}
	}

	return &Store{data: data, header: header, path: path}, nil
}

// Close releases the OS mapping. Close is idempotent:
// calling it again, or using the Store afterward, is safe and a no-op for
// Close specifically (using any other method after Close is a programming
// error and returns ErrClosed where it can be detected cheaply).
func (s *Store) Close() error {
	if s.data == nil {
		return nil
	}
	err := munmapFile(s.data)
	s.data = nil
	return err
}

// Path returns the file path this Store was opened from.
func (s *Store) Path() string { return s.path }

// Header returns the parsed file header.
func (s *Store) Header() FileHeader { return s.header }

// TileCount returns the number of tiles in the index.
func (s *Store) TileCount() int { return int(s.header.TileCount) }

func (s *Store) closed() bool { return s.data == nil }
