// Command tileinfo dumps header and per-tile statistics for a tile store
// file without rendering anything — a read-only inspection companion to
// rendertile, in the spirit of the teacher's own cmd/coginfo.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pspoerri/tilestore/internal/tilestore"
)

func main() {
	var (
		storePath string
		limit     int
	)

	flag.StringVar(&storePath, "store", "", "Path to the tile store file (required)")
	flag.IntVar(&limit, "limit", 10, "Maximum number of per-tile rows to print (0 = all)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tileinfo -store <file> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if storePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	store, err := tilestore.Open(storePath)
	if err != nil {
		log.Fatalf("Opening store: %v", err)
	}
	defer store.Close()

	header := store.Header()
	fmt.Printf("File: %s\n", storePath)
	fmt.Printf("Version: %d\n", header.Version)
	fmt.Printf("Tile count: %d\n", header.TileCount)

	shown := 0
	for i := uint32(0); i < header.TileCount; i++ {
		if limit > 0 && shown >= limit {
			fmt.Printf("... (%d more tiles omitted, raise -limit to see them)\n", int(header.TileCount)-int(i))
			break
		}
		entry, blockHeader, err := describeTile(store, i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tile index %d: %v\n", i, err)
			continue
		}
		fmt.Printf("  tile %d: id=%d features=%d coordinates=%d strings=%d characters=%d\n",
			i, entry, blockHeader.FeaturesCount, blockHeader.CoordinatesCount, blockHeader.StringsCount, blockHeader.CharactersCount)
		shown++
	}
}

func describeTile(store *tilestore.Store, index uint32) (uint32, tilestore.TileBlockHeader, error) {
	entry, err := store.NthTileHeader(int(index))
	if err != nil {
		return 0, tilestore.TileBlockHeader{}, err
	}
	header, _, err := store.FindTile(entry.TileID)
	return entry.TileID, header, err
}
