// Command rendertile opens a tile store, renders a bounding-box query to an
// image, and writes it to disk as PNG or WebP.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pspoerri/tilestore/internal/feature"
	"github.com/pspoerri/tilestore/internal/imageio"
	"github.com/pspoerri/tilestore/internal/metrics"
	"github.com/pspoerri/tilestore/internal/render"
	"github.com/pspoerri/tilestore/internal/rendercanvas"
	"github.com/pspoerri/tilestore/internal/tiling"
	"github.com/pspoerri/tilestore/internal/tilestore"
)

func main() {
	var (
		storePath   string
		bboxFlag    string
		zoom        int
		width       int
		height      int
		out         string
		format      string
		bands       int
		metricsAddr string
	)

	flag.StringVar(&storePath, "store", "", "Path to the tile store file (required)")
	flag.StringVar(&bboxFlag, "bbox", "", "Query bounding box as minLat,minLon,maxLat,maxLon (required)")
	flag.IntVar(&zoom, "zoom", 12, "Tile zoom level to query at")
	flag.IntVar(&width, "width", 1024, "Output image width in pixels")
	flag.IntVar(&height, "height", 1024, "Output image height in pixels")
	flag.StringVar(&out, "out", "tile.png", "Output file path")
	flag.StringVar(&format, "format", "png", "Output format: png or webp")
	flag.IntVar(&bands, "bands", 1, "Number of groups of covering tiles to collect features from concurrently")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "If set, serve Prometheus metrics on this address (e.g. :9090)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rendertile -store <file> -bbox <minLat,minLon,maxLat,maxLon> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if storePath == "" || bboxFlag == "" {
		flag.Usage()
		os.Exit(1)
	}

	box, err := parseBBox(bboxFlag)
	if err != nil {
		log.Fatalf("Parsing -bbox: %v", err)
	}

	outFormat, err := imageio.ParseFormat(format)
	if err != nil {
		log.Fatalf("Parsing -format: %v", err)
	}

	recorder := metrics.New(nil)
	if metricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Printf("Serving Prometheus metrics on %s", metricsAddr)
			log.Println(http.ListenAndServe(metricsAddr, nil))
		}()
	}

	openStart := time.Now()
	store, err := tilestore.Open(storePath)
	recorder.OpenDuration.Observe(time.Since(openStart).Seconds())
	if err != nil {
		log.Fatalf("Opening store: %v", err)
	}
	defer store.Close()

	tileIDs := tiling.TilesForBoundingBox(box, zoom)
	log.Printf("Covering %d tiles at zoom %d", len(tileIDs), zoom)

	iterateStart := time.Now()
	features, err := collectFeatures(store, box, tileIDs, bands)
	recorder.IterateDuration.WithLabelValues(metrics.TileCountBucket(len(tileIDs))).Observe(time.Since(iterateStart).Seconds())
	if err != nil {
		log.Fatalf("Collecting features: %v", err)
	}
	log.Printf("Collected %d features in box", len(features))

	bbox := tilestore.NewScreenBoundingBox()
	queue := render.NewQueue()
	seq := render.NewSeqCounter()
	for _, f := range features {
		render.Tessellate(f, seq, &bbox, queue)
	}

	canvas := rendercanvas.New(width, height)
	defer canvas.Release()
	renderStart := time.Now()
	img := render.Render(queue, bbox, width, height, canvas)
	recorder.RenderDuration.Observe(time.Since(renderStart).Seconds())

	f, err := os.Create(out)
	if err != nil {
		log.Fatalf("Creating output file: %v", err)
	}
	defer f.Close()

	if err := imageio.Encode(f, img, outFormat); err != nil {
		log.Fatalf("Encoding output image: %v", err)
	}
	log.Printf("Wrote %s", out)
}

// collectFeatures fans tileIDs out across bands goroutines, each with its
// own property-mapping buffer (ForEachFeature is not reentrant on a shared
// one), and joins before returning.
func collectFeatures(store *tilestore.Store, box tilestore.GeographicBoundingBox, tileIDs []uint32, bands int) ([]feature.MapFeatureData, error) {
	if bands < 1 {
		bands = 1
	}
	if bands > len(tileIDs) {
		bands = len(tileIDs)
	}
	if bands <= 1 {
		var all []feature.MapFeatureData
		err := feature.ForEachFeature(store, box, tileIDs, func(f feature.MapFeatureData) bool {
			all = append(all, cloneFeature(f))
			return true
		})
		return all, err
	}

	results := make([][]feature.MapFeatureData, bands)
	var g errgroup.Group
	bandSize := (len(tileIDs) + bands - 1) / bands
	for i := 0; i < bands; i++ {
		i := i
		start := i * bandSize
		end := start + bandSize
		if start >= len(tileIDs) {
			continue
		}
		if end > len(tileIDs) {
			end = len(tileIDs)
		}
		band := tileIDs[start:end]
		g.Go(func() error {
			var collected []feature.MapFeatureData
			err := feature.ForEachFeature(store, box, band, func(f feature.MapFeatureData) bool {
				collected = append(collected, cloneFeature(f))
				return true
			})
			results[i] = collected
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []feature.MapFeatureData
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// cloneFeature copies the coordinate slice and owns the label/properties so
// the feature survives past the ForEachFeature callback that produced it.
func cloneFeature(f feature.MapFeatureData) feature.MapFeatureData {
	f.Coordinates = append([]tilestore.Coordinate(nil), f.Coordinates...)
	props := make(map[string]string, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}
	f.Properties = props
	return f
}

func parseBBox(s string) (tilestore.GeographicBoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return tilestore.GeographicBoundingBox{}, fmt.Errorf("want 4 comma-separated values, got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return tilestore.GeographicBoundingBox{}, fmt.Errorf("value %d (%q): %w", i, p, err)
		}
		vals[i] = v
	}
	return tilestore.GeographicBoundingBox{MinLat: vals[0], MinLon: vals[1], MaxLat: vals[2], MaxLon: vals[3]}, nil
}
