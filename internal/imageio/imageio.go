// Package imageio encodes a rendered tile image to its final output bytes.
// PNG uses the standard library; WebP reuses the teacher's own dependency
// (github.com/gen2brain/webp) rather than leaving it stranded once the
// on-disk tile format no longer needs a PMTiles-specific tile encoder.
package imageio

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/gen2brain/webp"
)

// Format selects the output encoding for Encode.
type Format int

const (
	// FormatPNG encodes losslessly via the standard library image/png.
	FormatPNG Format = iota
	// FormatWebP encodes via github.com/gen2brain/webp.
	FormatWebP
)

// String returns the format's CLI/flag name.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	default:
		return "unknown"
	}
}

// ParseFormat maps a CLI flag value ("png", "webp") to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return 0, fmt.Errorf("imageio: unknown format %q (want \"png\" or \"webp\")", s)
	}
}

// Quality is the WebP lossy-encode quality, 0-100. Unused for PNG.
const Quality = 90

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("imageio: png encode: %w", err)
		}
		return nil
	case FormatWebP:
		if err := webp.Encode(w, img, webp.Options{Quality: Quality}); err != nil {
			return fmt.Errorf("imageio: webp encode: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("imageio: unknown format %v", format)
	}
}
