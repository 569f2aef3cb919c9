// Command layoutdump computes the masonry layout of a folder and prints it,
// optionally rendering a contact sheet of the whole layout.
package main

import (
	"flag"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"masonry-gallery/internal/aspect"
	"masonry-gallery/internal/catalog"
	gimage "masonry-gallery/internal/image"
	"masonry-gallery/internal/layout"
	"masonry-gallery/internal/render"
)

func main() {
	dir := flag.String("d", "", "Image folder")
	columns := flag.Int("c", 4, "Number of columns")
	width := flag.Float64("w", 1200, "Viewport width in px")
	gap := flag.Float64("g", layout.DefaultGap, "Gap between items in px")
	sheet := flag.String("o", "", "Write a contact sheet PNG to this path")
	flag.Parse()

	if *dir == "" {
		fmt.Println("Usage: layoutdump -d <folder> [-c columns] [-w width] [-o sheet.png]")
		os.Exit(1)
	}

	items, err := catalog.Scan(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to scan %s: %v\n", *dir, err)
		os.Exit(1)
	}
	paths := make([]string, len(items))
	for i, it := range items {
		paths[i] = it.Path
	}

	resolver := aspect.New()
	lay := layout.Compute(paths, resolver.Resolve, layout.Params{
		Columns: *columns,
		Width:   *width,
		Gap:     *gap,
	})

	fmt.Printf("%d images, %d columns of %.0f px, height %.0f px\n",
		len(lay.Order), lay.Columns, lay.ColumnWidth, lay.Height)
	for i, path := range lay.Order {
		p := lay.Positions[path]
		fmt.Printf("%4d  x=%6.0f y=%8.0f  %4.0fx%-5.0f ratio=%.3f  %s\n",
			i, p.X, p.Y, p.Width, p.Height, resolver.Resolve(path), filepath.Base(path))
	}
	for c, h := range lay.ColumnHeights {
		fmt.Printf("column %d: %.0f px\n", c, h)
	}

	if *sheet == "" {
		return
	}
	if err := writeSheet(*sheet, lay, *width, resolver.Resolve); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write contact sheet: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *sheet)
}

// writeSheet paints every layout position with a high quality thumbnail.
func writeSheet(path string, lay *layout.Result, width float64, ratio func(string) float64) error {
	ops := make([]render.Op, 0, len(lay.Order))
	for _, p := range lay.Order {
		pos := lay.Positions[p]
		op := render.Op{Path: p, Rect: pos, Kind: render.OpBroken}
		if img, err := gimage.Decode(p); err == nil {
			op.Kind = render.OpImage
			op.Image = gimage.Thumbnail(img, int(pos.Width), ratio(p), gimage.QualityHigh)
		}
		ops = append(ops, op)
	}

	dst := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(width)), int(math.Ceil(lay.Height))+1))
	render.Paint(dst, ops, 0, render.DefaultPalette)
	return imaging.Save(dst, path)
}
