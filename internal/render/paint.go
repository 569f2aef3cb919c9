package render

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Palette holds the colors Paint uses for everything but thumbnails.
type Palette struct {
	Background  color.RGBA
	Placeholder color.RGBA
	Broken      color.RGBA
	Selection   color.RGBA
}

// DefaultPalette matches the dark gallery theme.
var DefaultPalette = Palette{
	Background:  color.RGBA{40, 40, 40, 255},
	Placeholder: color.RGBA{64, 64, 64, 255},
	Broken:      color.RGBA{96, 40, 40, 255},
	Selection:   color.RGBA{0, 150, 255, 255},
}

// SelectionBorder is the width in px of the selection highlight.
const SelectionBorder = 3

// Paint draws the frame's ops onto dst. offset is the content y coordinate
// shown at the top row of dst.
func Paint(dst *image.RGBA, ops []Op, offset float64, pal Palette) {
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, &image.Uniform{pal.Background}, image.Point{}, draw.Src)

	for _, op := range ops {
		r := image.Rect(
			int(op.Rect.X), int(op.Rect.Y-offset),
			int(op.Rect.X+op.Rect.Width), int(op.Rect.Bottom()-offset),
		).Add(bounds.Min)
		if !r.Overlaps(bounds) {
			continue
		}

		switch op.Kind {
		case OpImage:
			paintImage(dst, r, op.Image)
		case OpBroken:
			draw.Draw(dst, r, &image.Uniform{pal.Broken}, image.Point{}, draw.Src)
			paintCross(dst, r, pal.Background)
		default:
			draw.Draw(dst, r, &image.Uniform{pal.Placeholder}, image.Point{}, draw.Src)
		}

		if op.Selected {
			paintBorder(dst, r, SelectionBorder, pal.Selection)
		}
	}
}

func paintImage(dst *image.RGBA, r image.Rectangle, src image.Image) {
	if src == nil {
		return
	}
	sb := src.Bounds()
	if sb.Dx() == r.Dx() && sb.Dy() == r.Dy() {
		draw.Draw(dst, r, src, sb.Min, draw.Src)
		return
	}
	// Thumbnail heights are rounded, so a one-pixel mismatch is common.
	xdraw.ApproxBiLinear.Scale(dst, r, src, sb, xdraw.Src, nil)
}

func paintBorder(dst *image.RGBA, r image.Rectangle, width int, c color.RGBA) {
	u := &image.Uniform{c}
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}

// paintCross marks a broken image with its two diagonals.
func paintCross(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	clip := r.Intersect(dst.Bounds())
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return
	}
	steps := w
	if h > steps {
		steps = h
	}
	for i := 0; i <= steps; i++ {
		x := r.Min.X + i*(w-1)/steps
		y := r.Min.Y + i*(h-1)/steps
		for _, p := range []image.Point{{x, y}, {r.Max.X - 1 - (x - r.Min.X), y}} {
			if p.In(clip) {
				dst.SetRGBA(p.X, p.Y, c)
			}
		}
	}
}
