// Package layout computes masonry (shortest column first) positions for an
// ordered list of images. It never decodes anything: heights come from the
// aspect ratios the caller supplies.
package layout

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"masonry-gallery/internal/catalog"
)

// DefaultMinColumnWidth is the floor applied to computed column widths.
const DefaultMinColumnWidth = 50

// DefaultGap is the spacing between items and columns in px.
const DefaultGap = 4

// Position is the placement of one image in content coordinates.
type Position struct {
	X, Y          float64
	Width, Height float64
}

// Bottom returns the y coordinate just below the image.
func (p Position) Bottom() float64 {
	return p.Y + p.Height
}

// Params are the inputs that, together with the ordered paths, fully
// determine a layout.
type Params struct {
	Columns        int
	Width          float64 // viewport width in px
	Gap            float64
	MinColumnWidth float64
}

// Result is a computed layout.
type Result struct {
	Positions     map[string]Position
	Order         []string // paths in placement order
	Columns       int
	ColumnWidth   float64
	ColumnHeights []float64
	Height        float64 // total scrollable height
}

// Empty reports whether the layout places no images.
func (r *Result) Empty() bool {
	return r == nil || len(r.Order) == 0
}

// ThumbWidth is the column width rounded to whole pixels, the width
// thumbnails are generated and cached at.
func (r *Result) ThumbWidth() int {
	if r == nil {
		return 0
	}
	return int(math.Round(r.ColumnWidth))
}

// ColumnWidth returns the width of one column for p, never less than the
// minimum column width. The width is not rounded, so positions stay exact.
func ColumnWidth(p Params) float64 {
	cols := p.Columns
	if cols < 1 {
		cols = 1
	}
	min := p.MinColumnWidth
	if min <= 0 {
		min = DefaultMinColumnWidth
	}
	w := (p.Width - p.Gap*float64(cols+1)) / float64(cols)
	if w < min {
		w = min
	}
	return w
}

// Compute places paths in order, each into the currently shortest column.
// ratio returns width/height for a path; non-positive ratios are treated
// as square. The result is deterministic for the same inputs.
func Compute(paths []string, ratio func(path string) float64, p Params) *Result {
	cols := p.Columns
	if cols < 1 {
		cols = 1
	}
	cw := ColumnWidth(p)

	heights := make([]float64, cols)
	for i := range heights {
		heights[i] = p.Gap
	}

	res := &Result{
		Positions:   make(map[string]Position, len(paths)),
		Order:       make([]string, 0, len(paths)),
		Columns:     cols,
		ColumnWidth: cw,
	}

	for _, path := range paths {
		if _, dup := res.Positions[path]; dup {
			continue
		}
		r := ratio(path)
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			r = 1
		}
		h := cw / r

		// MinIdx returns the lowest index among equal minima, so ties go left.
		col := floats.MinIdx(heights)
		res.Positions[path] = Position{
			X:      p.Gap + float64(col)*(cw+p.Gap),
			Y:      heights[col],
			Width:  cw,
			Height: h,
		}
		res.Order = append(res.Order, path)
		heights[col] += h + p.Gap
	}

	res.ColumnHeights = heights
	res.Height = floats.Max(heights) + p.Gap
	return res
}

// Columns returns the column count to use. In the selected-items view
// exactly two or three items force two or three columns so the grid does
// not look empty; otherwise the configured count applies.
func Columns(configured int, mode catalog.ViewMode, count int) int {
	if mode == catalog.ViewSelected && (count == 2 || count == 3) {
		return count
	}
	if configured < 1 {
		return 1
	}
	return configured
}
