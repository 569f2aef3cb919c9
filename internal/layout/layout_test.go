package layout

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"masonry-gallery/internal/catalog"
)

func square(string) float64 { return 1.0 }

func names(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("img%02d.jpg", i)
	}
	return out
}

func TestTwelveSquaresInFourColumns(t *testing.T) {
	p := Params{Columns: 4, Width: 820, Gap: 4}
	res := Compute(names(12), square, p)

	cw := res.ColumnWidth
	if cw != (820-4*5)/4.0 {
		t.Fatalf("unexpected column width %v", cw)
	}

	want := 3*cw + 4*p.Gap
	for i, h := range res.ColumnHeights {
		if h != want {
			t.Errorf("column %d: expected height %v, got %v", i, want, h)
		}
	}
	if res.Height != want+p.Gap {
		t.Errorf("expected total height %v, got %v", want+p.Gap, res.Height)
	}

	rows := make(map[float64]int)
	for _, pos := range res.Positions {
		rows[pos.Y]++
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(rows))
	}
}

func TestIdenticalRatiosBalanceColumns(t *testing.T) {
	for _, tc := range []struct{ n, cols int }{{7, 3}, {10, 4}, {1, 5}, {23, 6}} {
		res := Compute(names(tc.n), func(string) float64 { return 0.75 }, Params{Columns: tc.cols, Width: 1000, Gap: 6})
		imgH := res.ColumnWidth / 0.75

		lo, hi := res.ColumnHeights[0], res.ColumnHeights[0]
		for _, h := range res.ColumnHeights {
			lo = math.Min(lo, h)
			hi = math.Max(hi, h)
		}
		if hi-lo > imgH+6+1e-9 {
			t.Errorf("%d images / %d cols: column spread %v exceeds one image", tc.n, tc.cols, hi-lo)
		}
		if res.Height != hi+6 {
			t.Errorf("%d images / %d cols: expected height %v, got %v", tc.n, tc.cols, hi+6, res.Height)
		}
	}
}

func TestNoVerticalOverlapWithinColumn(t *testing.T) {
	ratios := []float64{1.5, 0.5, 1, 2, 0.66, 1.2, 0.8, 3, 0.4, 1}
	paths := names(len(ratios))
	byPath := make(map[string]float64, len(paths))
	for i, p := range paths {
		byPath[p] = ratios[i]
	}
	ratio := func(p string) float64 { return byPath[p] }
	res := Compute(paths, ratio, Params{Columns: 3, Width: 600, Gap: 4})

	byColumn := make(map[float64][]Position)
	for _, path := range res.Order {
		pos := res.Positions[path]
		byColumn[pos.X] = append(byColumn[pos.X], pos)
	}
	for x, col := range byColumn {
		for i := 1; i < len(col); i++ {
			if col[i].Y < col[i-1].Bottom() {
				t.Errorf("column at x=%v: item %d overlaps item %d", x, i, i-1)
			}
		}
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	ratio := func(p string) float64 { return float64(len(p)%5+1) / 3 }
	p := Params{Columns: 5, Width: 1280, Gap: 8}
	a := Compute(names(40), ratio, p)
	b := Compute(names(40), ratio, p)
	if !reflect.DeepEqual(a, b) {
		t.Error("layouts differ for identical inputs")
	}
}

func TestBadRatiosAreSquare(t *testing.T) {
	res := Compute([]string{"a", "b"}, func(p string) float64 {
		if p == "a" {
			return 0
		}
		return math.NaN()
	}, Params{Columns: 2, Width: 400, Gap: 0})
	for _, pos := range res.Positions {
		if pos.Height != pos.Width {
			t.Errorf("expected square fallback, got %vx%v", pos.Width, pos.Height)
		}
	}
}

func TestColumnWidthMinimum(t *testing.T) {
	tests := []struct {
		p    Params
		want float64
	}{
		{Params{Columns: 4, Width: 820, Gap: 4}, 200},
		{Params{Columns: 6, Width: 100, Gap: 4}, DefaultMinColumnWidth},
		{Params{Columns: 3, Width: 100, Gap: 4, MinColumnWidth: 80}, 80},
		{Params{Columns: 0, Width: 208, Gap: 4}, 200},
		{Params{Columns: 3, Width: 1001, Gap: 4}, (1001.0 - 16) / 3},
	}
	for _, tt := range tests {
		if got := ColumnWidth(tt.p); got != tt.want {
			t.Errorf("ColumnWidth(%+v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestFractionalColumnWidthPositions(t *testing.T) {
	paths := []string{"a", "b", "c"}
	res := Compute(paths, func(string) float64 { return 1 }, Params{Columns: 3, Width: 1001, Gap: 4})

	cw := (1001.0 - 16) / 3
	for i, p := range paths {
		pos := res.Positions[p]
		wantX := 4 + float64(i)*(cw+4)
		if math.Abs(pos.X-wantX) > 1e-9 || pos.Width != cw {
			t.Errorf("%s: expected x=%v width=%v, got x=%v width=%v", p, wantX, cw, pos.X, pos.Width)
		}
	}
	// the right margin equals the gap
	last := res.Positions["c"]
	if math.Abs(1001-(last.X+last.Width)-4) > 1e-9 {
		t.Errorf("expected a 4px right margin, got %v", 1001-(last.X+last.Width))
	}
	if res.ThumbWidth() != 328 {
		t.Errorf("expected thumbnails 328px wide, got %d", res.ThumbWidth())
	}
}

func TestForcedColumns(t *testing.T) {
	tests := []struct {
		configured int
		mode       catalog.ViewMode
		count      int
		want       int
	}{
		{5, catalog.ViewSelected, 2, 2},
		{5, catalog.ViewSelected, 3, 3},
		{5, catalog.ViewSelected, 4, 5},
		{5, catalog.ViewSelected, 1, 5},
		{4, catalog.ViewAll, 2, 4},
	}
	for _, tt := range tests {
		if got := Columns(tt.configured, tt.mode, tt.count); got != tt.want {
			t.Errorf("Columns(%d, %v, %d) = %d, want %d", tt.configured, tt.mode, tt.count, got, tt.want)
		}
	}
}
