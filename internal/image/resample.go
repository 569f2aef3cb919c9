package image

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Quality selects a resampling filter.
type Quality int

const (
	QualityFast Quality = iota // bilinear-class filter, used for buffered work and instant redraws
	QualityHigh                // Lanczos / Catmull-Rom, used for visible items and settled views
)

func (q Quality) String() string {
	if q == QualityHigh {
		return "high"
	}
	return "fast"
}

// Thumbnail resizes img to width pixels wide, height derived from ratio
// (width / height). The result is at least 1x1.
func Thumbnail(img image.Image, width int, ratio float64, q Quality) *image.NRGBA {
	if width < 1 {
		width = 1
	}
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 1
	}
	height := int(math.Round(float64(width) / ratio))
	if height < 1 {
		height = 1
	}

	filter := imaging.Linear
	if q == QualityHigh {
		filter = imaging.Lanczos
	}
	return imaging.Resize(img, width, height, filter)
}

// Scale resamples src to exactly size using x/image/draw.
func Scale(src image.Image, size image.Point, q Quality) *image.RGBA {
	if size.X < 1 {
		size.X = 1
	}
	if size.Y < 1 {
		size.Y = 1
	}
	dst := image.NewRGBA(image.Rectangle{Max: size})

	var scaler draw.Scaler = draw.ApproxBiLinear
	if q == QualityHigh {
		scaler = draw.CatmullRom
	}
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// FitSize returns the largest size with src's aspect ratio that fits in bounds.
func FitSize(src image.Point, bounds image.Point) image.Point {
	if src.X <= 0 || src.Y <= 0 || bounds.X <= 0 || bounds.Y <= 0 {
		return image.Point{}
	}
	scale := math.Min(float64(bounds.X)/float64(src.X), float64(bounds.Y)/float64(src.Y))
	return image.Pt(
		int(math.Max(1, math.Round(float64(src.X)*scale))),
		int(math.Max(1, math.Round(float64(src.Y)*scale))),
	)
}
