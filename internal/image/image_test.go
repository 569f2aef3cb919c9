package image

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return path
}

func TestDecodeConfig(t *testing.T) {
	path := writePNG(t, t.TempDir(), "a.png", 40, 20)
	w, h, err := DecodeConfig(path)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if w != 40 || h != 20 {
		t.Errorf("expected 40x20, got %dx%d", w, h)
	}
}

func TestDecode(t *testing.T) {
	path := writePNG(t, t.TempDir(), "a.png", 30, 10)
	img, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 10 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
}

func TestDecodeCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("not a png"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Decode(path); err == nil {
		t.Error("expected decode error")
	}
	if _, _, err := DecodeConfig(path); err == nil {
		t.Error("expected header error")
	}
}

func TestDecodeUnsupported(t *testing.T) {
	_, err := Decode("notes.txt")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestIsSupportedFormat(t *testing.T) {
	tests := map[string]bool{
		"a.JPG":   true,
		"b.png":   true,
		"c.webp":  true,
		"d.tiff":  true,
		"e.txt":   false,
		"f":       false,
		"g.jpeg~": false,
	}
	for path, want := range tests {
		if got := IsSupportedFormat(path); got != want {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestThumbnailSize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for _, q := range []Quality{QualityFast, QualityHigh} {
		thumb := Thumbnail(src, 100, 2.0, q)
		if thumb.Bounds().Dx() != 100 || thumb.Bounds().Dy() != 50 {
			t.Errorf("%v: expected 100x50, got %v", q, thumb.Bounds())
		}
	}

	thumb := Thumbnail(src, 100, 0, QualityFast)
	if thumb.Bounds().Dy() != 100 {
		t.Errorf("bad ratio should fall back to square, got %v", thumb.Bounds())
	}
}

func TestScale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 32))
	dst := Scale(src, image.Pt(16, 8), QualityHigh)
	if dst.Bounds().Size() != image.Pt(16, 8) {
		t.Errorf("expected 16x8, got %v", dst.Bounds().Size())
	}
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		src, bounds, want image.Point
	}{
		{image.Pt(200, 100), image.Pt(100, 100), image.Pt(100, 50)},
		{image.Pt(100, 200), image.Pt(100, 100), image.Pt(50, 100)},
		{image.Pt(50, 50), image.Pt(200, 100), image.Pt(100, 100)},
		{image.Pt(0, 50), image.Pt(200, 100), image.Pt(0, 0)},
	}
	for _, tt := range tests {
		if got := FitSize(tt.src, tt.bounds); got != tt.want {
			t.Errorf("FitSize(%v, %v) = %v, want %v", tt.src, tt.bounds, got, tt.want)
		}
	}
}
