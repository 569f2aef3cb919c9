// Package panzoom drives the single-image view: zoom and pan state plus a
// two-tier redraw. Every change is shown at once by repositioning or
// stretching the current bitmap; a high quality resample follows once the
// input has been quiet for the settle delay.
package panzoom

import (
	"image"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"masonry-gallery/internal/debounce"
	gimage "masonry-gallery/internal/image"
	"masonry-gallery/internal/logging"
)

// State is the controller's interaction state.
type State int

const (
	Idle     State = iota // showing a settled high quality bitmap
	Dragging              // pointer is down and panning
	Settling              // waiting for the high quality redraw
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Dragging:
		return "Dragging"
	case Settling:
		return "Settling"
	default:
		return "Unknown"
	}
}

// Frame tells the presenter what to show. Image is drawn stretched to
// Rect, which is in view coordinates and may extend past the view.
type Frame struct {
	Image       image.Image
	Rect        image.Rectangle
	HighQuality bool
	Zoom        float64
}

// Presenter displays frames. Present is called without the controller's
// lock held, from the caller's goroutine or the settle timer.
type Presenter interface {
	Present(f Frame)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(Frame)

// Present calls f(fr).
func (f PresenterFunc) Present(fr Frame) { f(fr) }

// Scaler resamples src to size.
type Scaler func(src image.Image, size image.Point, q gimage.Quality) image.Image

// Options configures a Controller.
type Options struct {
	ZoomMin     float64
	ZoomMax     float64
	ZoomStep    float64
	SettleDelay time.Duration
	Scale       Scaler // nil uses image.Scale
}

// DefaultOptions returns the zoom range [0.25, 5] in 0.25 steps with a
// 150ms settle delay.
func DefaultOptions() Options {
	return Options{ZoomMin: 0.25, ZoomMax: 5.0, ZoomStep: 0.25, SettleDelay: 150 * time.Millisecond}
}

// Controller owns zoom, pan and the displayed bitmap for one view.
type Controller struct {
	mu        sync.Mutex
	opts      Options
	presenter Presenter
	log       *zap.Logger

	state  State
	zoom   float64
	panX   float64
	panY   float64
	view   image.Point
	source image.Image
	id     string

	// bitmap is what the presenter currently shows; it may be the source
	// itself stretched until the first settle completes.
	bitmap image.Image
	hq     bool

	// last high quality render
	hqBitmap image.Image
	hqSize   image.Point
	hqID     string

	settle *debounce.Debouncer
}

// New creates a controller presenting to p.
func New(opts Options, p Presenter) *Controller {
	def := DefaultOptions()
	if opts.ZoomMin <= 0 {
		opts.ZoomMin = def.ZoomMin
	}
	if opts.ZoomMax < opts.ZoomMin {
		opts.ZoomMax = math.Max(def.ZoomMax, opts.ZoomMin)
	}
	if opts.ZoomStep <= 0 {
		opts.ZoomStep = def.ZoomStep
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = def.SettleDelay
	}
	if opts.Scale == nil {
		opts.Scale = func(src image.Image, size image.Point, q gimage.Quality) image.Image {
			return gimage.Scale(src, size, q)
		}
	}
	c := &Controller{opts: opts, presenter: p, zoom: 1, log: logging.Named("panzoom")}
	c.settle = debounce.New(opts.SettleDelay, c.settleNow)
	return c
}

// SetImage shows img, identified by id, at zoom 1 with no pan.
func (c *Controller) SetImage(id string, img image.Image) {
	c.mu.Lock()
	c.id = id
	c.source = img
	c.bitmap = img
	c.hq = false
	c.zoom = 1
	c.panX, c.panY = 0, 0
	f, ok := c.instantLocked()
	c.mu.Unlock()
	c.present(f, ok)
}

// Clear drops the current image.
func (c *Controller) Clear() {
	c.settle.Cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = ""
	c.source = nil
	c.bitmap = nil
	c.hqBitmap = nil
	c.hqSize = image.Point{}
	c.hqID = ""
	c.state = Idle
}

// SetViewport updates the view size in pixels.
func (c *Controller) SetViewport(size image.Point) {
	c.mu.Lock()
	if size == c.view {
		c.mu.Unlock()
		return
	}
	c.view = size
	f, ok := c.instantLocked()
	c.mu.Unlock()
	c.present(f, ok)
}

// ZoomIn raises the zoom level by one step.
func (c *Controller) ZoomIn() float64 {
	c.mu.Lock()
	z := c.zoom + c.opts.ZoomStep
	c.mu.Unlock()
	return c.SetZoom(z)
}

// ZoomOut lowers the zoom level by one step.
func (c *Controller) ZoomOut() float64 {
	c.mu.Lock()
	z := c.zoom - c.opts.ZoomStep
	c.mu.Unlock()
	return c.SetZoom(z)
}

// SetZoom clamps z to the configured range and applies it. Zoom levels at
// or below 1 show the whole image, so the pan offset is reset.
func (c *Controller) SetZoom(z float64) float64 {
	c.mu.Lock()
	c.zoom = clamp(z, c.opts.ZoomMin, c.opts.ZoomMax)
	if c.zoom <= 1 {
		c.panX, c.panY = 0, 0
	}
	z = c.zoom
	f, ok := c.instantLocked()
	c.mu.Unlock()
	c.present(f, ok)
	return z
}

// Reset returns to zoom 1 without pan.
func (c *Controller) Reset() {
	c.SetZoom(1)
}

// BeginDrag starts a pan gesture. Panning only applies when zoomed in; it
// reports whether the drag was accepted.
func (c *Controller) BeginDrag() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source == nil || c.zoom <= 1 {
		return false
	}
	c.state = Dragging
	c.settle.Cancel()
	return true
}

// DragBy moves the image by (dx, dy) view pixels during a drag.
func (c *Controller) DragBy(dx, dy float64) {
	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return
	}
	c.panX += dx
	c.panY += dy
	f, ok := c.instantLocked()
	c.mu.Unlock()
	c.present(f, ok)
}

// EndDrag finishes a pan gesture and schedules the high quality redraw.
func (c *Controller) EndDrag() {
	c.mu.Lock()
	if c.state != Dragging {
		c.mu.Unlock()
		return
	}
	c.state = Settling
	c.mu.Unlock()
	c.settle.Trigger()
}

// Flush performs a pending high quality redraw immediately.
func (c *Controller) Flush() {
	c.settle.Flush()
}

// Stop cancels any pending redraw. The controller must not be used after.
func (c *Controller) Stop() {
	c.settle.Stop()
}

// State returns the interaction state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Zoom returns the zoom level.
func (c *Controller) Zoom() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// Pan returns the pan offset in view pixels.
func (c *Controller) Pan() (x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panX, c.panY
}

// targetLocked returns the displayed size for the current zoom and view.
func (c *Controller) targetLocked() image.Point {
	if c.source == nil {
		return image.Point{}
	}
	fit := gimage.FitSize(c.source.Bounds().Size(), c.view)
	if fit == (image.Point{}) {
		return fit
	}
	return image.Pt(
		int(math.Max(1, math.Round(float64(fit.X)*c.zoom))),
		int(math.Max(1, math.Round(float64(fit.Y)*c.zoom))),
	)
}

// clampPanLocked keeps the image edge from moving inside the view.
func (c *Controller) clampPanLocked(target image.Point) {
	mx := math.Max(0, float64(target.X-c.view.X)/2)
	my := math.Max(0, float64(target.Y-c.view.Y)/2)
	c.panX = clamp(c.panX, -mx, mx)
	c.panY = clamp(c.panY, -my, my)
}

func (c *Controller) rectLocked(target image.Point) image.Rectangle {
	x := float64(c.view.X-target.X)/2 + c.panX
	y := float64(c.view.Y-target.Y)/2 + c.panY
	min := image.Pt(int(math.Round(x)), int(math.Round(y)))
	return image.Rectangle{Min: min, Max: min.Add(target)}
}

// instantLocked produces the cheap frame for the current state and, unless
// a drag is in progress, schedules the high quality redraw. It never
// resamples: when the target size changed the current bitmap is stretched.
func (c *Controller) instantLocked() (Frame, bool) {
	target := c.targetLocked()
	if target == (image.Point{}) || c.bitmap == nil {
		return Frame{}, false
	}
	c.clampPanLocked(target)

	hq := c.hq && c.bitmap.Bounds().Size() == target
	if c.state != Dragging {
		c.state = Settling
		c.settle.Trigger()
	}
	return Frame{Image: c.bitmap, Rect: c.rectLocked(target), HighQuality: hq, Zoom: c.zoom}, true
}

// settleNow is the high quality tier. The resample runs without the lock;
// its result is discarded if the image or target size changed meanwhile.
func (c *Controller) settleNow() {
	c.mu.Lock()
	if c.state == Dragging || c.source == nil {
		c.mu.Unlock()
		return
	}
	target := c.targetLocked()
	if target == (image.Point{}) {
		c.mu.Unlock()
		return
	}

	if c.hqBitmap != nil && c.hqID == c.id && c.hqSize == target {
		c.bitmap = c.hqBitmap
		c.hq = true
		c.state = Idle
		f := Frame{Image: c.bitmap, Rect: c.rectLocked(target), HighQuality: true, Zoom: c.zoom}
		c.mu.Unlock()
		c.present(f, true)
		return
	}

	src, id := c.source, c.id
	c.mu.Unlock()

	start := time.Now()
	scaled := c.opts.Scale(src, target, gimage.QualityHigh)

	c.mu.Lock()
	if c.id != id || c.state == Dragging || c.targetLocked() != target {
		c.mu.Unlock()
		return
	}
	// the new bitmap exists before the old one is replaced
	c.bitmap = scaled
	c.hq = true
	c.hqBitmap = scaled
	c.hqSize = target
	c.hqID = id
	c.state = Idle
	f := Frame{Image: scaled, Rect: c.rectLocked(target), HighQuality: true, Zoom: c.zoom}
	c.mu.Unlock()

	c.log.Debug("settled",
		zap.String("image", id),
		zap.Int("width", target.X), zap.Int("height", target.Y),
		zap.Duration("took", time.Since(start)))
	c.present(f, true)
}

func (c *Controller) present(f Frame, ok bool) {
	if ok && c.presenter != nil {
		c.presenter.Present(f)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
