// Package gallery provides the scrollable masonry grid widget.
package gallery

import (
	"image"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"masonry-gallery/internal/app"
	"masonry-gallery/internal/debounce"
	"masonry-gallery/internal/render"
)

// scrollStep is the content distance, in pixels, of one wheel notch.
const scrollStep = 60

// Grid draws the visible part of the masonry layout into a raster and
// turns pointer input into scroll, open and selection actions.
type Grid struct {
	widget.BaseWidget
	state  *app.State
	raster *fynecanvas.Raster

	mu     sync.Mutex
	offset float64 // scroll position in content pixels
	scale  float64 // raster pixels per fyne unit
	frame  render.Frame
	height float64 // layout height at the last draw
	view   float64 // raster height at the last draw

	// Bursts of scroll and resize events collapse into one redraw.
	redraw *debounce.Debouncer

	onOpen   func(index int)
	onChange func()
}

// New creates a grid for state.
func New(state *app.State, delay time.Duration) *Grid {
	g := &Grid{state: state, scale: 1}
	g.raster = fynecanvas.NewRaster(g.draw)
	g.raster.ScaleMode = fynecanvas.ImageScalePixels
	g.redraw = debounce.New(delay, g.raster.Refresh)
	g.ExtendBaseWidget(g)

	state.On(app.EventThumbnailsReady, func(interface{}) { g.raster.Refresh() })
	state.On(app.EventCatalogLoaded, func(interface{}) { g.ScrollToTop() })
	// a rescan of the same folder keeps the scroll position
	state.On(app.EventCatalogReloaded, func(interface{}) { g.Invalidate() })
	state.On(app.EventLayoutInvalidated, func(interface{}) { g.Invalidate() })
	state.On(app.EventSelectionChanged, func(interface{}) { g.raster.Refresh() })
	return g
}

// OnOpen sets the callback for a click on an image. index is the position
// in the visible list.
func (g *Grid) OnOpen(callback func(index int)) {
	g.onOpen = callback
}

// OnChange sets a callback run after every draw, used for the status bar.
func (g *Grid) OnChange(callback func()) {
	g.onChange = callback
}

func (g *Grid) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(g.raster)
}

// MinSize keeps the grid usable in a small window.
func (g *Grid) MinSize() fyne.Size {
	return fyne.NewSize(200, 200)
}

// Resize schedules a redraw at the new size.
func (g *Grid) Resize(size fyne.Size) {
	g.BaseWidget.Resize(size)
	g.redraw.Trigger()
}

// Invalidate schedules a redraw after the debounce window.
func (g *Grid) Invalidate() {
	g.redraw.Trigger()
}

// ScrollToTop resets the scroll position.
func (g *Grid) ScrollToTop() {
	g.mu.Lock()
	g.offset = 0
	g.mu.Unlock()
	g.redraw.Trigger()
}

// Frame returns the last rendered frame.
func (g *Grid) Frame() render.Frame {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frame
}

// Stop cancels pending redraws.
func (g *Grid) Stop() {
	g.redraw.Stop()
}

// Scrolled moves the view by wheel or touchpad deltas.
func (g *Grid) Scrolled(ev *fyne.ScrollEvent) {
	g.mu.Lock()
	g.offset -= float64(ev.Scrolled.DY) * g.scale * scrollStep / 10
	g.clampLocked()
	g.mu.Unlock()
	g.redraw.Trigger()
}

// Dragged scrolls with the pointer on touch screens.
func (g *Grid) Dragged(ev *fyne.DragEvent) {
	g.mu.Lock()
	g.offset -= float64(ev.Dragged.DY) * g.scale
	g.clampLocked()
	g.mu.Unlock()
	g.redraw.Trigger()
}

// DragEnd flushes the pending redraw so the final position is sharp.
func (g *Grid) DragEnd() {
	g.redraw.Flush()
}

// Tapped opens the image under the pointer.
func (g *Grid) Tapped(ev *fyne.PointEvent) {
	path, ok := g.hit(ev.Position)
	if !ok || g.onOpen == nil {
		return
	}
	for i, d := range g.state.Visible() {
		if d.Path == path {
			g.onOpen(i)
			return
		}
	}
}

// TappedSecondary toggles the selection of the image under the pointer.
func (g *Grid) TappedSecondary(ev *fyne.PointEvent) {
	if path, ok := g.hit(ev.Position); ok {
		g.state.Toggle(path)
	}
}

// hit returns the image drawn at pos.
func (g *Grid) hit(pos fyne.Position) (string, bool) {
	// Workaround for Fyne bug: reject clicks outside widget bounds
	size := g.Size()
	if pos.X < 0 || pos.Y < 0 || pos.X > size.Width || pos.Y > size.Height {
		return "", false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	x := float64(pos.X) * g.scale
	y := float64(pos.Y)*g.scale + g.offset
	for _, op := range g.frame.Ops {
		r := op.Rect
		if x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Bottom() {
			return op.Path, true
		}
	}
	return "", false
}

func (g *Grid) clampLocked() {
	max := math.Max(g.height-g.view, 0)
	g.offset = math.Max(0, math.Min(g.offset, max))
}

// draw is the raster drawing function. w and h are in pixels.
func (g *Grid) draw(w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return dst
	}

	lay := g.state.Layout(float64(w))

	g.mu.Lock()
	if size := g.Size(); size.Width > 0 {
		g.scale = float64(w) / float64(size.Width)
	}
	g.height = lay.Height
	g.view = float64(h)
	g.clampLocked()
	v := render.Viewport{
		ScrollFraction: render.ScrollFraction(g.offset, float64(h), lay.Height),
		Width:          float64(w),
		Height:         float64(h),
	}
	offset := g.offset
	g.mu.Unlock()

	frame := g.state.Render(v)
	render.Paint(dst, frame.Ops, offset, render.DefaultPalette)

	g.mu.Lock()
	g.frame = frame
	g.mu.Unlock()

	if g.onChange != nil {
		g.onChange()
	}
	return dst
}
