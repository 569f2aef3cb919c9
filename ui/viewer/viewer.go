// Package viewer provides the single-image pan/zoom widget.
package viewer

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"masonry-gallery/internal/panzoom"
	"masonry-gallery/internal/render"
)

// Viewer shows one image. The panzoom controller decides what bitmap is
// shown where; the viewer only places it. Stretching a stale bitmap to a
// new size is left to the GPU.
type Viewer struct {
	widget.BaseWidget
	ctrl *panzoom.Controller

	bg      *fynecanvas.Rectangle
	img     *fynecanvas.Image
	content *fyne.Container

	mu       sync.Mutex
	scale    float32 // pixels per fyne unit
	dragging bool

	onZoomChange func(zoom float64)
}

// New creates a viewer with the given zoom options.
func New(opts panzoom.Options) *Viewer {
	v := &Viewer{scale: 1}
	v.bg = fynecanvas.NewRectangle(render.DefaultPalette.Background)
	v.img = fynecanvas.NewImageFromImage(nil)
	v.img.FillMode = fynecanvas.ImageFillStretch
	v.img.ScaleMode = fynecanvas.ImageScaleFastest
	v.content = container.NewWithoutLayout(v.bg, v.img)
	v.ctrl = panzoom.New(opts, panzoom.PresenterFunc(v.present))
	v.ExtendBaseWidget(v)
	return v
}

// Controller returns the pan/zoom controller driving the view.
func (v *Viewer) Controller() *panzoom.Controller {
	return v.ctrl
}

// OnZoomChange sets a callback for zoom changes.
func (v *Viewer) OnZoomChange(callback func(zoom float64)) {
	v.onZoomChange = callback
}

// SetImage shows img, identified by id.
func (v *Viewer) SetImage(id string, img image.Image) {
	v.ctrl.SetImage(id, img)
}

// Clear empties the view.
func (v *Viewer) Clear() {
	v.ctrl.Clear()
	v.img.Image = nil
	v.img.Refresh()
}

// ZoomIn raises the zoom one step.
func (v *Viewer) ZoomIn() {
	v.notify(v.ctrl.ZoomIn())
}

// ZoomOut lowers the zoom one step.
func (v *Viewer) ZoomOut() {
	v.notify(v.ctrl.ZoomOut())
}

// ResetZoom returns to the fitted view.
func (v *Viewer) ResetZoom() {
	v.ctrl.Reset()
	v.notify(1)
}

func (v *Viewer) notify(zoom float64) {
	if v.onZoomChange != nil {
		v.onZoomChange(zoom)
	}
}

func (v *Viewer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.content)
}

// Resize passes the new size to the controller in pixels.
func (v *Viewer) Resize(size fyne.Size) {
	v.BaseWidget.Resize(size)
	v.bg.Resize(size)

	scale := float32(1)
	if c := fyne.CurrentApp().Driver().CanvasForObject(v); c != nil {
		scale = c.Scale()
	}
	v.mu.Lock()
	v.scale = scale
	v.mu.Unlock()

	v.ctrl.SetViewport(image.Pt(int(size.Width*scale), int(size.Height*scale)))
}

// Scrolled zooms with the mouse wheel.
func (v *Viewer) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		v.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		v.ZoomOut()
	}
}

// Dragged pans the image while zoomed in.
func (v *Viewer) Dragged(ev *fyne.DragEvent) {
	v.mu.Lock()
	if !v.dragging {
		v.dragging = v.ctrl.BeginDrag()
	}
	dragging, scale := v.dragging, v.scale
	v.mu.Unlock()

	if dragging {
		v.ctrl.DragBy(float64(ev.Dragged.DX*scale), float64(ev.Dragged.DY*scale))
	}
}

// DragEnd finishes the pan and lets the view settle.
func (v *Viewer) DragEnd() {
	v.mu.Lock()
	dragging := v.dragging
	v.dragging = false
	v.mu.Unlock()

	if dragging {
		v.ctrl.EndDrag()
	}
}

// Stop cancels the pending high quality redraw.
func (v *Viewer) Stop() {
	v.ctrl.Stop()
}

// present places a controller frame. It may run on the settle timer.
func (v *Viewer) present(f panzoom.Frame) {
	v.mu.Lock()
	scale := v.scale
	v.mu.Unlock()

	v.img.Image = f.Image
	v.img.Move(fyne.NewPos(float32(f.Rect.Min.X)/scale, float32(f.Rect.Min.Y)/scale))
	v.img.Resize(fyne.NewSize(float32(f.Rect.Dx())/scale, float32(f.Rect.Dy())/scale))
	if f.HighQuality {
		v.img.ScaleMode = fynecanvas.ImageScalePixels
	} else {
		v.img.ScaleMode = fynecanvas.ImageScaleFastest
	}
	v.img.Refresh()
}
