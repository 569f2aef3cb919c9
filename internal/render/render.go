// Package render decides, for one scroll position, which laid-out images
// are drawn, which get a placeholder, and which thumbnails to request.
package render

import (
	"errors"
	"image"
	"math"
	"time"

	"go.uber.org/zap"

	"masonry-gallery/internal/layout"
	"masonry-gallery/internal/logging"
	"masonry-gallery/internal/metrics"
	"masonry-gallery/internal/thumbs"
)

// DefaultOverscan is the margin in px rendered above and below the view.
const DefaultOverscan = 350

// Viewport is the presentation layer's view of the scrollable content.
type Viewport struct {
	ScrollFraction float64 // top of the view as a fraction of the layout height
	Width          float64
	Height         float64
	Overscan       float64
}

// Strict returns the strictly visible band in content coordinates.
func (v Viewport) Strict(total float64) (top, bottom float64) {
	top = v.ScrollFraction * total
	return top, top + v.Height
}

// Window returns the visible band widened by the overscan on both sides.
func (v Viewport) Window(total float64) (top, bottom float64) {
	top = v.ScrollFraction*total - v.Overscan
	return top, top + v.Height + 2*v.Overscan
}

// OpKind is what to draw for one image.
type OpKind int

const (
	OpImage       OpKind = iota // thumbnail is cached
	OpPlaceholder               // thumbnail absent or pending
	OpBroken                    // thumbnail failed to generate
)

func (k OpKind) String() string {
	switch k {
	case OpImage:
		return "image"
	case OpPlaceholder:
		return "placeholder"
	case OpBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// Op is a single draw instruction in content coordinates.
type Op struct {
	Path     string
	Kind     OpKind
	Image    image.Image // set for OpImage
	Rect     layout.Position
	Selected bool
}

// Frame is the output of one render pass.
type Frame struct {
	Ops      []Op
	Top      float64 // window bounds used for culling
	Bottom   float64
	Height   float64 // total layout height
	Enqueued int     // tasks accepted by the submitter
	Dropped  int     // tasks refused because the queue was full
}

// Count returns how many ops of kind k the frame holds.
func (f *Frame) Count(k OpKind) int {
	n := 0
	for _, op := range f.Ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Source looks up thumbnails. *thumbs.Store implements it.
type Source interface {
	Lookup(k thumbs.Key) (image.Image, thumbs.State)
}

// Submitter accepts generation tasks without blocking. *thumbs.Pool
// implements it.
type Submitter interface {
	Submit(t thumbs.Task) error
}

// Renderer turns a layout and a viewport into draw ops.
type Renderer struct {
	source Source
	submit Submitter
	log    *zap.Logger
}

// New creates a renderer.
func New(source Source, submit Submitter) *Renderer {
	return &Renderer{source: source, submit: submit, log: logging.Named("render")}
}

// Pass performs one render pass. Items entirely outside the overscan
// window are neither drawn nor requested. selected may be nil.
func (r *Renderer) Pass(v Viewport, lay *layout.Result, selected func(path string) bool, epoch uint64) Frame {
	start := time.Now()
	if lay.Empty() {
		return Frame{}
	}

	top, bottom := v.Window(lay.Height)
	strictTop, strictBottom := v.Strict(lay.Height)
	width := lay.ThumbWidth()

	f := Frame{Top: top, Bottom: bottom, Height: lay.Height}
	for _, path := range lay.Order {
		pos := lay.Positions[path]
		if pos.Bottom() < top || pos.Y > bottom {
			continue
		}

		op := Op{Path: path, Rect: pos, Selected: selected != nil && selected(path)}
		key := thumbs.Key{Path: path, Width: width}
		img, state := r.source.Lookup(key)
		switch state {
		case thumbs.Present:
			op.Kind = OpImage
			op.Image = img
		case thumbs.Failed:
			op.Kind = OpBroken
		case thumbs.Pending:
			op.Kind = OpPlaceholder
		default:
			op.Kind = OpPlaceholder
			r.request(&f, thumbs.Task{
				Key:      key,
				Priority: Distance(pos, strictTop, strictBottom),
				Epoch:    epoch,
			})
		}
		f.Ops = append(f.Ops, op)
	}

	metrics.RenderPass(time.Since(start), f.Count(OpImage), f.Count(OpPlaceholder), f.Count(OpBroken))
	return f
}

func (r *Renderer) request(f *Frame, t thumbs.Task) {
	err := r.submit.Submit(t)
	switch {
	case err == nil:
		f.Enqueued++
	case errors.Is(err, thumbs.ErrQueueFull):
		f.Dropped++
	default:
		r.log.Debug("thumbnail request refused", zap.String("path", t.Path), zap.Error(err))
	}
}

// Distance returns how far pos lies from the band [top, bottom]; zero
// when it overlaps the band.
func Distance(pos layout.Position, top, bottom float64) float64 {
	switch {
	case pos.Bottom() < top:
		return top - pos.Bottom()
	case pos.Y > bottom:
		return pos.Y - bottom
	default:
		return 0
	}
}

// ScrollFraction converts a pixel offset into a fraction of total height,
// clamped so the view never scrolls past the end.
func ScrollFraction(offset, viewHeight, total float64) float64 {
	if total <= 0 {
		return 0
	}
	max := math.Max(total-viewHeight, 0)
	return math.Max(0, math.Min(offset, max)) / total
}
