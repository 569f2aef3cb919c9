// Package aspect resolves and memoizes image aspect ratios.
package aspect

import (
	"sync"

	gimage "masonry-gallery/internal/image"
	"masonry-gallery/internal/logging"
)

// DefaultRatio is returned when an image's dimensions cannot be read.
const DefaultRatio = 1.0

// Probe returns the displayed width and height of an image.
type Probe func(path string) (width, height int, err error)

// Resolver memoizes width/height ratios by path. Successful lookups are
// kept until Reset; failures are not remembered, so the next call probes
// the file again.
//
// Resolver is safe for concurrent use.
type Resolver struct {
	probe Probe

	mu     sync.RWMutex
	ratios map[string]float64
}

// New creates a resolver that reads image headers from disk.
func New() *Resolver {
	return NewWithProbe(gimage.DecodeConfig)
}

// NewWithProbe creates a resolver backed by probe.
func NewWithProbe(probe Probe) *Resolver {
	return &Resolver{
		probe:  probe,
		ratios: make(map[string]float64),
	}
}

// Resolve returns width/height for path, or DefaultRatio if it cannot be read.
func (r *Resolver) Resolve(path string) float64 {
	r.mu.RLock()
	ratio, ok := r.ratios[path]
	r.mu.RUnlock()
	if ok {
		return ratio
	}

	w, h, err := r.probe(path)
	if err != nil || w <= 0 || h <= 0 {
		logging.Debug("aspect ratio unavailable, using default",
			logging.String("path", path), logging.Err(err))
		return DefaultRatio
	}

	ratio = float64(w) / float64(h)
	r.mu.Lock()
	r.ratios[path] = ratio
	r.mu.Unlock()
	return ratio
}

// Known reports whether path has a memoized ratio.
func (r *Resolver) Known(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ratios[path]
	return ok
}

// Len returns the number of memoized ratios.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ratios)
}

// Reset forgets every memoized ratio. Called on catalog reload.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.ratios = make(map[string]float64)
	r.mu.Unlock()
}
