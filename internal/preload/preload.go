// Package preload keeps full-resolution images around the one being viewed
// in a bounded cache.
package preload

import (
	"image"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"masonry-gallery/internal/cache"
	gimage "masonry-gallery/internal/image"
	"masonry-gallery/internal/logging"
	"masonry-gallery/internal/metrics"
)

// Loader decodes a full image.
type Loader func(path string) (image.Image, error)

// DefaultOffsets are the neighbours loaded around the current index.
var DefaultOffsets = []int{1, -1, 2, -2}

// Preloader owns the full-image cache. Loads for neighbours run on their
// own goroutines, outside the thumbnail pool.
type Preloader struct {
	cache   *cache.Cache[string, image.Image]
	load    Loader
	offsets []int
	log     *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	// put checks stopped under mu, so no write lands once Stop returns

	stopped atomic.Bool
	wg      sync.WaitGroup
}

// New creates a preloader with a cache of capacity full images. A nil
// loader decodes from disk; nil offsets means DefaultOffsets.
func New(capacity int, offsets []int, load Loader) *Preloader {
	if load == nil {
		load = gimage.Decode
	}
	if offsets == nil {
		offsets = DefaultOffsets
	}
	return &Preloader{
		cache:    cache.New[string, image.Image]("full", capacity),
		load:     load,
		offsets:  append([]int(nil), offsets...),
		log:      logging.Named("preload"),
		inflight: make(map[string]struct{}),
	}
}

// Get returns the full image for path, loading it synchronously on a miss.
func (p *Preloader) Get(path string) (image.Image, error) {
	if img, ok := p.cache.Get(path); ok {
		return img, nil
	}
	img, err := p.load(path)
	if err != nil {
		return nil, err
	}
	p.put(path, img)
	return img, nil
}

func (p *Preloader) put(path string, img image.Image) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped.Load() {
		return false
	}
	p.cache.Put(path, img)
	return true
}

// Cached returns the full image for path if it is already loaded.
func (p *Preloader) Cached(path string) (image.Image, bool) {
	return p.cache.Get(path)
}

// Navigate starts background loads for the neighbours of index i in paths
// and returns how many were started. Neighbours already cached or already
// loading are skipped. Earlier loads are not cancelled; their results
// simply land in the cache.
func (p *Preloader) Navigate(paths []string, i int) int {
	if p.stopped.Load() {
		return 0
	}
	started := 0
	for _, off := range p.offsets {
		j := i + off
		if j < 0 || j >= len(paths) {
			continue
		}
		path := paths[j]
		if p.cache.Contains(path) {
			metrics.Preload("cached")
			continue
		}
		if !p.claim(path) {
			continue
		}
		started++
		p.wg.Add(1)
		go p.fetch(path)
	}
	return started
}

func (p *Preloader) claim(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inflight[path]; busy {
		return false
	}
	p.inflight[path] = struct{}{}
	return true
}

func (p *Preloader) fetch(path string) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		delete(p.inflight, path)
		p.mu.Unlock()
	}()

	img, err := p.load(path)
	if err != nil {
		metrics.Preload("failed")
		p.log.Debug("preload failed", zap.String("path", path), zap.Error(err))
		return
	}
	if !p.put(path, img) {
		metrics.Preload("discarded")
		return
	}
	metrics.Preload("loaded")
}

// Wait blocks until every started load has finished.
func (p *Preloader) Wait() {
	p.wg.Wait()
}

// Stop prevents further loads and cache writes. Loads already running
// finish in the background and are discarded.
func (p *Preloader) Stop() {
	p.mu.Lock()
	p.stopped.Store(true)
	p.mu.Unlock()
}

// Purge empties the cache.
func (p *Preloader) Purge() {
	p.cache.Purge()
}

// Forget drops the cached image for path.
func (p *Preloader) Forget(path string) bool {
	return p.cache.Remove(path)
}

// Stats returns the full-image cache statistics.
func (p *Preloader) Stats() cache.Stats {
	return p.cache.Stats()
}
