// Package app ties the gallery pipeline together: catalog, layout,
// thumbnail generation, rendering and the full-image preloader.
package app

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"masonry-gallery/internal/aspect"
	"masonry-gallery/internal/cache"
	"masonry-gallery/internal/catalog"
	"masonry-gallery/internal/config"
	"masonry-gallery/internal/layout"
	"masonry-gallery/internal/logging"
	"masonry-gallery/internal/metrics"
	"masonry-gallery/internal/preload"
	"masonry-gallery/internal/render"
	"masonry-gallery/internal/thumbs"
)

// EventType identifies different application events.
type EventType int

const (
	EventCatalogLoaded     EventType = iota // data: number of images
	EventCatalogReloaded                    // data: number of images
	EventLayoutInvalidated                  // data: new epoch
	EventThumbnailsReady                    // data: number of results applied
	EventSelectionChanged                   // data: path
	EventViewModeChanged                    // data: catalog.ViewMode
	EventImageOpened                        // data: index in the visible list
	EventImageClosed                        // data: nil
	EventError                              // data: error
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Deps are the pieces of the pipeline that touch the filesystem. Zero
// fields use the real implementations.
type Deps struct {
	Scan     func(dir string) ([]catalog.ImageDescriptor, error)
	Probe    aspect.Probe
	Generate thumbs.Generator
	Load     preload.Loader
}

// Stats summarises the pipeline for the status bar.
type Stats struct {
	Images int
	Epoch  uint64
	Queue  int
	Thumbs thumbs.StoreStats
	Full   cache.Stats
}

// State holds everything the gallery needs. There is one per window; no
// package level state exists.
type State struct {
	mu  sync.RWMutex
	cfg config.Config
	log *zap.Logger

	scan func(dir string) ([]catalog.ImageDescriptor, error)

	// Catalog
	folder  string
	catalog *catalog.Catalog
	mode    catalog.ViewMode
	columns int
	current int // index into the visible list, -1 in grid view

	// Layout, recomputed lazily for the width it was last asked for
	layout      *layout.Result
	layoutWidth float64

	epoch atomic.Uint64

	// Pipeline
	resolver  *aspect.Resolver
	store     *thumbs.Store
	pool      *thumbs.Pool
	drain     *thumbs.Drain
	renderer  *render.Renderer
	preloader *preload.Preloader
	watcher   *FolderWatcher

	cancel    context.CancelFunc
	drainDone chan struct{}
	stopOnce  sync.Once

	listeners map[EventType][]EventListener
}

// NewState creates the application state. Call Start before rendering
// and Shutdown when done.
func NewState(cfg config.Config, deps Deps) *State {
	if deps.Scan == nil {
		deps.Scan = catalog.Scan
	}
	resolver := aspect.New()
	if deps.Probe != nil {
		resolver = aspect.NewWithProbe(deps.Probe)
	}

	s := &State{
		cfg:       cfg,
		log:       logging.Named("app"),
		scan:      deps.Scan,
		catalog:   catalog.New(nil),
		columns:   cfg.Columns,
		current:   -1,
		resolver:  resolver,
		store:     thumbs.NewStore(cfg.ThumbCacheSize),
		preloader: preload.New(cfg.FullCacheSize, cfg.PreloadOffsets, deps.Load),
		listeners: make(map[EventType][]EventListener),
	}
	s.epoch.Store(1)
	s.pool = thumbs.NewPool(thumbs.Options{
		Workers:      cfg.Workers,
		QueueSize:    cfg.QueueSize,
		ResultBuffer: cfg.ResultBuffer,
	}, s.store, resolver.Resolve, s.epoch.Load, deps.Generate)
	s.drain = thumbs.NewDrain(s.pool)
	s.renderer = render.New(s.store, s.pool)
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Start launches the workers and the result drain.
func (s *State) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.drainDone = make(chan struct{})

	s.pool.Start()
	metrics.SetEpoch(s.epoch.Load())
	go func() {
		defer close(s.drainDone)
		s.drain.Run(ctx, s.cfg.DrainWait.Std(), s.cfg.DrainBatch, func(n int) {
			s.Emit(EventThumbnailsReady, n)
		})
	}()
}

// Shutdown stops the preloader first, then the watcher, the workers and
// the drain. Once it has started, neither cache receives new images.
// It reports whether the workers joined within the configured timeout;
// shutdown proceeds either way.
func (s *State) Shutdown() bool {
	joined := true
	s.stopOnce.Do(func() {
		// preloads may still be decoding; nothing they produce may land
		s.preloader.Stop()

		s.mu.Lock()
		w := s.watcher
		s.watcher = nil
		s.mu.Unlock()
		if w != nil {
			w.Stop()
		}

		joined = s.pool.Stop(s.cfg.JoinTimeout.Std())
		if s.cancel != nil {
			s.cancel()
			<-s.drainDone
		}
		s.log.Info("shutdown complete", zap.Bool("workers_joined", joined))
	})
	return joined
}

// LoadFolder scans dir and replaces the catalog. On failure the current
// catalog is kept and the error is returned for the user.
func (s *State) LoadFolder(dir string) error {
	items, err := s.scan(dir)
	if err != nil {
		s.log.Error("folder scan failed", zap.String("dir", dir), zap.Error(err))
		err = fmt.Errorf("failed to load folder: %w", err)
		s.Emit(EventError, err)
		return err
	}

	s.mu.Lock()
	s.folder = dir
	s.catalog = catalog.New(items)
	s.current = -1
	s.layout = nil
	n := s.catalog.Len()
	s.mu.Unlock()

	s.resolver.Reset()
	s.preloader.Purge()
	s.bumpEpoch()
	s.log.Info("catalog loaded", zap.String("dir", dir), zap.Int("images", n))

	if s.cfg.Watch {
		s.watch(dir)
	}
	s.Emit(EventCatalogLoaded, n)
	return nil
}

// Reload rescans the current folder, keeping the selection of images
// that are still present. Images whose modification time changed, or
// that disappeared, lose their cached thumbnails and full image.
func (s *State) Reload() error {
	s.mu.RLock()
	dir := s.folder
	s.mu.RUnlock()
	if dir == "" {
		return nil
	}

	items, err := s.scan(dir)
	if err != nil {
		s.log.Warn("folder rescan failed", zap.String("dir", dir), zap.Error(err))
		err = fmt.Errorf("failed to reload folder: %w", err)
		s.Emit(EventError, err)
		return err
	}

	s.mu.Lock()
	stale := changedPaths(s.catalog, items)
	for i := range items {
		items[i].Selected = s.catalog.IsSelected(items[i].Path)
	}
	s.catalog = catalog.New(items)
	s.layout = nil
	if s.current >= len(s.catalog.Visible(s.mode)) {
		s.current = -1
	}
	n := s.catalog.Len()
	s.mu.Unlock()

	for _, path := range stale {
		s.store.Forget(path)
		s.preloader.Forget(path)
	}
	s.resolver.Reset()
	s.bumpEpoch()
	s.log.Info("catalog reloaded",
		zap.String("dir", dir),
		zap.Int("images", n),
		zap.Int("changed", len(stale)))
	s.Emit(EventCatalogReloaded, n)
	return nil
}

// changedPaths lists the paths of old that are missing from items or whose
// modification time differs. An unknown (zero) time counts as changed.
func changedPaths(old *catalog.Catalog, items []catalog.ImageDescriptor) []string {
	current := make(map[string]time.Time, len(items))
	for _, it := range items {
		current[it.Path] = it.Timestamp
	}
	var stale []string
	for i := 0; i < old.Len(); i++ {
		d := old.At(i)
		ts, ok := current[d.Path]
		if !ok || ts.IsZero() || !ts.Equal(d.Timestamp) {
			stale = append(stale, d.Path)
		}
	}
	return stale
}

func (s *State) watch(dir string) {
	w, err := NewFolderWatcher(dir, s.cfg.Debounce.Std()*4, func() {
		if err := s.Reload(); err != nil {
			s.log.Debug("reload after folder change failed", zap.Error(err))
		}
	})
	if err != nil {
		s.log.Warn("folder watch unavailable", zap.String("dir", dir), zap.Error(err))
		return
	}

	s.mu.Lock()
	old := s.watcher
	s.watcher = w
	s.mu.Unlock()
	if old != nil {
		old.Stop()
	}
	w.Start()
}

// bumpEpoch invalidates all queued and in-flight thumbnail work.
func (s *State) bumpEpoch() uint64 {
	e := s.epoch.Add(1)
	s.store.ResetMarks()
	dropped := s.pool.DropQueued()
	metrics.SetEpoch(e)
	s.log.Debug("epoch bumped", zap.Uint64("epoch", e), zap.Int("dropped", dropped))
	return e
}

// invalidate drops the cached layout and starts a new epoch.
func (s *State) invalidate() {
	s.mu.Lock()
	s.layout = nil
	s.mu.Unlock()
	s.Emit(EventLayoutInvalidated, s.bumpEpoch())
}

// Epoch returns the current rendering epoch.
func (s *State) Epoch() uint64 {
	return s.epoch.Load()
}

// Folder returns the loaded folder.
func (s *State) Folder() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.folder
}

// Columns returns the configured column count.
func (s *State) Columns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.columns
}

// SetColumns changes the configured column count.
func (s *State) SetColumns(n int) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	if n == s.columns {
		s.mu.Unlock()
		return
	}
	s.columns = n
	s.mu.Unlock()
	s.invalidate()
}

// ViewMode returns the grid filter.
func (s *State) ViewMode() catalog.ViewMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetViewMode switches between all and selected images.
func (s *State) SetViewMode(m catalog.ViewMode) {
	s.mu.Lock()
	if m == s.mode {
		s.mu.Unlock()
		return
	}
	s.mode = m
	s.current = -1
	s.mu.Unlock()
	s.invalidate()
	s.Emit(EventViewModeChanged, m)
}

// Toggle flips the selection of path and returns the new value. In the
// selected-only view this changes the visible set, so the layout is
// invalidated.
func (s *State) Toggle(path string) bool {
	s.mu.Lock()
	selected := s.catalog.Toggle(path)
	filtered := s.mode == catalog.ViewSelected
	s.mu.Unlock()

	if filtered {
		s.invalidate()
	}
	s.Emit(EventSelectionChanged, path)
	return selected
}

// ClearSelection deselects everything.
func (s *State) ClearSelection() {
	s.mu.Lock()
	s.catalog.ClearSelection()
	filtered := s.mode == catalog.ViewSelected
	s.mu.Unlock()
	if filtered {
		s.invalidate()
	}
	s.Emit(EventSelectionChanged, "")
}

// IsSelected reports whether path is selected.
func (s *State) IsSelected(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.IsSelected(path)
}

// Visible returns copies of the descriptors shown in the grid.
func (s *State) Visible() []catalog.ImageDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Visible(s.mode)
}

// SelectedCount returns the number of selected images.
func (s *State) SelectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.catalog.Selected())
}

// Layout returns the masonry layout for width, computing it when the
// width or the inputs changed. Width changes alone keep the epoch: the
// thumbnail width is part of the cache key.
func (s *State) Layout(width float64) *layout.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layout != nil && s.layoutWidth == width {
		return s.layout
	}

	paths := s.catalog.Paths(s.mode)
	start := time.Now()
	s.layout = layout.Compute(paths, s.resolver.Resolve, layout.Params{
		Columns:        layout.Columns(s.columns, s.mode, len(paths)),
		Width:          width,
		Gap:            s.cfg.Gap,
		MinColumnWidth: s.cfg.MinColumnWidth,
	})
	s.layoutWidth = width
	s.log.Debug("layout computed",
		zap.Int("images", len(paths)),
		zap.Int("columns", s.layout.Columns),
		zap.Float64("height", s.layout.Height),
		zap.Duration("took", time.Since(start)))
	return s.layout
}

// Render runs one render pass for the viewport. Overscan defaults to the
// configured value when v leaves it zero.
func (s *State) Render(v render.Viewport) render.Frame {
	if v.Overscan == 0 {
		v.Overscan = s.cfg.Overscan
	}
	lay := s.Layout(v.Width)
	return s.renderer.Pass(v, lay, s.IsSelected, s.epoch.Load())
}

// Retry forgets a failed thumbnail at the current layout width so the
// next render pass requests it again.
func (s *State) Retry(path string) bool {
	s.mu.RLock()
	lay := s.layout
	s.mu.RUnlock()
	if lay == nil {
		return false
	}
	return s.store.Retry(thumbs.Key{Path: path, Width: lay.ThumbWidth()})
}

// Open shows the image at index of the visible list and starts loading
// its neighbours.
func (s *State) Open(index int) (image.Image, error) {
	s.mu.Lock()
	visible := s.catalog.Paths(s.mode)
	if index < 0 || index >= len(visible) {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to open image: index %d out of range", index)
	}
	s.current = index
	s.mu.Unlock()

	path := visible[index]
	img, err := s.preloader.Get(path)
	if err != nil {
		s.log.Warn("full image decode failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	s.preloader.Navigate(visible, index)
	s.Emit(EventImageOpened, index)
	return img, nil
}

// Navigate moves delta images from the open one, stopping at the ends.
func (s *State) Navigate(delta int) (int, image.Image, error) {
	s.mu.RLock()
	cur := s.current
	n := len(s.catalog.Paths(s.mode))
	s.mu.RUnlock()
	if cur < 0 || n == 0 {
		return -1, nil, fmt.Errorf("failed to navigate: no image open")
	}

	next := cur + delta
	if next < 0 {
		next = 0
	}
	if next >= n {
		next = n - 1
	}
	img, err := s.Open(next)
	return next, img, err
}

// Close returns to the grid.
func (s *State) Close() {
	s.mu.Lock()
	s.current = -1
	s.mu.Unlock()
	s.Emit(EventImageClosed, nil)
}

// Current returns the open index, or -1 in grid view.
func (s *State) Current() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// CurrentPath returns the path of the open image.
func (s *State) CurrentPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	visible := s.catalog.Paths(s.mode)
	if s.current < 0 || s.current >= len(visible) {
		return ""
	}
	return visible[s.current]
}

// Stats returns pipeline statistics.
func (s *State) Stats() Stats {
	s.mu.RLock()
	n := s.catalog.Len()
	s.mu.RUnlock()
	return Stats{
		Images: n,
		Epoch:  s.epoch.Load(),
		Queue:  s.pool.QueueLen(),
		Thumbs: s.store.Stats(),
		Full:   s.preloader.Stats(),
	}
}

// Config returns the configuration the state was built with.
func (s *State) Config() config.Config {
	return s.cfg
}
