package thumbs

import (
	"image"
	"sync"

	"masonry-gallery/internal/cache"
)

// State is the lifecycle of one thumbnail key.
type State int

const (
	Absent  State = iota // never requested, or evicted
	Pending              // a task is queued or running
	Failed               // the source could not be decoded
	Present              // cached and drawable
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Pending:
		return "pending"
	case Failed:
		return "failed"
	case Present:
		return "present"
	default:
		return "unknown"
	}
}

// Store is the thumbnail cache plus pending and failed marks.
// Present payloads live in a bounded LRU; the marks are cleared on
// every epoch change.
type Store struct {
	images *cache.Cache[Key, image.Image]

	mu      sync.Mutex
	pending map[Key]uint64 // epoch of the outstanding task
	failed  map[Key]struct{}
}

// StoreStats summarizes the store.
type StoreStats struct {
	Cache   cache.Stats
	Pending int
	Failed  int
}

// NewStore creates a store caching at most capacity thumbnails.
func NewStore(capacity int) *Store {
	return &Store{
		images:  cache.New[Key, image.Image]("thumbnails", capacity),
		pending: make(map[Key]uint64),
		failed:  make(map[Key]struct{}),
	}
}

// Lookup returns the thumbnail for k and its state. A hit promotes k.
func (s *Store) Lookup(k Key) (image.Image, State) {
	if img, ok := s.images.Get(k); ok {
		return img, Present
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.failed[k]; ok {
		return nil, Failed
	}
	if _, ok := s.pending[k]; ok {
		return nil, Pending
	}
	return nil, Absent
}

// Contains reports whether a thumbnail for k is cached, without promoting it.
func (s *Store) Contains(k Key) bool {
	return s.images.Contains(k)
}

// MarkPending records an outstanding task for k. It returns false when k
// is already pending, failed or present, so at most one task per key is
// outstanding.
func (s *Store) MarkPending(k Key, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[k]; ok {
		return false
	}
	if _, ok := s.failed[k]; ok {
		return false
	}
	if s.images.Contains(k) {
		return false
	}
	s.pending[k] = epoch
	return true
}

// Unmark removes the pending mark of k if it was set under epoch.
func (s *Store) Unmark(k Key, epoch uint64) {
	s.mu.Lock()
	if e, ok := s.pending[k]; ok && e == epoch {
		delete(s.pending, k)
	}
	s.mu.Unlock()
}

// Complete caches img for k and clears its marks.
func (s *Store) Complete(k Key, img image.Image) {
	// cache first so k is never observed as absent in between
	s.images.Put(k, img)
	s.mu.Lock()
	delete(s.pending, k)
	delete(s.failed, k)
	s.mu.Unlock()
}

// Fail marks k as undecodable.
func (s *Store) Fail(k Key) {
	s.mu.Lock()
	delete(s.pending, k)
	s.failed[k] = struct{}{}
	s.mu.Unlock()
}

// Retry clears the failed mark of k so the next render pass requests it again.
func (s *Store) Retry(k Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.failed[k]; !ok {
		return false
	}
	delete(s.failed, k)
	return true
}

// ResetMarks forgets every pending and failed mark. Cached thumbnails stay.
func (s *Store) ResetMarks() {
	s.mu.Lock()
	s.pending = make(map[Key]uint64)
	s.failed = make(map[Key]struct{})
	s.mu.Unlock()
}

// Forget drops every cached width of path and its marks, so the next
// render pass generates it again. It returns the number of thumbnails
// removed.
func (s *Store) Forget(path string) int {
	removed := 0
	for _, k := range s.images.Keys() {
		if k.Path == path && s.images.Remove(k) {
			removed++
		}
	}
	s.mu.Lock()
	for k := range s.pending {
		if k.Path == path {
			delete(s.pending, k)
		}
	}
	for k := range s.failed {
		if k.Path == path {
			delete(s.failed, k)
		}
	}
	s.mu.Unlock()
	return removed
}

// Purge drops cached thumbnails and every mark.
func (s *Store) Purge() {
	s.images.Purge()
	s.ResetMarks()
}

// Stats returns a snapshot of the store.
func (s *Store) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StoreStats{
		Cache:   s.images.Stats(),
		Pending: len(s.pending),
		Failed:  len(s.failed),
	}
}
