package thumbs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"masonry-gallery/internal/logging"
	"masonry-gallery/internal/metrics"
)

// Drain is the single consumer of a pool's results and the only writer
// of finished thumbnails into the Store.
type Drain struct {
	results <-chan Result
	store   *Store
	epoch   func() uint64
	stopped func() bool
	log     *zap.Logger
}

// NewDrain creates the drain for p.
func NewDrain(p *Pool) *Drain {
	return &Drain{
		results: p.results,
		store:   p.store,
		epoch:   p.epoch,
		stopped: p.Stopped,
		log:     logging.Named("drain"),
	}
}

// Next blocks up to wait for one result, then takes up to max-1 more that
// are already available. It returns how many results changed the store.
func (d *Drain) Next(wait time.Duration, max int) int {
	if max < 1 {
		max = 1
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	var first Result
	select {
	case first = <-d.results:
	case <-timer.C:
		return 0
	}

	applied := 0
	if d.apply(first) {
		applied++
	}
	for n := 1; n < max; n++ {
		select {
		case r := <-d.results:
			if d.apply(r) {
				applied++
			}
		default:
			return applied
		}
	}
	return applied
}

// Run calls Next until ctx is done or the pool stops. onApplied runs on
// the drain goroutine after every batch that changed the store.
func (d *Drain) Run(ctx context.Context, wait time.Duration, max int, onApplied func(n int)) {
	for ctx.Err() == nil && !d.stopped() {
		if n := d.Next(wait, max); n > 0 && onApplied != nil {
			onApplied(n)
		}
	}
}

func (d *Drain) apply(r Result) bool {
	if d.stopped() {
		return false
	}
	if r.Epoch != d.epoch() {
		metrics.StaleResult()
		d.log.Debug("discarding stale thumbnail",
			zap.String("path", r.Path), zap.Uint64("epoch", r.Epoch))
		return false
	}
	if r.Err != nil || r.Image == nil {
		d.store.Fail(r.Key)
		return true
	}
	d.store.Complete(r.Key, r.Image)
	return true
}
