package thumbs

import (
	"image"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	gimage "masonry-gallery/internal/image"
	"masonry-gallery/internal/logging"
	"masonry-gallery/internal/metrics"
)

// Generator produces a thumbnail width pixels wide for the image at path.
type Generator func(path string, width int, ratio float64, q gimage.Quality) (image.Image, error)

// DefaultGenerator decodes path from disk and resamples it.
func DefaultGenerator(path string, width int, ratio float64, q gimage.Quality) (image.Image, error) {
	img, err := gimage.Decode(path)
	if err != nil {
		return nil, err
	}
	return gimage.Thumbnail(img, width, ratio, q), nil
}

// Options configures a Pool.
type Options struct {
	Workers      int           // 2..4 is typical
	QueueSize    int           // buffered tasks before Submit drops
	ResultBuffer int           // finished results awaiting the drain
	PopTimeout   time.Duration // how often idle workers check for shutdown
}

// Pool is a fixed set of worker goroutines generating thumbnails.
//
// Thread safety: Submit, Stop and the accessors are safe for concurrent use.
type Pool struct {
	opts     Options
	queue    *Queue
	results  chan Result
	store    *Store
	ratio    func(path string) float64
	epoch    func() uint64
	generate Generator
	log      *zap.Logger

	stopped   atomic.Bool
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewPool creates a pool. ratio returns the memoized aspect ratio of a
// path; epoch returns the current rendering epoch. A nil generator means
// DefaultGenerator. Call Start to launch the workers.
func NewPool(opts Options, store *Store, ratio func(string) float64, epoch func() uint64, generate Generator) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.ResultBuffer <= 0 {
		opts.ResultBuffer = opts.Workers * 4
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 250 * time.Millisecond
	}
	if generate == nil {
		generate = DefaultGenerator
	}
	return &Pool{
		opts:     opts,
		queue:    NewQueue(opts.QueueSize),
		results:  make(chan Result, opts.ResultBuffer),
		store:    store,
		ratio:    ratio,
		epoch:    epoch,
		generate: generate,
		log:      logging.Named("thumbs"),
		done:     make(chan struct{}),
	}
}

// Start launches the worker goroutines. Calling it again has no effect.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.wg.Add(p.opts.Workers)
		for i := 0; i < p.opts.Workers; i++ {
			go p.worker(i)
		}
		p.log.Info("thumbnail pool started",
			zap.Int("workers", p.opts.Workers),
			zap.Int("queue", p.queue.Capacity()))
	})
}

// Submit queues t unless a task for the same key is already outstanding,
// failed or cached. It never blocks: when the queue is full the task is
// dropped and ErrQueueFull returned, leaving the key absent so a later
// pass can try again.
func (p *Pool) Submit(t Task) error {
	if p.stopped.Load() {
		return ErrStopped
	}
	if !p.store.MarkPending(t.Key, t.Epoch) {
		return nil
	}
	if err := p.queue.Push(t); err != nil {
		p.store.Unmark(t.Key, t.Epoch)
		return err
	}
	return nil
}

// DropQueued discards every task still waiting in the queue and returns
// how many were dropped. Running tasks finish normally.
func (p *Pool) DropQueued() int {
	dropped := p.queue.Reset()
	for _, t := range dropped {
		p.store.Unmark(t.Key, t.Epoch)
	}
	return len(dropped)
}

// Results is the channel workers publish to. Only the Drain reads it.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// QueueLen returns the number of waiting tasks.
func (p *Pool) QueueLen() int {
	return p.queue.Len()
}

// Stopped reports whether Stop was called.
func (p *Pool) Stopped() bool {
	return p.stopped.Load()
}

// Stop signals every worker to exit after its current task and waits up
// to timeout for them. It reports whether all workers exited in time;
// either way the pool is unusable afterwards.
func (p *Pool) Stop(timeout time.Duration) bool {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.done)
		p.queue.Close()
	})

	joined := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(joined)
	}()

	select {
	case <-joined:
		p.log.Info("thumbnail pool stopped")
		return true
	case <-time.After(timeout):
		p.log.Warn("thumbnail workers did not exit in time", zap.Duration("timeout", timeout))
		return false
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for !p.stopped.Load() {
		t, ok := p.queue.Pop(p.opts.PopTimeout)
		if !ok {
			if p.queue.Closed() {
				return
			}
			continue
		}
		if p.stopped.Load() {
			return
		}
		p.process(id, t)
	}
}

func (p *Pool) process(id int, t Task) {
	if t.Epoch != p.epoch() {
		p.store.Unmark(t.Key, t.Epoch)
		metrics.TaskDone("stale", 0)
		return
	}
	if p.store.Contains(t.Key) {
		p.store.Unmark(t.Key, t.Epoch)
		metrics.TaskDone("cached", 0)
		return
	}

	start := time.Now()
	img, err := p.generate(t.Path, t.Width, p.ratio(t.Path), t.Quality())
	elapsed := time.Since(start)

	if err != nil {
		metrics.TaskDone("failed", elapsed)
		p.log.Debug("thumbnail generation failed",
			zap.Int("worker", id), zap.String("path", t.Path), zap.Error(err))
	} else {
		metrics.TaskDone("ok", elapsed)
	}

	r := Result{Key: t.Key, Image: img, Err: err, Epoch: t.Epoch, Source: t.Path}
	select {
	case p.results <- r:
	case <-p.done:
	}
}
