package thumbs

import (
	"container/heap"
	"errors"
	"sync"
	"time"

	"masonry-gallery/internal/metrics"
)

var (
	// ErrQueueFull is returned by Push when the queue is at capacity.
	// The task is dropped.
	ErrQueueFull = errors.New("thumbnail queue full")

	// ErrStopped is returned once the queue or pool has been shut down.
	ErrStopped = errors.New("thumbnail pool stopped")
)

// taskHeap is a min-heap of tasks ordered by priority, then arrival.
type taskHeap []Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(Task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Queue is a bounded multi-producer, multi-consumer priority queue.
// Push never blocks; Pop blocks until a task arrives, a timeout expires
// or the queue is closed.
type Queue struct {
	capacity int

	mu    sync.Mutex
	items taskHeap
	seq   uint64

	// ready holds at least one token per queued task
	ready     chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a queue holding at most capacity tasks.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		capacity: capacity,
		items:    make(taskHeap, 0, capacity),
		ready:    make(chan struct{}, capacity),
		closed:   make(chan struct{}),
	}
}

// Push adds t. It returns ErrQueueFull without blocking when the queue is
// at capacity, and ErrStopped after Close.
func (q *Queue) Push(t Task) error {
	q.mu.Lock()
	if q.Closed() {
		q.mu.Unlock()
		return ErrStopped
	}
	if len(q.items) >= q.capacity {
		q.mu.Unlock()
		metrics.QueueDropped()
		return ErrQueueFull
	}
	q.seq++
	t.seq = q.seq
	heap.Push(&q.items, t)
	n := len(q.items)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	metrics.SetQueueDepth(n)
	return nil
}

// Pop removes the most urgent task. The boolean is false when timeout
// elapsed or the queue was closed.
func (q *Queue) Pop(timeout time.Duration) (Task, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-q.closed:
			return Task{}, false
		case <-timer.C:
			return Task{}, false
		case <-q.ready:
			q.mu.Lock()
			if len(q.items) == 0 {
				// token outlived a Reset
				q.mu.Unlock()
				continue
			}
			t := heap.Pop(&q.items).(Task)
			n := len(q.items)
			q.mu.Unlock()
			metrics.SetQueueDepth(n)
			return t, true
		}
	}
}

// Reset drops every queued task and returns them.
func (q *Queue) Reset() []Task {
	q.mu.Lock()
	dropped := make([]Task, len(q.items))
	copy(dropped, q.items)
	q.items = q.items[:0]
	q.mu.Unlock()
	metrics.SetQueueDepth(0)
	return dropped
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Capacity returns the maximum number of queued tasks.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Close wakes every blocked Pop and rejects further pushes.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.closed) })
}

// Closed reports whether Close was called.
func (q *Queue) Closed() bool {
	select {
	case <-q.closed:
		return true
	default:
		return false
	}
}
