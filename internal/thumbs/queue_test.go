package thumbs

import (
	"errors"
	"testing"
	"time"

	gimage "masonry-gallery/internal/image"
)

func task(path string, priority float64) Task {
	return Task{Key: Key{Path: path, Width: 100}, Priority: priority, Epoch: 1}
}

func TestQueuePriorityOrder(t *testing.T) {
	q := NewQueue(10)
	for _, tk := range []Task{task("far", 300), task("visible1", 0), task("near", 120), task("visible2", 0)} {
		if err := q.Push(tk); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}

	want := []string{"visible1", "visible2", "near", "far"}
	for _, w := range want {
		got, ok := q.Pop(time.Second)
		if !ok {
			t.Fatalf("Pop returned nothing, want %s", w)
		}
		if got.Path != w {
			t.Errorf("expected %s, got %s", w, got.Path)
		}
	}
}

func TestQueueFullDrops(t *testing.T) {
	q := NewQueue(2)
	q.Push(task("a", 0))
	q.Push(task("b", 0))

	start := time.Now()
	err := q.Push(task("c", 0))
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("Push blocked on a full queue")
	}
	if q.Len() != 2 {
		t.Errorf("expected 2 queued, got %d", q.Len())
	}
}

func TestQueuePopTimeout(t *testing.T) {
	q := NewQueue(4)
	start := time.Now()
	if _, ok := q.Pop(20 * time.Millisecond); ok {
		t.Fatal("expected timeout on empty queue")
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("Pop returned too early: %v", elapsed)
	}
}

func TestQueueCloseWakesPop(t *testing.T) {
	q := NewQueue(4)
	done := make(chan bool)
	go func() {
		_, ok := q.Pop(10 * time.Second)
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("expected Pop to report closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not wake Pop")
	}

	if err := q.Push(task("late", 0)); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped after close, got %v", err)
	}
}

func TestQueueReset(t *testing.T) {
	q := NewQueue(4)
	q.Push(task("a", 0))
	q.Push(task("b", 5))

	if dropped := q.Reset(); len(dropped) != 2 {
		t.Errorf("expected 2 dropped tasks, got %d", len(dropped))
	}
	if _, ok := q.Pop(20 * time.Millisecond); ok {
		t.Error("expected empty queue after reset")
	}

	q.Push(task("c", 0))
	got, ok := q.Pop(time.Second)
	if !ok || got.Path != "c" {
		t.Errorf("expected c after reset, got %v %v", got.Path, ok)
	}
}

func TestTaskQuality(t *testing.T) {
	if task("a", 0).Quality() != gimage.QualityHigh {
		t.Error("visible task should use high quality")
	}
	if task("a", 40).Quality() != gimage.QualityFast {
		t.Error("buffered task should use fast quality")
	}
}
