package aspect

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type countingProbe struct {
	calls atomic.Int32
	dims  map[string][2]int
}

func (p *countingProbe) probe(path string) (int, int, error) {
	p.calls.Add(1)
	d, ok := p.dims[path]
	if !ok {
		return 0, 0, errors.New("decode failed")
	}
	return d[0], d[1], nil
}

func TestResolveMemoizes(t *testing.T) {
	p := &countingProbe{dims: map[string][2]int{"a.jpg": {300, 200}}}
	r := NewWithProbe(p.probe)

	for i := 0; i < 3; i++ {
		if got := r.Resolve("a.jpg"); got != 1.5 {
			t.Fatalf("expected 1.5, got %g", got)
		}
	}
	if p.calls.Load() != 1 {
		t.Errorf("expected 1 probe, got %d", p.calls.Load())
	}
	if !r.Known("a.jpg") {
		t.Error("expected a.jpg to be memoized")
	}
}

func TestResolveFailureIsNotMemoized(t *testing.T) {
	p := &countingProbe{dims: map[string][2]int{}}
	r := NewWithProbe(p.probe)

	for i := 0; i < 3; i++ {
		if got := r.Resolve("broken.jpg"); got != DefaultRatio {
			t.Fatalf("expected default ratio, got %g", got)
		}
	}
	if p.calls.Load() != 3 {
		t.Errorf("expected every call to probe again, got %d probes", p.calls.Load())
	}
	if r.Len() != 0 {
		t.Errorf("expected no memoized ratios, got %d", r.Len())
	}
}

func TestResolveZeroDimensions(t *testing.T) {
	p := &countingProbe{dims: map[string][2]int{"flat.png": {100, 0}}}
	r := NewWithProbe(p.probe)
	if got := r.Resolve("flat.png"); got != DefaultRatio {
		t.Errorf("expected default ratio, got %g", got)
	}
}

func TestReset(t *testing.T) {
	p := &countingProbe{dims: map[string][2]int{"a.jpg": {100, 100}}}
	r := NewWithProbe(p.probe)
	r.Resolve("a.jpg")
	r.Reset()
	if r.Known("a.jpg") {
		t.Error("expected Reset to forget ratios")
	}
	r.Resolve("a.jpg")
	if p.calls.Load() != 2 {
		t.Errorf("expected probe after reset, got %d probes", p.calls.Load())
	}
}

func TestConcurrentResolve(t *testing.T) {
	p := &countingProbe{dims: map[string][2]int{"a.jpg": {400, 100}}}
	r := NewWithProbe(p.probe)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := r.Resolve("a.jpg"); got != 4 {
				t.Errorf("expected 4, got %g", got)
			}
		}()
	}
	wg.Wait()
}
