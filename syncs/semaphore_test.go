package syncs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSemaphore(t *testing.T) {
	sem := NewSemaphore(2)
	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(context.Background()); err != nil {
				t.Error(err)
				return
			}
			defer sem.Release()
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			running.Add(-1)
		}()
	}
	wg.Wait()
	if peak.Load() > 2 {
		t.Fatalf("got %d", peak.Load())
	}
}

func TestSemaphoreCanceled(t *testing.T) {
	sem := NewSemaphore(1)
	if err := sem.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sem.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
	sem.Release()
}
