package integrity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherRunsSubmittedTasks(t *testing.T) {
	d := NewDispatcher(2, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	var mu sync.Mutex
	ran := 0
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		d.Submit(func(ctx context.Context) {
			mu.Lock()
			ran++
			if ran == 5 {
				close(done)
			}
			mu.Unlock()
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks did not run")
	}
}

func TestDispatcherSubmitNeverBlocks(t *testing.T) {
	// No workers running: the buffer fills and further submits drop.
	d := NewDispatcher(1, 2)

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			d.Submit(func(ctx context.Context) {})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}
}

func TestDispatcherSubmitAfterShutdownIsSafe(t *testing.T) {
	d := NewDispatcher(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	cancel()

	// Dropped or queued, but never a panic.
	assert.NotPanics(t, func() {
		for i := 0; i < 10; i++ {
			d.Submit(func(ctx context.Context) {})
		}
	})
}
