// Package integrity delivers best-effort downstream signals after committed
// picks: location/device recording on every pick and collusion analysis when
// a draft completes. Nothing here may block or fail a turn transition.
package integrity

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is one unit of background work.
type Task func(ctx context.Context)

// Dispatcher runs submitted tasks on a small worker pool. Submit never
// blocks: when the buffer is full the task is dropped and logged, which is
// acceptable for best-effort signals.
type Dispatcher struct {
	tasks      chan Task
	numWorkers int

	startOnce sync.Once
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher with the given pool size and buffer.
func NewDispatcher(numWorkers, buffer int) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	if buffer <= 0 {
		buffer = numWorkers * 8
	}
	return &Dispatcher{
		tasks:      make(chan Task, buffer),
		numWorkers: numWorkers,
	}
}

// Run starts the workers and blocks until ctx is cancelled. Tasks still
// queued at shutdown are dropped, which the best-effort contract allows.
func (d *Dispatcher) Run(ctx context.Context) {
	d.startOnce.Do(func() {
		for i := 0; i < d.numWorkers; i++ {
			d.wg.Add(1)
			go d.worker(ctx, i)
		}
	})
	<-ctx.Done()
	d.wg.Wait()
}

// Submit enqueues a task without blocking.
func (d *Dispatcher) Submit(task Task) {
	select {
	case d.tasks <- task:
	default:
		log.Warn().Msg("integrity dispatcher queue full; dropping task")
	}
}

func (d *Dispatcher) worker(ctx context.Context, workerID int) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Int("worker_id", workerID).Msg("integrity worker shutting down")
			return
		case task := <-d.tasks:
			task(ctx)
		}
	}
}
