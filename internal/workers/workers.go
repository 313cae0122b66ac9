// Package workers runs the server's background workers in a unified way.
// A worker blocks inside Run until its context is cancelled; the Workers
// aggregate launches each one on its own goroutine and waits for all of
// them on shutdown.
package workers

import (
	"context"
	"sync"
)

// Worker is one background loop, e.g. the retention scheduler.
type Worker interface {
	Run(ctx context.Context)
}

// Workers aggregates background workers.
type Workers struct {
	workers []Worker
	wg      sync.WaitGroup
}

// NewWorkers constructs a [Workers] aggregate over the given workers.
func NewWorkers(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

// Run launches every worker on its own goroutine and returns.
func (w *Workers) Run(ctx context.Context) {
	for _, worker := range w.workers {
		w.wg.Add(1)
		go func(worker Worker) {
			defer w.wg.Done()
			worker.Run(ctx)
		}(worker)
	}
}

// Wait blocks until every worker has returned.
func (w *Workers) Wait() {
	w.wg.Wait()
}
