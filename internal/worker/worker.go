package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrPoolClosed = errors.New("worker pool is shut down")

// Task is one unit of a batch. It receives the context of the batch caller.
type Task func(ctx context.Context) error

type job struct {
	ctx context.Context
	run func(ctx context.Context)
}

// WorkerPool runs batches on a fixed number of long-lived workers, so a single
// batch can never occupy more than size goroutines at once.
type WorkerPool struct {
	taskQueue chan job
	wg        sync.WaitGroup
	isClosing atomic.Bool
	sendMu    sync.RWMutex
}

func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	wp := &WorkerPool{
		taskQueue: make(chan job),
	}

	for range size {
		wp.wg.Add(1)
		go wp.startWorker()
	}

	return wp
}

func (wp *WorkerPool) startWorker() {
	defer wp.wg.Done()
	for j := range wp.taskQueue {
		j.run(j.ctx)
	}
}

// Run executes every task and returns their errors by position. A failing task
// does not stop the others. Tasks that could not be scheduled because ctx ended
// or the pool shut down report that error instead.
func (wp *WorkerPool) Run(ctx context.Context, tasks []Task) []error {
	errs := make([]error, len(tasks))

	var done sync.WaitGroup
	for i, task := range tasks {
		done.Add(1)
		j := job{
			ctx: ctx,
			run: func(ctx context.Context) {
				defer done.Done()
				errs[i] = task(ctx)
			},
		}
		if err := wp.enqueue(ctx, j); err != nil {
			errs[i] = err
			done.Done()
		}
	}
	done.Wait()

	return errs
}

func (wp *WorkerPool) enqueue(ctx context.Context, j job) error {
	wp.sendMu.RLock()
	defer wp.sendMu.RUnlock()

	if wp.isClosing.Load() {
		return ErrPoolClosed
	}
	select {
	case wp.taskQueue <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting batches and waits for running tasks to finish
func (wp *WorkerPool) Shutdown() {
	wp.sendMu.Lock()
	if wp.isClosing.Swap(true) {
		wp.sendMu.Unlock()
		return
	}
	close(wp.taskQueue)
	wp.sendMu.Unlock()

	wp.wg.Wait()
}
