package core

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"autotile/internal/mathutil"
)

// ErrPoolNotRunning is returned for work handed to a pool that was never
// started or has been stopped.
var ErrPoolNotRunning = errors.New("worker pool is not running")

// WorkerPool manages a fixed set of goroutines that run submitted jobs
type WorkerPool struct {
	numWorkers int
	jobQueue   chan func()
	quit       chan struct{}
	started    atomic.Bool
	stopOnce   sync.Once
	pending    sync.WaitGroup
	completed  atomic.Uint64
}

// NewWorkerPool creates a pool with the given number of workers.
// Zero or negative means one worker per CPU.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	return &WorkerPool{
		numWorkers: numWorkers,
		jobQueue:   make(chan func(), numWorkers*2),
		quit:       make(chan struct{}),
	}
}

// CreateDefaultWorkerPool creates and starts a pool sized to the CPU count
func CreateDefaultWorkerPool() *WorkerPool {
	pool := NewWorkerPool(0)
	pool.Start()
	return pool
}

// Start launches the worker goroutines. Later calls do nothing.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < wp.numWorkers; i++ {
		go wp.worker()
	}
}

func (wp *WorkerPool) worker() {
	for {
		select {
		case job := <-wp.jobQueue:
			job()
			wp.completed.Add(1)
			wp.pending.Done()
		case <-wp.quit:
			return
		}
	}
}

// Running reports whether Start was called and Stop was not.
func (wp *WorkerPool) Running() bool {
	if !wp.started.Load() {
		return false
	}
	select {
	case <-wp.quit:
		return false
	default:
		return true
	}
}

// Submit queues a job. It blocks while the queue is full and fails with
// ErrPoolNotRunning when no worker would ever pick the job up.
func (wp *WorkerPool) Submit(job func()) error {
	if !wp.Running() {
		return ErrPoolNotRunning
	}
	wp.pending.Add(1)
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.quit:
		wp.pending.Done()
		return ErrPoolNotRunning
	}
}

// Wait blocks until every job submitted so far has finished, or until the
// pool is stopped.
func (wp *WorkerPool) Wait() {
	wp.await(&wp.pending)
}

// await waits for wg unless the pool stops first, which drops queued jobs.
func (wp *WorkerPool) await(wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-wp.quit:
		return ErrPoolNotRunning
	}
}

// Stop shuts the workers down. Jobs still queued are dropped.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() { close(wp.quit) })
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// CompletedJobs returns how many jobs the pool has finished since it started.
func (wp *WorkerPool) CompletedJobs() uint64 {
	return wp.completed.Load()
}

// ParallelFor runs fn for every index in [start, end) across the pool.
func (wp *WorkerPool) ParallelFor(start, end int, fn func(int)) {
	_ = wp.ParallelForWithContext(context.Background(), start, end, fn)
}

// ParallelForWithContext runs fn for every index in [start, end), split into one
// contiguous span per worker. Spans check ctx between indices and stop early once
// it is cancelled; the returned error is ctx.Err() in that case.
// Only the spans of this call are awaited, so concurrent callers may share a pool.
// A pool that is not running, or stops before the spans finish, yields
// ErrPoolNotRunning.
func (wp *WorkerPool) ParallelForWithContext(ctx context.Context, start, end int, fn func(int)) error {
	if !wp.Running() {
		return ErrPoolNotRunning
	}
	if start >= end {
		return ctx.Err()
	}

	var wg sync.WaitGroup
	for _, span := range mathutil.SplitRange(end-start, wp.numWorkers) {
		from, to := start+span[0], start+span[1]
		wg.Add(1)
		err := wp.Submit(func() {
			defer wg.Done()
			for i := from; i < to; i++ {
				select {
				case <-ctx.Done():
					return
				default:
					fn(i)
				}
			}
		})
		if err != nil {
			wg.Done()
			return err
		}
	}
	if err := wp.await(&wg); err != nil {
		return err
	}
	return ctx.Err()
}
