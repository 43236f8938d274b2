// Package worker provides the shared background executor that storage and
// geofence work is dispatched onto. Components receive a *Pool at
// construction; nothing inherits an executor from its caller.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultSize matches the parallelism of a typical I/O dispatcher.
const DefaultSize = 64

// ErrClosed is returned when work is submitted after Close.
var ErrClosed = errors.New("worker: pool closed")

// PanicError is delivered to Do callers when the submitted function panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker: task panicked: %v", e.Value)
}

// Pool runs functions on a bounded set of goroutines.
// Tasks run under the pool's own context, which Close cancels.
type Pool struct {
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New constructs a pool that runs at most size tasks at once.
// Non-positive sizes fall back to DefaultSize.
func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    semaphore.NewWeighted(int64(size)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go schedules fn and returns once a slot is acquired. It blocks while the pool
// is saturated, and gives up with ctx.Err() if ctx ends first.
// fn receives the pool context, not ctx.
func (p *Pool) Go(ctx context.Context, fn func(ctx context.Context)) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.wg.Done()
		return err
	}

	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		fn(p.ctx)
	}()
	return nil
}

// Close cancels the pool context and waits for running tasks to return.
// Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

// Do runs fn on p and waits for its result. If ctx ends first Do returns
// ctx.Err(); fn keeps running to completion on the pool so a write is never
// cut in half. A panic in fn is returned as *PanicError.
func Do[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	type outcome struct {
		v   T
		err error
	}
	done := make(chan outcome, 1)

	err := p.Go(ctx, func(poolCtx context.Context) {
		var out outcome
		defer func() {
			if r := recover(); r != nil {
				out.err = &PanicError{Value: r}
			}
			done <- out
		}()
		out.v, out.err = fn(poolCtx)
	})
	if err != nil {
		var zero T
		return zero, err
	}

	select {
	case out := <-done:
		return out.v, out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
