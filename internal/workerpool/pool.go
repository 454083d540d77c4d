package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNotCleanlyTerminated is returned by Shutdown when the grace period
// elapsed (kill=false) or uninterruptible workers were still active at the
// moment of a kill=true shutdown (spec.md §8: "controller reports 'not
// cleanly terminated'").
var ErrNotCleanlyTerminated = errors.New("workerpool: not cleanly terminated")

// Pool is one of the controller's two bounded worker pools (timer-driven or
// event-driven). Capacity can change at runtime (dynamic size); Submit is a
// non-blocking compare-and-increment against the current capacity so a
// scheduling agent can simply skip dispatch when the pool is saturated
// rather than queueing.
type Pool struct {
	name     string
	capacity int32 // atomic
	active   int32 // atomic

	mu       sync.Mutex
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewPool creates a pool with the given initial capacity, bound to a
// lifetime derived from parent. Cancelling parent (or a kill shutdown)
// propagates to every job's context.
func NewPool(name string, capacity int, parent context.Context) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Pool{
		name:     name,
		capacity: int32(capacity),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Name returns the pool's identifier ("timer" or "event").
func (p *Pool) Name() string { return p.name }

// Resize changes the pool's capacity. Shrinking does not preempt already
// running jobs; it only reduces future Submit admissions.
func (p *Pool) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	atomic.StoreInt32(&p.capacity, int32(capacity))
}

// Capacity returns the current configured capacity.
func (p *Pool) Capacity() int { return int(atomic.LoadInt32(&p.capacity)) }

// Active returns the current number of in-flight jobs.
func (p *Pool) Active() int { return int(atomic.LoadInt32(&p.active)) }

// Submit attempts to admit job for execution. It returns false without
// running job if the pool is at capacity or has been shut down. job receives
// the pool's lifetime context, which is cancelled on a kill=true Shutdown.
func (p *Pool) Submit(job func(ctx context.Context)) bool {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return false
	}

	for {
		cur := atomic.LoadInt32(&p.active)
		max := atomic.LoadInt32(&p.capacity)
		if cur >= max {
			return false
		}
		if atomic.CompareAndSwapInt32(&p.active, cur, cur+1) {
			break
		}
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer atomic.AddInt32(&p.active, -1)
		job(p.ctx)
	}()
	return true
}

// Shutdown stops admitting new jobs and either drains (kill=false, waiting up
// to graceful) or cancels every job's context and returns immediately
// (kill=true). It returns ErrNotCleanlyTerminated if the grace period elapsed
// with jobs still active, or if jobs were still active at the instant of a
// kill=true shutdown.
func (p *Pool) Shutdown(kill bool, graceful time.Duration) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if kill {
		stillActive := p.Active() > 0
		p.cancel()
		if stillActive {
			return ErrNotCleanlyTerminated
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-time.After(graceful):
		p.cancel()
		return ErrNotCleanlyTerminated
	}
}
