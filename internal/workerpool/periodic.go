// Package workerpool provides the controller's two trigger pools (timer and
// event-driven) plus the small periodic-task pool used for status snapshots,
// remote-group refresh, and the heartbeat subsystem. Grounded on the
// teacher's internal/marble background-worker helpers, generalised from a
// single always-running loop into a bounded pool of trigger-dispatching
// workers (Pool) alongside the original ticker-driven task runner (Periodic).
package workerpool

import (
	"context"
	"sync"
	"time"

	"flowcore/pkg/logger"
)

// PeriodicTask runs fn on a ticker until Stop is called or ctx is cancelled.
// Each tick is wrapped in a recover so a single panicking task body never
// cancels the schedule (spec.md §7: "periodic tasks wrap their bodies in an
// exception barrier").
type PeriodicTask struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
	log      *logger.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewPeriodicTask creates a periodic task. log may be nil.
func NewPeriodicTask(name string, interval time.Duration, log *logger.Logger, fn func(ctx context.Context) error) *PeriodicTask {
	return &PeriodicTask{name: name, interval: interval, fn: fn, log: log}
}

// Start begins the ticker loop. Calling Start twice without an intervening
// Stop is a no-op.
func (t *PeriodicTask) Start(ctx context.Context) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})
	t.running = true
	t.mu.Unlock()

	go t.run(ctx)
}

// Stop cancels the ticker loop and blocks (with mayInterruptIfRunning=false
// semantics, per spec.md §5) until the in-flight tick, if any, completes.
func (t *PeriodicTask) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	stopCh, doneCh := t.stopCh, t.doneCh
	t.mu.Unlock()

	close(stopCh)
	<-doneCh
}

func (t *PeriodicTask) run(ctx context.Context) {
	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		close(t.doneCh)
	}()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

func (t *PeriodicTask) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil && t.log != nil {
			t.log.WithField("task", t.name).Errorf("periodic task panicked: %v", r)
		}
	}()
	if err := t.fn(ctx); err != nil && t.log != nil {
		t.log.WithField("task", t.name).WithField("err", err).Debug("periodic task returned an error")
	}
}

// Group manages a set of PeriodicTasks with a single Start/Stop.
type Group struct {
	mu    sync.Mutex
	tasks []*PeriodicTask
}

// NewGroup returns an empty Group.
func NewGroup() *Group {
	return &Group{}
}

// Add registers a task in the group; returns the task for further reference.
func (g *Group) Add(task *PeriodicTask) *PeriodicTask {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks = append(g.tasks, task)
	return task
}

// Start starts every task in the group.
func (g *Group) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, task := range g.tasks {
		task.Start(ctx)
	}
}

// Stop stops every task in the group concurrently and waits for all to finish.
func (g *Group) Stop() {
	g.mu.Lock()
	tasks := append([]*PeriodicTask(nil), g.tasks...)
	g.mu.Unlock()

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(t *PeriodicTask) {
			defer wg.Done()
			t.Stop()
		}(task)
	}
	wg.Wait()
}
