package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"flowcore/internal/graph"
	"flowcore/internal/workerpool"
	"flowcore/pkg/logger"
)

// TimerAgent drives timer-driven components: every scanInterval it scans the
// Running timer-driven nodes and offers each node whose SchedulingPeriod has
// elapsed up to MaxConcurrentTasks triggers (spec.md §4.3).
type TimerAgent struct {
	view   GraphView
	pool   *workerpool.Pool
	runner TriggerRunner
	log    *logger.Logger

	scanInterval time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewTimerAgent returns a TimerAgent that re-scans the graph every
// scanInterval, the coarsest unit at which an individual node's
// SchedulingPeriod can take effect (nodes with a longer period are simply
// skipped on intervening scans via their own next-fire bookkeeping).
func NewTimerAgent(view GraphView, pool *workerpool.Pool, runner TriggerRunner, log *logger.Logger, scanInterval time.Duration) *TimerAgent {
	if scanInterval <= 0 {
		scanInterval = time.Duration(graph.ScheduleMinimumNanoseconds)
	}
	return &TimerAgent{view: view, pool: pool, runner: runner, log: log, scanInterval: scanInterval}
}

// Start begins the scan loop. It is a no-op if already running.
func (a *TimerAgent) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.loop(ctx)
}

// Stop halts the scan loop and waits for it to exit. In-flight triggers
// dispatched to the pool are unaffected; only new dispatch stops.
func (a *TimerAgent) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.stopCh)
	done := a.doneCh
	a.mu.Unlock()
	<-done
}

func (a *TimerAgent) loop(ctx context.Context) {
	defer close(a.doneCh)
	ticker := time.NewTicker(a.scanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.stopCh:
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.scan(now)
		}
	}
}

func (a *TimerAgent) scan(now time.Time) {
	a.view.RLock()
	nodes := a.view.NodesByStrategy(graph.StrategyTimerDriven)
	a.view.RUnlock()

	for _, node := range nodes {
		if !node.DueAt(now) {
			continue
		}
		max := atomic.LoadInt32(&node.MaxConcurrentTasks)
		if max < 1 {
			max = 1
		}
		for i := int32(0); i < max; i++ {
			if !dispatch(a.pool, a.view, a.runner, a.log, node, "timer") {
				break
			}
		}
	}
}
