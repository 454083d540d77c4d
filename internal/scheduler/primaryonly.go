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

// PrimaryNodeOnlyAgent drives primary-node-only components: identical in
// cadence to TimerAgent, but every scan is additionally gated on the node's
// cluster being the elected primary. When primary flips false the agent
// stops issuing new triggers immediately; triggers already dispatched to the
// pool run to completion (spec.md §4.3, §4.6).
type PrimaryNodeOnlyAgent struct {
	view   GraphView
	pool   *workerpool.Pool
	runner TriggerRunner
	log    *logger.Logger

	scanInterval time.Duration
	primary      int32 // atomic bool

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewPrimaryNodeOnlyAgent returns an agent that re-scans every scanInterval.
// The node starts as non-primary until SetPrimary(true) is called.
func NewPrimaryNodeOnlyAgent(view GraphView, pool *workerpool.Pool, runner TriggerRunner, log *logger.Logger, scanInterval time.Duration) *PrimaryNodeOnlyAgent {
	if scanInterval <= 0 {
		scanInterval = time.Duration(graph.ScheduleMinimumNanoseconds)
	}
	return &PrimaryNodeOnlyAgent{view: view, pool: pool, runner: runner, log: log, scanInterval: scanInterval}
}

// SetPrimary updates whether this cluster node is currently primary. It may
// be called concurrently with the scan loop.
func (a *PrimaryNodeOnlyAgent) SetPrimary(isPrimary bool) {
	var v int32
	if isPrimary {
		v = 1
	}
	atomic.StoreInt32(&a.primary, v)
}

// IsPrimary reports the agent's current primary-node flag.
func (a *PrimaryNodeOnlyAgent) IsPrimary() bool {
	return atomic.LoadInt32(&a.primary) == 1
}

// Start begins the scan loop.
func (a *PrimaryNodeOnlyAgent) Start(ctx context.Context) {
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

// Stop halts the scan loop and waits for it to exit.
func (a *PrimaryNodeOnlyAgent) Stop() {
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

func (a *PrimaryNodeOnlyAgent) loop(ctx context.Context) {
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
			if !a.IsPrimary() {
				continue
			}
			a.scan(now)
		}
	}
}

func (a *PrimaryNodeOnlyAgent) scan(now time.Time) {
	a.view.RLock()
	nodes := a.view.NodesByStrategy(graph.StrategyPrimaryNodeOnly)
	a.view.RUnlock()

	for _, node := range nodes {
		if !a.IsPrimary() {
			return
		}
		if !node.DueAt(now) {
			continue
		}
		dispatch(a.pool, a.view, a.runner, a.log, node, "primary_node_only")
	}
}
