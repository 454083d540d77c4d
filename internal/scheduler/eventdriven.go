package scheduler

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"flowcore/internal/graph"
	"flowcore/internal/scheduler/eventqueue"
	"flowcore/internal/workerpool"
	"flowcore/pkg/logger"
)

// InboundNonEmpty reports whether node has at least one non-empty inbound
// queue, the condition under which the event-driven agent re-offers it after
// a trigger completes (spec.md §4.4: "a component whose inbound queue is
// still non-empty after being triggered is re-offered immediately").
type InboundNonEmpty func(node *graph.Node) bool

// EventDrivenAgent drains eventqueue.Queue with a fixed pool of worker
// goroutines, each pulling one ready component at a time and triggering it
// directly (dispatch still goes through the shared worker pool so the
// event-driven and timer/cron strategies share the same concurrency
// accounting and metrics).
type EventDrivenAgent struct {
	queue      *eventqueue.Queue
	pool       *workerpool.Pool
	runner     TriggerRunner
	view       GraphView
	log        *logger.Logger
	inbound    InboundNonEmpty
	concurrent int

	limiter *rate.Limiter

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewEventDrivenAgent returns an agent with concurrent poll loops. rateLimit
// bounds how many components per second may be re-offered after completing a
// trigger, so a single hot component cannot starve the queue's fairness
// (spec.md §3.1 domain stack: golang.org/x/time/rate).
func NewEventDrivenAgent(queue *eventqueue.Queue, pool *workerpool.Pool, runner TriggerRunner, view GraphView, log *logger.Logger, inbound InboundNonEmpty, concurrent int, rateLimit rate.Limit) *EventDrivenAgent {
	if concurrent < 1 {
		concurrent = 1
	}
	if rateLimit <= 0 {
		rateLimit = rate.Inf
	}
	return &EventDrivenAgent{
		queue:      queue,
		pool:       pool,
		runner:     runner,
		view:       view,
		log:        log,
		inbound:    inbound,
		concurrent: concurrent,
		limiter:    rate.NewLimiter(rateLimit, concurrent),
	}
}

// Start launches the poll loops.
func (a *EventDrivenAgent) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true
	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	for i := 0; i < a.concurrent; i++ {
		a.wg.Add(1)
		go a.loop(loopCtx)
	}
}

// Stop halts the poll loops and waits for them to exit. It also closes the
// underlying queue so blocked Poll calls unblock.
func (a *EventDrivenAgent) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	a.cancel()
	a.mu.Unlock()
	a.queue.Close()
	a.wg.Wait()
}

func (a *EventDrivenAgent) loop(ctx context.Context) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		node, ok := a.queue.Poll()
		if !ok {
			return
		}
		dispatch(a.pool, a.view, a.runner, a.log, node, "event")

		if a.inbound != nil && a.inbound(node) {
			_ = a.limiter.Wait(ctx)
			a.queue.Offer(node)
		}
	}
}
