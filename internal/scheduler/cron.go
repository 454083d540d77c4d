package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"flowcore/internal/graph"
	"flowcore/internal/workerpool"
	"flowcore/pkg/logger"
)

// CronAgent drives CRON-driven components: each node's SchedulingPeriod is a
// standard five-field cron expression (spec.md §4.3), and the agent fires it
// at most once per matching minute.
type CronAgent struct {
	view   GraphView
	pool   *workerpool.Pool
	runner TriggerRunner
	log    *logger.Logger
	parser cron.Parser

	pollInterval time.Duration

	mu       sync.Mutex
	schedule map[string]cron.Schedule // node id -> parsed expression
	nextFire map[string]time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewCronAgent returns a CronAgent that polls for matching schedules every
// pollInterval (a minute resolution is standard cron behaviour; a shorter
// interval only tightens how promptly a due minute is noticed).
func NewCronAgent(view GraphView, pool *workerpool.Pool, runner TriggerRunner, log *logger.Logger, pollInterval time.Duration) *CronAgent {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &CronAgent{
		view:         view,
		pool:         pool,
		runner:       runner,
		log:          log,
		parser:       cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		pollInterval: pollInterval,
		schedule:     make(map[string]cron.Schedule),
		nextFire:     make(map[string]time.Time),
	}
}

// Start begins the poll loop.
func (a *CronAgent) Start(ctx context.Context) {
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

// Stop halts the poll loop and waits for it to exit.
func (a *CronAgent) Stop() {
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

func (a *CronAgent) loop(ctx context.Context) {
	defer close(a.doneCh)
	ticker := time.NewTicker(a.pollInterval)
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

func (a *CronAgent) scan(now time.Time) {
	a.view.RLock()
	nodes := a.view.NodesByStrategy(graph.StrategyCronDriven)
	a.view.RUnlock()

	a.mu.Lock()
	seen := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		seen[node.ID] = struct{}{}
		sched, ok := a.schedule[node.ID]
		if !ok {
			parsed, err := a.parser.Parse(node.SchedulingPeriod)
			if err != nil {
				if a.log != nil {
					a.log.WithComponent(node.ID, node.GroupID).WithField("err", err).Warn("invalid cron expression; component will not fire")
				}
				continue
			}
			sched = parsed
			a.schedule[node.ID] = sched
			a.nextFire[node.ID] = sched.Next(now)
		}
		due := a.nextFire[node.ID]
		if now.Before(due) {
			continue
		}
		a.nextFire[node.ID] = sched.Next(now)
		a.mu.Unlock()
		dispatch(a.pool, a.view, a.runner, a.log, node, "cron")
		a.mu.Lock()
	}
	for id := range a.schedule {
		if _, ok := seen[id]; !ok {
			delete(a.schedule, id)
			delete(a.nextFire, id)
		}
	}
	a.mu.Unlock()
}
