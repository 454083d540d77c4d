// Package scheduler implements the four scheduling agents of spec.md §4.3:
// timer-driven, CRON-driven, event-driven, and primary-node-only. Each agent
// reads the graph under the controller's read lock to select components to
// trigger, then dispatches onto one of the two worker pools; agents never
// hold the lock while a trigger itself runs.
package scheduler

import (
	"context"
	"time"

	"flowcore/internal/graph"
	"flowcore/internal/metrics"
	"flowcore/internal/workerpool"
	"flowcore/pkg/logger"
)

// GraphView is the read-side surface an agent needs from the controller. It
// mirrors acquiring/releasing the controller's shared lock around a single
// scheduling scan.
type GraphView interface {
	RLock()
	RUnlock()
	NodesByStrategy(strategy graph.SchedulingStrategy) []*graph.Node
	OutboundFull(nodeID string) bool
}

// TriggerRunner executes one trigger of node and reports whether it
// succeeded. A false/error result causes the agent to penalise the
// component (spec.md §4.3, §7).
type TriggerRunner interface {
	RunTrigger(ctx context.Context, node *graph.Node) error
}

// dispatch is the shared admit-and-run logic used by the timer, cron, and
// primary-node-only agents: back-pressure check, yield/penalisation check,
// CAS-gated concurrency, pool submission, metrics, and penalisation on
// failure.
func dispatch(pool *workerpool.Pool, view GraphView, runner TriggerRunner, log *logger.Logger, node *graph.Node, strategy string) bool {
	now := time.Now()
	if node.IsPenalized(now) || node.IsYielding(now) {
		return false
	}
	if view.OutboundFull(node.ID) {
		node.Yield(node.YieldPeriod)
		if log != nil {
			log.WithComponent(node.ID, node.GroupID).Debug("yielding: outbound connection signalling back-pressure")
		}
		return false
	}
	if !node.TryAcquireTrigger() {
		return false
	}

	submitted := pool.Submit(func(ctx context.Context) {
		defer node.ReleaseTrigger()
		start := time.Now()
		err := runner.RunTrigger(ctx, node)
		outcome := "success"
		if err != nil {
			outcome = "failure"
			node.Penalize()
			if log != nil {
				log.WithComponent(node.ID, node.GroupID).WithField("err", err).Warn("trigger failed; component penalised")
			}
		}
		metrics.RecordTrigger(node.ID, strategy, outcome, time.Since(start))
	})
	if !submitted {
		node.ReleaseTrigger()
	}
	return submitted
}
