package status

import (
	"context"
	"time"

	"flowcore/internal/metrics"
	"flowcore/internal/workerpool"
	"flowcore/pkg/logger"
)

// Sink receives each aggregated snapshot, append-only (spec.md §4.5, §8:
// "Status snapshots are never dropped"). repository.ComponentStatusRepository
// satisfies this by signature.
type Sink interface {
	Capture(snapshot *ProcessGroupStatus, at time.Time) error
}

// Locker is the narrow surface task.go needs from the controller's shared
// lock: query-path callers acquire it for the duration of one aggregation
// pass (spec.md §5).
type Locker interface {
	RLock()
	RUnlock()
}

// NewTask returns a workerpool.PeriodicTask that aggregates rootID's subtree
// every interval and appends the snapshot to sink.
func NewTask(name string, interval time.Duration, lock Locker, view GraphView, rootID string, counters CounterSource, sink Sink, log *logger.Logger) *workerpool.PeriodicTask {
	return workerpool.NewPeriodicTask(name, interval, log, func(ctx context.Context) error {
		start := time.Now()
		lock.RLock()
		snapshot := Aggregate(view, rootID, counters)
		lock.RUnlock()
		metrics.RecordStatusAggregation(time.Since(start))
		return sink.Capture(snapshot, time.Now())
	})
}
