// Package remotegroup implements the periodic refresh of each RemoteGroup's
// discovered input/output ports (spec.md: "another periodic task refreshes
// remote-group contents"), structured in parallel with internal/status's
// aggregation task.
package remotegroup

import (
	"context"
	"time"

	"flowcore/internal/graph"
	"flowcore/internal/workerpool"
	"flowcore/pkg/logger"
)

// Fetcher discovers a remote instance's current input/output ports.
type Fetcher interface {
	Refresh(ctx context.Context, targetURI string) (inputs, outputs []graph.PortDescriptor, err error)
}

// Locker mirrors a read-lock acquisition (controller.RLock/RUnlock).
type Locker interface {
	RLock()
	RUnlock()
}

// GraphView is the read-only surface the refresh task needs from the
// controller; callers hold the controller's shared lock for the duration of
// one pass.
type GraphView interface {
	AllRemoteGroups() []*graph.RemoteGroup
}

// NewTask returns a workerpool.PeriodicTask that, every interval, refreshes
// every RemoteGroup in view. A single remote group's fetch failure is logged
// and skipped; it does not abort the pass for the remaining groups.
func NewTask(name string, interval time.Duration, lock Locker, view GraphView, fetcher Fetcher, log *logger.Logger) *workerpool.PeriodicTask {
	return workerpool.NewPeriodicTask(name, interval, log, func(ctx context.Context) error {
		lock.RLock()
		groups := view.AllRemoteGroups()
		lock.RUnlock()

		for _, rg := range groups {
			inputs, outputs, err := fetcher.Refresh(ctx, rg.TargetURI)
			if err != nil {
				if log != nil {
					log.WithField("remote_group", rg.ID).WithField("err", err).Debug("remote group refresh failed")
				}
				continue
			}
			rg.MarkRefreshed(inputs, outputs, time.Now())
		}
		return nil
	})
}
