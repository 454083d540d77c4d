package controller

import (
	"context"

	"flowcore/internal/ferrors"
	"flowcore/internal/graph"
	"flowcore/internal/plugin"
)

// session is the minimal plugin.Session a trigger is given: just the
// context a processor should observe for cancellation. The flow-file/
// content/provenance repository surface a real processor would use is
// external (internal/repository) and not modelled here.
type session struct {
	ctx context.Context
}

func (s session) Context() context.Context { return s.ctx }

// RunTrigger implements scheduler.TriggerRunner: it looks up the live
// plug-in instance for node and calls OnTrigger under a fresh Session, with
// the plug-in's class-loader scope installed for the call's duration and
// restored on every exit path, including a panic (spec.md §5). This is
// called from a pool worker goroutine, never while holding the controller's
// lock.
func (c *Controller) RunTrigger(ctx context.Context, node *graph.Node) error {
	c.mu.RLock()
	entry, ok := c.processors[node.ID]
	c.mu.RUnlock()
	if !ok {
		return ferrors.UnknownComponent(node.ID)
	}
	release := plugin.Enter(entry.className)
	defer release()
	return entry.proc.OnTrigger(ctx, session{ctx: ctx})
}
