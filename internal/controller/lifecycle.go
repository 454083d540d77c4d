package controller

import (
	"context"

	"flowcore/internal/ferrors"
	"flowcore/internal/graph"
	"flowcore/internal/plugin"
)

// startProcessor transitions a node Stopped→Running, invoking its plug-in's
// OnScheduled hook if present. Issued before initializeFlow completes, the
// request is buffered and replayed in order by startDelayed (spec.md §4.1).
func (c *Controller) startProcessor(ctx context.Context, id string) error {
	return c.deferOrRun(func() error {
		return c.withWriteLock(func() error {
			node, ok := c.graph.Node(id)
			if !ok {
				return unknownComponent(id)
			}
			if err := node.VerifyCanStart(); err != nil {
				return err
			}
			if entry, ok := c.processors[id]; ok {
				if hook, ok := entry.proc.(plugin.OnScheduled); ok {
					if err := callWithScope(entry.className, func() error { return hook.OnScheduled(ctx) }); err != nil {
						return ferrors.Instantiation(id, err)
					}
				}
			}
			return node.Start()
		})
	})
}

// stopProcessor transitions a node Running→Stopped, invoking OnUnscheduled
// if present. In-flight triggers already dispatched to a pool worker are not
// interrupted (spec.md §5).
func (c *Controller) stopProcessor(ctx context.Context, id string) error {
	return c.withWriteLock(func() error {
		node, ok := c.graph.Node(id)
		if !ok {
			return unknownComponent(id)
		}
		if err := node.VerifyCanStop(); err != nil {
			return err
		}
		if err := node.Stop(); err != nil {
			return err
		}
		if entry, ok := c.processors[id]; ok {
			if hook, ok := entry.proc.(plugin.OnUnscheduled); ok {
				_ = callWithScope(entry.className, func() error { return hook.OnUnscheduled(ctx) })
			}
		}
		c.eventQueue.Remove(node)
		return nil
	})
}

// removeNode deletes a connectable after running its OnRemoved hook, if
// present (spec.md §4.1). The node must already be deletable (not Running,
// no remaining connections).
func (c *Controller) removeNode(id string) error {
	return c.withWriteLock(func() error {
		if err := c.graph.RemoveNode(id); err != nil {
			return err
		}
		if entry, ok := c.processors[id]; ok {
			if hook, ok := entry.proc.(plugin.OnRemoved); ok {
				runWithScope(entry.className, hook.OnRemoved)
			}
			delete(c.processors, id)
		}
		return nil
	})
}

// startProcessGroup recursively starts every startable connectable in
// groupID and its sub-groups, in the order: controller services (none owned
// by a group), reporting tasks (unowned, started separately by the caller),
// then processors and ports (spec.md §4 Component Design note).
func (c *Controller) startProcessGroup(ctx context.Context, groupID string) error {
	return c.deferOrRun(func() error {
		return c.startProcessGroupNoDefer(ctx, groupID)
	})
}

// startProcessGroupNoDefer is startProcessGroup's recursive body, bypassing
// deferOrRun (already running inside a flushed or post-start call).
func (c *Controller) startProcessGroupNoDefer(ctx context.Context, groupID string) error {
	c.mu.Lock()
	ids, children, err := c.collectStartable(groupID)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if startErr := c.startOneLocked(ctx, id); startErr != nil {
			return startErr
		}
	}
	for _, childID := range children {
		if err := c.startProcessGroupNoDefer(ctx, childID); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) collectStartable(groupID string) (ids []string, children []string, err error) {
	grp, ok := c.graph.Group(groupID)
	if !ok {
		return nil, nil, unknownComponent(groupID)
	}
	ids = append(ids, grp.ProcessorIDs...)
	ids = append(ids, grp.InputPortIDs...)
	ids = append(ids, grp.OutputPortIDs...)
	ids = append(ids, grp.FunnelIDs...)
	children = append(children, grp.ChildGroupIDs...)
	return ids, children, nil
}

// startOneLocked acquires the write lock itself (the per-node lifecycle
// methods are individually locked) to start a single connectable that is
// currently Stopped, skipping it silently if it is Disabled or already
// Running (recursive group-start only ever touches startable nodes).
func (c *Controller) startOneLocked(ctx context.Context, id string) error {
	c.mu.RLock()
	node, ok := c.graph.Node(id)
	var state graph.ScheduledState
	if ok {
		state = node.State()
	}
	c.mu.RUnlock()
	if !ok || state != graph.StateStopped {
		return nil
	}
	return c.startProcessor(ctx, id)
}

// stopProcessGroup recursively stops every Running connectable in groupID
// and its sub-groups.
func (c *Controller) stopProcessGroup(ctx context.Context, groupID string) error {
	c.mu.RLock()
	grp, ok := c.graph.Group(groupID)
	if !ok {
		c.mu.RUnlock()
		return unknownComponent(groupID)
	}
	ids := append(append(append(append([]string{}, grp.ProcessorIDs...), grp.InputPortIDs...), grp.OutputPortIDs...), grp.FunnelIDs...)
	children := append([]string{}, grp.ChildGroupIDs...)
	c.mu.RUnlock()

	for _, id := range ids {
		c.mu.RLock()
		node, ok := c.graph.Node(id)
		var running bool
		if ok {
			running = node.State() == graph.StateRunning
		}
		c.mu.RUnlock()
		if !ok || !running {
			continue
		}
		if err := c.stopProcessor(ctx, id); err != nil {
			return err
		}
	}
	for _, childID := range children {
		if err := c.stopProcessGroup(ctx, childID); err != nil {
			return err
		}
	}
	return nil
}
