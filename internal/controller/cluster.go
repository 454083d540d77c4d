package controller

import "flowcore/internal/graph"

// SetPrimary updates the cluster's primary-node flag. It is a write-path
// cluster-state transition (spec.md §5), propagated to both the primary-
// node-only scheduling agent and the event-driven work queue so a node that
// loses primacy immediately stops issuing primary-only triggers and the
// queue starts dropping newly offered primary-only components.
func (c *Controller) SetPrimary(isPrimary bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.primaryAgent.SetPrimary(isPrimary)
	c.eventQueue.SetPrimary(isPrimary)
}

// SetClustered toggles whether this controller is operating as a member of
// a cluster, informing the event-driven queue (spec.md §4.4 "Sensitivity to
// primary/clustered").
func (c *Controller) SetClustered(clustered bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventQueue.SetClustered(clustered)
}

// RootGroup returns the root process group, primarily for callers building
// a heartbeat.Bean.
func (c *Controller) RootGroup() *graph.Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.graph.RootGroup()
}
