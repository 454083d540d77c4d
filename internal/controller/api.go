package controller

import (
	"context"

	"flowcore/internal/graph"
)

// CreateProcessor instantiates a processor plug-in and wires it into
// groupID (spec.md §4.1 "createProcessor").
func (c *Controller) CreateProcessor(groupID string, spec ProcessorSpec) (*graph.Node, error) {
	return c.createProcessor(groupID, spec)
}

// CreateInputPort creates a local input port within groupID.
func (c *Controller) CreateInputPort(groupID, id, name string) (*graph.Node, error) {
	return c.createLocalInputPort(groupID, id, name)
}

// CreateOutputPort creates a local output port within groupID.
func (c *Controller) CreateOutputPort(groupID, id, name string) (*graph.Node, error) {
	return c.createLocalOutputPort(groupID, id, name)
}

// CreateFunnel creates a funnel within groupID.
func (c *Controller) CreateFunnel(groupID, id string) (*graph.Node, error) {
	return c.createFunnel(groupID, id)
}

// CreateLabel creates a cosmetic label within groupID.
func (c *Controller) CreateLabel(groupID, id string) error {
	return c.createLabel(groupID, id)
}

// CreateProcessGroup creates a sub-group named name under parentID.
func (c *Controller) CreateProcessGroup(parentID, id, name string) (*graph.Group, error) {
	return c.createProcessGroup(parentID, id, name)
}

// CreateConnection wires a new connection between two connectables already
// registered in groupID.
func (c *Controller) CreateConnection(groupID string, spec ConnectionSpec) (*graph.Connection, error) {
	return c.createConnection(groupID, spec)
}

// CreateReportingTask instantiates a reporting task by class name.
func (c *Controller) CreateReportingTask(id, className, name string, strategy graph.SchedulingStrategy, period string) (*graph.ReportingTask, error) {
	return c.createReportingTask(id, className, name, strategy, period)
}

// CreateRemoteProcessGroup registers a reference to another FlowCore
// instance's ports at targetURI.
func (c *Controller) CreateRemoteProcessGroup(groupID, id, name, targetURI string) (*graph.RemoteGroup, error) {
	return c.createRemoteProcessGroup(groupID, id, name, targetURI)
}

// RemoveConnectable deletes a processor, port, or funnel. It must not be
// Running and must have no remaining connections.
func (c *Controller) RemoveConnectable(id string) error {
	return c.removeNode(id)
}

// RemoveConnection deletes a connection whose queue is empty.
func (c *Controller) RemoveConnection(id string) error {
	return c.withWriteLock(func() error {
		return c.graph.RemoveConnection(id)
	})
}

// StartProcessor transitions a processor, port, or funnel Stopped→Running.
func (c *Controller) StartProcessor(ctx context.Context, id string) error {
	return c.startProcessor(ctx, id)
}

// StopProcessor transitions a processor, port, or funnel Running→Stopped.
func (c *Controller) StopProcessor(ctx context.Context, id string) error {
	return c.stopProcessor(ctx, id)
}

// EnableConnectable transitions a connectable Disabled→Stopped.
func (c *Controller) EnableConnectable(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	node, ok := c.graph.Node(id)
	if !ok {
		return unknownComponent(id)
	}
	return node.Enable()
}

// DisableConnectable transitions a connectable Stopped→Disabled.
func (c *Controller) DisableConnectable(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	node, ok := c.graph.Node(id)
	if !ok {
		return unknownComponent(id)
	}
	return node.Disable()
}

// StartProcessGroup recursively starts every startable connectable in
// groupID and its sub-groups.
func (c *Controller) StartProcessGroup(ctx context.Context, groupID string) error {
	return c.startProcessGroup(ctx, groupID)
}

// StopProcessGroup recursively stops every Running connectable in groupID
// and its sub-groups.
func (c *Controller) StopProcessGroup(ctx context.Context, groupID string) error {
	return c.stopProcessGroup(ctx, groupID)
}

// InstantiateSnippet validates and atomically applies a pre-decoded snippet
// into groupID.
func (c *Controller) InstantiateSnippet(groupID string, snippet *Snippet) error {
	return c.instantiateSnippet(groupID, snippet)
}
