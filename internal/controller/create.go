package controller

import (
	"time"

	"flowcore/internal/ferrors"
	"flowcore/internal/graph"
	"flowcore/internal/plugin"
	"flowcore/internal/queue"
)

// ProcessorSpec describes a processor to create (spec.md §4.1 createProcessor).
type ProcessorSpec struct {
	ID                 string
	ClassName          string
	Name               string
	Position           graph.Position
	MaxConcurrentTasks int32
	SchedulingPeriod   string
	Strategy           graph.SchedulingStrategy
	YieldPeriod        string
	PenalizationPeriod string
}

// createProcessor instantiates className through the plug-in registry under
// the scoped class-loader context, wires it into groupID, and invokes
// OnAdded exactly once since this is, by construction, the processor's first
// time being added (spec.md §4.1).
func (c *Controller) createProcessor(groupID string, spec ProcessorSpec) (*graph.Node, error) {
	var node *graph.Node
	err := c.withWriteLock(func() error {
		if !c.registry.Lookup(spec.ClassName) {
			return ferrors.Instantiation(spec.ClassName, ferrors.New(ferrors.ErrCodeInstantiation, "unknown processor class"))
		}
		proc, err := c.registry.New(spec.ClassName)
		if err != nil {
			return ferrors.Instantiation(spec.ClassName, err)
		}

		n := graph.NewNode(spec.ID, graph.TypeProcessor, spec.Name)
		n.Position = spec.Position
		n.Strategy = spec.Strategy
		n.SchedulingPeriod = spec.SchedulingPeriod
		if spec.MaxConcurrentTasks > 0 {
			n.SetMaxConcurrentTasks(spec.MaxConcurrentTasks)
		}
		if d := parseDurationOr(spec.YieldPeriod); d > 0 {
			n.YieldPeriod = d
		}
		if d := parseDurationOr(spec.PenalizationPeriod); d > 0 {
			n.PenalizationPeriod = d
		}

		if err := c.graph.AddNode(n, groupID); err != nil {
			return err
		}
		c.processors[n.ID] = processorHandle{proc: proc, className: spec.ClassName}
		if hook, ok := proc.(plugin.OnAdded); ok {
			runWithScope(spec.ClassName, hook.OnAdded)
		}
		node = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// createLocalInputPort creates a local (non-root) input port within groupID.
func (c *Controller) createLocalInputPort(groupID, id, name string) (*graph.Node, error) {
	return c.createPort(groupID, id, name, graph.TypeInputPort)
}

// createLocalOutputPort creates a local (non-root) output port within groupID.
func (c *Controller) createLocalOutputPort(groupID, id, name string) (*graph.Node, error) {
	return c.createPort(groupID, id, name, graph.TypeOutputPort)
}

func (c *Controller) createPort(groupID, id, name string, typ graph.VertexType) (*graph.Node, error) {
	var node *graph.Node
	err := c.withWriteLock(func() error {
		n := graph.NewNode(id, typ, name)
		if err := c.graph.AddNode(n, groupID); err != nil {
			return err
		}
		node = n
		return nil
	})
	return node, err
}

// createFunnel creates a funnel (a pass-through connectable with no
// configuration) within groupID.
func (c *Controller) createFunnel(groupID, id string) (*graph.Node, error) {
	var node *graph.Node
	err := c.withWriteLock(func() error {
		n := graph.NewNode(id, graph.TypeFunnel, id)
		if err := c.graph.AddNode(n, groupID); err != nil {
			return err
		}
		node = n
		return nil
	})
	return node, err
}

// createLabel creates a purely cosmetic label id within groupID. Labels
// carry no scheduling or data semantics; the graph only tracks membership
// for group listing/removal purposes.
func (c *Controller) createLabel(groupID, id string) error {
	return c.withWriteLock(func() error {
		grp, ok := c.graph.Group(groupID)
		if !ok {
			return unknownComponent(groupID)
		}
		if c.graph.HasID(id) {
			return ferrors.DuplicateID(id)
		}
		grp.LabelIDs = append(grp.LabelIDs, id)
		return nil
	})
}

// createProcessGroup creates a sub-group named name under parentID.
func (c *Controller) createProcessGroup(parentID, id, name string) (*graph.Group, error) {
	var grp *graph.Group
	err := c.withWriteLock(func() error {
		g, err := c.graph.AddGroup(id, name, parentID)
		if err != nil {
			return err
		}
		grp = g
		return nil
	})
	return grp, err
}

// ConnectionSpec describes a connection to create (spec.md §4.1
// createConnection).
type ConnectionSpec struct {
	ID            string
	SourceID      string
	DestinationID string
	Relationships []string
	Thresholds    queue.Thresholds
}

// createConnection wires a new connection between two already-registered
// connectables, selecting a non-empty set of the source's relationships.
func (c *Controller) createConnection(groupID string, spec ConnectionSpec) (*graph.Connection, error) {
	var conn *graph.Connection
	err := c.withWriteLock(func() error {
		cn := graph.NewConnection(spec.ID, spec.SourceID, spec.DestinationID, spec.Relationships, spec.Thresholds)
		if err := c.graph.AddConnection(cn, groupID); err != nil {
			return err
		}
		c.wireConnectionReadinessLocked(cn)
		conn = cn
		return nil
	})
	return conn, err
}

// wireConnectionReadinessLocked installs the callback that offers conn's
// destination to the event-driven work queue whenever the connection's
// queue transitions from empty to non-empty (spec.md §4.4: "a component
// becomes 'ready' when an inbound queue transitions from empty to
// non-empty"). Must be called while holding the write lock, immediately
// after conn has been added to the graph.
func (c *Controller) wireConnectionReadinessLocked(conn *graph.Connection) {
	destNode, ok := c.graph.Node(conn.DestinationID)
	if !ok {
		return
	}
	conn.Queue.SetOnNonEmpty(func() {
		if destNode.Strategy == graph.StrategyEventDriven {
			c.eventQueue.Offer(destNode)
		}
	})
}

// createReportingTask instantiates a reporting task by class name, parallel
// to createProcessor but unowned by any process group (spec.md §3).
func (c *Controller) createReportingTask(id, className, name string, strategy graph.SchedulingStrategy, period string) (*graph.ReportingTask, error) {
	var rt *graph.ReportingTask
	err := c.withWriteLock(func() error {
		if !c.registry.Lookup(className) {
			return ferrors.Instantiation(className, ferrors.New(ferrors.ErrCodeInstantiation, "unknown reporting task class"))
		}
		proc, err := c.registry.New(className)
		if err != nil {
			return ferrors.Instantiation(className, err)
		}
		task := graph.NewReportingTask(id, className, name)
		task.Strategy = strategy
		task.Period = period
		task.Node().Strategy = strategy
		task.Node().SchedulingPeriod = period
		if err := c.graph.AddReportingTask(task); err != nil {
			return err
		}
		c.processors[id] = processorHandle{proc: proc, className: className}
		if hook, ok := proc.(plugin.OnAdded); ok {
			runWithScope(className, hook.OnAdded)
		}
		rt = task
		return nil
	})
	return rt, err
}

// createRemoteProcessGroup registers a reference to another FlowCore
// instance's input/output ports at targetURI.
func (c *Controller) createRemoteProcessGroup(groupID, id, name, targetURI string) (*graph.RemoteGroup, error) {
	var rg *graph.RemoteGroup
	err := c.withWriteLock(func() error {
		r := &graph.RemoteGroup{ID: id, Name: name, TargetURI: targetURI}
		if err := c.graph.AddRemoteGroup(r, groupID); err != nil {
			return err
		}
		rg = r
		return nil
	})
	return rg, err
}

// parseDurationOr parses s as a duration, returning 0 if s is empty or
// unparseable.
func parseDurationOr(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
