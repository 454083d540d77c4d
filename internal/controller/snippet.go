package controller

import (
	"gopkg.in/yaml.v3"

	"flowcore/internal/ferrors"
	"flowcore/internal/graph"
	"flowcore/internal/queue"
)

// Snippet is a structured sub-graph definition decoded from YAML and
// instantiated atomically into a target group (spec.md §4.1
// "instantiateSnippet").
type Snippet struct {
	Labels    []SnippetLabel    `yaml:"labels"`
	Funnels   []SnippetFunnel   `yaml:"funnels"`
	Ports     []SnippetPort     `yaml:"ports"`
	Processors []ProcessorSpec  `yaml:"processors"`
	Remotes   []SnippetRemote   `yaml:"remote_groups"`
	Groups    []SnippetGroup    `yaml:"groups"`
	Connections []ConnectionSpec `yaml:"connections"`
}

type SnippetLabel struct {
	ID string `yaml:"id"`
}

type SnippetFunnel struct {
	ID string `yaml:"id"`
}

type SnippetPort struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Output bool   `yaml:"output"`
}

type SnippetRemote struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	TargetURI string `yaml:"target_uri"`
}

// SnippetGroup is a child group, recursively containing its own snippet.
type SnippetGroup struct {
	ID   string  `yaml:"id"`
	Name string  `yaml:"name"`
	Body Snippet `yaml:"body"`
}

// DecodeSnippet parses a YAML-encoded snippet document (spec.md §3.1 domain
// stack wiring: gopkg.in/yaml.v3).
func DecodeSnippet(data []byte) (*Snippet, error) {
	var s Snippet
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, ferrors.New(ferrors.ErrCodeInvalidArgument, "malformed snippet document").WithDetails("err", err.Error())
	}
	return &s, nil
}

// instantiateSnippet adds a pre-validated sub-graph into groupID atomically
// under the write lock. Validation rejects duplicate identifiers anywhere in
// the live graph, root-level port name collisions, and unknown processor
// class names. Instantiation order is: labels, funnels, ports, processors,
// remote groups, child groups (recursively), connections. A failure at any
// step leaves the graph unchanged for the whole call (spec.md §4.1).
func (c *Controller) instantiateSnippet(groupID string, snippet *Snippet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instantiateSnippetLocked(groupID, snippet)
}

func (c *Controller) instantiateSnippetLocked(groupID string, snippet *Snippet) error {
	if err := c.validateSnippetLocked(groupID, snippet); err != nil {
		return err
	}

	for _, l := range snippet.Labels {
		grp, ok := c.graph.Group(groupID)
		if !ok {
			return unknownComponent(groupID)
		}
		grp.LabelIDs = append(grp.LabelIDs, l.ID)
	}
	for _, f := range snippet.Funnels {
		n := graph.NewNode(f.ID, graph.TypeFunnel, f.ID)
		if err := c.graph.AddNode(n, groupID); err != nil {
			return err
		}
	}
	for _, p := range snippet.Ports {
		typ := graph.TypeInputPort
		if p.Output {
			typ = graph.TypeOutputPort
		}
		n := graph.NewNode(p.ID, typ, p.Name)
		if err := c.graph.AddNode(n, groupID); err != nil {
			return err
		}
	}
	for _, spec := range snippet.Processors {
		if !c.registry.Lookup(spec.ClassName) {
			return ferrors.Instantiation(spec.ClassName, ferrors.New(ferrors.ErrCodeInstantiation, "unknown processor class"))
		}
		proc, err := c.registry.New(spec.ClassName)
		if err != nil {
			return ferrors.Instantiation(spec.ClassName, err)
		}
		n := graph.NewNode(spec.ID, graph.TypeProcessor, spec.Name)
		n.Strategy = spec.Strategy
		n.SchedulingPeriod = spec.SchedulingPeriod
		if spec.MaxConcurrentTasks > 0 {
			n.SetMaxConcurrentTasks(spec.MaxConcurrentTasks)
		}
		if err := c.graph.AddNode(n, groupID); err != nil {
			return err
		}
		c.processors[n.ID] = processorHandle{proc: proc, className: spec.ClassName}
	}
	for _, r := range snippet.Remotes {
		rg := &graph.RemoteGroup{ID: r.ID, Name: r.Name, TargetURI: r.TargetURI}
		if err := c.graph.AddRemoteGroup(rg, groupID); err != nil {
			return err
		}
	}
	for _, childSpec := range snippet.Groups {
		child, err := c.graph.AddGroup(childSpec.ID, childSpec.Name, groupID)
		if err != nil {
			return err
		}
		if err := c.instantiateSnippetLocked(child.ID, &childSpec.Body); err != nil {
			return err
		}
	}
	for _, cs := range snippet.Connections {
		conn := graph.NewConnection(cs.ID, cs.SourceID, cs.DestinationID, cs.Relationships, normalizeThresholds(cs.Thresholds))
		if err := c.graph.AddConnection(conn, groupID); err != nil {
			return err
		}
		c.wireConnectionReadinessLocked(conn)
	}
	return nil
}

// existingPortNames returns the names already in use by sibling ports (input
// or output) within groupID, or an empty set if groupID does not yet exist
// (a child group being created by this same snippet has no pre-existing
// ports to collide with).
func (c *Controller) existingPortNames(groupID string) map[string]struct{} {
	names := make(map[string]struct{})
	grp, ok := c.graph.Group(groupID)
	if !ok {
		return names
	}
	for _, id := range append(append([]string{}, grp.InputPortIDs...), grp.OutputPortIDs...) {
		if n, ok := c.graph.Node(id); ok {
			names[n.Name] = struct{}{}
		}
	}
	return names
}

// checkPortName records name as used within a group's port-name namespace,
// rejecting it if it collides with an existing sibling port or with another
// port earlier in the same snippet (spec.md §4.1: root-level/sibling port
// name collisions must be caught before any mutation, not part way through
// instantiation).
func checkPortName(groupID, name string, portNames map[string]struct{}) error {
	if _, dup := portNames[name]; dup {
		return ferrors.New(ferrors.ErrCodeDuplicateID, "port name already in use within group").
			WithDetails("group_id", groupID).WithDetails("name", name)
	}
	portNames[name] = struct{}{}
	return nil
}

// validateSnippetLocked performs the atomic pre-validation pass: duplicate
// identifiers anywhere in the live graph, root-level port name collisions,
// and unknown processor classes. Called before any mutation so a rejected
// snippet never partially applies.
func (c *Controller) validateSnippetLocked(groupID string, snippet *Snippet) error {
	seen := make(map[string]struct{})
	check := func(id string) error {
		if id == "" {
			return ferrors.InvalidArgument("id", "must not be empty")
		}
		if c.graph.HasID(id) {
			return ferrors.DuplicateID(id)
		}
		if _, dup := seen[id]; dup {
			return ferrors.DuplicateID(id)
		}
		seen[id] = struct{}{}
		return nil
	}

	for _, l := range snippet.Labels {
		if err := check(l.ID); err != nil {
			return err
		}
	}
	for _, f := range snippet.Funnels {
		if err := check(f.ID); err != nil {
			return err
		}
	}
	portNames := c.existingPortNames(groupID)
	for _, p := range snippet.Ports {
		if err := check(p.ID); err != nil {
			return err
		}
		if err := checkPortName(groupID, p.Name, portNames); err != nil {
			return err
		}
	}
	for _, spec := range snippet.Processors {
		if err := check(spec.ID); err != nil {
			return err
		}
		if !c.registry.Lookup(spec.ClassName) {
			return ferrors.Instantiation(spec.ClassName, ferrors.New(ferrors.ErrCodeInstantiation, "unknown processor class"))
		}
	}
	for _, r := range snippet.Remotes {
		if err := check(r.ID); err != nil {
			return err
		}
	}
	for _, g := range snippet.Groups {
		if err := check(g.ID); err != nil {
			return err
		}
		if err := c.validateSubSnippet(g.ID, &g.Body, seen); err != nil {
			return err
		}
	}
	for _, cs := range snippet.Connections {
		if err := check(cs.ID); err != nil {
			return err
		}
	}
	return nil
}

// validateSubSnippet extends the duplicate-identifier and port-name-collision
// checks into a nested group's own snippet body, sharing the ID seen-set
// across the whole snippet document (spec.md §4.1: "duplicate identifiers
// anywhere in the live graph" applies across the entire instantiation, not
// per group) while scoping the port-name namespace to childGroupID, since
// port names only need to be unique among siblings.
func (c *Controller) validateSubSnippet(childGroupID string, snippet *Snippet, seen map[string]struct{}) error {
	check := func(id string) error {
		if c.graph.HasID(id) {
			return ferrors.DuplicateID(id)
		}
		if _, dup := seen[id]; dup {
			return ferrors.DuplicateID(id)
		}
		seen[id] = struct{}{}
		return nil
	}
	for _, l := range snippet.Labels {
		if err := check(l.ID); err != nil {
			return err
		}
	}
	for _, f := range snippet.Funnels {
		if err := check(f.ID); err != nil {
			return err
		}
	}
	portNames := c.existingPortNames(childGroupID)
	for _, p := range snippet.Ports {
		if err := check(p.ID); err != nil {
			return err
		}
		if err := checkPortName(childGroupID, p.Name, portNames); err != nil {
			return err
		}
	}
	for _, spec := range snippet.Processors {
		if err := check(spec.ID); err != nil {
			return err
		}
		if !c.registry.Lookup(spec.ClassName) {
			return ferrors.Instantiation(spec.ClassName, ferrors.New(ferrors.ErrCodeInstantiation, "unknown processor class"))
		}
	}
	for _, r := range snippet.Remotes {
		if err := check(r.ID); err != nil {
			return err
		}
	}
	for _, cs := range snippet.Connections {
		if err := check(cs.ID); err != nil {
			return err
		}
	}
	for _, g := range snippet.Groups {
		if err := check(g.ID); err != nil {
			return err
		}
		if err := c.validateSubSnippet(g.ID, &g.Body, seen); err != nil {
			return err
		}
	}
	return nil
}

func normalizeThresholds(t queue.Thresholds) queue.Thresholds {
	if t.ObjectCount <= 0 {
		t.ObjectCount = 10000
	}
	if t.ByteCount <= 0 {
		t.ByteCount = 1 << 30
	}
	return t
}
