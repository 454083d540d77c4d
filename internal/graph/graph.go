package graph

import (
	"flowcore/internal/ferrors"
)

// Graph is the arena owning every Node, Connection, Group, and RemoteGroup by
// string identity. It performs no internal locking: the Controller (internal/
// controller) wraps every mutating or reading call in its single
// reader-writer lock (spec.md §5), so Graph itself only needs to be a
// correct, fast, lock-free-to-callers data structure.
type Graph struct {
	nodes        map[string]*Node
	connections  map[string]*Connection
	groups       map[string]*Group
	remoteGroups map[string]*RemoteGroup
	reportingTasks map[string]*ReportingTask

	ids    map[string]struct{} // global identifier-uniqueness index
	rootID string
}

// New creates a Graph with a root process group.
func New(rootID, rootName string) *Graph {
	g := &Graph{
		nodes:          make(map[string]*Node),
		connections:    make(map[string]*Connection),
		groups:         make(map[string]*Group),
		remoteGroups:   make(map[string]*RemoteGroup),
		reportingTasks: make(map[string]*ReportingTask),
		ids:            make(map[string]struct{}),
	}
	root := NewGroup(rootID, rootName, "")
	g.groups[rootID] = root
	g.ids[rootID] = struct{}{}
	g.rootID = rootID
	return g
}

// RootID returns the root group's id.
func (g *Graph) RootID() string { return g.rootID }

// RootGroup returns the root process group.
func (g *Graph) RootGroup() *Group { return g.groups[g.rootID] }

// reserveID registers id in the global uniqueness index, failing if it is
// already taken anywhere in the graph (spec.md §4.1: "duplicate identifiers
// anywhere in the live graph" is rejected).
func (g *Graph) reserveID(id string) error {
	if id == "" {
		return ferrors.InvalidArgument("id", "must not be empty")
	}
	if _, exists := g.ids[id]; exists {
		return ferrors.DuplicateID(id)
	}
	g.ids[id] = struct{}{}
	return nil
}

func (g *Graph) releaseID(id string) {
	delete(g.ids, id)
}

// Group looks up a process group by id.
func (g *Graph) Group(id string) (*Group, bool) {
	grp, ok := g.groups[id]
	return grp, ok
}

// Node looks up a connectable by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Connection looks up a connection by id.
func (g *Graph) Connection(id string) (*Connection, bool) {
	c, ok := g.connections[id]
	return c, ok
}

// RemoteGroup looks up a remote process group by id.
func (g *Graph) RemoteGroup(id string) (*RemoteGroup, bool) {
	r, ok := g.remoteGroups[id]
	return r, ok
}

// ReportingTask looks up a reporting task by id.
func (g *Graph) ReportingTask(id string) (*ReportingTask, bool) {
	r, ok := g.reportingTasks[id]
	return r, ok
}

// AddGroup creates a sub-group under parentID.
func (g *Graph) AddGroup(id, name, parentID string) (*Group, error) {
	parent, ok := g.groups[parentID]
	if !ok {
		return nil, ferrors.UnknownComponent(parentID)
	}
	if err := g.reserveID(id); err != nil {
		return nil, err
	}
	grp := NewGroup(id, name, parentID)
	g.groups[id] = grp
	parent.ChildGroupIDs = append(parent.ChildGroupIDs, id)
	return grp, nil
}

// portNameCollision reports whether name is already used by a sibling port
// (input or output) within groupID (spec.md §3: "uniqueness of port name
// within siblings of a group").
func (g *Graph) portNameCollision(groupID, name string) bool {
	grp, ok := g.groups[groupID]
	if !ok {
		return false
	}
	for _, id := range append(append([]string{}, grp.InputPortIDs...), grp.OutputPortIDs...) {
		if n, ok := g.nodes[id]; ok && n.Name == name {
			return true
		}
	}
	return false
}

// AddNode registers a Connectable of the given kind into groupID.
func (g *Graph) AddNode(node *Node, groupID string) error {
	grp, ok := g.groups[groupID]
	if !ok {
		return ferrors.UnknownComponent(groupID)
	}
	isPort := node.Type == TypeInputPort || node.Type == TypeOutputPort ||
		node.Type == TypeRootInputPort || node.Type == TypeRootOutputPort
	if isPort && g.portNameCollision(groupID, node.Name) {
		return ferrors.New(ferrors.ErrCodeDuplicateID, "port name already in use within group").
			WithDetails("group_id", groupID).WithDetails("name", node.Name)
	}
	if err := g.reserveID(node.ID); err != nil {
		return err
	}
	node.GroupID = groupID
	g.nodes[node.ID] = node

	switch node.Type {
	case TypeProcessor:
		grp.ProcessorIDs = append(grp.ProcessorIDs, node.ID)
	case TypeInputPort, TypeRootInputPort:
		grp.InputPortIDs = append(grp.InputPortIDs, node.ID)
	case TypeOutputPort, TypeRootOutputPort:
		grp.OutputPortIDs = append(grp.OutputPortIDs, node.ID)
	case TypeFunnel:
		grp.FunnelIDs = append(grp.FunnelIDs, node.ID)
	}
	return nil
}

// AddConnection registers a Connection, wiring it onto both endpoints'
// outbound/inbound lists.
func (g *Graph) AddConnection(conn *Connection, groupID string) error {
	grp, ok := g.groups[groupID]
	if !ok {
		return ferrors.UnknownComponent(groupID)
	}
	src, ok := g.nodes[conn.SourceID]
	if !ok {
		return ferrors.UnknownComponent(conn.SourceID)
	}
	dst, ok := g.nodes[conn.DestinationID]
	if !ok {
		return ferrors.UnknownComponent(conn.DestinationID)
	}
	if len(conn.Relationships) == 0 {
		return ferrors.InvalidArgument("relationships", "must be non-empty")
	}
	if err := g.reserveID(conn.ID); err != nil {
		return err
	}
	g.connections[conn.ID] = conn
	src.Outbound = append(src.Outbound, conn.ID)
	dst.Inbound = append(dst.Inbound, conn.ID)
	grp.ConnectionIDs = append(grp.ConnectionIDs, conn.ID)
	return nil
}

// AddRemoteGroup registers a RemoteGroup into groupID.
func (g *Graph) AddRemoteGroup(rg *RemoteGroup, groupID string) error {
	grp, ok := g.groups[groupID]
	if !ok {
		return ferrors.UnknownComponent(groupID)
	}
	if err := g.reserveID(rg.ID); err != nil {
		return err
	}
	rg.GroupID = groupID
	g.remoteGroups[rg.ID] = rg
	grp.RemoteGroupIDs = append(grp.RemoteGroupIDs, rg.ID)
	return nil
}

// AddReportingTask registers a ReportingTask (reporting tasks are not owned
// by any process group; they sit alongside the controller per spec.md §3).
func (g *Graph) AddReportingTask(rt *ReportingTask) error {
	if err := g.reserveID(rt.ID); err != nil {
		return err
	}
	g.reportingTasks[rt.ID] = rt
	return nil
}

// RemoveConnection deletes a connection. Its queue must be empty
// (spec.md §3: "Removal of a connection requires its queue to be empty").
func (g *Graph) RemoveConnection(id string) error {
	conn, ok := g.connections[id]
	if !ok {
		return ferrors.UnknownComponent(id)
	}
	if conn.Queue.Size().ObjectCount > 0 {
		return ferrors.New(ferrors.ErrCodeIllegalState, "cannot remove a connection with a non-empty queue").
			WithDetails("connection_id", id)
	}
	if src, ok := g.nodes[conn.SourceID]; ok {
		src.Outbound = removeString(src.Outbound, id)
	}
	if dst, ok := g.nodes[conn.DestinationID]; ok {
		dst.Inbound = removeString(dst.Inbound, id)
	}
	for _, grp := range g.groups {
		grp.ConnectionIDs = removeString(grp.ConnectionIDs, id)
	}
	delete(g.connections, id)
	g.releaseID(id)
	return nil
}

// RemoveNode deletes a Connectable. It must not be Running
// (spec.md §3; enforced by the caller via Node.VerifyCanDelete), and must
// have no remaining connections.
func (g *Graph) RemoveNode(id string) error {
	node, ok := g.nodes[id]
	if !ok {
		return ferrors.UnknownComponent(id)
	}
	if err := node.VerifyCanDelete(); err != nil {
		return err
	}
	if len(node.Inbound) > 0 || len(node.Outbound) > 0 {
		return ferrors.New(ferrors.ErrCodeIllegalState, "cannot delete a connectable with active connections").
			WithDetails("component_id", id)
	}
	if grp, ok := g.groups[node.GroupID]; ok {
		grp.ProcessorIDs = removeString(grp.ProcessorIDs, id)
		grp.InputPortIDs = removeString(grp.InputPortIDs, id)
		grp.OutputPortIDs = removeString(grp.OutputPortIDs, id)
		grp.FunnelIDs = removeString(grp.FunnelIDs, id)
	}
	delete(g.nodes, id)
	g.releaseID(id)
	return nil
}

// AnyOutboundFull reports whether any of nodeID's outbound connections is
// signalling back-pressure (spec.md §4.3: scheduling agents must observe this
// before issuing a trigger).
func (g *Graph) AnyOutboundFull(nodeID string) bool {
	node, ok := g.nodes[nodeID]
	if !ok {
		return false
	}
	for _, cid := range node.Outbound {
		if conn, ok := g.connections[cid]; ok && conn.Queue.IsFull() {
			return true
		}
	}
	return false
}

// NodesByStrategy returns every node currently Running under the given
// scheduling strategy.
func (g *Graph) NodesByStrategy(strategy SchedulingStrategy) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Strategy == strategy && n.State() == StateRunning {
			out = append(out, n)
		}
	}
	for _, rt := range g.reportingTasks {
		if rt.Enabled && rt.node.Strategy == strategy && rt.node.State() == StateRunning {
			out = append(out, rt.node)
		}
	}
	return out
}

// AllNodes returns every connectable in the graph (processors, ports,
// funnels, remote ports — not reporting tasks).
func (g *Graph) AllNodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// AllGroups returns every process group in the graph.
func (g *Graph) AllGroups() []*Group {
	out := make([]*Group, 0, len(g.groups))
	for _, grp := range g.groups {
		out = append(out, grp)
	}
	return out
}

// AllConnections returns every connection in the graph.
func (g *Graph) AllConnections() []*Connection {
	out := make([]*Connection, 0, len(g.connections))
	for _, c := range g.connections {
		out = append(out, c)
	}
	return out
}

// AllRemoteGroups returns every remote process group in the graph.
func (g *Graph) AllRemoteGroups() []*RemoteGroup {
	out := make([]*RemoteGroup, 0, len(g.remoteGroups))
	for _, r := range g.remoteGroups {
		out = append(out, r)
	}
	return out
}

// HasID reports whether id is already in use anywhere in the graph.
func (g *Graph) HasID(id string) bool {
	_, ok := g.ids[id]
	return ok
}
