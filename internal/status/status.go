// Package status implements the post-order status aggregator (spec.md §4.5):
// a periodic walk of the process-group tree composing per-vertex counters
// and per-connection queue sizes into a ProcessGroupStatus tree.
package status

import (
	"flowcore/internal/graph"
)

// ConnectableCounters is the per-vertex activity a status pass folds in,
// sourced from the (external) flow-file event repository's last-N-minutes
// report. FlowCore's core does not compute these; internal/repository
// defines the contract that supplies them.
type ConnectableCounters struct {
	ActiveThreadCount int
	BytesRead         int64
	BytesWritten      int64
	InputCount        int64
	InputBytes        int64
	OutputCount       int64
	OutputBytes       int64
	SentCount         int64
	SentBytes         int64
	ReceivedCount     int64
	ReceivedBytes     int64
}

// CounterSource supplies ConnectableCounters for a single connectable.
type CounterSource interface {
	Counters(componentID string) ConnectableCounters
}

// ConnectionStatus reports one connection's queue occupancy.
type ConnectionStatus struct {
	ID           string
	QueuedObjects int64
	QueuedBytes   int64
}

// ProcessGroupStatus is one node of the aggregated status tree. Aggregated
// fields are summed from this group's own connectables plus every child
// group's totals (spec.md §4.5).
type ProcessGroupStatus struct {
	GroupID  string
	Name     string
	Children []*ProcessGroupStatus

	Connections []ConnectionStatus

	ActiveThreadCount int
	BytesRead         int64
	BytesWritten      int64
	QueuedObjects     int64
	QueuedBytes       int64
	InputCount        int64
	InputBytes        int64
	OutputCount       int64
	OutputBytes       int64
	SentCount         int64
	SentBytes         int64
	ReceivedCount     int64
	ReceivedBytes     int64
}

func (s *ProcessGroupStatus) add(c ConnectableCounters) {
	s.ActiveThreadCount += c.ActiveThreadCount
	s.BytesRead += c.BytesRead
	s.BytesWritten += c.BytesWritten
	s.InputCount += c.InputCount
	s.InputBytes += c.InputBytes
	s.OutputCount += c.OutputCount
	s.OutputBytes += c.OutputBytes
	s.SentCount += c.SentCount
	s.SentBytes += c.SentBytes
	s.ReceivedCount += c.ReceivedCount
	s.ReceivedBytes += c.ReceivedBytes
}

func (s *ProcessGroupStatus) addChild(child *ProcessGroupStatus) {
	s.ActiveThreadCount += child.ActiveThreadCount
	s.BytesRead += child.BytesRead
	s.BytesWritten += child.BytesWritten
	s.QueuedObjects += child.QueuedObjects
	s.QueuedBytes += child.QueuedBytes
	s.InputCount += child.InputCount
	s.InputBytes += child.InputBytes
	s.OutputCount += child.OutputCount
	s.OutputBytes += child.OutputBytes
	s.SentCount += child.SentCount
	s.SentBytes += child.SentBytes
	s.ReceivedCount += child.ReceivedCount
	s.ReceivedBytes += child.ReceivedBytes
}

// GraphView is the read-only surface the aggregator needs from the
// controller; callers are expected to hold the controller's shared lock for
// the duration of Aggregate.
type GraphView interface {
	Group(id string) (*graph.Group, bool)
	Node(id string) (*graph.Node, bool)
	Connection(id string) (*graph.Connection, bool)
}

// Aggregate walks rootID's subtree in post-order, composing a
// ProcessGroupStatus tree. counters may be nil, in which case every
// connectable contributes zero activity (queue sizes are still read
// directly off each connection).
func Aggregate(view GraphView, rootID string, counters CounterSource) *ProcessGroupStatus {
	grp, ok := view.Group(rootID)
	if !ok {
		return &ProcessGroupStatus{GroupID: rootID}
	}
	out := &ProcessGroupStatus{GroupID: grp.ID, Name: grp.Name}

	allConnectables := append(append(append(append([]string{}, grp.ProcessorIDs...), grp.InputPortIDs...), grp.OutputPortIDs...), grp.FunnelIDs...)
	for _, id := range allConnectables {
		if counters == nil {
			continue
		}
		out.add(counters.Counters(id))
	}

	for _, cid := range grp.ConnectionIDs {
		conn, ok := view.Connection(cid)
		if !ok {
			continue
		}
		size := conn.Queue.Size()
		out.Connections = append(out.Connections, ConnectionStatus{ID: cid, QueuedObjects: size.ObjectCount, QueuedBytes: size.ByteCount})
		out.QueuedObjects += size.ObjectCount
		out.QueuedBytes += size.ByteCount
	}

	for _, childID := range grp.ChildGroupIDs {
		child := Aggregate(view, childID, counters)
		out.Children = append(out.Children, child)
		out.addChild(child)
	}

	return out
}
