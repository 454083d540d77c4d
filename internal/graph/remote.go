package graph

import "time"

// PortDescriptor describes a port discovered on a remote instance during a
// RemoteGroup refresh.
type PortDescriptor struct {
	ID        string
	Name      string
	Connected bool
}

// RemoteGroup models a remote process group: a reference to another
// FlowCore instance's input/output ports, refreshed periodically.
type RemoteGroup struct {
	ID       string
	Name     string
	GroupID  string
	TargetURI string

	InputPorts  []PortDescriptor
	OutputPorts []PortDescriptor

	CommunicationsTimeout time.Duration
	YieldPeriod           time.Duration
	Transmitting          bool

	LastAuthorizationIssue string
	lastRefresh             time.Time
}

// MarkRefreshed records the ports discovered by a refresh pass and the time
// it completed.
func (r *RemoteGroup) MarkRefreshed(inputs, outputs []PortDescriptor, at time.Time) {
	r.InputPorts = inputs
	r.OutputPorts = outputs
	r.lastRefresh = at
}

// LastRefresh returns the time of the most recent successful refresh.
func (r *RemoteGroup) LastRefresh() time.Time { return r.lastRefresh }

// ReportingTask is a reporting-task node: configuration plus its own
// scheduled-state, driven by the same scheduling agents as processors.
type ReportingTask struct {
	ID       string
	Type     string
	Name     string
	Strategy SchedulingStrategy
	Period   string
	Enabled  bool

	node *Node
}

// NewReportingTask wires a ReportingTask to an internal Node so it can be
// dispatched by the scheduling agents like any other Connectable.
func NewReportingTask(id, taskType, name string) *ReportingTask {
	n := NewNode(id, TypeProcessor, name)
	n.Strategy = StrategyTimerDriven
	return &ReportingTask{ID: id, Type: taskType, Name: name, node: n}
}

// Node exposes the reporting task's underlying scheduled Connectable.
func (r *ReportingTask) Node() *Node { return r.node }
