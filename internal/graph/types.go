// Package graph implements FlowCore's in-memory dataflow graph: typed
// vertices (Connectable), directed edges with owned queues (Connection), and
// recursive containers (Group). The graph is an arena of string-identified
// values; parent/child references are looked up by id rather than held as
// owning pointers, so cycles (group ↔ child ↔ parent, connection ↔ endpoint)
// never require special-cased garbage collection (spec.md §9, "cyclic
// ownership").
package graph

import "time"

// VertexType classifies a Connectable.
type VertexType string

const (
	TypeProcessor        VertexType = "PROCESSOR"
	TypeInputPort         VertexType = "INPUT_PORT"
	TypeOutputPort        VertexType = "OUTPUT_PORT"
	TypeFunnel             VertexType = "FUNNEL"
	TypeRemoteInputPort    VertexType = "REMOTE_INPUT_PORT"
	TypeRemoteOutputPort   VertexType = "REMOTE_OUTPUT_PORT"
	TypeRootInputPort      VertexType = "ROOT_INPUT_PORT"
	TypeRootOutputPort     VertexType = "ROOT_OUTPUT_PORT"
)

// ScheduledState is a Connectable's lifecycle state (spec.md §4.2).
type ScheduledState string

const (
	StateDisabled ScheduledState = "DISABLED"
	StateStopped  ScheduledState = "STOPPED"
	StateRunning  ScheduledState = "RUNNING"
)

// SchedulingStrategy selects which scheduling agent drives a Connectable
// (spec.md §4.3).
type SchedulingStrategy string

const (
	StrategyTimerDriven     SchedulingStrategy = "TIMER_DRIVEN"
	StrategyCronDriven      SchedulingStrategy = "CRON_DRIVEN"
	StrategyEventDriven     SchedulingStrategy = "EVENT_DRIVEN"
	StrategyPrimaryNodeOnly SchedulingStrategy = "PRIMARY_NODE_ONLY"
)

// Position is a 2D canvas coordinate carried for UI fidelity; it has no
// effect on scheduling or graph semantics.
type Position struct {
	X float64
	Y float64
}

// ScheduleMinimumNanoseconds is the default floor applied to every
// timer/cron/primary-only scheduling period (`flowcontroller.minimum.nanoseconds`).
var ScheduleMinimumNanoseconds = int64(30 * time.Millisecond)
