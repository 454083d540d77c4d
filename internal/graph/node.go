package graph

import (
	"sync/atomic"
	"time"
)

// ValidityFunc reports whether a Connectable's current configuration is
// valid. The scheduled-state machine consults it on every Start transition
// (spec.md §4.2, §8: "scheduledState(C) = Running ⇒ isValid(C)").
type ValidityFunc func() bool

// Node is a vertex in the graph: a processor, port, funnel, or remote port.
// Fields that change after construction are guarded either by atomics (the
// hot scheduling-path fields) or by the owning Controller's single
// reader-writer lock (everything else) — Node itself holds no lock.
type Node struct {
	ID       string
	Type     VertexType
	Name     string
	Position Position
	GroupID  string // weak back-reference, looked up by id

	Outbound []string // connection ids
	Inbound  []string // connection ids

	MaxConcurrentTasks  int32
	YieldPeriod         time.Duration
	PenalizationPeriod  time.Duration
	Strategy            SchedulingStrategy
	SchedulingPeriod    string // interpreted per Strategy: duration string or cron expression

	Validate ValidityFunc

	state atomic.Value // ScheduledState

	activeTriggers int32 // atomic, CAS-dispatched against MaxConcurrentTasks
	yieldUntil     int64 // atomic, UnixNano
	penalizedUntil int64 // atomic, UnixNano
	nextFire       int64 // atomic, UnixNano; 0 means "due now"
}

// NewNode creates a Node in the Disabled state with sane defaults.
func NewNode(id string, typ VertexType, name string) *Node {
	n := &Node{
		ID:                 id,
		Type:               typ,
		Name:               name,
		MaxConcurrentTasks: 1,
		Strategy:           StrategyTimerDriven,
		SchedulingPeriod:   "0s",
		Validate:           func() bool { return true },
	}
	n.state.Store(StateDisabled)
	return n
}

// State returns the current scheduled-state.
func (n *Node) State() ScheduledState {
	return n.state.Load().(ScheduledState)
}

func (n *Node) setState(s ScheduledState) {
	n.state.Store(s)
}

// IsValid reports whether the node's configuration currently passes its
// validity predicate.
func (n *Node) IsValid() bool {
	if n.Validate == nil {
		return true
	}
	return n.Validate()
}

// TryAcquireTrigger performs the compare-and-increment dispatch check from
// spec.md §9 ("Scheduled-state machine with dynamic concurrency"): it admits
// one more in-flight trigger iff doing so would not exceed MaxConcurrentTasks.
func (n *Node) TryAcquireTrigger() bool {
	for {
		cur := atomic.LoadInt32(&n.activeTriggers)
		max := atomic.LoadInt32(&n.MaxConcurrentTasks)
		if max < 1 {
			max = 1
		}
		if cur >= max {
			return false
		}
		if atomic.CompareAndSwapInt32(&n.activeTriggers, cur, cur+1) {
			return true
		}
	}
}

// ReleaseTrigger returns a slot acquired by TryAcquireTrigger.
func (n *Node) ReleaseTrigger() {
	atomic.AddInt32(&n.activeTriggers, -1)
}

// ActiveTriggers returns the current number of in-flight triggers.
func (n *Node) ActiveTriggers() int {
	return int(atomic.LoadInt32(&n.activeTriggers))
}

// SetMaxConcurrentTasks updates the concurrency bound. Callers must go
// through this (rather than assigning the field) since TryAcquireTrigger
// reads it with an atomic load.
func (n *Node) SetMaxConcurrentTasks(v int32) {
	atomic.StoreInt32(&n.MaxConcurrentTasks, v)
}

// Yield suppresses scheduling of this node for period, starting now.
func (n *Node) Yield(period time.Duration) {
	if period <= 0 {
		period = n.YieldPeriod
	}
	atomic.StoreInt64(&n.yieldUntil, time.Now().Add(period).UnixNano())
}

// IsYielding reports whether the node is still within a self-imposed or
// back-pressure-triggered yield window.
func (n *Node) IsYielding(now time.Time) bool {
	until := atomic.LoadInt64(&n.yieldUntil)
	return now.UnixNano() < until
}

// Penalize begins a post-failure cooldown (spec.md §4.3).
func (n *Node) Penalize() {
	period := n.PenalizationPeriod
	if period <= 0 {
		period = 30 * time.Second
	}
	atomic.StoreInt64(&n.penalizedUntil, time.Now().Add(period).UnixNano())
}

// IsPenalized reports whether the node is still within its penalisation window.
func (n *Node) IsPenalized(now time.Time) bool {
	until := atomic.LoadInt64(&n.penalizedUntil)
	return now.UnixNano() < until
}

// DueAt reports whether a timer-driven or primary-node-only node is due for
// another scan-cycle trigger at now, and if so advances its next-fire time
// by one SchedulingPeriodDuration. Calling it is itself the "claim" of this
// firing: a concurrent scan will not also see it as due until the next
// period elapses, independent of how long the dispatched trigger takes to
// finish (firing cadence is decoupled from trigger duration, spec.md §4.3).
func (n *Node) DueAt(now time.Time) bool {
	period := n.SchedulingPeriodDuration()
	for {
		next := atomic.LoadInt64(&n.nextFire)
		if now.UnixNano() < next {
			return false
		}
		newNext := now.Add(period).UnixNano()
		if atomic.CompareAndSwapInt64(&n.nextFire, next, newNext) {
			return true
		}
	}
}

// SchedulingPeriodDuration parses SchedulingPeriod as a duration (for
// timer-driven and primary-node-only strategies), floored at
// ScheduleMinimumNanoseconds. A period string that does not parse as a
// positive duration (such as a cron expression) also yields that floor.
func (n *Node) SchedulingPeriodDuration() time.Duration {
	d, err := time.ParseDuration(n.SchedulingPeriod)
	if err != nil || d <= 0 {
		return time.Duration(ScheduleMinimumNanoseconds)
	}
	if d.Nanoseconds() < ScheduleMinimumNanoseconds {
		return time.Duration(ScheduleMinimumNanoseconds)
	}
	return d
}
