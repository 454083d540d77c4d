package heartbeat

import (
	"sync/atomic"
	"time"

	"flowcore/internal/status"
)

// Message is the generator's payload: system start-time, active-thread
// count, queued totals, group status, system diagnostics, and site-to-site
// listening info (spec.md §4.6 step 1).
type Message struct {
	SystemStartTime   time.Time
	ActiveThreadCount int
	QueuedObjects     int64
	QueuedBytes       int64
	GroupStatus       *status.ProcessGroupStatus
	Diagnostics       SystemDiagnostics
	IsPrimary         bool
	IsConnected       bool
	SiteToSiteSecure  bool
	SiteToSitePort    int
	GeneratedAt       time.Time
}

// SystemDiagnostics is the subset of host metrics folded into each
// heartbeat, gathered via github.com/shirou/gopsutil/v3 (spec.md §3.1
// domain stack wiring).
type SystemDiagnostics struct {
	CPUPercent   float64
	MemoryUsed   uint64
	MemoryTotal  uint64
	HostUptime   uint64
}

// messageSlot is the single-slot overwrite cell the generator stores into
// unconditionally and the sender swaps-and-takes from (spec.md §9:
// "Snapshot-overwrite heartbeat... swap-and-take by sender, store-
// unconditional by generator. Do not use a queue").
type messageSlot struct {
	cell atomic.Pointer[Message]
}

// store unconditionally overwrites any unsent previous value.
func (s *messageSlot) store(msg *Message) { s.cell.Store(msg) }

// take atomically removes and returns the current value, or nil if empty.
func (s *messageSlot) take() *Message { return s.cell.Swap(nil) }
