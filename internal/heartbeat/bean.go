// Package heartbeat implements the clustered heartbeat subsystem (spec.md
// §4.6): a generator that periodically snapshots controller state into a
// single-slot atomic cell, a sender that drains and transmits it, and a
// bulletins task that piggybacks diagnostic events onto the same transport.
package heartbeat

import (
	"sync/atomic"

	"flowcore/internal/graph"
)

// Bean is the immutable (rootGroup ref, isPrimary, isConnected) triple
// (spec.md §3 "Heartbeat bean (snapshot)"). A new Bean is swapped in
// atomically whenever any of the three changes, so generation never blocks
// on reconfiguration.
type Bean struct {
	RootGroup   *graph.Group
	IsPrimary   bool
	IsConnected bool
}

// Cell is the single-writer/single-reader atomic reference the controller
// swaps its current Bean through.
type Cell struct {
	value atomic.Pointer[Bean]
}

// Store atomically installs bean as the current snapshot.
func (c *Cell) Store(bean *Bean) { c.value.Store(bean) }

// Load returns the current snapshot, or nil if none has been stored yet.
func (c *Cell) Load() *Bean { return c.value.Load() }
