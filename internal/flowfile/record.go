// Package flowfile defines the unit of work that traverses connections.
package flowfile

import (
	"time"

	"flowcore/internal/content"
)

// Record is a flow-file: an attribute map plus a reference to immutable
// content, currently owned by exactly one connection's queue.
type Record struct {
	ID             int64  // monotone sequence assigned by the flow-file repository
	UUID           string // carried as the "uuid" attribute by convention
	EntryTimestamp time.Time
	LineageStart   time.Time
	LineageIDs     []string

	Attributes map[string]string

	ContentClaim       content.Claim
	ContentClaimOffset int64
	ContentClaimSize   int64

	QueueID string // the connection currently holding this record
	seq     int64  // insertion sequence, for prioritiser tie-breaking
}

// Clone returns a deep copy of the attribute map and lineage slice so callers
// (notably replay) can safely mutate the copy without affecting the original
// record.
func (r *Record) Clone() *Record {
	attrs := make(map[string]string, len(r.Attributes))
	for k, v := range r.Attributes {
		attrs[k] = v
	}
	lineage := append([]string(nil), r.LineageIDs...)
	clone := *r
	clone.Attributes = attrs
	clone.LineageIDs = lineage
	return &clone
}

// SetSequence and Sequence are used exclusively by the owning Queue to track
// insertion order for prioritiser tie-breaking (spec.md §3).
func (r *Record) SetSequence(seq int64) { r.seq = seq }
func (r *Record) Sequence() int64       { return r.seq }
