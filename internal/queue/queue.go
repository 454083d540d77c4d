// Package queue implements a Connection's owned flow-file queue: ordered
// delivery, back-pressure thresholds, and expiration (spec.md §3, §4).
package queue

import (
	"sort"
	"sync"
	"time"

	"flowcore/internal/flowfile"
)

// Prioritizer defines a total order over flow-file records within a single
// queue. Compare returns <0 if a sorts before b, 0 if equal priority (ties
// are then broken by insertion order), >0 otherwise.
type Prioritizer interface {
	Compare(a, b *flowfile.Record) int
}

// Thresholds controls back-pressure (spec.md §3 invariant:
// size.objectCount ≥ 0 ∧ size.byteCount ≥ 0; "full" once either threshold is
// reached).
type Thresholds struct {
	ObjectCount int64
	ByteCount   int64
}

// Size reports a queue's current occupancy.
type Size struct {
	ObjectCount int64
	ByteCount   int64
}

// Queue is a Connection's owned, ordered sequence of flow-file records.
type Queue struct {
	mu sync.Mutex

	records      []*flowfile.Record
	prioritizers []Prioritizer
	thresholds   Thresholds
	expiration   time.Duration
	nextSeq      int64

	objectCount int64
	byteCount   int64

	onNonEmpty func()
}

// New creates an empty queue with the given back-pressure thresholds.
func New(thresholds Thresholds) *Queue {
	return &Queue{thresholds: thresholds}
}

// SetPrioritizers replaces the ordered list of prioritiser plug-ins.
func (q *Queue) SetPrioritizers(p []Prioritizer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.prioritizers = p
	q.resort()
}

// SetThresholds updates the back-pressure thresholds.
func (q *Queue) SetThresholds(t Thresholds) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.thresholds = t
}

// SetExpiration updates the flow-file expiration period. Zero disables expiration.
func (q *Queue) SetExpiration(d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.expiration = d
}

// SetOnNonEmpty installs fn to be called, outside the queue's own lock,
// whenever Enqueue transitions the queue from empty to non-empty. Used to
// notify the event-driven scheduling agent that a destination component has
// become ready (spec.md §4.4). A nil fn disables the callback.
func (q *Queue) SetOnNonEmpty(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onNonEmpty = fn
}

// Enqueue appends rec, assigning it the next insertion sequence for
// tie-breaking, then re-sorts by the active prioritiser chain.
func (q *Queue) Enqueue(rec *flowfile.Record) {
	q.mu.Lock()
	wasEmpty := q.objectCount == 0
	q.nextSeq++
	rec.SetSequence(q.nextSeq)
	q.records = append(q.records, rec)
	q.objectCount++
	q.byteCount += rec.ContentClaimSize
	q.resort()
	notify := q.onNonEmpty
	q.mu.Unlock()

	if wasEmpty && notify != nil {
		notify()
	}
}

// Poll removes and returns the highest-priority record, or (nil, false) if
// the queue is empty.
func (q *Queue) Poll() (*flowfile.Record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.records) == 0 {
		return nil, false
	}
	rec := q.records[0]
	q.records = q.records[1:]
	q.objectCount--
	q.byteCount -= rec.ContentClaimSize
	return rec, true
}

// Peek returns the highest-priority record without removing it.
func (q *Queue) Peek() (*flowfile.Record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.records) == 0 {
		return nil, false
	}
	return q.records[0], true
}

// Size returns the current occupancy.
func (q *Queue) Size() Size {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Size{ObjectCount: q.objectCount, ByteCount: q.byteCount}
}

// IsEmpty reports whether the queue currently holds no records.
func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.objectCount == 0
}

// IsFull reports whether either back-pressure threshold has been reached.
// A zero threshold means "no limit" on that dimension.
func (q *Queue) IsFull() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.isFullLocked()
}

func (q *Queue) isFullLocked() bool {
	if q.thresholds.ObjectCount > 0 && q.objectCount >= q.thresholds.ObjectCount {
		return true
	}
	if q.thresholds.ByteCount > 0 && q.byteCount >= q.thresholds.ByteCount {
		return true
	}
	return false
}

// ExpireOlderThan removes and returns every record whose entry timestamp is
// older than the configured expiration period, measured against now. Returns
// nil if expiration is disabled (zero period) or nothing has expired.
func (q *Queue) ExpireOlderThan(now time.Time) []*flowfile.Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.expiration <= 0 || len(q.records) == 0 {
		return nil
	}
	var expired []*flowfile.Record
	kept := q.records[:0:0]
	for _, rec := range q.records {
		if now.Sub(rec.EntryTimestamp) > q.expiration {
			expired = append(expired, rec)
			q.objectCount--
			q.byteCount -= rec.ContentClaimSize
			continue
		}
		kept = append(kept, rec)
	}
	q.records = kept
	return expired
}

// resort re-applies the prioritiser chain. Called with q.mu held.
func (q *Queue) resort() {
	if len(q.prioritizers) == 0 {
		sort.SliceStable(q.records, func(i, j int) bool {
			return q.records[i].Sequence() < q.records[j].Sequence()
		})
		return
	}
	sort.SliceStable(q.records, func(i, j int) bool {
		a, b := q.records[i], q.records[j]
		for _, p := range q.prioritizers {
			c := p.Compare(a, b)
			if c != 0 {
				return c < 0
			}
		}
		return a.Sequence() < b.Sequence()
	})
}

// FIFOPrioritizer is the default prioritiser: pure insertion order.
type FIFOPrioritizer struct{}

// Compare always reports a tie, deferring to insertion-order tie-breaking.
func (FIFOPrioritizer) Compare(*flowfile.Record, *flowfile.Record) int { return 0 }

// NewestFirstPrioritizer orders by entry timestamp, most recent first.
type NewestFirstPrioritizer struct{}

func (NewestFirstPrioritizer) Compare(a, b *flowfile.Record) int {
	switch {
	case a.EntryTimestamp.After(b.EntryTimestamp):
		return -1
	case a.EntryTimestamp.Before(b.EntryTimestamp):
		return 1
	default:
		return 0
	}
}

// OldestFirstPrioritizer orders by entry timestamp, oldest first.
type OldestFirstPrioritizer struct{}

func (OldestFirstPrioritizer) Compare(a, b *flowfile.Record) int {
	switch {
	case a.EntryTimestamp.Before(b.EntryTimestamp):
		return -1
	case a.EntryTimestamp.After(b.EntryTimestamp):
		return 1
	default:
		return 0
	}
}
