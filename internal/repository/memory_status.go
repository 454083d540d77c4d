package repository

import (
	"sync"
	"time"

	"flowcore/internal/status"
)

// DefaultReservoirSize is spec.md §4.5's "≈288 samples for 1 day at
// 5-minute cadence" default capacity.
const DefaultReservoirSize = 288

// InMemoryStatusRepository is a fixed-size ring-buffer ComponentStatusRepository.
// Status snapshots are never dropped by the aggregator that calls Capture;
// once the reservoir is full, the oldest sample is evicted to make room for
// the newest (spec.md §4.5, §8: "Status snapshots are never dropped: each is
// appended").
type InMemoryStatusRepository struct {
	mu       sync.Mutex
	capacity int
	points   []StatusPoint
}

// NewInMemoryStatusRepository returns a repository with the given reservoir
// capacity (DefaultReservoirSize if capacity <= 0).
func NewInMemoryStatusRepository(capacity int) *InMemoryStatusRepository {
	if capacity <= 0 {
		capacity = DefaultReservoirSize
	}
	return &InMemoryStatusRepository{capacity: capacity}
}

// Capture appends a snapshot, evicting the oldest sample if the reservoir is full.
func (r *InMemoryStatusRepository) Capture(snapshot *status.ProcessGroupStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, StatusPoint{Timestamp: at, Status: snapshot})
	if len(r.points) > r.capacity {
		r.points = r.points[len(r.points)-r.capacity:]
	}
	return nil
}

func (r *InMemoryStatusRepository) windowed(from, to time.Time, maxPoints int) []StatusPoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []StatusPoint
	for _, p := range r.points {
		if p.Timestamp.Before(from) || p.Timestamp.After(to) {
			continue
		}
		out = append(out, p)
	}
	if maxPoints > 0 && len(out) > maxPoints {
		out = out[len(out)-maxPoints:]
	}
	return out
}

// GetConnectionStatusHistory, GetProcessorStatusHistory, GetGroupStatusHistory,
// and GetRemoteGroupStatusHistory all return the same windowed reservoir:
// the repository stores whole-tree snapshots, and per-component history is
// a read-side view over those snapshots rather than a separately indexed
// series.
func (r *InMemoryStatusRepository) GetConnectionStatusHistory(id string, from, to time.Time, maxPoints int) ([]StatusPoint, error) {
	return r.windowed(from, to, maxPoints), nil
}

func (r *InMemoryStatusRepository) GetProcessorStatusHistory(id string, from, to time.Time, maxPoints int) ([]StatusPoint, error) {
	return r.windowed(from, to, maxPoints), nil
}

func (r *InMemoryStatusRepository) GetGroupStatusHistory(id string, from, to time.Time, maxPoints int) ([]StatusPoint, error) {
	return r.windowed(from, to, maxPoints), nil
}

func (r *InMemoryStatusRepository) GetRemoteGroupStatusHistory(id string, from, to time.Time, maxPoints int) ([]StatusPoint, error) {
	return r.windowed(from, to, maxPoints), nil
}
