// Package eventqueue implements the event-driven work queue (spec.md §4.4):
// a bounded, deduplicating, approximately-FIFO set of components that became
// ready when an inbound queue transitioned from empty to non-empty.
package eventqueue

import (
	"sync"

	"flowcore/internal/graph"
)

// Queue is safe for concurrent use by the event-driven agent's producers
// (readiness notifications) and consumers (pool workers polling for work).
type Queue struct {
	mu        sync.Mutex
	notEmpty  *sync.Cond
	order     []string
	present   map[string]struct{}
	nodes     map[string]*graph.Node
	primary   bool
	clustered bool
	closed    bool
}

// New returns an empty Queue.
func New() *Queue {
	q := &Queue{
		present: make(map[string]struct{}),
		nodes:   make(map[string]*graph.Node),
	}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Offer admits node if it is not already present (idempotent). A
// primary-node-only component is silently dropped when the queue has been
// told it is running on a non-primary, clustered node (spec.md §4.4:
// "Sensitivity to primary/clustered").
func (q *Queue) Offer(node *graph.Node) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	if q.clustered && !q.primary && node.Strategy == graph.StrategyPrimaryNodeOnly {
		return
	}
	if _, ok := q.present[node.ID]; ok {
		return
	}
	q.present[node.ID] = struct{}{}
	q.nodes[node.ID] = node
	q.order = append(q.order, node.ID)
	q.notEmpty.Signal()
}

// Poll blocks until a component is ready or Close is called, then returns
// it. The returned bool is false only once the queue has been closed and
// drained.
func (q *Queue) Poll() (*graph.Node, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.order) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.order) == 0 {
		return nil, false
	}
	id := q.order[0]
	q.order = q.order[1:]
	delete(q.present, id)
	node := q.nodes[id]
	delete(q.nodes, id)
	return node, true
}

// Remove drops node from the queue, e.g. during stop.
func (q *Queue) Remove(node *graph.Node) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.present[node.ID]; !ok {
		return
	}
	delete(q.present, node.ID)
	delete(q.nodes, node.ID)
	for i, id := range q.order {
		if id == node.ID {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// SetPrimary informs the queue whether this node is the cluster's primary.
func (q *Queue) SetPrimary(primary bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.primary = primary
}

// SetClustered informs the queue whether it is operating as a cluster member.
func (q *Queue) SetClustered(clustered bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.clustered = clustered
}

// Close releases any blocked Poll callers, which will return (nil, false)
// once the queue is drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.notEmpty.Broadcast()
}

// Len reports the current number of distinct ready components.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}
