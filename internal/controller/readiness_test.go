package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcore/internal/flowfile"
	"flowcore/internal/graph"
	"flowcore/internal/queue"
)

// TestWireConnectionReadinessLocked_OffersEventDrivenDestinationOnEnqueue
// exercises spec.md §4.4: a connection's queue transitioning from empty to
// non-empty must offer its EVENT_DRIVEN destination to the event-driven
// work queue.
func TestWireConnectionReadinessLocked_OffersEventDrivenDestinationOnEnqueue(t *testing.T) {
	c := New("root", "root", nil, nil)

	src := graph.NewNode("src", graph.TypeFunnel, "src")
	require.NoError(t, c.graph.AddNode(src, "root"))
	dest := graph.NewNode("dest", graph.TypeProcessor, "dest")
	dest.Strategy = graph.StrategyEventDriven
	require.NoError(t, c.graph.AddNode(dest, "root"))

	conn := graph.NewConnection("c1", "src", "dest", []string{"success"}, queue.Thresholds{})
	require.NoError(t, c.graph.AddConnection(conn, "root"))
	c.wireConnectionReadinessLocked(conn)

	assert.Equal(t, 0, c.eventQueue.Len())
	conn.Queue.Enqueue(&flowfile.Record{UUID: "ff-1"})
	assert.Equal(t, 1, c.eventQueue.Len(), "the empty-to-non-empty transition must offer dest")

	conn.Queue.Enqueue(&flowfile.Record{UUID: "ff-2"})
	assert.Equal(t, 1, c.eventQueue.Len(), "Offer is idempotent; a second enqueue while non-empty changes nothing")
}

// TestWireConnectionReadinessLocked_IgnoresNonEventDrivenDestination confirms
// the readiness hook only offers EVENT_DRIVEN-strategy destinations; a
// timer-driven node is never fed into the event-driven work queue.
func TestWireConnectionReadinessLocked_IgnoresNonEventDrivenDestination(t *testing.T) {
	c := New("root", "root", nil, nil)

	src := graph.NewNode("src", graph.TypeFunnel, "src")
	require.NoError(t, c.graph.AddNode(src, "root"))
	dest := graph.NewNode("dest", graph.TypeProcessor, "dest")
	dest.Strategy = graph.StrategyTimerDriven
	require.NoError(t, c.graph.AddNode(dest, "root"))

	conn := graph.NewConnection("c1", "src", "dest", []string{"success"}, queue.Thresholds{})
	require.NoError(t, c.graph.AddConnection(conn, "root"))
	c.wireConnectionReadinessLocked(conn)

	conn.Queue.Enqueue(&flowfile.Record{UUID: "ff-1"})
	assert.Equal(t, 0, c.eventQueue.Len())
}
