package eventqueue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcore/internal/graph"
	"flowcore/internal/scheduler/eventqueue"
)

// =============================================================================
// Offer/Poll/dedup tests
// =============================================================================

func TestQueue_OfferIsIdempotent(t *testing.T) {
	q := eventqueue.New()
	n := graph.NewNode("p1", graph.TypeProcessor, "p1")
	n.Strategy = graph.StrategyEventDriven

	q.Offer(n)
	q.Offer(n)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_PollReturnsOfferedNodeFIFO(t *testing.T) {
	q := eventqueue.New()
	a := graph.NewNode("a", graph.TypeProcessor, "a")
	b := graph.NewNode("b", graph.TypeProcessor, "b")
	q.Offer(a)
	q.Offer(b)

	first, ok := q.Poll()
	require.True(t, ok)
	assert.Equal(t, "a", first.ID)

	second, ok := q.Poll()
	require.True(t, ok)
	assert.Equal(t, "b", second.ID)
}

func TestQueue_PollBlocksUntilOffer(t *testing.T) {
	q := eventqueue.New()
	n := graph.NewNode("p1", graph.TypeProcessor, "p1")

	done := make(chan *graph.Node, 1)
	go func() {
		node, ok := q.Poll()
		if ok {
			done <- node
		}
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("Poll returned before any Offer")
	default:
	}

	q.Offer(n)
	select {
	case got := <-done:
		assert.Equal(t, "p1", got.ID)
	case <-time.After(time.Second):
		t.Fatal("Poll did not unblock after Offer")
	}
}

func TestQueue_CloseUnblocksPoll(t *testing.T) {
	q := eventqueue.New()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Poll()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Poll did not unblock after Close")
	}
}

func TestQueue_DropsPrimaryNodeOnlyWhenClusteredNonPrimary(t *testing.T) {
	q := eventqueue.New()
	q.SetClustered(true)
	q.SetPrimary(false)

	n := graph.NewNode("p1", graph.TypeProcessor, "p1")
	n.Strategy = graph.StrategyPrimaryNodeOnly
	q.Offer(n)

	assert.Equal(t, 0, q.Len())
}

func TestQueue_Remove(t *testing.T) {
	q := eventqueue.New()
	n := graph.NewNode("p1", graph.TypeProcessor, "p1")
	q.Offer(n)
	require.Equal(t, 1, q.Len())

	q.Remove(n)
	assert.Equal(t, 0, q.Len())
}
