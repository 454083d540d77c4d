package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcore/internal/flowfile"
	"flowcore/internal/graph"
	"flowcore/internal/queue"
	"flowcore/internal/status"
)

type fakeCounters struct {
	byID map[string]status.ConnectableCounters
}

func (f fakeCounters) Counters(id string) status.ConnectableCounters {
	return f.byID[id]
}

// =============================================================================
// Post-order aggregation tests
// =============================================================================

func TestAggregate_SumsOwnAndChildGroupTotals(t *testing.T) {
	g := graph.New("root", "root")

	child, err := g.AddGroup("child", "child", "root")
	require.NoError(t, err)
	_ = child

	rootProc := graph.NewNode("root-proc", graph.TypeProcessor, "root-proc")
	require.NoError(t, g.AddNode(rootProc, "root"))

	childProc := graph.NewNode("child-proc", graph.TypeProcessor, "child-proc")
	require.NoError(t, g.AddNode(childProc, "child"))

	src := graph.NewNode("src", graph.TypeProcessor, "src")
	dst := graph.NewNode("dst", graph.TypeProcessor, "dst")
	require.NoError(t, g.AddNode(src, "child"))
	require.NoError(t, g.AddNode(dst, "child"))
	conn := graph.NewConnection("conn-1", "src", "dst", []string{"success"}, queue.Thresholds{ObjectCount: 100, ByteCount: 1 << 20})
	require.NoError(t, g.AddConnection(conn, "child"))
	conn.Queue.Enqueue(&flowfile.Record{UUID: "ff-1", ContentClaimSize: 42})

	counters := fakeCounters{byID: map[string]status.ConnectableCounters{
		"root-proc":  {ActiveThreadCount: 1, InputCount: 10},
		"child-proc": {ActiveThreadCount: 2, OutputCount: 5},
	}}

	out := status.Aggregate(g, "root", counters)

	assert.Equal(t, "root", out.GroupID)
	assert.Equal(t, 3, out.ActiveThreadCount) // 1 (own) + 2 (child)
	assert.Equal(t, int64(10), out.InputCount)
	assert.Equal(t, int64(5), out.OutputCount)
	assert.Equal(t, int64(1), out.QueuedObjects)
	assert.Equal(t, int64(42), out.QueuedBytes)

	require.Len(t, out.Children, 1)
	childStatus := out.Children[0]
	assert.Equal(t, "child", childStatus.GroupID)
	assert.Equal(t, 2, childStatus.ActiveThreadCount)
	assert.Equal(t, int64(1), childStatus.QueuedObjects)
}

func TestAggregate_NilCounterSourceYieldsZeroActivity(t *testing.T) {
	g := graph.New("root", "root")
	proc := graph.NewNode("p1", graph.TypeProcessor, "p1")
	require.NoError(t, g.AddNode(proc, "root"))

	out := status.Aggregate(g, "root", nil)
	assert.Equal(t, 0, out.ActiveThreadCount)
}

func TestAggregate_UnknownRootReturnsEmptyStatus(t *testing.T) {
	g := graph.New("root", "root")
	out := status.Aggregate(g, "missing", nil)
	assert.Equal(t, "missing", out.GroupID)
	assert.Empty(t, out.Children)
}
