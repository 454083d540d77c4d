package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcore/internal/graph"
	"flowcore/internal/queue"
)

// =============================================================================
// Graph identity and mutation tests
// =============================================================================

func TestAddNode_DuplicateIDRejected(t *testing.T) {
	g := graph.New("root", "root")
	n1 := graph.NewNode("p1", graph.TypeProcessor, "first")
	require.NoError(t, g.AddNode(n1, "root"))

	n2 := graph.NewNode("p1", graph.TypeProcessor, "second")
	err := g.AddNode(n2, "root")
	assert.Error(t, err)
}

func TestAddNode_PortNameCollisionWithinGroup(t *testing.T) {
	g := graph.New("root", "root")
	in1 := graph.NewNode("in1", graph.TypeInputPort, "intake")
	require.NoError(t, g.AddNode(in1, "root"))

	in2 := graph.NewNode("in2", graph.TypeInputPort, "intake")
	err := g.AddNode(in2, "root")
	assert.Error(t, err)
}

func TestAddConnection_RequiresNonEmptyRelationships(t *testing.T) {
	g := graph.New("root", "root")
	src := graph.NewNode("src", graph.TypeProcessor, "src")
	dst := graph.NewNode("dst", graph.TypeProcessor, "dst")
	require.NoError(t, g.AddNode(src, "root"))
	require.NoError(t, g.AddNode(dst, "root"))

	conn := graph.NewConnection("c1", "src", "dst", nil, queue.Thresholds{ObjectCount: 10, ByteCount: 1024})
	err := g.AddConnection(conn, "root")
	assert.Error(t, err)
}

func TestRemoveConnection_EmptyQueueSucceeds(t *testing.T) {
	g := graph.New("root", "root")
	src := graph.NewNode("src", graph.TypeProcessor, "src")
	dst := graph.NewNode("dst", graph.TypeProcessor, "dst")
	require.NoError(t, g.AddNode(src, "root"))
	require.NoError(t, g.AddNode(dst, "root"))

	conn := graph.NewConnection("c1", "src", "dst", []string{"success"}, queue.Thresholds{ObjectCount: 10, ByteCount: 1024})
	require.NoError(t, g.AddConnection(conn, "root"))

	assert.NoError(t, g.RemoveConnection("c1"))
}

func TestRemoveNode_RejectsRunningComponent(t *testing.T) {
	g := graph.New("root", "root")
	n := graph.NewNode("p1", graph.TypeProcessor, "p")
	require.NoError(t, g.AddNode(n, "root"))
	require.NoError(t, n.Enable())
	require.NoError(t, n.Start())

	err := g.RemoveNode("p1")
	assert.Error(t, err)
}

// =============================================================================
// Scheduled-state machine tests
// =============================================================================

func TestNodeStateMachine_HappyPath(t *testing.T) {
	n := graph.NewNode("p1", graph.TypeProcessor, "p")
	assert.Equal(t, graph.StateDisabled, n.State())

	require.NoError(t, n.Enable())
	assert.Equal(t, graph.StateStopped, n.State())

	require.NoError(t, n.Start())
	assert.Equal(t, graph.StateRunning, n.State())

	require.NoError(t, n.Stop())
	assert.Equal(t, graph.StateStopped, n.State())

	require.NoError(t, n.Disable())
	assert.Equal(t, graph.StateDisabled, n.State())
}

func TestNodeStart_RejectsInvalidComponent(t *testing.T) {
	n := graph.NewNode("p1", graph.TypeProcessor, "p")
	n.Validate = func() bool { return false }
	require.NoError(t, n.Enable())

	err := n.Start()
	assert.Error(t, err)
	assert.Equal(t, graph.StateStopped, n.State())
}

func TestTryAcquireTrigger_RespectsMaxConcurrentTasks(t *testing.T) {
	n := graph.NewNode("p1", graph.TypeProcessor, "p")
	n.SetMaxConcurrentTasks(2)

	assert.True(t, n.TryAcquireTrigger())
	assert.True(t, n.TryAcquireTrigger())
	assert.False(t, n.TryAcquireTrigger())

	n.ReleaseTrigger()
	assert.True(t, n.TryAcquireTrigger())
}
