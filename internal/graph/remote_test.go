package graph_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"flowcore/internal/graph"
)

func TestRemoteGroup_MarkRefreshedRecordsPortsAndTimestamp(t *testing.T) {
	rg := &graph.RemoteGroup{ID: "rpg-1", TargetURI: "ws://peer:8443"}

	inputs := []graph.PortDescriptor{{ID: "in-1", Name: "intake", Connected: true}}
	outputs := []graph.PortDescriptor{{ID: "out-1", Name: "exit"}}
	at := time.Now()

	rg.MarkRefreshed(inputs, outputs, at)

	assert.Equal(t, inputs, rg.InputPorts)
	assert.Equal(t, outputs, rg.OutputPorts)
	assert.Equal(t, at, rg.LastRefresh())
}

func TestNewReportingTask_WiresTimerDrivenNode(t *testing.T) {
	rt := graph.NewReportingTask("rt-1", "example.Reporter", "my-reporter")

	assert.Equal(t, "rt-1", rt.ID)
	assert.Equal(t, "example.Reporter", rt.Type)
	assert.Equal(t, "my-reporter", rt.Name)

	node := rt.Node()
	assert.NotNil(t, node)
	assert.Equal(t, graph.StrategyTimerDriven, node.Strategy)
	assert.Equal(t, graph.StateDisabled, node.State())
}
