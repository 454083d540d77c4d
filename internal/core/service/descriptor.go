package service

// Layer describes the architectural slice a system.Service belongs to within
// the controller: the scheduling pools, the graph-mutation façade, and the
// periodic subsystems (status, heartbeat) each sit at a different layer.
type Layer string

const (
	LayerScheduling Layer = "scheduling"
	LayerController Layer = "controller"
	LayerStatus     Layer = "status"
	LayerCluster    Layer = "cluster"
)

// Descriptor advertises a service's placement and capabilities. It is optional
// and does not change runtime behavior, but allows the host process and
// diagnostics to reason about the controller's subsystems consistently.
type Descriptor struct {
	Name         string
	Domain       string
	Layer        Layer
	Capabilities []string
}

// WithCapabilities returns a copy of the descriptor with additional
// capabilities appended.
func (d Descriptor) WithCapabilities(caps ...string) Descriptor {
	if len(caps) == 0 {
		return d
	}
	combined := make([]string, 0, len(d.Capabilities)+len(caps))
	combined = append(combined, d.Capabilities...)
	combined = append(combined, caps...)
	d.Capabilities = combined
	return d
}
