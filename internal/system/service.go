package system

import (
	"context"

	core "flowcore/internal/core/service"
)

// Service represents a lifecycle-managed component. The controller, the
// site-to-site listener, and (through an adapter in cmd/flowcored) the
// heartbeat subsystem implement this interface so a Manager can start and
// stop them deterministically.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// DescriptorProvider optionally advertises service metadata (layer, capabilities).
type DescriptorProvider interface {
	Descriptor() core.Descriptor
}
