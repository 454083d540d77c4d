package system

import (
	"context"
	"fmt"
	"sync"
)

// Manager registers lifecycle-managed services and starts/stops them
// deterministically: Start runs registrations in the order they were
// Register'd, Stop runs them in reverse.
type Manager struct {
	mu       sync.Mutex
	services []Service
	started  bool
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a service. It is an error to register after Start.
func (m *Manager) Register(service Service) error {
	if service == nil {
		return fmt.Errorf("system: nil service")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("system: cannot register %s after start", service.Name())
	}
	m.services = append(m.services, service)
	return nil
}

// Start starts every registered service in registration order. If any
// service fails to start, Start stops the services that already started (in
// reverse) and returns the original error.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	services := append([]Service(nil), m.services...)
	m.started = true
	m.mu.Unlock()

	for i, svc := range services {
		if err := svc.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = services[j].Stop(ctx)
			}
			m.mu.Lock()
			m.started = false
			m.mu.Unlock()
			return fmt.Errorf("start %s: %w", svc.Name(), err)
		}
	}
	return nil
}

// Stop stops every registered service in reverse registration order,
// collecting (but not short-circuiting on) individual failures.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	services := append([]Service(nil), m.services...)
	m.started = false
	m.mu.Unlock()

	var firstErr error
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop %s: %w", services[i].Name(), err)
		}
	}
	return firstErr
}

// Descriptors returns descriptors for every registered service that
// implements DescriptorProvider.
func (m *Manager) Descriptors() []DescriptorProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []DescriptorProvider
	for _, svc := range m.services {
		if dp, ok := svc.(DescriptorProvider); ok {
			out = append(out, dp)
		}
	}
	return out
}
