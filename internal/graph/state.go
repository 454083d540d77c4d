package graph

import "flowcore/internal/ferrors"

// Enable transitions Disabled→Stopped.
func (n *Node) Enable() error {
	if n.State() != StateDisabled {
		return ferrors.IllegalState(n.ID, string(n.State()), string(StateStopped))
	}
	n.setState(StateStopped)
	return nil
}

// Disable transitions Stopped→Disabled. Rejected if Running.
func (n *Node) Disable() error {
	switch n.State() {
	case StateStopped:
		n.setState(StateDisabled)
		return nil
	case StateRunning:
		return ferrors.IllegalState(n.ID, string(StateRunning), string(StateDisabled))
	default:
		return ferrors.IllegalState(n.ID, string(n.State()), string(StateDisabled))
	}
}

// Start transitions Stopped→Running. Rejected if the node is not Stopped, or
// if its validity predicate is false (spec.md §8 invariant).
func (n *Node) Start() error {
	if n.State() != StateStopped {
		return ferrors.IllegalState(n.ID, string(n.State()), string(StateRunning))
	}
	if !n.IsValid() {
		return ferrors.New(ferrors.ErrCodeIllegalState, "cannot start an invalid component").
			WithDetails("component_id", n.ID)
	}
	n.setState(StateRunning)
	return nil
}

// Stop transitions Running→Stopped.
func (n *Node) Stop() error {
	if n.State() != StateRunning {
		return ferrors.IllegalState(n.ID, string(n.State()), string(StateStopped))
	}
	n.setState(StateStopped)
	return nil
}

// VerifyCanStart reports whether Start would currently succeed, without
// mutating state.
func (n *Node) VerifyCanStart() error {
	if n.State() != StateStopped {
		return ferrors.IllegalState(n.ID, string(n.State()), string(StateRunning))
	}
	if !n.IsValid() {
		return ferrors.New(ferrors.ErrCodeIllegalState, "component is not valid").
			WithDetails("component_id", n.ID)
	}
	return nil
}

// VerifyCanStop reports whether Stop would currently succeed.
func (n *Node) VerifyCanStop() error {
	if n.State() != StateRunning {
		return ferrors.IllegalState(n.ID, string(n.State()), string(StateStopped))
	}
	return nil
}

// VerifyCanDelete reports whether the node may be removed: it must not be
// Running (spec.md §3, "Removal of a running component requires first
// transitioning it to Stopped").
func (n *Node) VerifyCanDelete() error {
	if n.State() == StateRunning {
		return ferrors.New(ferrors.ErrCodeIllegalState, "cannot delete a running component").
			WithDetails("component_id", n.ID)
	}
	return nil
}
