// Package ferrors provides the controller's unified error taxonomy.
package ferrors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a ServiceError into one of the kinds spec.md §7
// distinguishes for propagation purposes.
type ErrorCode string

const (
	// Invalid-argument: malformed identifiers, null where forbidden, illegal
	// transitions. Reported to the caller, no state change.
	ErrCodeInvalidArgument ErrorCode = "ARG_1001"

	// Illegal-state: transition attempted from the wrong scheduled-state,
	// unknown component, duplicate identifier. Reported, no state change.
	ErrCodeIllegalState     ErrorCode = "STATE_2001"
	ErrCodeUnknownComponent ErrorCode = "STATE_2002"
	ErrCodeDuplicateID      ErrorCode = "STATE_2003"

	// Instantiation failure: plug-in class not found, or constructor raised.
	ErrCodeInstantiation ErrorCode = "INST_3001"

	// Repository failure: I/O error from a delegated repository.
	ErrCodeRepository ErrorCode = "REPO_4001"

	// Communication failure (cluster transport).
	ErrCodeCommunication ErrorCode = "COMM_5001"

	// Fatal: failure of initializeFlow aborts startup.
	ErrCodeFatal ErrorCode = "FATAL_6001"
)

// ServiceError is a structured error carrying a classification code plus
// optional details used by callers (controller façade, scheduling agents) to
// decide whether to penalise a component or abort startup.
type ServiceError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a key/value pair and returns the receiver for chaining.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a ServiceError with no wrapped cause.
func New(code ErrorCode, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message}
}

// Wrap creates a ServiceError around an existing error.
func Wrap(code ErrorCode, message string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, Err: err}
}

// InvalidArgument reports a malformed or forbidden-null argument.
func InvalidArgument(field, reason string) *ServiceError {
	return New(ErrCodeInvalidArgument, "invalid argument").
		WithDetails("field", field).
		WithDetails("reason", reason)
}

// IllegalState reports an attempted transition from the wrong scheduled-state.
func IllegalState(componentID, from, to string) *ServiceError {
	return New(ErrCodeIllegalState, fmt.Sprintf("cannot transition %s to %s", from, to)).
		WithDetails("component_id", componentID).
		WithDetails("from", from).
		WithDetails("to", to)
}

// UnknownComponent reports a reference to a component id not present in the graph.
func UnknownComponent(componentID string) *ServiceError {
	return New(ErrCodeUnknownComponent, "unknown component").
		WithDetails("component_id", componentID)
}

// DuplicateID reports an identifier collision when a component is added to
// the graph or a snippet is instantiated.
func DuplicateID(id string) *ServiceError {
	return New(ErrCodeDuplicateID, "duplicate identifier").
		WithDetails("id", id)
}

// Instantiation reports a plug-in construction failure.
func Instantiation(className string, err error) *ServiceError {
	return Wrap(ErrCodeInstantiation, "failed to instantiate plug-in", err).
		WithDetails("class", className)
}

// Repository reports an I/O failure from a delegated repository.
func Repository(operation string, err error) *ServiceError {
	return Wrap(ErrCodeRepository, "repository operation failed", err).
		WithDetails("operation", operation)
}

// Communication reports a cluster transport failure.
func Communication(target string, err error) *ServiceError {
	return Wrap(ErrCodeCommunication, "communication failure", err).
		WithDetails("target", target)
}

// Fatal reports a startup-aborting failure (e.g. flow-file load failure).
func Fatal(stage string, err error) *ServiceError {
	return Wrap(ErrCodeFatal, "fatal startup failure", err).
		WithDetails("stage", stage)
}

// IsServiceError reports whether err (or a cause in its chain) is a ServiceError.
func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}

// As extracts a ServiceError from an error chain, or nil.
func As(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}

// Code returns the classification code of err, or "" if not a ServiceError.
func Code(err error) ErrorCode {
	if se := As(err); se != nil {
		return se.Code
	}
	return ""
}

// IsUnknownServiceAddress reports whether err represents the cluster-manager
// failover condition spec.md §4.6/§7 calls out as expected and non-fatal: the
// node protocol sender could not resolve a destination address.
func IsUnknownServiceAddress(err error) bool {
	se := As(err)
	return se != nil && se.Code == ErrCodeCommunication && errors.Is(se.Err, ErrUnknownServiceAddress)
}

// ErrUnknownServiceAddress is the sentinel wrapped by Communication errors
// raised when the node protocol sender cannot resolve the cluster manager.
var ErrUnknownServiceAddress = errors.New("unknown service address")
