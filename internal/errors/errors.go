// Package errors defines the typed error kinds the engine reports to its
// callers. The UI layer maps kinds to dialogs; the engine never renders.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error.
type Kind string

const (
	// KindInputRejected covers missing files, wrong extensions, oversize
	// workbooks, empty sheets and undetectable header rows.
	KindInputRejected Kind = "input_rejected"
	// KindSchemaMismatch is reported when required column roles (vehicle,
	// account title, aging buckets) cannot be identified.
	KindSchemaMismatch Kind = "schema_mismatch"
	// KindInvalidInput is reported when assignment validation rejects a field.
	KindInvalidInput Kind = "invalid_input"
	// KindNotFound is reported by assignment operations on unknown vehicles.
	KindNotFound Kind = "not_found"
	// KindPersistence covers failed bundle writes.
	KindPersistence Kind = "persistence"
	// KindIntegrity marks non-fatal checksum mismatches on load.
	KindIntegrity Kind = "integrity"
	// KindCancelled marks a cooperatively cancelled analysis run.
	KindCancelled Kind = "cancelled"
)

// EngineError is the error type crossing component boundaries.
type EngineError struct {
	Kind    Kind                   `json:"kind"`
	Op      string                 `json:"op,omitempty"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e == nil {
		return "unknown engine error"
	}
	if e.Op != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewInputRejected creates an input rejection error.
func NewInputRejected(op, message string, cause error) *EngineError {
	return &EngineError{Kind: KindInputRejected, Op: op, Message: message, Cause: cause}
}

// NewSchemaMismatch creates a schema mismatch error for a missing column role.
func NewSchemaMismatch(op, role, message string) *EngineError {
	return &EngineError{
		Kind:    KindSchemaMismatch,
		Op:      op,
		Message: message,
		Context: map[string]interface{}{"role": role},
	}
}

// NewInvalidInput creates a field validation error.
func NewInvalidInput(field, message string) *EngineError {
	return &EngineError{
		Kind:    KindInvalidInput,
		Message: message,
		Context: map[string]interface{}{"field": field},
	}
}

// NewNotFound creates a not-found error for a vehicle.
func NewNotFound(vehicle string) *EngineError {
	return &EngineError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("no assignment for vehicle %s", vehicle),
		Context: map[string]interface{}{"vehicle": vehicle},
	}
}

// NewPersistence creates a persistence error.
func NewPersistence(op, message string, cause error) *EngineError {
	return &EngineError{Kind: KindPersistence, Op: op, Message: message, Cause: cause}
}

// NewIntegrity creates a checksum integrity error. Callers treat it as a
// warning unless strict checksum verification is configured.
func NewIntegrity(bundle, message string) *EngineError {
	return &EngineError{
		Kind:    KindIntegrity,
		Message: message,
		Context: map[string]interface{}{"bundle": bundle},
	}
}

// NewCancelled creates a cancellation error for an analysis run.
func NewCancelled(op string) *EngineError {
	return &EngineError{Kind: KindCancelled, Op: op, Message: "analysis cancelled"}
}

// KindOf extracts the Kind from err, or "" when err is not an EngineError.
func KindOf(err error) Kind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
