// Package apperrors defines the error taxonomy shared by every store and
// service in storyforge. All stores return these sentinel/typed errors
// instead of panicking or relying on exceptions; the HTTP boundary maps
// them to status codes in exactly one place (pkg/api/errors.go).
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is at call sites and at the HTTP boundary.
var (
	// ErrNotFound is returned when a task, layer, message, execution, or agent
	// lookup fails.
	ErrNotFound = errors.New("not found")

	// ErrDiscovery marks an agent-registry discovery failure. Discovery errors
	// are logged and skipped by the registry; they are never raised to callers
	// of list_agents/get_agent, but are recorded here for logging.
	ErrDiscovery = errors.New("agent discovery failed")
)

// InvariantViolation is returned when a mutation would violate one of the
// TaskStackStore pointer/frontier invariants (spec.md §4.1): mutating an
// executed task or layer, a duplicate task in a layer, inserting at or
// before the frontier, etc.
type InvariantViolation struct {
	Op      string
	Reason  string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Reason)
}

// NewInvariantViolation builds an InvariantViolation error.
func NewInvariantViolation(op, reason string) error {
	return &InvariantViolation{Op: op, Reason: reason}
}

// IsInvariantViolation reports whether err is (or wraps) an InvariantViolation.
func IsInvariantViolation(err error) bool {
	var v *InvariantViolation
	return errors.As(err, &v)
}

// ValidationError wraps a field-specific input validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %q: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// AdapterError wraps a failure from an external LLM or media adapter call,
// after the adapter's own retry policy has been exhausted.
type AdapterError struct {
	Adapter string
	Cause   error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %q failed: %v", e.Adapter, e.Cause)
}

func (e *AdapterError) Unwrap() error { return e.Cause }

// NewAdapterError builds an AdapterError.
func NewAdapterError(adapter string, cause error) error {
	return &AdapterError{Adapter: adapter, Cause: cause}
}

// IsAdapterError reports whether err is (or wraps) an AdapterError.
func IsAdapterError(err error) bool {
	var v *AdapterError
	return errors.As(err, &v)
}

// StructureError wraps evaluator L1 (check_structure) failures: a list of
// deterministic, fast, free structural errors found in an agent's output.
type StructureError struct {
	Errors []string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("structural evaluation failed: %v", e.Errors)
}

// NewStructureError builds a StructureError carrying a single message.
func NewStructureError(msg string) error {
	return &StructureError{Errors: []string{msg}}
}

// CreativeRejection wraps evaluator L2 (evaluate_creative) failures: the
// LLM-judged creative dimensions fell below the pass threshold.
type CreativeRejection struct {
	Summary string
}

func (e *CreativeRejection) Error() string {
	return fmt.Sprintf("creative evaluation rejected: %s", e.Summary)
}

// AssetFailure wraps evaluator L3 (evaluate_asset) failures: materialized
// binary assets failed their success-rate threshold.
type AssetFailure struct {
	Summary string
}

func (e *AssetFailure) Error() string {
	return fmt.Sprintf("asset evaluation failed: %s", e.Summary)
}
