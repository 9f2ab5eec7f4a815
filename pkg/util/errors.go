// Package util provides utility functions and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for precondition failures
var (
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrPreconditionFailed = errors.New("precondition not met")
	ErrValidationFailed   = errors.New("validation failed")
	ErrInUse              = errors.New("resource in use")
	ErrDependencyMissing  = errors.New("required dependency missing")

	// ErrVlanExhausted is the sentinel behind VlanException: the tag space
	// cannot accommodate every overlapping slice.
	ErrVlanExhausted = errors.New("vlan tag space exhausted")

	// ErrPhysicalLowering is the sentinel behind lowering failures that
	// occur outside netcore's own PhysicalException (e.g. a slice-level
	// map inconsistency discovered during compilation).
	ErrPhysicalLowering = errors.New("virtual-to-physical lowering failed")

	// ErrSolverIndeterminate is the sentinel behind IndeterminateError:
	// the SMT solver returned unknown rather than sat/unsat.
	ErrSolverIndeterminate = errors.New("solver returned indeterminate result")
)

// PreconditionError represents a failed precondition check with context
type PreconditionError struct {
	Operation    string
	Resource     string
	Precondition string
	Details      string
}

func (e *PreconditionError) Error() string {
	msg := fmt.Sprintf("precondition failed for %s on %s: %s", e.Operation, e.Resource, e.Precondition)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func (e *PreconditionError) Unwrap() error {
	return ErrPreconditionFailed
}

// NewPreconditionError creates a new precondition error
func NewPreconditionError(operation, resource, precondition, details string) *PreconditionError {
	return &PreconditionError{
		Operation:    operation,
		Resource:     resource,
		Precondition: precondition,
		Details:      details,
	}
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddError adds an error message unconditionally
func (v *ValidationBuilder) AddError(message string) *ValidationBuilder {
	v.errors = append(v.errors, message)
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}

// DependencyError represents a missing dependency
type DependencyError struct {
	Resource      string
	DependsOn     string
	DependsOnType string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s requires %s '%s' to exist", e.Resource, e.DependsOnType, e.DependsOn)
}

func (e *DependencyError) Unwrap() error {
	return ErrDependencyMissing
}

// NewDependencyError creates a dependency error
func NewDependencyError(resource, dependsOnType, dependsOn string) *DependencyError {
	return &DependencyError{
		Resource:      resource,
		DependsOn:     dependsOn,
		DependsOnType: dependsOnType,
	}
}

// InUseError represents a resource that cannot be modified because it's in use
type InUseError struct {
	Resource string
	UsedBy   []string
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s is in use by: %s", e.Resource, strings.Join(e.UsedBy, ", "))
}

func (e *InUseError) Unwrap() error {
	return ErrInUse
}

// NewInUseError creates an in-use error
func NewInUseError(resource string, usedBy ...string) *InUseError {
	return &InUseError{
		Resource: resource,
		UsedBy:   usedBy,
	}
}

// VlanException represents a VLAN assignment that cannot fit in the
// available tag space (spec.md §4.2, §7 "Assignment failure").
type VlanException struct {
	Slices   int // number of slices/items that needed distinct tags
	TagSpace int // size of the available tag space
	Detail   string
}

func (e *VlanException) Error() string {
	msg := fmt.Sprintf("vlan assignment infeasible: %d items, tag space %d", e.Slices, e.TagSpace)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *VlanException) Unwrap() error {
	return ErrVlanExhausted
}

// NewVlanException creates a VlanException.
func NewVlanException(slices, tagSpace int, detail string) *VlanException {
	return &VlanException{Slices: slices, TagSpace: tagSpace, Detail: detail}
}

// IndeterminateError represents a solver query that returned "unknown"
// rather than sat/unsat (spec.md §7 "Solver indeterminate"). Callers must
// never treat this as satisfied or refuted.
type IndeterminateError struct {
	Query   string
	Elapsed string
}

func (e *IndeterminateError) Error() string {
	return fmt.Sprintf("solver query %q returned indeterminate after %s", e.Query, e.Elapsed)
}

func (e *IndeterminateError) Unwrap() error {
	return ErrSolverIndeterminate
}

// NewIndeterminateError creates an IndeterminateError.
func NewIndeterminateError(query, elapsed string) *IndeterminateError {
	return &IndeterminateError{Query: query, Elapsed: elapsed}
}
