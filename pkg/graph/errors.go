package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine stages. All of them are fatal for a pass.
var (
	ErrDanglingEdge             = errors.New("edge references unknown node")
	ErrMissingDependency        = errors.New("dependency not found")
	ErrAggregationInconsistency = errors.New("dependency phase unresolved")
	ErrLookup                   = errors.New("reference not resolved")
)

// EngineError provides structured error information for engine stages.
type EngineError struct {
	Op     string // Stage that failed (e.g., "filter", "aggregate", "rollup")
	Entity string // "node" or "edge"
	ID     string // Entity ID
	Ref    string // Referenced ID that could not be resolved
	Cause  error  // Underlying error
	Detail string // Additional context
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("%s %s %s", e.Op, e.Entity, e.ID)
	if e.Ref != "" {
		msg += fmt.Sprintf(" -> %s", e.Ref)
	}
	if e.Detail != "" {
		msg += fmt.Sprintf(" (%s)", e.Detail)
	}
	return fmt.Sprintf("%s: %v", msg, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building EngineErrors.
type ErrorBuilder struct {
	err EngineError
}

// NewError creates a new error builder for the given stage.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: EngineError{Op: op}}
}

// Node sets the entity to "node" with the given ID.
func (b *ErrorBuilder) Node(id string) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.ID = id
	return b
}

// Edge sets the entity to "edge" with the given ID.
func (b *ErrorBuilder) Edge(id string) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.ID = id
	return b
}

// Ref sets the referenced ID.
func (b *ErrorBuilder) Ref(id string) *ErrorBuilder {
	b.err.Ref = id
	return b
}

// Detail sets additional context information.
func (b *ErrorBuilder) Detail(format string, args ...any) *ErrorBuilder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// MissingDependencyError reports a dependency id absent from the node index.
func MissingDependencyError(componentID, dependencyID string) error {
	return NewError("aggregate").Node(componentID).Ref(dependencyID).Cause(ErrMissingDependency).Err()
}

// LookupError reports an unresolved roll-up reference.
func LookupError(applicationID, refID, detail string) error {
	return NewError("rollup").Node(applicationID).Ref(refID).Detail("%s", detail).Cause(ErrLookup).Err()
}

// DanglingEdgeError reports an edge endpoint that is not a node.
func DanglingEdgeError(op, edgeID, nodeID string) error {
	return NewError(op).Edge(edgeID).Ref(nodeID).Cause(ErrDanglingEdge).Err()
}
