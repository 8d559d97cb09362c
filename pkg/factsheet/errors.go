package factsheet

import (
	"errors"
	"fmt"
)

// ErrMapping marks a raw record that cannot be normalized.
var ErrMapping = errors.New("invalid fact sheet record")

// MappingError reports which record and field failed to map.
type MappingError struct {
	Kind     Kind   // entity kind being mapped
	RecordID string // fact sheet id, empty if the record itself has none
	Relation string // relation list, e.g. "relToChild"
	Field    string
	Cause    error
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	msg := fmt.Sprintf("map %s", e.Kind)
	if e.RecordID != "" {
		msg += " " + e.RecordID
	}
	if e.Relation != "" {
		msg += " (" + e.Relation + ")"
	}
	if e.Field != "" {
		msg += " field " + e.Field
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *MappingError) Unwrap() error {
	return e.Cause
}

// Is makes every MappingError match ErrMapping.
func (e *MappingError) Is(target error) bool {
	return target == ErrMapping
}
