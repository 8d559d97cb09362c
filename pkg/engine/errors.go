package engine

import "errors"

var (
	// ErrNoGraph is returned when a pass is requested before an inventory
	// graph has been loaded.
	ErrNoGraph = errors.New("engine: no graph loaded")

	// ErrInvalidRefDate is returned for a reference date that is not a
	// calendar date in YYYYMMDD form.
	ErrInvalidRefDate = errors.New("engine: invalid reference date")

	// ErrClosed is returned by State operations after Close.
	ErrClosed = errors.New("engine: state closed")
)
