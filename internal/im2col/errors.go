package im2col

import (
	"errors"
	"fmt"
)

// ErrInvalidShape reports incompatible input/filter geometry.
// All shape violations are detected before any gather or multiply runs.
var ErrInvalidShape = errors.New("invalid shape")

// ShapeError provides detailed information about a shape validation failure.
type ShapeError struct {
	Op      string // Operation that rejected the shapes (e.g. "convolve")
	Axis    string // Axis that failed validation ("height", "width", "channel", "rank")
	Details string // Human-readable description of the violation
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Axis != "" {
		return fmt.Sprintf("%s: invalid shape on %s axis: %s", e.Op, e.Axis, e.Details)
	}
	return fmt.Sprintf("%s: invalid shape: %s", e.Op, e.Details)
}

// Unwrap makes errors.Is(err, ErrInvalidShape) hold for every ShapeError.
func (e *ShapeError) Unwrap() error {
	return ErrInvalidShape
}

func shapeErrorf(op, axis, format string, args ...any) error {
	return &ShapeError{Op: op, Axis: axis, Details: fmt.Sprintf(format, args...)}
}
