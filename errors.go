package coffea

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName is matched by DuplicateNameError.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrUnknownVariation is matched by UnknownVariationError.
	ErrUnknownVariation = errors.New("unknown variation")

	// ErrUnknownSelection is matched by UnknownSelectionError.
	ErrUnknownSelection = errors.New("unknown selection")

	// ErrLengthMismatch is matched by LengthMismatchError.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrIncompatibleTypes is matched by IncompatibleTypesError.
	ErrIncompatibleTypes = errors.New("incompatible types")

	// ErrInvalidArgument is returned for malformed arguments that have no
	// more specific error type.
	ErrInvalidArgument = errors.New("invalid argument")
)

// DuplicateNameError indicates that a weight, variation or selection name
// was registered twice.
type DuplicateNameError struct {
	// Kind is the registry that rejected the name ("weight", "selection", ...).
	Kind string
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// UnknownVariationError indicates a weight variation or weight name that
// was never registered.
type UnknownVariationError struct {
	Variation string
}

func (e *UnknownVariationError) Error() string {
	return fmt.Sprintf("unknown weight variation %q", e.Variation)
}

func (e *UnknownVariationError) Is(target error) bool { return target == ErrUnknownVariation }

// UnknownSelectionError indicates a selection name that was never added.
type UnknownSelectionError struct {
	Name string
}

func (e *UnknownSelectionError) Error() string {
	return fmt.Sprintf("unknown selection %q", e.Name)
}

func (e *UnknownSelectionError) Is(target error) bool { return target == ErrUnknownSelection }

// LengthMismatchError indicates a per-event vector whose length differs from
// the event count of its container.
type LengthMismatchError struct {
	Name     string
	Expected int
	Actual   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("length mismatch for %q: expected %d, got %d", e.Name, e.Expected, e.Actual)
}

func (e *LengthMismatchError) Is(target error) bool { return target == ErrLengthMismatch }

// IncompatibleTypesError indicates two accumulator values that cannot be
// combined.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type IncompatibleTypesError struct {
	Left  string
	Right string
	// Path is the key path inside nested maps, empty at the top level.
	Path  string
	cause error
}

// NewIncompatibleTypesError builds an IncompatibleTypesError from the
// runtime types of a and b.
func NewIncompatibleTypesError(a, b any, cause error) *IncompatibleTypesError {
	return &IncompatibleTypesError{
		Left:  fmt.Sprintf("%T", a),
		Right: fmt.Sprintf("%T", b),
		cause: cause,
	}
}

func (e *IncompatibleTypesError) Error() string {
	msg := fmt.Sprintf("cannot combine %s with %s", e.Left, e.Right)
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *IncompatibleTypesError) Unwrap() error { return e.cause }

func (e *IncompatibleTypesError) Is(target error) bool { return target == ErrIncompatibleTypes }
