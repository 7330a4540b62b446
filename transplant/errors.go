package transplant

import (
	"errors"
	"fmt"
)

// The transplant error taxonomy. Every one of these is fatal: a failed entry
// means the correspondence plan and the loaded weights disagree, which no
// retry can resolve, and a partially transplanted model must never be
// serialized.

// MissingParameterError reports a plan entry whose source path is absent from
// the loaded parameter store, typically a stale or incorrect plan.
type MissingParameterError struct {
	Path string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("source parameter %q not found in store", e.Path)
}

// ShapeMismatchError reports a transformed tensor whose shape disagrees with
// the target slot's declared shape. Both shapes are included because this is
// the check that stands between a wrong plan and silent numeric corruption.
type ShapeMismatchError struct {
	Layer string
	Slot  string
	Got   []int
	Want  []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch for %s.%s: transformed source has shape %v, slot declares %v",
		e.Layer, e.Slot, e.Got, e.Want)
}

// DuplicateAssignmentError reports two plan entries targeting the same slot,
// which indicates a logic error in the plan generator itself.
type DuplicateAssignmentError struct {
	Layer string
	Slot  string
}

func (e *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf("slot %s.%s assigned twice by the transplant plan", e.Layer, e.Slot)
}

// UnknownTargetError reports a plan entry addressing a layer or slot the
// registry does not contain.
type UnknownTargetError struct {
	Layer string
	Slot  string
}

func (e *UnknownTargetError) Error() string {
	if e.Slot == "" {
		return fmt.Sprintf("target layer %q not found in registry", e.Layer)
	}
	return fmt.Sprintf("target layer %q has no slot %q", e.Layer, e.Slot)
}

// IsMissingParameter reports whether err is a MissingParameterError, looking
// through wrapped errors.
func IsMissingParameter(err error) bool {
	var e *MissingParameterError
	return errors.As(err, &e)
}

// IsShapeMismatch reports whether err is a ShapeMismatchError.
func IsShapeMismatch(err error) bool {
	var e *ShapeMismatchError
	return errors.As(err, &e)
}

// IsDuplicateAssignment reports whether err is a DuplicateAssignmentError.
func IsDuplicateAssignment(err error) bool {
	var e *DuplicateAssignmentError
	return errors.As(err, &e)
}
