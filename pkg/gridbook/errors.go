package gridbook

import (
	"errors"
	"fmt"
)

// ErrEmptyBatch indicates ApplyOperations was called with no operations.
var ErrEmptyBatch = errors.New("empty operation batch")

// ErrUnknownSheet indicates an operation targets a sheet that does not exist.
var ErrUnknownSheet = errors.New("unknown sheet")

// ErrInvalidAddress indicates a malformed cell address or range.
var ErrInvalidAddress = errors.New("invalid address")

// ErrInvalidPosition indicates a non-positive row/column position or count.
var ErrInvalidPosition = errors.New("invalid position")

// ErrMergeOverlap indicates a merge would overlap an existing merged range.
var ErrMergeOverlap = errors.New("merged ranges overlap")

// ErrNothingToUndo is the recoverable outcome of undoing empty history.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrNothingToRedo is the recoverable outcome of redoing empty history.
var ErrNothingToRedo = errors.New("nothing to redo")

// OperationError ties a failure to the operation that caused it.
type OperationError struct {
	// Index is the operation's position in the submitted batch.
	Index int
	// Kind is the operation kind.
	Kind Kind
	// SheetID is the target sheet, empty for workbook-level operations.
	SheetID string
	// Err is the underlying failure.
	Err error
}

func (e *OperationError) Error() string {
	if e.SheetID == "" {
		return fmt.Sprintf("operation %d (%s): %v", e.Index, e.Kind, e.Err)
	}
	return fmt.Sprintf("operation %d (%s) on sheet %s: %v", e.Index, e.Kind, e.SheetID, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func opError(index int, op Operation, err error) *OperationError {
	return &OperationError{Index: index, Kind: op.Kind(), SheetID: op.TargetSheet(), Err: err}
}
