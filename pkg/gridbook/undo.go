package gridbook

import (
	"fmt"

	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
)

// UndoResult reports the outcome of one undo or redo step.
type UndoResult struct {
	// Success is true when the step applied cleanly.
	Success bool
	// Action is the history record the step consumed.
	Action models.Action
	// AffectedRanges lists what the replay touched.
	AffectedRanges []string
	// Warnings carries recompute degradations from the replay.
	Warnings []string
}

// Undo reverts the most recent logged action by replaying its inverse
// through the normal apply path, then moves the action onto the redo stack.
// With an empty log it returns ErrNothingToUndo.
func Undo(wb *models.Workbook, opts ApplyOptions) (*UndoResult, error) {
	last := wb.LastAction()
	if last == nil || last.Inverse == nil {
		return nil, ErrNothingToUndo
	}
	inverse, err := DecodeOperation(Kind(last.Inverse.Kind), last.Inverse.Payload)
	if err != nil {
		return nil, fmt.Errorf("decoding inverse of %s action: %w", last.Kind, err)
	}

	replay := opts
	replay.skipHistory = true
	res := ApplyOperations(wb, []Operation{inverse}, replay)
	if !res.Success {
		return nil, fmt.Errorf("replaying inverse of %s action: %w", last.Kind, firstError(res.Errors))
	}

	undone := *last
	wb.ActionLog = wb.ActionLog[:len(wb.ActionLog)-1]
	wb.RedoStack = append(wb.RedoStack, undone)
	return undoResult(undone, res), nil
}

// Redo re-applies the most recently undone action. The forward replay goes
// through the normal apply path so a fresh action with a fresh inverse lands
// on the log. With an empty redo stack it returns ErrNothingToRedo.
func Redo(wb *models.Workbook, opts ApplyOptions) (*UndoResult, error) {
	if len(wb.RedoStack) == 0 {
		return nil, ErrNothingToRedo
	}
	next := wb.RedoStack[len(wb.RedoStack)-1]
	op, err := DecodeOperation(Kind(next.Kind), next.Payload)
	if err != nil {
		return nil, fmt.Errorf("decoding redo %s action: %w", next.Kind, err)
	}

	replay := opts
	replay.preserveRedo = true
	res := ApplyOperations(wb, []Operation{op}, replay)
	if !res.Success {
		return nil, fmt.Errorf("replaying %s action: %w", next.Kind, firstError(res.Errors))
	}
	wb.RedoStack = wb.RedoStack[:len(wb.RedoStack)-1]
	return undoResult(next, res), nil
}

// CanUndo reports whether the workbook has any action left to undo.
func CanUndo(wb *models.Workbook) bool { return len(wb.ActionLog) > 0 }

// CanRedo reports whether the workbook has any undone action to redo.
func CanRedo(wb *models.Workbook) bool { return len(wb.RedoStack) > 0 }

// UndoDepth returns how many actions the bounded log currently holds.
func UndoDepth(wb *models.Workbook) int { return len(wb.ActionLog) }

func undoResult(action models.Action, res *ApplyResult) *UndoResult {
	out := &UndoResult{Success: true, Action: action, Warnings: res.Warnings}
	for _, ar := range res.AffectedRanges {
		out.AffectedRanges = append(out.AffectedRanges, ar.Ref)
	}
	return out
}

func firstError(errs []error) error {
	if len(errs) == 0 {
		return fmt.Errorf("unknown failure")
	}
	return errs[0]
}
