package gridbook

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"

	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
	"github.com/okabe-dev/gridbook/pkg/gridbook/recompute"
)

// ApplyResult reports the outcome of one operation batch.
type ApplyResult struct {
	// Success is true when every operation applied. A failed batch leaves
	// the workbook bit-for-bit unchanged.
	Success bool
	// Actions are the logged records, one per non-no-op operation, each with
	// a fully formed inverse.
	Actions []models.Action
	// AffectedRanges lists what each successful operation touched, in order.
	AffectedRanges []recompute.AffectedRange
	// Errors holds validation or apply failures. Never populated on success.
	Errors []error
	// Warnings holds non-fatal notes: no-op operations and recompute
	// degradations.
	Warnings []string
}

// applied is the outcome of one operation against the live workbook.
type applied struct {
	// inverse undoes the operation exactly. Unset for no-ops.
	inverse Operation
	// affected is what the operation touched.
	affected []recompute.AffectedRange
	// warnings collects non-fatal notes.
	warnings []string
	// noop marks a warning no-op: no action is produced.
	noop bool
}

// ApplyOperations validates, applies and records a batch of operations
// atomically. Either every operation applies and one action per mutation is
// appended to the workbook's bounded action log, or the workbook is restored
// from a pre-batch snapshot and the result carries the errors. Errors are
// returned on the result, never panicked.
func ApplyOperations(wb *models.Workbook, ops []Operation, opts ApplyOptions) *ApplyResult {
	res := &ApplyResult{}
	if len(ops) == 0 {
		res.Errors = append(res.Errors, ErrEmptyBatch)
		return res
	}

	if !opts.SkipValidation {
		if errs := validateBatch(wb, ops); len(errs) > 0 {
			res.Errors = errs
			return res
		}
	}

	snapshot := &models.Workbook{}
	if err := deepcopy.Copy(snapshot, wb); err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("snapshotting workbook: %w", err))
		return res
	}

	now := time.Now().UTC()
	var actions []models.Action
	for i, op := range ops {
		out, err := applyOne(wb, op)
		if err != nil {
			*wb = *snapshot
			res.Errors = append(res.Errors, opError(i, op, err))
			return res
		}
		res.Warnings = append(res.Warnings, out.warnings...)
		if out.noop {
			continue
		}
		action, err := newAction(op, out.inverse, opts.User, now)
		if err != nil {
			*wb = *snapshot
			res.Errors = append(res.Errors, opError(i, op, err))
			return res
		}
		actions = append(actions, action)
		res.AffectedRanges = append(res.AffectedRanges, out.affected...)
	}

	if !opts.skipHistory {
		for _, a := range actions {
			wb.AppendAction(a)
		}
		if !opts.preserveRedo && len(actions) > 0 {
			// A new forward edit branches history; the old redo path dies.
			// A batch of pure no-ops changed nothing and keeps it alive.
			wb.RedoStack = nil
		}
	}
	if len(actions) > 0 {
		wb.Touch()
	}
	res.Success = true
	res.Actions = actions

	// Gate on actions, not affected ranges: a sheet deletion reports no
	// ranges but still invalidates formulas referencing the sheet.
	if opts.ShouldRecompute() && len(res.Actions) > 0 {
		if opts.ShouldSyncComputed() {
			res.Warnings = append(res.Warnings, opts.Recompute.Sync(wb, res.AffectedRanges)...)
		} else {
			res.Warnings = append(res.Warnings, opts.Recompute.Stage(wb, res.AffectedRanges)...)
		}
	}
	return res
}

// applyOne dispatches over the closed operation set. The default branch is
// unreachable for operations constructed through this package.
func applyOne(wb *models.Workbook, op Operation) (applied, error) {
	switch o := op.(type) {
	case EditCell:
		return applyEditCell(wb, o)
	case DeleteCell:
		return applyDeleteCell(wb, o)
	case InsertRows:
		return applyStructural(wb, o.SheetID, o.Position, o.Count, true, true, o.Restore)
	case InsertCols:
		return applyStructural(wb, o.SheetID, o.Position, o.Count, false, true, o.Restore)
	case DeleteRows:
		return applyStructural(wb, o.SheetID, o.Position, o.Count, true, false, nil)
	case DeleteCols:
		return applyStructural(wb, o.SheetID, o.Position, o.Count, false, false, nil)
	case Merge:
		return applyMerge(wb, o)
	case Unmerge:
		return applyUnmerge(wb, o)
	case SetStyle:
		return applySetStyle(wb, o)
	case SetStyleProps:
		return applySetStyleProps(wb, o)
	case SetColor:
		return applySetColor(wb, o)
	case SetFormat:
		return applySetFormat(wb, o)
	case SetRange:
		return applySetRange(wb, o)
	case AddSheet:
		return applyAddSheet(wb, o)
	case DeleteSheet:
		return applyDeleteSheet(wb, o)
	case RenameSheet:
		return applyRenameSheet(wb, o)
	case SetNamedRange:
		return applySetNamedRange(wb, o)
	case DeleteNamedRange:
		return applyDeleteNamedRange(wb, o)
	case SetCondFormat:
		return applySetCondFormat(wb, o)
	case DeleteCondFormat:
		return applyDeleteCondFormat(wb, o)
	default:
		return applied{}, fmt.Errorf("unhandled operation kind %q", op.Kind())
	}
}

// newAction builds the logged record for an applied operation, embedding the
// fully formed inverse action.
func newAction(op, inverse Operation, user string, at time.Time) (models.Action, error) {
	payload, err := EncodeOperation(op)
	if err != nil {
		return models.Action{}, err
	}
	invPayload, err := EncodeOperation(inverse)
	if err != nil {
		return models.Action{}, err
	}
	return models.Action{
		ID:        uuid.NewString(),
		Kind:      string(op.Kind()),
		SheetID:   op.TargetSheet(),
		Payload:   payload,
		Timestamp: at,
		User:      user,
		Inverse: &models.Action{
			ID:        uuid.NewString(),
			Kind:      string(inverse.Kind()),
			SheetID:   inverse.TargetSheet(),
			Payload:   invPayload,
			Timestamp: at,
			User:      user,
		},
	}, nil
}

// sheetFor resolves an operation's target sheet at apply time. Validation
// normally guarantees existence, but a delete-sheet earlier in the same
// batch can remove it.
func sheetFor(wb *models.Workbook, sheetID string) (*models.Sheet, error) {
	s := wb.SheetByID(sheetID)
	if s == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSheet, sheetID)
	}
	return s, nil
}

func copyCell(c *models.Cell) (*models.Cell, error) {
	if c == nil {
		return nil, nil
	}
	out := &models.Cell{}
	if err := deepcopy.Copy(out, c); err != nil {
		return nil, fmt.Errorf("copying cell: %w", err)
	}
	return out, nil
}

func copyStyle(s *models.Style) (*models.Style, error) {
	if s == nil {
		return nil, nil
	}
	out := &models.Style{}
	if err := deepcopy.Copy(out, s); err != nil {
		return nil, fmt.Errorf("copying style: %w", err)
	}
	return out, nil
}

func copySheet(s *models.Sheet) (*models.Sheet, error) {
	out := &models.Sheet{}
	if err := deepcopy.Copy(out, s); err != nil {
		return nil, fmt.Errorf("copying sheet: %w", err)
	}
	return out, nil
}

// IsNothingToUndo reports whether err is the empty-history undo outcome.
func IsNothingToUndo(err error) bool { return errors.Is(err, ErrNothingToUndo) }

// IsNothingToRedo reports whether err is the empty-history redo outcome.
func IsNothingToRedo(err error) bool { return errors.Is(err, ErrNothingToRedo) }
