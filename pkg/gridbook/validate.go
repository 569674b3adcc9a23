package gridbook

import (
	"fmt"

	"github.com/okabe-dev/gridbook/pkg/gridbook/addr"
	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
)

// validateBatch checks every operation for well-formedness before anything
// mutates: known target sheet, parseable addresses and ranges, positive
// positions and counts. Any error rejects the whole batch. The switch is
// exhaustive over the closed operation set.
func validateBatch(wb *models.Workbook, ops []Operation) []error {
	var errs []error
	for i, op := range ops {
		if err := validateOne(wb, op); err != nil {
			errs = append(errs, opError(i, op, err))
		}
	}
	return errs
}

func validateOne(wb *models.Workbook, op Operation) error {
	if id := op.TargetSheet(); id != "" && wb.SheetByID(id) == nil {
		return fmt.Errorf("%w: %q", ErrUnknownSheet, id)
	}

	switch o := op.(type) {
	case EditCell:
		return checkAddress(o.Address)
	case DeleteCell:
		return checkAddress(o.Address)
	case InsertRows:
		return checkPositionCount(o.Position, o.Count, addr.MaxRows)
	case InsertCols:
		return checkPositionCount(o.Position, o.Count, addr.MaxCols)
	case DeleteRows:
		return checkPositionCount(o.Position, o.Count, addr.MaxRows)
	case DeleteCols:
		return checkPositionCount(o.Position, o.Count, addr.MaxCols)
	case Merge:
		return checkRange(o.Ref)
	case Unmerge:
		return checkRange(o.Ref)
	case SetStyle:
		return checkAddress(o.Address)
	case SetStyleProps:
		return checkAddress(o.Address)
	case SetColor:
		if err := checkAddress(o.Address); err != nil {
			return err
		}
		if o.Channel != ChannelFont && o.Channel != ChannelBackground {
			return fmt.Errorf("unknown color channel %q", o.Channel)
		}
		return nil
	case SetFormat:
		return checkAddress(o.Address)
	case SetRange:
		r, err := addr.ParseRange(o.Ref)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		for address := range o.Cells {
			col, row, err := addr.Parse(address)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
			}
			if !r.Contains(col, row) {
				return fmt.Errorf("%w: %q outside range %q", ErrInvalidAddress, address, o.Ref)
			}
		}
		return nil
	case AddSheet:
		if o.Restore != nil {
			if wb.SheetByID(o.Restore.ID) != nil || wb.SheetByName(o.Restore.Name) != nil {
				return fmt.Errorf("%w: %q", models.ErrSheetNameTaken, o.Restore.Name)
			}
			return nil
		}
		if o.Name != "" && wb.SheetByName(o.Name) != nil {
			return fmt.Errorf("%w: %q", models.ErrSheetNameTaken, o.Name)
		}
		return nil
	case DeleteSheet:
		return nil // existence checked above, last-sheet rule at apply time
	case RenameSheet:
		if o.Name == "" {
			return fmt.Errorf("empty sheet name")
		}
		if other := wb.SheetByName(o.Name); other != nil && other.ID != o.SheetID {
			return fmt.Errorf("%w: %q", models.ErrSheetNameTaken, o.Name)
		}
		return nil
	case SetNamedRange:
		if o.Name == "" {
			return fmt.Errorf("empty range name")
		}
		return checkRange(o.Ref)
	case DeleteNamedRange:
		if o.Name == "" {
			return fmt.Errorf("empty range name")
		}
		return nil
	case SetCondFormat:
		if o.Format.Rule == "" {
			return fmt.Errorf("empty conditional-format rule")
		}
		return checkRange(o.Format.Ref)
	case DeleteCondFormat:
		if o.ID == "" {
			return fmt.Errorf("empty conditional-format id")
		}
		return nil
	default:
		return fmt.Errorf("unhandled operation kind %q", op.Kind())
	}
}

func checkAddress(address string) error {
	if _, _, err := addr.Parse(address); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return nil
}

func checkRange(ref string) error {
	if _, err := addr.ParseRange(ref); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return nil
}

func checkPositionCount(position, count, limit int) error {
	if position < 1 || position > limit {
		return fmt.Errorf("%w: position %d", ErrInvalidPosition, position)
	}
	if count < 1 || count > limit {
		return fmt.Errorf("%w: count %d", ErrInvalidPosition, count)
	}
	return nil
}
