package gridbook

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/okabe-dev/gridbook/pkg/gridbook/addr"
	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
	"github.com/okabe-dev/gridbook/pkg/gridbook/recompute"
)

func applySetNamedRange(wb *models.Workbook, op SetNamedRange) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	r, err := addr.ParseRange(op.Ref)
	if err != nil {
		return applied{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	entry := models.NamedRange{Name: op.Name, SheetID: op.SheetID, Ref: r.String()}

	var prior models.NamedRange
	var existed bool
	if op.WorkbookScope {
		prior, existed = wb.NamedRanges[op.Name]
		if wb.NamedRanges == nil {
			wb.NamedRanges = make(map[string]models.NamedRange)
		}
		wb.NamedRanges[op.Name] = entry
	} else {
		prior, existed = sheet.NamedRanges[op.Name]
		if sheet.NamedRanges == nil {
			sheet.NamedRanges = make(map[string]models.NamedRange)
		}
		sheet.NamedRanges[op.Name] = entry
	}

	var inverse Operation
	if existed {
		inverse = SetNamedRange{SheetID: prior.SheetID, Name: prior.Name, Ref: prior.Ref, WorkbookScope: op.WorkbookScope}
	} else {
		inverse = DeleteNamedRange{SheetID: op.SheetID, Name: op.Name, WorkbookScope: op.WorkbookScope}
	}
	return applied{
		inverse:  inverse,
		affected: []recompute.AffectedRange{{SheetID: op.SheetID, Ref: entry.Ref}},
	}, nil
}

func applyDeleteNamedRange(wb *models.Workbook, op DeleteNamedRange) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	var prior models.NamedRange
	var existed bool
	if op.WorkbookScope {
		prior, existed = wb.NamedRanges[op.Name]
		delete(wb.NamedRanges, op.Name)
	} else {
		prior, existed = sheet.NamedRanges[op.Name]
		delete(sheet.NamedRanges, op.Name)
	}
	if !existed {
		return applied{
			noop:     true,
			warnings: []string{fmt.Sprintf("delete-named-range: %q is not defined", op.Name)},
		}, nil
	}
	inverse := SetNamedRange{SheetID: prior.SheetID, Name: prior.Name, Ref: prior.Ref, WorkbookScope: op.WorkbookScope}
	return applied{
		inverse:  inverse,
		affected: []recompute.AffectedRange{{SheetID: prior.SheetID, Ref: prior.Ref}},
	}, nil
}

func applySetCondFormat(wb *models.Workbook, op SetCondFormat) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	format := op.Format
	r, err := addr.ParseRange(format.Ref)
	if err != nil {
		return applied{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	format.Ref = r.String()
	style, err := copyStyle(format.Style)
	if err != nil {
		return applied{}, err
	}
	format.Style = style

	if format.ID == "" {
		format.ID = uuid.NewString()
		sheet.ConditionalFormats = append(sheet.ConditionalFormats, format)
		return applied{inverse: DeleteCondFormat{SheetID: op.SheetID, ID: format.ID}}, nil
	}

	if existing := sheet.ConditionalFormat(format.ID); existing != nil {
		prior := *existing
		priorStyle, err := copyStyle(prior.Style)
		if err != nil {
			return applied{}, err
		}
		prior.Style = priorStyle
		*existing = format
		return applied{inverse: SetCondFormat{SheetID: op.SheetID, Format: prior}}, nil
	}
	sheet.ConditionalFormats = append(sheet.ConditionalFormats, format)
	return applied{inverse: DeleteCondFormat{SheetID: op.SheetID, ID: format.ID}}, nil
}

func applyDeleteCondFormat(wb *models.Workbook, op DeleteCondFormat) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	existing := sheet.ConditionalFormat(op.ID)
	if existing == nil {
		return applied{
			noop:     true,
			warnings: []string{fmt.Sprintf("delete-conditional-format: rule %q is not defined on sheet %q", op.ID, sheet.Name)},
		}, nil
	}
	prior := *existing
	priorStyle, err := copyStyle(prior.Style)
	if err != nil {
		return applied{}, err
	}
	prior.Style = priorStyle
	sheet.RemoveConditionalFormat(op.ID)
	return applied{inverse: SetCondFormat{SheetID: op.SheetID, Format: prior}}, nil
}
