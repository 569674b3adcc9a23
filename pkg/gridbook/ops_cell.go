package gridbook

import (
	"fmt"

	"github.com/okabe-dev/gridbook/pkg/gridbook/addr"
	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
	"github.com/okabe-dev/gridbook/pkg/gridbook/recompute"
)

func cellAffected(sheetID, address string) []recompute.AffectedRange {
	return []recompute.AffectedRange{{SheetID: sheetID, Ref: address}}
}

// applyPatch overlays a partial cell update onto a copy of prior. A literal
// and a formula are mutually exclusive content: setting one clears the other,
// so a stale formula cannot shadow a freshly written value. The computed
// cache is dropped; the patched content invalidates it.
func applyPatch(prior *models.Cell, patch CellPatch) (*models.Cell, error) {
	next, err := copyCell(prior)
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = &models.Cell{}
	}
	if patch.Raw != nil {
		next.Raw = patch.Raw
		next.Formula = ""
	}
	if patch.Formula != nil {
		next.Formula = *patch.Formula
		if *patch.Formula != "" {
			next.Raw = nil
		}
	}
	if patch.Style != nil {
		next.Style = patch.Style
	}
	if patch.NumberFormat != nil {
		next.NumberFormat = *patch.NumberFormat
	}
	next.Computed = nil
	return next, nil
}

// priorInverse builds the inverse for any single-cell content mutation:
// restore the prior cell exactly, or delete the cell if it was absent.
func priorInverse(sheetID, address string, prior *models.Cell) (Operation, error) {
	if prior == nil {
		return DeleteCell{SheetID: sheetID, Address: address}, nil
	}
	snap, err := copyCell(prior)
	if err != nil {
		return nil, err
	}
	return EditCell{SheetID: sheetID, Address: address, Replace: true, Prior: snap}, nil
}

func applyEditCell(wb *models.Workbook, op EditCell) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	prior := sheet.Cell(op.Address)
	inverse, err := priorInverse(op.SheetID, op.Address, prior)
	if err != nil {
		return applied{}, err
	}

	if op.Replace {
		restored, err := copyCell(op.Prior)
		if err != nil {
			return applied{}, err
		}
		if restored == nil {
			sheet.DeleteCell(op.Address)
		} else {
			sheet.SetCell(op.Address, restored)
		}
	} else {
		next, err := applyPatch(prior, op.Patch)
		if err != nil {
			return applied{}, err
		}
		sheet.SetCell(op.Address, next)
	}
	return applied{inverse: inverse, affected: cellAffected(op.SheetID, op.Address)}, nil
}

func applyDeleteCell(wb *models.Workbook, op DeleteCell) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	prior := sheet.Cell(op.Address)
	if prior == nil {
		return applied{
			noop:     true,
			warnings: []string{fmt.Sprintf("delete-cell: %s on sheet %q is already absent", op.Address, sheet.Name)},
		}, nil
	}
	inverse, err := priorInverse(op.SheetID, op.Address, prior)
	if err != nil {
		return applied{}, err
	}
	sheet.DeleteCell(op.Address)
	return applied{inverse: inverse, affected: cellAffected(op.SheetID, op.Address)}, nil
}

// styleInverse restores the prior style of a cell via set-style, whatever
// style-family operation changed it.
func styleInverse(sheetID, address string, prior *models.Style) (Operation, error) {
	snap, err := copyStyle(prior)
	if err != nil {
		return nil, err
	}
	return SetStyle{SheetID: sheetID, Address: address, Style: snap}, nil
}

// setCellStyle writes a style onto the cell at address, creating a
// style-only cell or dropping an emptied one as needed.
func setCellStyle(sheet *models.Sheet, address string, style *models.Style) error {
	cell, err := copyCell(sheet.Cell(address))
	if err != nil {
		return err
	}
	if cell == nil {
		cell = &models.Cell{}
	}
	cell.Style = normalizeStyle(style)
	sheet.SetCell(address, cell)
	return nil
}

// normalizeStyle collapses an all-unset style to nil so emptied cells drop
// out of the sparse map.
func normalizeStyle(s *models.Style) *models.Style {
	if s == nil || *s != (models.Style{}) {
		return s
	}
	return nil
}

func applySetStyle(wb *models.Workbook, op SetStyle) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	var prior *models.Style
	if c := sheet.Cell(op.Address); c != nil {
		prior = c.Style
	}
	inverse, err := styleInverse(op.SheetID, op.Address, prior)
	if err != nil {
		return applied{}, err
	}
	style, err := copyStyle(op.Style)
	if err != nil {
		return applied{}, err
	}
	if err := setCellStyle(sheet, op.Address, style); err != nil {
		return applied{}, err
	}
	return applied{inverse: inverse, affected: cellAffected(op.SheetID, op.Address)}, nil
}

func applySetStyleProps(wb *models.Workbook, op SetStyleProps) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	var prior *models.Style
	if c := sheet.Cell(op.Address); c != nil {
		prior = c.Style
	}
	inverse, err := styleInverse(op.SheetID, op.Address, prior)
	if err != nil {
		return applied{}, err
	}
	if err := setCellStyle(sheet, op.Address, prior.Merge(op.Style)); err != nil {
		return applied{}, err
	}
	return applied{inverse: inverse, affected: cellAffected(op.SheetID, op.Address)}, nil
}

func applySetColor(wb *models.Workbook, op SetColor) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	var prior *models.Style
	if c := sheet.Cell(op.Address); c != nil {
		prior = c.Style
	}
	inverse, err := styleInverse(op.SheetID, op.Address, prior)
	if err != nil {
		return applied{}, err
	}

	next, err := copyStyle(prior)
	if err != nil {
		return applied{}, err
	}
	if next == nil {
		next = &models.Style{}
	}
	value := ""
	if op.Value != nil {
		value = *op.Value
	}
	switch op.Channel {
	case ChannelFont:
		next.FontColor = value
	case ChannelBackground:
		next.BackgroundColor = value
	default:
		return applied{}, fmt.Errorf("unknown color channel %q", op.Channel)
	}
	if err := setCellStyle(sheet, op.Address, next); err != nil {
		return applied{}, err
	}
	return applied{inverse: inverse, affected: cellAffected(op.SheetID, op.Address)}, nil
}

func applySetFormat(wb *models.Workbook, op SetFormat) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	prior := ""
	if c := sheet.Cell(op.Address); c != nil {
		prior = c.NumberFormat
	}
	inverse := SetFormat{SheetID: op.SheetID, Address: op.Address, Format: prior}

	cell, err := copyCell(sheet.Cell(op.Address))
	if err != nil {
		return applied{}, err
	}
	if cell == nil {
		cell = &models.Cell{}
	}
	cell.NumberFormat = op.Format
	sheet.SetCell(op.Address, cell)
	return applied{inverse: inverse, affected: cellAffected(op.SheetID, op.Address)}, nil
}

func applySetRange(wb *models.Workbook, op SetRange) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	r, err := addr.ParseRange(op.Ref)
	if err != nil {
		return applied{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	ref := r.String()

	if op.Replace {
		// Inverse replay: restore recorded cell states, nil meaning absent.
		prior := make(map[string]*models.Cell, len(op.Prior))
		for address := range op.Prior {
			snap, err := copyCell(sheet.Cell(address))
			if err != nil {
				return applied{}, err
			}
			prior[address] = snap
		}
		for address, restored := range op.Prior {
			snap, err := copyCell(restored)
			if err != nil {
				return applied{}, err
			}
			if snap == nil {
				sheet.DeleteCell(address)
			} else {
				sheet.SetCell(address, snap)
			}
		}
		inverse := SetRange{SheetID: op.SheetID, Ref: ref, Replace: true, Prior: prior}
		return applied{inverse: inverse, affected: []recompute.AffectedRange{{SheetID: op.SheetID, Ref: ref}}}, nil
	}

	prior := make(map[string]*models.Cell, len(op.Cells))
	for address := range op.Cells {
		snap, err := copyCell(sheet.Cell(address))
		if err != nil {
			return applied{}, err
		}
		prior[address] = snap
	}
	for address, patch := range op.Cells {
		next, err := applyPatch(sheet.Cell(address), patch)
		if err != nil {
			return applied{}, err
		}
		sheet.SetCell(address, next)
	}
	inverse := SetRange{SheetID: op.SheetID, Ref: ref, Replace: true, Prior: prior}
	return applied{inverse: inverse, affected: []recompute.AffectedRange{{SheetID: op.SheetID, Ref: ref}}}, nil
}
