package gridbook

import (
	"fmt"

	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
	"github.com/okabe-dev/gridbook/pkg/gridbook/recompute"
)

// sheetAffected reports a whole-sheet touch using the sheet's stored extent.
func sheetAffected(sheet *models.Sheet) []recompute.AffectedRange {
	lastRow := sheet.MaxRow()
	if lastRow < 1 {
		lastRow = 1
	}
	return []recompute.AffectedRange{{SheetID: sheet.ID, Ref: fmt.Sprintf("A1:ZZ%d", lastRow)}}
}

func applyAddSheet(wb *models.Workbook, op AddSheet) (applied, error) {
	if op.Restore != nil {
		restored, err := copySheet(op.Restore)
		if err != nil {
			return applied{}, err
		}
		if err := wb.RestoreSheet(restored, op.Index); err != nil {
			return applied{}, err
		}
		for _, nr := range op.BookNamed {
			if wb.NamedRanges == nil {
				wb.NamedRanges = make(map[string]models.NamedRange)
			}
			wb.NamedRanges[nr.Name] = nr
		}
		return applied{
			inverse:  DeleteSheet{SheetID: restored.ID},
			affected: sheetAffected(restored),
		}, nil
	}
	sheet, err := wb.AddSheet(op.Name)
	if err != nil {
		return applied{}, err
	}
	return applied{
		inverse:  DeleteSheet{SheetID: sheet.ID},
		affected: sheetAffected(sheet),
	}, nil
}

func applyDeleteSheet(wb *models.Workbook, op DeleteSheet) (applied, error) {
	removed, index, err := wb.RemoveSheet(op.SheetID)
	if err != nil {
		return applied{}, err
	}
	snap, err := copySheet(removed)
	if err != nil {
		return applied{}, err
	}
	// Workbook-scoped names pointing at the removed sheet go with it and
	// ride along on the inverse for restoration.
	var bookNamed []models.NamedRange
	for name, nr := range wb.NamedRanges {
		if nr.SheetID == removed.ID {
			bookNamed = append(bookNamed, nr)
			delete(wb.NamedRanges, name)
		}
	}
	inverse := AddSheet{Restore: snap, Index: index, BookNamed: bookNamed}
	// The reported range names a sheet that no longer exists; the recompute
	// coordinator skips it and reconciles the engine's sheet set instead.
	return applied{inverse: inverse, affected: sheetAffected(removed)}, nil
}

func applyRenameSheet(wb *models.Workbook, op RenameSheet) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	prior := sheet.Name
	if err := wb.RenameSheet(op.SheetID, op.Name); err != nil {
		return applied{}, err
	}
	return applied{
		inverse:  RenameSheet{SheetID: op.SheetID, Name: prior},
		affected: sheetAffected(sheet),
	}, nil
}
