package gridbook

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"

	"github.com/okabe-dev/gridbook/pkg/gridbook/addr"
	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
	"github.com/okabe-dev/gridbook/pkg/gridbook/recompute"
)

// shiftRef moves a range reference across an inserted or deleted band. The
// second return is false when a deletion consumed the whole range.
func shiftRef(ref string, pos, count int, rows, insert bool) (string, bool, error) {
	r, err := addr.ParseRange(ref)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	var out addr.Range
	var ok bool
	if rows {
		out, ok, err = addr.ShiftRows(r, pos, count, insert)
	} else {
		out, ok, err = addr.ShiftCols(r, pos, count, insert)
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	if !ok {
		return "", false, nil
	}
	return out.String(), true, nil
}

// structuralBand is the generous affected reference for a row or column
// insertion or deletion: everything from the band onward, through column ZZ
// and the sheet's last stored row.
func structuralBand(sheet *models.Sheet, pos int, rows bool) recompute.AffectedRange {
	lastRow := sheet.MaxRow()
	if rows {
		if lastRow < pos {
			lastRow = pos
		}
		return recompute.AffectedRange{SheetID: sheet.ID, Ref: fmt.Sprintf("A%d:ZZ%d", pos, lastRow)}
	}
	if lastRow < 1 {
		lastRow = 1
	}
	col, err := addr.ColumnName(pos)
	if err != nil {
		col = "A"
	}
	return recompute.AffectedRange{SheetID: sheet.ID, Ref: fmt.Sprintf("%s1:ZZ%d", col, lastRow)}
}

func applyStructural(wb *models.Workbook, sheetID string, pos, count int, rows, insert bool, restore *StructRestore) (applied, error) {
	sheet, err := sheetFor(wb, sheetID)
	if err != nil {
		return applied{}, err
	}
	if pos < 1 || count < 1 {
		return applied{}, fmt.Errorf("%w: position %d count %d", ErrInvalidPosition, pos, count)
	}

	var inverse Operation
	if insert {
		if rows {
			inverse = DeleteRows{SheetID: sheetID, Position: pos, Count: count}
		} else {
			inverse = DeleteCols{SheetID: sheetID, Position: pos, Count: count}
		}
	} else {
		snap, err := captureBand(wb, sheet, pos, count, rows)
		if err != nil {
			return applied{}, err
		}
		if rows {
			inverse = InsertRows{SheetID: sheetID, Position: pos, Count: count, Restore: snap}
		} else {
			inverse = InsertCols{SheetID: sheetID, Position: pos, Count: count, Restore: snap}
		}
	}

	if err := shiftCells(sheet, pos, count, rows, insert); err != nil {
		return applied{}, err
	}
	if err := shiftRangeCollections(wb, sheet, pos, count, rows, insert); err != nil {
		return applied{}, err
	}
	if restore != nil {
		if err := restoreBand(wb, sheet, restore); err != nil {
			return applied{}, err
		}
	}
	return applied{inverse: inverse, affected: []recompute.AffectedRange{structuralBand(sheet, pos, rows)}}, nil
}

// captureBand records everything a deletion is about to destroy: the cells
// inside the band, plus full snapshots of every range collection touching the
// sheet. Shifting alone cannot rebuild a range the deletion clamped, so the
// inverse restores the collections wholesale.
func captureBand(wb *models.Workbook, sheet *models.Sheet, pos, count int, rows bool) (*StructRestore, error) {
	snap := &StructRestore{Cells: make(map[string]*models.Cell)}
	for address, cell := range sheet.Cells {
		col, row, err := addr.Parse(address)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
		}
		idx := row
		if !rows {
			idx = col
		}
		if idx >= pos && idx < pos+count {
			c, err := copyCell(cell)
			if err != nil {
				return nil, err
			}
			snap.Cells[address] = c
		}
	}
	snap.Merges = append([]string(nil), sheet.MergedRanges...)
	if err := deepcopy.Copy(&snap.Formats, &sheet.ConditionalFormats); err != nil {
		return nil, fmt.Errorf("copying conditional formats: %w", err)
	}
	for _, nr := range sheet.NamedRanges {
		snap.SheetNamed = append(snap.SheetNamed, nr)
	}
	for _, nr := range wb.NamedRanges {
		if nr.SheetID == sheet.ID {
			snap.BookNamed = append(snap.BookNamed, nr)
		}
	}
	return snap, nil
}

// restoreBand puts back what a deletion destroyed, after the insert has
// re-opened the band: the consumed cells, and the pre-deletion range
// collections replacing the shifted ones outright.
func restoreBand(wb *models.Workbook, sheet *models.Sheet, snap *StructRestore) error {
	for address, cell := range snap.Cells {
		c, err := copyCell(cell)
		if err != nil {
			return err
		}
		if c != nil {
			sheet.SetCell(address, c)
		}
	}
	sheet.MergedRanges = append([]string(nil), snap.Merges...)
	if err := deepcopy.Copy(&sheet.ConditionalFormats, &snap.Formats); err != nil {
		return fmt.Errorf("copying conditional formats: %w", err)
	}
	sheet.NamedRanges = make(map[string]models.NamedRange, len(snap.SheetNamed))
	for _, nr := range snap.SheetNamed {
		sheet.NamedRanges[nr.Name] = nr
	}
	for name, nr := range wb.NamedRanges {
		if nr.SheetID == sheet.ID {
			delete(wb.NamedRanges, name)
		}
	}
	for _, nr := range snap.BookNamed {
		if wb.NamedRanges == nil {
			wb.NamedRanges = make(map[string]models.NamedRange)
		}
		wb.NamedRanges[nr.Name] = nr
	}
	return nil
}

// shiftCells rebuilds the sparse cell map around the band. On deletion the
// band's cells are dropped. Formulas move with their cells but their text is
// never rewritten; stale references surface as engine errors on recompute.
func shiftCells(sheet *models.Sheet, pos, count int, rows, insert bool) error {
	next := make(map[string]*models.Cell, len(sheet.Cells))
	for address, cell := range sheet.Cells {
		moved, ok, err := addr.ShiftAddress(address, pos, count, rows, insert)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
		}
		if !ok {
			continue
		}
		next[moved] = cell
	}
	sheet.Cells = next
	return nil
}

// shiftRangeCollections moves merged ranges, conditional formats and named
// ranges (both scopes) across the band. Ranges fully inside a deleted band
// are removed.
func shiftRangeCollections(wb *models.Workbook, sheet *models.Sheet, pos, count int, rows, insert bool) error {
	merges := sheet.MergedRanges[:0]
	for _, ref := range sheet.MergedRanges {
		moved, ok, err := shiftRef(ref, pos, count, rows, insert)
		if err != nil {
			return err
		}
		if ok {
			merges = append(merges, moved)
		}
	}
	sheet.MergedRanges = merges

	formats := sheet.ConditionalFormats[:0]
	for _, cf := range sheet.ConditionalFormats {
		moved, ok, err := shiftRef(cf.Ref, pos, count, rows, insert)
		if err != nil {
			return err
		}
		if ok {
			cf.Ref = moved
			formats = append(formats, cf)
		}
	}
	sheet.ConditionalFormats = formats

	for name, nr := range sheet.NamedRanges {
		moved, ok, err := shiftRef(nr.Ref, pos, count, rows, insert)
		if err != nil {
			return err
		}
		if !ok {
			delete(sheet.NamedRanges, name)
			continue
		}
		nr.Ref = moved
		sheet.NamedRanges[name] = nr
	}

	for name, nr := range wb.NamedRanges {
		if nr.SheetID != sheet.ID {
			continue
		}
		moved, ok, err := shiftRef(nr.Ref, pos, count, rows, insert)
		if err != nil {
			return err
		}
		if !ok {
			delete(wb.NamedRanges, name)
			continue
		}
		nr.Ref = moved
		wb.NamedRanges[name] = nr
	}
	return nil
}
