// Package addr provides cell address and range utilities for the workbook
// engine. Addresses use the spreadsheet "A1" convention: column letters
// followed by a 1-based row number. Ranges are two addresses joined by a
// colon ("A1:D3") and are always inclusive on both ends.
package addr

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Grid limits, matching the evaluation engine's sheet dimensions. Structural
// shifts that would push content past them fail instead of wrapping.
const (
	// MaxCols is the highest addressable column ("XFD").
	MaxCols = 16384
	// MaxRows is the highest addressable row.
	MaxRows = 1048576
)

// Parse converts an "A1"-style address to 1-based column and row indices.
func Parse(address string) (col, row int, err error) {
	col, row, err = excelize.CellNameToCoordinates(address)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid address %q: %w", address, err)
	}
	return col, row, nil
}

// Format converts 1-based column and row indices to an "A1"-style address.
// Indices below 1 produce an error.
func Format(col, row int) (string, error) {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", fmt.Errorf("invalid coordinates (%d, %d): %w", col, row, err)
	}
	return name, nil
}

// MustFormat is Format for indices already known to be valid.
func MustFormat(col, row int) string {
	name, err := Format(col, row)
	if err != nil {
		panic(err)
	}
	return name
}

// ColumnName converts a 1-based column index to its letter name ("A", "AB").
func ColumnName(col int) (string, error) {
	return excelize.ColumnNumberToName(col)
}

// Range is a rectangular cell span with inclusive 1-based bounds.
// A single cell is a range whose start and end coincide.
type Range struct {
	StartCol int
	StartRow int
	EndCol   int
	EndRow   int
}

// ParseRange parses "A1:D3" or a single address "B2" into a normalized Range
// (start bounds never exceed end bounds).
func ParseRange(ref string) (Range, error) {
	parts := strings.Split(ref, ":")
	switch len(parts) {
	case 1:
		col, row, err := Parse(parts[0])
		if err != nil {
			return Range{}, err
		}
		return Range{StartCol: col, StartRow: row, EndCol: col, EndRow: row}, nil
	case 2:
		c1, r1, err := Parse(parts[0])
		if err != nil {
			return Range{}, err
		}
		c2, r2, err := Parse(parts[1])
		if err != nil {
			return Range{}, err
		}
		r := Range{StartCol: c1, StartRow: r1, EndCol: c2, EndRow: r2}
		return r.normalize(), nil
	default:
		return Range{}, fmt.Errorf("invalid range %q", ref)
	}
}

func (r Range) normalize() Range {
	if r.StartCol > r.EndCol {
		r.StartCol, r.EndCol = r.EndCol, r.StartCol
	}
	if r.StartRow > r.EndRow {
		r.StartRow, r.EndRow = r.EndRow, r.StartRow
	}
	return r
}

// String renders the range in "A1:D3" form. Single-cell ranges still render
// with both endpoints so stored range strings stay uniform.
func (r Range) String() string {
	return MustFormat(r.StartCol, r.StartRow) + ":" + MustFormat(r.EndCol, r.EndRow)
}

// Contains reports whether the 1-based coordinate lies inside the range.
func (r Range) Contains(col, row int) bool {
	return col >= r.StartCol && col <= r.EndCol && row >= r.StartRow && row <= r.EndRow
}

// Rows returns the number of rows the range spans.
func (r Range) Rows() int { return r.EndRow - r.StartRow + 1 }

// Cols returns the number of columns the range spans.
func (r Range) Cols() int { return r.EndCol - r.StartCol + 1 }

// Cells enumerates every address in the range in row-major order.
func (r Range) Cells() []string {
	cells := make([]string, 0, r.Rows()*r.Cols())
	for row := r.StartRow; row <= r.EndRow; row++ {
		for col := r.StartCol; col <= r.EndCol; col++ {
			cells = append(cells, MustFormat(col, row))
		}
	}
	return cells
}

// shiftIndex maps a single 1-based index through an insertion or deletion of
// count positions at pos. For deletions, ok is false when the index falls
// inside the deleted band [pos, pos+count-1].
func shiftIndex(idx, pos, count int, insert bool) (int, bool) {
	if insert {
		if idx >= pos {
			return idx + count, true
		}
		return idx, true
	}
	if idx < pos {
		return idx, true
	}
	if idx < pos+count {
		return 0, false
	}
	return idx - count, true
}

// ShiftAddress maps an address through a row (rows=true) or column insertion
// or deletion. ok is false when a deletion removes the cell itself. An
// insertion that would push the cell past the grid limit is an error.
func ShiftAddress(address string, pos, count int, rows, insert bool) (string, bool, error) {
	col, row, err := Parse(address)
	if err != nil {
		return "", false, err
	}
	if rows {
		row2, ok := shiftIndex(row, pos, count, insert)
		if !ok {
			return "", false, nil
		}
		row = row2
	} else {
		col2, ok := shiftIndex(col, pos, count, insert)
		if !ok {
			return "", false, nil
		}
		col = col2
	}
	moved, err := Format(col, row)
	if err != nil {
		return "", false, fmt.Errorf("shifting %q past the grid limit: %w", address, err)
	}
	return moved, true, nil
}

// shiftSpan applies the structural-shift rule to one axis of a range.
//
// Insert: a point strictly before the span shifts the whole span; a point
// inside the span (endpoints inclusive) grows the far edge; a point past the
// span leaves it untouched. Delete is symmetric, and ok is false when the
// deletion consumes the span entirely.
func shiftSpan(start, end, pos, count int, insert bool) (int, int, bool) {
	if insert {
		switch {
		case pos <= start:
			return start + count, end + count, true
		case pos <= end:
			return start, end + count, true
		default:
			return start, end, true
		}
	}
	if pos > end {
		return start, end, true
	}
	delEnd := pos + count - 1
	newStart := start
	if start >= pos {
		if start > delEnd {
			newStart = start - count
		} else {
			newStart = pos
		}
	}
	newEnd := end - count
	if end <= delEnd {
		newEnd = pos - 1
	}
	if newEnd < newStart {
		return 0, 0, false
	}
	return newStart, newEnd, true
}

// ShiftRows maps a range through a row insertion or deletion at pos.
// ok is false when a deletion destroys the range entirely. An insertion that
// would push the range past the grid limit is an error.
func ShiftRows(r Range, pos, count int, insert bool) (Range, bool, error) {
	start, end, ok := shiftSpan(r.StartRow, r.EndRow, pos, count, insert)
	if !ok {
		return Range{}, false, nil
	}
	if end > MaxRows {
		return Range{}, false, fmt.Errorf("shifting %s past row %d", r.String(), MaxRows)
	}
	r.StartRow, r.EndRow = start, end
	return r, true, nil
}

// ShiftCols maps a range through a column insertion or deletion at pos.
func ShiftCols(r Range, pos, count int, insert bool) (Range, bool, error) {
	start, end, ok := shiftSpan(r.StartCol, r.EndCol, pos, count, insert)
	if !ok {
		return Range{}, false, nil
	}
	if end > MaxCols {
		return Range{}, false, fmt.Errorf("shifting %s past column %d", r.String(), MaxCols)
	}
	r.StartCol, r.EndCol = start, end
	return r, true, nil
}
