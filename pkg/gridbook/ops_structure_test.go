package gridbook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okabe-dev/gridbook/pkg/gridbook/addr"
	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
)

func TestInsertRowsShiftsContent(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	mustApply(t, wb,
		EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.String("header")}},
		EditCell{SheetID: sheetID, Address: "A2", Patch: CellPatch{Raw: models.Number(10)}},
		EditCell{SheetID: sheetID, Address: "B2", Patch: CellPatch{Formula: strPtr("=A2*2")}},
		Merge{SheetID: sheetID, Ref: "A1:B1"},
		Merge{SheetID: sheetID, Ref: "C1:C3"},
	)

	res := mustApply(t, wb, InsertRows{SheetID: sheetID, Position: 2, Count: 2})

	sheet := wb.Sheets[0]
	assert.Equal(t, "header", sheet.Cell("A1").Raw.Value())
	assert.Nil(t, sheet.Cell("A2"))
	assert.Equal(t, float64(10), sheet.Cell("A4").Raw.Value())

	// The formula moved with its cell but its text is untouched; it now
	// points at an empty A2 and the engine reports that on recompute.
	moved := sheet.Cell("B4")
	require.NotNil(t, moved)
	assert.Equal(t, "=A2*2", moved.Formula)

	// Merge before the band stays; merge straddling the band grows.
	assert.Equal(t, []string{"A1:B1", "C1:C5"}, sheet.MergedRanges)

	assert.Equal(t, string(KindDeleteRows), res.Actions[0].Inverse.Kind)
	require.Len(t, res.AffectedRanges, 1)
	assert.Equal(t, "A2:ZZ4", res.AffectedRanges[0].Ref)
}

func TestDeleteRowsAndUndoRestoresClampedRanges(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	mustApply(t, wb,
		EditCell{SheetID: sheetID, Address: "A3", Patch: CellPatch{Raw: models.Number(3)}},
		EditCell{SheetID: sheetID, Address: "A4", Patch: CellPatch{Raw: models.Number(4)}},
		EditCell{SheetID: sheetID, Address: "A5", Patch: CellPatch{Raw: models.Number(5)}},
		Merge{SheetID: sheetID, Ref: "A3:A5"},
		SetNamedRange{SheetID: sheetID, Name: "band", Ref: "A4:A5"},
	)
	before := marshalWorkbook(t, wb)

	// Deleting rows 4..6 clamps the merge to A3:A3 and consumes the named
	// range entirely. A plain re-insert cannot rebuild either by shifting, so
	// the inverse restores the collections from a snapshot.
	res := mustApply(t, wb, DeleteRows{SheetID: sheetID, Position: 4, Count: 3})

	sheet := wb.Sheets[0]
	assert.Equal(t, float64(3), sheet.Cell("A3").Raw.Value())
	assert.Nil(t, sheet.Cell("A4"))
	assert.Nil(t, sheet.Cell("A5"))
	assert.Equal(t, []string{"A3:A3"}, sheet.MergedRanges)
	assert.NotContains(t, sheet.NamedRanges, "band")

	inverse, err := DecodeOperation(Kind(res.Actions[0].Inverse.Kind), res.Actions[0].Inverse.Payload)
	require.NoError(t, err)
	require.IsType(t, InsertRows{}, inverse)
	require.NotNil(t, inverse.(InsertRows).Restore)

	mustApply(t, wb, inverse)
	after := marshalWorkbook(t, wb)
	// History differs; the document content must not.
	wbBefore, wbAfter := models.NewWorkbook(), models.NewWorkbook()
	require.NoError(t, unmarshalWorkbook(before, wbBefore))
	require.NoError(t, unmarshalWorkbook(after, wbAfter))
	assert.Equal(t, wbBefore.Sheets[0].Cells, wbAfter.Sheets[0].Cells)
	assert.Equal(t, wbBefore.Sheets[0].MergedRanges, wbAfter.Sheets[0].MergedRanges)
	assert.Equal(t, wbBefore.Sheets[0].NamedRanges, wbAfter.Sheets[0].NamedRanges)
}

func TestDeleteColsShiftsAndDrops(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	mustApply(t, wb,
		EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.String("a")}},
		EditCell{SheetID: sheetID, Address: "B1", Patch: CellPatch{Raw: models.String("b")}},
		EditCell{SheetID: sheetID, Address: "D1", Patch: CellPatch{Raw: models.String("d")}},
	)

	mustApply(t, wb, DeleteCols{SheetID: sheetID, Position: 2, Count: 2})

	sheet := wb.Sheets[0]
	assert.Equal(t, "a", sheet.Cell("A1").Raw.Value())
	assert.Nil(t, sheet.Cell("C1"))
	assert.Equal(t, "d", sheet.Cell("B1").Raw.Value())
	assert.Len(t, sheet.Cells, 2)
}

func TestInsertColsShiftsWorkbookNamedRange(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	mustApply(t, wb,
		SetNamedRange{SheetID: sheetID, Name: "wide", Ref: "B1:D4", WorkbookScope: true},
		SetCondFormat{SheetID: sheetID, Format: models.ConditionalFormat{
			ID: "cf-1", Ref: "C1:C4", Rule: "less_than", Operand: "0",
		}},
	)

	mustApply(t, wb, InsertCols{SheetID: sheetID, Position: 1, Count: 1})

	assert.Equal(t, "C1:E4", wb.NamedRanges["wide"].Ref)
	require.Len(t, wb.Sheets[0].ConditionalFormats, 1)
	assert.Equal(t, "D1:D4", wb.Sheets[0].ConditionalFormats[0].Ref)
}

func TestStructuralRejectsBadPosition(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	for _, op := range []Operation{
		InsertRows{SheetID: sheetID, Position: 0, Count: 1},
		DeleteCols{SheetID: sheetID, Position: 1, Count: 0},
		InsertRows{SheetID: sheetID, Position: addr.MaxRows + 1, Count: 1},
		InsertCols{SheetID: sheetID, Position: addr.MaxCols + 1, Count: 1},
	} {
		res := ApplyOperations(wb, []Operation{op}, ApplyOptions{})
		assert.False(t, res.Success)
		assert.ErrorIs(t, res.Errors[0], ErrInvalidPosition)
	}
}

func TestInsertPastGridLimitFailsAndRollsBack(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	mustApply(t, wb,
		EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.String("corner")}},
		Merge{SheetID: sheetID, Ref: "XFC1:XFD1"},
	)
	before := marshalWorkbook(t, wb)

	// The merge sits at the last column; one inserted column pushes it off
	// the grid. The cell map has already been shifted by then, so the error
	// must surface through the snapshot rollback, not a panic.
	res := ApplyOperations(wb, []Operation{InsertCols{SheetID: sheetID, Position: 1, Count: 1}}, ApplyOptions{})
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], ErrInvalidPosition)
	assert.Equal(t, before, marshalWorkbook(t, wb), "failed shift must leave the workbook untouched")
	assert.Equal(t, "corner", wb.Sheets[0].Cell("A1").Raw.Value())

	// Cell overflow: the count is valid on its own but pushes A1 past the
	// last column.
	res = ApplyOperations(wb, []Operation{InsertCols{SheetID: sheetID, Position: 1, Count: addr.MaxCols}}, ApplyOptions{})
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], ErrInvalidPosition)
	assert.Equal(t, before, marshalWorkbook(t, wb))
}

func strPtr(s string) *string { return &s }

func unmarshalWorkbook(data string, wb *models.Workbook) error {
	*wb = models.Workbook{}
	return json.Unmarshal([]byte(data), wb)
}
