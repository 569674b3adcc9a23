package gridbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
)

func TestUndoEmptyHistory(t *testing.T) {
	wb, _ := newTestWorkbook(t)
	_, err := Undo(wb, ApplyOptions{})
	require.Error(t, err)
	assert.True(t, IsNothingToUndo(err))

	_, err = Redo(wb, ApplyOptions{})
	require.Error(t, err)
	assert.True(t, IsNothingToRedo(err))
}

func TestUndoRedoRoundTrip(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	values := []string{"one", "two", "three"}
	for _, v := range values {
		mustApply(t, wb, EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.String(v)}})
	}
	require.Equal(t, 3, UndoDepth(wb))

	res, err := Undo(wb, ApplyOptions{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "two", wb.GetCell(sheetID, "A1").Raw.Value())

	_, err = Undo(wb, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "one", wb.GetCell(sheetID, "A1").Raw.Value())

	_, err = Undo(wb, ApplyOptions{})
	require.NoError(t, err)
	assert.Nil(t, wb.GetCell(sheetID, "A1"), "undoing the first edit removes the cell")
	assert.Equal(t, 0, UndoDepth(wb))
	assert.False(t, CanUndo(wb))
	require.True(t, CanRedo(wb))
	require.Len(t, wb.RedoStack, 3)

	for _, want := range values {
		_, err := Redo(wb, ApplyOptions{})
		require.NoError(t, err)
		assert.Equal(t, want, wb.GetCell(sheetID, "A1").Raw.Value())
	}
	assert.False(t, CanRedo(wb))
	assert.Equal(t, 3, UndoDepth(wb), "redo must restore the forward history")
}

func TestUndoDoesNotLogItself(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	mustApply(t, wb, EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.Number(1)}})
	mustApply(t, wb, EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.Number(2)}})

	_, err := Undo(wb, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, UndoDepth(wb), "undo must pop, not append")
}

func TestForwardApplyClearsRedoStack(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	mustApply(t, wb, EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.String("first")}})
	mustApply(t, wb, EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.String("second")}})

	_, err := Undo(wb, ApplyOptions{})
	require.NoError(t, err)
	require.True(t, CanRedo(wb))

	// A fresh edit branches history; the redo path is gone.
	mustApply(t, wb, EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.String("branch")}})
	assert.False(t, CanRedo(wb))

	_, err = Redo(wb, ApplyOptions{})
	require.Error(t, err)
	assert.True(t, IsNothingToRedo(err))
}

func TestNoopBatchKeepsRedoHistory(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	mustApply(t, wb, EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.String("kept")}})

	_, err := Undo(wb, ApplyOptions{})
	require.NoError(t, err)
	require.True(t, CanRedo(wb))
	modified := wb.ModifiedAt

	// Deleting a cell that was never set changes nothing; the redo path
	// and the modification timestamp must both survive it.
	res := ApplyOperations(wb, []Operation{DeleteCell{SheetID: sheetID, Address: "Z9"}}, ApplyOptions{})
	require.True(t, res.Success)
	assert.Empty(t, res.Actions)
	assert.NotEmpty(t, res.Warnings)
	assert.True(t, CanRedo(wb))
	assert.Equal(t, modified, wb.ModifiedAt)

	_, err = Redo(wb, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, "kept", wb.GetCell(sheetID, "A1").Raw.Value())
}

func TestUndoStructuralDelete(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	mustApply(t, wb,
		EditCell{SheetID: sheetID, Address: "A2", Patch: CellPatch{Raw: models.Number(10)}},
		EditCell{SheetID: sheetID, Address: "A3", Patch: CellPatch{Raw: models.Number(20)}},
		Merge{SheetID: sheetID, Ref: "A2:B3"},
	)
	mustApply(t, wb, DeleteRows{SheetID: sheetID, Position: 2, Count: 2})
	assert.Empty(t, wb.Sheets[0].Cells)
	assert.Empty(t, wb.Sheets[0].MergedRanges)

	_, err := Undo(wb, ApplyOptions{})
	require.NoError(t, err)

	sheet := wb.Sheets[0]
	assert.Equal(t, float64(10), sheet.Cell("A2").Raw.Value())
	assert.Equal(t, float64(20), sheet.Cell("A3").Raw.Value())
	assert.Equal(t, []string{"A2:B3"}, sheet.MergedRanges)
}

func TestUndoSheetDeletion(t *testing.T) {
	wb, _ := newTestWorkbook(t)
	mustApply(t, wb, AddSheet{Name: "Data"})
	dataID := wb.SheetByName("Data").ID
	mustApply(t, wb, EditCell{SheetID: dataID, Address: "C1", Patch: CellPatch{Raw: models.String("payload")}})
	mustApply(t, wb, DeleteSheet{SheetID: dataID})
	require.Len(t, wb.Sheets, 1)

	_, err := Undo(wb, ApplyOptions{})
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 2)
	restored := wb.SheetByID(dataID)
	require.NotNil(t, restored)
	assert.Equal(t, 1, restoredIndex(wb, dataID), "sheet returns to its former position")
	assert.Equal(t, "payload", restored.Cell("C1").Raw.Value())
}

func restoredIndex(wb *models.Workbook, sheetID string) int {
	for i, s := range wb.Sheets {
		if s.ID == sheetID {
			return i
		}
	}
	return -1
}
