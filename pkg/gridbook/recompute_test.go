package gridbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
	"github.com/okabe-dev/gridbook/pkg/gridbook/recompute"
)

func TestApplyWithRecompute(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	coord := recompute.NewCoordinator(recompute.NewExcelEngine(), nil)
	defer coord.Close()
	opts := ApplyOptions{Recompute: coord}

	res := ApplyOperations(wb, []Operation{
		EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.Number(10)}},
		EditCell{SheetID: sheetID, Address: "A2", Patch: CellPatch{Raw: models.Number(20)}},
		EditCell{SheetID: sheetID, Address: "B1", Patch: CellPatch{Formula: strPtr("=A1+A2")}},
	}, opts)
	require.True(t, res.Success, "apply failed: %v", res.Errors)

	computed := wb.GetCell(sheetID, "B1").Computed
	require.NotNil(t, computed)
	assert.Equal(t, "30", computed.Value)
}

func TestInsertRowDoesNotRewriteFormulas(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	coord := recompute.NewCoordinator(recompute.NewExcelEngine(), nil)
	defer coord.Close()
	opts := ApplyOptions{Recompute: coord}

	res := ApplyOperations(wb, []Operation{
		EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.Number(10)}},
		EditCell{SheetID: sheetID, Address: "A2", Patch: CellPatch{Raw: models.Number(20)}},
		EditCell{SheetID: sheetID, Address: "B2", Patch: CellPatch{Formula: strPtr("=A2")}},
	}, opts)
	require.True(t, res.Success, "apply failed: %v", res.Errors)
	assert.Equal(t, "20", wb.GetCell(sheetID, "B2").Computed.Value)

	res = ApplyOperations(wb, []Operation{
		InsertRows{SheetID: sheetID, Position: 2, Count: 1},
	}, opts)
	require.True(t, res.Success, "apply failed: %v", res.Errors)

	// The formula cell moved to B3 but still reads "=A2", which is now an
	// empty cell. References are deliberately not rewritten on structural
	// shifts; the recomputed value reflects the new grid as-is.
	moved := wb.GetCell(sheetID, "B3")
	require.NotNil(t, moved)
	assert.Equal(t, "=A2", moved.Formula)
	require.NotNil(t, moved.Computed)
	assert.NotEqual(t, "20", moved.Computed.Value)
}

func TestSkipRecomputeLeavesCacheAlone(t *testing.T) {
	wb, sheetID := newTestWorkbook(t)
	coord := recompute.NewCoordinator(recompute.NewExcelEngine(), nil)
	defer coord.Close()

	res := ApplyOperations(wb, []Operation{
		EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.Number(1)}},
		EditCell{SheetID: sheetID, Address: "B1", Patch: CellPatch{Formula: strPtr("=A1")}},
	}, ApplyOptions{Recompute: coord, SkipRecompute: true})
	require.True(t, res.Success)
	assert.Nil(t, wb.GetCell(sheetID, "B1").Computed)

	// Staged apply pushes but defers the read-back.
	syncOff := false
	res = ApplyOperations(wb, []Operation{
		EditCell{SheetID: sheetID, Address: "A1", Patch: CellPatch{Raw: models.Number(5)}},
	}, ApplyOptions{Recompute: coord, SyncComputed: &syncOff})
	require.True(t, res.Success)
	assert.Nil(t, wb.GetCell(sheetID, "B1").Computed)
}
