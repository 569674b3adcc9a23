package recompute

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// excelEngineVersion tags computed values produced by the excelize engine.
const excelEngineVersion = "excelize/v2.10"

// ExcelEngine evaluates formulas through an in-memory excelize workbook.
// The handle is a live resource: it is not serializable, must never be
// stored on the document model, and must be Closed when no longer needed.
type ExcelEngine struct {
	file *excelize.File
}

var _ Engine = (*ExcelEngine)(nil)

// NewExcelEngine creates an empty in-memory evaluation workbook.
func NewExcelEngine() *ExcelEngine {
	return &ExcelEngine{file: excelize.NewFile()}
}

// EnsureSheet creates the named sheet if it does not exist. The default
// "Sheet1" created by excelize is reused when the name matches, otherwise it
// lingers empty and harmless.
func (e *ExcelEngine) EnsureSheet(name string) error {
	idx, err := e.file.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("looking up sheet %q: %w", name, err)
	}
	if idx >= 0 {
		return nil
	}
	if _, err := e.file.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %q: %w", name, err)
	}
	return nil
}

// RemoveSheet drops the named sheet from the evaluation workbook.
func (e *ExcelEngine) RemoveSheet(name string) error {
	idx, err := e.file.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return nil
	}
	return e.file.DeleteSheet(name)
}

// Push sets a raw cell value; nil clears the cell.
func (e *ExcelEngine) Push(sheet, cellRef string, value any) error {
	return e.file.SetCellValue(sheet, cellRef, value)
}

// PushFormula sets a cell formula. A leading "=" is stripped, matching
// excelize's convention.
func (e *ExcelEngine) PushFormula(sheet, cellRef, formula string) error {
	return e.file.SetCellFormula(sheet, cellRef, strings.TrimPrefix(formula, "="))
}

// Eval computes a cell's value. Formula errors come back as "#"-prefixed
// sentinel strings rather than Go errors where excelize can express them.
func (e *ExcelEngine) Eval(sheet, cellRef string) (string, error) {
	return e.file.CalcCellValue(sheet, cellRef)
}

// Version identifies the evaluator for computed-value tagging.
func (e *ExcelEngine) Version() string {
	return excelEngineVersion
}

// Close releases the excelize workbook.
func (e *ExcelEngine) Close() error {
	return e.file.Close()
}
