// Package models defines the serializable workbook document model. The whole
// aggregate is plain data: no functions, no live handles, lossless JSON
// round-trip. Mutation beyond the basic lifecycle helpers here goes through
// the operation engine so that every change stays reversible.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrLastSheet is returned when deleting the workbook's only sheet.
var ErrLastSheet = errors.New("cannot delete the last remaining sheet")

// ErrSheetNameTaken is returned when a sheet name is already in use.
var ErrSheetNameTaken = errors.New("sheet name already in use")

// ErrSheetNotFound is returned when a sheet ID or name resolves to nothing.
var ErrSheetNotFound = errors.New("sheet not found")

// Workbook is the root document aggregate. It owns its sheets exclusively.
type Workbook struct {
	// Sheets is the ordered sheet list. Never empty.
	Sheets []*Sheet `json:"sheets"`
	// NamedRanges holds workbook-scoped named ranges keyed by name.
	NamedRanges map[string]NamedRange `json:"named_ranges,omitempty"`
	// ActionLog is the bounded history of applied actions, oldest first.
	ActionLog []Action `json:"action_log,omitempty"`
	// RedoStack holds undone actions awaiting redo, oldest first. Applying a
	// new forward operation clears it.
	RedoStack []Action `json:"redo_stack,omitempty"`
	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"created_at"`
	// ModifiedAt is bumped on every successful mutation.
	ModifiedAt time.Time `json:"modified_at"`
}

// NewWorkbook creates a workbook with one default sheet named "Sheet1".
func NewWorkbook() *Workbook {
	now := time.Now().UTC()
	wb := &Workbook{
		NamedRanges: make(map[string]NamedRange),
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	wb.Sheets = append(wb.Sheets, newSheet("Sheet1"))
	return wb
}

func newSheet(name string) *Sheet {
	return &Sheet{
		ID:          uuid.NewString(),
		Name:        name,
		Cells:       make(map[string]*Cell),
		NamedRanges: make(map[string]NamedRange),
	}
}

// SheetByID returns the sheet with the given ID, or nil.
func (w *Workbook) SheetByID(id string) *Sheet {
	for _, s := range w.Sheets {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// SheetByName returns the sheet with the given display name, or nil.
func (w *Workbook) SheetByName(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// AddSheet appends a new sheet. An empty name picks the first free "SheetN".
func (w *Workbook) AddSheet(name string) (*Sheet, error) {
	if name == "" {
		for n := len(w.Sheets) + 1; ; n++ {
			candidate := fmt.Sprintf("Sheet%d", n)
			if w.SheetByName(candidate) == nil {
				name = candidate
				break
			}
		}
	}
	if w.SheetByName(name) != nil {
		return nil, fmt.Errorf("%w: %q", ErrSheetNameTaken, name)
	}
	s := newSheet(name)
	w.Sheets = append(w.Sheets, s)
	return s, nil
}

// RestoreSheet re-inserts a previously deleted sheet at position index,
// keeping its original ID and contents. Used by undo.
func (w *Workbook) RestoreSheet(s *Sheet, index int) error {
	if w.SheetByID(s.ID) != nil || w.SheetByName(s.Name) != nil {
		return fmt.Errorf("%w: %q", ErrSheetNameTaken, s.Name)
	}
	if index < 0 || index > len(w.Sheets) {
		index = len(w.Sheets)
	}
	w.Sheets = append(w.Sheets[:index], append([]*Sheet{s}, w.Sheets[index:]...)...)
	return nil
}

// RemoveSheet deletes the sheet with the given ID and returns it together
// with its former position. Deleting the last sheet is forbidden.
func (w *Workbook) RemoveSheet(id string) (*Sheet, int, error) {
	if len(w.Sheets) <= 1 {
		return nil, 0, ErrLastSheet
	}
	for i, s := range w.Sheets {
		if s.ID == id {
			w.Sheets = append(w.Sheets[:i], w.Sheets[i+1:]...)
			return s, i, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: %q", ErrSheetNotFound, id)
}

// RenameSheet changes a sheet's display name. The ID is untouched.
func (w *Workbook) RenameSheet(id, name string) error {
	s := w.SheetByID(id)
	if s == nil {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, id)
	}
	if other := w.SheetByName(name); other != nil && other.ID != id {
		return fmt.Errorf("%w: %q", ErrSheetNameTaken, name)
	}
	s.Name = name
	return nil
}

// GetCell returns the cell at address on the named sheet, or nil.
func (w *Workbook) GetCell(sheetID, address string) *Cell {
	s := w.SheetByID(sheetID)
	if s == nil {
		return nil
	}
	return s.Cell(address)
}

// SetCell stores a cell on a sheet, dropping it when empty.
func (w *Workbook) SetCell(sheetID, address string, c *Cell) error {
	s := w.SheetByID(sheetID)
	if s == nil {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, sheetID)
	}
	s.SetCell(address, c)
	return nil
}

// DeleteCell removes the cell at address on a sheet.
func (w *Workbook) DeleteCell(sheetID, address string) error {
	s := w.SheetByID(sheetID)
	if s == nil {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, sheetID)
	}
	s.DeleteCell(address)
	return nil
}

// Touch bumps the modification timestamp.
func (w *Workbook) Touch() {
	w.ModifiedAt = time.Now().UTC()
}
