// Package recompute is the boundary between the operation engine and the
// external formula evaluation engine. The coordinator decides which cells to
// push after a batch of operations, triggers recalculation, and copies the
// computed results back into the workbook's cell cache. It is owned by the
// caller and never stored on the workbook: the engine handle is not
// serializable and must not travel with the document.
package recompute

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/okabe-dev/gridbook/pkg/gridbook/addr"
	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
)

// ErrorMarker prefixes formula-error sentinel values ("#REF!", "#NAME?").
const ErrorMarker = "#"

// AffectedRange names a range an applied operation touched on one sheet.
type AffectedRange struct {
	// SheetID is the stable sheet identifier.
	SheetID string `json:"sheet_id"`
	// Ref is the address or range that was touched ("B2", "A1:ZZ40").
	Ref string `json:"ref"`
}

// Engine is the external formula evaluation engine contract. The coordinator
// pushes raw values and formulas by sheet display name and reads back one
// evaluated string per cell.
type Engine interface {
	// EnsureSheet makes the named sheet exist in the engine.
	EnsureSheet(name string) error
	// RemoveSheet drops the named sheet. Formulas elsewhere that reference
	// it evaluate to an error sentinel afterwards.
	RemoveSheet(name string) error
	// Push sets a cell's raw value; nil clears the cell.
	Push(sheet, cellRef string, value any) error
	// PushFormula sets a cell's formula (leading "=" optional).
	PushFormula(sheet, cellRef, formula string) error
	// Eval returns the evaluated value of a cell, possibly an ErrorMarker
	// sentinel string.
	Eval(sheet, cellRef string) (string, error)
	// Version tags computed values with the evaluator identity.
	Version() string
	// Close releases the engine. The handle is unusable afterwards.
	Close() error
}

// Coordinator translates workbook changes into engine updates. It keeps
// track of which cells it has pushed so that deletions can be cleared from
// the engine on later passes. One coordinator serves one workbook across a
// sequence of apply calls.
type Coordinator struct {
	engine Engine
	logger *slog.Logger

	// names maps sheet ID to the display name last seen by the engine.
	names map[string]string
	// pushed records cell addresses pushed per sheet ID, so stale engine
	// cells can be cleared when the model drops them.
	pushed map[string]map[string]bool
}

// NewCoordinator wraps an engine. A nil engine is created lazily on the
// first Sync. A nil logger falls back to slog.Default().
func NewCoordinator(engine Engine, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		engine: engine,
		logger: logger.With(slog.String("component", "recompute")),
		names:  make(map[string]string),
		pushed: make(map[string]map[string]bool),
	}
}

// Engine exposes the underlying engine handle, creating one lazily.
func (c *Coordinator) Engine() Engine {
	if c.engine == nil {
		c.engine = NewExcelEngine()
	}
	return c.engine
}

// Close disposes the engine handle. The coordinator must not be used again.
func (c *Coordinator) Close() error {
	if c.engine == nil {
		return nil
	}
	return c.engine.Close()
}

// Sync pushes the current content of every cell inside the affected ranges,
// triggers recalculation, and writes computed values back into the workbook
// cell cache. A malformed range is skipped with a warning; it never aborts
// the rest of the pass. The returned warnings belong on the ApplyResult.
func (c *Coordinator) Sync(wb *models.Workbook, affected []AffectedRange) []string {
	return c.run(wb, affected, true)
}

// Stage pushes affected cells into the engine without reading computed
// values back. A later Sync (or any apply with SyncComputed true) completes
// the pass.
func (c *Coordinator) Stage(wb *models.Workbook, affected []AffectedRange) []string {
	return c.run(wb, affected, false)
}

func (c *Coordinator) run(wb *models.Workbook, affected []AffectedRange, readBack bool) []string {
	var warnings []string
	engine := c.Engine()

	warnings = append(warnings, c.reconcileSheets(wb, engine)...)

	for _, ar := range affected {
		sheet := wb.SheetByID(ar.SheetID)
		if sheet == nil {
			// Deleted sheet: reconcileSheets already removed it from the
			// engine, dependents pick up error sentinels below.
			continue
		}
		r, err := addr.ParseRange(ar.Ref)
		if err != nil {
			c.logger.Warn("skipping malformed affected range",
				slog.String("sheet", sheet.Name),
				slog.String("ref", ar.Ref),
				slog.String("error", err.Error()),
			)
			warnings = append(warnings, fmt.Sprintf("recompute: skipped malformed range %q on sheet %q", ar.Ref, sheet.Name))
			continue
		}
		warnings = append(warnings, c.pushRange(engine, sheet, r)...)
	}

	if !readBack {
		return warnings
	}
	warnings = append(warnings, c.readBack(wb, engine)...)
	return warnings
}

// reconcileSheets aligns the engine's sheet set with the workbook: creates
// missing sheets, renames tracked ones, and removes sheets the workbook no
// longer has.
func (c *Coordinator) reconcileSheets(wb *models.Workbook, engine Engine) []string {
	var warnings []string
	live := make(map[string]bool, len(wb.Sheets))
	for _, s := range wb.Sheets {
		live[s.ID] = true
		prior, known := c.names[s.ID]
		if known && prior != s.Name {
			// Renamed: move the engine sheet under the new name.
			if err := engine.RemoveSheet(prior); err != nil {
				warnings = append(warnings, fmt.Sprintf("recompute: dropping renamed sheet %q: %v", prior, err))
			}
			delete(c.pushed, s.ID)
			known = false
		}
		if !known {
			if err := engine.EnsureSheet(s.Name); err != nil {
				warnings = append(warnings, fmt.Sprintf("recompute: ensuring sheet %q: %v", s.Name, err))
				continue
			}
			c.names[s.ID] = s.Name
			// A fresh engine sheet has no cells yet; repush everything.
			warnings = append(warnings, c.pushAll(engine, s)...)
		}
	}
	for id, name := range c.names {
		if !live[id] {
			if err := engine.RemoveSheet(name); err != nil {
				warnings = append(warnings, fmt.Sprintf("recompute: removing sheet %q: %v", name, err))
			}
			delete(c.names, id)
			delete(c.pushed, id)
		}
	}
	return warnings
}

func (c *Coordinator) pushAll(engine Engine, sheet *models.Sheet) []string {
	var warnings []string
	for address, cell := range sheet.Cells {
		if !cell.HasContent() {
			continue
		}
		if err := c.pushCell(engine, sheet, address, cell); err != nil {
			warnings = append(warnings, fmt.Sprintf("recompute: pushing %s!%s: %v", sheet.Name, address, err))
		}
	}
	return warnings
}

// pushRange pushes every stored cell inside r and clears engine cells that
// were pushed earlier but have since been removed from the model.
func (c *Coordinator) pushRange(engine Engine, sheet *models.Sheet, r addr.Range) []string {
	var warnings []string
	for address, cell := range sheet.Cells {
		col, row, err := addr.Parse(address)
		if err != nil || !r.Contains(col, row) {
			continue
		}
		if !cell.HasContent() {
			continue
		}
		if err := c.pushCell(engine, sheet, address, cell); err != nil {
			warnings = append(warnings, fmt.Sprintf("recompute: pushing %s!%s: %v", sheet.Name, address, err))
		}
	}
	for address := range c.pushed[sheet.ID] {
		col, row, err := addr.Parse(address)
		if err != nil || !r.Contains(col, row) {
			continue
		}
		if cell := sheet.Cell(address); cell.HasContent() {
			continue
		}
		if err := engine.Push(sheet.Name, address, nil); err != nil {
			warnings = append(warnings, fmt.Sprintf("recompute: clearing %s!%s: %v", sheet.Name, address, err))
			continue
		}
		delete(c.pushed[sheet.ID], address)
	}
	return warnings
}

func (c *Coordinator) pushCell(engine Engine, sheet *models.Sheet, address string, cell *models.Cell) error {
	var err error
	if cell.Formula != "" {
		err = engine.PushFormula(sheet.Name, address, cell.Formula)
	} else {
		err = engine.Push(sheet.Name, address, cell.Raw.Value())
	}
	if err != nil {
		return err
	}
	if c.pushed[sheet.ID] == nil {
		c.pushed[sheet.ID] = make(map[string]bool)
	}
	c.pushed[sheet.ID][address] = true
	return nil
}

// readBack evaluates every formula cell in the workbook and stores the
// result in the cell's computed cache with a timestamp and engine version.
// Evaluation failures degrade to an error sentinel plus a warning.
func (c *Coordinator) readBack(wb *models.Workbook, engine Engine) []string {
	var warnings []string
	now := time.Now().UTC()
	version := engine.Version()
	for _, sheet := range wb.Sheets {
		for address, cell := range sheet.Cells {
			if cell.Formula == "" {
				continue
			}
			value, err := engine.Eval(sheet.Name, address)
			if err != nil && value == "" {
				c.logger.Warn("formula evaluation failed",
					slog.String("sheet", sheet.Name),
					slog.String("cell", address),
					slog.String("error", err.Error()),
				)
				warnings = append(warnings, fmt.Sprintf("recompute: evaluating %s!%s: %v", sheet.Name, address, err))
				value = ErrorMarker + "VALUE!"
			}
			cell.Computed = &models.ComputedValue{
				Value:         value,
				ComputedAt:    now,
				EngineVersion: version,
			}
		}
	}
	return warnings
}
