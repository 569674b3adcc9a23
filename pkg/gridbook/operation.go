// Package gridbook implements the transactional operation layer of the
// workbook engine: batch application with snapshot rollback, exact inverse
// generation for every operation kind, a bounded action log, and undo/redo
// replaying inverses through the same apply path.
package gridbook

import (
	"encoding/json"
	"fmt"

	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
)

// Kind tags an operation. The set of kinds is closed: every kind appearing
// here must be handled by validation, apply and decode, and the type switches
// fail loudly on anything else.
type Kind string

const (
	KindEditCell         Kind = "edit-cell"
	KindDeleteCell       Kind = "delete-cell"
	KindInsertRows       Kind = "insert-row"
	KindInsertCols       Kind = "insert-col"
	KindDeleteRows       Kind = "delete-row"
	KindDeleteCols       Kind = "delete-col"
	KindMerge            Kind = "merge"
	KindUnmerge          Kind = "unmerge"
	KindSetStyle         Kind = "set-style"
	KindSetStyleProps    Kind = "set-style-props"
	KindSetColor         Kind = "set-color"
	KindSetFormat        Kind = "set-format"
	KindSetRange         Kind = "set-range"
	KindAddSheet         Kind = "add-sheet"
	KindDeleteSheet      Kind = "delete-sheet"
	KindRenameSheet      Kind = "rename-sheet"
	KindSetNamedRange    Kind = "set-named-range"
	KindDeleteNamedRange Kind = "delete-named-range"
	KindSetCondFormat    Kind = "set-conditional-format"
	KindDeleteCondFormat Kind = "delete-conditional-format"
)

// Operation is one atomic workbook mutation. Implementations form a closed
// set; external packages construct them but cannot add new kinds.
type Operation interface {
	// Kind returns the operation's type tag.
	Kind() Kind
	// TargetSheet returns the target sheet ID, empty for workbook-level
	// operations such as add-sheet.
	TargetSheet() string

	isOperation()
}

// CellPatch is a partial cell update. Nil fields leave the existing value in
// place; set fields overwrite it.
type CellPatch struct {
	// Raw replaces the literal value.
	Raw *models.LiteralValue `json:"raw,omitempty"`
	// Formula replaces the formula text ("" clears it).
	Formula *string `json:"formula,omitempty"`
	// Style replaces the whole style object.
	Style *models.Style `json:"style,omitempty"`
	// NumberFormat replaces the number format string ("" clears it).
	NumberFormat *string `json:"number_format,omitempty"`
}

// EditCell updates one cell. With Replace false the patch is merged over the
// existing content; with Replace true Prior fully replaces the cell (the form
// inverses take).
type EditCell struct {
	SheetID string    `json:"sheet_id"`
	Address string    `json:"address"`
	Patch   CellPatch `json:"patch,omitempty"`
	// Replace switches to full-replacement mode using Prior.
	Replace bool `json:"replace,omitempty"`
	// Prior is the exact cell state to restore in replacement mode.
	Prior *models.Cell `json:"prior,omitempty"`
}

// DeleteCell removes one cell entirely.
type DeleteCell struct {
	SheetID string `json:"sheet_id"`
	Address string `json:"address"`
}

// StructRestore carries the state a row/column deletion destroyed so the
// inverse insertion restores it exactly. Cells holds only the cells the
// deleted band consumed; the range collections are full pre-deletion
// snapshots, because a clamped range cannot be recovered by shifting alone.
type StructRestore struct {
	// Cells maps addresses inside the deleted band to their former content.
	Cells map[string]*models.Cell `json:"cells,omitempty"`
	// Merges is the sheet's full merged-range list before the deletion.
	Merges []string `json:"merges,omitempty"`
	// Formats is the full conditional-format list before the deletion.
	Formats []models.ConditionalFormat `json:"formats,omitempty"`
	// SheetNamed is the full sheet-scoped named-range set before the deletion.
	SheetNamed []models.NamedRange `json:"sheet_named,omitempty"`
	// BookNamed snapshots workbook-scoped named ranges targeting the sheet.
	BookNamed []models.NamedRange `json:"book_named,omitempty"`
}

// InsertRows inserts Count rows at Position, shifting rows >= Position down.
type InsertRows struct {
	SheetID  string `json:"sheet_id"`
	Position int    `json:"position"`
	Count    int    `json:"count"`
	// Restore, when set, re-adds content a prior deletion destroyed.
	Restore *StructRestore `json:"restore,omitempty"`
}

// InsertCols inserts Count columns at Position.
type InsertCols struct {
	SheetID  string         `json:"sheet_id"`
	Position int            `json:"position"`
	Count    int            `json:"count"`
	Restore  *StructRestore `json:"restore,omitempty"`
}

// DeleteRows removes Count rows starting at Position.
type DeleteRows struct {
	SheetID  string `json:"sheet_id"`
	Position int    `json:"position"`
	Count    int    `json:"count"`
}

// DeleteCols removes Count columns starting at Position.
type DeleteCols struct {
	SheetID  string `json:"sheet_id"`
	Position int    `json:"position"`
	Count    int    `json:"count"`
}

// Merge adds a merged range. Overlap with an existing merge is an error.
type Merge struct {
	SheetID string `json:"sheet_id"`
	Ref     string `json:"ref"`
}

// Unmerge removes a merged range. Unmerging an absent range is a warning
// no-op, not an error.
type Unmerge struct {
	SheetID string `json:"sheet_id"`
	Ref     string `json:"ref"`
}

// SetStyle replaces a cell's whole style object. Nil clears it.
type SetStyle struct {
	SheetID string        `json:"sheet_id"`
	Address string        `json:"address"`
	Style   *models.Style `json:"style"`
}

// SetStyleProps merges a partial style over the cell's existing style.
type SetStyleProps struct {
	SheetID string        `json:"sheet_id"`
	Address string        `json:"address"`
	Style   *models.Style `json:"style"`
}

// ColorChannel selects which color a SetColor operation targets.
type ColorChannel string

const (
	// ChannelFont targets the font color.
	ChannelFont ColorChannel = "font"
	// ChannelBackground targets the background fill color.
	ChannelBackground ColorChannel = "background"
)

// SetColor sets or clears one color channel on a cell's style.
type SetColor struct {
	SheetID string       `json:"sheet_id"`
	Address string       `json:"address"`
	Channel ColorChannel `json:"channel"`
	// Value is the hex color, nil to clear the channel.
	Value *string `json:"value"`
}

// SetFormat sets a cell's number format string ("" clears it).
type SetFormat struct {
	SheetID string `json:"sheet_id"`
	Address string `json:"address"`
	Format  string `json:"format"`
}

// SetRange patches every addressed cell inside a range in one operation.
// In replacement mode Prior maps addresses to exact cell states, with nil
// meaning the cell was absent.
type SetRange struct {
	SheetID string               `json:"sheet_id"`
	Ref     string               `json:"ref"`
	Cells   map[string]CellPatch `json:"cells,omitempty"`
	Replace bool                 `json:"replace,omitempty"`
	Prior   map[string]*models.Cell `json:"prior,omitempty"`
}

// AddSheet appends a new sheet. Restore re-inserts a previously deleted
// sheet with its original ID and contents (the inverse of delete-sheet).
type AddSheet struct {
	Name    string        `json:"name,omitempty"`
	Restore *models.Sheet `json:"restore,omitempty"`
	// Index is the position to restore at; ignored unless Restore is set.
	Index int `json:"index,omitempty"`
	// BookNamed re-adds workbook-scoped named ranges that targeted the
	// restored sheet and were dropped with it.
	BookNamed []models.NamedRange `json:"book_named,omitempty"`
}

// DeleteSheet removes a sheet. Forbidden on the last remaining sheet.
type DeleteSheet struct {
	SheetID string `json:"sheet_id"`
}

// RenameSheet changes a sheet's display name.
type RenameSheet struct {
	SheetID string `json:"sheet_id"`
	Name    string `json:"name"`
}

// SetNamedRange creates or updates a named range, sheet- or workbook-scoped.
type SetNamedRange struct {
	SheetID       string `json:"sheet_id"`
	Name          string `json:"name"`
	Ref           string `json:"ref"`
	WorkbookScope bool   `json:"workbook_scope,omitempty"`
}

// DeleteNamedRange removes a named range.
type DeleteNamedRange struct {
	SheetID       string `json:"sheet_id"`
	Name          string `json:"name"`
	WorkbookScope bool   `json:"workbook_scope,omitempty"`
}

// SetCondFormat creates or updates a conditional-format rule. An empty rule
// ID is assigned on apply.
type SetCondFormat struct {
	SheetID string                   `json:"sheet_id"`
	Format  models.ConditionalFormat `json:"format"`
}

// DeleteCondFormat removes a conditional-format rule by ID.
type DeleteCondFormat struct {
	SheetID string `json:"sheet_id"`
	ID      string `json:"id"`
}

func (o EditCell) Kind() Kind         { return KindEditCell }
func (o DeleteCell) Kind() Kind       { return KindDeleteCell }
func (o InsertRows) Kind() Kind       { return KindInsertRows }
func (o InsertCols) Kind() Kind       { return KindInsertCols }
func (o DeleteRows) Kind() Kind       { return KindDeleteRows }
func (o DeleteCols) Kind() Kind       { return KindDeleteCols }
func (o Merge) Kind() Kind            { return KindMerge }
func (o Unmerge) Kind() Kind          { return KindUnmerge }
func (o SetStyle) Kind() Kind         { return KindSetStyle }
func (o SetStyleProps) Kind() Kind    { return KindSetStyleProps }
func (o SetColor) Kind() Kind         { return KindSetColor }
func (o SetFormat) Kind() Kind        { return KindSetFormat }
func (o SetRange) Kind() Kind         { return KindSetRange }
func (o AddSheet) Kind() Kind         { return KindAddSheet }
func (o DeleteSheet) Kind() Kind      { return KindDeleteSheet }
func (o RenameSheet) Kind() Kind      { return KindRenameSheet }
func (o SetNamedRange) Kind() Kind    { return KindSetNamedRange }
func (o DeleteNamedRange) Kind() Kind { return KindDeleteNamedRange }
func (o SetCondFormat) Kind() Kind    { return KindSetCondFormat }
func (o DeleteCondFormat) Kind() Kind { return KindDeleteCondFormat }

func (o EditCell) TargetSheet() string         { return o.SheetID }
func (o DeleteCell) TargetSheet() string       { return o.SheetID }
func (o InsertRows) TargetSheet() string       { return o.SheetID }
func (o InsertCols) TargetSheet() string       { return o.SheetID }
func (o DeleteRows) TargetSheet() string       { return o.SheetID }
func (o DeleteCols) TargetSheet() string       { return o.SheetID }
func (o Merge) TargetSheet() string            { return o.SheetID }
func (o Unmerge) TargetSheet() string          { return o.SheetID }
func (o SetStyle) TargetSheet() string         { return o.SheetID }
func (o SetStyleProps) TargetSheet() string    { return o.SheetID }
func (o SetColor) TargetSheet() string         { return o.SheetID }
func (o SetFormat) TargetSheet() string        { return o.SheetID }
func (o SetRange) TargetSheet() string         { return o.SheetID }
func (o AddSheet) TargetSheet() string         { return "" }
func (o DeleteSheet) TargetSheet() string      { return o.SheetID }
func (o RenameSheet) TargetSheet() string      { return o.SheetID }
func (o SetNamedRange) TargetSheet() string    { return o.SheetID }
func (o DeleteNamedRange) TargetSheet() string { return o.SheetID }
func (o SetCondFormat) TargetSheet() string    { return o.SheetID }
func (o DeleteCondFormat) TargetSheet() string { return o.SheetID }

func (EditCell) isOperation()         {}
func (DeleteCell) isOperation()       {}
func (InsertRows) isOperation()       {}
func (InsertCols) isOperation()       {}
func (DeleteRows) isOperation()       {}
func (DeleteCols) isOperation()       {}
func (Merge) isOperation()            {}
func (Unmerge) isOperation()          {}
func (SetStyle) isOperation()         {}
func (SetStyleProps) isOperation()    {}
func (SetColor) isOperation()         {}
func (SetFormat) isOperation()        {}
func (SetRange) isOperation()         {}
func (AddSheet) isOperation()         {}
func (DeleteSheet) isOperation()      {}
func (RenameSheet) isOperation()      {}
func (SetNamedRange) isOperation()    {}
func (DeleteNamedRange) isOperation() {}
func (SetCondFormat) isOperation()    {}
func (DeleteCondFormat) isOperation() {}

// EncodeOperation serializes an operation to its JSON payload.
func EncodeOperation(op Operation) (json.RawMessage, error) {
	data, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("encoding %s operation: %w", op.Kind(), err)
	}
	return data, nil
}

// DecodeOperation rebuilds an operation from its kind tag and JSON payload,
// the exact reverse of EncodeOperation. Unknown kinds are an error.
func DecodeOperation(kind Kind, payload json.RawMessage) (Operation, error) {
	var op Operation
	switch kind {
	case KindEditCell:
		op = &EditCell{}
	case KindDeleteCell:
		op = &DeleteCell{}
	case KindInsertRows:
		op = &InsertRows{}
	case KindInsertCols:
		op = &InsertCols{}
	case KindDeleteRows:
		op = &DeleteRows{}
	case KindDeleteCols:
		op = &DeleteCols{}
	case KindMerge:
		op = &Merge{}
	case KindUnmerge:
		op = &Unmerge{}
	case KindSetStyle:
		op = &SetStyle{}
	case KindSetStyleProps:
		op = &SetStyleProps{}
	case KindSetColor:
		op = &SetColor{}
	case KindSetFormat:
		op = &SetFormat{}
	case KindSetRange:
		op = &SetRange{}
	case KindAddSheet:
		op = &AddSheet{}
	case KindDeleteSheet:
		op = &DeleteSheet{}
	case KindRenameSheet:
		op = &RenameSheet{}
	case KindSetNamedRange:
		op = &SetNamedRange{}
	case KindDeleteNamedRange:
		op = &DeleteNamedRange{}
	case KindSetCondFormat:
		op = &SetCondFormat{}
	case KindDeleteCondFormat:
		op = &DeleteCondFormat{}
	default:
		return nil, fmt.Errorf("unknown operation kind %q", kind)
	}
	if err := json.Unmarshal(payload, op); err != nil {
		return nil, fmt.Errorf("decoding %s operation: %w", kind, err)
	}
	return deref(op), nil
}

// deref returns the value form of a decoded operation pointer so that both
// encode paths produce identical payloads.
func deref(op Operation) Operation {
	switch o := op.(type) {
	case *EditCell:
		return *o
	case *DeleteCell:
		return *o
	case *InsertRows:
		return *o
	case *InsertCols:
		return *o
	case *DeleteRows:
		return *o
	case *DeleteCols:
		return *o
	case *Merge:
		return *o
	case *Unmerge:
		return *o
	case *SetStyle:
		return *o
	case *SetStyleProps:
		return *o
	case *SetColor:
		return *o
	case *SetFormat:
		return *o
	case *SetRange:
		return *o
	case *AddSheet:
		return *o
	case *DeleteSheet:
		return *o
	case *RenameSheet:
		return *o
	case *SetNamedRange:
		return *o
	case *DeleteNamedRange:
		return *o
	case *SetCondFormat:
		return *o
	case *DeleteCondFormat:
		return *o
	default:
		return op
	}
}
