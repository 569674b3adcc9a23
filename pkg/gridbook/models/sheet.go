package models

import "github.com/okabe-dev/gridbook/pkg/gridbook/addr"

// NamedRange binds a name to a range reference. Names are scoped either to a
// sheet or to the whole workbook.
type NamedRange struct {
	// Name is the identifier used in formulas.
	Name string `json:"name"`
	// SheetID is the sheet the range lives on. For workbook-scoped names this
	// still identifies the target sheet of the reference.
	SheetID string `json:"sheet_id"`
	// Ref is the range reference ("A1:D3").
	Ref string `json:"ref"`
}

// ConditionalFormat is a formatting rule attached to a range.
type ConditionalFormat struct {
	// ID identifies the rule within its sheet.
	ID string `json:"id"`
	// Ref is the range the rule applies to ("A1:D3").
	Ref string `json:"ref"`
	// Rule is the condition kind ("greater_than", "less_than", "equal",
	// "contains", "between").
	Rule string `json:"rule"`
	// Operand is the comparison operand, rule dependent.
	Operand string `json:"operand,omitempty"`
	// Style is applied to matching cells.
	Style *Style `json:"style,omitempty"`
}

// Sheet is one worksheet: a sparse cell grid plus the range collections that
// must stay address-consistent under structural operations.
type Sheet struct {
	// ID is an opaque stable identifier; it is never reused even when the
	// sheet is renamed.
	ID string `json:"id"`
	// Name is the display name, unique within the workbook.
	Name string `json:"name"`
	// Cells maps "A1"-style addresses to cells. Only non-empty cells are
	// stored.
	Cells map[string]*Cell `json:"cells"`
	// MergedRanges lists merged spans ("A1:B2"). Ranges never overlap; the
	// merge and unmerge operations enforce this.
	MergedRanges []string `json:"merged_ranges,omitempty"`
	// ConditionalFormats lists formatting rules.
	ConditionalFormats []ConditionalFormat `json:"conditional_formats,omitempty"`
	// NamedRanges holds sheet-scoped named ranges keyed by name.
	NamedRanges map[string]NamedRange `json:"named_ranges,omitempty"`
}

// Cell returns the cell at address, or nil when absent.
func (s *Sheet) Cell(address string) *Cell {
	return s.Cells[address]
}

// SetCell stores a cell at address. Empty cells are removed instead.
func (s *Sheet) SetCell(address string, c *Cell) {
	if c.IsEmpty() {
		delete(s.Cells, address)
		return
	}
	if s.Cells == nil {
		s.Cells = make(map[string]*Cell)
	}
	s.Cells[address] = c
}

// DeleteCell removes the cell at address. Removing an absent cell is a no-op.
func (s *Sheet) DeleteCell(address string) {
	delete(s.Cells, address)
}

// HasMerge reports whether ref is currently a merged range on the sheet.
func (s *Sheet) HasMerge(ref string) bool {
	for _, m := range s.MergedRanges {
		if m == ref {
			return true
		}
	}
	return false
}

// RemoveMerge drops ref from the merged ranges. It reports whether the range
// was present.
func (s *Sheet) RemoveMerge(ref string) bool {
	for i, m := range s.MergedRanges {
		if m == ref {
			s.MergedRanges = append(s.MergedRanges[:i], s.MergedRanges[i+1:]...)
			return true
		}
	}
	return false
}

// ConditionalFormat returns the rule with the given id, or nil.
func (s *Sheet) ConditionalFormat(id string) *ConditionalFormat {
	for i := range s.ConditionalFormats {
		if s.ConditionalFormats[i].ID == id {
			return &s.ConditionalFormats[i]
		}
	}
	return nil
}

// RemoveConditionalFormat drops the rule with the given id and reports
// whether it was present.
func (s *Sheet) RemoveConditionalFormat(id string) bool {
	for i := range s.ConditionalFormats {
		if s.ConditionalFormats[i].ID == id {
			s.ConditionalFormats = append(s.ConditionalFormats[:i], s.ConditionalFormats[i+1:]...)
			return true
		}
	}
	return false
}

// MaxRow returns the highest stored row index, or 0 for an empty sheet.
func (s *Sheet) MaxRow() int {
	max := 0
	for address := range s.Cells {
		if _, row, err := addr.Parse(address); err == nil && row > max {
			max = row
		}
	}
	return max
}
