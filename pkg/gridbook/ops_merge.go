package gridbook

import (
	"fmt"

	"github.com/okabe-dev/gridbook/pkg/gridbook/addr"
	"github.com/okabe-dev/gridbook/pkg/gridbook/models"
	"github.com/okabe-dev/gridbook/pkg/gridbook/recompute"
)

func rangesOverlap(a, b addr.Range) bool {
	return a.StartCol <= b.EndCol && b.StartCol <= a.EndCol &&
		a.StartRow <= b.EndRow && b.StartRow <= a.EndRow
}

func applyMerge(wb *models.Workbook, op Merge) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	r, err := addr.ParseRange(op.Ref)
	if err != nil {
		return applied{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	ref := r.String()
	for _, existing := range sheet.MergedRanges {
		er, err := addr.ParseRange(existing)
		if err != nil {
			return applied{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		if rangesOverlap(r, er) {
			return applied{}, fmt.Errorf("%w: %s overlaps %s", ErrMergeOverlap, ref, existing)
		}
	}
	sheet.MergedRanges = append(sheet.MergedRanges, ref)
	return applied{
		inverse:  Unmerge{SheetID: op.SheetID, Ref: ref},
		affected: []recompute.AffectedRange{{SheetID: op.SheetID, Ref: ref}},
	}, nil
}

func applyUnmerge(wb *models.Workbook, op Unmerge) (applied, error) {
	sheet, err := sheetFor(wb, op.SheetID)
	if err != nil {
		return applied{}, err
	}
	r, err := addr.ParseRange(op.Ref)
	if err != nil {
		return applied{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	ref := r.String()
	if !sheet.RemoveMerge(ref) {
		return applied{
			noop:     true,
			warnings: []string{fmt.Sprintf("unmerge: %s on sheet %q is not merged", ref, sheet.Name)},
		}, nil
	}
	return applied{
		inverse:  Merge{SheetID: op.SheetID, Ref: ref},
		affected: []recompute.AffectedRange{{SheetID: op.SheetID, Ref: ref}},
	}, nil
}
