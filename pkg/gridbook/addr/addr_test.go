package addr

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		col   int
		row   int
		ok    bool
	}{
		{"A1", 1, 1, true},
		{"B3", 2, 3, true},
		{"AA10", 27, 10, true},
		{"ZZ100", 702, 100, true},
		{"", 0, 0, false},
		{"1A", 0, 0, false},
		{"A0", 0, 0, false},
	}

	for _, tt := range tests {
		col, row, err := Parse(tt.input)
		if tt.ok && err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("Parse(%q) expected error, got (%d, %d)", tt.input, col, row)
			}
			continue
		}
		if col != tt.col || row != tt.row {
			t.Errorf("Parse(%q) = (%d, %d), expected (%d, %d)", tt.input, col, row, tt.col, tt.row)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, address := range []string{"A1", "B2", "Z9", "AA1", "AZ52", "ZZ702"} {
		col, row, err := Parse(address)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", address, err)
		}
		got, err := Format(col, row)
		if err != nil {
			t.Fatalf("Format(%d, %d) failed: %v", col, row, err)
		}
		if got != address {
			t.Errorf("round trip %q -> (%d, %d) -> %q", address, col, row, got)
		}
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		input string
		want  Range
		ok    bool
	}{
		{"A1:D3", Range{1, 1, 4, 3}, true},
		{"B2", Range{2, 2, 2, 2}, true},
		{"D3:A1", Range{1, 1, 4, 3}, true}, // normalized
		{"A1:B2:C3", Range{}, false},
		{"A1:?", Range{}, false},
	}

	for _, tt := range tests {
		got, err := ParseRange(tt.input)
		if tt.ok != (err == nil) {
			t.Errorf("ParseRange(%q) error = %v, expected ok=%v", tt.input, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseRange(%q) = %+v, expected %+v", tt.input, got, tt.want)
		}
	}
}

func TestRangeCells(t *testing.T) {
	r, err := ParseRange("B2:C3")
	if err != nil {
		t.Fatalf("ParseRange failed: %v", err)
	}
	want := []string{"B2", "C2", "B3", "C3"}
	got := r.Cells()
	if len(got) != len(want) {
		t.Fatalf("Cells() = %v, expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Cells()[%d] = %q, expected %q", i, got[i], want[i])
		}
	}
	if !r.Contains(3, 2) {
		t.Error("expected range to contain C2")
	}
	if r.Contains(1, 1) {
		t.Error("expected range not to contain A1")
	}
}

func TestShiftRowsInsert(t *testing.T) {
	base := Range{StartCol: 1, StartRow: 3, EndCol: 2, EndRow: 5} // A3:B5

	tests := []struct {
		name  string
		pos   int
		count int
		want  Range
	}{
		{"before start shifts whole range", 2, 2, Range{1, 5, 2, 7}},
		{"at start shifts whole range", 3, 1, Range{1, 4, 2, 6}},
		{"inside grows far edge", 4, 2, Range{1, 3, 2, 7}},
		{"at end grows far edge", 5, 1, Range{1, 3, 2, 6}},
		{"after end untouched", 6, 3, Range{1, 3, 2, 5}},
	}

	for _, tt := range tests {
		got, ok, err := ShiftRows(base, tt.pos, tt.count, true)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if !ok {
			t.Errorf("%s: unexpected drop", tt.name)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %+v, expected %+v", tt.name, got, tt.want)
		}
	}
}

func TestShiftRowsDelete(t *testing.T) {
	base := Range{StartCol: 1, StartRow: 3, EndCol: 2, EndRow: 5} // A3:B5

	tests := []struct {
		name  string
		pos   int
		count int
		want  Range
		ok    bool
	}{
		{"before start shifts up", 1, 2, Range{1, 1, 2, 3}, true},
		{"overlap at start contracts", 3, 1, Range{1, 3, 2, 4}, true},
		{"inside contracts far edge", 4, 1, Range{1, 3, 2, 4}, true},
		{"overlap past end clamps", 5, 3, Range{1, 3, 2, 4}, true},
		{"after end untouched", 6, 2, Range{1, 3, 2, 5}, true},
		{"covering delete drops range", 2, 5, Range{}, false},
		{"exact delete drops range", 3, 3, Range{}, false},
	}

	for _, tt := range tests {
		got, ok, err := ShiftRows(base, tt.pos, tt.count, false)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if ok != tt.ok {
			t.Errorf("%s: ok = %v, expected %v", tt.name, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("%s: got %+v, expected %+v", tt.name, got, tt.want)
		}
	}
}

func TestShiftColsDelete(t *testing.T) {
	base := Range{StartCol: 3, StartRow: 1, EndCol: 5, EndRow: 2} // C1:E2

	got, ok, err := ShiftCols(base, 1, 2, false)
	if err != nil || !ok || got != (Range{1, 1, 3, 2}) {
		t.Errorf("delete before: got %+v ok=%v err=%v", got, ok, err)
	}
	got, ok, err = ShiftCols(base, 4, 1, false)
	if err != nil || !ok || got != (Range{3, 1, 4, 2}) {
		t.Errorf("delete inside: got %+v ok=%v err=%v", got, ok, err)
	}
	if _, ok, err = ShiftCols(base, 3, 3, false); ok || err != nil {
		t.Errorf("expected covering column delete to drop range, ok=%v err=%v", ok, err)
	}
}

func TestShiftPastGridLimit(t *testing.T) {
	nearEdge := Range{StartCol: MaxCols - 1, StartRow: 1, EndCol: MaxCols, EndRow: 1}
	if _, _, err := ShiftCols(nearEdge, 1, 1, true); err == nil {
		t.Error("expected error shifting range past the last column")
	}
	if _, _, err := ShiftRows(Range{1, MaxRows, 1, MaxRows}, 1, 1, true); err == nil {
		t.Error("expected error shifting range past the last row")
	}
	// Still room: shifting up to the edge is fine.
	got, ok, err := ShiftCols(Range{1, 1, 2, 1}, 1, MaxCols-2, true)
	if err != nil || !ok || got.EndCol != MaxCols {
		t.Errorf("shift to edge: got %+v ok=%v err=%v", got, ok, err)
	}

	if _, _, err := ShiftAddress("A1", 1, MaxCols, false, true); err == nil {
		t.Error("expected error shifting cell past the last column")
	}
	moved, ok, err := ShiftAddress("A1", 1, MaxCols-1, false, true)
	if err != nil || !ok || moved != "XFD1" {
		t.Errorf("shift to edge: got %q ok=%v err=%v", moved, ok, err)
	}
}

func TestShiftAddress(t *testing.T) {
	got, ok, err := ShiftAddress("B3", 2, 1, true, true)
	if err != nil || !ok || got != "B4" {
		t.Errorf("insert row shift: got %q ok=%v err=%v", got, ok, err)
	}
	got, ok, err = ShiftAddress("B3", 1, 1, true, false)
	if err != nil || !ok || got != "B2" {
		t.Errorf("delete row shift: got %q ok=%v err=%v", got, ok, err)
	}
	_, ok, err = ShiftAddress("B3", 3, 1, true, false)
	if err != nil || ok {
		t.Errorf("delete of own row should drop cell, ok=%v err=%v", ok, err)
	}
	got, ok, err = ShiftAddress("B3", 1, 2, false, true)
	if err != nil || !ok || got != "D3" {
		t.Errorf("insert col shift: got %q ok=%v err=%v", got, ok, err)
	}
}
