package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// LiteralValue is a raw cell literal: a string, a number, or a boolean.
// Exactly one of the fields is set.
type LiteralValue struct {
	// Str holds a string literal.
	Str *string `json:"str,omitempty"`
	// Num holds a numeric literal.
	Num *float64 `json:"num,omitempty"`
	// Bool holds a boolean literal.
	Bool *bool `json:"bool,omitempty"`
}

// String builds a string literal.
func String(s string) *LiteralValue { return &LiteralValue{Str: &s} }

// Number builds a numeric literal.
func Number(n float64) *LiteralValue { return &LiteralValue{Num: &n} }

// Boolean builds a boolean literal.
func Boolean(b bool) *LiteralValue { return &LiteralValue{Bool: &b} }

// Value returns the literal as a plain Go value (string, float64 or bool),
// or nil for an empty literal.
func (v *LiteralValue) Value() any {
	if v == nil {
		return nil
	}
	switch {
	case v.Str != nil:
		return *v.Str
	case v.Num != nil:
		return *v.Num
	case v.Bool != nil:
		return *v.Bool
	}
	return nil
}

// Equal reports whether two literals hold the same value.
func (v *LiteralValue) Equal(o *LiteralValue) bool {
	return v.Value() == o.Value()
}

// MarshalJSON renders the literal as its bare scalar.
func (v LiteralValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Value())
}

// UnmarshalJSON accepts a bare scalar (string, number or boolean).
func (v *LiteralValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case string:
		v.Str, v.Num, v.Bool = &t, nil, nil
	case float64:
		v.Str, v.Num, v.Bool = nil, &t, nil
	case bool:
		v.Str, v.Num, v.Bool = nil, nil, &t
	case nil:
		v.Str, v.Num, v.Bool = nil, nil, nil
	default:
		return fmt.Errorf("unsupported literal type %T", raw)
	}
	return nil
}

// Style holds presentational cell properties. All fields are optional; an
// empty string means the property is unset.
type Style struct {
	// Bold toggles bold text.
	Bold *bool `json:"bold,omitempty"`
	// Italic toggles italic text.
	Italic *bool `json:"italic,omitempty"`
	// Underline toggles underlined text.
	Underline *bool `json:"underline,omitempty"`
	// FontColor is a hex color for the glyphs ("#RRGGBB").
	FontColor string `json:"font_color,omitempty"`
	// BackgroundColor is a hex fill color ("#RRGGBB").
	BackgroundColor string `json:"background_color,omitempty"`
	// FontSize is the point size (0 means unset).
	FontSize float64 `json:"font_size,omitempty"`
	// Align is the horizontal alignment ("left", "center", "right").
	Align string `json:"align,omitempty"`
}

// Merge overlays the set fields of o onto a copy of s and returns it.
// Unset fields in o leave the existing value in place.
func (s *Style) Merge(o *Style) *Style {
	out := Style{}
	if s != nil {
		out = *s
	}
	if o == nil {
		return &out
	}
	if o.Bold != nil {
		out.Bold = o.Bold
	}
	if o.Italic != nil {
		out.Italic = o.Italic
	}
	if o.Underline != nil {
		out.Underline = o.Underline
	}
	if o.FontColor != "" {
		out.FontColor = o.FontColor
	}
	if o.BackgroundColor != "" {
		out.BackgroundColor = o.BackgroundColor
	}
	if o.FontSize != 0 {
		out.FontSize = o.FontSize
	}
	if o.Align != "" {
		out.Align = o.Align
	}
	return &out
}

// ComputedValue is the cached result of formula evaluation for a cell. It is
// written by the recompute coordinator; the operation engine only copies it.
type ComputedValue struct {
	// Value is the evaluated result, or an error sentinel prefixed with "#".
	Value string `json:"value"`
	// ComputedAt is when the evaluation ran.
	ComputedAt time.Time `json:"computed_at"`
	// EngineVersion tags the evaluator that produced the value.
	EngineVersion string `json:"engine_version"`
}

// Cell is a single grid cell. A cell with neither a raw literal nor a formula
// is considered absent and must be removed from the sheet's sparse map.
type Cell struct {
	// Raw is the literal value, nil for formula-only or style-only cells.
	Raw *LiteralValue `json:"raw,omitempty"`
	// Formula is the formula text including the leading "=".
	Formula string `json:"formula,omitempty"`
	// Style holds presentational properties.
	Style *Style `json:"style,omitempty"`
	// NumberFormat is the number format string (e.g. "0.00%").
	NumberFormat string `json:"number_format,omitempty"`
	// Computed caches the evaluated formula result.
	Computed *ComputedValue `json:"computed,omitempty"`
}

// IsEmpty reports whether the cell carries no content at all and should be
// dropped from the sparse map.
func (c *Cell) IsEmpty() bool {
	if c == nil {
		return true
	}
	return c.Raw == nil && c.Formula == "" && c.Style == nil && c.NumberFormat == ""
}

// HasContent reports whether the cell has a raw literal or a formula.
func (c *Cell) HasContent() bool {
	return c != nil && (c.Raw != nil || c.Formula != "")
}
