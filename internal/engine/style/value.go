package style

import (
	"fmt"
	"strconv"

	"github.com/dshills/lectern/internal/renderer/core"
)

// Kind identifies the type held by a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindColor
	KindBool
	KindInt
	KindFloat
	KindString
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindColor:
		return "color"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a small typed union for attribute values. The zero Value is
// "no value".
type Value struct {
	kind Kind
	c    core.Color
	n    int64
	f    float64
	s    string
}

// Color wraps a color.
func Color(c core.Color) Value { return Value{kind: KindColor, c: c} }

// Bool wraps a boolean.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.n = 1
	}
	return v
}

// Int wraps an integer.
func Int(n int) Value { return Value{kind: KindInt, n: int64(n)} }

// Float wraps a float.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the held type.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether v holds nothing.
func (v Value) IsZero() bool { return v.kind == KindNone }

// AsColor returns the color, or the fallback if v is not a color.
func (v Value) AsColor(fallback core.Color) core.Color {
	if v.kind != KindColor {
		return fallback
	}
	return v.c
}

// AsBool returns the boolean; non-bool values report false.
func (v Value) AsBool() bool {
	return v.kind == KindBool && v.n != 0
}

// AsInt returns the value as an int, converting floats.
func (v Value) AsInt(fallback int) int {
	switch v.kind {
	case KindInt:
		return int(v.n)
	case KindFloat:
		return int(v.f)
	default:
		return fallback
	}
}

// AsFloat returns the value as a float, converting ints.
func (v Value) AsFloat(fallback float64) float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return float64(v.n)
	default:
		return fallback
	}
}

// AsString returns the string, or fallback for other kinds.
func (v Value) AsString(fallback string) string {
	if v.kind != KindString {
		return fallback
	}
	return v.s
}

// Equal reports whether two values have the same kind and contents.
func (v Value) Equal(o Value) bool {
	return v == o
}

// String formats the value for logs and test failures.
func (v Value) String() string {
	switch v.kind {
	case KindColor:
		return v.c.String()
	case KindBool:
		return strconv.FormatBool(v.n != 0)
	case KindInt:
		return strconv.FormatInt(v.n, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	default:
		return "<none>"
	}
}

// GoString implements fmt.GoStringer.
func (v Value) GoString() string {
	return fmt.Sprintf("style.Value{%s:%s}", v.kind, v)
}

// Attrs maps attribute keys to values.
type Attrs map[string]Value

// Clone returns a copy of a.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge returns a copy of a overridden by b.
func (a Attrs) Merge(b Attrs) Attrs {
	out := a.Clone()
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Well-known attribute keys consumed by the layout engine.
const (
	KeyColor        = "color"
	KeyBackground   = "background_color"
	KeyFontName     = "font_name"
	KeyFontSize     = "font_size"
	KeyBold         = "bold"
	KeyItalic       = "italic"
	KeyUnderline    = "underline"
	KeyAlign        = "align"
	KeyMarginLeft   = "margin_left"
	KeyMarginRight  = "margin_right"
	KeyMarginTop    = "margin_top"
	KeyMarginBottom = "margin_bottom"
	KeyIndent       = "indent"
	KeyLeading      = "leading"
)

// LayoutKeys lists the keys the layout engine reads when breaking lines.
var LayoutKeys = []string{
	KeyColor, KeyBackground, KeyFontName, KeyFontSize, KeyBold, KeyItalic,
	KeyUnderline, KeyAlign, KeyMarginLeft, KeyMarginRight, KeyMarginTop,
	KeyMarginBottom, KeyIndent, KeyLeading,
}
