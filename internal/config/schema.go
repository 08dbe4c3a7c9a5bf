package config

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/lectern/internal/engine/style"
)

// OptionType is the type of a style option.
type OptionType int

const (
	TypeColor OptionType = iota
	TypeBool
	TypeInt
	TypePositiveInt
	TypeFloat
	TypeString
	TypeHAlign
	TypeVAlign
	TypeExpose
	TypeCoords
	TypeTransition
)

var typeNames = [...]string{
	TypeColor:       "color",
	TypeBool:        "bool",
	TypeInt:         "int",
	TypePositiveInt: "positive int",
	TypeFloat:       "float",
	TypeString:      "string",
	TypeHAlign:      "left|center|right",
	TypeVAlign:      "top|center|bottom",
	TypeExpose:      "show|expose|fade",
	TypeCoords:      "coordinates",
	TypeTransition:  "none|fade",
}

// String returns the type name used in error messages.
func (t OptionType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// Section names.
const (
	SectionDefault      = "default"
	SectionEmphasis     = "emphasis"
	SectionStrong       = "strong"
	SectionLiteral      = "literal"
	SectionLiteralBlock = "literal_block"
	SectionLineBlock    = "line_block"
	SectionBlockQuote   = "block_quote"
	SectionList         = "list"
	SectionLayout       = "layout"
	SectionTitle        = "title"
	SectionFooter       = "footer"
	SectionTransition   = "transition"
	SectionTable        = "table"
)

// CodeSections are the sections applied to highlighted code tokens.
var CodeSections = []string{
	"code_keyword", "code_text", "code_generic", "code_name",
	"code_name_class", "code_name_function", "code_literal",
	"code_punctuation", "code_operator", "code_comment",
}

var schema = buildSchema()

func buildSchema() map[string]OptionType {
	s := map[string]OptionType{
		"transition.name":     TypeTransition,
		"transition.duration": TypeFloat,

		"list.expose": TypeExpose,
		"list.bullet": TypeString,

		"layout.valign":           TypeVAlign,
		"layout.background_color": TypeColor,
		"layout.viewport":         TypeCoords,

		"table.heading_background_color": TypeColor,
		"table.even_background_color":    TypeColor,
		"table.odd_background_color":     TypeColor,
		"table.top_padding":              TypePositiveInt,
		"table.bottom_padding":           TypePositiveInt,
		"table.left_padding":             TypePositiveInt,
		"table.right_padding":            TypePositiveInt,
		"table.cell_align":               TypeHAlign,
		"table.cell_valign":              TypeVAlign,
		"table.border":                   TypeBool,
		"table.border_color":             TypeColor,
	}
	for _, sec := range []string{SectionTitle, SectionFooter} {
		s[sec+".position"] = TypeCoords
		s[sec+".hanchor"] = TypeHAlign
		s[sec+".vanchor"] = TypeVAlign
	}

	text := []string{
		SectionDefault, SectionLiteral, SectionEmphasis, SectionStrong,
		SectionTitle, SectionFooter, SectionBlockQuote, SectionList,
		SectionLiteralBlock, SectionLineBlock,
	}
	for _, sec := range append(text, CodeSections...) {
		s[sec+"."+style.KeyColor] = TypeColor
		s[sec+"."+style.KeyBackground] = TypeColor
		s[sec+"."+style.KeyFontSize] = TypePositiveInt
		s[sec+"."+style.KeyFontName] = TypeString
		s[sec+"."+style.KeyBold] = TypeBool
		s[sec+"."+style.KeyItalic] = TypeBool
		s[sec+"."+style.KeyUnderline] = TypeBool
	}
	for _, sec := range []string{SectionDefault, SectionTitle, SectionFooter, SectionBlockQuote, SectionList} {
		s[sec+"."+style.KeyAlign] = TypeHAlign
	}
	blocks := []string{SectionDefault, SectionLiteralBlock, SectionLineBlock, SectionBlockQuote, SectionList}
	for _, sec := range blocks {
		for _, k := range []string{style.KeyMarginLeft, style.KeyMarginRight, style.KeyMarginTop, style.KeyMarginBottom, style.KeyIndent} {
			s[sec+"."+k] = TypePositiveInt
		}
		s[sec+"."+style.KeyLeading] = TypeInt
	}
	return s
}

// Keys returns every compound key of the schema, sorted.
func Keys() []string {
	return slices.Sorted(maps.Keys(schema))
}

// TypeOf returns the type of the option key, which may omit the section.
func TypeOf(key string) (OptionType, bool) {
	t, ok := schema[qualify(key)]
	return t, ok
}

// qualify puts a bare option name into the default section.
func qualify(key string) string {
	if strings.ContainsRune(key, '.') {
		return key
	}
	return SectionDefault + "." + key
}

// ParseValue converts raw into the typed style value for key. Raw may be
// a string, as written in a style directive or environment variable, or a
// decoded TOML/YAML scalar or array.
func ParseValue(key string, raw any) (style.Value, error) {
	t, ok := TypeOf(key)
	if !ok {
		return style.Value{}, &OptionError{Key: key, Err: ErrUnknownKey}
	}
	v, err := parseTyped(t, raw)
	if err != nil {
		return style.Value{}, &OptionError{Key: key, Value: raw, Err: err}
	}
	return v, nil
}

func parseTyped(t OptionType, raw any) (style.Value, error) {
	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
	}
	switch t {
	case TypeColor:
		c, err := ParseColor(raw)
		if err != nil {
			return style.Value{}, err
		}
		return style.Color(c), nil
	case TypeBool:
		switch v := raw.(type) {
		case bool:
			return style.Bool(v), nil
		case string:
			switch strings.ToLower(v) {
			case "yes", "true", "on", "1":
				return style.Bool(true), nil
			case "no", "false", "off", "0":
				return style.Bool(false), nil
			}
		}
	case TypeInt, TypePositiveInt:
		n, ok := toInt(raw)
		if !ok || (t == TypePositiveInt && n < 0) {
			break
		}
		return style.Int(n), nil
	case TypeFloat:
		switch v := raw.(type) {
		case float64:
			return style.Float(v), nil
		case int64:
			return style.Float(float64(v)), nil
		case int:
			return style.Float(float64(v)), nil
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return style.Float(f), nil
			}
		}
	case TypeString:
		if s, ok := raw.(string); ok {
			return style.String(s), nil
		}
	case TypeHAlign:
		return choice(raw, "left", "center", "right")
	case TypeVAlign:
		return choice(raw, "top", "center", "bottom")
	case TypeExpose:
		return choice(raw, "show", "expose", "fade")
	case TypeTransition:
		return choice(raw, "none", "fade")
	case TypeCoords:
		return coords(raw)
	}
	return style.Value{}, fmt.Errorf("%w: want %s", ErrInvalidValue, t)
}

func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

func choice(raw any, allowed ...string) (style.Value, error) {
	s, ok := raw.(string)
	if ok {
		s = strings.ToLower(s)
		if slices.Contains(allowed, s) {
			return style.String(s), nil
		}
	}
	return style.Value{}, fmt.Errorf("%w: want one of %s", ErrInvalidValue, strings.Join(allowed, ", "))
}

// coords normalizes "x, y" or ["x", "y"] into a comma separated string of
// trimmed expressions.
func coords(raw any) (style.Value, error) {
	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []any:
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
	default:
		return style.Value{}, fmt.Errorf("%w: want comma separated coordinates", ErrInvalidValue)
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
		if parts[i] == "" {
			return style.Value{}, fmt.Errorf("%w: empty coordinate", ErrInvalidValue)
		}
	}
	return style.String(strings.Join(parts, ",")), nil
}

// SplitCoords splits a coordinates value back into its expressions.
func SplitCoords(v style.Value) []string {
	s := v.AsString("")
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// seconds converts a float seconds value into a duration.
func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
