package config

import (
	"maps"
	"slices"

	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/renderer/core"
)

// Built-in stylesheet names.
const (
	SheetDefault        = "default"
	SheetBigCentered    = "big-centered"
	SheetWhiteOnBlack   = "white-on-black"
	SheetBigCenteredWOB = "big-centered-wob"
)

var builtins = map[string]*Sheet{}

func init() {
	def := defaultSheet()
	builtins[SheetDefault] = def

	big := def.Clone()
	big.name = SheetBigCentered
	bigCentered(big)
	builtins[SheetBigCentered] = big

	wob := def.Clone()
	wob.name = SheetWhiteOnBlack
	whiteOnBlack(wob)
	builtins[SheetWhiteOnBlack] = wob

	bigWob := big.Clone()
	bigWob.name = SheetBigCenteredWOB
	whiteOnBlack(bigWob)
	builtins[SheetBigCenteredWOB] = bigWob
}

// Builtin returns a copy of the named built-in sheet.
func Builtin(name string) (*Sheet, bool) {
	s, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Default returns a copy of the default sheet.
func Default() *Sheet {
	s, _ := Builtin(SheetDefault)
	return s
}

// BuiltinNames returns the built-in sheet names, sorted.
func BuiltinNames() []string {
	return slices.Sorted(maps.Keys(builtins))
}

func rgb(r, g, b uint8) style.Value { return style.Color(core.RGBA(r, g, b, 255)) }

func defaultSheet() *Sheet {
	s := NewSheet(SheetDefault)
	set := func(section string, attrs style.Attrs) {
		s.sections[section] = attrs
	}
	set(SectionDefault, style.Attrs{
		style.KeyFontName:     style.String("sans"),
		style.KeyFontSize:     style.Int(20),
		style.KeyMarginBottom: style.Int(1),
		style.KeyAlign:        style.String("left"),
		style.KeyColor:        rgb(0, 0, 0),
	})
	set(SectionEmphasis, style.Attrs{style.KeyItalic: style.Bool(true)})
	set(SectionStrong, style.Attrs{style.KeyBold: style.Bool(true)})
	set(SectionList, style.Attrs{"expose": style.String("show")})
	set(SectionLiteral, style.Attrs{
		style.KeyFontName: style.String("mono"),
		style.KeyFontSize: style.Int(20),
	})
	set(SectionLiteralBlock, style.Attrs{style.KeyMarginLeft: style.Int(2)})
	set(SectionLineBlock, style.Attrs{style.KeyMarginLeft: style.Int(4)})
	set(SectionBlockQuote, style.Attrs{
		style.KeyItalic:     style.Bool(true),
		style.KeyBold:       style.Bool(false),
		style.KeyMarginLeft: style.Int(2),
	})
	set(SectionLayout, style.Attrs{
		"valign":            style.String("top"),
		style.KeyBackground: rgb(255, 255, 255),
	})
	set(SectionTitle, style.Attrs{
		style.KeyFontSize: style.Int(28),
		style.KeyBold:     style.Bool(true),
		"position":        style.String("w//2,0"),
		"hanchor":         style.String("center"),
		"vanchor":         style.String("top"),
	})
	set(SectionFooter, style.Attrs{
		style.KeyFontSize: style.Int(16),
		style.KeyItalic:   style.Bool(true),
		"position":        style.String("w//2,h"),
		"hanchor":         style.String("center"),
		"vanchor":         style.String("bottom"),
	})
	set(SectionTransition, style.Attrs{
		"name":     style.String("fade"),
		"duration": style.Float(0.5),
	})

	set("code_keyword", style.Attrs{style.KeyColor: rgb(0, 0x80, 0)})
	set("code_text", style.Attrs{})
	set("code_generic", style.Attrs{})
	set("code_name", style.Attrs{style.KeyBold: style.Bool(true)})
	set("code_name_class", style.Attrs{style.KeyBold: style.Bool(true), style.KeyColor: rgb(0xBA, 0xBA, 0x21)})
	set("code_name_function", style.Attrs{style.KeyBold: style.Bool(true), style.KeyColor: rgb(0xBA, 0xBA, 0x21)})
	set("code_literal", style.Attrs{style.KeyColor: rgb(0xBA, 0x21, 0x21)})
	set("code_punctuation", style.Attrs{})
	set("code_operator", style.Attrs{style.KeyColor: rgb(0x66, 0x66, 0x66)})
	set("code_comment", style.Attrs{style.KeyItalic: style.Bool(true), style.KeyColor: rgb(0x40, 0x80, 0x80)})

	set(SectionTable, style.Attrs{
		"heading_background_color": rgb(210, 210, 210),
		"even_background_color":    rgb(240, 240, 240),
		"odd_background_color":     rgb(240, 240, 240),
		"cell_align":               style.String("left"),
		"cell_valign":              style.String("top"),
		"top_padding":              style.Int(0),
		"bottom_padding":           style.Int(0),
		"left_padding":             style.Int(1),
		"right_padding":            style.Int(1),
		"border":                   style.Bool(true),
		"border_color":             rgb(0, 0, 0),
	})
	return s
}

func bigCentered(s *Sheet) {
	s.sections[SectionDefault][style.KeyFontSize] = style.Int(64)
	s.sections[SectionDefault][style.KeyAlign] = style.String("center")
	s.sections[SectionDefault][style.KeyMarginBottom] = style.Int(2)
	s.sections[SectionLiteral][style.KeyFontSize] = style.Int(64)
	s.sections[SectionTitle][style.KeyFontSize] = style.Int(84)
	s.sections[SectionLayout]["valign"] = style.String("center")
}

func whiteOnBlack(s *Sheet) {
	s.sections[SectionDefault][style.KeyColor] = rgb(0xff, 0xff, 0xff)
	s.sections[SectionLayout][style.KeyBackground] = rgb(0, 0, 0)

	t := s.sections[SectionTable]
	t["heading_background_color"] = rgb(0x32, 0x32, 0x32)
	t["even_background_color"] = rgb(0x10, 0x10, 0x10)
	t["odd_background_color"] = rgb(0x10, 0x10, 0x10)
	t["border_color"] = rgb(0xff, 0xff, 0xff)
}
