package config

import (
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/renderer/core"
)

// Sheet is a stylesheet: typed option values grouped by section, plus the
// decoration lines pages start with.
//
// Sheets are values in spirit; every page owns a Clone of the sheet that
// was current when it was compiled.
type Sheet struct {
	name       string
	sections   map[string]style.Attrs
	decoration []string
}

// NewSheet creates an empty sheet.
func NewSheet(name string) *Sheet {
	return &Sheet{name: name, sections: make(map[string]style.Attrs)}
}

// Name returns the name the sheet was loaded under.
func (s *Sheet) Name() string { return s.name }

// Sections returns the section names present in the sheet, sorted.
func (s *Sheet) Sections() []string {
	return slices.Sorted(maps.Keys(s.sections))
}

// Value returns section.name, falling back to default.name. The zero
// Value is returned when neither is set.
func (s *Sheet) Value(section, name string) style.Value {
	if v, ok := s.sections[section][name]; ok {
		return v
	}
	return s.sections[SectionDefault][name]
}

// Lookup returns section.name without the default fallback.
func (s *Sheet) Lookup(section, name string) (style.Value, bool) {
	v, ok := s.sections[section][name]
	return v, ok
}

// Section returns a copy of the options set directly in section.
func (s *Sheet) Section(section string) style.Attrs {
	return s.sections[section].Clone()
}

// Resolved returns the layout attributes for text in section: the default
// section overlaid with section, restricted to keys the layout engine
// reads.
func (s *Sheet) Resolved(section string) style.Attrs {
	out := make(style.Attrs)
	for _, k := range style.LayoutKeys {
		if v := s.Value(section, k); !v.IsZero() {
			out[k] = v
		}
	}
	return out
}

// Inline returns only the character attributes section sets itself, for
// applying over surrounding text (emphasis, strong, code tokens).
func (s *Sheet) Inline(section string) style.Attrs {
	out := make(style.Attrs)
	for _, k := range []string{style.KeyColor, style.KeyBackground, style.KeyFontName, style.KeyFontSize, style.KeyBold, style.KeyItalic, style.KeyUnderline} {
		if v, ok := s.sections[section][k]; ok {
			out[k] = v
		}
	}
	return out
}

// Set stores an already typed value under a compound key.
func (s *Sheet) Set(key string, v style.Value) error {
	section, name, err := splitKey(key)
	if err != nil {
		return err
	}
	if s.sections[section] == nil {
		s.sections[section] = make(style.Attrs)
	}
	s.sections[section][name] = v
	return nil
}

// SetOption parses raw against the schema and stores it.
func (s *Sheet) SetOption(key string, raw any) error {
	v, err := ParseValue(key, raw)
	if err != nil {
		return err
	}
	return s.Set(qualify(key), v)
}

// Apply sets every option in opts. Valid options are applied even when
// others fail; the failures are returned combined, one *OptionError each,
// in key order.
func (s *Sheet) Apply(opts map[string]any) error {
	var errs error
	for _, k := range slices.Sorted(maps.Keys(opts)) {
		errs = multierr.Append(errs, s.SetOption(k, opts[k]))
	}
	return errs
}

// Decoration returns the sheet's decoration lines.
func (s *Sheet) Decoration() []string {
	return slices.Clone(s.decoration)
}

// SetDecoration replaces the decoration lines.
func (s *Sheet) SetDecoration(lines []string) {
	s.decoration = slices.Clone(lines)
}

// Clone returns a deep copy.
func (s *Sheet) Clone() *Sheet {
	c := &Sheet{
		name:       s.name,
		sections:   make(map[string]style.Attrs, len(s.sections)),
		decoration: slices.Clone(s.decoration),
	}
	for k, v := range s.sections {
		c.sections[k] = v.Clone()
	}
	return c
}

// Equal reports whether two sheets hold the same options and decoration.
func (s *Sheet) Equal(o *Sheet) bool {
	if len(s.sections) != len(o.sections) || !slices.Equal(s.decoration, o.decoration) {
		return false
	}
	for k, a := range s.sections {
		b, ok := o.sections[k]
		if !ok || !maps.EqualFunc(a, b, style.Value.Equal) {
			return false
		}
	}
	return true
}

// Color returns section.name as a color, or fallback.
func (s *Sheet) Color(section, name string, fallback core.Color) core.Color {
	return s.Value(section, name).AsColor(fallback)
}

// Int returns section.name as an int, or fallback.
func (s *Sheet) Int(section, name string, fallback int) int {
	return s.Value(section, name).AsInt(fallback)
}

// Bool returns section.name as a bool.
func (s *Sheet) Bool(section, name string) bool {
	return s.Value(section, name).AsBool()
}

// String returns section.name as a string, or fallback.
func (s *Sheet) String(section, name, fallback string) string {
	return s.Value(section, name).AsString(fallback)
}

// Coords returns the coordinate expressions of section.name.
func (s *Sheet) Coords(section, name string) []string {
	return SplitCoords(s.Value(section, name))
}

// Background returns layout.background_color, white when unset.
func (s *Sheet) Background() core.Color {
	return s.Color(SectionLayout, style.KeyBackground, core.White)
}

// Transition returns the transition name and duration. The name is
// "none" when transitions are disabled.
func (s *Sheet) Transition() (string, time.Duration) {
	name := s.String(SectionTransition, "name", "none")
	d := seconds(s.Value(SectionTransition, "duration").AsFloat(0))
	if d <= 0 {
		return "none", 0
	}
	return name, d
}

// Expose returns list.expose.
func (s *Sheet) Expose() string {
	return s.String(SectionList, "expose", "show")
}

// spacingKeys are the integer options measured in layout units.
var spacingKeys = []string{
	style.KeyMarginLeft, style.KeyMarginRight, style.KeyMarginTop,
	style.KeyMarginBottom, style.KeyIndent, style.KeyLeading,
	"top_padding", "bottom_padding", "left_padding", "right_padding",
}

// ScaleSpacing multiplies every margin, indent, leading and padding by f.
// Sheets are written in terminal cells; exporters rendering in pixels
// scale by the line height.
func (s *Sheet) ScaleSpacing(f float64) {
	for _, attrs := range s.sections {
		for _, k := range spacingKeys {
			if v, ok := attrs[k]; ok && v.Kind() == style.KindInt {
				attrs[k] = style.Int(int(math.Round(float64(v.AsInt(0)) * f)))
			}
		}
	}
}

func splitKey(key string) (section, name string, err error) {
	parts := strings.Split(qualify(key), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &OptionError{Key: key, Err: ErrInvalidPath}
	}
	return parts[0], parts[1], nil
}
