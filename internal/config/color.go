package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"

	"github.com/dshills/lectern/internal/renderer/core"
)

// ParseColor parses a color given as "r,g,b[,a]" (optionally in
// parentheses), "#rgb", "#rrggbb", "#rrggbbaa", a CSS color name or
// "transparent". Arrays of three or four integers, as TOML and YAML
// produce them, are accepted too.
func ParseColor(v any) (core.Color, error) {
	switch t := v.(type) {
	case core.Color:
		return t, nil
	case string:
		return parseColorString(t)
	case []any:
		parts := make([]string, len(t))
		for i, p := range t {
			parts[i] = fmt.Sprint(p)
		}
		return parseComponents(parts)
	default:
		return core.Color{}, fmt.Errorf("%w: color %v", ErrInvalidValue, v)
	}
}

func parseColorString(s string) (core.Color, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return core.Color{}, fmt.Errorf("%w: empty color", ErrInvalidValue)
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.ContainsRune(s, ','):
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
		return parseComponents(strings.Split(s, ","))
	}
	name := strings.ToLower(s)
	if name == "transparent" {
		return core.Transparent, nil
	}
	if c, ok := colornames.Map[name]; ok {
		return core.RGBA(c.R, c.G, c.B, c.A), nil
	}
	return core.Color{}, fmt.Errorf("%w: unknown color %q", ErrInvalidValue, s)
}

func parseHex(s string) (core.Color, error) {
	alpha := uint8(255)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return core.Color{}, fmt.Errorf("%w: color %q", ErrInvalidValue, s)
		}
		alpha = uint8(a)
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return core.Color{}, fmt.Errorf("%w: color %q: %v", ErrInvalidValue, s, err)
	}
	r, g, b := c.RGB255()
	return core.RGBA(r, g, b, alpha), nil
}

func parseComponents(parts []string) (core.Color, error) {
	if len(parts) != 3 && len(parts) != 4 {
		return core.Color{}, fmt.Errorf("%w: color needs 3 or 4 components, got %d", ErrInvalidValue, len(parts))
	}
	var ch [4]uint8
	ch[3] = 255
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 255 {
			return core.Color{}, fmt.Errorf("%w: color component %q", ErrInvalidValue, p)
		}
		ch[i] = uint8(n)
	}
	return core.RGBA(ch[0], ch[1], ch[2], ch[3]), nil
}

// FormatColor renders c the way ParseColor reads it back: "#rrggbb" when
// opaque, "#rrggbbaa" otherwise.
func FormatColor(c core.Color) string {
	hex := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
	if c.A == 255 {
		return hex
	}
	return fmt.Sprintf("%s%02x", hex, c.A)
}
