package decoration

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/dshills/lectern/internal/config"
	"github.com/dshills/lectern/internal/renderer/core"
)

// Vertex is a quad corner as coordinate expressions with its color.
type Vertex struct {
	X, Y  string
	Color core.Color
}

// Quad is a filled quadrilateral. It is drawn over the bounding box of
// its vertices, each vertex color going to the nearest corner.
type Quad struct {
	Vertices [4]Vertex
}

// ImageSpec is a picture anchored to the screen edges.
type ImageSpec struct {
	Path   string
	HAlign string
	VAlign string
}

// Spec is a parsed decoration.
type Spec struct {
	// Background overrides layout.background_color when set.
	Background *core.Color

	// Title is shown when the page has no heading of its own.
	Title string

	// Footer is the footer text.
	Footer string

	Quads  []Quad
	Images []ImageSpec

	// Viewport holds x, y, w, h expressions, or nil for automatic.
	Viewport []string
}

// Parse reads decoration lines. Blank lines and lines starting with #
// are skipped. Bad lines are skipped too; their errors are returned
// combined, each a *LineError, alongside the spec of the good lines.
func Parse(lines []string) (*Spec, error) {
	s := &Spec{}
	var errs error
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		line = strings.TrimPrefix(line, ":")
		if line == "" || line[0] == '#' {
			continue
		}
		if err := s.parseLine(line); err != nil {
			errs = multierr.Append(errs, &LineError{Line: i + 1, Text: line, Err: err})
		}
	}
	return s, errs
}

// Clone returns a copy of the spec.
func (s *Spec) Clone() *Spec {
	c := *s
	c.Quads = append([]Quad(nil), s.Quads...)
	c.Images = append([]ImageSpec(nil), s.Images...)
	c.Viewport = append([]string(nil), s.Viewport...)
	if s.Background != nil {
		bg := *s.Background
		c.Background = &bg
	}
	return &c
}

func (s *Spec) parseLine(line string) error {
	cmd, arg, ok := strings.Cut(line, ":")
	if !ok {
		return fmt.Errorf("%w: want command:arguments", ErrSyntax)
	}
	arg = strings.TrimSpace(arg)
	switch strings.TrimSpace(cmd) {
	case "bgcolor":
		c, err := config.ParseColor(arg)
		if err != nil {
			return err
		}
		s.Background = &c
	case "title":
		s.Title = arg
	case "footer":
		s.Footer = arg
	case "quad":
		q, err := parseQuad(arg)
		if err != nil {
			return err
		}
		s.Quads = append(s.Quads, q)
	case "vgradient", "hgradient":
		q, err := parseGradient(arg, cmd == "vgradient")
		if err != nil {
			return err
		}
		s.Quads = append(s.Quads, q)
	case "image":
		img, err := parseImage(arg)
		if err != nil {
			return err
		}
		s.Images = append(s.Images, img)
	case "viewport":
		parts := splitCoords(arg)
		if len(parts) != 4 {
			return fmt.Errorf("%w: viewport wants x,y,w,h", ErrSyntax)
		}
		s.Viewport = parts
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	return nil
}

// parseQuad reads "C<color>;Vx,y;..." entries. A color applies to every
// following vertex until the next color.
func parseQuad(arg string) (Quad, error) {
	var q Quad
	var cur *core.Color
	n := 0
	for _, entry := range strings.Split(arg, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		switch entry[0] {
		case 'C':
			c, err := config.ParseColor(entry[1:])
			if err != nil {
				return q, err
			}
			cur = &c
		case 'V':
			if cur == nil {
				return q, fmt.Errorf("%w: quad needs a color before its first vertex", ErrSyntax)
			}
			if n == 4 {
				return q, fmt.Errorf("%w: quad has more than 4 vertices", ErrSyntax)
			}
			xy := splitCoords(entry[1:])
			if len(xy) != 2 {
				return q, fmt.Errorf("%w: vertex %q wants x,y", ErrSyntax, entry)
			}
			q.Vertices[n] = Vertex{X: xy[0], Y: xy[1], Color: *cur}
			n++
		default:
			return q, fmt.Errorf("%w: quad entry %q", ErrSyntax, entry)
		}
	}
	if n != 4 {
		return q, fmt.Errorf("%w: quad has %d vertices, want 4", ErrSyntax, n)
	}
	return q, nil
}

// parseGradient reads "from;to" into a full screen quad, top to bottom for
// vertical gradients and left to right for horizontal ones.
func parseGradient(arg string, vertical bool) (Quad, error) {
	parts := strings.Split(arg, ";")
	if len(parts) != 2 {
		return Quad{}, fmt.Errorf("%w: gradient wants two colors", ErrSyntax)
	}
	from, err := config.ParseColor(parts[0])
	if err != nil {
		return Quad{}, err
	}
	to, err := config.ParseColor(parts[1])
	if err != nil {
		return Quad{}, err
	}
	tl, tr, br, bl := from, to, to, from
	if vertical {
		tl, tr, br, bl = from, from, to, to
	}
	return Quad{Vertices: [4]Vertex{
		{X: "0", Y: "0", Color: tl},
		{X: "w", Y: "0", Color: tr},
		{X: "w", Y: "h", Color: br},
		{X: "0", Y: "h", Color: bl},
	}}, nil
}

func parseImage(arg string) (ImageSpec, error) {
	img := ImageSpec{HAlign: "left", VAlign: "bottom"}
	path, opts, _ := strings.Cut(arg, ";")
	img.Path = strings.TrimSpace(path)
	if img.Path == "" {
		return img, fmt.Errorf("%w: image needs a file", ErrSyntax)
	}
	for _, opt := range strings.Split(opts, ";") {
		if strings.TrimSpace(opt) == "" {
			continue
		}
		k, v, ok := strings.Cut(opt, "=")
		if !ok {
			return img, fmt.Errorf("%w: image option %q", ErrSyntax, opt)
		}
		k, v = strings.TrimSpace(k), strings.ToLower(strings.TrimSpace(v))
		switch k {
		case "halign":
			if v != "left" && v != "center" && v != "right" {
				return img, fmt.Errorf("%w: halign %q", ErrSyntax, v)
			}
			img.HAlign = v
		case "valign":
			if v != "top" && v != "center" && v != "bottom" {
				return img, fmt.Errorf("%w: valign %q", ErrSyntax, v)
			}
			img.VAlign = v
		default:
			return img, fmt.Errorf("%w: image option %q", ErrSyntax, k)
		}
	}
	return img, nil
}

func splitCoords(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
