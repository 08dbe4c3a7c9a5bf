// Package font supplies font faces and measurement helpers to the layout
// engine.
//
// Two providers exist. OpenType loads the Go font family through
// golang.org/x/image/font/opentype and is used for raster export, where one
// layout unit is one pixel. Grid describes a character-cell display where
// every glyph is one unit tall and as wide as its terminal cell width.
package font

import (
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Spec selects a face.
type Spec struct {
	Name   string
	Size   float64
	Bold   bool
	Italic bool
}

// Provider resolves a Spec to a face. Implementations never fail; unknown
// names fall back to a default family.
type Provider interface {
	Face(spec Spec) font.Face
}

type family int

const (
	familySans family = iota
	familyMono
)

// familyOf maps a requested font name onto the bundled families.
func familyOf(name string) family {
	n := strings.ToLower(name)
	for _, mono := range []string{"mono", "courier", "consol", "menlo", "code"} {
		if strings.Contains(n, mono) {
			return familyMono
		}
	}
	return familySans
}

var ttf = map[family][4][]byte{
	familySans: {goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF},
	familyMono: {gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF},
}

func styleIndex(bold, italic bool) int {
	i := 0
	if bold {
		i |= 1
	}
	if italic {
		i |= 2
	}
	return i
}

// OpenType provides scalable Go font faces at a fixed DPI.
type OpenType struct {
	dpi float64

	mu    sync.Mutex
	fonts map[[2]int]*opentype.Font
	faces map[Spec]font.Face
}

// NewOpenType creates a provider. A dpi of 72 makes points equal pixels.
func NewOpenType(dpi float64) *OpenType {
	if dpi <= 0 {
		dpi = 72
	}
	return &OpenType{
		dpi:   dpi,
		fonts: make(map[[2]int]*opentype.Font),
		faces: make(map[Spec]font.Face),
	}
}

// Face returns a cached face for spec.
func (p *OpenType) Face(spec Spec) font.Face {
	if spec.Size <= 0 {
		spec.Size = 12
	}
	fam := familyOf(spec.Name)
	key := Spec{Name: strings.ToLower(spec.Name), Size: spec.Size, Bold: spec.Bold, Italic: spec.Italic}

	p.mu.Lock()
	defer p.mu.Unlock()

	if f, ok := p.faces[key]; ok {
		return f
	}

	idx := styleIndex(spec.Bold, spec.Italic)
	fk := [2]int{int(fam), idx}
	parsed, ok := p.fonts[fk]
	if !ok {
		var err error
		parsed, err = opentype.Parse(ttf[fam][idx])
		if err != nil {
			return basicfont.Face7x13
		}
		p.fonts[fk] = parsed
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    spec.Size,
		DPI:     p.dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	p.faces[key] = face
	return face
}

// Close releases every cached face.
func (p *OpenType) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, f := range p.faces {
		_ = f.Close()
		delete(p.faces, k)
	}
	return nil
}

// Advance returns the advance of r in whole units.
func Advance(face font.Face, r rune) int {
	adv, ok := face.GlyphAdvance(r)
	if !ok {
		adv, _ = face.GlyphAdvance('?')
	}
	return adv.Round()
}

// Kern returns the kerning adjustment between two runes in whole units.
func Kern(face font.Face, prev, r rune) int {
	if prev < 0 {
		return 0
	}
	return face.Kern(prev, r).Round()
}

// Measure returns the advance width of s.
func Measure(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// Ascent returns the face ascent in whole units.
func Ascent(face font.Face) int {
	return face.Metrics().Ascent.Ceil()
}

// Descent returns the face descent in whole units, positive downward.
func Descent(face font.Face) int {
	return face.Metrics().Descent.Ceil()
}

// LineHeight returns the recommended line height.
func LineHeight(face font.Face) int {
	m := face.Metrics()
	h := m.Height.Ceil()
	return max(h, m.Ascent.Ceil()+m.Descent.Ceil())
}

func fixedInt(n int) fixed.Int26_6 {
	return fixed.I(n)
}
