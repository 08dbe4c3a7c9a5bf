package document

import (
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/renderer/core"
)

// ColorRun is a snapshot of one color run, kept so a range can be faded
// and restored.
type ColorRun struct {
	Start, End int
	Color      core.Color
}

// ColorRuns snapshots the text color over [start, end). Unstyled text
// reads as fallback.
func (d *Document) ColorRuns(start, end int, fallback core.Color) []ColorRun {
	var out []ColorRun
	for r := range d.StyleRuns(style.KeyColor, start, end) {
		out = append(out, ColorRun{Start: r.Start, End: r.End, Color: r.Value.AsColor(fallback)})
	}
	return out
}

// ApplyOpacity recolors every snapshot run to its color with alpha scaled
// by v. Background colors are not touched.
func (d *Document) ApplyOpacity(runs []ColorRun, v uint8) error {
	for _, r := range runs {
		if r.End > d.Len() {
			return ErrOffsetOutOfRange
		}
		if err := d.SetStyle(r.Start, r.End, style.Attrs{style.KeyColor: style.Color(r.Color.ScaleAlpha(v))}); err != nil {
			return err
		}
	}
	return nil
}
