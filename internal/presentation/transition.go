package presentation

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/lectern/internal/anim"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
)

// fade runs the page transition: the clear color moves from the old
// page's background to the new one while a veil in the old color fades
// out over the new content.
type fade struct {
	sched *anim.Scheduler
	batch *batch.Batch
	veil  *batch.Item
	from  core.Color
	t     float64
	id    anim.ID
}

func newFade(s *anim.Scheduler) *fade {
	return &fade{sched: s, batch: batch.New()}
}

func (f *fade) active() bool { return f.veil != nil }

func (f *fade) start(from core.Color, d time.Duration, w, h int) {
	f.stop()
	if d <= 0 {
		return
	}
	f.from, f.t = from, 0
	f.veil = f.batch.AddQuad(batch.LayerOverlay, core.R(0, 0, w, h), from)
	f.id = f.sched.Animate(d, func(t float64) {
		f.t = t
		if t >= 1 {
			f.id = 0
			f.clear()
			return
		}
		f.veil.SetColor(from.WithAlpha(uint8(float64(from.A) * (1 - t))))
	})
}

func (f *fade) stop() {
	if f.id != 0 {
		f.sched.Cancel(f.id)
		f.id = 0
	}
	f.clear()
}

func (f *fade) clear() {
	if f.veil != nil {
		f.veil.Remove()
		f.veil = nil
	}
}

// background returns the clear color for a page whose own background is
// to.
func (f *fade) background(to core.Color) core.Color {
	if !f.active() {
		return to
	}
	return blendLab(f.from, to, f.t)
}

// blendLab mixes a toward b in CIE L*a*b*. The alpha is b's.
func blendLab(a, b core.Color, t float64) core.Color {
	ca := colorful.Color{R: float64(a.R) / 255, G: float64(a.G) / 255, B: float64(a.B) / 255}
	cb := colorful.Color{R: float64(b.R) / 255, G: float64(b.G) / 255, B: float64(b.B) / 255}
	r, g, bl := ca.BlendLab(cb, min(max(t, 0), 1)).Clamped().RGB255()
	return core.RGBA(r, g, bl, b.A)
}
