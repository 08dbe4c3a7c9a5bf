package expose

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/anim"
	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/renderer/core"
)

// ErrUnknownStyle is returned by ParseStyle.
var ErrUnknownStyle = errors.New("unknown expose style")

// Style says how a group appears.
type Style uint8

const (
	// Show groups are visible from the start and never sequenced.
	Show Style = iota
	// Expose groups snap on and off.
	Expose
	// Fade groups animate their alpha over the sequencer duration.
	Fade
)

func (s Style) String() string {
	switch s {
	case Show:
		return "show"
	case Expose:
		return "expose"
	case Fade:
		return "fade"
	default:
		return fmt.Sprintf("Style(%d)", uint8(s))
	}
}

// ParseStyle parses "show", "expose" or "fade".
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "show", "":
		return Show, nil
	case "expose":
		return Expose, nil
	case "fade":
		return Fade, nil
	default:
		return Show, fmt.Errorf("%w: %q", ErrUnknownStyle, s)
	}
}

// Group is a range of text and the elements inside it that appear
// together.
type Group struct {
	Style    Style
	Start    int
	End      int
	Elements []document.Element
}

// Bracket batches document changes into one re-flow. Layouts implement it.
type Bracket interface {
	BeginUpdate() error
	EndUpdate() error
}

type group struct {
	Group
	on    bool
	alpha uint8
	runs  []document.ColorRun
}

// Sequencer reveals groups one at a time.
type Sequencer struct {
	doc      *document.Document
	sched    *anim.Scheduler
	groups   []*group
	duration time.Duration
	color    core.Color
	logger   *zap.Logger
	bracket  Bracket

	active      anim.ID
	activeGroup *group
	target      uint8
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithDuration sets the fade duration.
func WithDuration(d time.Duration) Option {
	return func(s *Sequencer) { s.duration = max(d, 0) }
}

// WithDefaultColor sets the color unstyled text is assumed to have.
func WithDefaultColor(c core.Color) Option {
	return func(s *Sequencer) { s.color = c }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sequencer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a sequencer over groups, which must be in document order.
// Text colors are captured now and restored when a group is shown.
func New(doc *document.Document, sched *anim.Scheduler, groups []Group, opts ...Option) *Sequencer {
	s := &Sequencer{
		doc:      doc,
		sched:    sched,
		duration: 500 * time.Millisecond,
		color:    core.White,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, g := range groups {
		s.groups = append(s.groups, &group{
			Group: g,
			on:    true,
			alpha: 255,
			runs:  doc.ColorRuns(g.Start, min(g.End, doc.Len()), s.color),
		})
	}
	return s
}

// Attach sets the layout recoloring is bracketed with; nil detaches.
func (s *Sequencer) Attach(b Bracket) { s.bracket = b }

// Len returns the number of groups.
func (s *Sequencer) Len() int { return len(s.groups) }

// On reports whether group i is revealed.
func (s *Sequencer) On(i int) bool { return s.groups[i].on }

// Alpha returns the current alpha of group i.
func (s *Sequencer) Alpha(i int) uint8 { return s.groups[i].alpha }

// Animating reports whether a fade is in flight.
func (s *Sequencer) Animating() bool { return s.active != 0 && s.sched.Scheduled(s.active) }

// Remaining returns how many groups are still hidden.
func (s *Sequencer) Remaining() int {
	n := 0
	for _, g := range s.groups {
		if g.Style != Show && !g.on {
			n++
		}
	}
	return n
}

// Reset hides every sequenced group.
func (s *Sequencer) Reset() {
	s.Cancel()
	s.edit(func() {
		for _, g := range s.groups {
			if g.Style == Show {
				continue
			}
			g.on = false
			s.apply(g, 0)
		}
	})
}

// RevealForward reveals the first hidden group. It reports false when none
// remain.
func (s *Sequencer) RevealForward() bool {
	s.finish()
	for _, g := range s.groups {
		if g.Style == Show || g.on {
			continue
		}
		g.on = true
		s.transition(g, 255)
		return true
	}
	return false
}

// RevealBackward hides the last revealed group. It reports false when
// nothing is revealed.
func (s *Sequencer) RevealBackward() bool {
	s.finish()
	for i := len(s.groups) - 1; i >= 0; i-- {
		g := s.groups[i]
		if g.Style == Show || !g.on {
			continue
		}
		g.on = false
		s.transition(g, 0)
		return true
	}
	return false
}

// RevealAll reveals every group at once, e.g. when entering a page from
// the one after it.
func (s *Sequencer) RevealAll() {
	s.Cancel()
	s.edit(func() {
		for _, g := range s.groups {
			g.on = true
			s.apply(g, 255)
		}
	})
}

// Cancel unschedules any fade and snaps its group to the target alpha.
// It must be called before the page is torn down.
func (s *Sequencer) Cancel() {
	if s.active == 0 {
		return
	}
	s.sched.Cancel(s.active)
	g, target := s.activeGroup, s.target
	s.active, s.activeGroup = 0, nil
	s.edit(func() { s.apply(g, target) })
}

// finish completes an in-flight fade.
func (s *Sequencer) finish() {
	if s.active != 0 {
		s.sched.Finish(s.active)
	}
}

func (s *Sequencer) transition(g *group, target uint8) {
	if g.Style != Fade || s.duration <= 0 {
		s.edit(func() { s.apply(g, target) })
		return
	}
	from := g.alpha
	s.activeGroup, s.target = g, target
	s.active = s.sched.Animate(s.duration, func(t float64) {
		a := uint8(float64(from) + (float64(target)-float64(from))*t + 0.5)
		if t >= 1 {
			a = target
			s.active, s.activeGroup = 0, nil
		}
		s.edit(func() { s.apply(g, a) })
	})
}

// apply sets a group's alpha on its text and elements.
func (s *Sequencer) apply(g *group, a uint8) {
	g.alpha = a
	if err := s.doc.ApplyOpacity(g.runs, a); err != nil {
		s.logger.Warn("expose group recolor", zap.Int("start", g.Start), zap.Error(err))
	}
	for _, el := range g.Elements {
		el.SetOpacity(a)
	}
}

func (s *Sequencer) edit(fn func()) {
	if s.bracket == nil || s.bracket.BeginUpdate() != nil {
		fn()
		return
	}
	fn()
	_ = s.bracket.EndUpdate()
}
