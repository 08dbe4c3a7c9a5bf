package expose

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/lectern/internal/anim"
	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/renderer/core"
)

type fadeElement struct{ alpha uint8 }

func (e *fadeElement) Metrics() document.Metrics              { return document.Metrics{Ascent: 1, Advance: 1} }
func (e *fadeElement) Place(document.Surface, int, int) error { return nil }
func (e *fadeElement) Remove(document.Surface)                {}
func (e *fadeElement) SetOpacity(v uint8)                     { e.alpha = v }
func (e *fadeElement) SetScale(float64)                       {}

type countingBracket struct{ begins, ends int }

func (b *countingBracket) BeginUpdate() error { b.begins++; return nil }
func (b *countingBracket) EndUpdate() error   { b.ends++; return nil }

// three lines, one group each: "one\n" [0,4) "two\n" [4,8) "three" [8,13)
func setup(t *testing.T, styles ...Style) (*Sequencer, *document.Document, *anim.Scheduler) {
	t.Helper()
	doc, err := document.FromString("one\ntwo\nthree", nil)
	require.NoError(t, err)
	bounds := [][2]int{{0, 4}, {4, 8}, {8, 13}}
	var groups []Group
	for i, st := range styles {
		groups = append(groups, Group{Style: st, Start: bounds[i][0], End: bounds[i][1]})
	}
	sched := anim.New()
	return New(doc, sched, groups, WithDuration(100*time.Millisecond)), doc, sched
}

func alphaAt(doc *document.Document, off int) uint8 {
	for r := range doc.StyleRuns(style.KeyColor, off, off+1) {
		return r.Value.AsColor(core.White).A
	}
	return 0
}

func TestParseStyle(t *testing.T) {
	for in, want := range map[string]Style{"show": Show, "Expose": Expose, " fade ": Fade, "": Show} {
		got, err := ParseStyle(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStyle("sparkle")
	assert.ErrorIs(t, err, ErrUnknownStyle)
}

func TestResetHidesSequencedGroups(t *testing.T) {
	s, doc, _ := setup(t, Show, Expose, Expose)
	s.Reset()

	assert.True(t, s.On(0))
	assert.False(t, s.On(1))
	assert.Equal(t, uint8(255), alphaAt(doc, 0))
	assert.Equal(t, uint8(0), alphaAt(doc, 5))
	assert.Equal(t, uint8(0), alphaAt(doc, 9))
	assert.Equal(t, 2, s.Remaining())
}

func TestRevealWalksInOrder(t *testing.T) {
	s, doc, _ := setup(t, Show, Expose, Expose)
	s.Reset()

	require.True(t, s.RevealForward())
	assert.True(t, s.On(1))
	assert.False(t, s.On(2))
	assert.Equal(t, uint8(255), alphaAt(doc, 5))

	require.True(t, s.RevealForward())
	assert.False(t, s.RevealForward(), "nothing left")

	require.True(t, s.RevealBackward())
	assert.False(t, s.On(2))
	assert.Equal(t, uint8(0), alphaAt(doc, 9))
	require.True(t, s.RevealBackward())
	assert.False(t, s.RevealBackward(), "show groups are never hidden")
	assert.True(t, s.On(0))
}

func TestFadeIsMonotonic(t *testing.T) {
	s, doc, sched := setup(t, Fade)
	el := &fadeElement{}
	s.groups[0].Elements = []document.Element{el}
	s.Reset()
	require.True(t, s.RevealForward())
	assert.True(t, s.Animating())

	last := alphaAt(doc, 0)
	for range 12 {
		sched.Advance(10 * time.Millisecond)
		a := alphaAt(doc, 0)
		assert.GreaterOrEqual(t, a, last)
		assert.Equal(t, a, el.alpha)
		last = a
	}
	assert.Equal(t, uint8(255), last)
	assert.False(t, s.Animating())

	require.True(t, s.RevealBackward())
	last = 255
	for range 12 {
		sched.Advance(10 * time.Millisecond)
		a := alphaAt(doc, 0)
		assert.LessOrEqual(t, a, last)
		last = a
	}
	assert.Equal(t, uint8(0), last)
}

func TestNewRevealFinishesFade(t *testing.T) {
	s, doc, sched := setup(t, Fade, Fade)
	s.Reset()
	require.True(t, s.RevealForward())
	sched.Advance(20 * time.Millisecond)
	require.Less(t, alphaAt(doc, 0), uint8(255))

	require.True(t, s.RevealForward())
	assert.Equal(t, uint8(255), alphaAt(doc, 0), "first fade completed")
	assert.Equal(t, 1, sched.Pending())
}

func TestCancelSnapsAndUnschedules(t *testing.T) {
	s, doc, sched := setup(t, Fade)
	s.Reset()
	require.True(t, s.RevealForward())
	sched.Advance(30 * time.Millisecond)

	s.Cancel()
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, uint8(255), alphaAt(doc, 0))
	assert.False(t, s.Animating())
}

func TestRecolorIsBracketed(t *testing.T) {
	s, _, _ := setup(t, Expose, Expose)
	b := &countingBracket{}
	s.Attach(b)

	s.Reset()
	s.RevealForward()
	assert.Equal(t, 2, b.begins)
	assert.Equal(t, b.begins, b.ends)
}

func TestRevealAll(t *testing.T) {
	s, doc, _ := setup(t, Expose, Fade, Expose)
	s.Reset()
	s.RevealAll()
	assert.Equal(t, 0, s.Remaining())
	assert.Equal(t, uint8(255), alphaAt(doc, 9))
	assert.False(t, s.RevealForward())
}
