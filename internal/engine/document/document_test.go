package document

import (
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
)

type fakeElement struct {
	name    string
	metrics Metrics
	removed []Surface
}

func (f *fakeElement) Metrics() Metrics              { return f.metrics }
func (f *fakeElement) Place(Surface, int, int) error { return nil }
func (f *fakeElement) Remove(s Surface)              { f.removed = append(f.removed, s) }
func (f *fakeElement) SetOpacity(uint8)              {}
func (f *fakeElement) SetScale(float64)              {}

type fakeSurface struct{ b *batch.Batch }

func (s *fakeSurface) Batch() *batch.Batch { return s.b }
func (s *fakeSurface) Clip() core.Rect     { return core.Rect{} }

var (
	red  = style.Color(core.Red)
	blue = style.Color(core.Blue)
)

func TestInsertText(t *testing.T) {
	d := New(nil)
	require.NoError(t, d.InsertText(0, "hello", nil))
	require.NoError(t, d.InsertText(5, " world", style.Attrs{style.KeyColor: red}))

	assert.Equal(t, "hello world", d.Text())
	assert.Equal(t, 11, d.Len())
	runs := slices.Collect(d.StyleRuns(style.KeyColor, 0, 11))
	assert.Equal(t, []style.Run{{Start: 0, End: 5}, {Start: 5, End: 11, Value: red}}, runs)
}

func TestInsertTextErrors(t *testing.T) {
	d := New(nil)
	assert.ErrorIs(t, d.InsertText(1, "x", nil), ErrOffsetOutOfRange)
	assert.ErrorIs(t, d.InsertText(-1, "x", nil), ErrOffsetOutOfRange)
	assert.ErrorIs(t, d.InsertText(0, "a￼b", nil), ErrSentinel)
	assert.ErrorIs(t, d.DeleteText(0, 1), ErrOffsetOutOfRange)
	assert.ErrorIs(t, d.SetStyle(0, 1, style.Attrs{style.KeyColor: red}), ErrOffsetOutOfRange)
}

func TestSetStyleScenario(t *testing.T) {
	d, err := FromString("AB", nil)
	require.NoError(t, err)
	require.NoError(t, d.SetStyle(0, 1, style.Attrs{style.KeyColor: red}))
	require.NoError(t, d.SetStyle(1, 2, style.Attrs{style.KeyColor: blue}))

	runs := slices.Collect(d.StyleRuns(style.KeyColor, 0, 2))
	assert.Equal(t, []style.Run{{Start: 0, End: 1, Value: red}, {Start: 1, End: 2, Value: blue}}, runs)

	assert.ErrorIs(t, d.SetStyle(2, 1, style.Attrs{style.KeyColor: red}), style.ErrInvalidRange)
}

func TestDeleteRemovesElementScenario(t *testing.T) {
	d, err := FromString("AB", nil)
	require.NoError(t, err)
	el := &fakeElement{name: "e"}
	require.NoError(t, d.InsertElement(1, el, nil))
	assert.Equal(t, "A￼B", d.Text())

	got, ok := d.ElementAt(1)
	require.True(t, ok)
	assert.Same(t, el, got)

	require.NoError(t, d.DeleteText(0, 2))
	assert.Equal(t, "B", d.Text())
	assert.Equal(t, 0, d.ElementCount())
	assert.Equal(t, []Surface{nil}, el.removed, "remove must be invoked once with no surfaces attached")
}

func TestDeleteRemovesFromAttachedSurfaces(t *testing.T) {
	d, err := FromString("xy", nil)
	require.NoError(t, err)
	el := &fakeElement{}
	require.NoError(t, d.InsertElement(1, el, nil))

	s1 := &fakeSurface{b: batch.New()}
	s2 := &fakeSurface{b: batch.New()}
	d.Attach(s1)
	d.Attach(s2)
	d.Attach(s1)

	require.NoError(t, d.DeleteText(1, 2))
	assert.Equal(t, []Surface{s1, s2}, el.removed)

	d.Detach(s1)
	el2 := &fakeElement{}
	require.NoError(t, d.InsertElement(0, el2, nil))
	require.NoError(t, d.DeleteText(0, 1))
	assert.Equal(t, []Surface{s2}, el2.removed)
}

func TestElementsShiftWithEdits(t *testing.T) {
	d, err := FromString("abcdef", nil)
	require.NoError(t, err)
	e1, e2 := &fakeElement{name: "1"}, &fakeElement{name: "2"}
	require.NoError(t, d.InsertElement(2, e1, nil))
	require.NoError(t, d.InsertElement(5, e2, nil))

	require.NoError(t, d.InsertText(0, "XX", nil))
	off1, _ := d.OffsetOf(e1)
	off2, _ := d.OffsetOf(e2)
	assert.Equal(t, 4, off1)
	assert.Equal(t, 7, off2)

	require.NoError(t, d.DeleteText(0, 3))
	off1, _ = d.OffsetOf(e1)
	off2, _ = d.OffsetOf(e2)
	assert.Equal(t, 1, off1)
	assert.Equal(t, 4, off2)

	for off, el := range d.Elements() {
		r, ok := d.RuneAt(off)
		require.True(t, ok)
		assert.Equal(t, Sentinel, r, "element %v must sit on its placeholder", el)
	}

	var in []Element
	for _, el := range d.ElementsIn(2, 10) {
		in = append(in, el)
	}
	assert.Equal(t, []Element{e2}, in)
}

func TestNotifications(t *testing.T) {
	d := New(nil)
	var got []Change
	cancel := d.Subscribe(func(c Change) { got = append(got, c) })

	require.NoError(t, d.InsertText(0, "hello", nil))
	require.NoError(t, d.SetStyle(1, 3, style.Attrs{style.KeyBold: style.Bool(true)}))
	el := &fakeElement{}
	require.NoError(t, d.InsertElement(5, el, nil))
	require.NoError(t, d.ElementChanged(el))
	require.NoError(t, d.DeleteText(4, 6))
	require.NoError(t, d.SetStyle(1, 1, style.Attrs{style.KeyBold: style.Bool(true)}))

	require.Len(t, got, 5)
	assert.Equal(t, Change{Kind: ChangeInsert, Offset: 0, Length: 5}, got[0])
	assert.Equal(t, Change{Kind: ChangeStyle, Offset: 1, Length: 2}, got[1])
	assert.Equal(t, Change{Kind: ChangeInsert, Offset: 5, Length: 1}, got[2])
	assert.Equal(t, Change{Kind: ChangeElement, Offset: 5, Length: 1}, got[3])
	assert.Equal(t, ChangeDelete, got[4].Kind)
	assert.Equal(t, []Element{el}, got[4].Removed)

	cancel()
	require.NoError(t, d.InsertText(0, "x", nil))
	assert.Len(t, got, 5)

	assert.ErrorIs(t, d.ElementChanged(&fakeElement{}), ErrUnknownElement)
}

// TestInsertDeleteRoundTrip checks that inserting text and deleting it again
// restores text, runs and elements.
func TestInsertDeleteRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	colors := []style.Value{red, blue, style.Color(core.Green)}
	for trial := 0; trial < 300; trial++ {
		d := New(style.Attrs{style.KeyColor: style.Color(core.Black)})
		for i := 0; i < 5; i++ {
			text := strings.Repeat(string(rune('a'+rng.Intn(26))), rng.Intn(6)+1)
			require.NoError(t, d.InsertText(rng.Intn(d.Len()+1), text, nil))
			if rng.Intn(2) == 0 {
				require.NoError(t, d.InsertElement(rng.Intn(d.Len()+1), &fakeElement{}, nil))
			}
		}
		for i := 0; i < 4; i++ {
			a := rng.Intn(d.Len() + 1)
			b := a + rng.Intn(d.Len()-a+1)
			require.NoError(t, d.SetStyle(a, b, style.Attrs{style.KeyColor: colors[rng.Intn(len(colors))]}))
		}

		before := d.Clone()
		at := rng.Intn(d.Len() + 1)
		text := "xyz"[:rng.Intn(3)+1]
		var attrs style.Attrs
		if rng.Intn(2) == 0 {
			attrs = style.Attrs{style.KeyColor: colors[rng.Intn(len(colors))], style.KeyBold: style.Bool(true)}
		}
		require.NoError(t, d.InsertText(at, text, attrs))
		require.NoError(t, d.DeleteText(at, at+len(text)))

		require.True(t, d.Equal(before), "trial %d: round trip at %d changed the document", trial, at)
	}
}

func TestRelease(t *testing.T) {
	d := New(nil)
	el := &fakeElement{}
	require.NoError(t, d.AppendElement(el, nil))
	d.Release()
	assert.Equal(t, []Surface{nil}, el.removed)

	got, ok := d.ElementAt(0)
	require.True(t, ok, "released elements keep their placeholders")
	assert.Same(t, el, got)
	assert.Equal(t, string(Sentinel), d.Text())
}

type ownedElement struct {
	fakeElement
	owner *Document
}

func (o *ownedElement) SetOwner(d *Document) { o.owner = d }

func TestOwnedElement(t *testing.T) {
	d := mustFromString(t, "ab")
	el := &ownedElement{}
	require.NoError(t, d.InsertElement(1, el, nil))
	assert.Same(t, d, el.owner)

	require.NoError(t, d.DeleteText(1, 2))
	assert.Nil(t, el.owner)
}

func mustFromString(t *testing.T, s string) *Document {
	t.Helper()
	d, err := FromString(s, nil)
	require.NoError(t, err)
	return d
}

func TestApplyOpacityRestoresSnapshot(t *testing.T) {
	d := mustFromString(t, "red and plain")
	require.NoError(t, d.SetStyle(0, 3, style.Attrs{style.KeyColor: style.Color(core.Red)}))

	runs := d.ColorRuns(0, d.Len(), core.White)
	require.Len(t, runs, 2)
	assert.Equal(t, ColorRun{Start: 0, End: 3, Color: core.Red}, runs[0])
	assert.Equal(t, core.White, runs[1].Color)

	require.NoError(t, d.ApplyOpacity(runs, 0))
	for r := range d.StyleRuns(style.KeyColor, 0, d.Len()) {
		assert.Equal(t, uint8(0), r.Value.AsColor(core.Black).A)
	}

	require.NoError(t, d.ApplyOpacity(runs, 255))
	assert.Equal(t, runs, d.ColorRuns(0, d.Len(), core.White))

	require.NoError(t, d.DeleteText(0, d.Len()))
	assert.ErrorIs(t, d.ApplyOpacity(runs, 10), ErrOffsetOutOfRange)
}
