package element

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/renderer/core"
)

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"box", "clock"}, r.Names())

	_, err := r.New("sparkles", "")
	assert.ErrorIs(t, err, ErrUnknownPlugin)

	el, err := r.New("BOX", "3 2 #ff0000")
	require.NoError(t, err)
	assert.Equal(t, document.Metrics{Ascent: 2, Advance: 3}, el.Metrics())
}

func TestBoxArgs(t *testing.T) {
	for _, args := range []string{"", "3", "a 2", "3 -1", "3 2 notacolor", "1 2 3 4"} {
		_, err := NewBox(args)
		assert.ErrorIs(t, err, ErrInvalidArgs, "%q", args)
	}
}

func TestBoxPlacement(t *testing.T) {
	el, err := NewBox("3 2 #00ff00")
	require.NoError(t, err)
	s := newSurface()

	require.NoError(t, el.Place(s, 1, 5))
	it := s.b.Items()[0]
	assert.Equal(t, core.R(1, 3, 3, 2), it.Rect())
	assert.Equal(t, core.RGBA(0, 255, 0, 255), it.Color())

	el.SetOpacity(0)
	assert.Equal(t, uint8(0), it.Color().A)

	allocs := s.b.Allocations()
	require.NoError(t, el.Place(s, 1, 5))
	assert.Equal(t, allocs, s.b.Allocations())

	el.SetScale(2)
	assert.Equal(t, document.Metrics{Ascent: 4, Advance: 6}, el.Metrics())
	el.Remove(nil)
	assert.Equal(t, 0, s.b.Len())
}

func TestClockTicks(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	el, err := NewClock("15:04", WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	c := el.(*Clock)
	assert.Equal(t, "09:30", c.Text())
	assert.Equal(t, document.Metrics{Ascent: 1, Advance: 5}, c.Metrics())

	s := newSurface()
	require.NoError(t, c.Place(s, 0, 1))
	assert.Positive(t, s.b.Len())

	now = now.Add(time.Minute)
	c.Update(time.Second)
	assert.Equal(t, "09:31", c.Text())

	c.Remove(s)
	assert.Equal(t, 0, s.b.Len())
}
