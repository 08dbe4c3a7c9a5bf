package style

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/lectern/internal/renderer/core"
)

var (
	red   = Color(core.Red)
	blue  = Color(core.Blue)
	black = Color(core.Black)
)

func TestRunsScenarioRedBlue(t *testing.T) {
	s := NewStore(Attrs{KeyColor: black})
	require.NoError(t, s.SetStyle(0, 1, Attrs{KeyColor: red}))
	require.NoError(t, s.SetStyle(1, 2, Attrs{KeyColor: blue}))

	got := slices.Collect(s.Runs(KeyColor, 0, 2))
	assert.Equal(t, []Run{{0, 1, red}, {1, 2, blue}}, got)
}

func TestSetStyleInvalidRange(t *testing.T) {
	s := NewStore(nil)
	assert.ErrorIs(t, s.SetStyle(3, 2, Attrs{KeyBold: Bool(true)}), ErrInvalidRange)
	assert.ErrorIs(t, s.SetStyle(-1, 2, Attrs{KeyBold: Bool(true)}), ErrInvalidRange)
	assert.NoError(t, s.SetStyle(2, 2, Attrs{KeyBold: Bool(true)}))
	assert.Empty(t, s.Keys(), "empty range must be absorbed")
}

func TestSetStyleSplitsAndTrims(t *testing.T) {
	tests := []struct {
		name  string
		setup [][3]int // start, end, 0=red 1=blue
		want  []Run
	}{
		{
			name:  "split middle",
			setup: [][3]int{{0, 10, 0}, {3, 5, 1}},
			want:  []Run{{0, 3, red}, {3, 5, blue}, {5, 10, red}},
		},
		{
			name:  "trim left and right",
			setup: [][3]int{{0, 4, 0}, {6, 10, 0}, {2, 8, 1}},
			want:  []Run{{0, 2, red}, {2, 8, blue}, {8, 10, red}},
		},
		{
			name:  "cover fully",
			setup: [][3]int{{2, 4, 0}, {5, 6, 0}, {0, 10, 1}},
			want:  []Run{{0, 10, blue}},
		},
		{
			name:  "coalesce adjacent equal",
			setup: [][3]int{{0, 2, 0}, {2, 4, 0}},
			want:  []Run{{0, 4, red}},
		},
		{
			name:  "coalesce after overwrite",
			setup: [][3]int{{0, 2, 0}, {2, 4, 1}, {4, 6, 0}, {2, 4, 0}},
			want:  []Run{{0, 6, red}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(nil)
			for _, st := range tt.setup {
				v := red
				if st[2] == 1 {
					v = blue
				}
				require.NoError(t, s.SetStyle(st[0], st[1], Attrs{KeyColor: v}))
			}
			assert.Equal(t, tt.want, s.RawRuns(KeyColor))
		})
	}
}

func TestSetStyleZeroValueClears(t *testing.T) {
	s := NewStore(Attrs{KeyColor: black})
	require.NoError(t, s.SetStyle(0, 10, Attrs{KeyColor: red}))
	require.NoError(t, s.SetStyle(2, 8, Attrs{KeyColor: Value{}}))

	got := slices.Collect(s.Runs(KeyColor, 0, 10))
	assert.Equal(t, []Run{{0, 2, red}, {2, 8, black}, {8, 10, red}}, got)
}

func TestRunsFillsGapsWithDefault(t *testing.T) {
	s := NewStore(Attrs{KeyColor: black})
	require.NoError(t, s.SetStyle(3, 5, Attrs{KeyColor: red}))

	got := slices.Collect(s.Runs(KeyColor, 0, 8))
	assert.Equal(t, []Run{{0, 3, black}, {3, 5, red}, {5, 8, black}}, got)

	got = slices.Collect(s.Runs(KeyColor, 4, 6))
	assert.Equal(t, []Run{{4, 5, red}, {5, 6, black}}, got)

	assert.Empty(t, slices.Collect(s.Runs(KeyColor, 4, 4)))
	assert.Equal(t, []Run{{0, 2, Value{}}}, slices.Collect(s.Runs("missing", 0, 2)))
}

func TestRunsRestartableAndLazy(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.SetStyle(0, 2, Attrs{KeyColor: red}))
	seq := s.Runs(KeyColor, 0, 4)

	first := slices.Collect(seq)
	require.NoError(t, s.SetStyle(2, 4, Attrs{KeyColor: blue}))
	second := slices.Collect(seq)

	assert.Len(t, first, 2)
	assert.Equal(t, []Run{{0, 2, red}, {2, 4, blue}}, second)

	n := 0
	for range seq {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestSpans(t *testing.T) {
	s := NewStore(Attrs{KeyColor: black, KeyFontSize: Int(20)})
	require.NoError(t, s.SetStyle(2, 6, Attrs{KeyBold: Bool(true)}))
	require.NoError(t, s.SetStyle(4, 8, Attrs{KeyColor: red}))

	spans := slices.Collect(s.Spans(0, 8, KeyColor, KeyBold, KeyFontSize))
	require.Len(t, spans, 4)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 2, spans[0].End)
	assert.Equal(t, Attrs{KeyColor: black, KeyFontSize: Int(20)}, spans[0].Attrs)
	assert.Equal(t, Attrs{KeyColor: black, KeyBold: Bool(true), KeyFontSize: Int(20)}, spans[1].Attrs)
	assert.Equal(t, Attrs{KeyColor: red, KeyBold: Bool(true), KeyFontSize: Int(20)}, spans[2].Attrs)
	assert.Equal(t, Span{6, 8, Attrs{KeyColor: red, KeyFontSize: Int(20)}}, spans[3])
}

func TestShiftInsertInheritsPreceding(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.SetStyle(0, 2, Attrs{KeyColor: red}))
	require.NoError(t, s.SetStyle(2, 4, Attrs{KeyColor: blue}))

	s.Shift(2, 3)
	assert.Equal(t, []Run{{0, 5, red}, {5, 7, blue}}, s.RawRuns(KeyColor))

	s.Shift(0, 1)
	assert.Equal(t, []Run{{1, 6, red}, {6, 8, blue}}, s.RawRuns(KeyColor))
}

func TestShiftDeleteCollapses(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.SetStyle(0, 2, Attrs{KeyColor: red}))
	require.NoError(t, s.SetStyle(2, 4, Attrs{KeyColor: blue}))
	require.NoError(t, s.SetStyle(4, 6, Attrs{KeyColor: red}))

	s.Shift(2, -2)
	assert.Equal(t, []Run{{0, 4, red}}, s.RawRuns(KeyColor), "blue collapses and reds merge")

	s.Shift(0, -4)
	assert.Empty(t, s.Keys())
}

func TestShiftOffset(t *testing.T) {
	tests := []struct {
		off, at, delta, want int
	}{
		{1, 2, 5, 1},
		{2, 2, 5, 7},
		{3, 2, -2, 2},
		{4, 2, -2, 2},
		{5, 2, -2, 3},
		{1, 2, -2, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShiftOffset(tt.off, tt.at, tt.delta), "%+v", tt)
	}
}

func TestValueAt(t *testing.T) {
	s := NewStore(Attrs{KeyColor: black})
	require.NoError(t, s.SetStyle(2, 4, Attrs{KeyColor: red}))
	assert.Equal(t, black, s.ValueAt(KeyColor, 1))
	assert.Equal(t, red, s.ValueAt(KeyColor, 2))
	assert.Equal(t, red, s.ValueAt(KeyColor, 3))
	assert.Equal(t, black, s.ValueAt(KeyColor, 4))
}

func TestCloneEqual(t *testing.T) {
	s := NewStore(Attrs{KeyColor: black})
	require.NoError(t, s.SetStyle(2, 4, Attrs{KeyColor: red}))
	c := s.Clone()
	assert.True(t, s.Equal(c))
	require.NoError(t, c.SetStyle(0, 1, Attrs{KeyBold: Bool(true)}))
	assert.False(t, s.Equal(c))
}

// TestRandomNonOverlap checks that after arbitrary restyles the runs for a
// key never overlap and exactly cover the queried range.
func TestRandomNonOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	values := []Value{red, blue, black, {}}
	for trial := 0; trial < 200; trial++ {
		s := NewStore(Attrs{KeyColor: Color(core.White)})
		ref := make([]Value, 100)
		for i := range ref {
			ref[i] = Color(core.White)
		}
		for op := 0; op < 30; op++ {
			a, b := rng.Intn(101), rng.Intn(101)
			if a > b {
				a, b = b, a
			}
			v := values[rng.Intn(len(values))]
			require.NoError(t, s.SetStyle(a, b, Attrs{KeyColor: v}))
			for i := a; i < b; i++ {
				if v.IsZero() {
					ref[i] = Color(core.White)
				} else {
					ref[i] = v
				}
			}
		}

		qa, qb := rng.Intn(50), 50+rng.Intn(51)
		pos := qa
		var prev *Run
		for r := range s.Runs(KeyColor, qa, qb) {
			require.Equal(t, pos, r.Start, "runs must be contiguous")
			require.Less(t, r.Start, r.End)
			for i := r.Start; i < r.End; i++ {
				require.Equal(t, ref[i], r.Value, "offset %d", i)
			}
			if prev != nil {
				require.False(t, prev.Value.Equal(r.Value), "adjacent runs must differ")
			}
			rr := r
			prev = &rr
			pos = r.End
		}
		require.Equal(t, qb, pos, "runs must cover the range")

		raw := s.RawRuns(KeyColor)
		for i := 1; i < len(raw); i++ {
			require.LessOrEqual(t, raw[i-1].End, raw[i].Start)
		}
	}
}

func TestValueAccessors(t *testing.T) {
	assert.Equal(t, core.Red, red.AsColor(core.Black))
	assert.Equal(t, core.Black, Int(3).AsColor(core.Black))
	assert.True(t, Bool(true).AsBool())
	assert.False(t, Int(1).AsBool())
	assert.Equal(t, 3, Float(3.7).AsInt(0))
	assert.Equal(t, 2.0, Int(2).AsFloat(0))
	assert.Equal(t, "x", String("x").AsString(""))
	assert.Equal(t, "fb", Int(1).AsString("fb"))
	assert.Equal(t, KindColor, red.Kind())
	assert.Equal(t, "color", KindColor.String())
	assert.True(t, Value{}.IsZero())
}
