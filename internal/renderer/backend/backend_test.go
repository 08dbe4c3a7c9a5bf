package backend

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/lectern/internal/renderer/core"
)

func TestNullBackendInit(t *testing.T) {
	b := NewNullBackend(80, 24)
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	w, h := b.Size()
	if w != 80 || h != 24 {
		t.Errorf("expected size (80, 24), got (%d, %d)", w, h)
	}
}

func TestNullBackendSetGetCell(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	cell := core.Cell{Rune: 'X', Width: 1, Style: core.Style{Foreground: core.Red}}
	b.SetCell(10, 5, cell)

	got := b.GetCell(10, 5)
	if !got.Equals(cell) {
		t.Errorf("cell mismatch: expected %+v, got %+v", cell, got)
	}

	// Out of bounds should be ignored/return empty
	b.SetCell(-1, 0, cell)
	b.SetCell(100, 0, cell)

	empty := b.GetCell(-1, 0)
	if !empty.Equals(core.EmptyCell(core.Black)) {
		t.Error("out of bounds should return empty cell")
	}
}

func TestNullBackendFill(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	cell := core.Cell{Rune: '.', Width: 1}
	b.Fill(core.R(10, 5, 10, 5), cell)

	if got := b.GetCell(15, 7); !got.Equals(cell) {
		t.Error("cell inside rect should be filled")
	}
	if got := b.GetCell(20, 7); got.Equals(cell) {
		t.Error("right edge is exclusive")
	}
	if got := b.GetCell(0, 0); got.Equals(cell) {
		t.Error("cell outside rect should not be filled")
	}

	// Partially off-screen rectangles are clipped.
	b.Fill(core.R(-5, -5, 7, 7), cell)
	if got := b.GetCell(1, 1); !got.Equals(cell) {
		t.Error("clipped fill should cover the visible part")
	}
}

func TestNullBackendClear(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	b.SetCell(10, 10, core.Cell{Rune: 'X', Width: 1})
	b.SetCell(20, 20, core.Cell{Rune: 'Y', Width: 1})
	b.Clear()

	if got := b.GetCell(10, 10); !got.Equals(core.EmptyCell(core.Black)) {
		t.Error("clear should reset all cells")
	}
}

func TestNullBackendResize(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	var gotW, gotH int
	b.OnResize(func(w, h int) {
		gotW, gotH = w, h
	})

	b.Resize(100, 30)

	if gotW != 100 || gotH != 30 {
		t.Errorf("resize callback got (%d, %d), want (100, 30)", gotW, gotH)
	}
	if w, h := b.Size(); w != 100 || h != 30 {
		t.Errorf("size after resize = (%d, %d)", w, h)
	}
}

func TestNullBackendPostEvent(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	ev := Event{Type: EventKey, Key: KeyRune, Rune: 'a'}
	b.PostEvent(ev)

	got := b.PollEvent()
	if got.Type != EventKey || got.Rune != 'a' {
		t.Errorf("unexpected event: %+v", got)
	}
}

func TestNullBackendRow(t *testing.T) {
	b := NewNullBackend(5, 2)
	b.Init()

	b.SetCell(1, 0, core.Cell{Rune: 'h', Width: 1})
	b.SetCell(2, 0, core.Cell{Rune: 'i', Width: 1})

	if got := b.Row(0); got != " hi  " {
		t.Errorf("Row(0) = %q", got)
	}
	if got := b.Row(5); got != "" {
		t.Errorf("Row(5) = %q, want empty", got)
	}
}

func TestModMaskHas(t *testing.T) {
	m := ModShift | ModCtrl

	if !m.Has(ModShift) {
		t.Error("should have Shift")
	}
	if !m.Has(ModCtrl) {
		t.Error("should have Ctrl")
	}
	if m.Has(ModAlt) {
		t.Error("should not have Alt")
	}
}

func TestConvertColorRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   core.Color
		want core.Color
	}{
		{"opaque", core.RGBA(10, 20, 30, 255), core.RGBA(10, 20, 30, 255)},
		{"transparent is default", core.Transparent, core.Transparent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertTcellColor(convertColor(tt.in))
			if got != tt.want {
				t.Errorf("round trip = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertStyleAttributes(t *testing.T) {
	s := core.Style{
		Foreground: core.White,
		Background: core.Black,
		Attributes: core.AttrBold | core.AttrUnderline,
	}
	back := convertTcellStyle(convertStyle(s))
	if back.Attributes != s.Attributes {
		t.Errorf("attributes = %v, want %v", back.Attributes, s.Attributes)
	}
	if back.Foreground != core.White {
		t.Errorf("foreground = %v", back.Foreground)
	}
}

func TestTerminalOnSimulationScreen(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	term := NewTerminalWithScreen(screen)
	if err := term.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer term.Shutdown()
	screen.SetSize(8, 2)

	if w, h := term.Size(); w != 8 || h != 2 {
		t.Errorf("Size() = %d, %d, want 8, 2", w, h)
	}

	term.SetCell(1, 0, core.Cell{Rune: 'x', Width: 1, Style: core.Style{Foreground: core.Red}})
	term.Show()
	if got := term.GetCell(1, 0); got.Rune != 'x' || got.Style.Foreground != core.Red {
		t.Errorf("GetCell = %+v", got)
	}

	term.PostEvent(Event{Type: EventKey, Key: KeyRune, Rune: 'q'})
	if ev := term.PollEvent(); ev.Type != EventKey || ev.Rune != 'q' {
		t.Errorf("PollEvent = %+v, want the posted key", ev)
	}
}
