package backend

import (
	"testing"

	"github.com/dshills/lectern/internal/renderer/core"
)

func TestNewScreenBuffer(t *testing.T) {
	sb := NewScreenBuffer(80, 24)
	w, h := sb.Size()
	if w != 80 || h != 24 {
		t.Errorf("expected (80, 24), got (%d, %d)", w, h)
	}
}

func TestScreenBufferSetGetCell(t *testing.T) {
	sb := NewScreenBuffer(10, 5)
	cell := core.Cell{Rune: 'A', Width: 1}

	sb.SetCell(3, 2, cell)
	if got := sb.GetCell(3, 2); !got.Equals(cell) {
		t.Errorf("got %+v, want %+v", got, cell)
	}

	// Out of bounds
	sb.SetCell(20, 20, cell)
	if got := sb.GetCell(20, 20); !got.Equals(core.EmptyCell(core.Black)) {
		t.Error("out of bounds should return empty cell")
	}
}

func TestScreenBufferClear(t *testing.T) {
	sb := NewScreenBuffer(10, 5)
	sb.SetCell(1, 1, core.Cell{Rune: 'A', Width: 1})

	sb.Clear(core.Blue)

	want := core.EmptyCell(core.Blue)
	if got := sb.GetCell(1, 1); !got.Equals(want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got := sb.GetCell(-1, 0); !got.Equals(want) {
		t.Error("out of bounds cell should use the clear color")
	}
}

func TestScreenBufferResizeSmallerPreserves(t *testing.T) {
	sb := NewScreenBuffer(10, 10)
	cell := core.Cell{Rune: 'Z', Width: 1}
	sb.SetCell(2, 2, cell)

	sb.Resize(5, 5)

	if got := sb.GetCell(2, 2); !got.Equals(cell) {
		t.Error("resize should preserve content inside the new bounds")
	}
	if w, h := sb.Size(); w != 5 || h != 5 {
		t.Errorf("size = (%d, %d)", w, h)
	}
}

func TestScreenBufferDiff(t *testing.T) {
	sb := NewScreenBuffer(4, 2)

	// Initial state forces a full redraw.
	if n := len(sb.diff()); n != 8 {
		t.Errorf("first diff has %d changes, want 8", n)
	}
	sb.Sync()

	if diff := sb.diff(); diff != nil {
		t.Errorf("diff after sync = %v, want nil", diff)
	}

	sb.SetCell(1, 1, core.Cell{Rune: 'A', Width: 1})
	diff := sb.diff()
	if len(diff) != 1 || diff[0].X != 1 || diff[0].Y != 1 {
		t.Errorf("diff = %+v, want one change at (1, 1)", diff)
	}
}

func TestScreenBufferDiffSkipsUnchanged(t *testing.T) {
	sb := NewScreenBuffer(4, 2)
	sb.Sync()

	// Writing the same content marks dirty but produces no change.
	sb.SetCell(0, 0, core.EmptyCell(core.Black))
	if !sb.dirty[0][0] {
		t.Error("SetCell did not mark the cell dirty")
	}
	if diff := sb.diff(); len(diff) != 0 {
		t.Errorf("unchanged cell produced diff %+v", diff)
	}
}

func TestScreenBufferFlush(t *testing.T) {
	b := NewNullBackend(4, 2)
	b.Init()
	sb := NewScreenBuffer(4, 2)
	sb.Sync()

	sb.SetCell(0, 1, core.Cell{Rune: 'o', Width: 1})
	sb.SetCell(1, 1, core.Cell{Rune: 'k', Width: 1})
	if n := sb.Flush(b); n != 2 {
		t.Errorf("Flush applied %d changes, want 2", n)
	}
	if got := b.Row(1); got != "ok  " {
		t.Errorf("backend row = %q", got)
	}
	if b.Shows() != 1 {
		t.Errorf("Show called %d times, want 1", b.Shows())
	}
	if n := sb.Flush(b); n != 0 {
		t.Errorf("second Flush applied %d changes, want 0", n)
	}
}

func TestScreenBufferMarkFullRedraw(t *testing.T) {
	b := NewNullBackend(4, 2)
	b.Init()
	sb := NewScreenBuffer(4, 2)
	sb.Flush(b)

	sb.MarkFullRedraw()
	if n := sb.Flush(b); n != 8 {
		t.Errorf("Flush after MarkFullRedraw applied %d changes, want 8", n)
	}
	if n := sb.Flush(b); n != 0 {
		t.Errorf("second Flush applied %d changes, want 0", n)
	}
}
