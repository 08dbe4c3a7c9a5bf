package dirty

import (
	"sync"
)

// ChangeType represents the type of document change.
type ChangeType uint8

const (
	// ChangeInsert indicates text or an element was inserted.
	ChangeInsert ChangeType = iota

	// ChangeDelete indicates text was deleted.
	ChangeDelete

	// ChangeStyle indicates only styling changed.
	ChangeStyle

	// ChangeElement indicates an element's box changed.
	ChangeElement

	// ChangeResize indicates the viewport changed size.
	ChangeResize
)

// String returns the string representation of the change type.
func (ct ChangeType) String() string {
	switch ct {
	case ChangeInsert:
		return "insert"
	case ChangeDelete:
		return "delete"
	case ChangeStyle:
		return "style"
	case ChangeElement:
		return "element"
	case ChangeResize:
		return "resize"
	default:
		return "unknown"
	}
}

// Change represents a single change event. Offset and Length are in the
// coordinates after the change; for a delete, Length is the number of runes
// removed at Offset.
type Change struct {
	Type   ChangeType
	Offset int
	Length int
}

// Tracker tracks dirty ranges and coalesces them for re-flow.
type Tracker struct {
	mu sync.RWMutex

	// ranges contains the current dirty ranges, kept sorted and disjoint.
	ranges []Range

	// full indicates the whole document needs re-flow.
	full bool

	// maxRanges is the maximum number of ranges before forcing a full re-flow.
	maxRanges int

	// changes counts the changes recorded since the last Clear.
	changes int
}

// NewTracker creates a new dirty range tracker.
func NewTracker() *Tracker {
	return &Tracker{
		ranges:    make([]Range, 0, 8),
		maxRanges: 32,
	}
}

// MarkFull marks the whole document dirty.
func (t *Tracker) MarkFull() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.full = true
	t.ranges = t.ranges[:0]
	t.changes++
}

// MarkRange marks a range dirty without shifting existing ranges.
func (t *Tracker) MarkRange(r Range) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.changes++
	if t.full {
		return
	}
	t.addRange(r)
}

// MarkChange shifts the ranges already recorded through the change, then
// marks the changed window dirty.
func (t *Tracker) MarkChange(c Change) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.changes++
	if t.full {
		return
	}

	switch c.Type {
	case ChangeResize:
		t.full = true
		t.ranges = t.ranges[:0]
	case ChangeInsert:
		t.shift(c.Offset, c.Length)
		t.addRange(NewRange(c.Offset, c.Offset+c.Length))
	case ChangeDelete:
		t.shift(c.Offset, -c.Length)
		t.addRange(Point(c.Offset))
	default:
		t.addRange(NewRange(c.Offset, c.Offset+c.Length))
	}
}

func (t *Tracker) shift(at, delta int) {
	if delta == 0 {
		return
	}
	for i := range t.ranges {
		t.ranges[i] = t.ranges[i].shift(at, delta)
	}
	t.coalesce()
}

// addRange inserts a range and coalesces it with its neighbours.
func (t *Tracker) addRange(r Range) {
	t.ranges = append(t.ranges, r)
	t.coalesce()

	if len(t.ranges) > t.maxRanges {
		// Too fragmented to be worth tracking separately.
		span := t.ranges[0]
		for _, other := range t.ranges[1:] {
			span = span.Union(other)
		}
		t.ranges = append(t.ranges[:0], span)
	}
}

// coalesce merges overlapping or touching ranges and keeps them sorted.
func (t *Tracker) coalesce() {
	if len(t.ranges) <= 1 {
		return
	}

	// Insertion sort; range counts stay small.
	for i := 1; i < len(t.ranges); i++ {
		for j := i; j > 0 && t.ranges[j].Start < t.ranges[j-1].Start; j-- {
			t.ranges[j], t.ranges[j-1] = t.ranges[j-1], t.ranges[j]
		}
	}

	out := t.ranges[:1]
	for _, r := range t.ranges[1:] {
		last := &out[len(out)-1]
		if merged, ok := last.Merge(r); ok {
			*last = merged
			continue
		}
		out = append(out, r)
	}
	t.ranges = out
}

// IsDirty returns true if anything is marked dirty.
func (t *Tracker) IsDirty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.full || len(t.ranges) > 0
}

// NeedsFull returns true if a full re-flow is needed.
func (t *Tracker) NeedsFull() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.full
}

// Ranges returns a copy of the current dirty ranges.
func (t *Tracker) Ranges() []Range {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Range, len(t.ranges))
	copy(out, t.ranges)
	return out
}

// Span returns the union of all dirty ranges.
func (t *Tracker) Span() (Range, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.ranges) == 0 {
		return Range{}, false
	}
	return t.ranges[0].Union(t.ranges[len(t.ranges)-1]), true
}

// Changes returns how many changes were recorded since the last Clear.
func (t *Tracker) Changes() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.changes
}

// Clear resets the tracker after a re-flow.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.full = false
	t.ranges = t.ranges[:0]
	t.changes = 0
}
