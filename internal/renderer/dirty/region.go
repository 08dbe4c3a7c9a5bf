// Package dirty tracks which parts of a document need to be re-flowed.
// Ranges are rune offsets in the document's current coordinates; edits
// reported after a range was marked shift it the same way style runs shift,
// so a batch of mutations collapses into one span to re-break.
package dirty

// Range is a dirty window [Start, End] of rune offsets. Start == End marks
// a point, e.g. where text was deleted.
type Range struct {
	Start int
	End   int
}

// NewRange creates a range, swapping reversed bounds.
func NewRange(start, end int) Range {
	if end < start {
		start, end = end, start
	}
	return Range{Start: max(start, 0), End: max(end, 0)}
}

// Point creates a zero-width range at off.
func Point(off int) Range {
	return NewRange(off, off)
}

// Len returns the number of offsets covered.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether off lies inside the range, bounds included.
func (r Range) Contains(off int) bool {
	return off >= r.Start && off <= r.End
}

// Overlaps reports whether two ranges share any offset or touch.
func (r Range) Overlaps(other Range) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Merge combines two ranges into one covering both.
// Returns false when they neither overlap nor touch.
func (r Range) Merge(other Range) (Range, bool) {
	if !r.Overlaps(other) {
		return Range{}, false
	}
	return Range{Start: min(r.Start, other.Start), End: max(r.End, other.End)}, true
}

// Union returns the smallest range covering both, touching or not.
func (r Range) Union(other Range) Range {
	return Range{Start: min(r.Start, other.Start), End: max(r.End, other.End)}
}

// shift maps the range through an edit at at. Insertions move bounds at or
// after at; deletions clamp bounds inside the deleted window to at.
func (r Range) shift(at, delta int) Range {
	return Range{Start: shiftOffset(r.Start, at, delta), End: shiftOffset(r.End, at, delta)}
}

func shiftOffset(off, at, delta int) int {
	if off < at {
		return off
	}
	if delta > 0 {
		return off + delta
	}
	if off < at-delta {
		return at
	}
	return off + delta
}
