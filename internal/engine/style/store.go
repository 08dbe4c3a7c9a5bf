package style

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"
)

// Run is a half-open range [Start, End) tagged with one attribute value.
type Run struct {
	Start, End int
	Value      Value
}

// Len returns the number of offsets covered.
func (r Run) Len() int {
	return r.End - r.Start
}

// Span is a maximal range over which no requested attribute changes.
type Span struct {
	Start, End int
	Attrs      Attrs
}

// Store keeps style runs per attribute key.
// A Store is not safe for concurrent use.
type Store struct {
	runs     map[string][]Run
	defaults Attrs
}

// NewStore creates a store whose gaps read as defaults.
func NewStore(defaults Attrs) *Store {
	if defaults == nil {
		defaults = Attrs{}
	}
	return &Store{
		runs:     make(map[string][]Run),
		defaults: defaults.Clone(),
	}
}

// Default returns the default value for key.
func (s *Store) Default(key string) Value {
	return s.defaults[key]
}

// Defaults returns a copy of the defaults.
func (s *Store) Defaults() Attrs {
	return s.defaults.Clone()
}

// SetDefault changes the value reported for unstyled offsets.
func (s *Store) SetDefault(key string, v Value) {
	if v.IsZero() {
		delete(s.defaults, key)
		return
	}
	s.defaults[key] = v
}

// SetStyle applies attrs over [start, end). A zero Value for a key clears
// that key over the range so it reads as the default again.
func (s *Store) SetStyle(start, end int, attrs Attrs) error {
	if start < 0 || start > end {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, start, end)
	}
	if start == end {
		return nil
	}
	for key, v := range attrs {
		list := setRange(s.runs[key], start, end, v)
		if len(list) == 0 {
			delete(s.runs, key)
			continue
		}
		s.runs[key] = list
	}
	return nil
}

// setRange replaces the overlap of [start, end) in list with one run.
func setRange(list []Run, start, end int, v Value) []Run {
	i := sort.Search(len(list), func(i int) bool { return list[i].End > start })
	j := i + sort.Search(len(list)-i, func(k int) bool { return list[i+k].Start >= end })

	pieces := make([]Run, 0, 3)
	if i < j && list[i].Start < start {
		pieces = append(pieces, Run{list[i].Start, start, list[i].Value})
	}
	if !v.IsZero() {
		pieces = append(pieces, Run{start, end, v})
	}
	if i < j && list[j-1].End > end {
		pieces = append(pieces, Run{end, list[j-1].End, list[j-1].Value})
	}

	out := make([]Run, 0, len(list)-(j-i)+len(pieces))
	out = append(out, list[:i]...)
	out = append(out, pieces...)
	out = append(out, list[j:]...)
	return coalesce(out, max(i-1, 0), min(i+len(pieces)+1, len(out)))
}

// coalesce merges touching runs with equal values inside out[lo:hi].
func coalesce(out []Run, lo, hi int) []Run {
	if len(out) < 2 {
		return out
	}
	w := lo
	for r := lo + 1; r < len(out); r++ {
		if r < hi && out[w].End == out[r].Start && out[w].Value.Equal(out[r].Value) {
			out[w].End = out[r].End
			continue
		}
		w++
		out[w] = out[r]
	}
	return out[:w+1]
}

// Runs yields runs for key covering exactly [start, end). Gaps yield the
// default value and adjacent equal values are merged. The sequence reads the
// store when iterated, so it can be restarted after mutations.
func (s *Store) Runs(key string, start, end int) iter.Seq[Run] {
	return func(yield func(Run) bool) {
		if start < 0 || start >= end {
			return
		}
		list := s.runs[key]
		def := s.defaults[key]

		var pending Run
		havePending := false
		emit := func(r Run) bool {
			if havePending && pending.End == r.Start && pending.Value.Equal(r.Value) {
				pending.End = r.End
				return true
			}
			if havePending && !yield(pending) {
				return false
			}
			pending, havePending = r, true
			return true
		}

		pos := start
		i := sort.Search(len(list), func(i int) bool { return list[i].End > start })
		for ; i < len(list) && list[i].Start < end; i++ {
			r := list[i]
			if r.Start > pos {
				if !emit(Run{pos, r.Start, def}) {
					return
				}
				pos = r.Start
			}
			e := min(r.End, end)
			if !emit(Run{pos, e, r.Value}) {
				return
			}
			pos = e
		}
		if pos < end && !emit(Run{pos, end, def}) {
			return
		}
		if havePending {
			yield(pending)
		}
	}
}

// Spans yields maximal spans over [start, end) carrying the value of every
// key in keys. With no keys, all keys present in the store are used.
func (s *Store) Spans(start, end int, keys ...string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		if start < 0 || start >= end {
			return
		}
		ks := keys
		if len(ks) == 0 {
			ks = s.Keys()
		}
		per := make([][]Run, len(ks))
		for k, key := range ks {
			per[k] = slices.Collect(s.Runs(key, start, end))
		}
		idx := make([]int, len(ks))
		pos := start
		for pos < end {
			next := end
			attrs := make(Attrs, len(ks))
			for k, key := range ks {
				for idx[k] < len(per[k]) && per[k][idx[k]].End <= pos {
					idx[k]++
				}
				if idx[k] >= len(per[k]) {
					continue
				}
				r := per[k][idx[k]]
				if !r.Value.IsZero() {
					attrs[key] = r.Value
				}
				next = min(next, r.End)
			}
			if !yield(Span{pos, next, attrs}) {
				return
			}
			pos = next
		}
	}
}

// ValueAt returns the value of key at offset.
func (s *Store) ValueAt(key string, offset int) Value {
	list := s.runs[key]
	i := sort.Search(len(list), func(i int) bool { return list[i].End > offset })
	if i < len(list) && list[i].Start <= offset {
		return list[i].Value
	}
	return s.defaults[key]
}

// Shift mirrors a text edit at offset at. A positive delta is an insertion
// of delta offsets; a negative delta deletes [at, at-delta). Runs that
// collapse are dropped.
func (s *Store) Shift(at, delta int) {
	if delta == 0 {
		return
	}
	for key, list := range s.runs {
		i := sort.Search(len(list), func(i int) bool { return list[i].End >= at })
		out := list[:i]
		for _, r := range list[i:] {
			r.Start = ShiftOffset(r.Start, at, delta)
			r.End = ShiftOffset(r.End, at, delta)
			if r.End > r.Start {
				out = append(out, r)
			}
		}
		out = coalesce(out, max(i-1, 0), len(out))
		if len(out) == 0 {
			delete(s.runs, key)
			continue
		}
		s.runs[key] = out
	}
}

// ShiftOffset maps an offset through an edit at at. Offsets inside a
// deleted window collapse to at.
func ShiftOffset(off, at, delta int) int {
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

// Keys returns the keys that have runs, sorted.
func (s *Store) Keys() []string {
	return slices.Sorted(maps.Keys(s.runs))
}

// RawRuns returns a copy of the stored runs for key, without gap filling.
func (s *Store) RawRuns(key string) []Run {
	return slices.Clone(s.runs[key])
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	c := &Store{runs: make(map[string][]Run, len(s.runs)), defaults: s.defaults.Clone()}
	for k, list := range s.runs {
		c.runs[k] = slices.Clone(list)
	}
	return c
}

// Equal reports whether two stores hold the same runs and defaults.
func (s *Store) Equal(o *Store) bool {
	if !maps.Equal(s.defaults, o.defaults) || len(s.runs) != len(o.runs) {
		return false
	}
	for k, list := range s.runs {
		if !slices.Equal(list, o.runs[k]) {
			return false
		}
	}
	return true
}
