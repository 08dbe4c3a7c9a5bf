// Package style implements the style-run store behind a document.
//
// Styles are kept per attribute key as an ascending list of non-overlapping
// half-open runs [Start, End) tagged with a typed Value. Restyling a range
// trims or splits whatever runs of that key it overlaps and inserts the new
// run; adjacent runs with equal values are coalesced so that two stores
// holding the same styling compare equal.
//
// Reading is done with Runs, which yields a lazy, restartable sequence that
// covers the requested range exactly, filling gaps with the store's default
// for the key, and with Spans, which merges several keys into maximal spans
// over which no attribute changes.
//
// Text edits are mirrored with Shift: boundaries at or after the edit point
// move by the edit length. An insertion at the end of a run extends that run,
// so inserted text inherits the style of the text before it.
package style
