// Package rope provides an immutable rope for the text of a document.
//
// A rope is a B+ tree whose leaves hold bounded UTF-8 chunks and whose
// internal nodes cache aggregated metrics (bytes, runes, newlines). All
// positions in the public API are rune offsets, which is what style runs
// and inline elements are keyed by.
//
// Key features:
//   - O(log n) insertion, deletion and rune access
//   - Immutable operations return new ropes; originals are never modified
//   - Line lookups via aggregated newline counts
//
// Basic usage:
//
//	r := rope.FromString("héllo world")
//	r = r.Insert(5, ",")           // "héllo, world"
//	r = r.Delete(0, 7)             // "world"
//	text := r.String()             // "world"
package rope
