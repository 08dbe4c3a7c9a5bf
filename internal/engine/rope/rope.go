package rope

import (
	"iter"
	"strings"
)

// Rope is an immutable rope data structure for text storage.
// Operations return new Rope values; the original is never modified.
type Rope struct {
	root *node
}

// New creates an empty rope.
func New() Rope {
	return Rope{root: newLeaf(nil)}
}

// FromString creates a rope from a string.
func FromString(s string) Rope {
	chunks := splitIntoChunks(s)
	if len(chunks) == 0 {
		return New()
	}

	var leaves []*node
	for i := 0; i < len(chunks); i += MaxChunksPerLeaf {
		end := min(i+MaxChunksPerLeaf, len(chunks))
		leaves = append(leaves, newLeaf(chunks[i:end:end]))
	}

	nodes := leaves
	for len(nodes) > 1 {
		var parents []*node
		for i := 0; i < len(nodes); i += MaxChildren {
			end := min(i+MaxChildren, len(nodes))
			parents = append(parents, newInternal(nodes[i:end:end]))
		}
		nodes = parents
	}
	return Rope{root: nodes[0]}
}

// Len returns the number of runes.
func (r Rope) Len() int {
	if r.root == nil {
		return 0
	}
	return r.root.runes()
}

// ByteLen returns the UTF-8 byte length.
func (r Rope) ByteLen() int {
	if r.root == nil {
		return 0
	}
	return r.root.summary.Bytes
}

// LineCount returns the number of lines (newlines + 1).
func (r Rope) LineCount() int {
	if r.root == nil {
		return 1
	}
	return r.root.summary.Lines + 1
}

// IsEmpty returns true if the rope contains no text.
func (r Rope) IsEmpty() bool {
	return r.Len() == 0
}

// String returns the full text.
func (r Rope) String() string {
	if r.root == nil {
		return ""
	}
	var sb strings.Builder
	sb.Grow(r.ByteLen())
	r.root.appendTo(&sb)
	return sb.String()
}

// Slice returns the text in the rune range [start, end).
// The range is clamped to the rope.
func (r Rope) Slice(start, end int) string {
	start = max(start, 0)
	end = min(end, r.Len())
	if start >= end {
		return ""
	}
	var sb strings.Builder
	r.root.appendRange(&sb, start, end)
	return sb.String()
}

// RuneAt returns the rune at offset i.
func (r Rope) RuneAt(i int) (rune, bool) {
	if i < 0 || i >= r.Len() {
		return 0, false
	}
	return r.root.runeAt(i), true
}

// Insert returns a new rope with text inserted at rune offset at.
// Offsets past the end append.
func (r Rope) Insert(at int, text string) Rope {
	if text == "" {
		return r
	}
	at = min(max(at, 0), r.Len())
	if r.root == nil {
		return FromString(text)
	}
	left, right := r.root.split(at)
	mid := FromString(text).root
	return Rope{root: concat(concat(left, mid), right)}
}

// Delete returns a new rope with the rune range [start, end) removed.
func (r Rope) Delete(start, end int) Rope {
	start = max(start, 0)
	end = min(end, r.Len())
	if start >= end {
		return r
	}
	left, rest := r.root.split(start)
	_, right := rest.split(end - start)
	return Rope{root: concat(left, right)}
}

// Concat returns a rope holding r followed by other.
func (r Rope) Concat(other Rope) Rope {
	return Rope{root: concat(r.root, other.root)}
}

// Summary returns the aggregated metrics.
func (r Rope) Summary() Summary {
	if r.root == nil {
		return Summary{}
	}
	return r.root.summary
}

// LineStart returns the rune offset at which line begins.
func (r Rope) LineStart(line int) int {
	if r.root == nil {
		return 0
	}
	return r.root.lineStart(line)
}

// LineOf returns the 0-based line containing rune offset i.
func (r Rope) LineOf(i int) int {
	if r.root == nil {
		return 0
	}
	return r.root.lineOf(max(i, 0))
}

// Runes iterates over the runes starting at offset from,
// yielding each rune's offset.
func (r Rope) Runes(from int) iter.Seq2[int, rune] {
	return func(yield func(int, rune) bool) {
		if r.root == nil {
			return
		}
		i := 0
		var walk func(n *node) bool
		walk = func(n *node) bool {
			if i+n.runes() <= from {
				i += n.runes()
				return true
			}
			if !n.isLeaf() {
				for _, c := range n.children {
					if !walk(c) {
						return false
					}
				}
				return true
			}
			for _, c := range n.chunks {
				if i+c.summary.Runes <= from {
					i += c.summary.Runes
					continue
				}
				for _, ch := range c.data {
					if i >= from && !yield(i, ch) {
						return false
					}
					i++
				}
			}
			return true
		}
		walk(r.root)
	}
}

// Height returns the tree height, for balance checks.
func (r Rope) Height() int {
	if r.root == nil {
		return 0
	}
	return int(r.root.height)
}

// Equals reports whether two ropes hold the same text.
func (r Rope) Equals(other Rope) bool {
	if r.Len() != other.Len() || r.ByteLen() != other.ByteLen() {
		return false
	}
	return r.String() == other.String()
}
