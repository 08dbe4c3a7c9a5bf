package rope

import "strings"

// Tree structure constants
const (
	// MaxChildren is the maximum children per internal node before splitting.
	MaxChildren = 8

	// MaxChunksPerLeaf is the maximum chunks in a leaf node.
	MaxChunksPerLeaf = 4
)

// node is a node in the rope B+ tree.
// Leaf nodes (height == 0) contain chunks, internal nodes contain children.
type node struct {
	height  uint8
	summary Summary

	children []*node
	chunks   []chunk
}

func newLeaf(chunks []chunk) *node {
	n := &node{chunks: chunks}
	for _, c := range chunks {
		n.summary = n.summary.Add(c.summary)
	}
	return n
}

func newInternal(children []*node) *node {
	if len(children) == 0 {
		return newLeaf(nil)
	}
	n := &node{height: children[0].height + 1, children: children}
	for _, c := range children {
		n.summary = n.summary.Add(c.summary)
	}
	return n
}

func (n *node) isLeaf() bool {
	return n.height == 0
}

func (n *node) runes() int {
	return n.summary.Runes
}

func (n *node) appendTo(sb *strings.Builder) {
	if n.isLeaf() {
		for _, c := range n.chunks {
			sb.WriteString(c.data)
		}
		return
	}
	for _, c := range n.children {
		c.appendTo(sb)
	}
}

// appendRange appends the runes in [start, end) to sb.
func (n *node) appendRange(sb *strings.Builder, start, end int) {
	if start >= end {
		return
	}
	offset := 0
	if n.isLeaf() {
		for _, c := range n.chunks {
			cEnd := offset + c.summary.Runes
			if cEnd <= start {
				offset = cEnd
				continue
			}
			if offset >= end {
				return
			}
			lo := byteIndex(c.data, max(start-offset, 0))
			hi := len(c.data)
			if end < cEnd {
				hi = byteIndex(c.data, end-offset)
			}
			sb.WriteString(c.data[lo:hi])
			offset = cEnd
		}
		return
	}
	for _, c := range n.children {
		cEnd := offset + c.runes()
		if cEnd <= start {
			offset = cEnd
			continue
		}
		if offset >= end {
			return
		}
		c.appendRange(sb, max(start-offset, 0), min(end, cEnd)-offset)
		offset = cEnd
	}
}

// split splits the node at rune offset n.
func (n *node) split(at int) (*node, *node) {
	if at <= 0 {
		return newLeaf(nil), n
	}
	if at >= n.runes() {
		return n, newLeaf(nil)
	}
	if n.isLeaf() {
		var left, right []chunk
		offset := 0
		for _, c := range n.chunks {
			cLen := c.summary.Runes
			switch {
			case offset+cLen <= at:
				left = append(left, c)
			case offset >= at:
				right = append(right, c)
			default:
				l, r := c.split(at - offset)
				left = append(left, l)
				right = append(right, r)
			}
			offset += cLen
		}
		return newLeaf(left), newLeaf(right)
	}

	var left, right []*node
	offset := 0
	for _, c := range n.children {
		cLen := c.runes()
		switch {
		case offset+cLen <= at:
			left = append(left, c)
		case offset >= at:
			right = append(right, c)
		default:
			l, r := c.split(at - offset)
			if l.runes() > 0 {
				left = append(left, l)
			}
			if r.runes() > 0 {
				right = append(right, r)
			}
		}
		offset += cLen
	}
	return build(left), build(right)
}

// build creates a balanced tree from a list of sibling nodes, which may
// have differing heights.
func build(nodes []*node) *node {
	switch len(nodes) {
	case 0:
		return newLeaf(nil)
	case 1:
		return nodes[0]
	}
	root := nodes[0]
	for _, n := range nodes[1:] {
		root = concat(root, n)
	}
	return root
}

// concat joins two trees.
func concat(left, right *node) *node {
	if left == nil || left.runes() == 0 {
		if right == nil {
			return newLeaf(nil)
		}
		return right
	}
	if right == nil || right.runes() == 0 {
		return left
	}
	if left.isLeaf() && right.isLeaf() {
		if len(left.chunks)+len(right.chunks) <= MaxChunksPerLeaf {
			chunks := make([]chunk, 0, len(left.chunks)+len(right.chunks))
			chunks = append(chunks, left.chunks...)
			chunks = append(chunks, right.chunks...)
			return newLeaf(chunks)
		}
		return newInternal([]*node{left, right})
	}

	for left.height < right.height {
		left = newInternal([]*node{left})
	}
	for right.height < left.height {
		right = newInternal([]*node{right})
	}

	all := make([]*node, 0, len(left.children)+len(right.children))
	all = append(all, left.children...)
	all = append(all, right.children...)
	if len(all) <= MaxChildren {
		return newInternal(all)
	}
	mid := len(all) / 2
	return newInternal([]*node{newInternal(all[:mid:mid]), newInternal(all[mid:])})
}

// runeAt returns the rune at offset i.
func (n *node) runeAt(i int) rune {
	for !n.isLeaf() {
		for _, c := range n.children {
			if i < c.runes() {
				n = c
				break
			}
			i -= c.runes()
		}
	}
	for _, c := range n.chunks {
		if i < c.summary.Runes {
			for _, r := range c.data {
				if i == 0 {
					return r
				}
				i--
			}
		}
		i -= c.summary.Runes
	}
	return 0
}

// lineStart returns the rune offset of the start of line (0-based).
func (n *node) lineStart(line int) int {
	if line <= 0 {
		return 0
	}
	if line > n.summary.Lines {
		return n.runes()
	}
	offset := 0
	for !n.isLeaf() {
		next := n.children[len(n.children)-1]
		for _, c := range n.children {
			if c.summary.Lines >= line {
				next = c
				break
			}
			line -= c.summary.Lines
			offset += c.runes()
		}
		n = next
	}
	for _, c := range n.chunks {
		if c.summary.Lines < line {
			line -= c.summary.Lines
			offset += c.summary.Runes
			continue
		}
		for _, r := range c.data {
			offset++
			if r == '\n' {
				line--
				if line == 0 {
					return offset
				}
			}
		}
	}
	return offset
}

// lineOf returns the line number containing rune offset i.
func (n *node) lineOf(i int) int {
	if i >= n.runes() {
		return n.summary.Lines
	}
	line := 0
	for !n.isLeaf() {
		next := n.children[len(n.children)-1]
		for _, c := range n.children {
			if i < c.runes() {
				next = c
				break
			}
			i -= c.runes()
			line += c.summary.Lines
		}
		n = next
	}
	for _, c := range n.chunks {
		if i >= c.summary.Runes {
			i -= c.summary.Runes
			line += c.summary.Lines
			continue
		}
		for _, r := range c.data {
			if i == 0 {
				return line
			}
			if r == '\n' {
				line++
			}
			i--
		}
	}
	return line
}
