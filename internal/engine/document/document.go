package document

import (
	"fmt"
	"iter"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dshills/lectern/internal/engine/rope"
	"github.com/dshills/lectern/internal/engine/style"
)

type entry struct {
	offset int
	el     Element
}

type subscription struct {
	id int
	fn Listener
}

// Document is styled text with embedded elements.
type Document struct {
	text     rope.Rope
	styles   *style.Store
	elements []entry

	subs     []subscription
	nextSub  int
	surfaces []Surface
}

// New creates an empty document whose unstyled text reads as defaults.
func New(defaults style.Attrs) *Document {
	return &Document{
		text:   rope.New(),
		styles: style.NewStore(defaults),
	}
}

// FromString creates a document holding text with the given defaults.
func FromString(text string, defaults style.Attrs) (*Document, error) {
	d := New(defaults)
	if err := d.InsertText(0, text, nil); err != nil {
		return nil, err
	}
	return d, nil
}

// Len returns the length in runes.
func (d *Document) Len() int {
	return d.text.Len()
}

// Text returns the full text, with Sentinel at element offsets.
func (d *Document) Text() string {
	return d.text.String()
}

// Slice returns the text in [start, end).
func (d *Document) Slice(start, end int) string {
	return d.text.Slice(start, end)
}

// RuneAt returns the rune at offset i.
func (d *Document) RuneAt(i int) (rune, bool) {
	return d.text.RuneAt(i)
}

// Runes iterates runes from offset from.
func (d *Document) Runes(from int) iter.Seq2[int, rune] {
	return d.text.Runes(from)
}

// Rope returns the current text snapshot.
func (d *Document) Rope() rope.Rope {
	return d.text
}

// Styles returns the style store. Mutate it only through the document.
func (d *Document) Styles() *style.Store {
	return d.styles
}

// InsertText inserts text at offset, applying attrs over it if non-nil.
func (d *Document) InsertText(offset int, text string, attrs style.Attrs) error {
	if strings.ContainsRune(text, Sentinel) {
		return ErrSentinel
	}
	return d.insert(offset, text, attrs)
}

// Append inserts text at the end.
func (d *Document) Append(text string, attrs style.Attrs) error {
	return d.InsertText(d.Len(), text, attrs)
}

func (d *Document) insert(offset int, text string, attrs style.Attrs) error {
	if offset < 0 || offset > d.Len() {
		return fmt.Errorf("%w: %d (len %d)", ErrOffsetOutOfRange, offset, d.Len())
	}
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return nil
	}

	d.text = d.text.Insert(offset, text)
	d.styles.Shift(offset, n)
	for i := d.firstElementAt(offset); i < len(d.elements); i++ {
		d.elements[i].offset += n
	}
	if attrs != nil {
		if err := d.styles.SetStyle(offset, offset+n, attrs); err != nil {
			return err
		}
	}

	d.notify(Change{Kind: ChangeInsert, Offset: offset, Length: n})
	return nil
}

// DeleteText removes [start, end). Elements inside the range are removed
// from every attached surface and dropped.
func (d *Document) DeleteText(start, end int) error {
	if start < 0 || start > end || end > d.Len() {
		return fmt.Errorf("%w: [%d, %d) (len %d)", ErrOffsetOutOfRange, start, end, d.Len())
	}
	n := end - start
	if n == 0 {
		return nil
	}

	lo := d.firstElementAt(start)
	hi := d.firstElementAt(end)
	var removed []Element
	for _, e := range d.elements[lo:hi] {
		removed = append(removed, e.el)
	}
	d.elements = slices.Delete(d.elements, lo, hi)
	for i := lo; i < len(d.elements); i++ {
		d.elements[i].offset -= n
	}

	d.text = d.text.Delete(start, end)
	d.styles.Shift(start, -n)

	for _, el := range removed {
		d.detachElement(el)
	}

	d.notify(Change{Kind: ChangeDelete, Offset: start, Length: n, Removed: removed})
	return nil
}

func (d *Document) detachElement(el Element) {
	if o, ok := el.(Owned); ok {
		o.SetOwner(nil)
	}
	if len(d.surfaces) == 0 {
		el.Remove(nil)
		return
	}
	for _, s := range d.surfaces {
		el.Remove(s)
	}
}

// InsertElement inserts el as one placeholder rune at offset.
func (d *Document) InsertElement(offset int, el Element, attrs style.Attrs) error {
	if el == nil {
		return fmt.Errorf("%w: nil element", ErrUnknownElement)
	}
	if offset < 0 || offset > d.Len() {
		return fmt.Errorf("%w: %d (len %d)", ErrOffsetOutOfRange, offset, d.Len())
	}

	d.text = d.text.Insert(offset, string(Sentinel))
	d.styles.Shift(offset, 1)
	i := d.firstElementAt(offset)
	for j := i; j < len(d.elements); j++ {
		d.elements[j].offset++
	}
	d.elements = slices.Insert(d.elements, i, entry{offset: offset, el: el})
	if o, ok := el.(Owned); ok {
		o.SetOwner(d)
	}
	if attrs != nil {
		if err := d.styles.SetStyle(offset, offset+1, attrs); err != nil {
			return err
		}
	}

	d.notify(Change{Kind: ChangeInsert, Offset: offset, Length: 1})
	return nil
}

// AppendElement inserts el at the end.
func (d *Document) AppendElement(el Element, attrs style.Attrs) error {
	return d.InsertElement(d.Len(), el, attrs)
}

// SetStyle applies attrs over [start, end).
func (d *Document) SetStyle(start, end int, attrs style.Attrs) error {
	if end > d.Len() {
		return fmt.Errorf("%w: [%d, %d) (len %d)", ErrOffsetOutOfRange, start, end, d.Len())
	}
	if err := d.styles.SetStyle(start, end, attrs); err != nil {
		return err
	}
	if start < end {
		d.notify(Change{Kind: ChangeStyle, Offset: start, Length: end - start})
	}
	return nil
}

// StyleRuns yields the runs of key over [start, end).
func (d *Document) StyleRuns(key string, start, end int) iter.Seq[style.Run] {
	return d.styles.Runs(key, start, end)
}

// ElementChanged notifies subscribers that el's box changed.
func (d *Document) ElementChanged(el Element) error {
	off, ok := d.OffsetOf(el)
	if !ok {
		return ErrUnknownElement
	}
	d.notify(Change{Kind: ChangeElement, Offset: off, Length: 1})
	return nil
}

// firstElementAt returns the index of the first element at or after offset.
func (d *Document) firstElementAt(offset int) int {
	return sort.Search(len(d.elements), func(i int) bool {
		return d.elements[i].offset >= offset
	})
}

// ElementAt returns the element at offset, if any.
func (d *Document) ElementAt(offset int) (Element, bool) {
	i := d.firstElementAt(offset)
	if i < len(d.elements) && d.elements[i].offset == offset {
		return d.elements[i].el, true
	}
	return nil, false
}

// OffsetOf returns the offset of el.
func (d *Document) OffsetOf(el Element) (int, bool) {
	for _, e := range d.elements {
		if e.el == el {
			return e.offset, true
		}
	}
	return 0, false
}

// Elements yields (offset, element) pairs in offset order.
func (d *Document) Elements() iter.Seq2[int, Element] {
	return func(yield func(int, Element) bool) {
		for _, e := range slices.Clone(d.elements) {
			if !yield(e.offset, e.el) {
				return
			}
		}
	}
}

// ElementsIn yields the elements with offsets in [start, end).
func (d *Document) ElementsIn(start, end int) iter.Seq2[int, Element] {
	return func(yield func(int, Element) bool) {
		lo, hi := d.firstElementAt(start), d.firstElementAt(end)
		for _, e := range slices.Clone(d.elements[lo:hi]) {
			if !yield(e.offset, e.el) {
				return
			}
		}
	}
}

// ElementCount returns the number of elements.
func (d *Document) ElementCount() int {
	return len(d.elements)
}

// Subscribe registers fn for change notifications and returns a function
// that unsubscribes it.
func (d *Document) Subscribe(fn Listener) (cancel func()) {
	d.nextSub++
	id := d.nextSub
	d.subs = append(d.subs, subscription{id: id, fn: fn})
	return func() {
		d.subs = slices.DeleteFunc(d.subs, func(s subscription) bool { return s.id == id })
	}
}

func (d *Document) notify(c Change) {
	for _, s := range slices.Clone(d.subs) {
		s.fn(c)
	}
}

// Attach registers a surface that elements may be placed in.
func (d *Document) Attach(s Surface) {
	if !slices.Contains(d.surfaces, s) {
		d.surfaces = append(d.surfaces, s)
	}
}

// Detach unregisters a surface.
func (d *Document) Detach(s Surface) {
	d.surfaces = slices.DeleteFunc(d.surfaces, func(x Surface) bool { return x == s })
}

// Release calls Remove(nil) on every element so each one frees its
// geometry and resources. It is called when the owning page is discarded.
// The elements and their placeholders stay in the document.
func (d *Document) Release() {
	for _, e := range d.elements {
		e.el.Remove(nil)
	}
}

// Equal reports whether two documents hold the same text, runs and
// elements at the same offsets.
func (d *Document) Equal(o *Document) bool {
	if !d.text.Equals(o.text) || !d.styles.Equal(o.styles) || len(d.elements) != len(o.elements) {
		return false
	}
	for i, e := range d.elements {
		if o.elements[i] != e {
			return false
		}
	}
	return true
}

// Clone returns a copy sharing the element values but none of the
// subscriptions or surfaces.
func (d *Document) Clone() *Document {
	return &Document{
		text:     d.text,
		styles:   d.styles.Clone(),
		elements: slices.Clone(d.elements),
	}
}
