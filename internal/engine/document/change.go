package document

// ChangeKind identifies the type of document change.
type ChangeKind uint8

const (
	ChangeInsert ChangeKind = iota
	ChangeDelete
	ChangeStyle
	ChangeElement
)

// String returns a human-readable name for the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeInsert:
		return "insert"
	case ChangeDelete:
		return "delete"
	case ChangeStyle:
		return "style"
	case ChangeElement:
		return "element"
	default:
		return "unknown"
	}
}

// Change describes one mutation. Offsets are in post-change coordinates for
// inserts and styles; for deletes Offset is where the removed range began.
type Change struct {
	Kind   ChangeKind
	Offset int
	Length int

	// Removed lists elements detached by a delete.
	Removed []Element
}

// End returns Offset + Length.
func (c Change) End() int {
	return c.Offset + c.Length
}

// Listener receives change notifications.
type Listener func(Change)
