package layout

// TabExpander provides tab stop arithmetic. Stops are every tabWidth
// columns, where a column is the advance of a space in the current face.
type TabExpander struct {
	tabWidth int
}

// NewTabExpander creates a tab expander with the given tab width.
func NewTabExpander(tabWidth int) *TabExpander {
	if tabWidth < 1 {
		tabWidth = 4
	}
	return &TabExpander{tabWidth: tabWidth}
}

// TabWidth returns the current tab width in columns.
func (t *TabExpander) TabWidth() int {
	return t.tabWidth
}

// SetTabWidth sets the tab width.
func (t *TabExpander) SetTabWidth(width int) {
	if width < 1 {
		width = 1
	}
	t.tabWidth = width
}

func (t *TabExpander) stop(unit int) int {
	return t.tabWidth * max(unit, 1)
}

// NextTabStop returns the next tab stop strictly after x.
func (t *TabExpander) NextTabStop(x, unit int) int {
	s := t.stop(unit)
	return x + s - (x % s)
}

// Advance returns how far a tab at x moves the pen.
func (t *TabExpander) Advance(x, unit int) int {
	return t.NextTabStop(x, unit) - x
}

// IsTabStop returns true if x is a tab stop.
func (t *TabExpander) IsTabStop(x, unit int) bool {
	return x%t.stop(unit) == 0
}

// PrevTabStop returns the previous tab stop before x.
// Returns 0 if already at or before the first tab stop.
func (t *TabExpander) PrevTabStop(x, unit int) int {
	if x <= 0 {
		return 0
	}
	s := t.stop(unit)
	if x%s == 0 {
		return x - s
	}
	return (x / s) * s
}

// ExpandTabs returns s with tabs replaced by spaces, counting one column
// per rune. Newlines reset the column.
func (t *TabExpander) ExpandTabs(s string) string {
	result := make([]rune, 0, len(s)*2)
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			for range t.Advance(col, 1) {
				result = append(result, ' ')
			}
			col = t.NextTabStop(col, 1)
		case '\n':
			result = append(result, r)
			col = 0
		default:
			result = append(result, r)
			col++
		}
	}
	return string(result)
}

// DefaultTabExpander returns a tab expander with the default tab width of 4.
func DefaultTabExpander() *TabExpander {
	return NewTabExpander(4)
}
