package markup

import (
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/text/unicode/norm"

	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/engine/style"
)

// docBuilder appends paragraphs to a document. Every run is written with
// all layout keys so nothing leaks from the run before it.
type docBuilder struct {
	doc       *document.Document
	last      style.Attrs
	needBreak bool
	err       error
}

func newDocBuilder(defaults style.Attrs) docBuilder {
	return docBuilder{doc: document.New(defaults)}
}

// complete fills the layout keys missing from a with zero values, which
// clear them back to the document default.
func complete(a style.Attrs) style.Attrs {
	out := make(style.Attrs, len(style.LayoutKeys))
	for _, k := range style.LayoutKeys {
		out[k] = a[k]
	}
	return out
}

func (db *docBuilder) text(s string, attrs style.Attrs) {
	s = strings.ReplaceAll(norm.NFC.String(s), string(document.Sentinel), "")
	if s == "" {
		return
	}
	db.err = multierr.Append(db.err, db.doc.Append(s, complete(attrs)))
	db.last = attrs
}

func (db *docBuilder) element(el document.Element, attrs style.Attrs) {
	db.err = multierr.Append(db.err, db.doc.AppendElement(el, complete(attrs)))
	db.last = attrs
}

// breakPara ends the previous paragraph, if any, with a newline in its
// own style.
func (db *docBuilder) breakPara() {
	if db.needBreak {
		db.needBreak = false
		db.text("\n", db.last)
	}
}

func (db *docBuilder) endPara(attrs style.Attrs) {
	if db.doc.Len() > 0 {
		db.needBreak = true
		if db.last == nil {
			db.last = attrs
		}
	}
}
