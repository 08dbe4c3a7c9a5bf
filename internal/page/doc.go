// Package page is one slide: a document, its decoration and its expose
// groups.
//
// A page is inert until Enter. Entering draws the decoration into a fresh
// batch, lays the document out in the decoration's viewport anchored by
// the stylesheet's layout.valign, and hides every sequenced expose group.
// Next and Previous reveal and hide groups; they report false once there
// is nothing left to do so the caller can change pages. Leave undoes
// Enter in reverse order: in-flight fades are snapped first so nothing
// is scheduled against a torn-down layout.
//
// Pages are driven from the update goroutine only.
package page
