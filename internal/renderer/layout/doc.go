// Package layout breaks a document into visual lines and keeps them in a
// batch.
//
// A Layout follows one Document through its lifetime on a page:
//
//	Unattached -> LaidOut -> (Updating -> LaidOut)* -> TornDown
//
// Enter runs a full line-breaking pass and anchors the block in the
// viewport by its vertical alignment. After that the layout listens to the
// document. Each change shifts the existing lines and marks a dirty range;
// the next re-flow re-breaks from the line before the dirty start and stops
// as soon as a new line begins where an old line (past the dirty end) began.
// Lines after that point are only translated. Changes made between
// BeginUpdate and EndUpdate are coalesced into a single re-flow.
//
// Scrolling (SetView) and moving (SetPosition) translate geometry and never
// re-break. Resize tears the layout down and enters it again.
package layout
