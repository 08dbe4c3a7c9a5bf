// Package document provides the styled text model laid out on a page.
//
// A Document owns three things: the text (an immutable rope addressed by
// rune offsets), a style.Store of attribute runs over that text, and a
// sparse ordered map from offset to inline Element. Every element occupies
// exactly one placeholder rune (Sentinel) in the text, so element offsets
// shift in lockstep with style runs on every edit.
//
// All mutation goes through InsertText, DeleteText, InsertElement and
// SetStyle. Each mutation notifies subscribers with a Change describing the
// affected range; the layout engine subscribes to re-flow incrementally.
//
// Surfaces (layouts) that place elements register themselves with Attach.
// When a deletion removes an element, the document calls the element's
// Remove for every attached surface, or Remove(nil) if none is attached, so
// the element always releases its resources before it is dropped.
//
// Documents are not safe for concurrent use. They belong to the update loop.
package document
