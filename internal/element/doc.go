// Package element provides the inline objects a page embeds in its text:
// images, GIF videos, interactive consoles and plugins.
//
// Every element implements document.Element. Elements that animate or poll
// also implement Updater, and elements that take keyboard input implement
// KeyHandler. Placement is tracked per surface, so the same element can be
// drawn by a page layout and a thumbnail layout at once.
//
// Construction reads media eagerly. A missing or undecodable file yields a
// *ResourceError and no element; the caller logs it and skips the element.
package element
