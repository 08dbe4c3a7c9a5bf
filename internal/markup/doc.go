// Package markup compiles markdown into pages.
//
// Parsing is done by goldmark with GFM tables. The goldmark tree is first
// converted into the closed Block and Inline node types, which the
// compiler walks with type switches.
//
// Pages split at level 1 and 2 headings and at thematic breaks. The
// heading becomes the page title. Fenced blocks whose info string names a
// directive configure the compiler or embed elements:
//
//	```style
//	default.font_size = 32
//	list.expose = fade
//	```
//
//	```decoration
//	bgcolor:navy
//	footer:Acme Corp
//	```
//
//	```video clip.gif width=40 loop=true
//	```
//
// The other directives are console (the command), plugin (a name and its
// arguments), load-style (a sheet name) and footer (the footer text).
// Their argument may be given after the name or as the body.
//
// Style, decoration, load-style and footer apply from the current page
// onward. Other fenced blocks are code, highlighted with chroma into the
// code_* stylesheet sections.
//
// Problems that lose content, such as a missing image or a bad style
// option, do not stop compilation. They are returned combined as
// *ParseError values next to the pages.
package markup
