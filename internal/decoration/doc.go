// Package decoration draws the furniture around page content.
//
// A decoration is described by lines of "command:arguments":
//
//	bgcolor:navy
//	title:Quarterly Review
//	footer:Acme Corp
//	quad:C#000000;V0,0;Vw,0;C#333333;Vw,h//8;V0,h//8
//	vgradient:white;#ccccff
//	hgradient:white;#ccccff
//	image:logo.png;halign=right;valign=bottom
//	viewport:w//10,h//10,w*8//10,h*8//10
//
// Coordinates are expressions over the screen width w and height h,
// evaluated with goja. As in the stylesheet language they come from, a//b
// is integer division. Y grows downward.
//
// Entering a decoration lays out the title and footer with the title and
// footer stylesheet sections and computes the content viewport: the
// explicit viewport if one is given, otherwise the screen shrunk by a
// top-anchored title and a bottom-anchored footer.
package decoration
