// Package config provides stylesheets and application settings for lectern.
//
// # Stylesheets
//
// A Sheet is a set of named sections (default, emphasis, title, table,
// code_keyword and so on), each mapping option names to typed style
// values. Lookups fall back to the default section:
//
//	sheet.Value("title", "color") // title.color, else default.color
//
// Options are addressed with compound keys. A key without a section
// ("font_size") refers to the default section. Every key is checked
// against a typed schema; unknown keys and malformed values are reported
// and skipped, leaving the rest of the sheet intact.
//
// Four sheets are built in: default, big-centered, white-on-black and
// big-centered-wob. Sheet files are TOML or YAML:
//
//	inherit = "big-centered"
//	decoration = ["bgcolor:navy", "footer:Acme Corp"]
//
//	[style]
//	"title.color" = "#ffcc00"
//	[style.footer]
//	font_size = 12
//
// # Settings
//
// Settings hold the viewer defaults read from lectern.toml, overridden by
// LECTERN_* environment variables. Settings also carry the key bindings
// used by the presentation, parsed into a Keymap.
//
// # Sub-packages
//
//   - loader: TOML, YAML and environment variable sources
package config
