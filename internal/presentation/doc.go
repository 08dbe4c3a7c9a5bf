// Package presentation drives a sequence of pages.
//
// A Presentation owns the current page, the animation clock and the
// overlays drawn above the page: the elapsed time, the page count, the
// fade veil of a page transition and the source view. Input arrives as
// backend events and is mapped to actions through a config.Keymap. Next
// and Previous first offer the step to the page, so expose groups are
// revealed before the presentation moves on.
//
// Listeners registered with OnPageChanged run after every page change.
// The AutoPlayer and Recorder are listeners: one replays recorded timings
// or advances at a fixed pace, the other writes them.
package presentation
