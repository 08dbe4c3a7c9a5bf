package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dshills/lectern/internal/renderer/backend"
)

// Action is a presentation command a key can be bound to.
type Action string

// Presentation actions.
const (
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionForward  Action = "forward"
	ActionBack     Action = "back"
	ActionFirst    Action = "first"
	ActionLast     Action = "last"
	ActionSource   Action = "source"
	ActionReload   Action = "reload"
	ActionQuit     Action = "quit"
)

var defaultBindings = map[Action][]string{
	ActionNext:     {"Right", "Space", "n"},
	ActionPrevious: {"Left", "Backspace", "p"},
	ActionForward:  {"PageDown"},
	ActionBack:     {"PageUp"},
	ActionFirst:    {"Home"},
	ActionLast:     {"End"},
	ActionSource:   {"F2"},
	ActionReload:   {"Ctrl+L"},
	ActionQuit:     {"Escape", "q", "Ctrl+C"},
}

// KeySpec identifies a key press. Rune keys match on the rune alone.
type KeySpec struct {
	Key  backend.Key
	Rune rune
	Mod  backend.ModMask
}

var keyNames = map[string]backend.Key{
	"escape":    backend.KeyEscape,
	"esc":       backend.KeyEscape,
	"enter":     backend.KeyEnter,
	"tab":       backend.KeyTab,
	"backspace": backend.KeyBackspace,
	"delete":    backend.KeyDelete,
	"home":      backend.KeyHome,
	"end":       backend.KeyEnd,
	"pageup":    backend.KeyPageUp,
	"pagedown":  backend.KeyPageDown,
	"up":        backend.KeyUp,
	"down":      backend.KeyDown,
	"left":      backend.KeyLeft,
	"right":     backend.KeyRight,
	"f1":        backend.KeyF1,
	"f2":        backend.KeyF2,
	"f3":        backend.KeyF3,
	"f4":        backend.KeyF4,
	"f5":        backend.KeyF5,
	"ctrl+c":    backend.KeyCtrlC,
	"ctrl+d":    backend.KeyCtrlD,
	"ctrl+l":    backend.KeyCtrlL,
}

// ParseKey parses a key name: a single character, "Space", a special key
// such as "PageDown" or "F2", or one of the control chords Ctrl+C, Ctrl+D
// and Ctrl+L. Names are case-insensitive except single characters.
func ParseKey(s string) (KeySpec, error) {
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return KeySpec{Key: backend.KeyRune, Rune: r}, nil
	}
	name := strings.ToLower(strings.ReplaceAll(s, "-", "+"))
	if name == "space" {
		return KeySpec{Key: backend.KeyRune, Rune: ' '}, nil
	}
	if k, ok := keyNames[name]; ok {
		return KeySpec{Key: k}, nil
	}
	return KeySpec{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
}

// Matches reports whether ev is this key press.
func (k KeySpec) Matches(ev backend.Event) bool {
	if ev.Type != backend.EventKey || ev.Key != k.Key {
		return false
	}
	if k.Key == backend.KeyRune {
		return ev.Rune == k.Rune
	}
	return k.Mod == 0 || ev.Mod.Has(k.Mod)
}

// Keymap binds keys to presentation actions.
type Keymap struct {
	bindings map[Action][]KeySpec
}

// DefaultKeymap returns the built-in bindings.
func DefaultKeymap() *Keymap {
	km, err := NewKeymap(nil)
	if err != nil {
		panic(err)
	}
	return km
}

// NewKeymap starts from the default bindings and replaces those of every
// action named in overrides.
func NewKeymap(overrides map[string][]string) (*Keymap, error) {
	km := &Keymap{bindings: make(map[Action][]KeySpec)}
	for a, names := range defaultBindings {
		if err := km.Bind(a, names...); err != nil {
			return nil, err
		}
	}
	for name, keys := range overrides {
		a := Action(strings.ToLower(name))
		if _, ok := defaultBindings[a]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
		}
		if err := km.Bind(a, keys...); err != nil {
			return nil, fmt.Errorf("keys.%s: %w", name, err)
		}
	}
	return km, nil
}

// Bind replaces the keys of action a.
func (km *Keymap) Bind(a Action, keys ...string) error {
	specs := make([]KeySpec, 0, len(keys))
	for _, k := range keys {
		spec, err := ParseKey(k)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}
	km.bindings[a] = specs
	return nil
}

// Lookup returns the action bound to ev. Actions are checked in name
// order so overlapping bindings resolve the same way every time.
func (km *Keymap) Lookup(ev backend.Event) (Action, bool) {
	for _, a := range slices.Sorted(maps.Keys(km.bindings)) {
		for _, spec := range km.bindings[a] {
			if spec.Matches(ev) {
				return a, true
			}
		}
	}
	return "", false
}

// Keys returns the bindings of action a.
func (km *Keymap) Keys(a Action) []KeySpec {
	return slices.Clone(km.bindings[a])
}
