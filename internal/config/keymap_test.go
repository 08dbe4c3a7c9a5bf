package config

import (
	"errors"
	"testing"

	"github.com/dshills/lectern/internal/renderer/backend"
)

func keyEvent(k backend.Key, r rune) backend.Event {
	return backend.Event{Type: backend.EventKey, Key: k, Rune: r}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want KeySpec
	}{
		{"n", KeySpec{Key: backend.KeyRune, Rune: 'n'}},
		{"N", KeySpec{Key: backend.KeyRune, Rune: 'N'}},
		{"Space", KeySpec{Key: backend.KeyRune, Rune: ' '}},
		{"pagedown", KeySpec{Key: backend.KeyPageDown}},
		{"Ctrl-C", KeySpec{Key: backend.KeyCtrlC}},
		{"F2", KeySpec{Key: backend.KeyF2}},
	}
	for _, tt := range tests {
		got, err := ParseKey(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseKey(%q) = %+v, %v; want %+v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseKey("Hyper+Q"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("ParseKey(Hyper+Q) error = %v, want ErrInvalidKey", err)
	}
}

func TestDefaultKeymap(t *testing.T) {
	km := DefaultKeymap()
	tests := []struct {
		ev   backend.Event
		want Action
	}{
		{keyEvent(backend.KeyRight, 0), ActionNext},
		{keyEvent(backend.KeyRune, ' '), ActionNext},
		{keyEvent(backend.KeyLeft, 0), ActionPrevious},
		{keyEvent(backend.KeyPageDown, 0), ActionForward},
		{keyEvent(backend.KeyPageUp, 0), ActionBack},
		{keyEvent(backend.KeyHome, 0), ActionFirst},
		{keyEvent(backend.KeyEnd, 0), ActionLast},
		{keyEvent(backend.KeyEscape, 0), ActionQuit},
		{keyEvent(backend.KeyRune, 'q'), ActionQuit},
	}
	for _, tt := range tests {
		got, ok := km.Lookup(tt.ev)
		if !ok || got != tt.want {
			t.Errorf("Lookup(%+v) = %q, %v; want %q", tt.ev, got, ok, tt.want)
		}
	}
	if _, ok := km.Lookup(keyEvent(backend.KeyRune, 'z')); ok {
		t.Error("z should be unbound")
	}
	if _, ok := km.Lookup(backend.Event{Type: backend.EventMouse}); ok {
		t.Error("mouse events never match key bindings")
	}
}

func TestNewKeymapOverrides(t *testing.T) {
	km, err := NewKeymap(map[string][]string{"Next": {"j"}})
	if err != nil {
		t.Fatalf("NewKeymap: %v", err)
	}
	if a, _ := km.Lookup(keyEvent(backend.KeyRune, 'j')); a != ActionNext {
		t.Errorf("j = %q, want next", a)
	}
	if _, ok := km.Lookup(keyEvent(backend.KeyRight, 0)); ok {
		t.Error("override should replace the default next bindings")
	}
	if a, _ := km.Lookup(keyEvent(backend.KeyLeft, 0)); a != ActionPrevious {
		t.Error("other actions keep their defaults")
	}

	if _, err := NewKeymap(map[string][]string{"dance": {"d"}}); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("unknown action error = %v", err)
	}
	if _, err := NewKeymap(map[string][]string{"next": {"Nope+1"}}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("invalid key error = %v", err)
	}
}
