package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	def := DefaultSettings()
	if s.FPS != def.FPS || s.Style != def.Style || s.Log.Level != def.Log.Level {
		t.Errorf("LoadSettings(\"\") = %+v, want defaults %+v", s, def)
	}
}

func TestLoadSettingsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lectern.toml")
	err := os.WriteFile(path, []byte(`
fps = 60
style = "big-centered"
timer = true

[log]
file = "/tmp/lectern.log"

[keys]
next = "j"
previous = ["k", "Left"]
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("LECTERN_STYLE", "white-on-black")
	t.Setenv("LECTERN_LOG_LEVEL", "debug")
	t.Setenv("LECTERN_CONSOLES", "3")

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.FPS != 60 {
		t.Errorf("FPS = %d, want 60 from file", s.FPS)
	}
	if s.Style != "white-on-black" {
		t.Errorf("Style = %q, want env override", s.Style)
	}
	if !s.Timer || s.Count {
		t.Errorf("Timer, Count = %v, %v; want true, false", s.Timer, s.Count)
	}
	if s.Log.Level != "debug" || s.Log.File != "/tmp/lectern.log" {
		t.Errorf("Log = %+v", s.Log)
	}
	if s.Consoles != 3 {
		t.Errorf("Consoles = %d, want 3 from env", s.Consoles)
	}
	if s.Width != DefaultSettings().Width {
		t.Errorf("Width = %d, want default", s.Width)
	}
	if got := s.Keys["next"]; len(got) != 1 || got[0] != "j" {
		t.Errorf("keys.next = %v, want [j]", got)
	}
	if got := s.Keys["previous"]; len(got) != 2 {
		t.Errorf("keys.previous = %v", got)
	}
}

func TestLoadSettingsExpandsPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lectern.toml"), []byte("fps = 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TALKS_DIR", dir)

	s, err := LoadSettings("$TALKS_DIR/lectern.toml")
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.FPS != 12 {
		t.Errorf("FPS = %d, want 12 from the expanded path", s.FPS)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("missing settings file should not fail: %v", err)
	}
	if s.FPS != DefaultSettings().FPS {
		t.Errorf("FPS = %d, want default", s.FPS)
	}
}

func TestLoadSettingsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lectern.toml")
	if err := os.WriteFile(path, []byte(`fps = "fast"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Error("fps = \"fast\" should fail to decode")
	}
}
