package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/lectern/internal/config/loader"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "LECTERN_"

// Settings are the viewer defaults from lectern.toml. Command line flags
// override them.
type Settings struct {
	// Width and Height are the desired export size in pixels.
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// FPS is the frame rate of the update loop.
	FPS int `toml:"fps"`

	// Style names the stylesheet pages start with.
	Style string `toml:"style"`

	// Timer and Count enable the overlays.
	Timer bool `toml:"timer"`
	Count bool `toml:"count"`

	// Consoles caps the console processes running at once. Zero means
	// no limit.
	Consoles int `toml:"consoles"`

	Log LogSettings `toml:"log"`

	// Keys maps action names to key names, replacing the default bindings
	// of each action listed.
	Keys map[string][]string `toml:"keys"`
}

// LogSettings configure the zap logger.
type LogSettings struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level"`
	// File receives the log in the terminal viewer. Empty disables logging
	// there, since the screen owns stdout.
	File string `toml:"file"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		Width:    1024,
		Height:   768,
		FPS:      30,
		Style:    SheetDefault,
		Consoles: 8,
		Log:      LogSettings{Level: "info"},
	}
}

// DefaultSettingsPath returns $XDG_CONFIG_HOME/lectern/lectern.toml, or ""
// when there is no user config directory.
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lectern", "lectern.toml")
}

// LoadSettings reads settings from path (TOML or YAML; a missing file is
// not an error) and the environment, over the defaults.
func LoadSettings(path string, opts ...LoadOption) (Settings, error) {
	o := loadOptions{fs: loader.DefaultFS()}
	for _, opt := range opts {
		opt(&o)
	}

	path = loader.ExpandPath(path)
	def := DefaultSettings()
	merged, err := toMap(def)
	if err != nil {
		return def, err
	}
	if path != "" {
		file, err := loader.ForPath(o.fs, path).LoadFrom(path)
		if err != nil {
			return def, err
		}
		merged = loader.DeepMerge(merged, file)
	}
	env, err := loader.NewEnvLoader(EnvPrefix).Load()
	if err != nil {
		return def, err
	}
	merged = loader.DeepMerge(merged, env)
	normalizeKeys(merged)

	var s Settings
	if err := fromMap(merged, &s); err != nil {
		return def, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

// normalizeKeys turns single key names into lists so "next = 'n'" and
// LECTERN_KEYS_NEXT=n decode like "next = ['n']".
func normalizeKeys(m map[string]any) {
	keys, ok := m["keys"].(map[string]any)
	if !ok {
		return
	}
	for action, v := range keys {
		if s, ok := v.(string); ok {
			keys[action] = []any{s}
		}
	}
}

func toMap(v any) (map[string]any, error) {
	data, err := toml.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromMap(m map[string]any, v any) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return err
	}
	return toml.Unmarshal(data, v)
}
