package config

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/config/loader"
)

// maxInheritDepth bounds inherit chains.
const maxInheritDepth = 8

// sheetExts are tried in order when a sheet name has no extension.
var sheetExts = []string{".toml", ".yaml", ".yml"}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	fs     loader.FileSystem
	dir    string
	logger *zap.Logger
}

// WithFS reads sheet files from fsys instead of the OS.
func WithFS(fsys loader.FileSystem) LoadOption {
	return func(o *loadOptions) {
		o.fs = fsys
	}
}

// WithDir resolves relative sheet paths against dir.
func WithDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// WithLogger sets the logger that receives option warnings.
func WithLogger(logger *zap.Logger) LoadOption {
	return func(o *loadOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Load returns the named sheet: a copy of a built-in, or a sheet file
// resolved against the load directory. A file name without an extension
// is tried with .toml, .yaml and .yml.
//
// Unknown keys and bad values in the file are logged as warnings and
// skipped; Load still returns the sheet.
func Load(name string, opts ...LoadOption) (*Sheet, error) {
	sl := &sheetLoader{loadOptions: loadOptions{fs: loader.DefaultFS(), logger: zap.NewNop()}}
	for _, opt := range opts {
		opt(&sl.loadOptions)
	}
	sheet, err := sl.load(name, sl.dir, nil)
	if err != nil {
		return nil, err
	}
	for _, w := range multierr.Errors(sl.warnings) {
		sl.logger.Warn("stylesheet option skipped", zap.String("sheet", name), zap.Error(w))
	}
	return sheet, nil
}

// sheetLoader follows one inherit chain, collecting warnings.
type sheetLoader struct {
	loadOptions
	warnings error
}

func (sl *sheetLoader) warn(err error) {
	sl.warnings = multierr.Append(sl.warnings, err)
}

func (sl *sheetLoader) load(name, dir string, seen []string) (*Sheet, error) {
	if s, ok := Builtin(name); ok {
		return s, nil
	}
	if len(seen) >= maxInheritDepth {
		return nil, fmt.Errorf("%w: %s", ErrInheritDepthExceeded, strings.Join(append(seen, name), " -> "))
	}
	path, err := sl.resolve(name, dir)
	if err != nil {
		return nil, err
	}
	if slices.Contains(seen, path) {
		return nil, fmt.Errorf("%w: cycle at %s", ErrInheritDepthExceeded, path)
	}

	data, err := loader.ForPath(sl.fs, path).LoadFrom(path)
	if err != nil {
		return nil, err
	}

	sheet := Default()
	if parent, ok := data["inherit"].(string); ok && parent != "" {
		sheet, err = sl.load(parent, filepath.Dir(path), append(seen, path))
		if err != nil {
			return nil, fmt.Errorf("%s: inherit %s: %w", path, parent, err)
		}
	}
	sheet.name = name

	for _, key := range slices.Sorted(maps.Keys(data)) {
		val := data[key]
		switch key {
		case "inherit":
		case "style":
			table, ok := val.(map[string]any)
			if !ok {
				sl.warn(&OptionError{Key: "style", Value: val, Err: ErrInvalidValue})
				continue
			}
			sl.warn(sheet.Apply(loader.Flatten(table)))
		case "decoration":
			lines, err := decorationLines(val)
			if err != nil {
				sl.warn(err)
				continue
			}
			sheet.SetDecoration(append(sheet.Decoration(), lines...))
		default:
			sl.warn(&OptionError{Key: key, Err: ErrUnknownKey})
		}
	}
	return sheet, nil
}

// resolve finds the file for a sheet name.
func (sl *sheetLoader) resolve(name, dir string) (string, error) {
	path := loader.ExpandPath(name)
	if !filepath.IsAbs(path) && dir != "" {
		path = filepath.Join(dir, path)
	}
	candidates := []string{path}
	if filepath.Ext(path) == "" {
		for _, ext := range sheetExts {
			candidates = append(candidates, path+ext)
		}
	}
	for _, c := range candidates {
		if info, err := sl.fs.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownStylesheet, name)
}

// decorationLines accepts a list of strings or one multi-line string.
func decorationLines(v any) ([]string, error) {
	var lines []string
	switch t := v.(type) {
	case string:
		for _, l := range strings.Split(t, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
	case []any:
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, &OptionError{Key: "decoration", Value: item, Err: ErrInvalidValue}
			}
			lines = append(lines, strings.TrimSpace(s))
		}
	default:
		return nil, &OptionError{Key: "decoration", Value: v, Err: ErrInvalidValue}
	}
	return lines, nil
}
