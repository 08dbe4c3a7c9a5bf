package loader

import (
	"io/fs"
	"testing"
	"time"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/lectern.toml", `
[title]
font_size = 4
bold = true
align = "center"

[footer]
color = "gray"
font_size = 14
`)

	loader := NewTOMLLoaderWithFS(memfs, "/lectern.toml")
	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Check title section
	title, ok := config["title"].(map[string]any)
	if !ok {
		t.Fatal("expected title to be a map")
	}

	if title["font_size"] != int64(4) {
		t.Errorf("font_size = %v (%T), want 4", title["font_size"], title["font_size"])
	}
	if title["bold"] != true {
		t.Errorf("bold = %v, want true", title["bold"])
	}
	if title["align"] != "center" {
		t.Errorf("align = %v, want 'center'", title["align"])
	}

	// Check footer section
	footer, ok := config["footer"].(map[string]any)
	if !ok {
		t.Fatal("expected footer to be a map")
	}
	if footer["color"] != "gray" {
		t.Errorf("color = %v, want 'gray'", footer["color"])
	}
}

func TestTOMLLoader_LoadNonExistent(t *testing.T) {
	memfs := NewMemFS()
	loader := NewTOMLLoaderWithFS(memfs, "/nonexistent.toml")

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("expected no error for non-existent file, got: %v", err)
	}
	if config != nil {
		t.Error("expected nil config for non-existent file")
	}
}

func TestTOMLLoader_LoadInvalid(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/invalid.toml", `
[title
font_size = 4
`)

	loader := NewTOMLLoaderWithFS(memfs, "/invalid.toml")
	_, err := loader.Load()
	if err == nil {
		t.Fatal("expected parse error")
	}

	parseErr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if parseErr.Path != "/invalid.toml" {
		t.Errorf("Path = %q, want '/invalid.toml'", parseErr.Path)
	}
}

func TestForPath(t *testing.T) {
	if _, ok := ForPath(nil, "deck.toml").(*TOMLLoader); !ok {
		t.Error("ForPath(.toml) should return a TOML loader")
	}
	if _, ok := ForPath(nil, "deck.YML").(*YAMLLoader); !ok {
		t.Error("ForPath(.YML) should return a YAML loader")
	}
	if _, ok := ForPath(nil, "deck").(*TOMLLoader); !ok {
		t.Error("ForPath without extension should default to TOML")
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten(map[string]any{
		"title":         map[string]any{"font_size": int64(30), "bold": true},
		"default.color": "red",
	})
	want := map[string]any{
		"title.font_size": int64(30),
		"title.bold":      true,
		"default.color":   "red",
	}
	if len(got) != len(want) {
		t.Fatalf("Flatten() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Flatten()[%q] = %v, want %v", k, got[k], v)
		}
	}
}

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name     string
		dst      map[string]any
		src      map[string]any
		expected map[string]any
	}{
		{
			name:     "nil dst",
			dst:      nil,
			src:      map[string]any{"a": 1},
			expected: map[string]any{"a": 1},
		},
		{
			name:     "nil src",
			dst:      map[string]any{"a": 1},
			src:      nil,
			expected: map[string]any{"a": 1},
		},
		{
			name:     "simple merge",
			dst:      map[string]any{"a": 1},
			src:      map[string]any{"b": 2},
			expected: map[string]any{"a": 1, "b": 2},
		},
		{
			name:     "src overrides dst",
			dst:      map[string]any{"a": 1},
			src:      map[string]any{"a": 2},
			expected: map[string]any{"a": 2},
		},
		{
			name: "nested merge",
			dst: map[string]any{
				"title": map[string]any{
					"font_size": 4,
				},
			},
			src: map[string]any{
				"title": map[string]any{
					"bold": true,
				},
			},
			expected: map[string]any{
				"title": map[string]any{
					"font_size": 4,
					"bold":      true,
				},
			},
		},
		{
			name: "nested override",
			dst: map[string]any{
				"title": map[string]any{
					"font_size": 4,
				},
			},
			src: map[string]any{
				"title": map[string]any{
					"font_size": 2,
				},
			},
			expected: map[string]any{
				"title": map[string]any{
					"font_size": 2,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DeepMerge(tt.dst, tt.src)
			if !mapsEqual(result, tt.expected) {
				t.Errorf("DeepMerge() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func mapsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok {
			return false
		}
		switch ta := va.(type) {
		case map[string]any:
			tb, ok := vb.(map[string]any)
			if !ok || !mapsEqual(ta, tb) {
				return false
			}
		default:
			if va != vb {
				return false
			}
		}
	}
	return true
}
