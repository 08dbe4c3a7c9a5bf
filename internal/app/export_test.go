package app

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		w, h  int
		ok    bool
	}{
		{"1024x768", 1024, 768, true},
		{" 640X480 ", 640, 480, true},
		{"640", 0, 0, false},
		{"0x480", 0, 0, false},
		{"ax480", 0, 0, false},
		{"640x-1", 0, 0, false},
	}
	for _, tt := range tests {
		w, h, err := ParseSize(tt.input)
		if tt.ok != (err == nil) || w != tt.w || h != tt.h {
			t.Errorf("ParseSize(%q) = %d, %d, %v", tt.input, w, h, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidSize) {
			t.Errorf("ParseSize(%q) error %v is not ErrInvalidSize", tt.input, err)
		}
	}
}

func TestExport(t *testing.T) {
	src := twoPages + "\n# Third\n\n```style\nlist.expose = fade\n```\n\n- a\n- b\n"
	path := writeMarkup(t, src)
	out := filepath.Join(t.TempDir(), "frames")

	files, err := Export(context.Background(), ExportOptions{Path: path, Dir: out, Width: 320, Height: 240})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("exported %d files, want 3", len(files))
	}
	for i, name := range files {
		if filepath.Base(name) != []string{"page-001.png", "page-002.png", "page-003.png"}[i] {
			t.Errorf("file %d named %s", i, name)
		}
		data, err := os.ReadFile(name)
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
			t.Errorf("%s is %v", name, b)
		}
	}

	first, _ := os.ReadFile(files[0])
	second, _ := os.ReadFile(files[1])
	if bytes.Equal(first, second) {
		t.Error("different pages rendered identical frames")
	}
}

func TestExportRejectsBadSize(t *testing.T) {
	_, err := Export(context.Background(), ExportOptions{Path: "x.md", Dir: t.TempDir()})
	if !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Export() = %v, want ErrInvalidSize", err)
	}
}

func TestExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	files, err := Export(ctx, ExportOptions{Path: writeMarkup(t, twoPages), Dir: t.TempDir(), Width: 64, Height: 48})
	if !errors.Is(err, context.Canceled) || len(files) != 0 {
		t.Errorf("Export() = %v, %v", files, err)
	}
}

func TestCheck(t *testing.T) {
	src := "# Intro\n\n```style\nnope.key = 1\n```\n\n- a\n- b\n\n---\n\nplain\n"
	r, err := Check(writeMarkup(t, src), StyleSpec{}, 80, nil)
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if len(r.Pages) != 2 {
		t.Fatalf("%d pages, want 2", len(r.Pages))
	}
	if r.Pages[0].Title != "Intro" || r.Pages[1].Title != "" {
		t.Errorf("titles %q, %q", r.Pages[0].Title, r.Pages[1].Title)
	}
	if len(r.Warnings) != 1 {
		t.Errorf("warnings = %v, want one", r.Warnings)
	}

	var buf bytes.Buffer
	if err := r.Write(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Intro", "(untitled)", "warning: ", "2 pages, 1 warnings"} {
		if !strings.Contains(out, want) {
			t.Errorf("report lacks %q:\n%s", want, out)
		}
	}
}

func TestCheckUnknownStylesheet(t *testing.T) {
	_, err := Check(writeMarkup(t, twoPages), StyleSpec{Name: "no-such-sheet"}, 80, nil)
	var ie *InitError
	if !errors.As(err, &ie) || ie.Component != "stylesheet" {
		t.Errorf("Check() = %v, want a stylesheet InitError", err)
	}
}

func TestCheckBulletMode(t *testing.T) {
	path := writeMarkup(t, "# List\n\n- a\n- b\n")
	for _, tt := range []struct {
		mode   string
		groups int
	}{
		{"", 0},
		{"show", 0},
		{"expose", 2},
		{"fade", 2},
	} {
		r, err := Check(path, StyleSpec{BulletMode: tt.mode}, 80, nil)
		if err != nil {
			t.Fatalf("Check(%q) failed: %v", tt.mode, err)
		}
		if got := r.Pages[0].Groups; got != tt.groups {
			t.Errorf("Check(%q) groups = %d, want %d", tt.mode, got, tt.groups)
		}
	}
}

func TestCheckRejectsBulletMode(t *testing.T) {
	_, err := Check(writeMarkup(t, twoPages), StyleSpec{BulletMode: "sideways"}, 80, nil)
	var ie *InitError
	if !errors.As(err, &ie) || ie.Component != "stylesheet" {
		t.Errorf("Check() = %v, want a stylesheet InitError", err)
	}
}
