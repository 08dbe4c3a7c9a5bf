package element

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
)

type testSurface struct {
	b    *batch.Batch
	clip core.Rect
}

func newSurface() *testSurface             { return &testSurface{b: batch.New()} }
func (s *testSurface) Batch() *batch.Batch { return s.b }
func (s *testSurface) Clip() core.Rect     { return s.clip }

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pic.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, solid(w, h, color.White)))
	return path
}

func TestFit(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		srcW, srcH float64
		wantW      int
		wantH      int
	}{
		{"intrinsic", 0, 0, 40, 20, 40, 20},
		{"width only", 20, 0, 40, 20, 20, 10},
		{"height only", 0, 30, 40, 20, 60, 30},
		{"both", 7, 9, 40, 20, 7, 9},
		{"tiny keeps one unit", 1, 0, 100, 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Fit(tt.w, tt.h, tt.srcW, tt.srcH)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestOpenImageDerivesAspect(t *testing.T) {
	path := writePNG(t, 40, 20)

	img, err := OpenImage(path, WithSize(20, 0))
	require.NoError(t, err)
	assert.Equal(t, document.Metrics{Ascent: 10, Advance: 20}, img.Metrics())
	assert.Equal(t, path, img.Path())

	img, err = OpenImage(path, WithPixelScale(0.5, 0.25))
	require.NoError(t, err)
	assert.Equal(t, document.Metrics{Ascent: 5, Advance: 20}, img.Metrics())
}

func TestOpenImageErrors(t *testing.T) {
	_, err := OpenImage(filepath.Join(t.TempDir(), "missing.png"))
	var re *ResourceError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Path, "missing.png")
	assert.ErrorIs(t, err, os.ErrNotExist)

	txt := filepath.Join(t.TempDir(), "notes.png")
	require.NoError(t, os.WriteFile(txt, []byte("just text"), 0o644))
	_, err = OpenImage(txt)
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
}

func TestImagePlaceIsIdempotent(t *testing.T) {
	img, err := NewImage(solid(4, 2, color.White))
	require.NoError(t, err)
	s := newSurface()

	require.NoError(t, img.Place(s, 10, 20))
	require.Equal(t, 1, s.b.Len())
	allocs := s.b.Allocations()
	item := s.b.Items()[0]
	assert.Equal(t, core.R(10, 18, 4, 2), item.Rect())

	require.NoError(t, img.Place(s, 10, 20))
	assert.Equal(t, allocs, s.b.Allocations())

	require.NoError(t, img.Place(s, 15, 30))
	assert.Equal(t, allocs, s.b.Allocations())
	assert.Equal(t, core.R(15, 28, 4, 2), item.Rect())

	other := newSurface()
	require.NoError(t, img.Place(other, 0, 2))
	img.Remove(s)
	assert.Equal(t, 0, s.b.Len())
	assert.Equal(t, 1, other.b.Len())

	img.Remove(nil)
	assert.Equal(t, 0, other.b.Len())
}

func TestImageOpacity(t *testing.T) {
	img, err := NewImage(solid(2, 2, color.White))
	require.NoError(t, err)
	s := newSurface()
	img.SetOpacity(100)
	require.NoError(t, img.Place(s, 0, 2))
	assert.Equal(t, uint8(100), s.b.Items()[0].Alpha())

	img.SetOpacity(0)
	assert.Equal(t, uint8(0), s.b.Items()[0].Alpha())
}

func TestSetScaleNotifiesOwner(t *testing.T) {
	img, err := NewImage(solid(4, 2, color.White))
	require.NoError(t, err)

	doc := document.New(nil)
	require.NoError(t, doc.Append("ab", nil))
	require.NoError(t, doc.InsertElement(1, img, nil))

	var changes []document.Change
	doc.Subscribe(func(c document.Change) { changes = append(changes, c) })

	img.SetScale(2)
	assert.Equal(t, document.Metrics{Ascent: 4, Advance: 8}, img.Metrics())
	require.Len(t, changes, 1)
	assert.Equal(t, document.ChangeElement, changes[0].Kind)
	assert.Equal(t, 1, changes[0].Offset)

	img.SetScale(2)
	assert.Len(t, changes, 1, "unchanged box does not notify")

	require.NoError(t, doc.DeleteText(0, doc.Len()))
	img.SetScale(3)
	assert.Len(t, changes, 2, "only the delete is seen after detaching")
}

func frames(n int) ([]image.Image, []time.Duration) {
	imgs := make([]image.Image, n)
	delays := make([]time.Duration, n)
	for i := range imgs {
		imgs[i] = solid(4, 4, color.Gray{Y: uint8(i * 40)})
		delays[i] = 100 * time.Millisecond
	}
	return imgs, delays
}

func TestVideoPlayback(t *testing.T) {
	imgs, delays := frames(3)
	v, err := NewVideo(imgs, delays)
	require.NoError(t, err)
	s := newSurface()

	assert.False(t, v.Playing())
	require.NoError(t, v.Place(s, 0, 4))
	assert.True(t, v.Playing())

	v.Update(250 * time.Millisecond)
	assert.Equal(t, 2, v.Frame())
	assert.Same(t, imgs[2], s.b.Items()[0].Image())

	v.Update(100 * time.Millisecond)
	assert.Equal(t, 0, v.Frame(), "loops by default")

	v.Remove(nil)
	assert.False(t, v.Playing())
	assert.Equal(t, 0, v.Frame())
	assert.Equal(t, 0, s.b.Len())
}

func TestVideoStopsWithoutLoop(t *testing.T) {
	imgs, delays := frames(2)
	v, err := NewVideo(imgs, delays, WithLoop(false))
	require.NoError(t, err)
	require.NoError(t, v.Place(newSurface(), 0, 4))

	v.Update(time.Second)
	assert.Equal(t, 1, v.Frame())
	assert.False(t, v.Playing())
}

func TestOpenVideoGIF(t *testing.T) {
	pal := color.Palette{color.Black, color.White}
	g := &gif.GIF{Config: image.Config{Width: 6, Height: 3, ColorModel: pal}}
	for i := range 2 {
		fr := image.NewPaletted(image.Rect(0, 0, 6, 3), pal)
		fr.SetColorIndex(i, 0, 1)
		g.Image = append(g.Image, fr)
		g.Delay = append(g.Delay, 5)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}
	path := filepath.Join(t.TempDir(), "clip.gif")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, gif.EncodeAll(f, g))
	require.NoError(t, f.Close())

	v, err := OpenVideo(path, WithSampleAspect(2))
	require.NoError(t, err)
	assert.Equal(t, 2, v.Frames())
	assert.Equal(t, document.Metrics{Ascent: 3, Advance: 12}, v.Metrics())

	_, err = OpenVideo(writePNG(t, 2, 2))
	assert.True(t, errors.Is(err, ErrUnsupportedMedia))
}
