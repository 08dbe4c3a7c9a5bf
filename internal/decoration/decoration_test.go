package decoration

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/lectern/internal/config"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
)

func mustParse(t *testing.T, lines ...string) *Spec {
	t.Helper()
	spec, err := Parse(lines)
	require.NoError(t, err)
	return spec
}

func itemsOfKind(b *batch.Batch, k batch.Kind) []*batch.Item {
	var out []*batch.Item
	for _, it := range b.Items() {
		if it.Kind() == k {
			out = append(out, it)
		}
	}
	return out
}

func TestEnterBackground(t *testing.T) {
	b := batch.New()
	d := New(nil, nil, font.Grid{})
	require.NoError(t, d.Enter(b, 80, 24))

	quads := itemsOfKind(b, batch.KindQuad)
	require.Len(t, quads, 1)
	assert.Equal(t, core.R(0, 0, 80, 24), quads[0].Rect())
	assert.Equal(t, core.White, quads[0].Colors()[0])
	assert.Equal(t, core.R(0, 0, 80, 24), d.Viewport())

	assert.ErrorIs(t, d.Enter(b, 80, 24), ErrEntered)
}

func TestBackgroundPrecedence(t *testing.T) {
	d := New(mustParse(t, "bgcolor:red"), config.Default(), font.Grid{})
	assert.Equal(t, core.Red, d.Background())

	sheet, ok := config.Builtin(config.SheetWhiteOnBlack)
	require.True(t, ok)
	d = New(nil, sheet, font.Grid{})
	assert.Equal(t, core.Black, d.Background())
}

func TestQuadCorners(t *testing.T) {
	b := batch.New()
	d := New(mustParse(t, "vgradient:black;white", "quad:Cred;Vw,h;V0,h;V0,h//2;Vw,h//2"), nil, font.Grid{})
	require.NoError(t, d.Enter(b, 100, 40))

	quads := itemsOfKind(b, batch.KindQuad)
	require.Len(t, quads, 3)

	grad := quads[1]
	assert.Equal(t, core.R(0, 0, 100, 40), grad.Rect())
	assert.Equal(t, [4]core.Color{core.Black, core.Black, core.White, core.White}, grad.Colors())

	band := quads[2]
	assert.Equal(t, core.R(0, 20, 100, 20), band.Rect())
	assert.Equal(t, core.Red, band.Colors()[0])
}

func TestTitleAndFooterShrinkViewport(t *testing.T) {
	b := batch.New()
	d := New(mustParse(t, "title:Hello", "footer:Bye"), nil, font.Grid{})
	require.NoError(t, d.Enter(b, 80, 24))

	title := d.TitleRect()
	footer := d.FooterRect()
	require.False(t, title.Empty())
	require.False(t, footer.Empty())

	assert.Equal(t, 0, title.Y)
	assert.Equal(t, 40, title.X+title.W/2)
	assert.Equal(t, 24, footer.Bottom())
	assert.Equal(t, 80, footer.W)

	vp := d.Viewport()
	assert.Equal(t, title.Bottom(), vp.Y)
	assert.Equal(t, footer.Y, vp.Bottom())
	assert.Equal(t, 0, vp.X)
	assert.Equal(t, 80, vp.W)

	assert.NotEmpty(t, itemsOfKind(b, batch.KindText))
}

func TestHeadingOverridesTitle(t *testing.T) {
	d := New(mustParse(t, "title:Fallback"), nil, font.Grid{})
	assert.Equal(t, "Fallback", d.Title())
	d.SetTitle("Heading")
	assert.Equal(t, "Heading", d.Title())
}

func TestExplicitViewport(t *testing.T) {
	b := batch.New()
	d := New(mustParse(t, "title:T", "viewport:w//10,h//10,w*8//10,h*8//10"), nil, font.Grid{})
	require.NoError(t, d.Enter(b, 100, 50))
	assert.Equal(t, core.R(10, 5, 80, 40), d.Viewport())
}

func TestBadExpressionLogged(t *testing.T) {
	obs, logs := observer.New(zapcore.WarnLevel)
	b := batch.New()
	d := New(mustParse(t, "quad:Cred;V0,0;Vnope,0;Vw,h;V0,h", "viewport:0,0,w,bad("), nil, font.Grid{},
		WithLogger(zap.New(obs)))
	require.NoError(t, d.Enter(b, 10, 10))

	assert.Len(t, itemsOfKind(b, batch.KindQuad), 1)
	assert.Equal(t, 1, logs.FilterMessage("decoration quad skipped").Len())
	assert.Equal(t, 1, logs.FilterMessage("decoration viewport ignored").Len())
}

func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestImagesAnchored(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "logo.png", 4, 2)

	b := batch.New()
	d := New(mustParse(t,
		"image:logo.png;halign=right;valign=bottom",
		"image:logo.png;halign=center;valign=top",
		"image:missing.png",
	), nil, font.Grid{}, WithDir(dir))
	require.NoError(t, d.Enter(b, 80, 24))

	sprites := itemsOfKind(b, batch.KindSprite)
	require.Len(t, sprites, 2)
	assert.Equal(t, core.R(76, 22, 4, 2), sprites[0].Rect())
	assert.Equal(t, core.R(38, 0, 4, 2), sprites[1].Rect())
}

func TestLeaveRemovesEverything(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)

	b := batch.New()
	d := New(mustParse(t, "title:T", "footer:F", "hgradient:red;blue", "image:a.png"), nil, font.Grid{}, WithDir(dir))
	require.NoError(t, d.Enter(b, 40, 20))
	require.NotZero(t, b.Len())

	d.Leave()
	assert.Zero(t, b.Len())
	assert.False(t, d.Entered())

	require.NoError(t, d.Enter(b, 40, 20))
	assert.NotZero(t, b.Len())
}

func TestResize(t *testing.T) {
	b := batch.New()
	d := New(mustParse(t, "footer:F"), nil, font.Grid{})
	require.NoError(t, d.Enter(b, 40, 20))
	require.NoError(t, d.Resize(60, 30))
	assert.Equal(t, 30, d.FooterRect().Bottom())
	assert.Equal(t, core.R(0, 0, 60, 30), d.Clip())
}
