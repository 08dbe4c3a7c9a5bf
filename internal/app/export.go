package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/presentation"
	"github.com/dshills/lectern/internal/renderer/backend"
	"github.com/dshills/lectern/internal/renderer/font"
)

// settle is how far the clock is advanced before a frame is captured, so
// transitions and reveal fades have finished.
const settle = time.Minute

// ExportOptions configures PNG export.
type ExportOptions struct {
	Path  string
	Style string
	// BulletMode overrides list.expose when set.
	BulletMode string
	// Dir receives one PNG per page.
	Dir           string
	Width, Height int
	// Consoles caps the console processes running at once.
	Consoles int
	Logger   *zap.Logger
}

// ParseSize parses WxH.
func ParseSize(s string) (w, h int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	return w, h, nil
}

// Export renders every page fully revealed and returns the written files.
func Export(ctx context.Context, opts ExportOptions) (files []string, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}

	fonts := font.NewOpenType(72)
	defer fonts.Close()
	sup := newSupervisor(logger, opts.Consoles)
	defer sup.Shutdown(shutdownTimeout)

	deck, err := LoadDeck(opts.Path, StyleSpec{Name: opts.Style, BulletMode: opts.BulletMode}, RasterTarget(opts.Width, fonts), sup, logger)
	if err != nil {
		if deck != nil {
			deck.Release()
		}
		return nil, err
	}
	pres, err := presentation.New(deck.Pages, presentation.WithLogger(logger), presentation.WithFonts(fonts))
	if err != nil {
		deck.Release()
		return nil, err
	}
	if err := pres.Start(opts.Width, opts.Height); err != nil {
		deck.Release()
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, pres.Close())
	}()

	canvas := backend.NewRasterCanvas(opts.Width, opts.Height)
	for i := range pres.Len() {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		pres.GoTo(i)
		pres.Page().Sequencer().RevealAll()
		pres.Update(settle)

		if err := pres.Draw(canvas); err != nil {
			return files, fmt.Errorf("page %d: %w", i+1, err)
		}
		name := filepath.Join(opts.Dir, presentation.PageFile(i))
		if err := writePNG(canvas, name); err != nil {
			return files, err
		}
		logger.Debug("page exported", zap.Int("page", i+1), zap.String("file", name))
		files = append(files, name)
	}
	return files, nil
}

func writePNG(c *backend.RasterCanvas, name string) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return c.EncodePNG(f)
}
