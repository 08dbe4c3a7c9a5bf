package app

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/config"
	"github.com/dshills/lectern/internal/element"
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/markup"
	"github.com/dshills/lectern/internal/page"
	"github.com/dshills/lectern/internal/presentation"
	"github.com/dshills/lectern/internal/process"
	"github.com/dshills/lectern/internal/renderer/font"
)

// Target describes the surface pages are laid out for.
type Target struct {
	Fonts font.Provider
	// Width is the layout width tables are fitted to.
	Width int
	// Spacing multiplies stylesheet spacing. Zero derives it from the line
	// height of the default font.
	Spacing float64
	// PixelX and PixelY are the layout units one media pixel covers.
	PixelX, PixelY float64
}

// TerminalTarget lays pages out in cells. A cell holds 8 by 16 media
// pixels.
func TerminalTarget(width int) Target {
	return Target{Fonts: font.Grid{}, Width: width, Spacing: 1, PixelX: 1.0 / 8, PixelY: 1.0 / 16}
}

// RasterTarget lays pages out in pixels with scalable fonts.
func RasterTarget(width int, fonts font.Provider) Target {
	return Target{Fonts: fonts, Width: width, PixelX: 1, PixelY: 1}
}

// spacing returns the spacing scale for sheet.
func (t Target) spacing(sheet *config.Sheet) float64 {
	if t.Spacing > 0 {
		return t.Spacing
	}
	face := t.Fonts.Face(font.Spec{
		Name: sheet.String(config.SectionDefault, style.KeyFontName, "sans"),
		Size: float64(sheet.Int(config.SectionDefault, style.KeyFontSize, 20)),
	})
	if h := face.Metrics().Height.Ceil(); h > 0 {
		return float64(h)
	}
	return 1
}

// Deck is a compiled markup file.
type Deck struct {
	Path   string
	Source string
	Pages  []*page.Page
	// Warnings are the markup problems that were skipped.
	Warnings []error
}

// StyleSpec picks the stylesheet a deck starts with.
type StyleSpec struct {
	// Name is a built-in sheet or a file. Empty selects the default sheet.
	Name string
	// BulletMode overrides list.expose when set.
	BulletMode string
}

// LoadDeck reads and compiles the markup at path with the stylesheet spec
// selects. Warnings are logged and kept on the deck; only unreadable input
// and stylesheets fail.
func LoadDeck(path string, spec StyleSpec, target Target, sup *process.Supervisor, logger *zap.Logger) (*Deck, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markup: %w", err)
	}
	dir := filepath.Dir(path)
	sheetName := spec.Name
	if sheetName == "" {
		sheetName = config.SheetDefault
	}
	sheet, err := config.Load(sheetName, config.WithDir(dir), config.WithLogger(logger))
	if err != nil {
		return nil, &InitError{Component: "stylesheet", Err: err}
	}
	if spec.BulletMode != "" {
		if err := sheet.SetOption("list.expose", spec.BulletMode); err != nil {
			return nil, &InitError{Component: "stylesheet", Err: err}
		}
	}

	opts := []markup.Option{
		markup.WithLogger(logger),
		markup.WithFonts(target.Fonts),
		markup.WithDir(dir),
		markup.WithSheet(sheet),
		markup.WithSpacingScale(target.spacing(sheet)),
		markup.WithWidth(target.Width),
		markup.WithElementOptions(element.WithPixelScale(target.PixelX, target.PixelY)),
	}
	if sup != nil {
		opts = append(opts, markup.WithSupervisor(sup))
	}
	pages, warn := markup.Compile(src, opts...)

	d := &Deck{Path: path, Source: string(src), Pages: pages, Warnings: multierr.Errors(warn)}
	for _, w := range d.Warnings {
		logger.Warn("markup", zap.String("file", path), zap.Error(w))
	}
	if len(pages) == 0 {
		return d, presentation.ErrNoPages
	}
	logger.Debug("deck compiled", zap.String("file", path), zap.Int("pages", len(pages)), zap.Int("warnings", len(d.Warnings)))
	return d, nil
}

// Release frees the documents of pages that were never shown.
func (d *Deck) Release() {
	for _, p := range d.Pages {
		p.Document().Release()
	}
}

// newSupervisor returns the supervisor console elements run under. At most
// limit processes run at once, and every exit is logged.
func newSupervisor(logger *zap.Logger, limit int) *process.Supervisor {
	return process.NewSupervisor(
		process.WithLogger(logger),
		process.WithMaxProcesses(max(limit, 0)),
		process.WithProcessExitCallback(func(p *process.Process) {
			logger.Info("console process exited",
				zap.String("name", p.Name),
				zap.Int("code", p.ExitCode()),
				zap.Duration("runtime", p.Runtime()),
				zap.Error(p.ExitError()))
		}),
	)
}
