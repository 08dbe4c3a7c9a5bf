// Package app wires the viewer together: it compiles the markup, builds
// the presentation and runs it on a terminal, or renders it to PNG files.
package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/config"
	"github.com/dshills/lectern/internal/presentation"
	"github.com/dshills/lectern/internal/process"
	"github.com/dshills/lectern/internal/renderer/backend"
	"github.com/dshills/lectern/internal/watch"
)

const (
	defaultFPS      = 30
	shutdownTimeout = 2 * time.Second
)

// Options configures the viewer.
type Options struct {
	// Path is the markup file.
	Path string

	// Style names the stylesheet pages start with.
	Style string

	// BulletMode overrides list.expose of the stylesheet when set.
	BulletMode string

	// StartPage is the 1-based first page. Negative values count from the
	// end and zero is the first page.
	StartPage int

	// Timer and Count enable the overlays.
	Timer bool
	Count bool

	// Record appends page change timings to this file.
	Record string

	// Play replays a timing file. PlaySpeed advances one page per that
	// many seconds instead. Loop restarts after the last page.
	Play      string
	PlaySpeed float64
	Loop      bool

	// Watch recompiles when the markup file changes.
	Watch bool

	// FPS is the update rate.
	FPS int

	// Keys overrides key bindings by action name.
	Keys map[string][]string

	// Consoles caps the console processes running at once; zero means no
	// limit.
	Consoles int

	Logger *zap.Logger
}

// Application runs a presentation on a terminal.
type Application struct {
	mu sync.Mutex

	opts   Options
	logger *zap.Logger

	backend backend.Backend
	canvas  *backend.CellCanvas
	keymap  *config.Keymap
	sup     *process.Supervisor

	pres    *presentation.Presentation
	player  *presentation.AutoPlayer
	record  *os.File
	watcher *watch.Watcher

	running atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// New creates an Application drawing to b.
func New(b backend.Backend, opts Options) (*Application, error) {
	if b == nil {
		return nil, ErrNoBackend
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.FPS <= 0 {
		opts.FPS = defaultFPS
	}
	km, err := config.NewKeymap(opts.Keys)
	if err != nil {
		return nil, &InitError{Component: "keymap", Err: err}
	}
	return &Application{
		opts:    opts,
		logger:  opts.Logger,
		backend: b,
		keymap:  km,
		sup:     newSupervisor(opts.Logger, opts.Consoles),
		done:    make(chan struct{}),
	}, nil
}

// Presentation returns the running presentation, nil before Run.
func (app *Application) Presentation() *presentation.Presentation {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.pres
}

// IsRunning reports whether Run is active.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Run shows the presentation until it is quit, ctx is cancelled or
// Shutdown is called.
func (app *Application) Run(ctx context.Context) (err error) {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := app.backend.Init(); err != nil {
		return &InitError{Component: "backend", Err: err}
	}
	defer app.backend.Shutdown()
	app.backend.HideCursor()
	app.backend.EnableMouse()
	app.canvas = backend.NewCellCanvas(app.backend)

	if err := app.start(); err != nil {
		return multierr.Append(err, app.teardown())
	}
	defer func() {
		err = multierr.Append(err, app.teardown())
	}()
	return app.eventLoop(ctx)
}

// start compiles the markup and shows the first page.
func (app *Application) start() error {
	w, h := app.backend.Size()
	deck, err := LoadDeck(app.opts.Path, app.styleSpec(), TerminalTarget(w), app.sup, app.logger)
	if err != nil {
		if deck != nil {
			deck.Release()
		}
		return err
	}

	start := app.opts.StartPage
	if start > 0 {
		start--
	}
	pres, err := presentation.New(deck.Pages,
		presentation.WithLogger(app.logger),
		presentation.WithKeymap(app.keymap),
		presentation.WithTimer(app.opts.Timer),
		presentation.WithCount(app.opts.Count),
		presentation.WithStartPage(start),
		presentation.WithSource(deck.Source),
		presentation.WithReload(app.reload),
	)
	if err != nil {
		deck.Release()
		return err
	}
	app.mu.Lock()
	app.pres = pres
	app.mu.Unlock()

	if err := app.attachPlayback(); err != nil {
		return err
	}
	if app.opts.Watch {
		if err := app.startWatching(); err != nil {
			return &InitError{Component: "watch", Err: err}
		}
	}
	return pres.Start(w, h)
}

// attachPlayback wires the recorder and the auto player.
func (app *Application) attachPlayback() error {
	if app.opts.Record != "" {
		f, err := os.OpenFile(app.opts.Record, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return &InitError{Component: "recorder", Err: err}
		}
		app.record = f
		presentation.NewRecorder(app.pres, f, nil, app.logger)
	}

	var popts []presentation.AutoPlayerOption
	switch {
	case app.opts.Play != "":
		f, err := os.Open(app.opts.Play)
		if err != nil {
			return &InitError{Component: "player", Err: err}
		}
		timings, err := presentation.ReadTimings(f)
		_ = f.Close()
		if err != nil {
			return &InitError{Component: "player", Err: fmt.Errorf("%s: %w", app.opts.Play, err)}
		}
		popts = append(popts, presentation.WithTimings(timings))
	case app.opts.PlaySpeed > 0:
		popts = append(popts, presentation.WithDelay(time.Duration(app.opts.PlaySpeed*float64(time.Second))))
	default:
		return nil
	}
	popts = append(popts, presentation.WithLoop(app.opts.Loop), presentation.WithPlayerLogger(app.logger))
	app.player = presentation.NewAutoPlayer(app.pres, popts...)
	return nil
}

// reload recompiles the markup and swaps the pages in, keeping the page
// index. Failures leave the current pages up.
func (app *Application) styleSpec() StyleSpec {
	return StyleSpec{Name: app.opts.Style, BulletMode: app.opts.BulletMode}
}

func (app *Application) reload() {
	w, _ := app.backend.Size()
	deck, err := LoadDeck(app.opts.Path, app.styleSpec(), TerminalTarget(w), app.sup, app.logger)
	if err != nil {
		if deck != nil {
			deck.Release()
		}
		app.logger.Warn("reload", zap.String("file", app.opts.Path), zap.Error(err))
		return
	}
	old := app.pres.Pages()
	if err := app.pres.Replace(deck.Pages, deck.Source); err != nil {
		app.logger.Warn("reload", zap.Error(err))
		return
	}
	for _, p := range old {
		p.Document().Release()
	}
	app.logger.Info("reloaded", zap.String("file", app.opts.Path), zap.Int("pages", len(deck.Pages)))
}

// Shutdown asks Run to return. It is safe to call from any goroutine and
// more than once.
func (app *Application) Shutdown() {
	app.once.Do(func() {
		close(app.done)
		app.backend.PostEvent(backend.Event{Type: backend.EventInterrupt})
	})
}

// teardown releases everything start created, in reverse order.
func (app *Application) teardown() error {
	var errs error
	if app.player != nil {
		app.player.Stop()
	}
	if app.watcher != nil {
		errs = multierr.Append(errs, app.watcher.Close())
	}
	if app.pres != nil {
		errs = multierr.Append(errs, app.pres.Close())
	}
	app.sup.Shutdown(shutdownTimeout)
	if app.record != nil {
		errs = multierr.Append(errs, app.record.Close())
	}
	return errs
}
