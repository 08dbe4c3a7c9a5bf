package app

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/renderer/backend"
	"github.com/dshills/lectern/internal/watch"
)

// eventLoop is the main application loop. Input, frame ticks and file
// changes are all handled on this goroutine, so the presentation needs no
// locking.
func (app *Application) eventLoop(ctx context.Context) error {
	events := app.startInputPolling()

	frameTime := time.Second / time.Duration(app.opts.FPS)
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	var changes <-chan []watch.Event
	if app.watcher != nil {
		changes = app.watcher.Changes()
	}

	lastUpdate := time.Now()
	app.draw()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-app.done:
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if app.handleBackendEvent(ev) {
				app.draw()
			}
			if app.pres.Quit() {
				return nil
			}

		case <-ticker.C:
			now := time.Now()
			app.pres.Update(now.Sub(lastUpdate))
			lastUpdate = now
			app.draw()

		case batch, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			app.handleChanges(batch)
			app.draw()
		}
	}
}

// handleBackendEvent routes one event and reports whether a redraw is due.
func (app *Application) handleBackendEvent(ev backend.Event) bool {
	switch ev.Type {
	case backend.EventNone, backend.EventInterrupt:
		return false
	case backend.EventResize:
		app.canvas.Invalidate()
		app.pres.HandleEvent(ev)
		return true
	default:
		return app.pres.HandleEvent(ev)
	}
}

func (app *Application) draw() {
	if err := app.pres.Draw(app.canvas); err != nil {
		app.logger.Warn("draw", zap.Error(err))
	}
	app.backend.Show()
}

// startWatching watches the markup file for edits.
func (app *Application) startWatching() error {
	w, err := watch.New(watch.WithLogger(app.logger))
	if err != nil {
		return err
	}
	if err := w.Add(app.opts.Path); err != nil {
		_ = w.Close()
		return err
	}
	app.watcher = w
	return nil
}

// handleChanges reloads when the markup file was written or replaced.
func (app *Application) handleChanges(batch []watch.Event) {
	target, _ := filepath.Abs(app.opts.Path)
	for _, ev := range batch {
		path, _ := filepath.Abs(ev.Path)
		if path != target || ev.Op&(watch.OpWrite|watch.OpCreate|watch.OpRename) == 0 {
			continue
		}
		app.logger.Debug("markup changed", zap.String("file", ev.Path), zap.Stringer("op", ev.Op))
		app.reload()
		return
	}
}

// startInputPolling starts a goroutine that polls for input events.
//
// PollEvent is blocking. Shutdown posts an interrupt to wake it, and the
// backend shutdown in Run unblocks it for good.
func (app *Application) startInputPolling() <-chan backend.Event {
	events := make(chan backend.Event, 100)

	go func() {
		defer close(events)

		for app.running.Load() {
			ev := app.backend.PollEvent()
			if !app.running.Load() {
				return
			}
			select {
			case events <- ev:
			case <-app.done:
				return
			default:
				// Buffer full, drop the event rather than block the poller.
			}
		}
	}()

	return events
}
