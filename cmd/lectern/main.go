// Command lectern shows markup presentations in the terminal and renders
// them to PNG frames.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/app"
	"github.com/dshills/lectern/internal/config"
	"github.com/dshills/lectern/internal/renderer/backend"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

var errNoFile = errors.New("markup FILE is required")

// loadSettings runs after the command line is parsed and before any
// command.
func loadSettings(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	env := envFromContext(ctx)
	path := cmd.String("config")
	if path == "" {
		path = config.DefaultSettingsPath()
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	s, err := config.LoadSettings(path)
	if err != nil {
		return ctx, fmt.Errorf("unable to load settings: %w", err)
	}
	env.Settings = s
	return ctx, nil
}

func syncLog(ctx context.Context, _ *cli.Command) error {
	env := envFromContext(ctx)
	env.Log.Debug("Program ended", zap.Duration("elapsed", time.Since(env.start)))
	_ = env.Log.Sync()
	return nil
}

var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := envFromContext(ctx)
	if env.Log != nil && env.Log.Core().Enabled(zap.ErrorLevel) {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "style", Aliases: []string{"s"}, Usage: "start with stylesheet `NAME` (built-in name or file)"},
		&cli.StringFlag{Name: "bullet-mode", Aliases: []string{"b"}, Usage: "reveal list items by `MODE`: show, expose or fade"},
		&cli.BoolFlag{Name: "list-styles", Aliases: []string{"l"}, Usage: "print the built-in stylesheet names and exit"},
		&cli.StringFlag{Name: "log-file", Usage: "write the log to `FILE`"},
		&cli.StringFlag{Name: "log-level", Usage: "log `LEVEL`: none, debug, info, warn or error"},
	}
}

func showFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.IntFlag{Name: "start-page", Aliases: []string{"p"}, Usage: "first page `N` (1-based, negative counts from the end)"},
		&cli.BoolFlag{Name: "timer", Aliases: []string{"t"}, Usage: "show the elapsed time"},
		&cli.BoolFlag{Name: "count", Usage: "show the page number and count"},
		&cli.StringFlag{Name: "record", Usage: "append page change timings to `FILE`"},
		&cli.StringFlag{Name: "play", Usage: "replay page change timings from `FILE`"},
		&cli.FloatFlag{Name: "playspeed", Usage: "advance one page every `N` seconds"},
		&cli.BoolFlag{Name: "loop", Usage: "start over after the last page when playing"},
		&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "reload when the markup file changes"},
	)
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	cmd := &cli.Command{
		Name:            "lectern",
		Usage:           "presentation viewer for markdown slides",
		Version:         version + " (" + runtime.Version() + ") : " + commit,
		HideHelpCommand: true,
		ArgsUsage:       "FILE",
		Before:          loadSettings,
		After:           syncLog,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Action:          runShow,
		Flags: append(showFlags(),
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load settings from `FILE` (TOML or YAML)"},
		),
		Commands: []*cli.Command{
			{
				Name:         "show",
				Usage:        "Shows the presentation in the terminal",
				ArgsUsage:    "FILE",
				OnUsageError: usageErrorHandler,
				Action:       runShow,
				Flags:        showFlags(),
			},
			{
				Name:         "export",
				Usage:        "Renders every page to a PNG file",
				ArgsUsage:    "FILE",
				OnUsageError: usageErrorHandler,
				Action:       runExport,
				Flags: append(commonFlags(),
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "write frames to `DIR`"},
					&cli.StringFlag{Name: "size", Usage: "frame size `WxH` (default from settings)"},
				),
			},
			{
				Name:         "check",
				Usage:        "Compiles the presentation and lists pages and warnings",
				ArgsUsage:    "FILE",
				OnUsageError: usageErrorHandler,
				Action:       runCheck,
				Flags: append(commonFlags(),
					&cli.IntFlag{Name: "width", Value: 80, Usage: "layout width in `COLUMNS`"},
				),
			},
		},
	}

	var err error
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = cmd.Run(ctx, os.Args)
}

// listStyles prints the built-in stylesheet names when --list-styles is
// set.
func listStyles(w io.Writer, cmd *cli.Command) (bool, error) {
	if !cmd.Bool("list-styles") {
		return false, nil
	}
	for _, name := range config.BuiltinNames() {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return true, err
		}
	}
	return true, nil
}

func markupFile(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() == 0 {
		return "", errNoFile
	}
	return cmd.Args().First(), nil
}

func runShow(ctx context.Context, cmd *cli.Command) error {
	if done, err := listStyles(os.Stdout, cmd); done {
		return err
	}
	env := envFromContext(ctx)
	path, err := markupFile(cmd)
	if err != nil {
		return err
	}
	if err := env.prepareLog(cmd, false); err != nil {
		return err
	}

	term, err := backend.NewTerminal()
	if err != nil {
		return fmt.Errorf("unable to open terminal: %w", err)
	}
	s := env.Settings
	application, err := app.New(term, app.Options{
		Path:       path,
		Style:      env.styleName(cmd),
		BulletMode: cmd.String("bullet-mode"),
		StartPage:  cmd.Int("start-page"),
		Timer:      cmd.Bool("timer") || s.Timer,
		Count:      cmd.Bool("count") || s.Count,
		Record:     cmd.String("record"),
		Play:       cmd.String("play"),
		PlaySpeed:  cmd.Float("playspeed"),
		Loop:       cmd.Bool("loop"),
		Watch:      cmd.Bool("watch"),
		FPS:        s.FPS,
		Keys:       s.Keys,
		Consoles:   s.Consoles,
		Logger:     env.Log,
	})
	if err != nil {
		return err
	}
	defer application.Shutdown()
	return application.Run(ctx)
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	if done, err := listStyles(os.Stdout, cmd); done {
		return err
	}
	env := envFromContext(ctx)
	path, err := markupFile(cmd)
	if err != nil {
		return err
	}
	if err := env.prepareLog(cmd, true); err != nil {
		return err
	}

	w, h := env.Settings.Width, env.Settings.Height
	if cmd.IsSet("size") {
		if w, h, err = app.ParseSize(cmd.String("size")); err != nil {
			return err
		}
	}
	files, err := app.Export(ctx, app.ExportOptions{
		Path:       path,
		Style:      env.styleName(cmd),
		BulletMode: cmd.String("bullet-mode"),
		Dir:        cmd.String("out"),
		Width:      w,
		Height:     h,
		Consoles:   env.Settings.Consoles,
		Logger:     env.Log,
	})
	if err != nil {
		return err
	}
	env.Log.Info("Export finished", zap.Int("pages", len(files)), zap.String("dir", cmd.String("out")))
	return nil
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	if done, err := listStyles(os.Stdout, cmd); done {
		return err
	}
	env := envFromContext(ctx)
	path, err := markupFile(cmd)
	if err != nil {
		return err
	}
	if err := env.prepareLog(cmd, true); err != nil {
		return err
	}
	r, err := app.Check(path, app.StyleSpec{Name: env.styleName(cmd), BulletMode: cmd.String("bullet-mode")}, cmd.Int("width"), env.Log)
	if r != nil {
		if werr := r.Write(os.Stdout); werr != nil {
			return werr
		}
	}
	return err
}
