package main

import (
	"context"
	"fmt"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/app"
	"github.com/dshills/lectern/internal/config"
)

type envKey struct{}

// localEnv keeps what the commands share.
type localEnv struct {
	Settings config.Settings
	Log      *zap.Logger

	start time.Time
}

func envFromContext(ctx context.Context) *localEnv {
	if env, ok := ctx.Value(envKey{}).(*localEnv); ok {
		return env
	}
	panic("localenv not found in context")
}

func contextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &localEnv{
		Settings: config.DefaultSettings(),
		Log:      zap.NewNop(),
		start:    time.Now(),
	})
}

// prepareLog builds the logger for a command. The terminal viewer only
// logs to a file; the other commands log to the console.
func (e *localEnv) prepareLog(cmd *cli.Command, console bool) error {
	level := e.Settings.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	file := e.Settings.Log.File
	if cmd.IsSet("log-file") {
		file = cmd.String("log-file")
	}

	var conf app.LoggingConfig
	if console {
		conf.Console.Level = level
	}
	if file != "" {
		conf.File = app.LoggerConfig{Level: level, Destination: file, Append: true}
	}
	log, err := conf.Prepare()
	if err != nil {
		return fmt.Errorf("unable to prepare logs: %w", err)
	}
	e.Log = log
	e.Log.Debug("Program started", zap.String("command", cmd.Name), zap.Strings("args", cmd.Args().Slice()))
	return nil
}

// styleName returns the stylesheet from the command line or the settings.
func (e *localEnv) styleName(cmd *cli.Command) string {
	if cmd.IsSet("style") {
		return cmd.String("style")
	}
	return e.Settings.Style
}
