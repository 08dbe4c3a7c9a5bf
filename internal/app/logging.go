package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig configures one log destination.
type LoggerConfig struct {
	// Level is none, debug, info, warn or error. Empty means none.
	Level string
	// Destination is the log file. Unused by the console logger.
	Destination string
	// Append keeps an existing log file instead of truncating it.
	Append bool
}

// LoggingConfig selects where the viewer logs. The terminal viewer owns
// stdout, so it only logs to a file; export and check log to the console.
type LoggingConfig struct {
	File    LoggerConfig
	Console LoggerConfig
}

// ParseLogLevel maps a level name to a zap level. ok is false for none,
// empty and unknown names.
func ParseLogLevel(s string) (lvl zapcore.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info", "normal":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	}
	return zapcore.InfoLevel, false
}

// Prepare builds the logger. Console output goes to stderr; errors are
// printed without their verbose stack. With neither destination enabled
// the logger discards everything.
func (conf *LoggingConfig) Prepare() (*zap.Logger, error) {
	cores := make([]zapcore.Core, 0, 2)

	if lvl, ok := ParseLogLevel(conf.Console.Level); ok {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeCaller = nil
		ec.TimeKey = zapcore.OmitKey
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stderr), lvl))
	}

	if lvl, ok := ParseLogLevel(conf.File.Level); ok && conf.File.Destination != "" {
		f, err := openLog(conf.File.Destination, conf.File.Append)
		if err != nil {
			return nil, fmt.Errorf("unable to access log destination (%s): %w", conf.File.Destination, err)
		}
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(f), lvl))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named("lectern"), nil
}

func openLog(name string, appendMode bool) (*os.File, error) {
	if dir := filepath.Dir(name); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	return os.OpenFile(name, flags, 0o644)
}
