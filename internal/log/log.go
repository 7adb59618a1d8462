// Package log is the process-wide logger. It writes structured JSON lines to
// stderr unless a log file is configured, so command output on stdout stays clean.
package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	base        *zap.Logger
	sugar       *zap.SugaredLogger
)

func init() {
	if err := build(""); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
}

func build(file string) error {
	cfg := zap.NewProductionConfig()
	cfg.Level = atomicLevel
	cfg.DisableStacktrace = true

	if file != "" {
		cfg.OutputPaths = []string{file}
		cfg.ErrorOutputPaths = []string{file}
	} else {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	base = logger
	sugar = base.Sugar()
	return nil
}

// Setup applies the configured level and output. An empty file keeps stderr.
func Setup(level, file string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	atomicLevel.SetLevel(lvl)

	if file == "" {
		return nil
	}
	_ = base.Sync()
	if err := build(file); err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	return nil
}

// ParseLevel accepts zap level names; the empty string means info.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return lvl, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}

func SetLevel(level zapcore.Level) {
	atomicLevel.SetLevel(level)
}

func Sync() {
	_ = base.Sync()
}

func Debug(format string, args ...any) {
	sugar.Debugf(format, args...)
}

func Info(format string, args ...any) {
	sugar.Infof(format, args...)
}

func Warn(format string, args ...any) {
	sugar.Warnf(format, args...)
}

func Error(format string, args ...any) {
	sugar.Errorf(format, args...)
}
