// Package log provides the process-wide logger.
//
// Output goes to stderr so that stdout stays free for the MCP stdio
// transport and for JSON printed by the CLI.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels accepted by SetLevel
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelFatal = "fatal"
)

var zapLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "lvl",
	NameKey:        "name",
	CallerKey:      "caller",
	MessageKey:     "message",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.RFC3339TimeEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// Logger is the subset of zap.SugaredLogger used across the module
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Sync() error
}

// Default is the logger used by the package-level helpers
var Default Logger = New(os.Stderr)

// New builds a console logger writing to w at the shared level
func New(w io.Writer) *zap.SugaredLogger {
	return zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(w),
			zapLevel,
		),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	).Sugar()
}

// SetLevel changes the level of every logger built by New.
// Unrecognized levels select info.
func SetLevel(level string) {
	switch level {
	case LevelDebug:
		zapLevel.SetLevel(zapcore.DebugLevel)
	case LevelInfo:
		zapLevel.SetLevel(zapcore.InfoLevel)
	case LevelWarn:
		zapLevel.SetLevel(zapcore.WarnLevel)
	case LevelError:
		zapLevel.SetLevel(zapcore.ErrorLevel)
	case LevelFatal:
		zapLevel.SetLevel(zapcore.FatalLevel)
	default:
		zapLevel.SetLevel(zapcore.InfoLevel)
	}
}

// Level returns the current level name
func Level() string {
	return zapLevel.Level().String()
}

func Debug(args ...any)                 { Default.Debug(args...) }
func Debugf(format string, args ...any) { Default.Debugf(format, args...) }
func Info(args ...any)                  { Default.Info(args...) }
func Infof(format string, args ...any)  { Default.Infof(format, args...) }
func Warn(args ...any)                  { Default.Warn(args...) }
func Warnf(format string, args ...any)  { Default.Warnf(format, args...) }
func Error(args ...any)                 { Default.Error(args...) }
func Errorf(format string, args ...any) { Default.Errorf(format, args...) }
func Fatal(args ...any)                 { Default.Fatal(args...) }
func Fatalf(format string, args ...any) { Default.Fatalf(format, args...) }

// Sync flushes buffered entries of the default logger
func Sync() error {
	return Default.Sync()
}
