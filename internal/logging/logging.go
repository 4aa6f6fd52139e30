package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// ZapLogger implements Logger on top of a zap.Logger.
type ZapLogger struct {
	z *zap.Logger
}

// NewLogger builds a Logger writing to w at the given level and format.
func NewLogger(w io.Writer, level Level, format Format) (*ZapLogger, error) {
	var lvl zapcore.Level
	switch Level(strings.ToLower(string(level))) {
	case LevelDebug:
		lvl = zapcore.DebugLevel
	case LevelInfo, "":
		lvl = zapcore.InfoLevel
	case LevelWarn:
		lvl = zapcore.WarnLevel
	case LevelError:
		lvl = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder

	var enc zapcore.Encoder
	switch Format(strings.ToLower(string(format))) {
	case FormatJSON, "":
		enc = zapcore.NewJSONEncoder(encCfg)
	case FormatConsole:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl)
	return &ZapLogger{z: zap.New(core)}, nil
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() *ZapLogger {
	return &ZapLogger{z: zap.NewNop()}
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			out = append(out, zap.NamedError(f.Key, err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func (l *ZapLogger) Debug(msg string, fields ...Field) {
	l.z.Debug(msg, toZap(fields)...)
}

func (l *ZapLogger) Info(msg string, fields ...Field) {
	l.z.Info(msg, toZap(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields ...Field) {
	l.z.Warn(msg, toZap(fields)...)
}

func (l *ZapLogger) Error(msg string, fields ...Field) {
	l.z.Error(msg, toZap(fields)...)
}

func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{z: l.z.With(toZap(fields)...)}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.z.Sync()
}
