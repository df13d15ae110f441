// Package log is a thin structured-logging facade over zap. Components take
// a Log rather than a *zap.Logger so tests can swap in Nop().
package log

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Log = (*Logger)(nil)

var (
	innerLogger          *Logger
	loggerInitializeOnce sync.Once
)

type Log interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	With(fields ...Field) Log
	SetLevel(level Level)
	GetLevel() Level
}

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Field is re-exported so call sites never import zap directly.
type Field = zap.Field

func Any(key string, val any) Field { return zap.Any(key, val) }

func Bool(key string, val bool) Field { return zap.Bool(key, val) }

func Duration(key string, v time.Duration) Field { return zap.Duration(key, v) }

func Float64(key string, val float64) Field { return zap.Float64(key, val) }

func Int(key string, val int) Field { return zap.Int(key, val) }

func String(key string, val string) Field { return zap.String(key, val) }

func Uint32(key string, val uint32) Field { return zap.Uint32(key, val) }

func Uint64(key string, val uint64) Field { return zap.Uint64(key, val) }

func Uint8(key string, val uint8) Field { return zap.Uint8(key, val) }

func Error(err error) Field { return zap.Error(err) }

type Logger struct {
	zapLogger *zap.Logger
	zapLevel  zap.AtomicLevel
}

func New(level Level) *Logger {
	atomicLevel := zap.NewAtomicLevelAt(toZapLevel(level))
	config := zap.Config{
		Level:            atomicLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	zapLogger, err := config.Build()
	if err != nil {
		panic(err)
	}

	logger := &Logger{
		zapLogger: zapLogger,
		zapLevel:  atomicLevel,
	}

	loggerInitializeOnce.Do(func() { innerLogger = logger })

	return logger
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{
		zapLogger: zap.NewNop(),
		zapLevel:  zap.NewAtomicLevelAt(zapcore.FatalLevel),
	}
}

// Provide returns the first logger built by New, for injection.
func Provide() *Logger {
	if innerLogger == nil {
		return Nop()
	}
	return innerLogger
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.zapLogger.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.zapLogger.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.zapLogger.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.zapLogger.Error(msg, fields...)
}

func (l *Logger) Fatal(msg string, fields ...Field) {
	l.zapLogger.Fatal(msg, fields...)
}

func (l *Logger) With(fields ...Field) Log {
	return &Logger{
		zapLogger: l.zapLogger.With(fields...),
		zapLevel:  l.zapLevel,
	}
}

func (l *Logger) SetLevel(level Level) {
	l.zapLevel.SetLevel(toZapLevel(level))
}

func (l *Logger) GetLevel() Level {
	return fromZapLevel(l.zapLevel.Level())
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zap.DebugLevel
	case LevelInfo:
		return zap.InfoLevel
	case LevelWarn:
		return zap.WarnLevel
	case LevelError:
		return zap.ErrorLevel
	case LevelFatal:
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

func fromZapLevel(level zapcore.Level) Level {
	switch level {
	case zap.DebugLevel:
		return LevelDebug
	case zap.InfoLevel:
		return LevelInfo
	case zap.WarnLevel:
		return LevelWarn
	case zap.ErrorLevel:
		return LevelError
	case zap.FatalLevel:
		return LevelFatal
	default:
		return LevelInfo
	}
}
