// Package logging provides the structured logging contract used across MetaNet
// and its zap-backed implementation.  Components receive a Logger through
// their constructors; go.uber.org/zap is only imported here.
//
// Initialisation order in cmd/*/main.go:
//
//  1. Load configuration.
//  2. Build a Logger from cfg.Log and install it with SetDefault.
//  3. Construct the remaining components, injecting the Logger.
package logging

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/turtacn/MetaNet/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Canonical field keys
// ─────────────────────────────────────────────────────────────────────────────

const (
	FieldRequestID   = "request_id"
	FieldError       = "error"
	FieldErrorCode   = "error_code"
	FieldComponent   = "component"
	FieldCompartment = "compartment_id"
	FieldReaction    = "reaction_id"
	FieldSubstance   = "substance_id"
	FieldPass        = "pass"
	FieldDurationMS  = "duration_ms"
)

// ─────────────────────────────────────────────────────────────────────────────
// Field
// ─────────────────────────────────────────────────────────────────────────────

// Field is a typed key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, val string) Field                 { return Field{Key: key, Value: val} }
func Int(key string, val int) Field                { return Field{Key: key, Value: val} }
func Int64(key string, val int64) Field            { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field        { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field              { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field        { return Field{Key: key, Value: val} }
func Strings(key string, val []string) Field       { return Field{Key: key, Value: val} }
func Ints(key string, val []int) Field             { return Field{Key: key, Value: val} }

// Err captures an error under FieldError.  A nil error is rendered as "<nil>".
func Err(err error) Field {
	if err == nil {
		return Field{Key: FieldError, Value: "<nil>"}
	}
	return Field{Key: FieldError, Value: err.Error()}
}

// Stringer defers formatting to val.String() at encode time.
func Stringer(key string, val fmt.Stringer) Field { return Field{Key: key, Value: val} }

// ─────────────────────────────────────────────────────────────────────────────
// Level
// ─────────────────────────────────────────────────────────────────────────────

// Level is the minimum severity a Logger emits.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) String() string { return string(l) }

// ParseLevel accepts debug, info, warn (or warning) and error in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return "", fmt.Errorf("logging: unknown level %q", s)
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Logger interface
// ─────────────────────────────────────────────────────────────────────────────

// Logger is the structured logging contract shared by every MetaNet layer.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// Fatal logs and then terminates the process.  Only cmd/ may call it.
	Fatal(msg string, fields ...Field)

	// With returns a child Logger carrying fields on every entry.
	With(fields ...Field) Logger
	// Named appends name to the logger name with a period separator.
	Named(name string) Logger
	// WithContext attaches the request id stored in ctx, if any.
	WithContext(ctx context.Context) Logger
	// WithError attaches err and, for an *errors.AppError, its code.
	WithError(err error) Logger

	// Sync flushes buffered entries.
	Sync() error
}

// LogConfig carries the parameters required to construct a Logger.
type LogConfig struct {
	Level            Level    `mapstructure:"level" yaml:"level" json:"level"`
	Format           string   `mapstructure:"format" yaml:"format" json:"format"`
	OutputPaths      []string `mapstructure:"output_paths" yaml:"output_paths" json:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths" yaml:"error_output_paths" json:"error_output_paths"`
}

// ─────────────────────────────────────────────────────────────────────────────
// zapLogger
// ─────────────────────────────────────────────────────────────────────────────

type zapLogger struct {
	z *zap.Logger
	// level is shared by every child logger; nil when the level is fixed.
	level *zap.AtomicLevel
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out = append(out, zap.String(f.Key, v))
		case int:
			out = append(out, zap.Int(f.Key, v))
		case int64:
			out = append(out, zap.Int64(f.Key, v))
		case float64:
			out = append(out, zap.Float64(f.Key, v))
		case bool:
			out = append(out, zap.Bool(f.Key, v))
		case time.Duration:
			out = append(out, zap.Duration(f.Key, v))
		case []string:
			out = append(out, zap.Strings(f.Key, v))
		case []int:
			out = append(out, zap.Ints(f.Key, v))
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		case fmt.Stringer:
			out = append(out, zap.Stringer(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, toZapFields(fields)...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, toZapFields(fields)...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, toZapFields(fields)...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, toZapFields(fields)...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, toZapFields(fields)...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(toZapFields(fields)...), level: l.level}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{z: l.z.Named(name), level: l.level}
}

func (l *zapLogger) WithContext(ctx context.Context) Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return l.With(String(FieldRequestID, id))
	}
	return l
}

func (l *zapLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	fields := []Field{String(FieldError, err.Error())}
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		fields = append(fields, String(FieldErrorCode, ae.Code.String()))
	}
	return l.With(fields...)
}

func (l *zapLogger) Sync() error {
	return l.z.Sync()
}

// ─────────────────────────────────────────────────────────────────────────────
// Constructors
// ─────────────────────────────────────────────────────────────────────────────

func encoderConfig(format string) zapcore.EncoderConfig {
	var enc zapcore.EncoderConfig
	if format == "console" {
		enc = zap.NewDevelopmentEncoderConfig()
	} else {
		enc = zap.NewProductionEncoderConfig()
	}
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	return enc
}

// NewLogger builds a zap-backed Logger.  Empty Format means "json" and a nil
// ErrorOutputPaths means stderr.  OutputPaths must name at least one sink.
func NewLogger(cfg LogConfig) (Logger, error) {
	if len(cfg.OutputPaths) == 0 {
		return nil, fmt.Errorf("logging: at least one output path is required")
	}
	if cfg.ErrorOutputPaths == nil {
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
	}

	level := zap.NewAtomicLevelAt(cfg.Level.zapLevel())
	zapCfg := zap.Config{
		Level:            level,
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig(encoding),
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: cfg.ErrorOutputPaths,
	}
	z, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("logging: failed to build zap logger: %w", err)
	}
	return &zapLogger{z: z, level: &level}, nil
}

// NewWriterLogger writes console-encoded entries at level to w.  The CLI uses
// it to keep diagnostics on stderr while results go to stdout.
func NewWriterLogger(w io.Writer, level Level) Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig("console")),
		zapcore.AddSync(w),
		level.zapLevel(),
	)
	return &zapLogger{z: zap.New(core)}
}

// NewLoggerFromCore wraps an existing core, typically a zaptest/observer core.
func NewLoggerFromCore(core zapcore.Core) Logger {
	return &zapLogger{z: zap.New(core, zap.AddCallerSkip(1))}
}

// NewDefaultLogger returns an info-level JSON logger on stdout.
func NewDefaultLogger() Logger {
	l, err := NewLogger(LogConfig{Level: LevelInfo, Format: "json", OutputPaths: []string{"stdout"}})
	if err != nil {
		return NewNopLogger()
	}
	return l
}

// NewDevelopmentLogger returns a debug-level console logger on stderr.
func NewDevelopmentLogger() Logger {
	l, err := NewLogger(LogConfig{Level: LevelDebug, Format: "console", OutputPaths: []string{"stderr"}})
	if err != nil {
		return NewNopLogger()
	}
	return l
}

// SetLevel changes the level of a Logger built by NewLogger, including every
// logger derived from it.  It reports false for loggers with a fixed level.
func SetLevel(l Logger, level Level) bool {
	zl, ok := l.(*zapLogger)
	if !ok || zl.level == nil {
		return false
	}
	zl.level.SetLevel(level.zapLevel())
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// nopLogger
// ─────────────────────────────────────────────────────────────────────────────

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field)                   {}
func (nopLogger) Info(string, ...Field)                    {}
func (nopLogger) Warn(string, ...Field)                    {}
func (nopLogger) Error(string, ...Field)                   {}
func (nopLogger) Fatal(string, ...Field)                   {}
func (n nopLogger) With(...Field) Logger                   { return n }
func (n nopLogger) Named(string) Logger                    { return n }
func (n nopLogger) WithContext(context.Context) Logger     { return n }
func (n nopLogger) WithError(error) Logger                 { return n }
func (nopLogger) Sync() error                              { return nil }

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

// ─────────────────────────────────────────────────────────────────────────────
// Request id propagation
// ─────────────────────────────────────────────────────────────────────────────

type requestIDKey struct{}

// WithRequestID stores id in ctx for WithContext to pick up.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// slowOperation is the duration above which LogOperationDuration warns.
const slowOperation = time.Second

// LogOperationDuration records how long op took since start.
func LogOperationDuration(l Logger, op string, start time.Time, fields ...Field) {
	elapsed := time.Since(start)
	fields = append(fields,
		String("operation", op),
		Int64(FieldDurationMS, elapsed.Milliseconds()),
	)
	if elapsed > slowOperation {
		l.Warn("slow operation", fields...)
		return
	}
	l.Info("operation completed", fields...)
}

// LogQuery records a repository query against the graph store.
func LogQuery(l Logger, query string, elapsed time.Duration, records int, err error) {
	fields := []Field{
		String("query", query),
		Int64(FieldDurationMS, elapsed.Milliseconds()),
		Int("records", records),
	}
	if err != nil {
		l.WithError(err).Error("graph query failed", fields...)
		return
	}
	l.Debug("graph query completed", fields...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Process-wide default
// ─────────────────────────────────────────────────────────────────────────────

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = nopLogger{}
)

// SetDefault installs l as the process-wide Logger.  nil is ignored.
func SetDefault(l Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Default returns the process-wide Logger.  Constructor injection is preferred.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}
