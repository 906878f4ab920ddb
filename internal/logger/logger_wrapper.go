package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/leandrodaf/midisynth/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements contracts.Logger on top of Uber's zap.
type ZapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
	enc    zapcore.Encoder // kept across SetDestination; nil means JSON
	file   *os.File
}

// NewZapLogger creates a production-style JSON logger writing to stderr.
func NewZapLogger() contracts.Logger {
	return newZapLogger(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.Lock(os.Stderr))
}

// NewConsoleLogger creates a human-readable logger writing to stderr, used by the CLI.
func NewConsoleLogger() contracts.Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	return newZapLogger(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stderr))
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() contracts.Logger {
	return &ZapLogger{logger: zap.NewNop(), level: zap.NewAtomicLevel()}
}

func newZapLogger(enc zapcore.Encoder, ws zapcore.WriteSyncer) *ZapLogger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return &ZapLogger{
		logger: zap.New(zapcore.NewCore(enc.Clone(), ws, level), zap.AddCaller(), zap.AddCallerSkip(2)),
		level:  level,
		enc:    enc,
	}
}

// Info logs a message at the INFO level
func (z *ZapLogger) Info(msg string, fields ...contracts.Field) {
	z.log(zapcore.InfoLevel, msg, fields...)
}

// Error logs a message at the ERROR level
func (z *ZapLogger) Error(msg string, fields ...contracts.Field) {
	z.log(zapcore.ErrorLevel, msg, fields...)
}

// Debug logs a message at the DEBUG level
func (z *ZapLogger) Debug(msg string, fields ...contracts.Field) {
	z.log(zapcore.DebugLevel, msg, fields...)
}

// Warn logs a message at the WARN level
func (z *ZapLogger) Warn(msg string, fields ...contracts.Field) {
	z.log(zapcore.WarnLevel, msg, fields...)
}

// Fatal logs a message at the FATAL level and terminates the application
func (z *ZapLogger) Fatal(msg string, fields ...contracts.Field) {
	z.log(zapcore.FatalLevel, msg, fields...)
	os.Exit(1)
}

// Field returns a new instance of Field
func (z *ZapLogger) Field() contracts.Field {
	return &zapField{}
}

// SetLevel sets the logging level
func (z *ZapLogger) SetLevel(level contracts.LogLevel) {
	z.level.SetLevel(toZapLevel(level))
}

// SetDestination redirects output. FileLog requires a path; the file is opened for append.
func (z *ZapLogger) SetDestination(dest contracts.LogDestination, filePath ...string) error {
	var ws zapcore.WriteSyncer
	switch dest {
	case contracts.ConsoleLog:
		ws = zapcore.Lock(os.Stderr)
	case contracts.FileLog:
		if len(filePath) == 0 || filePath[0] == "" {
			return fmt.Errorf("file log destination requires a path")
		}
		f, err := os.OpenFile(filePath[0], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		if z.file != nil {
			_ = z.file.Close()
		}
		z.file = f
		ws = zapcore.AddSync(f)
	default:
		return fmt.Errorf("unknown log destination %q", dest)
	}

	var enc zapcore.Encoder
	if z.enc != nil {
		enc = z.enc.Clone()
	} else {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	z.logger = zap.New(zapcore.NewCore(enc, ws, z.level), zap.AddCaller(), zap.AddCallerSkip(2))
	return nil
}

// Sync flushes buffered log entries.
func (z *ZapLogger) Sync() error {
	err := z.logger.Sync()
	if z.file != nil {
		return z.file.Sync()
	}
	return err
}

func (z *ZapLogger) log(level zapcore.Level, msg string, fields ...contracts.Field) {
	if !z.level.Enabled(level) {
		return
	}

	zfs := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if f, ok := field.(*zapField); ok && f.set {
			zfs = append(zfs, f.field)
		}
	}

	switch level {
	case zapcore.InfoLevel:
		z.logger.Info(msg, zfs...)
	case zapcore.ErrorLevel:
		z.logger.Error(msg, zfs...)
	case zapcore.DebugLevel:
		z.logger.Debug(msg, zfs...)
	case zapcore.WarnLevel:
		z.logger.Warn(msg, zfs...)
	case zapcore.FatalLevel:
		// Write without zap's own exit so Fatal keeps a single exit path.
		if ce := z.logger.Check(zapcore.ErrorLevel, msg); ce != nil {
			ce.Write(zfs...)
		}
	}
}

func toZapLevel(level contracts.LogLevel) zapcore.Level {
	switch level {
	case contracts.DebugLevel:
		return zapcore.DebugLevel
	case contracts.WarnLevel:
		return zapcore.WarnLevel
	case contracts.ErrorLevel:
		return zapcore.ErrorLevel
	case contracts.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// zapField implements contracts.Field
type zapField struct {
	field zap.Field
	set   bool
}

func wrap(f zap.Field) contracts.Field {
	return &zapField{field: f, set: true}
}

func (f *zapField) Bool(key string, val bool) contracts.Field {
	return wrap(zap.Bool(key, val))
}

func (f *zapField) Int(key string, val int) contracts.Field {
	return wrap(zap.Int(key, val))
}

func (f *zapField) Float64(key string, val float64) contracts.Field {
	return wrap(zap.Float64(key, val))
}

func (f *zapField) String(key string, val string) contracts.Field {
	return wrap(zap.String(key, val))
}

func (f *zapField) Time(key string, val time.Time) contracts.Field {
	return wrap(zap.Time(key, val))
}

func (f *zapField) Duration(key string, val time.Duration) contracts.Field {
	return wrap(zap.Duration(key, val))
}

func (f *zapField) Int64(key string, val int64) contracts.Field {
	return wrap(zap.Int64(key, val))
}

func (f *zapField) Error(key string, val error) contracts.Field {
	return wrap(zap.NamedError(key, val))
}

func (f *zapField) Uint64(key string, val uint64) contracts.Field {
	return wrap(zap.Uint64(key, val))
}

func (f *zapField) Uint8(key string, val uint8) contracts.Field {
	return wrap(zap.Uint8(key, val))
}
