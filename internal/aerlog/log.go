// Package aerlog implements the MRE's logging surface: formatted lines
// tagged with the currently executing mod, backed by zap (the logging
// library the teacher codebase uses throughout its server and game
// packages). It also raises fatal errors per spec.md §7.
package aerlog

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config mirrors the shape of the teacher's LoggingConfig: a level and an
// output format. aercore and the harness set Level and Format in code;
// only Strict comes from aer/conf.toml (mre.promoteUnhandledErrors).
type Config struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "console" or "json"
	Strict bool   // promoteUnhandledErrors: fatal errors abort the process
}

// Logger wraps a *zap.Logger and stamps every line with the currently
// executing mod's name (or "mre" when no mod is on the context stack).
type Logger struct {
	base   *zap.Logger
	modOf  func() string
	runID  string
	strict bool
}

// New builds a Logger configured the way the teacher's cmd/server
// initLogger builds its production logger: level from config, encoder
// picked by format, colorized console output in dev mode.
func New(cfg Config, modOf func() string) (*Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.TimeKey = "time"
	zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")

	base, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("aerlog: build logger: %w", err)
	}

	if modOf == nil {
		modOf = func() string { return "mre" }
	}

	return &Logger{base: base, modOf: modOf, runID: uuid.NewString(), strict: cfg.Strict}, nil
}

// Sync flushes buffered log entries; call at shutdown.
func (l *Logger) Sync() error {
	if l == nil || l.base == nil {
		return nil
	}
	return l.base.Sync()
}

func (l *Logger) with(fields ...zap.Field) *zap.Logger {
	return l.base.With(zap.String("mod", l.modOf()))
}

// Info logs an INFO-level line with the current mod's name in a "mod"
// field. Lines come from zap's stock console or JSON encoder; they do not
// carry a `[HH:MM:SS][aer][<mod>]` prefix.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.with().Info(msg, fields...)
}

// Warning logs a WARNING-level line.
func (l *Logger) Warning(msg string, fields ...zap.Field) {
	l.with().Warn(msg, fields...)
}

// ErrorLine logs an ERROR-level line tagged with the calling function name,
// as spec.md §7's guard macros require.
func (l *Logger) ErrorLine(callerFunc, msg string, fields ...zap.Field) {
	fields = append(fields, zap.String("func", callerFunc))
	l.with().Error(msg, fields...)
}

// Fatal logs a FATAL-level line with a correlation id and then aborts the
// process, per spec.md §7's "fatal errors ... call the error log then
// abort the process".
func (l *Logger) Fatal(callerFunc, msg string, fields ...zap.Field) {
	fields = append(fields, zap.String("func", callerFunc), zap.String("correlation_id", uuid.NewString()))
	l.with().Fatal(msg, fields...)
}

// PromoteIfStrict aborts the process (via Fatal) when strict mode
// (promoteUnhandledErrors) is enabled and a listener returned a non-ok
// error, per spec.md §7.
func (l *Logger) PromoteIfStrict(callerFunc string, err error) {
	if err == nil || !l.strict {
		return
	}
	l.Fatal(callerFunc, "unhandled error promoted to fatal under strict mode", zap.Error(err))
}

// RunID returns the per-process correlation id stamped at Logger creation,
// used to cross-reference host crash dumps with MRE logs.
func (l *Logger) RunID() string {
	return l.runID
}
