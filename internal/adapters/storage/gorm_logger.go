package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/renato0307/grove/internal/logging"
)

const slowQueryThreshold = 200 * time.Millisecond

// queryLogger routes GORM's output through logging.Logger
type queryLogger struct {
	level         logger.LogLevel
	slowThreshold time.Duration
}

func newQueryLogger() logger.Interface {
	level := logger.Silent
	if os.Getenv(logging.EnvDebug) == "1" {
		level = logger.Info
	}
	return &queryLogger{level: level, slowThreshold: slowQueryThreshold}
}

func (l *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *queryLogger) Info(ctx context.Context, msg string, data ...any) {
	l.log(ctx, logger.Info, msg, data)
}

func (l *queryLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.log(ctx, logger.Warn, msg, data)
}

func (l *queryLogger) Error(ctx context.Context, msg string, data ...any) {
	l.log(ctx, logger.Error, msg, data)
}

func (l *queryLogger) log(ctx context.Context, level logger.LogLevel, msg string, data []any) {
	if l.level < level {
		return
	}
	text := fmt.Sprintf(msg, data...)
	switch level {
	case logger.Error:
		logging.Logger.ErrorContext(ctx, text, "component", "gorm")
	case logger.Warn:
		logging.Logger.WarnContext(ctx, text, "component", "gorm")
	default:
		logging.Logger.InfoContext(ctx, text, "component", "gorm")
	}
}

// Trace logs every statement at debug level, slow ones as warnings and
// failures (other than a missing row) as errors.
func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []any{"duration", elapsed, "sql", sql, "rows", rows}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		logging.Logger.ErrorContext(ctx, "Query failed", append(attrs, "error", err)...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		logging.Logger.WarnContext(ctx, "Slow query", attrs...)
	case l.level >= logger.Info:
		logging.Logger.DebugContext(ctx, "Query", attrs...)
	}
}
