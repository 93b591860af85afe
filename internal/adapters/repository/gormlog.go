package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/dealdesk/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowQuery is the threshold above which statements are logged as warnings.
const slowQuery = 200 * time.Millisecond

// gormLog routes gorm's logging through the service logger.
type gormLog struct {
	log   logger.Logger
	level gormlogger.LogLevel
}

func newGormLog(l logger.Logger) gormlogger.Interface {
	return &gormLog{log: l, level: gormlogger.Warn}
}

func (g *gormLog) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLog{log: g.log, level: level}
}

func (g *gormLog) Info(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.log.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *gormLog) Warn(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.log.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *gormLog) Error(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.log.Error(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *gormLog) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		sql, rows := fc()
		g.log.Error(ctx, "sql failed", logger.String("sql", sql), logger.Int64("rows", rows), logger.Error(err))
	case elapsed > slowQuery && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.log.Warn(ctx, "slow sql", logger.String("sql", sql), logger.Int64("rows", rows),
			logger.Float64("elapsed_ms", float64(elapsed.Microseconds())/1000))
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.log.Debug(ctx, "sql", logger.String("sql", sql), logger.Int64("rows", rows))
	}
}
