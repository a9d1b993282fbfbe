package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/flashmarket/storefront/pkg/logger"
)

// queryLogger sends gorm's output through the service logger so query lines
// carry the request fields. Only failed and slow queries are reported.
type queryLogger struct {
	logg *logger.Logger
	slow time.Duration
}

func newQueryLogger(logg *logger.Logger, slow time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	return &queryLogger{logg: logg, slow: slow}
}

func (q *queryLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return q }

func (q *queryLogger) Info(ctx context.Context, msg string, _ ...any) {
	q.logg.Debug(ctx, msg)
}

func (q *queryLogger) Warn(ctx context.Context, msg string, _ ...any) {
	q.logg.Warn(ctx, msg)
}

func (q *queryLogger) Error(ctx context.Context, msg string, _ ...any) {
	q.logg.Warn(q.logg.WithField(ctx, "gorm", msg), "db.driver_error")
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := q.slow > 0 && elapsed >= q.slow
	if !failed && !slow {
		return
	}

	sql, rows := fc()
	fields := map[string]any{"sql": sql, "rows": rows, "elapsed_ms": elapsed.Milliseconds()}
	if failed {
		fields["error"] = err.Error()
		q.logg.Warn(q.logg.WithFields(ctx, fields), "db.query_failed")
		return
	}
	q.logg.Warn(q.logg.WithFields(ctx, fields), "db.query_slow")
}
