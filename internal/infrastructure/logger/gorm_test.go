package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLoggerWithOptions(t *testing.T) {
	gormLog := NewGormLogger(nil, gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gormLog.slowThreshold)
	assert.False(t, gormLog.ignoreRecordNotFoundError)
}

func TestGormLogger_LogMode(t *testing.T) {
	gormLog := NewGormLogger(zap.NewNop(), gormlogger.Info)
	newLogger := gormLog.LogMode(gormlogger.Warn)

	// Original should be unchanged
	assert.Equal(t, gormlogger.Info, gormLog.logLevel)

	newGormLog, ok := newLogger.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, newGormLog.logLevel)
}

func TestGormLogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return "SELECT * FROM sales", 3 }

	t.Run("query carries analysis id", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Info)

		ctx, _ := WithAnalysisID(context.Background(), zap.NewNop(), "run-1")
		gormLog.Trace(ctx, time.Now(), sql, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "SQL Query", logs[0].Message)
		assert.Equal(t, "run-1", logs[0].ContextMap()["analysis_id"])
		assert.Equal(t, "select", logs[0].ContextMap()["statement"])
		assert.Equal(t, "sales", logs[0].ContextMap()["table"])
	})

	t.Run("query carries trace id", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Info)

		traceID := trace.TraceID{1, 2, 3}
		ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
			TraceID: traceID,
			SpanID:  trace.SpanID{4},
		}))
		gormLog.Trace(ctx, time.Now(), sql, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, traceID.String(), logs[0].ContextMap()["trace_id"])
	})

	t.Run("long batch insert is truncated", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Info, WithMaxSQLLength(40))

		batch := `INSERT INTO "sales" ("id","date","branch") VALUES ` + strings.Repeat(`('x','2024-01-01','Norte'),`, 50)
		gormLog.Trace(context.Background(), time.Now(), func() (string, int64) { return batch, 50 }, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		fields := logs[0].ContextMap()
		assert.Equal(t, "insert", fields["statement"])
		assert.Equal(t, "sales", fields["table"])
		assert.Len(t, fields["sql"], 43)
		assert.EqualValues(t, len(batch), fields["sql_length"])
	})

	t.Run("error is logged", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Warn)

		gormLog.Trace(context.Background(), time.Now(), sql, errors.New("connection reset"))

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "SQL Error", logs[0].Message)
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Warn)

		gormLog.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)

		assert.Empty(t, recorded.All())
	})

	t.Run("slow query is a warning", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(time.Millisecond))

		gormLog.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "Slow SQL", logs[0].Message)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gormLog := NewGormLogger(zap.New(core), gormlogger.Silent)

		gormLog.Trace(context.Background(), time.Now(), sql, errors.New("x"))

		assert.Empty(t, recorded.All())
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("other"))
}

func TestClassifyStatement(t *testing.T) {
	tests := []struct {
		sql   string
		kind  string
		table string
	}{
		{`SELECT * FROM "sales" WHERE date >= $1`, "select", "sales"},
		{`SELECT count(*) FROM "expenses"`, "select", "expenses"},
		{`INSERT INTO "insight_records" ("id","kind") VALUES ($1,$2)`, "insert", "insight_records"},
		{"UPDATE `sales` SET total = 1", "update", "sales"},
		{`DELETE FROM expenses WHERE id = 1`, "delete", "expenses"},
		{`SELECT 1`, "select", ""},
		{`CREATE TABLE sales (id text)`, "other", ""},
		{"", "other", ""},
	}

	for _, tt := range tests {
		kind, table := classifyStatement(tt.sql)
		assert.Equal(t, tt.kind, kind, tt.sql)
		assert.Equal(t, tt.table, table, tt.sql)
	}
}
