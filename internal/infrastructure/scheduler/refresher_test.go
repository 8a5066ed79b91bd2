package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/aftersales/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type runnerFunc func(ctx context.Context, window ledger.DateRange) error

func (f runnerFunc) RunScheduled(ctx context.Context, window ledger.DateRange) error {
	return f(ctx, window)
}

func testConfig() RefresherConfig {
	return RefresherConfig{Interval: time.Hour, WindowDays: 90, JobTimeout: time.Second}
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 6, 30, 15, 4, 5, 0, time.UTC) }
}

func TestRefresherConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RefresherConfig
		wantErr bool
	}{
		{"valid", testConfig(), false},
		{"zero interval", RefresherConfig{WindowDays: 1, JobTimeout: time.Second}, true},
		{"empty window", RefresherConfig{Interval: time.Minute, JobTimeout: time.Second}, true},
		{"zero timeout", RefresherConfig{Interval: time.Minute, WindowDays: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewAnalysisRefresher_RequiresRunner(t *testing.T) {
	_, err := NewAnalysisRefresher(testConfig(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAnalysisRefresher_Window(t *testing.T) {
	r, err := NewAnalysisRefresher(testConfig(), runnerFunc(func(context.Context, ledger.DateRange) error { return nil }), nil, WithClock(fixedClock()))
	require.NoError(t, err)

	w := r.Window()
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), w.End)
	assert.Equal(t, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, 90, w.Days())
}

func TestAnalysisRefresher_RunNow(t *testing.T) {
	t.Run("records a successful job", func(t *testing.T) {
		var got ledger.DateRange
		r, err := NewAnalysisRefresher(testConfig(), runnerFunc(func(_ context.Context, w ledger.DateRange) error {
			got = w
			return nil
		}), nil, WithClock(fixedClock()))
		require.NoError(t, err)
		assert.Nil(t, r.LastJob())

		job, err := r.RunNow(context.Background())
		require.NoError(t, err)
		assert.Equal(t, JobStatusSuccess, job.Status)
		assert.Equal(t, r.Window(), got)
		assert.Equal(t, JobStatusSuccess, r.LastJob().Status)
	})

	t.Run("records a failed job and logs it", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		r, err := NewAnalysisRefresher(testConfig(), runnerFunc(func(context.Context, ledger.DateRange) error {
			return errors.New("ledger offline")
		}), zap.New(core))
		require.NoError(t, err)

		job, err := r.RunNow(context.Background())
		require.Error(t, err)
		assert.Equal(t, JobStatusFailed, job.Status)
		assert.Equal(t, "ledger offline", job.Error)
		assert.Equal(t, 1, logs.FilterMessage("Analysis refresh failed").Len())
	})

	t.Run("times out slow runs", func(t *testing.T) {
		cfg := testConfig()
		cfg.JobTimeout = 20 * time.Millisecond
		r, err := NewAnalysisRefresher(cfg, runnerFunc(func(ctx context.Context, _ ledger.DateRange) error {
			<-ctx.Done()
			return nil
		}), nil)
		require.NoError(t, err)

		job, err := r.RunNow(context.Background())
		assert.ErrorIs(t, err, ErrRefreshTimeout)
		assert.Equal(t, JobStatusFailed, job.Status)
	})

	t.Run("rejects overlapping runs", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		r, err := NewAnalysisRefresher(testConfig(), runnerFunc(func(context.Context, ledger.DateRange) error {
			close(started)
			<-release
			return nil
		}), nil)
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.RunNow(context.Background())
		}()
		<-started

		_, err = r.RunNow(context.Background())
		assert.ErrorIs(t, err, ErrRunInProgress)

		close(release)
		wg.Wait()
	})
}

func TestAnalysisRefresher_StartStop(t *testing.T) {
	var runs atomic.Int32
	cfg := testConfig()
	cfg.Interval = 10 * time.Millisecond
	r, err := NewAnalysisRefresher(cfg, runnerFunc(func(context.Context, ledger.DateRange) error {
		runs.Add(1)
		return nil
	}), nil)
	require.NoError(t, err)

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Start(context.Background()))
	assert.True(t, r.IsRunning())

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
	assert.False(t, r.IsRunning())
	assert.NoError(t, r.Stop(ctx))
}
