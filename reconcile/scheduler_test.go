package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReconciler struct {
	calls int32
	fixed []int64
	idle  int64
	err   error
}

func (s *stubReconciler) Reconcile(context.Context) ([]int64, int64, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.fixed, s.idle, s.err
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRunOnce(t *testing.T) {
	rec := &stubReconciler{fixed: []int64{3, 7}, idle: 1}
	s := NewScheduler(rec, "*/15 * * * *", quietLogger())

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 7}, res.Fixed)
	assert.EqualValues(t, 1, res.Idle)
	assert.EqualValues(t, 1, atomic.LoadInt32(&rec.calls))
}

func TestRunOnce_PropagatesError(t *testing.T) {
	boom := errors.New("db down")
	s := NewScheduler(&stubReconciler{err: boom}, "*/15 * * * *", quietLogger())

	_, err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&stubReconciler{}, "*/15 * * * *", quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(ctx), "second start is a no-op")

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewScheduler(&stubReconciler{}, "every now and then", quietLogger())
	err := s.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, s.IsRunning())
}
