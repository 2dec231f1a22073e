package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFirstCycleRunsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var cycles []int

	err := Every(ctx, time.Hour, zaptest.NewLogger(t), func(_ context.Context, cycle int) error {
		cycles = append(cycles, cycle)
		cancel()
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{1}, cycles)
}

func TestRepeatsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var n atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- Every(ctx, time.Second, zaptest.NewLogger(t), func(_ context.Context, cycle int) error {
			if n.Add(1) >= 2 {
				cancel()
			}
			return errors.New("portal down")
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("schedule did not stop")
	}
	require.GreaterOrEqual(t, n.Load(), int32(2))
}

func TestCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	require.NoError(t, Every(ctx, time.Minute, nil, func(context.Context, int) error {
		called = true
		return nil
	}))
	require.False(t, called)
}

func TestRejectsBadInterval(t *testing.T) {
	require.Error(t, Every(context.Background(), 0, nil, func(context.Context, int) error { return nil }))
}
