package scheduler

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/myrjola/moriarty/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func TestScheduler_startIsIdempotent(t *testing.T) {
	t.Parallel()
	s := New(testhelpers.NewLogger(io.Discard))
	t.Cleanup(s.Shutdown)

	var starts atomic.Int32
	loop := func(ctx context.Context) {
		starts.Add(1)
		<-ctx.Done()
	}

	s.Start("session-1", loop)
	s.Start("session-1", loop)
	s.Start("session-1", loop)

	require.Eventually(t, func() bool { return starts.Load() == 1 }, time.Second, 10*time.Millisecond)
	require.True(t, s.Running("session-1"))

	s.Stop("session-1")
	require.Eventually(t, func() bool { return !s.Running("session-1") }, time.Second, 10*time.Millisecond)

	// The session can be started again once the previous loop has exited.
	s.Start("session-1", loop)
	require.Eventually(t, func() bool { return starts.Load() == 2 }, time.Second, 10*time.Millisecond)
}

func TestScheduler_loopExitUnregisters(t *testing.T) {
	t.Parallel()
	s := New(testhelpers.NewLogger(io.Discard))
	t.Cleanup(s.Shutdown)

	done := make(chan struct{})
	s.Start("session-2", func(context.Context) {
		close(done)
	})

	<-done
	require.Eventually(t, func() bool { return !s.Running("session-2") }, time.Second, 10*time.Millisecond)
}

func TestScheduler_stopUnknownSessionIsNoop(t *testing.T) {
	t.Parallel()
	s := New(testhelpers.NewLogger(io.Discard))
	s.Stop("never-started")
}

func TestScheduler_shutdownWaitsForLoops(t *testing.T) {
	t.Parallel()
	s := New(testhelpers.NewLogger(io.Discard))

	var finished atomic.Int32
	for _, id := range []string{"a", "b", "c"} {
		s.Start(id, func(ctx context.Context) {
			<-ctx.Done()
			finished.Add(1)
		})
	}

	s.Shutdown()
	require.Equal(t, int32(3), finished.Load())
}

func TestSleep(t *testing.T) {
	t.Parallel()

	require.True(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.False(t, Sleep(ctx, time.Hour))
}
