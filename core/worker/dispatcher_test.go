package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcher_RunsJobs(t *testing.T) {
	d := NewDispatcher(Config{Workers: 3, QueueSize: 10}, zap.NewNop())

	var count int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, d.Submit(Job{Name: "inc", Run: func(context.Context) error {
			defer wg.Done()
			atomic.AddInt32(&count, 1)
			return nil
		}}))
	}
	wg.Wait()

	assert.Equal(t, int32(10), atomic.LoadInt32(&count))
	require.NoError(t, d.Stop(context.Background()))
}

func TestDispatcher_QueueFull(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1, QueueSize: 1}, zap.NewNop())

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, d.Submit(Job{Name: "block", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started

	// Worker is busy; one slot in the queue, then full.
	require.NoError(t, d.Submit(Job{Name: "queued", Run: func(context.Context) error { return nil }}))
	err := d.Submit(Job{Name: "overflow", Run: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	require.NoError(t, d.Stop(context.Background()))
}

func TestDispatcher_FailuresAndPanicsDoNotKillWorkers(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1, QueueSize: 4}, zap.NewNop())

	done := make(chan struct{})
	require.NoError(t, d.Submit(Job{Name: "fail", Run: func(context.Context) error { return errors.New("boom") }}))
	require.NoError(t, d.Submit(Job{Name: "panic", Run: func(context.Context) error { panic("boom") }}))
	require.NoError(t, d.Submit(Job{Name: "ok", Run: func(context.Context) error {
		close(done)
		return nil
	}}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive failing jobs")
	}
	require.NoError(t, d.Stop(context.Background()))
}

func TestDispatcher_SubmitAfterStop(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1, QueueSize: 1}, zap.NewNop())
	require.NoError(t, d.Stop(context.Background()))
	require.NoError(t, d.Stop(context.Background()))

	err := d.Submit(Job{Name: "late", Run: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestDispatcher_StopTimeoutCancelsJobs(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1, QueueSize: 1}, zap.NewNop())

	started := make(chan struct{})
	require.NoError(t, d.Submit(Job{Name: "slow", Run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Stop(ctx), context.DeadlineExceeded)
}
