package jobmgr

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAfterRuns(t *testing.T) {
	m := NewManager(nil)
	done := make(chan struct{})

	require.NoError(t, m.StartAfter("a", 10*time.Millisecond, func(context.Context) error {
		close(done)
		return nil
	}))
	assert.True(t, m.Has("a"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
	assert.Eventually(t, func() bool { return !m.Has("a") }, time.Second, 5*time.Millisecond)
}

func TestStopBeforeDelayPreventsRun(t *testing.T) {
	m := NewManager(nil)
	var ran atomic.Bool

	require.NoError(t, m.StartAfter("a", 50*time.Millisecond, func(context.Context) error {
		ran.Store(true)
		return nil
	}))
	require.NoError(t, m.Stop("a"))

	time.Sleep(100 * time.Millisecond)
	assert.False(t, ran.Load())
	assert.ErrorIs(t, m.Stop("a"), ErrJobNotRunning)
}

func TestDuplicateNameRejected(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.StartAfter("a", time.Hour, func(context.Context) error { return nil }))
	defer m.Stop("a")

	assert.ErrorIs(t, m.StartAsync("a", func(context.Context) error { return nil }), ErrJobExists)
}

func TestReplacedJobSurvivesOldCompletion(t *testing.T) {
	m := NewManager(nil)
	release := make(chan struct{})
	finished := make(chan struct{})

	require.NoError(t, m.StartAsync("a", func(context.Context) error {
		<-release
		close(finished)
		return nil
	}))
	require.NoError(t, m.Stop("a"))
	require.NoError(t, m.StartAfter("a", time.Hour, func(context.Context) error { return nil }))

	close(release)
	<-finished
	time.Sleep(10 * time.Millisecond)
	assert.True(t, m.Has("a"))
	assert.NoError(t, m.Stop("a"))
}

func TestStopPrefixAndStatus(t *testing.T) {
	var msgs atomic.Int32
	m := NewManager(func(string) { msgs.Add(1) })
	noop := func(context.Context) error { return nil }

	require.NoError(t, m.StartAfter("idle:1", time.Hour, noop))
	require.NoError(t, m.StartAfter("idle:2", time.Hour, noop))
	require.NoError(t, m.StartAfter("status-delete:1:1", time.Hour, noop))

	assert.Equal(t, []string{"idle:1", "idle:2", "status-delete:1:1"}, m.List())
	assert.Equal(t, 2, m.StopPrefix("idle:"))
	assert.Equal(t, "Running jobs: status-delete:1:1", m.Status())
	assert.Equal(t, 1, m.StopPrefix(""))
	assert.Equal(t, "No jobs are running.", m.Status())
}
