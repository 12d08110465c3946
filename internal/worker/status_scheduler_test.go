package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls   atomic.Int32
	updated int
}

func (c *countingSweeper) Sweep(ctx context.Context) int {
	c.calls.Add(1)
	return c.updated
}

func TestStatusScheduler_SweepsImmediatelyOnStart(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewStatusScheduler(sweeper, time.Hour, nil)

	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	assert.Eventually(t, func() bool { return sweeper.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Running())
}

func TestStatusScheduler_Ticks(t *testing.T) {
	sweeper := &countingSweeper{updated: 1}
	s := NewStatusScheduler(sweeper, 10*time.Millisecond, nil)

	s.Start()
	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	after := sweeper.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, sweeper.calls.Load())
}

func TestStatusScheduler_StartStopIdempotent(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewStatusScheduler(sweeper, time.Hour, nil)

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.Running())

	s.Start()
	s.Start()
	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), sweeper.calls.Load())

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.Running())

	s.Start()
	assert.True(t, s.Running())
	assert.Eventually(t, func() bool { return sweeper.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestStatusScheduler_RunNow(t *testing.T) {
	sweeper := &countingSweeper{updated: 4}
	s := NewStatusScheduler(sweeper, 0, nil)

	assert.Equal(t, DefaultSweepInterval, s.interval)
	assert.Equal(t, 4, s.RunNow(context.Background()))
	assert.False(t, s.Running())
}
