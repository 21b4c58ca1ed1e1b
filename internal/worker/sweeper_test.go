package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSweep struct {
	calls chan struct{}
	err   error
}

func (c *countingSweep) SweepExpired(context.Context) (int, error) {
	c.calls <- struct{}{}
	return 0, c.err
}

func waitCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep was not called")
	}
}

func TestSweeper_RunsAtStartAndOnEveryTick(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	sweep := &countingSweep{calls: make(chan struct{}, 4)}
	sweeper := NewSweeper(sweep, fake, time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	require.NoError(t, fake.BlockUntilContext(ctx, 1))
	waitCall(t, sweep.calls)

	fake.Advance(30 * time.Second)
	select {
	case <-sweep.calls:
		t.Fatal("sweep ran before the interval elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	fake.Advance(30 * time.Second)
	waitCall(t, sweep.calls)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeper_KeepsRunningAfterFailure(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	sweep := &countingSweep{calls: make(chan struct{}, 4), err: errors.New("db down")}
	sweeper := NewSweeper(sweep, fake, time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sweeper.Run(ctx) }()

	require.NoError(t, fake.BlockUntilContext(ctx, 1))
	waitCall(t, sweep.calls)

	fake.Advance(time.Minute)
	waitCall(t, sweep.calls)
	assert.Len(t, sweep.calls, 0)
}
