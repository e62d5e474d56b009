package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"post_syncer/internal/domain"
)

type fakeSyncer struct {
	mu    sync.Mutex
	calls int
	err   error
	ran   chan struct{}
}

func newFakeSyncer(err error) *fakeSyncer {
	return &fakeSyncer{err: err, ran: make(chan struct{}, 16)}
}

func (f *fakeSyncer) Sync(ctx context.Context) (*domain.SyncResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	select {
	case f.ran <- struct{}{}:
	default:
	}

	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("sync context has no deadline")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.SyncResult{Log: []string{"ok"}, Stats: &domain.SyncStats{}}, nil
}

func (f *fakeSyncer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func waitForRun(t *testing.T, f *fakeSyncer) {
	t.Helper()
	select {
	case <-f.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for sync")
	}
}

func TestScheduler_RunsOnStartAndOnTick(t *testing.T) {
	syncer := newFakeSyncer(nil)
	sched := NewScheduler(syncer, Config{
		Interval:   20 * time.Millisecond,
		RunTimeout: time.Second,
		RunOnStart: true,
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	waitForRun(t, syncer)
	waitForRun(t, syncer)
	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, syncer.Calls(), 2)
}

func TestScheduler_SkipsStartRun(t *testing.T) {
	syncer := newFakeSyncer(nil)
	sched := NewScheduler(syncer, Config{
		Interval:   time.Hour,
		RunTimeout: time.Second,
		RunOnStart: false,
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := sched.Start(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, syncer.Calls())
}

func TestScheduler_SyncErrorKeepsRunning(t *testing.T) {
	syncer := newFakeSyncer(errors.New("db down"))
	sched := NewScheduler(syncer, Config{
		Interval:   10 * time.Millisecond,
		RunTimeout: time.Second,
		RunOnStart: true,
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	waitForRun(t, syncer)
	waitForRun(t, syncer)
	cancel()

	<-done
	assert.GreaterOrEqual(t, syncer.Calls(), 2)
}
