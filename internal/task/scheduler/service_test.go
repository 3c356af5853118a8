package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "karyabbot/pkg/logx"
)

func TestNewValidates(t *testing.T) {
	t.Parallel()
	job := func(context.Context) {}

	_, err := New(Config{Schedule: "1h"}, nil, logx.Nop())
	assert.Error(t, err)
	_, err = New(Config{Schedule: "nope"}, job, logx.Nop())
	assert.Error(t, err)
	_, err = New(Config{Schedule: "1h", Timezone: "Nowhere/Place"}, job, logx.Nop())
	assert.Error(t, err)

	s, err := New(Config{Schedule: "0 9 * * *", Timezone: "Asia/Kabul"}, job, logx.Logger{})
	require.NoError(t, err)
	assert.Equal(t, SpecCron, s.Spec().Kind)
	assert.True(t, s.Next().IsZero(), "stopped service has no next run")
}

func TestServiceTriggersJob(t *testing.T) {
	t.Parallel()
	fired := make(chan struct{}, 4)
	s, err := New(Config{Schedule: "every:1s"}, func(ctx context.Context) {
		select {
		case fired <- struct{}{}:
		default:
		}
	}, logx.Nop())
	require.NoError(t, err)

	s.Start(context.Background())
	s.Start(context.Background()) // second Start is a no-op
	assert.False(t, s.Next().IsZero())

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not triggered")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop(ctx)
	s.Stop(ctx)
	assert.True(t, s.Next().IsZero())
}

func TestServiceSkipsOverlappingRuns(t *testing.T) {
	t.Parallel()
	var (
		inFlight atomic.Int32
		maxSeen  atomic.Int32
		calls    atomic.Int32
	)
	release := make(chan struct{})
	var buf syncBuffer
	s, err := New(Config{Schedule: "every:1s"}, func(ctx context.Context) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		if n > maxSeen.Load() {
			maxSeen.Store(n)
		}
		calls.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
	}, logx.NewWriter(&buf, "debug"))
	require.NoError(t, err)

	s.Start(context.Background())
	time.Sleep(3500 * time.Millisecond)
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop(ctx)

	assert.Equal(t, int32(1), calls.Load(), "ticks during a run are skipped")
	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Contains(t, buf.String(), "trigger skipped")
}

func TestServiceStopCancelsRunAtDeadline(t *testing.T) {
	t.Parallel()
	started := make(chan struct{})
	done := make(chan error, 1)
	s, err := New(Config{Schedule: "every:1s"}, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		done <- ctx.Err()
	}, logx.Nop())
	require.NoError(t, err)

	s.Start(context.Background())
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not triggered")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	s.Stop(ctx)

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight run was not cancelled")
	}
}

func TestServiceRecoversPanics(t *testing.T) {
	t.Parallel()
	var buf syncBuffer
	var calls atomic.Int32
	s, err := New(Config{Schedule: "every:1s"}, func(context.Context) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
	}, logx.NewWriter(&buf, "debug"))
	require.NoError(t, err)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop(ctx)

	assert.Contains(t, buf.String(), "cron panic")
	assert.Contains(t, buf.String(), "boom")
}

func TestKVFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := cronLogger{log: logx.NewWriter(&buf, "debug")}
	l.Info("wake", "now", "t0", "dangling")
	assert.Contains(t, buf.String(), `"message":"cron wake"`)
	assert.Contains(t, buf.String(), `"now":"t0"`)
	assert.Contains(t, buf.String(), `"dangling":null`)
	assert.Nil(t, kvFields(nil))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
