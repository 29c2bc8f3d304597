package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFlusher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *countingFlusher) Flush(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err == nil, f.err
}

func (f *countingFlusher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	f := &countingFlusher{}
	s := NewScheduler(f, "@every 1s", testLogger())
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return f.count() >= 1 }, 3*time.Second, 50*time.Millisecond)

	before := f.count()
	s.Stop(context.Background())
	assert.GreaterOrEqual(t, f.count(), before+1, "stop flushes once more")
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(&countingFlusher{}, "not a schedule", testLogger())
	assert.Error(t, s.Start())
}

func TestScheduler_RunNow(t *testing.T) {
	f := &countingFlusher{err: errors.New("disk full")}
	s := NewScheduler(f, "@every 1h", testLogger())

	s.RunNow()
	s.RunNow()
	assert.Equal(t, 2, f.count(), "errors are logged, not fatal")
}
