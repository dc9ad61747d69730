package flush

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFlusher counts Flush calls.
type countingFlusher struct {
	calls atomic.Int64
}

func (f *countingFlusher) Flush(ctx context.Context) error {
	f.calls.Add(1)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerFlushesPeriodically(t *testing.T) {
	t.Parallel()

	flusher := &countingFlusher{}
	s := NewScheduler(50*time.Millisecond, testLogger(), flusher)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return flusher.calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopPerformsFinalFlush(t *testing.T) {
	t.Parallel()

	first := &countingFlusher{}
	second := &countingFlusher{}
	s := NewScheduler(time.Hour, testLogger(), first, second)
	require.NoError(t, s.Start())

	// The interval never fires; the shutdown flush still must.
	s.Stop()
	assert.Equal(t, int64(1), first.calls.Load())
	assert.Equal(t, int64(1), second.calls.Load())
}
