package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var processed atomic.Int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if processed.Add(1) == 3 {
			close(done)
		}
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 8})
	q.Start()
	defer q.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "noop"}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs were not processed")
	}
	require.Equal(t, int32(3), processed.Load())
}

func TestQueueRetriesUntilDrop(t *testing.T) {
	var attempts atomic.Int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if attempts.Add(1) == 3 {
			close(done)
		}
		return context.DeadlineExceeded
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start()
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job", Type: "flaky"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried to exhaustion")
	}
}

func TestQueueEnqueueRejectsWhenFull(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	// Not started, so the single buffer slot fills and stays full.
	require.NoError(t, q.Enqueue(Job{ID: "first"}))
	err := q.Enqueue(Job{ID: "second"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "buffer full")
}

// Producers keep submitting while the queue shuts down. Enqueue must start
// returning an error once Stop runs, and must never panic.
func TestQueueEnqueueSafeDuringStop(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		return nil
	}, QueueConfig{Workers: 4, BufferSize: 16})
	q.Start()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = q.Enqueue(Job{ID: "job", Type: "noop"})
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	q.Stop()
	time.Sleep(10 * time.Millisecond)
	close(stop)
	wg.Wait()

	err := q.Enqueue(Job{ID: "late"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "stopped")
}

func TestQueueStopIsIdempotent(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		return nil
	}, QueueConfig{Workers: 2})
	q.Start()
	q.Stop()
	q.Stop()
}
