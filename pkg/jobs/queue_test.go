package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJob(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		done <- job
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "audit"}))

	select {
	case job := <-done:
		assert.Equal(t, "1", job.ID)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("retry", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "r"}))

	select {
	case <-done:
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	case <-time.After(time.Second):
		t.Fatal("job did not succeed after retries")
	}
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job{ID: "x"}))
}

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	var processed int32
	release := make(chan struct{})
	q := NewQueue("drain", func(_ context.Context, job Job) error {
		if job.ID == "block" {
			<-release
		}
		atomic.AddInt32(&processed, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "block"}))
	require.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.NoError(t, q.Enqueue(Job{ID: "b"}))

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	q.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&processed))
	require.Error(t, q.Enqueue(Job{ID: "late"}))
}
