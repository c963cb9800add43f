package sioqueue

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	config "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Config"
	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
)

func testQueue(cfg config.QueueConfig) *Queue {
	return New(cfg, logger.NewNopLogger())
}

func TestQueueExecutesTasks(t *testing.T) {
	queue := testQueue(config.QueueConfig{Workers: 2, BufferSize: 16, MaxAttempts: 1})
	queue.Start(context.Background())

	var executed int32
	for i := 0; i < 5; i++ {
		err := queue.Enqueue(TaskFunc{
			TaskName: fmt.Sprintf("task-%d", i),
			Fn: func(context.Context) error {
				atomic.AddInt32(&executed, 1)
				return nil
			},
		})
		assert.NoError(t, err)
	}
	queue.Stop()

	assert.Equal(t, int32(5), atomic.LoadInt32(&executed))
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	queue := testQueue(config.QueueConfig{Workers: 1, BufferSize: 4, MaxAttempts: 3, RetryDelay: time.Millisecond})
	queue.Start(context.Background())

	var attempts int32
	_ = queue.Enqueue(TaskFunc{
		TaskName: "flaky",
		Fn: func(context.Context) error {
			if atomic.AddInt32(&attempts, 1) < 3 {
				return fmt.Errorf("transient failure")
			}
			return nil
		},
	})
	queue.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueGivesUpAfterMaxAttempts(t *testing.T) {
	queue := testQueue(config.QueueConfig{Workers: 1, BufferSize: 4, MaxAttempts: 3, RetryDelay: time.Millisecond})
	queue.Start(context.Background())

	var attempts int32
	_ = queue.Enqueue(TaskFunc{
		TaskName: "doomed",
		Fn: func(context.Context) error {
			atomic.AddInt32(&attempts, 1)
			return fmt.Errorf("permanent failure")
		},
	})
	queue.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestEnqueueRejectsWhenFull(t *testing.T) {
	// no workers started, so the buffer never drains
	queue := testQueue(config.QueueConfig{Workers: 1, BufferSize: 1, MaxAttempts: 1})

	noop := TaskFunc{TaskName: "noop", Fn: func(context.Context) error { return nil }}

	assert.NoError(t, queue.Enqueue(noop))
	assert.ErrorIs(t, queue.Enqueue(noop), ErrQueueFull)
}

func TestStopDrainsBufferedTasks(t *testing.T) {
	queue := testQueue(config.QueueConfig{Workers: 1, BufferSize: 16, MaxAttempts: 1})

	var executed int32
	for i := 0; i < 3; i++ {
		_ = queue.Enqueue(TaskFunc{
			TaskName: "buffered",
			Fn: func(context.Context) error {
				atomic.AddInt32(&executed, 1)
				return nil
			},
		})
	}

	queue.Start(context.Background())
	queue.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&executed))
}
