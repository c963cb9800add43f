package sioqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	config "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Config"
	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
)

// Task is one unit of asynchronous work. Execute returning an error means the
// attempt failed and the queue may retry it.
type Task interface {
	Name() string
	Execute(ctx context.Context) error
}

// TaskFunc adapts a function to the Task interface
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

func (t TaskFunc) Name() string                      { return t.TaskName }
func (t TaskFunc) Execute(ctx context.Context) error { return t.Fn(ctx) }

// ErrQueueFull is returned when the task buffer has no room
var ErrQueueFull = fmt.Errorf("task queue is full")

// Queue runs tasks on a fixed worker pool with bounded retry. This is the
// only asynchronous boundary of the pipeline: routing and evaluation stay
// synchronous, side effects land here.
type Queue struct {
	cfg    config.QueueConfig
	taskCh chan Task
	wg     sync.WaitGroup
	logger *logger.Logger

	stopOnce sync.Once
}

func New(cfg config.QueueConfig, log *logger.Logger) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	return &Queue{
		cfg:    cfg,
		taskCh: make(chan Task, cfg.BufferSize),
		logger: log.WithComponent("queue"),
	}
}

// Start launches the worker pool
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.worker(ctx)
		}()
	}
}

// Stop closes the queue and waits for in-flight tasks to finish
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.taskCh)
	})
	q.wg.Wait()
}

// Enqueue hands a task to the worker pool without blocking
func (q *Queue) Enqueue(task Task) error {
	select {
	case q.taskCh <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *Queue) worker(ctx context.Context) {
	for task := range q.taskCh {
		q.runWithRetry(ctx, task)
	}
}

// runWithRetry executes a task with exponential backoff between attempts
func (q *Queue) runWithRetry(ctx context.Context, task Task) {
	var lastErr error

	for attempt := 1; attempt <= q.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := q.cfg.RetryDelay * time.Duration(1<<(attempt-2))
			select {
			case <-ctx.Done():
				q.logger.Logger.Warn().Str("task", task.Name()).Msg("Task abandoned during shutdown")
				return
			case <-time.After(delay):
			}
		}

		lastErr = task.Execute(ctx)
		if lastErr == nil {
			return
		}

		q.logger.Logger.Warn().
			Err(lastErr).
			Str("task", task.Name()).
			Int("attempt", attempt).
			Int("max_attempts", q.cfg.MaxAttempts).
			Msg("Task attempt failed")
	}

	q.logger.Logger.Error().Err(lastErr).Str("task", task.Name()).Msg("Task failed after all attempts")
}
