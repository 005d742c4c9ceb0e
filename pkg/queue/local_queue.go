package queue

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// LocalQueue is a bounded in-process queue for single-node deployments and
// tests. Same delivery contract as RedisQueue: one delivery per task, no
// redelivery on handler failure.
type LocalQueue struct {
	tasks chan Task
}

// NewLocalQueue creates a queue holding at most capacity pending tasks.
func NewLocalQueue(capacity int) *LocalQueue {
	if capacity <= 0 {
		capacity = 100
	}
	return &LocalQueue{tasks: make(chan Task, capacity)}
}

// Enqueue adds a task without blocking; a full buffer is ErrQueueFull.
func (q *LocalQueue) Enqueue(_ context.Context, task Task) error {
	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches concurrency workers draining the buffer until ctx is
// canceled.
func (q *LocalQueue) Start(ctx context.Context, concurrency int, handler Handler) {
	if concurrency <= 0 {
		concurrency = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case task := <-q.tasks:
					_ = handler(ctx, task)
				}
			}
		})
	}
	go func() { _ = g.Wait() }()
}
