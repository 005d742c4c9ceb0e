package queue

import (
	"context"
	"errors"
)

// ErrQueueFull is returned by Enqueue when the backlog is at capacity.
// Callers surface it as backpressure instead of blocking the submitter.
var ErrQueueFull = errors.New("queue full")

// Task is one unit of queued work. It carries only the job ID; the chat
// payload stays with the submitting process and is never serialized into the
// queue backend.
type Task struct {
	JobID string `json:"job_id"`
}

// Handler processes one task. A returned error marks the job failed; tasks
// are never redelivered on handler failure.
type Handler func(ctx context.Context, task Task) error

// Queue dispatches analysis tasks to workers.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	// Start launches concurrency consumer goroutines that run until ctx
	// is canceled.
	Start(ctx context.Context, concurrency int, handler Handler)
}
