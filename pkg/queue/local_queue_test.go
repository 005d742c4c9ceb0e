package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLocalQueueDeliversTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewLocalQueue(10)
	var mu sync.Mutex
	seen := make(map[string]int)
	done := make(chan struct{}, 3)

	q.Start(ctx, 2, func(_ context.Context, task Task) error {
		mu.Lock()
		seen[task.JobID]++
		mu.Unlock()
		done <- struct{}{}
		return nil
	})

	for i := 0; i < 3; i++ {
		if err := q.Enqueue(ctx, Task{JobID: fmt.Sprintf("job-%d", i)}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for deliveries")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("saw %d distinct tasks, want 3", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("task %s delivered %d times", id, n)
		}
	}
}

func TestLocalQueueFailedTaskNotRedelivered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewLocalQueue(10)
	calls := make(chan string, 10)
	q.Start(ctx, 1, func(_ context.Context, task Task) error {
		calls <- task.JobID
		return errors.New("handler failed")
	})

	if err := q.Enqueue(ctx, Task{JobID: "job-1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("task never delivered")
	}
	select {
	case id := <-calls:
		t.Fatalf("task %s redelivered after failure", id)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLocalQueueFull(t *testing.T) {
	q := NewLocalQueue(2)
	ctx := context.Background()
	if err := q.Enqueue(ctx, Task{JobID: "a"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, Task{JobID: "b"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, Task{JobID: "c"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
}
