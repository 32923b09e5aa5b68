package testutil

import (
	"context"
	"sync"

	"github.com/dom/blog-api/internal/service"
)

// MemoryQueue records enqueued tasks. Set Err to make Enqueue fail.
type MemoryQueue struct {
	mu    sync.Mutex
	tasks []service.Task
	Err   error
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, task service.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.Err != nil {
		return q.Err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

// Tasks returns a copy of everything enqueued so far.
func (q *MemoryQueue) Tasks() []service.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]service.Task(nil), q.tasks...)
}

// TasksOfKind returns the enqueued tasks with the given kind.
func (q *MemoryQueue) TasksOfKind(kind string) []service.Task {
	var out []service.Task
	for _, task := range q.Tasks() {
		if task.Kind == kind {
			out = append(out, task)
		}
	}
	return out
}

// FailWith makes later Enqueue calls return err.
func (q *MemoryQueue) FailWith(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Err = err
}

func (q *MemoryQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = nil
	q.Err = nil
}
