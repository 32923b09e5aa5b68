package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/dom/blog-api/internal/domain"
	"github.com/dom/blog-api/internal/repository"
	"github.com/dom/blog-api/internal/service"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DBQueue persists tasks as job rows that the worker claims later.
type DBQueue struct {
	jobs        repository.JobRepository
	maxAttempts int
	clock       func() time.Time
}

func NewDBQueue(jobs repository.JobRepository, maxAttempts int) *DBQueue {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &DBQueue{
		jobs:        jobs,
		maxAttempts: maxAttempts,
		clock:       time.Now,
	}
}

func (q *DBQueue) Enqueue(ctx context.Context, task service.Task) error {
	if task.Kind == "" {
		return fmt.Errorf("enqueue: task kind is required")
	}

	payload, err := json.Marshal(task.Payload)
	if err != nil {
		return fmt.Errorf("enqueue %s: encode payload: %w", task.Kind, err)
	}

	job := &domain.Job{
		ID:            uuid.New(),
		Kind:          task.Kind,
		Payload:       datatypes.JSON(payload),
		Status:        domain.JobStatusPending,
		MaxAttempts:   q.maxAttempts,
		NextAttemptAt: q.clock().UTC(),
	}
	if err := q.jobs.Create(ctx, job); err != nil {
		log.Printf("ERROR [queue.Enqueue] Failed to store %s job: %v", task.Kind, err)
		return fmt.Errorf("enqueue %s: %w", task.Kind, err)
	}

	log.Printf("INFO [queue.Enqueue] Queued %s job %s", task.Kind, job.ID)
	return nil
}
