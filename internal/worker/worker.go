package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dom/blog-api/internal/domain"
	"github.com/dom/blog-api/internal/repository"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultLeaseTTL     = time.Minute
	defaultBatchSize    = 10
	maxRetryDelay       = 5 * time.Minute
)

// Handler processes one job kind. Returning an error schedules a retry unless
// the error is Permanent or the job is out of attempts.
type Handler interface {
	Handle(ctx context.Context, job *domain.Job) error
}

type HandlerFunc func(ctx context.Context, job *domain.Job) error

func (f HandlerFunc) Handle(ctx context.Context, job *domain.Job) error {
	return f(ctx, job)
}

// Config controls the polling loop.
type Config struct {
	PollInterval time.Duration
	LeaseTTL     time.Duration
	BatchSize    int
}

func (c Config) normalized() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = defaultLeaseTTL
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	return c
}

type Worker struct {
	jobs     repository.JobRepository
	handlers map[string]Handler
	cfg      Config
	clock    func() time.Time
}

func New(jobs repository.JobRepository, handlers map[string]Handler, cfg Config, clock func() time.Time) *Worker {
	if clock == nil {
		clock = time.Now
	}
	return &Worker{
		jobs:     jobs,
		handlers: handlers,
		cfg:      cfg.normalized(),
		clock:    clock,
	}
}

// Run polls for due jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	log.Printf("INFO [worker.Run] polling every %s", w.cfg.PollInterval)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			log.Printf("ERROR [worker.Run] poll failed: %v", err)
		}

		select {
		case <-ctx.Done():
			log.Printf("INFO [worker.Run] stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce claims one batch of due jobs and processes it, returning how many
// jobs were handled.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	jobs, err := w.jobs.ClaimDue(ctx, w.now(), w.cfg.LeaseTTL, w.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("claim due jobs: %w", err)
	}

	for i, job := range jobs {
		if err := w.process(ctx, job); err != nil {
			return i, fmt.Errorf("settle job %s: %w", job.ID, err)
		}
	}
	return len(jobs), nil
}

func (w *Worker) process(ctx context.Context, job *domain.Job) error {
	handler, ok := w.handlers[job.Kind]
	if !ok {
		log.Printf("ERROR [worker.process] no handler for job %s kind %q", job.ID, job.Kind)
		return w.jobs.MarkDead(ctx, job.ID, job.Attempts, fmt.Sprintf("no handler for kind %q", job.Kind))
	}

	handleErr := safeHandle(ctx, handler, job)
	if handleErr == nil {
		return w.jobs.MarkDone(ctx, job.ID)
	}

	attempts := job.Attempts + 1
	if IsPermanent(handleErr) || attempts >= job.MaxAttempts {
		log.Printf("ERROR [worker.process] job %s (%s) dead after %d attempts: %v", job.ID, job.Kind, attempts, handleErr)
		return w.jobs.MarkDead(ctx, job.ID, attempts, handleErr.Error())
	}

	next := w.now().Add(RetryBackoff(attempts))
	log.Printf("WARN [worker.process] job %s (%s) attempt %d failed, retrying at %s: %v",
		job.ID, job.Kind, attempts, next.Format(time.RFC3339), handleErr)
	return w.jobs.MarkRetry(ctx, job.ID, attempts, next, handleErr.Error())
}

func safeHandle(ctx context.Context, handler Handler, job *domain.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprint("panic: ", r))
		}
	}()
	return handler.Handle(ctx, job)
}

func (w *Worker) now() time.Time {
	return w.clock().UTC()
}

// RetryBackoff doubles from one second per attempt, capped at five minutes.
func RetryBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	if attempt > 10 {
		return maxRetryDelay
	}
	backoff := time.Second << (attempt - 1)
	if backoff > maxRetryDelay {
		return maxRetryDelay
	}
	return backoff
}
