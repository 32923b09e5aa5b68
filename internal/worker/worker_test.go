package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dom/blog-api/internal/domain"
	"github.com/dom/blog-api/internal/repository"
	"github.com/dom/blog-api/internal/repository/database"
	"github.com/dom/blog-api/internal/testutil"
	"github.com/dom/blog-api/internal/worker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setup(t *testing.T) (repository.JobRepository, *fakeClock) {
	t.Helper()
	testDB := testutil.NewTestDB(t)
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return database.NewJobRepository(testDB.DB), clock
}

func enqueue(t *testing.T, jobs repository.JobRepository, clock *fakeClock, kind string, maxAttempts int) *domain.Job {
	t.Helper()
	job := &domain.Job{
		ID:            uuid.New(),
		Kind:          kind,
		Payload:       datatypes.JSON(`{}`),
		Status:        domain.JobStatusPending,
		MaxAttempts:   maxAttempts,
		NextAttemptAt: clock.Now(),
	}
	require.NoError(t, jobs.Create(context.Background(), job))
	return job
}

func reload(t *testing.T, jobs repository.JobRepository, id uuid.UUID) *domain.Job {
	t.Helper()
	job, err := jobs.GetByID(context.Background(), id)
	require.NoError(t, err)
	return job
}

func TestWorker_RunOnce(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name         string
		kind         string
		maxAttempts  int
		handler      worker.HandlerFunc
		wantStatus   domain.JobStatus
		wantAttempts int
		wantError    string
	}{
		{
			name:        "success marks done",
			kind:        "ok",
			maxAttempts: 3,
			handler: func(ctx context.Context, job *domain.Job) error {
				return nil
			},
			wantStatus: domain.JobStatusDone,
		},
		{
			name:        "failure schedules retry",
			kind:        "flaky",
			maxAttempts: 3,
			handler: func(ctx context.Context, job *domain.Job) error {
				return errBoom
			},
			wantStatus:   domain.JobStatusFailed,
			wantAttempts: 1,
			wantError:    "boom",
		},
		{
			name:        "permanent failure is dead",
			kind:        "broken",
			maxAttempts: 3,
			handler: func(ctx context.Context, job *domain.Job) error {
				return worker.Permanent(errBoom)
			},
			wantStatus:   domain.JobStatusDead,
			wantAttempts: 1,
			wantError:    "boom",
		},
		{
			name:        "last attempt is dead",
			kind:        "once",
			maxAttempts: 1,
			handler: func(ctx context.Context, job *domain.Job) error {
				return errBoom
			},
			wantStatus:   domain.JobStatusDead,
			wantAttempts: 1,
			wantError:    "boom",
		},
		{
			name:        "panic is a failure",
			kind:        "panics",
			maxAttempts: 3,
			handler: func(ctx context.Context, job *domain.Job) error {
				panic("kaboom")
			},
			wantStatus:   domain.JobStatusFailed,
			wantAttempts: 1,
			wantError:    "panic: kaboom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, clock := setup(t)
			job := enqueue(t, jobs, clock, tt.kind, tt.maxAttempts)

			w := worker.New(jobs, map[string]worker.Handler{tt.kind: tt.handler}, worker.Config{}, clock.Now)

			n, err := w.RunOnce(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			got := reload(t, jobs, job.ID)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantAttempts, got.Attempts)
			assert.Equal(t, tt.wantError, got.LastError)
			assert.Nil(t, got.LockedUntil)
		})
	}
}

func TestWorker_NoHandlerIsDead(t *testing.T) {
	jobs, clock := setup(t)
	job := enqueue(t, jobs, clock, "unknown", 3)

	w := worker.New(jobs, map[string]worker.Handler{}, worker.Config{}, clock.Now)
	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	got := reload(t, jobs, job.ID)
	assert.Equal(t, domain.JobStatusDead, got.Status)
	assert.Contains(t, got.LastError, "no handler")
}

func TestWorker_RetriesWithBackoffUntilDead(t *testing.T) {
	jobs, clock := setup(t)
	job := enqueue(t, jobs, clock, "flaky", 3)

	calls := 0
	w := worker.New(jobs, map[string]worker.Handler{
		"flaky": worker.HandlerFunc(func(ctx context.Context, job *domain.Job) error {
			calls++
			return errors.New("still failing")
		}),
	}, worker.Config{}, clock.Now)

	ctx := context.Background()

	n, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	got := reload(t, jobs, job.ID)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	assert.True(t, got.NextAttemptAt.Equal(clock.Now().Add(time.Second)))

	// Not due yet.
	n, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	clock.Advance(time.Second)
	n, err = w.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	got = reload(t, jobs, job.ID)
	assert.Equal(t, 2, got.Attempts)
	assert.True(t, got.NextAttemptAt.Equal(clock.Now().Add(2*time.Second)))

	clock.Advance(2 * time.Second)
	n, err = w.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	got = reload(t, jobs, job.ID)
	assert.Equal(t, domain.JobStatusDead, got.Status)
	assert.Equal(t, 3, got.Attempts)

	clock.Advance(time.Hour)
	n, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 3, calls)
}

func TestWorker_ReclaimsExpiredLease(t *testing.T) {
	jobs, clock := setup(t)
	job := enqueue(t, jobs, clock, "ok", 3)
	ctx := context.Background()

	// A worker that claimed the job and died without settling it.
	claimed, err := jobs.ClaimDue(ctx, clock.Now(), time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	handled := 0
	w := worker.New(jobs, map[string]worker.Handler{
		"ok": worker.HandlerFunc(func(ctx context.Context, job *domain.Job) error {
			handled++
			return nil
		}),
	}, worker.Config{LeaseTTL: time.Minute}, clock.Now)

	n, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "lease still held")

	clock.Advance(time.Minute)
	n, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, handled)
	assert.Equal(t, domain.JobStatusDone, reload(t, jobs, job.ID).Status)
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	jobs, clock := setup(t)
	job := enqueue(t, jobs, clock, "ok", 3)

	handled := make(chan struct{}, 1)
	w := worker.New(jobs, map[string]worker.Handler{
		"ok": worker.HandlerFunc(func(ctx context.Context, job *domain.Job) error {
			handled <- struct{}{}
			return nil
		}),
	}, worker.Config{PollInterval: 10 * time.Millisecond}, clock.Now)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not handled")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	assert.Eventually(t, func() bool {
		return reload(t, jobs, job.ID).Status == domain.JobStatusDone
	}, time.Second, 10*time.Millisecond)
}

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{8, 128 * time.Second},
		{9, 256 * time.Second},
		{10, 5 * time.Minute},
		{64, 5 * time.Minute},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, worker.RetryBackoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestPermanent(t *testing.T) {
	base := errors.New("bad payload")

	assert.Nil(t, worker.Permanent(nil))
	assert.True(t, worker.IsPermanent(worker.Permanent(base)))
	assert.ErrorIs(t, worker.Permanent(base), base)
	assert.False(t, worker.IsPermanent(base))
}
