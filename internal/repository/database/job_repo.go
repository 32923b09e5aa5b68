package database

import (
	"context"
	"time"

	"github.com/dom/blog-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *jobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *domain.Job) error {
	return conn(ctx, r.db).Create(job).Error
}

func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	var job domain.Job
	err := conn(ctx, r.db).First(&job, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrJobNotFound)
	}
	return &job, nil
}

// ClaimDue picks pending or failed jobs whose next attempt is due, plus running
// jobs whose lease has lapsed, and leases them to the caller.
func (r *jobRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*domain.Job, error) {
	var claimed []*domain.Job

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&domain.Job{}).
			Where(dueCondition(tx, now)).
			Order("next_attempt_at ASC").
			Order("created_at ASC").
			Limit(limit)
		if tx.Dialector.Name() == DriverPostgres {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var ids []uuid.UUID
		if err := query.Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		// Selected rows are locked (postgres) or the connection is exclusive (sqlite),
		// so every picked id is still due here.
		err := tx.Model(&domain.Job{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":       domain.JobStatusRunning,
				"locked_until": now.Add(lease),
				"updated_at":   now,
			}).Error
		if err != nil {
			return err
		}

		return tx.
			Where("id IN ?", ids).
			Order("next_attempt_at ASC").
			Order("created_at ASC").
			Find(&claimed).Error
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func dueCondition(tx *gorm.DB, now time.Time) *gorm.DB {
	return tx.Session(&gorm.Session{NewDB: true}).
		Where("status IN ? AND next_attempt_at <= ?", []domain.JobStatus{domain.JobStatusPending, domain.JobStatusFailed}, now).
		Or("status = ? AND locked_until <= ?", domain.JobStatusRunning, now)
}

func (r *jobRepository) MarkDone(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]any{
		"status":       domain.JobStatusDone,
		"locked_until": nil,
		"last_error":   "",
	})
}

func (r *jobRepository) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error {
	return r.update(ctx, id, map[string]any{
		"status":          domain.JobStatusFailed,
		"attempts":        attempts,
		"next_attempt_at": nextAttemptAt,
		"locked_until":    nil,
		"last_error":      lastError,
	})
}

func (r *jobRepository) MarkDead(ctx context.Context, id uuid.UUID, attempts int, lastError string) error {
	return r.update(ctx, id, map[string]any{
		"status":       domain.JobStatusDead,
		"attempts":     attempts,
		"locked_until": nil,
		"last_error":   lastError,
	})
}

func (r *jobRepository) update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	result := conn(ctx, r.db).Model(&domain.Job{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}
