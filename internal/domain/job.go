package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusFailed  JobStatus = "failed"
	JobStatusDone    JobStatus = "done"
	JobStatusDead    JobStatus = "dead"
)

// Job is a queued background task. Failed jobs are retried until MaxAttempts,
// after which they are parked as dead.
type Job struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Kind          string         `json:"kind" gorm:"size:64;not null;index"`
	Payload       datatypes.JSON `json:"payload"`
	Status        JobStatus      `json:"status" gorm:"size:16;not null;index:idx_jobs_due,priority:1"`
	Attempts      int            `json:"attempts" gorm:"not null;default:0"`
	MaxAttempts   int            `json:"max_attempts" gorm:"not null"`
	NextAttemptAt time.Time      `json:"next_attempt_at" gorm:"not null;index:idx_jobs_due,priority:2"`
	LockedUntil   *time.Time     `json:"locked_until,omitempty"`
	LastError     string         `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
