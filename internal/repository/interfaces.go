package repository

import (
	"context"
	"time"

	"github.com/dom/blog-api/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UserSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Paginate returns the page-th slice (1-based) in created_at, id order plus the total count.
	Paginate(ctx context.Context, page, perPage int) ([]*domain.Post, int64, error)
}

type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	// ClaimDue marks up to limit due jobs as running until now+lease and returns them.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*domain.Job, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkRetry(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error
	MarkDead(ctx context.Context, id uuid.UUID, attempts int, lastError string) error
}

// Transactor runs fn atomically. Repository calls made with the ctx handed to
// fn take part in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Repositories struct {
	User    UserRepository
	Session SessionRepository
	Post    PostRepository
	Job     JobRepository
	Tx      Transactor
}
