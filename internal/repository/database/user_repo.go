package database

import (
	"context"
	"errors"

	"github.com/dom/blog-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	err := conn(ctx, r.db).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := conn(ctx, r.db).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := conn(ctx, r.db).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &user, nil
}

// notFound maps gorm's missing-row error to the domain sentinel and passes
// everything else through.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
