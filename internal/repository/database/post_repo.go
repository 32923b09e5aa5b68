package database

import (
	"context"

	"github.com/dom/blog-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *postRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	return conn(ctx, r.db).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	var post domain.Post
	err := conn(ctx, r.db).First(&post, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrPostNotFound)
	}
	return &post, nil
}

// Update writes title and content only; the owner column is never touched.
func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	result := conn(ctx, r.db).
		Model(post).
		Select("Title", "Content", "UpdatedAt").
		Updates(post)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&domain.Post{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *postRepository) Paginate(ctx context.Context, page, perPage int) ([]*domain.Post, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := conn(ctx, r.db).Model(&domain.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	posts := make([]*domain.Post, 0, perPage)
	// Nothing lies past the last page, and a huge page would overflow the offset.
	lastPage := (total + int64(perPage) - 1) / int64(perPage)
	if int64(page-1) >= lastPage {
		return posts, total, nil
	}

	err := conn(ctx, r.db).
		Order("created_at ASC").
		Order("id ASC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}
