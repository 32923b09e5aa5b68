package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	User      *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_posts_created_at_id,priority:1"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// OwnedBy reports whether userID is the post's owner. There is no override.
func (p *Post) OwnedBy(userID uuid.UUID) bool {
	return p.UserID == userID
}

// PostPage is one page of posts in list order.
type PostPage struct {
	Posts   []*Post
	Page    int
	PerPage int
	Total   int64
}

// LastPage is at least 1 even when there are no posts.
func (p *PostPage) LastPage() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

type PostEventType string

const (
	PostCreated PostEventType = "post.created"
	PostUpdated PostEventType = "post.updated"
	PostDeleted PostEventType = "post.deleted"
)

// PostEvent describes a committed change to a post.
type PostEvent struct {
	Type PostEventType
	Post *Post
}
