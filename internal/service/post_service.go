package service

import (
	"context"
	"strings"

	"github.com/dom/blog-api/internal/domain"
	"github.com/dom/blog-api/internal/repository"
	"github.com/dom/blog-api/internal/validation"
	"github.com/google/uuid"
)

// PostsPerPage is the fixed page size of the post listing.
const PostsPerPage = 10

// PostPublisher receives post changes after they are committed.
type PostPublisher interface {
	Publish(event domain.PostEvent)
}

type PostService struct {
	postRepo  repository.PostRepository
	publisher PostPublisher
}

func NewPostService(postRepo repository.PostRepository, publisher PostPublisher) *PostService {
	return &PostService{
		postRepo:  postRepo,
		publisher: publisher,
	}
}

type CreatePostInput struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

// UpdatePostInput carries the fields a client supplied; nil means keep the
// stored value.
type UpdatePostInput struct {
	Title   *string
	Content *string
}

func (s *PostService) List(ctx context.Context, page int) (*domain.PostPage, error) {
	if page < 1 {
		page = 1
	}

	posts, total, err := s.postRepo.Paginate(ctx, page, PostsPerPage)
	if err != nil {
		return nil, err
	}

	return &domain.PostPage{
		Posts:   posts,
		Page:    page,
		PerPage: PostsPerPage,
		Total:   total,
	}, nil
}

func (s *PostService) Get(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// Create stores a post owned by the requester. Ownership never comes from input.
func (s *PostService) Create(ctx context.Context, requester domain.Requester, input CreatePostInput) (*domain.Post, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if err := validation.Struct(input).Err(); err != nil {
		return nil, err
	}

	post := &domain.Post{
		ID:      uuid.New(),
		Title:   input.Title,
		Content: input.Content,
		UserID:  requester.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.publish(domain.PostCreated, post)
	return post, nil
}

// Update applies the supplied fields. Missing posts are reported before
// ownership, and ownership before field rules.
func (s *PostService) Update(ctx context.Context, requester domain.Requester, id uuid.UUID, input UpdatePostInput) (*domain.Post, error) {
	post, err := s.ownedPost(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	merged := CreatePostInput{Title: post.Title, Content: post.Content}
	if input.Title != nil {
		merged.Title = strings.TrimSpace(*input.Title)
	}
	if input.Content != nil {
		merged.Content = strings.TrimSpace(*input.Content)
	}
	if err := validation.Struct(merged).Err(); err != nil {
		return nil, err
	}

	post.Title = merged.Title
	post.Content = merged.Content
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.publish(domain.PostUpdated, post)
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, requester domain.Requester, id uuid.UUID) error {
	post, err := s.ownedPost(ctx, requester, id)
	if err != nil {
		return err
	}

	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return err
	}

	s.publish(domain.PostDeleted, post)
	return nil
}

// EditablePost returns the post when requester may change it. A missing post is
// reported before ownership.
func (s *PostService) EditablePost(ctx context.Context, requester domain.Requester, id uuid.UUID) (*domain.Post, error) {
	return s.ownedPost(ctx, requester, id)
}

func (s *PostService) ownedPost(ctx context.Context, requester domain.Requester, id uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.OwnedBy(requester.UserID) {
		return nil, domain.ErrNotPostOwner
	}
	return post, nil
}

func (s *PostService) publish(eventType domain.PostEventType, post *domain.Post) {
	if s.publisher == nil {
		return
	}
	snapshot := *post
	s.publisher.Publish(domain.PostEvent{Type: eventType, Post: &snapshot})
}
