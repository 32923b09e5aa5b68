package service

import (
	"github.com/dom/blog-api/internal/config"
	"github.com/dom/blog-api/internal/repository"
)

type Services struct {
	Auth *AuthService
	Post *PostService
}

func NewServices(repos *repository.Repositories, queue TaskQueue, publisher PostPublisher, cfg *config.Config) *Services {
	return &Services{
		Auth: NewAuthService(repos.User, repos.Session, repos.Tx, queue, cfg),
		Post: NewPostService(repos.Post, publisher),
	}
}
