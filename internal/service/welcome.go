package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dom/blog-api/internal/domain"
	"github.com/dom/blog-api/internal/mail"
	"github.com/dom/blog-api/internal/repository"
	"github.com/dom/blog-api/internal/worker"
	"github.com/google/uuid"
)

const TaskWelcomeEmail = "welcome_email"

// Task is a unit of background work handed to a TaskQueue.
type Task struct {
	Kind    string
	Payload any
}

// TaskQueue accepts tasks for out-of-band processing. Enqueue returns once the
// task is durably accepted; it does not wait for the task to run.
type TaskQueue interface {
	Enqueue(ctx context.Context, task Task) error
}

type WelcomeEmailPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

func NewWelcomeEmailTask(userID uuid.UUID) Task {
	return Task{
		Kind:    TaskWelcomeEmail,
		Payload: WelcomeEmailPayload{UserID: userID},
	}
}

// WelcomeEmailHandler sends the welcome email for a queued welcome_email job.
type WelcomeEmailHandler struct {
	userRepo repository.UserRepository
	mailer   mail.Mailer
}

func NewWelcomeEmailHandler(userRepo repository.UserRepository, mailer mail.Mailer) *WelcomeEmailHandler {
	return &WelcomeEmailHandler{userRepo: userRepo, mailer: mailer}
}

func (h *WelcomeEmailHandler) Handle(ctx context.Context, job *domain.Job) error {
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return worker.Permanent(fmt.Errorf("decode welcome email payload: %w", err))
	}
	if payload.UserID == uuid.Nil {
		return worker.Permanent(errors.New("welcome email payload has no user id"))
	}

	user, err := h.userRepo.GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return worker.Permanent(err)
		}
		return err
	}

	return h.mailer.SendWelcome(ctx, user)
}
