package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dom/blog-api/internal/config"
	"github.com/dom/blog-api/internal/domain"
	"github.com/dom/blog-api/internal/repository"
	"github.com/dom/blog-api/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrSessionRevoked = errors.New("session revoked or expired")
)

const (
	msgEmailTaken         = "The email has already been taken."
	msgInvalidCredentials = "The provided credentials are incorrect."
)

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tx          repository.Transactor
	queue       TaskQueue
	cfg         *config.Config
	clock       func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, tx repository.Transactor, queue TaskQueue, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tx:          tx,
		queue:       queue,
		cfg:         cfg,
		clock:       time.Now,
	}
}

type RegisterInput struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8,eqfield=PasswordConfirmation"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates the account and queues the welcome email in one transaction,
// so a failed enqueue leaves no account behind. Rule failures come back as
// *validation.Errors.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)

	verrs := validation.Struct(input)
	if !verrs.Has("email") {
		_, err := s.userRepo.GetByEmail(ctx, input.Email)
		switch {
		case err == nil:
			verrs.Add("email", msgEmailTaken)
		case !errors.Is(err, domain.ErrUserNotFound):
			return nil, err
		}
	}
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
		if err := s.queue.Enqueue(ctx, NewWelcomeEmailTask(user.ID)); err != nil {
			return fmt.Errorf("queue welcome email for %s: %w", user.ID, err)
		}
		return nil
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil, validation.Single("email", msgEmailTaken)
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Login checks the credentials and mints a new session token. Unknown email and
// wrong password produce the same error on the email field.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if err := validation.Struct(input).Err(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, validation.Single("email", msgInvalidCredentials)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, validation.Single("email", msgInvalidCredentials)
	}

	now := s.clock().UTC()
	session := &domain.UserSession{
		ID:        uuid.New(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.TokenTTL()),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	token, err := s.signToken(session, now)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:      user,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *AuthService) signToken(session *domain.UserSession, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        session.ID.String(),
		Subject:   session.UserID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// Authenticate resolves a bearer token to the requester. The token must verify
// and its session must still exist.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.Requester, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad token id", ErrInvalidToken)
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("%w: session belongs to another user", ErrInvalidToken)
	}
	if session.Expired(s.clock()) {
		return nil, ErrSessionRevoked
	}

	return &domain.Requester{UserID: userID, SessionID: sessionID}, nil
}

// Logout revokes the session behind the requester's token and nothing else.
func (s *AuthService) Logout(ctx context.Context, requester domain.Requester) error {
	err := s.sessionRepo.Delete(ctx, requester.SessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return ErrSessionRevoked
	}
	return err
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// QueueWelcomeEmail re-sends the welcome email to an existing user.
func (s *AuthService) QueueWelcomeEmail(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(ctx, NewWelcomeEmailTask(user.ID)); err != nil {
		return nil, fmt.Errorf("queue welcome email for %s: %w", user.ID, err)
	}
	return user, nil
}

// PruneSessions removes sessions whose tokens have already expired.
func (s *AuthService) PruneSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx, s.clock().UTC())
}
