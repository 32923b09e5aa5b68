package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dom/blog-api/internal/domain"
	"github.com/dom/blog-api/internal/repository/database"
	"github.com/dom/blog-api/internal/service"
	"github.com/dom/blog-api/internal/testutil"
	"github.com/dom/blog-api/internal/worker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type recordingMailer struct {
	sent []*domain.User
	err  error
}

func (m *recordingMailer) SendWelcome(ctx context.Context, user *domain.User) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, user)
	return nil
}

func welcomeJob(t *testing.T, payload any) *domain.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &domain.Job{ID: uuid.New(), Kind: service.TaskWelcomeEmail, Payload: datatypes.JSON(raw)}
}

func TestWelcomeEmailHandler(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := database.NewRepositories(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)

	tests := []struct {
		name          string
		job           func(t *testing.T) *domain.Job
		mailErr       error
		wantErr       bool
		wantPermanent bool
		wantSent      int
	}{
		{
			name:     "sends to the registered user",
			job:      func(t *testing.T) *domain.Job { return welcomeJob(t, service.WelcomeEmailPayload{UserID: user.ID}) },
			wantSent: 1,
		},
		{
			name:          "unknown user is permanent",
			job:           func(t *testing.T) *domain.Job { return welcomeJob(t, service.WelcomeEmailPayload{UserID: uuid.New()}) },
			wantErr:       true,
			wantPermanent: true,
		},
		{
			name: "malformed payload is permanent",
			job: func(t *testing.T) *domain.Job {
				return &domain.Job{Kind: service.TaskWelcomeEmail, Payload: datatypes.JSON(`"nope"`)}
			},
			wantErr:       true,
			wantPermanent: true,
		},
		{
			name:          "missing user id is permanent",
			job:           func(t *testing.T) *domain.Job { return welcomeJob(t, map[string]string{}) },
			wantErr:       true,
			wantPermanent: true,
		},
		{
			name:     "mailer failure is retryable",
			job:      func(t *testing.T) *domain.Job { return welcomeJob(t, service.WelcomeEmailPayload{UserID: user.ID}) },
			mailErr:  errors.New("smtp unavailable"),
			wantErr:  true,
			wantSent: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &recordingMailer{err: tt.mailErr}
			handler := service.NewWelcomeEmailHandler(repos.User, mailer)

			err := handler.Handle(ctx, tt.job(t))

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantPermanent, worker.IsPermanent(err))
			} else {
				require.NoError(t, err)
			}

			require.Len(t, mailer.sent, tt.wantSent)
			if tt.wantSent > 0 {
				assert.Equal(t, user.ID, mailer.sent[0].ID)
			}
		})
	}
}

func TestNewWelcomeEmailTask(t *testing.T) {
	id := uuid.New()
	task := service.NewWelcomeEmailTask(id)

	assert.Equal(t, service.TaskWelcomeEmail, task.Kind)

	raw, err := json.Marshal(task.Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":"`+id.String()+`"}`, string(raw))
}
