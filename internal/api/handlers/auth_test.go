package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/dom/blog-api/internal/domain"
	"github.com/dom/blog-api/internal/service"
	"github.com/dom/blog-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerBody(email string) map[string]string {
	return map[string]string{
		"name":                  "John Doe",
		"email":                 email,
		"password":              "pw123456",
		"password_confirmation": "pw123456",
	}
}

func TestAuthHandler_Register(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		request        any
		setup          func(t *testing.T)
		expectedStatus int
		errorFields    []string
		wantTasks      int
	}{
		{
			name:           "successful registration",
			request:        registerBody("john@x.com"),
			expectedStatus: http.StatusCreated,
			wantTasks:      1,
		},
		{
			name:    "duplicate email",
			request: registerBody("john@x.com"),
			setup: func(t *testing.T) {
				testutil.NewUserBuilder().WithEmail("john@x.com").Build(t, ts.DB.DB)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			errorFields:    []string{"email"},
		},
		{
			name: "confirmation mismatch",
			request: map[string]string{
				"name":                  "John Doe",
				"email":                 "john@x.com",
				"password":              "pw123456",
				"password_confirmation": "pw654321",
			},
			expectedStatus: http.StatusUnprocessableEntity,
			errorFields:    []string{"password"},
		},
		{
			name:           "empty request body",
			request:        map[string]string{},
			expectedStatus: http.StatusUnprocessableEntity,
			errorFields:    []string{"name", "email", "password"},
		},
		{
			name:           "wrong type",
			request:        map[string]any{"name": 42, "email": "john@x.com", "password": "pw123456", "password_confirmation": "pw123456"},
			expectedStatus: http.StatusUnprocessableEntity,
			errorFields:    []string{"name"},
		},
		{
			name:           "malformed json",
			request:        `{"name":`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.Reset(t)

			if tt.setup != nil {
				tt.setup(t)
			}

			var before int64
			require.NoError(t, ts.DB.DB.Model(&domain.User{}).Count(&before).Error)

			resp := testutil.PostJSON(t, ts.APIURL("/register"), "", tt.request)
			defer resp.Body.Close()

			switch {
			case len(tt.errorFields) > 0:
				testutil.AssertValidationErrors(t, resp, tt.errorFields...)
			case tt.expectedStatus == http.StatusCreated:
				testutil.AssertMessage(t, resp, http.StatusCreated, "User registered successfully")
			default:
				testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			}

			var after int64
			require.NoError(t, ts.DB.DB.Model(&domain.User{}).Count(&after).Error)
			if tt.expectedStatus == http.StatusCreated {
				assert.Equal(t, before+1, after)
			} else {
				assert.Equal(t, before, after, "no user should be persisted")
			}

			assert.Len(t, ts.Queue.TasksOfKind(service.TaskWelcomeEmail), tt.wantTasks)
		})
	}
}

func TestAuthHandler_Register_StoresHashedPassword(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := testutil.PostJSON(t, ts.APIURL("/register"), "", registerBody("hash@x.com"))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user domain.User
	require.NoError(t, ts.DB.DB.First(&user, "email = ?", "hash@x.com").Error)
	assert.NotEqual(t, "pw123456", user.PasswordHash)
	assert.NotEmpty(t, user.PasswordHash)

	tasks := ts.Queue.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, service.WelcomeEmailPayload{UserID: user.ID}, tasks[0].Payload)
}

func TestAuthHandler_Register_QueueFailureKeepsNoAccount(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ts.Queue.FailWith(errors.New("queue down"))

	resp := testutil.PostJSON(t, ts.APIURL("/register"), "", registerBody("down@x.com"))
	testutil.AssertMessage(t, resp, http.StatusInternalServerError, "Internal server error")
	resp.Body.Close()

	var count int64
	require.NoError(t, ts.DB.DB.Model(&domain.User{}).Where("email = ?", "down@x.com").Count(&count).Error)
	assert.Zero(t, count)

	ts.Queue.Reset()
	resp = testutil.PostJSON(t, ts.APIURL("/register"), "", registerBody("down@x.com"))
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	resp.Body.Close()
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)

	// Create a user for login tests
	user, rawPassword := testutil.NewUserBuilder().
		WithEmail("login@x.com").
		WithPassword("correctpassword").
		Build(t, ts.DB.DB)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		errorFields    []string
	}{
		{
			name:           "successful login",
			request:        map[string]string{"email": user.Email, "password": rawPassword},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong password",
			request:        map[string]string{"email": user.Email, "password": "wrongpassword"},
			expectedStatus: http.StatusUnprocessableEntity,
			errorFields:    []string{"email"},
		},
		{
			name:           "unknown email",
			request:        map[string]string{"email": "nobody@x.com", "password": rawPassword},
			expectedStatus: http.StatusUnprocessableEntity,
			errorFields:    []string{"email"},
		},
		{
			name:           "missing password",
			request:        map[string]string{"email": user.Email},
			expectedStatus: http.StatusUnprocessableEntity,
			errorFields:    []string{"password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.PostJSON(t, ts.APIURL("/login"), "", tt.request)
			defer resp.Body.Close()

			if len(tt.errorFields) > 0 {
				body := testutil.AssertValidationErrors(t, resp, tt.errorFields...)
				assert.NotEqual(t, http.StatusUnauthorized, resp.StatusCode)
				if tt.errorFields[0] == "email" {
					assert.Equal(t, "The provided credentials are incorrect.", body.Message)
				}
				return
			}

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			var result testutil.TokenResponse
			testutil.AssertJSONResponse(t, resp, &result)
			assert.NotEmpty(t, result.Token)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	ts := testutil.NewTestServer(t)

	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	resp := testutil.PostJSON(t, ts.APIURL("/logout"), token, nil)
	testutil.AssertMessage(t, resp, http.StatusOK, "Logged out successfully")
	resp.Body.Close()

	// Same token again is rejected at the gate.
	resp = testutil.PostJSON(t, ts.APIURL("/logout"), token, nil)
	testutil.AssertMessage(t, resp, http.StatusUnauthorized, "Unauthenticated.")
	resp.Body.Close()

	resp = testutil.PostJSON(t, ts.APIURL("/posts"), token, map[string]string{"title": "t", "content": "c"})
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestAuthMiddleware(t *testing.T) {
	ts := testutil.NewTestServer(t)

	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{name: "missing header", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, expectedStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer garbage", expectedStatus: http.StatusUnauthorized},
		{name: "extra parts", header: "Bearer " + token + " extra", expectedStatus: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + token, expectedStatus: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, ts.APIURL("/posts"), jsonReader(t, map[string]string{"title": "t", "content": "c"}))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
		})
	}
}
