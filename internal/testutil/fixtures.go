package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/blog-api/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	name     string
	email    string
	password string
}

// NewUserBuilder creates a new UserBuilder with a unique email
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		name:     fmt.Sprintf("Test User %s", suffix),
		email:    fmt.Sprintf("user_%s@example.com", suffix),
		password: "testpassword123",
	}
}

func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.name = name
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	// MinCost keeps fixtures fast; login still verifies with CompareHashAndPassword.
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         b.name,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// BuildAndAuthenticate registers the user through the API, logs in, and
// returns the stored user with its bearer token.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	resp := PostJSON(t, ts.APIURL("/register"), "", map[string]string{
		"name":                  b.name,
		"email":                 b.email,
		"password":              b.password,
		"password_confirmation": b.password,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected register status code: %d", resp.StatusCode)
	}

	token := Login(t, ts, b.email, b.password)

	var user domain.User
	if err := ts.DB.DB.First(&user, "email = ?", b.email).Error; err != nil {
		t.Fatalf("failed to load registered user: %v", err)
	}

	return &user, token
}

// Login returns a bearer token for the credentials, failing the test otherwise.
func Login(t *testing.T, ts *TestServer, email, password string) string {
	t.Helper()

	resp := PostJSON(t, ts.APIURL("/login"), "", map[string]string{
		"email":    email,
		"password": password,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login status code: %d", resp.StatusCode)
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return tokenResp.Token
}

// TokenResponse matches the login response
type TokenResponse struct {
	Token string `json:"token"`
}

// PostBuilder creates test posts with a builder pattern
type PostBuilder struct {
	owner     *domain.User
	title     string
	content   string
	createdAt time.Time
}

func NewPostBuilder(owner *domain.User) *PostBuilder {
	return &PostBuilder{
		owner:   owner,
		title:   fmt.Sprintf("Post %s", uuid.New().String()[:8]),
		content: "Some content",
	}
}

func (b *PostBuilder) WithTitle(title string) *PostBuilder {
	b.title = title
	return b
}

func (b *PostBuilder) WithContent(content string) *PostBuilder {
	b.content = content
	return b
}

func (b *PostBuilder) WithCreatedAt(createdAt time.Time) *PostBuilder {
	b.createdAt = createdAt
	return b
}

// Build creates the post in the database
func (b *PostBuilder) Build(t *testing.T, db *gorm.DB) *domain.Post {
	t.Helper()

	post := &domain.Post{
		ID:        uuid.New(),
		Title:     b.title,
		Content:   b.content,
		UserID:    b.owner.ID,
		CreatedAt: b.createdAt,
		UpdatedAt: b.createdAt,
	}

	if err := db.Create(post).Error; err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	return post
}

// SeedPosts creates n posts for owner one second apart, oldest first.
func SeedPosts(t *testing.T, db *gorm.DB, owner *domain.User, n int) []*domain.Post {
	t.Helper()

	base := time.Now().UTC().Add(-time.Duration(n) * time.Second)
	posts := make([]*domain.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, NewPostBuilder(owner).
			WithTitle(fmt.Sprintf("Post %02d", i+1)).
			WithCreatedAt(base.Add(time.Duration(i)*time.Second)).
			Build(t, db))
	}
	return posts
}

// PostJSON sends body as JSON, with a bearer token when token is set.
func PostJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	return DoJSON(t, http.MethodPost, url, token, body)
}

// DoJSON sends a request with an optional JSON body and bearer token.
func DoJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
