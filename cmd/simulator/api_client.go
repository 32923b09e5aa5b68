package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	serverURL  string
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(serverURL string) *APIClient {
	serverURL = strings.TrimRight(serverURL, "/")
	return &APIClient{
		serverURL: serverURL,
		baseURL:   serverURL + "/api",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Post struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  string `json:"user_id"`
}

type PostPage struct {
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	Total       int64  `json:"total"`
	Data        []Post `json:"data"`
}

const simulatorPassword = "simulator-password"

// RegisterUser creates a new account and logs it in, returning its token
func (c *APIClient) RegisterUser(baseName string) (string, string, error) {
	suffix := time.Now().UnixNano() % 1000000
	email := fmt.Sprintf("%s_%d@example.com", strings.ToLower(baseName), suffix)

	body := map[string]string{
		"name":                  fmt.Sprintf("%s %d", baseName, suffix),
		"email":                 email,
		"password":              simulatorPassword,
		"password_confirmation": simulatorPassword,
	}

	resp, err := c.post("/register", body, "")
	if err != nil {
		return "", "", fmt.Errorf("register request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", "", statusError("register", resp)
	}

	token, err := c.Login(email, simulatorPassword)
	if err != nil {
		return "", "", err
	}
	return email, token, nil
}

// Login exchanges credentials for a bearer token
func (c *APIClient) Login(email, password string) (string, error) {
	resp, err := c.post("/login", map[string]string{"email": email, "password": password}, "")
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("login", resp)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Token, nil
}

// CreatePost publishes a post as the token's user
func (c *APIClient) CreatePost(token, title, content string) (*Post, error) {
	resp, err := c.post("/posts", map[string]string{"title": title, "content": content}, token)
	if err != nil {
		return nil, fmt.Errorf("create post request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, statusError("create post", resp)
	}

	var post Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &post, nil
}

// ListPosts fetches one page of the public listing
func (c *APIClient) ListPosts(page int) (*PostPage, error) {
	resp, err := c.do(http.MethodGet, fmt.Sprintf("/posts?page=%d", page), nil, "")
	if err != nil {
		return nil, fmt.Errorf("list posts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list posts", resp)
	}

	var result PostPage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// Logout revokes the token
func (c *APIClient) Logout(token string) error {
	resp, err := c.post("/logout", nil, token)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError("logout", resp)
	}
	return nil
}

// FeedURL is the websocket address of the post feed
func (c *APIClient) FeedURL() string {
	if strings.HasPrefix(c.serverURL, "https") {
		return "wss" + strings.TrimPrefix(c.serverURL, "https") + "/api/posts/feed"
	}
	return "ws" + strings.TrimPrefix(c.serverURL, "http") + "/api/posts/feed"
}

func (c *APIClient) post(path string, body interface{}, token string) (*http.Response, error) {
	return c.do(http.MethodPost, path, body, token)
}

func (c *APIClient) do(method, path string, body interface{}, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}

func statusError(action string, resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s failed (status %d): %s", action, resp.StatusCode, string(bodyBytes))
}
