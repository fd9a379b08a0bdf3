// Package client is the frontend tier's typed HTTP client for the
// backend JSON API. Every call carries a bounded timeout so an
// unreachable backend surfaces a connectivity error instead of hanging.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inkwell-blog/blogserver/internal/auth"
	"github.com/inkwell-blog/blogserver/types"
)

const defaultTimeout = 10 * time.Second

// ErrConnectivity marks a failure to reach the backend at all.
var ErrConnectivity = errors.New("backend unreachable")

// ErrUnauthenticated marks a 401 from the backend. The session relay
// clears its stored credential when it sees this.
var ErrUnauthenticated = errors.New("authentication required")

// APIError is a non-401 error response from the backend.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

// Client calls the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client for the given base URL. A zero timeout falls
// back to 10 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// RegisterInput mirrors the backend registration payload.
type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ProfileUpdateInput mirrors the backend profile-update payload.
type ProfileUpdateInput struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

type registerResponse struct {
	User types.Author `json:"user"`
}

type profileUpdateResponse struct {
	User types.Author `json:"user"`
}

// Token exchanges a username/password pair for a credential pair.
func (c *Client) Token(ctx context.Context, username, password string) (auth.TokenPair, error) {
	var pair auth.TokenPair
	err := c.do(ctx, http.MethodPost, "/api/token/", "", map[string]string{
		"username": username,
		"password": password,
	}, &pair)
	return pair, err
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, in RegisterInput) (types.Author, error) {
	var resp registerResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register/", "", in, &resp)
	return resp.User, err
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context, token string) (types.Author, error) {
	var user types.Author
	err := c.do(ctx, http.MethodGet, "/api/auth/profile/", token, nil, &user)
	return user, err
}

// UpdateProfile applies a partial profile update.
func (c *Client) UpdateProfile(ctx context.Context, token string, in ProfileUpdateInput) (types.Author, error) {
	var resp profileUpdateResponse
	err := c.do(ctx, http.MethodPut, "/api/auth/profile/update/", token, in, &resp)
	return resp.User, err
}

// RecentPosts fetches the five newest posts.
func (c *Client) RecentPosts(ctx context.Context) ([]types.PostSummary, error) {
	var posts []types.PostSummary
	err := c.do(ctx, http.MethodGet, "/api/recent-posts/", "", nil, &posts)
	return posts, err
}

// ListPosts fetches all posts, optionally filtered by a search term.
func (c *Client) ListPosts(ctx context.Context, search string) ([]types.PostSummary, error) {
	path := "/api/posts/"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	var posts []types.PostSummary
	err := c.do(ctx, http.MethodGet, path, "", nil, &posts)
	return posts, err
}

// GetPost fetches a single post by id.
func (c *Client) GetPost(ctx context.Context, id int) (types.Post, error) {
	var post types.Post
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/posts/%d/", id), "", nil, &post)
	return post, err
}

// CreatePost creates a post owned by the token's user.
func (c *Client) CreatePost(ctx context.Context, token, title, content string) (types.Post, error) {
	var post types.Post
	err := c.do(ctx, http.MethodPost, "/api/posts/create/", token, map[string]string{
		"title":   title,
		"content": content,
	}, &post)
	return post, err
}

// UpdatePost rewrites a post's title and content.
func (c *Client) UpdatePost(ctx context.Context, token string, id int, title, content string) (types.Post, error) {
	var post types.Post
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/posts/%d/update/", id), token, map[string]string{
		"title":   title,
		"content": content,
	}, &post)
	return post, err
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, token string, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/posts/%d/delete/", id), token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: invalid response body: %v", ErrConnectivity, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	if resp.StatusCode == http.StatusUnauthorized {
		if payload.Error != "" {
			return fmt.Errorf("%w: %s", ErrUnauthenticated, payload.Error)
		}
		return ErrUnauthenticated
	}

	return &APIError{
		Status:  resp.StatusCode,
		Message: payload.Error,
		Fields:  payload.Fields,
	}
}
