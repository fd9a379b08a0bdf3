//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/inkwell-blog/blogserver/config"
	"github.com/inkwell-blog/blogserver/internal/db"
	"github.com/inkwell-blog/blogserver/internal/server"
	_ "github.com/lib/pq"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d", "postgres"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestPostLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()
	alice := fmt.Sprintf("alice_%d", suffix)
	bob := fmt.Sprintf("bob_%d", suffix)
	password := "testpass123!"

	if err := registerUser(t, baseURL, alice, password); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if err := registerUser(t, baseURL, bob, password); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	aliceToken, err := obtainToken(t, baseURL, alice, password)
	if err != nil {
		t.Fatalf("obtain alice token: %v", err)
	}
	bobToken, err := obtainToken(t, baseURL, bob, password)
	if err != nil {
		t.Fatalf("obtain bob token: %v", err)
	}

	created, err := createPost(t, baseURL, aliceToken, "Hi", "world")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected post ID to be set")
	}
	if created.Title != "Hi" {
		t.Fatalf("unexpected post title: %q", created.Title)
	}

	fetched, err := getPost(t, baseURL, created.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if fetched.Content != "world" {
		t.Fatalf("unexpected post content: %q", fetched.Content)
	}
	if fetched.Author.Username != alice {
		t.Fatalf("unexpected post author: %q", fetched.Author.Username)
	}

	// bob must not be able to delete alice's post
	if status := deletePost(t, baseURL, bobToken, created.ID); status != http.StatusForbidden {
		t.Fatalf("expected 403 for bob, got %d", status)
	}

	if _, err := getPost(t, baseURL, created.ID); err != nil {
		t.Fatalf("expected post to survive bob's attempt: %v", err)
	}

	if status := deletePost(t, baseURL, aliceToken, created.ID); status != http.StatusNoContent {
		t.Fatalf("expected 204 for alice, got %d", status)
	}

	if err := expectPostNotFound(t, baseURL, created.ID); err != nil {
		t.Fatalf("expected deleted post to be missing: %v", err)
	}
}

func TestRecentPostsWindow(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	username := fmt.Sprintf("prolific_%d", time.Now().UnixNano())
	password := "testpass123!"

	if err := registerUser(t, baseURL, username, password); err != nil {
		t.Fatalf("register user: %v", err)
	}
	token, err := obtainToken(t, baseURL, username, password)
	if err != nil {
		t.Fatalf("obtain token: %v", err)
	}

	var lastTitle string
	for i := 1; i <= 6; i++ {
		lastTitle = fmt.Sprintf("window %d %d", time.Now().UnixNano(), i)
		if _, err := createPost(t, baseURL, token, lastTitle, "body"); err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
	}

	resp, err := http.Get(baseURL + "/api/recent-posts/")
	if err != nil {
		t.Fatalf("fetch recent posts: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("recent posts status %d", resp.StatusCode)
	}

	var posts []postResponse
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		t.Fatalf("decode recent posts: %v", err)
	}
	if len(posts) != 5 {
		t.Fatalf("expected 5 recent posts, got %d", len(posts))
	}
	if posts[0].Title != lastTitle {
		t.Fatalf("expected the newest post first, got %q", posts[0].Title)
	}
}

type postResponse struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  struct {
		Username string `json:"username"`
	} `json:"author"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func registerUser(t *testing.T, baseURL, username, password string) error {
	t.Helper()

	payload := map[string]string{
		"username": username,
		"email":    fmt.Sprintf("%s@example.com", username),
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/auth/register/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("register status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func obtainToken(t *testing.T, baseURL, username, password string) (string, error) {
	t.Helper()

	payload := map[string]string{
		"username": username,
		"password": password,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/token/", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.Access == "" {
		return "", fmt.Errorf("missing access token in response")
	}
	return parsed.Access, nil
}

func createPost(t *testing.T, baseURL, token, title, content string) (postResponse, error) {
	t.Helper()

	payload := map[string]string{
		"title":   title,
		"content": content,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return postResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/posts/create/", bytes.NewReader(body))
	if err != nil {
		return postResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return postResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return postResponse{}, fmt.Errorf("create post status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed postResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return postResponse{}, err
	}
	return parsed, nil
}

func getPost(t *testing.T, baseURL string, id int) (postResponse, error) {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/api/posts/%d/", baseURL, id))
	if err != nil {
		return postResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return postResponse{}, fmt.Errorf("get post status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed postResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return postResponse{}, err
	}
	return parsed, nil
}

func deletePost(t *testing.T, baseURL, token string, id int) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/posts/%d/delete/", baseURL, id), nil)
	if err != nil {
		t.Fatalf("build delete request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete post: %v", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func expectPostNotFound(t *testing.T, baseURL string, id int) error {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/api/posts/%d/", baseURL, id))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expected 404 after delete, got %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	dsn := db.PostgresURL(cfg)
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	dsn := db.PostgresURL(cfg)
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "blog")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "blog_db")
	_ = os.Setenv("DB_USE_SSL", "false")

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
