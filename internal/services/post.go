package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inkwell-blog/blogserver/internal/mq"
	"github.com/inkwell-blog/blogserver/internal/storage"
	"github.com/inkwell-blog/blogserver/types"
)

// RecentPostLimit bounds the recent-posts feed.
const RecentPostLimit = 5

// EventChannel is the broker channel carrying post lifecycle events.
const EventChannel = "post-events"

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	List(ctx context.Context, search string) ([]types.Post, error)
	Recent(ctx context.Context, limit int) ([]types.Post, error)
	Get(ctx context.Context, id int) (types.Post, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Update(ctx context.Context, post types.Post) (types.Post, error)
	Delete(ctx context.Context, id int) error
	SetFeaturedImage(ctx context.Context, id int, key string) error
}

// PostInput is the payload for creating or updating a post.
type PostInput struct {
	Title   string
	Content string
}

// PostEvent is the JSON payload published on post mutations.
type PostEvent struct {
	Action     string    `json:"action"`
	PostID     int       `json:"post_id"`
	AuthorID   int       `json:"author_id"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PostService encapsulates post use-cases: CRUD with the ownership guard,
// the recent feed, featured-image storage, and lifecycle event publishing.
type PostService struct {
	repo   PostRepository
	media  *storage.Storage
	events *mq.MQ
	logger *slog.Logger
}

func NewPostService(repo PostRepository, media *storage.Storage, events *mq.MQ, logger *slog.Logger) *PostService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{
		repo:   repo,
		media:  media,
		events: events,
		logger: logger,
	}
}

func (s *PostService) List(ctx context.Context, search string) ([]types.Post, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

func (s *PostService) Recent(ctx context.Context) ([]types.Post, error) {
	return s.repo.Recent(ctx, RecentPostLimit)
}

func (s *PostService) Get(ctx context.Context, id int) (types.Post, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new post owned by the caller. The title is required;
// content may be empty.
func (s *PostService) Create(ctx context.Context, authorID int, in PostInput) (types.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return types.Post{}, fieldError("title", "this field is required")
	}

	created, err := s.repo.Create(ctx, types.Post{
		Title:    in.Title,
		Content:  in.Content,
		AuthorID: authorID,
	})
	if err != nil {
		return types.Post{}, err
	}

	s.publish(ctx, "created", created)
	return created, nil
}

// Update rewrites a post's title and content. Only the owner may update;
// everyone else gets ErrPermissionDenied.
func (s *PostService) Update(ctx context.Context, callerID, postID int, in PostInput) (types.Post, error) {
	post, err := s.repo.Get(ctx, postID)
	if err != nil {
		return types.Post{}, err
	}
	if post.AuthorID != callerID {
		return types.Post{}, ErrPermissionDenied
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return types.Post{}, fieldError("title", "this field is required")
	}

	post.Title = in.Title
	post.Content = in.Content
	updated, err := s.repo.Update(ctx, post)
	if err != nil {
		return types.Post{}, err
	}

	s.publish(ctx, "updated", updated)
	return updated, nil
}

// Delete removes a post permanently. Only the owner may delete.
func (s *PostService) Delete(ctx context.Context, callerID, postID int) error {
	post, err := s.repo.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != callerID {
		return ErrPermissionDenied
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		return err
	}

	if post.FeaturedImage != "" && s.media != nil {
		if err := s.media.Delete(ctx, post.FeaturedImage); err != nil {
			s.logger.Warn("failed to delete featured image", "key", post.FeaturedImage, "error", err)
		}
	}

	s.publish(ctx, "deleted", post)
	return nil
}

// AttachFeaturedImage uploads a cover image for the post and records its
// storage key. Only the owner may attach an image.
func (s *PostService) AttachFeaturedImage(ctx context.Context, callerID, postID int, filename, contentType string, data []byte) (types.Post, error) {
	post, err := s.repo.Get(ctx, postID)
	if err != nil {
		return types.Post{}, err
	}
	if post.AuthorID != callerID {
		return types.Post{}, ErrPermissionDenied
	}
	if s.media == nil {
		return types.Post{}, fmt.Errorf("media storage is not configured")
	}

	key := fmt.Sprintf("posts/%d/%d-%s", postID, time.Now().UnixNano(), sanitizeFilename(filename))
	if err := s.media.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Post{}, err
	}

	if err := s.repo.SetFeaturedImage(ctx, postID, key); err != nil {
		return types.Post{}, err
	}

	if post.FeaturedImage != "" {
		if err := s.media.Delete(ctx, post.FeaturedImage); err != nil {
			s.logger.Warn("failed to delete replaced featured image", "key", post.FeaturedImage, "error", err)
		}
	}

	return s.repo.Get(ctx, postID)
}

// publish sends a lifecycle event to the broker. Publishing is
// best-effort: a broker failure is logged and never fails the request.
func (s *PostService) publish(ctx context.Context, action string, post types.Post) {
	if s.events == nil {
		return
	}

	event := PostEvent{
		Action:     action,
		PostID:     post.ID,
		AuthorID:   post.AuthorID,
		Title:      post.Title,
		OccurredAt: time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to encode post event", "action", action, "post_id", post.ID, "error", err)
		return
	}

	if _, err := s.events.Publish(ctx, EventChannel, data, map[string]string{"action": action}); err != nil {
		s.logger.Warn("failed to publish post event", "action", action, "post_id", post.ID, "error", err)
	}
}

func sanitizeFilename(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}
