package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/inkwell-blog/blogserver/internal/store"
	"github.com/inkwell-blog/blogserver/types"
	"github.com/stretchr/testify/require"
)

type fakePostRepo struct {
	posts  map[int]types.Post
	nextID int
	clock  time.Time
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		posts: make(map[int]types.Post),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *fakePostRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Minute)
	return r.clock
}

func (r *fakePostRepo) sorted() []types.Post {
	posts := make([]types.Post, 0, len(r.posts))
	for _, post := range r.posts {
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts
}

func (r *fakePostRepo) List(ctx context.Context, search string) ([]types.Post, error) {
	posts := r.sorted()
	if search == "" {
		return posts, nil
	}
	needle := strings.ToLower(search)
	matched := make([]types.Post, 0, len(posts))
	for _, post := range posts {
		if strings.Contains(strings.ToLower(post.Title), needle) ||
			strings.Contains(strings.ToLower(post.Content), needle) {
			matched = append(matched, post)
		}
	}
	return matched, nil
}

func (r *fakePostRepo) Recent(ctx context.Context, limit int) ([]types.Post, error) {
	posts := r.sorted()
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r *fakePostRepo) Get(ctx context.Context, id int) (types.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return types.Post{}, store.ErrNotFound
	}
	return post, nil
}

func (r *fakePostRepo) Create(ctx context.Context, post types.Post) (types.Post, error) {
	r.nextID++
	post.ID = r.nextID
	now := r.tick()
	post.CreatedAt = now
	post.UpdatedAt = now
	r.posts[post.ID] = post
	return post, nil
}

func (r *fakePostRepo) Update(ctx context.Context, post types.Post) (types.Post, error) {
	if _, ok := r.posts[post.ID]; !ok {
		return types.Post{}, store.ErrNotFound
	}
	post.UpdatedAt = r.tick()
	r.posts[post.ID] = post
	return post, nil
}

func (r *fakePostRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) SetFeaturedImage(ctx context.Context, id int, key string) error {
	post, ok := r.posts[id]
	if !ok {
		return store.ErrNotFound
	}
	post.FeaturedImage = key
	post.UpdatedAt = r.tick()
	r.posts[id] = post
	return nil
}

func newTestPostService(repo *fakePostRepo) *PostService {
	return NewPostService(repo, nil, nil, nil)
}

func TestPostService_CreateRequiresTitle(t *testing.T) {
	svc := newTestPostService(newFakePostRepo())

	_, err := svc.Create(context.Background(), 1, PostInput{Title: "   ", Content: "body"})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "title")
}

func TestPostService_CreateAndGet(t *testing.T) {
	svc := newTestPostService(newFakePostRepo())

	created, err := svc.Create(context.Background(), 7, PostInput{Title: "Hi", Content: "world"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, 7, created.AuthorID)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Hi", got.Title)
	require.Equal(t, "world", got.Content)
}

func TestPostService_OwnershipGuard(t *testing.T) {
	const owner, stranger = 1, 2

	repo := newFakePostRepo()
	svc := newTestPostService(repo)

	created, err := svc.Create(context.Background(), owner, PostInput{Title: "Mine"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), stranger, created.ID, PostInput{Title: "Stolen"})
	require.ErrorIs(t, err, ErrPermissionDenied)

	err = svc.Delete(context.Background(), stranger, created.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	// the post is untouched
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Mine", got.Title)

	updated, err := svc.Update(context.Background(), owner, created.ID, PostInput{Title: "Still mine", Content: "edited"})
	require.NoError(t, err)
	require.Equal(t, "Still mine", updated.Title)
	require.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	require.NoError(t, svc.Delete(context.Background(), owner, created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostService_UpdateRequiresTitle(t *testing.T) {
	svc := newTestPostService(newFakePostRepo())

	created, err := svc.Create(context.Background(), 1, PostInput{Title: "Hi"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), 1, created.ID, PostInput{Title: ""})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "title")
}

func TestPostService_RecentIsBoundedAndNewestFirst(t *testing.T) {
	repo := newFakePostRepo()
	svc := newTestPostService(repo)

	for i := 0; i < RecentPostLimit+3; i++ {
		_, err := svc.Create(context.Background(), 1, PostInput{Title: "post"})
		require.NoError(t, err)
	}

	recent, err := svc.Recent(context.Background())
	require.NoError(t, err)
	require.Len(t, recent, RecentPostLimit)
	for i := 1; i < len(recent); i++ {
		require.False(t, recent[i].CreatedAt.After(recent[i-1].CreatedAt),
			"recent posts must be newest-first")
	}
}

func TestPostService_ListSearch(t *testing.T) {
	svc := newTestPostService(newFakePostRepo())

	_, err := svc.Create(context.Background(), 1, PostInput{Title: "Go concurrency", Content: "channels"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 1, PostInput{Title: "Gardening", Content: "tomatoes and GOATS"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 1, PostInput{Title: "Cooking", Content: "pasta"})
	require.NoError(t, err)

	results, err := svc.List(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, results, 2)

	results, err = svc.List(context.Background(), "pasta")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Cooking", results[0].Title)

	results, err = svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, results, 3)
}

func TestPostService_DeleteMissing(t *testing.T) {
	svc := newTestPostService(newFakePostRepo())

	err := svc.Delete(context.Background(), 1, 99)
	require.True(t, errors.Is(err, store.ErrNotFound))
}
