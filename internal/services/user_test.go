package services

import (
	"context"
	"testing"

	"github.com/inkwell-blog/blogserver/internal/auth"
	"github.com/inkwell-blog/blogserver/internal/store"
	"github.com/inkwell-blog/blogserver/types"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users  map[int]types.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User)}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	r.users[user.ID] = user
	return user, nil
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	user, err := svc.Register(context.Background(), RegisterInput{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "p@ssw0rd1",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	require.True(t, user.Active)
	require.NotEqual(t, "p@ssw0rd1", user.PasswordHash)

	loggedIn, err := svc.Login(context.Background(), "alice", "p@ssw0rd1")
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)
}

func TestUserService_RegisterValidation(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), RegisterInput{Username: "", Password: "p@ssw0rd1"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "username")

	_, err = svc.Register(context.Background(), RegisterInput{Username: "bob", Password: "short"})
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "password")
}

func TestUserService_RegisterDuplicateUsername(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "p@ssw0rd1"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "p@ssw0rd2"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "username")
}

func TestUserService_LoginFailures(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "p@ssw0rd1"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody", "p@ssw0rd1")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "", "")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	user.Active = false
	repo.users[user.ID] = user
	_, err = svc.Login(context.Background(), "alice", "p@ssw0rd1")
	require.ErrorIs(t, err, auth.ErrAccountDisabled)
}

func TestUserService_UpdateProfilePartial(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	user, err := svc.Register(context.Background(), RegisterInput{
		Username:  "alice",
		Email:     "old@example.com",
		Password:  "p@ssw0rd1",
		FirstName: "Alice",
	})
	require.NoError(t, err)

	email := "new@example.com"
	updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{Email: &email})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", updated.Email)
	require.Equal(t, "Alice", updated.FirstName, "unset fields stay untouched")
	require.Equal(t, "alice", updated.Username, "username is immutable")
}
