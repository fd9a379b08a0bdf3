package services

import (
	"context"
	"errors"
	"strings"

	"github.com/inkwell-blog/blogserver/internal/auth"
	"github.com/inkwell-blog/blogserver/internal/store"
	"github.com/inkwell-blog/blogserver/types"
)

const minPasswordLength = 8

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// RegisterInput is the payload for creating a new account.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// ProfileUpdate is a partial profile mutation. Nil fields are left
// untouched; the username is immutable.
type ProfileUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register validates the input and creates a new active account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if in.Username == "" {
		return types.User{}, fieldError("username", "this field is required")
	}
	if len(in.Password) < minPasswordLength {
		return types.User{}, fieldError("password", "must be at least 8 characters")
	}

	if _, err := s.repo.GetByUsername(ctx, in.Username); err == nil {
		return types.User{}, fieldError("username", "a user with that username already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Active:       true,
		PasswordHash: hash,
	})
}

// Login checks a username/password pair against the stored account.
// It reads the user store but never writes to it.
func (s *UserService) Login(ctx context.Context, username, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return types.User{}, auth.ErrInvalidCredentials
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, auth.ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return types.User{}, err
	}
	if !user.Active {
		return types.User{}, auth.ErrAccountDisabled
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// UpdateProfile applies a partial mutation to the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, update ProfileUpdate) (types.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}

	if update.Email != nil {
		user.Email = strings.TrimSpace(*update.Email)
	}
	if update.FirstName != nil {
		user.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		user.LastName = strings.TrimSpace(*update.LastName)
	}

	return s.repo.Update(ctx, user)
}
