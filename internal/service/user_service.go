package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Tomlord1122/task-tracker/internal/auth"
	"github.com/Tomlord1122/task-tracker/internal/domain"
	"github.com/Tomlord1122/task-tracker/internal/repository"
)

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// LoginResponse carries a session token usable as a bearer credential.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// Authenticator checks credentials and returns the matching account, or nil
// for anonymous credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, creds auth.Credentials) (*domain.User, error)
}

// TokenIssuer signs session tokens for a user.
type TokenIssuer interface {
	Issue(userID uint) (string, time.Time, error)
}

// UserService defines the account operations.
type UserService interface {
	Register(ctx context.Context, creds auth.Credentials) (*UserResponse, error)
	// Remove deletes the authenticated account together with its tasks.
	Remove(ctx context.Context, creds auth.Credentials) error
	Login(ctx context.Context, creds auth.Credentials) (*LoginResponse, error)
}

type userService struct {
	users  repository.UserRepository
	hasher auth.Hasher
	authn  Authenticator
	tokens TokenIssuer
}

func NewUserService(users repository.UserRepository, hasher auth.Hasher, authn Authenticator, tokens TokenIssuer) UserService {
	return &userService{
		users:  users,
		hasher: hasher,
		authn:  authn,
		tokens: tokens,
	}
}

var (
	errUsernameEmpty    = domain.NewValidationError("username cannot be empty")
	errUsernameTaken    = domain.NewValidationError("user with this username already exists")
	errUsernameRequired = domain.NewValidationError("username is required")
)

func (s *userService) Register(ctx context.Context, creds auth.Credentials) (*UserResponse, error) {
	if creds.Username == "" {
		return nil, errUsernameEmpty
	}

	exists, err := s.users.ExistsByUsername(ctx, creds.Username)
	if err != nil {
		return nil, fmt.Errorf("check username %q: %w", creds.Username, err)
	}
	if exists {
		return nil, errUsernameTaken
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{Username: creds.Username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same name.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errUsernameTaken
		}
		return nil, fmt.Errorf("create user %q: %w", creds.Username, err)
	}

	return &UserResponse{ID: user.ID, Username: user.Username}, nil
}

func (s *userService) Remove(ctx context.Context, creds auth.Credentials) error {
	user, err := s.authenticated(ctx, creds)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user %d: %w", user.ID, err)
	}
	return nil
}

func (s *userService) Login(ctx context.Context, creds auth.Credentials) (*LoginResponse, error) {
	user, err := s.authenticated(ctx, creds)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, ExpiresAt: expiresAt.Format(time.RFC3339)}, nil
}

// authenticated resolves creds to an account, rejecting anonymous callers.
func (s *userService) authenticated(ctx context.Context, creds auth.Credentials) (*domain.User, error) {
	if creds.Anonymous() {
		return nil, errUsernameRequired
	}
	user, err := s.authn.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errUsernameRequired
	}
	return user, nil
}
