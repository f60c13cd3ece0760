// Package auth resolves request credentials into an access scope.
//
// Every task and account operation carries its own credentials: either a
// username and password checked against the stored hash, or a bearer token
// issued by Login. Requests without either act on public tasks.
package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Tomlord1122/task-tracker/internal/domain"
	"github.com/Tomlord1122/task-tracker/internal/repository"
)

// Credentials are the optional caller-supplied identity of a request.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Token    string `json:"-"`
}

// Anonymous reports whether no identity was supplied.
func (c Credentials) Anonymous() bool {
	return c.Username == "" && c.Token == ""
}

// Scope is the resolved access context of a request: either public
// (UserID nil) or a single user.
type Scope struct {
	UserID *uint
}

// PublicScope is the scope of requests without credentials.
var PublicScope = Scope{}

// UserScope returns the scope of the given user.
func UserScope(id uint) Scope {
	return Scope{UserID: &id}
}

func (s Scope) Public() bool {
	return s.UserID == nil
}

// Owns reports whether a record with the given owner reference belongs to
// this scope. Public scope owns exactly the unowned records.
func (s Scope) Owns(owner *uint) bool {
	if s.UserID == nil || owner == nil {
		return s.UserID == nil && owner == nil
	}
	return *s.UserID == *owner
}

// Resolver maps credentials to a Scope.
type Resolver struct {
	users  repository.UserRepository
	hasher Hasher
	tokens *TokenIssuer
}

func NewResolver(users repository.UserRepository, hasher Hasher, tokens *TokenIssuer) *Resolver {
	return &Resolver{users: users, hasher: hasher, tokens: tokens}
}

// Resolve returns the public scope for anonymous credentials and the
// account's scope otherwise. It fails with domain.ErrAccountNotFound,
// domain.ErrInvalidCredentials or domain.ErrInvalidToken.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (Scope, error) {
	user, err := r.Authenticate(ctx, creds)
	if err != nil {
		return Scope{}, err
	}
	if user == nil {
		return PublicScope, nil
	}
	return UserScope(user.ID), nil
}

// Authenticate is Resolve returning the account itself. It returns nil and
// no error for anonymous credentials.
func (r *Resolver) Authenticate(ctx context.Context, creds Credentials) (*domain.User, error) {
	if creds.Token != "" {
		return r.authenticateToken(ctx, creds.Token)
	}
	if creds.Username == "" {
		return nil, nil
	}

	user, err := r.users.FindByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find user %q: %w", creds.Username, err)
	}
	if !r.hasher.Verify(user.PasswordHash, creds.Password) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (r *Resolver) authenticateToken(ctx context.Context, token string) (*domain.User, error) {
	if r.tokens == nil {
		return nil, domain.ErrInvalidToken
	}
	id, err := r.tokens.Parse(token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	user, err := r.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return user, nil
}
