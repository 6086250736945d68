// Package auth provides credential verification, HS256 bearer tokens, and
// idempotent user seeding over the document store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tributolabs/fiscalis/internal/types"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// login response cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("auth: invalid email or password")

// ErrUserNotFound is returned when a token references a user that no longer
// exists in the store.
var ErrUserNotFound = errors.New("auth: user not found")

// SeedUser describes one bootstrap account.
type SeedUser struct {
	Email    string
	Name     string
	Role     types.Role
	Password string
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string           `json:"accessToken"`
	ExpiresAt   time.Time        `json:"expiresAt"`
	User        types.PublicUser `json:"user"`
}

// Service implements login, identity lookup, and seeding.
type Service struct {
	users  *UserRepository
	tokens *TokenManager
}

// NewService creates an auth Service.
func NewService(users *UserRepository, tokens *TokenManager) *Service {
	return &Service{users: users, tokens: tokens}
}

// Seed creates the given accounts unless a user with the same email already
// exists. Safe to run on every boot.
func (s *Service) Seed(ctx context.Context, entries []SeedUser) error {
	existing, err := s.users.List(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(existing))
	for _, u := range existing {
		present[u.Email] = true
	}

	var toCreate []types.User
	for _, entry := range entries {
		email := NormalizeEmail(entry.Email)
		if present[email] {
			continue
		}
		hash, err := HashPassword(entry.Password)
		if err != nil {
			return err
		}
		toCreate = append(toCreate, types.User{
			ID:           ulid.Make().String(),
			Email:        email,
			Name:         entry.Name,
			PasswordHash: hash,
			Role:         entry.Role,
			CreatedAt:    time.Now().UTC(),
		})
	}

	if len(toCreate) == 0 {
		return nil
	}
	if err := s.users.CreateMany(ctx, toCreate); err != nil {
		return err
	}
	slog.Info("seeded users", "count", len(toCreate))
	return nil
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, fmt.Errorf("auth: issue token: %w", err)
	}
	return &Session{AccessToken: token, ExpiresAt: exp, User: user.Public()}, nil
}

// GetUser returns the public view of the user with the given id.
func (s *Service) GetUser(ctx context.Context, id string) (types.PublicUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return types.PublicUser{}, err
	}
	if user == nil {
		return types.PublicUser{}, ErrUserNotFound
	}
	return user.Public(), nil
}
