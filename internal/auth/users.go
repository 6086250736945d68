package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/tributolabs/fiscalis/internal/store"
	"github.com/tributolabs/fiscalis/internal/types"
)

// UserRepository is the typed accessor over the store's users collection.
type UserRepository struct {
	store store.Store
}

// NewUserRepository creates a UserRepository over the given store.
func NewUserRepository(s store.Store) *UserRepository {
	return &UserRepository{store: s}
}

// NormalizeEmail lowercases and trims an email so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindByEmail returns the user with the given email, or nil when absent.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*types.User, error) {
	normalized := NormalizeEmail(email)
	doc, err := r.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	for i := range doc.Users {
		if doc.Users[i].Email == normalized {
			return &doc.Users[i], nil
		}
	}
	return nil, nil
}

// FindByID returns the user with the given id, or nil when absent.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*types.User, error) {
	doc, err := r.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	for i := range doc.Users {
		if doc.Users[i].ID == id {
			return &doc.Users[i], nil
		}
	}
	return nil, nil
}

// List returns all users.
func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	doc, err := r.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return doc.Users, nil
}

// CreateMany inserts users whose emails are not already present. The
// existence check runs inside the update so concurrent seeding stays
// idempotent.
func (r *UserRepository) CreateMany(ctx context.Context, users []types.User) error {
	_, err := r.store.Update(ctx, func(doc *types.Document) {
		existing := make(map[string]bool, len(doc.Users))
		for _, u := range doc.Users {
			existing[u.Email] = true
		}
		for _, u := range users {
			if existing[u.Email] {
				continue
			}
			doc.Users = append(doc.Users, u)
			existing[u.Email] = true
		}
	})
	if err != nil {
		return fmt.Errorf("create users: %w", err)
	}
	return nil
}
