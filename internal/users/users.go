// Package users records the identities asserted by the GitHub flow.
package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/githubauth/internal/identity"
)

var (
	ErrNotFound        = errors.New("users: not found")
	ErrInvalidIdentity = errors.New("users: identity has no login")
)

type User struct {
	ID          string
	Login       string
	Name        string
	Email       string
	ProviderID  string
	CreatedAt   time.Time
	LastLoginAt time.Time
}

// Registry creates or refreshes a local user per normalized login.
type Registry interface {
	// Upsert creates the user on first sign-in; later sign-ins refresh name, email and
	// LastLoginAt. The ID never changes.
	Upsert(ctx context.Context, id identity.Identity) (*User, error)
	Get(ctx context.Context, login string) (*User, error)
}

func validate(id identity.Identity) error {
	if strings.TrimSpace(id.Login) == "" {
		return ErrInvalidIdentity
	}
	return nil
}
