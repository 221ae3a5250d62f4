package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/githubauth/internal/identity"
)

type MemoryRegistry struct {
	mu    sync.RWMutex
	users map[string]User
	now   func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{users: make(map[string]User), now: time.Now}
}

func (r *MemoryRegistry) Upsert(_ context.Context, id identity.Identity) (*User, error) {
	if err := validate(id); err != nil {
		return nil, err
	}
	now := r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id.Login]
	if !ok {
		u = User{ID: uuid.NewString(), Login: id.Login, CreatedAt: now}
	}
	u.Name = id.Name
	u.Email = id.Email
	u.ProviderID = id.ProviderID
	u.LastLoginAt = now
	r.users[id.Login] = u

	out := u
	return &out, nil
}

func (r *MemoryRegistry) Get(_ context.Context, login string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[login]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}
