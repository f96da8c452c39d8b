// Package memory provides in-process implementations of the storage ports.
// They honour the same uniqueness and expiry contracts as the Mongo and
// Redis adapters. cmd/server selects them with USER_STORE=memory and
// SESSION_STORE=memory for local runs without external stores; tests use
// them throughout.
package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/sirpyerre/secrets/internal/core/domain"
)

type UserRepository struct {
	mu          sync.RWMutex
	seq         int
	byID        map[string]*domain.User
	order       []string
	byUsername  map[string]string
	byFederated map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:        make(map[string]*domain.User),
		byUsername:  make(map[string]string),
		byFederated: make(map[string]string),
	}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if user.Username != "" {
		if _, taken := r.byUsername[user.Username]; taken {
			return nil, domain.ErrDuplicateUsername
		}
	}
	if user.FederatedID != "" {
		if _, taken := r.byFederated[user.FederatedID]; taken {
			return nil, domain.ErrDuplicateFederatedID
		}
	}

	r.seq++
	stored := clone(user)
	stored.ID = strconv.Itoa(r.seq)
	r.byID[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	if stored.Username != "" {
		r.byUsername[stored.Username] = stored.ID
	}
	if stored.FederatedID != "" {
		r.byFederated[stored.FederatedID] = stored.ID
	}
	return clone(stored), nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(id)
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(r.byUsername[username])
}

func (r *UserRepository) FindByFederatedID(_ context.Context, federatedID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(r.byFederated[federatedID])
}

func (r *UserRepository) SetSecret(_ context.Context, id, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Secret = secret
	return nil
}

func (r *UserRepository) ListWithSecret(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.User, 0)
	for _, id := range r.order {
		if u := r.byID[id]; u.HasSecret() {
			out = append(out, clone(u))
		}
	}
	return out, nil
}

// Len returns the number of stored users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *UserRepository) get(id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func clone(u *domain.User) *domain.User {
	c := *u
	return &c
}
