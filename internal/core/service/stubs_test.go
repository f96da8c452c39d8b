package service

import (
	"context"

	"github.com/sirpyerre/secrets/internal/core/domain"
)

// stubUserRepo delegates to fn fields; nil fields fall through to the
// embedded repository so tests only override what they care about.
type stubUserRepo struct {
	base interface {
		Create(ctx context.Context, user *domain.User) (*domain.User, error)
		FindByID(ctx context.Context, id string) (*domain.User, error)
		FindByUsername(ctx context.Context, username string) (*domain.User, error)
		FindByFederatedID(ctx context.Context, federatedID string) (*domain.User, error)
		SetSecret(ctx context.Context, id, secret string) error
		ListWithSecret(ctx context.Context) ([]*domain.User, error)
	}

	createFn          func(ctx context.Context, user *domain.User) (*domain.User, error)
	findByUsernameFn  func(ctx context.Context, username string) (*domain.User, error)
	findByFederatedFn func(ctx context.Context, federatedID string) (*domain.User, error)
	setSecretFn       func(ctx context.Context, id, secret string) error
	listFn            func(ctx context.Context) ([]*domain.User, error)

	creates    int
	setSecrets int
}

func (r *stubUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.creates++
	if r.createFn != nil {
		return r.createFn(ctx, user)
	}
	return r.base.Create(ctx, user)
}

func (r *stubUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.base.FindByID(ctx, id)
}

func (r *stubUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	if r.findByUsernameFn != nil {
		return r.findByUsernameFn(ctx, username)
	}
	return r.base.FindByUsername(ctx, username)
}

func (r *stubUserRepo) FindByFederatedID(ctx context.Context, federatedID string) (*domain.User, error) {
	if r.findByFederatedFn != nil {
		return r.findByFederatedFn(ctx, federatedID)
	}
	return r.base.FindByFederatedID(ctx, federatedID)
}

func (r *stubUserRepo) SetSecret(ctx context.Context, id, secret string) error {
	r.setSecrets++
	if r.setSecretFn != nil {
		return r.setSecretFn(ctx, id, secret)
	}
	return r.base.SetSecret(ctx, id, secret)
}

func (r *stubUserRepo) ListWithSecret(ctx context.Context) ([]*domain.User, error) {
	if r.listFn != nil {
		return r.listFn(ctx)
	}
	return r.base.ListWithSecret(ctx)
}
