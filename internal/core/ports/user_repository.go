package ports

import (
	"context"

	"github.com/sirpyerre/secrets/internal/core/domain"
)

// UserRepository is the User Record Store. Implementations must enforce
// uniqueness of Username and FederatedID when present, reporting a violation
// as domain.ErrDuplicateUsername or domain.ErrDuplicateFederatedID.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByFederatedID(ctx context.Context, federatedID string) (*domain.User, error)
	// SetSecret overwrites the secret of the user with the given id.
	SetSecret(ctx context.Context, id, secret string) error
	// ListWithSecret returns every user whose secret is set, oldest first.
	ListWithSecret(ctx context.Context) ([]*domain.User, error)
}
