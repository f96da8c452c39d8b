package ports

import (
	"context"
	"time"

	"github.com/sirpyerre/secrets/internal/core/domain"
)

// SessionStore holds server-side session state keyed by an opaque token.
type SessionStore interface {
	// Save stores identity under token, expiring after ttl of inactivity.
	Save(ctx context.Context, token string, identity domain.Identity, ttl time.Duration) error
	// Load returns the identity for token and refreshes its ttl.
	// A missing or expired token yields domain.ErrSessionNotFound.
	Load(ctx context.Context, token string, ttl time.Duration) (domain.Identity, error)
	Delete(ctx context.Context, token string) error
}

// NonceStore records single-use values.
type NonceStore interface {
	// Consume reports true the first time nonce is seen within ttl.
	Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error)
}
