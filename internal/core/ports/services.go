package ports

import (
	"context"

	"github.com/sirpyerre/secrets/internal/core/domain"
)

// CredentialService registers and verifies local accounts.
type CredentialService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Verify(ctx context.Context, username, password string) (*domain.User, error)
}

// HandshakeCallback is the provider callback payload.
type HandshakeCallback struct {
	State string
	Code  string
	// Error is the provider-reported error parameter, if any.
	Error string
	// ExpectedState is the state previously bound to the browser.
	ExpectedState string
}

// FederationService drives the federated identity handshake.
type FederationService interface {
	// BeginHandshake returns the redirect URL and the state bound to it.
	BeginHandshake(ctx context.Context) (redirectURL, state string, err error)
	CompleteHandshake(ctx context.Context, cb HandshakeCallback) (*domain.User, error)
}

// SessionService is the Session Manager.
type SessionService interface {
	Establish(ctx context.Context, user *domain.User) (string, error)
	// Resolve returns domain.Anonymous for an unknown, expired or empty token.
	Resolve(ctx context.Context, token string) (domain.Identity, error)
	Destroy(ctx context.Context, token string) error
}

// SecretService lists and submits secrets.
type SecretService interface {
	ListSecrets(ctx context.Context) ([]string, error)
	Submit(ctx context.Context, identity domain.Identity, secret string) error
}
