package ports

import "context"

// IdentityProvider is an external OAuth2 provider.
type IdentityProvider interface {
	// AuthCodeURL returns the provider authorization URL carrying state.
	AuthCodeURL(state string) string
	// Subject exchanges an authorization code for the provider's subject identifier.
	Subject(ctx context.Context, code string) (string, error)
}

// HandshakeState issues and verifies the opaque state parameter of a handshake.
type HandshakeState interface {
	Issue() (string, error)
	// Verify checks state and returns its single-use nonce.
	Verify(state string) (string, error)
}
