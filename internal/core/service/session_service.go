package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/secrets/internal/core/domain"
	"github.com/sirpyerre/secrets/internal/core/ports"
)

const tokenBytes = 32

// SessionService is the Session Manager. Session state lives in the injected
// store; a session expires after idleTimeout without a successful Resolve.
type SessionService struct {
	store       ports.SessionStore
	idleTimeout time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

// NewSessionService returns a SessionService. idleTimeout <= 0 defaults to 24h.
func NewSessionService(store ports.SessionStore, idleTimeout time.Duration, log zerolog.Logger) *SessionService {
	if idleTimeout <= 0 {
		idleTimeout = 24 * time.Hour
	}
	return &SessionService{store: store, idleTimeout: idleTimeout, log: log, now: time.Now}
}

// IdleTimeout is the inactivity window after which sessions expire.
func (s *SessionService) IdleTimeout() time.Duration { return s.idleTimeout }

// Establish stores the identity of user under a new random token.
func (s *SessionService) Establish(ctx context.Context, user *domain.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", domain.ErrInvalidInput
	}
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("establish session: %w", err)
	}
	if err := s.store.Save(ctx, token, domain.IdentityOf(user, s.now().UTC()), s.idleTimeout); err != nil {
		return "", fmt.Errorf("establish session: %w", err)
	}
	s.log.Debug().Str("user_id", user.ID).Msg("session established")
	return token, nil
}

// Resolve returns the identity bound to token, or domain.Anonymous.
func (s *SessionService) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Anonymous, nil
	}
	identity, err := s.store.Load(ctx, token, s.idleTimeout)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.Anonymous, nil
		}
		return domain.Anonymous, fmt.Errorf("resolve session: %w", err)
	}
	return identity, nil
}

// Destroy invalidates token. Destroying an unknown token is a no-op.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
