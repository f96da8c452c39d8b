package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/secrets/internal/core/domain"
	"github.com/sirpyerre/secrets/internal/core/ports"
)

// MaxSecretLength caps a submitted secret, in characters.
const MaxSecretLength = 1000

type SecretService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewSecretService(repo ports.UserRepository, log zerolog.Logger) *SecretService {
	return &SecretService{repo: repo, log: log}
}

// ListSecrets returns the secret of every user that has one. Owners are not exposed.
func (s *SecretService) ListSecrets(ctx context.Context) ([]string, error) {
	users, err := s.repo.ListWithSecret(ctx)
	if err != nil {
		return nil, err
	}
	secrets := make([]string, 0, len(users))
	for _, u := range users {
		if u.HasSecret() {
			secrets = append(secrets, u.Secret)
		}
	}
	return secrets, nil
}

// Submit replaces the secret of the authenticated user.
func (s *SecretService) Submit(ctx context.Context, identity domain.Identity, secret string) error {
	if identity.IsAnonymous() {
		return domain.ErrUnauthorized
	}
	secret = strings.TrimSpace(secret)
	if secret == "" || utf8.RuneCountInString(secret) > MaxSecretLength {
		return domain.ErrInvalidInput
	}

	if err := s.repo.SetSecret(ctx, identity.UserID, secret); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// The session outlived its user record.
			s.log.Warn().Str("user_id", identity.UserID).Msg("secret submitted for missing user")
			return domain.ErrUnauthorized
		}
		return err
	}

	s.log.Info().Str("user_id", identity.UserID).Msg("secret submitted")
	return nil
}
