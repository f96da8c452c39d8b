package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sirpyerre/secrets/internal/core/domain"
	"github.com/sirpyerre/secrets/internal/core/ports"
)

// MaxPasswordBytes is bcrypt's input limit. Longer passwords are rejected
// rather than truncated.
const MaxPasswordBytes = 72

// CredentialService implements local registration and verification.
type CredentialService struct {
	repo ports.UserRepository
	cost int
	log  zerolog.Logger
	now  func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewCredentialService returns a CredentialService hashing with the given
// bcrypt cost. A cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewCredentialService(repo ports.UserRepository, cost int, log zerolog.Logger) *CredentialService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialService{repo: repo, cost: cost, log: log, now: time.Now}
}

// Register creates a local account. A taken username yields
// domain.ErrDuplicateUsername and leaves the existing account untouched.
func (s *CredentialService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || len(password) > MaxPasswordBytes {
		return nil, domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, domain.ErrInvalidInput
		}
		return nil, err
	}

	created, err := s.repo.Create(ctx, domain.NewLocalUser(username, string(hash), s.now().UTC()))
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			s.log.Info().Str("username", username).Msg("registration rejected: username taken")
		} else {
			s.log.Error().Err(err).Str("username", username).Msg("registration failed")
		}
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Msg("local account registered")
	return created, nil
}

// Verify checks a username and password pair. Unknown users and wrong
// passwords both yield domain.ErrInvalidCredentials; store failures are
// returned as-is so the caller can tell them apart from bad input.
func (s *CredentialService) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		// Spend the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		s.log.Warn().Err(err).Str("username", username).Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsLocal() {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		s.log.Warn().Str("user_id", user.ID).Msg("login rejected: account has no local password")
		return nil, domain.ErrInvalidCredentials
	}

	// bcrypt only compares the first MaxPasswordBytes bytes.
	if len(password) > MaxPasswordBytes {
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password[:MaxPasswordBytes]))
		s.log.Warn().Str("user_id", user.ID).Msg("login rejected: password too long")
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("login rejected")
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

func (s *CredentialService) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
