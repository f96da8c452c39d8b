package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/secrets/internal/core/domain"
	"github.com/sirpyerre/secrets/internal/core/ports"
)

// FederationService resolves provider subjects to local users.
type FederationService struct {
	provider ports.IdentityProvider
	state    ports.HandshakeState
	nonces   ports.NonceStore
	repo     ports.UserRepository
	stateTTL time.Duration
	timeout  time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// FederationOptions bounds the handshake.
type FederationOptions struct {
	// StateTTL is how long an issued state may be redeemed.
	StateTTL time.Duration
	// Timeout bounds the provider exchange.
	Timeout time.Duration
}

// NewFederationService returns a FederationService.
func NewFederationService(
	provider ports.IdentityProvider,
	state ports.HandshakeState,
	nonces ports.NonceStore,
	repo ports.UserRepository,
	opts FederationOptions,
	log zerolog.Logger,
) *FederationService {
	if opts.StateTTL <= 0 {
		opts.StateTTL = 10 * time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &FederationService{
		provider: provider,
		state:    state,
		nonces:   nonces,
		repo:     repo,
		stateTTL: opts.StateTTL,
		timeout:  opts.Timeout,
		log:      log,
		now:      time.Now,
	}
}

// BeginHandshake issues a fresh state and the provider URL carrying it.
func (s *FederationService) BeginHandshake(_ context.Context) (string, string, error) {
	state, err := s.state.Issue()
	if err != nil {
		return "", "", fmt.Errorf("begin handshake: %w", err)
	}
	return s.provider.AuthCodeURL(state), state, nil
}

// CompleteHandshake validates the callback, exchanges the code for a subject
// identifier and returns the matching user, creating it on first login.
// Every failure is reported as domain.ErrHandshakeFailed.
func (s *FederationService) CompleteHandshake(ctx context.Context, cb ports.HandshakeCallback) (*domain.User, error) {
	if cb.Error != "" {
		return nil, s.fail("provider returned error", errors.New(cb.Error))
	}
	if cb.Code == "" || cb.State == "" {
		return nil, s.fail("missing code or state", nil)
	}
	if cb.State != cb.ExpectedState {
		return nil, s.fail("state does not match browser binding", nil)
	}

	nonce, err := s.state.Verify(cb.State)
	if err != nil {
		return nil, s.fail("invalid state", err)
	}
	first, err := s.nonces.Consume(ctx, nonce, s.stateTTL)
	if err != nil {
		return nil, s.fail("nonce store", err)
	}
	if !first {
		return nil, s.fail("state already redeemed", nil)
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	subject, err := s.provider.Subject(exchangeCtx, cb.Code)
	if err != nil {
		return nil, s.fail("provider exchange", err)
	}
	if subject == "" {
		return nil, s.fail("provider returned empty subject", nil)
	}

	user, err := s.findOrCreate(ctx, subject)
	if err != nil {
		return nil, s.fail("resolve local user", err)
	}
	return user, nil
}

func (s *FederationService) findOrCreate(ctx context.Context, subject string) (*domain.User, error) {
	user, err := s.repo.FindByFederatedID(ctx, subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	created, err := s.repo.Create(ctx, domain.NewFederatedUser(subject, s.now().UTC()))
	if err == nil {
		s.log.Info().Str("user_id", created.ID).Msg("federated account created")
		return created, nil
	}
	if !errors.Is(err, domain.ErrDuplicateFederatedID) {
		return nil, err
	}

	// A concurrent completion won the insert; look it up once.
	s.log.Debug().Msg("federated insert lost race, retrying lookup")
	return s.repo.FindByFederatedID(ctx, subject)
}

func (s *FederationService) fail(reason string, cause error) error {
	ev := s.log.Warn().Str("reason", reason)
	if cause != nil {
		ev = ev.Err(cause)
	}
	ev.Msg("federated handshake failed")
	if cause != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrHandshakeFailed, reason, cause)
	}
	return fmt.Errorf("%w: %s", domain.ErrHandshakeFailed, reason)
}
