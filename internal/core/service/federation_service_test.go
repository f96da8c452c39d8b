package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/secrets/internal/core/domain"
	"github.com/sirpyerre/secrets/internal/core/ports"
	"github.com/sirpyerre/secrets/internal/infrastructure/db/memory"
)

type stubProvider struct {
	subjectFn func(ctx context.Context, code string) (string, error)
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://provider.test/auth?scope=profile&state=" + state
}

func (p *stubProvider) Subject(ctx context.Context, code string) (string, error) {
	return p.subjectFn(ctx, code)
}

// stubState issues "state-N" and maps it back to nonce "nonce-N".
type stubState struct {
	mu  sync.Mutex
	n   int
	err error
}

func (s *stubState) Issue() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "state-" + strconv.Itoa(s.n), nil
}

func (s *stubState) Verify(state string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if !strings.HasPrefix(state, "state-") {
		return "", errors.New("forged")
	}
	return "nonce-" + strings.TrimPrefix(state, "state-"), nil
}

func subjectFor(sub string) *stubProvider {
	return &stubProvider{subjectFn: func(context.Context, string) (string, error) { return sub, nil }}
}

func newFederationSvc(provider ports.IdentityProvider, repo ports.UserRepository) *FederationService {
	return NewFederationService(provider, &stubState{}, memory.NewNonceStore(), repo,
		FederationOptions{StateTTL: time.Minute, Timeout: time.Second}, zerolog.Nop())
}

func begin(t *testing.T, svc *FederationService) string {
	t.Helper()
	url, state, err := svc.BeginHandshake(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !strings.Contains(url, "state="+state) || !strings.Contains(url, "scope=profile") {
		t.Fatalf("unexpected redirect url: %s", url)
	}
	return state
}

func callback(state string) ports.HandshakeCallback {
	return ports.HandshakeCallback{State: state, ExpectedState: state, Code: "code"}
}

func TestFederationService_NewSubjectCreatesUser(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := newFederationSvc(subjectFor("google-123"), repo)

	user, err := svc.CompleteHandshake(context.Background(), callback(begin(t, svc)))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if user.FederatedID != "google-123" || user.Username != "" || user.PasswordHash != "" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected 1 user, got %d", repo.Len())
	}
}

func TestFederationService_KnownSubjectReused(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := newFederationSvc(subjectFor("google-123"), repo)
	ctx := context.Background()

	first, err := svc.CompleteHandshake(ctx, callback(begin(t, svc)))
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := svc.CompleteHandshake(ctx, callback(begin(t, svc)))
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same user, got %s and %s", first.ID, second.ID)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected 1 user, got %d", repo.Len())
	}
}

func TestFederationService_ConcurrentFirstLogins(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := newFederationSvc(subjectFor("google-race"), repo)
	ctx := context.Background()

	const n = 16
	states := make([]string, n)
	for i := range states {
		_, states[i], _ = svc.BeginHandshake(ctx)
	}

	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := svc.CompleteHandshake(ctx, callback(states[i]))
			if err != nil {
				t.Errorf("complete %d: %v", i, err)
				return
			}
			ids[i] = u.ID
		}(i)
	}
	wg.Wait()

	if repo.Len() != 1 {
		t.Fatalf("expected exactly 1 user, got %d", repo.Len())
	}
	for i, id := range ids {
		if id != ids[0] {
			t.Fatalf("completion %d resolved to %s, want %s", i, id, ids[0])
		}
	}
}

func TestFederationService_LostRaceRetriesLookupOnce(t *testing.T) {
	winner := &domain.User{ID: "w", FederatedID: "sub"}
	lookups := 0
	repo := &stubUserRepo{
		base: memory.NewUserRepository(),
		findByFederatedFn: func(context.Context, string) (*domain.User, error) {
			lookups++
			if lookups == 1 {
				return nil, domain.ErrUserNotFound
			}
			return winner, nil
		},
		createFn: func(context.Context, *domain.User) (*domain.User, error) {
			return nil, domain.ErrDuplicateFederatedID
		},
	}
	svc := newFederationSvc(subjectFor("sub"), repo)

	user, err := svc.CompleteHandshake(context.Background(), callback(begin(t, svc)))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if user.ID != "w" || lookups != 2 {
		t.Fatalf("expected winner after one retry, got %+v after %d lookups", user, lookups)
	}
}

func TestFederationService_LostRaceRetryMissSurfacesFailure(t *testing.T) {
	repo := &stubUserRepo{
		base: memory.NewUserRepository(),
		findByFederatedFn: func(context.Context, string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
		createFn: func(context.Context, *domain.User) (*domain.User, error) {
			return nil, domain.ErrDuplicateFederatedID
		},
	}
	svc := newFederationSvc(subjectFor("sub"), repo)

	if _, err := svc.CompleteHandshake(context.Background(), callback(begin(t, svc))); !errors.Is(err, domain.ErrHandshakeFailed) {
		t.Fatalf("expected ErrHandshakeFailed, got %v", err)
	}
	if repo.creates != 1 {
		t.Fatalf("expected a single insert attempt, got %d", repo.creates)
	}
}

func TestFederationService_Failures(t *testing.T) {
	providerErr := &stubProvider{subjectFn: func(context.Context, string) (string, error) {
		return "", errors.New("connection reset")
	}}
	slow := &stubProvider{subjectFn: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}

	cases := []struct {
		name     string
		provider ports.IdentityProvider
		mutate   func(cb ports.HandshakeCallback) ports.HandshakeCallback
	}{
		{"provider error param", subjectFor("x"), func(cb ports.HandshakeCallback) ports.HandshakeCallback {
			cb.Error = "access_denied"
			return cb
		}},
		{"missing code", subjectFor("x"), func(cb ports.HandshakeCallback) ports.HandshakeCallback {
			cb.Code = ""
			return cb
		}},
		{"state not bound to browser", subjectFor("x"), func(cb ports.HandshakeCallback) ports.HandshakeCallback {
			cb.ExpectedState = "state-other"
			return cb
		}},
		{"forged state", subjectFor("x"), func(cb ports.HandshakeCallback) ports.HandshakeCallback {
			cb.State, cb.ExpectedState = "forged", "forged"
			return cb
		}},
		{"transport failure", providerErr, nil},
		{"empty subject", subjectFor(""), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := memory.NewUserRepository()
			svc := newFederationSvc(tc.provider, repo)
			cb := callback(begin(t, svc))
			if tc.mutate != nil {
				cb = tc.mutate(cb)
			}
			if _, err := svc.CompleteHandshake(context.Background(), cb); !errors.Is(err, domain.ErrHandshakeFailed) {
				t.Fatalf("expected ErrHandshakeFailed, got %v", err)
			}
			if repo.Len() != 0 {
				t.Fatalf("failed handshake must not create users")
			}
		})
	}

	t.Run("provider timeout", func(t *testing.T) {
		svc := NewFederationService(slow, &stubState{}, memory.NewNonceStore(), memory.NewUserRepository(),
			FederationOptions{Timeout: 20 * time.Millisecond}, zerolog.Nop())
		_, state, _ := svc.BeginHandshake(context.Background())

		start := time.Now()
		if _, err := svc.CompleteHandshake(context.Background(), callback(state)); !errors.Is(err, domain.ErrHandshakeFailed) {
			t.Fatalf("expected ErrHandshakeFailed, got %v", err)
		}
		if time.Since(start) > time.Second {
			t.Fatalf("timeout was not enforced")
		}
	})
}

func TestFederationService_StateIsSingleUse(t *testing.T) {
	svc := newFederationSvc(subjectFor("sub"), memory.NewUserRepository())
	ctx := context.Background()
	cb := callback(begin(t, svc))

	if _, err := svc.CompleteHandshake(ctx, cb); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if _, err := svc.CompleteHandshake(ctx, cb); !errors.Is(err, domain.ErrHandshakeFailed) {
		t.Fatalf("expected replay to fail, got %v", err)
	}
}
