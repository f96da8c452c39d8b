package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sirpyerre/secrets/internal/core/domain"
)

type sessionEntry struct {
	identity  domain.Identity
	expiresAt time.Time
}

// SessionStore keeps sessions in a map with sliding expiry.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]sessionEntry
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]sessionEntry), now: time.Now}
}

// WithClock replaces the store clock.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

func (s *SessionStore) Save(_ context.Context, token string, identity domain.Identity, ttl time.Duration) error {
	s.mu.Lock()
	s.sessions[token] = sessionEntry{identity: identity, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Load(_ context.Context, token string, ttl time.Duration) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[token]
	if !ok {
		return domain.Anonymous, domain.ErrSessionNotFound
	}
	now := s.now()
	if !now.Before(entry.expiresAt) {
		delete(s.sessions, token)
		return domain.Anonymous, domain.ErrSessionNotFound
	}
	entry.expiresAt = now.Add(ttl)
	s.sessions[token] = entry
	return entry.identity, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// NonceStore remembers consumed nonces until they expire.
type NonceStore struct {
	mu     sync.Mutex
	nonces map[string]time.Time
	now    func() time.Time
}

func NewNonceStore() *NonceStore {
	return &NonceStore{nonces: make(map[string]time.Time), now: time.Now}
}

func (n *NonceStore) Consume(_ context.Context, nonce string, ttl time.Duration) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	for k, exp := range n.nonces {
		if !now.Before(exp) {
			delete(n.nonces, k)
		}
	}
	if _, seen := n.nonces[nonce]; seen {
		return false, nil
	}
	n.nonces[nonce] = now.Add(ttl)
	return true, nil
}
