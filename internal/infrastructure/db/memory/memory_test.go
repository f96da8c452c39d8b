package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirpyerre/secrets/internal/core/domain"
)

func TestUserRepository_UniqueUsername(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := repo.Create(ctx, domain.NewLocalUser("alice", "hash-1", now))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, domain.NewLocalUser("alice", "hash-2", now)); !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	got, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != first.ID || got.PasswordHash != "hash-1" {
		t.Fatalf("original account changed: %+v", got)
	}
}

func TestUserRepository_ConcurrentFederatedCreate(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created, dup := 0, 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, domain.NewFederatedUser("sub-1", time.Now()))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrDuplicateFederatedID):
				dup++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || dup != 31 {
		t.Fatalf("expected 1 created and 31 duplicates, got %d and %d", created, dup)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected 1 stored user, got %d", repo.Len())
	}
}

func TestUserRepository_SecretsListedInOrder(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	a, _ := repo.Create(ctx, domain.NewLocalUser("a", "h", now))
	_, _ = repo.Create(ctx, domain.NewLocalUser("b", "h", now))
	c, _ := repo.Create(ctx, domain.NewFederatedUser("sub-c", now))

	if err := repo.SetSecret(ctx, c.ID, "third"); err != nil {
		t.Fatalf("set secret: %v", err)
	}
	if err := repo.SetSecret(ctx, a.ID, "first"); err != nil {
		t.Fatalf("set secret: %v", err)
	}
	if err := repo.SetSecret(ctx, a.ID, "overwritten"); err != nil {
		t.Fatalf("set secret: %v", err)
	}
	if err := repo.SetSecret(ctx, "missing", "x"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	users, err := repo.ListWithSecret(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 || users[0].Secret != "overwritten" || users[1].Secret != "third" {
		t.Fatalf("unexpected listing: %+v", users)
	}
}

func TestSessionStore_SlidingExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewSessionStore().WithClock(func() time.Time { return now })
	ctx := context.Background()
	ttl := time.Minute

	if err := store.Save(ctx, "tok", domain.Identity{UserID: "1"}, ttl); err != nil {
		t.Fatalf("save: %v", err)
	}

	now = now.Add(50 * time.Second)
	if _, err := store.Load(ctx, "tok", ttl); err != nil {
		t.Fatalf("load before expiry: %v", err)
	}

	// Load refreshed the deadline.
	now = now.Add(50 * time.Second)
	if _, err := store.Load(ctx, "tok", ttl); err != nil {
		t.Fatalf("load after refresh: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := store.Load(ctx, "tok", ttl); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after idle window, got %v", err)
	}
}

func TestNonceStore_Consume(t *testing.T) {
	n := NewNonceStore()
	ctx := context.Background()

	first, _ := n.Consume(ctx, "abc", time.Minute)
	second, _ := n.Consume(ctx, "abc", time.Minute)
	if !first || second {
		t.Fatalf("expected first=true second=false, got %v %v", first, second)
	}
}
