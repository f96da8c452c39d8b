package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const noncePrefix = "oauth:nonce:"

// NonceStore marks handshake nonces as redeemed.
// Key format: oauth:nonce:<nonce>, expiring after the state TTL.
type NonceStore struct {
	client *redis.Client
}

func NewNonceStore(client *redis.Client) *NonceStore {
	return &NonceStore{client: client}
}

// Consume atomically claims nonce; only the first caller within ttl gets true.
func (n *NonceStore) Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	ok, err := n.client.SetNX(ctx, noncePrefix+nonce, "1", ttl).Result()
	if err != nil {
		return false, storeErr("consume nonce", err)
	}
	return ok, nil
}
