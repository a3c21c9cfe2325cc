// internal/pkg/auth/denylist.go
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist tracks revoked access tokens in Redis until they expire on
// their own. Logout is the only writer.
type Denylist struct {
	redisClient *redis.Client
}

// NewDenylist creates a new token denylist
func NewDenylist(redisClient *redis.Client) *Denylist {
	return &Denylist{
		redisClient: redisClient,
	}
}

func denylistKey(token string) string {
	return fmt.Sprintf("token_denylist:%s", token)
}

// Revoke marks a token as revoked for the remainder of its lifetime
func (d *Denylist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired, nothing to store
		return nil
	}
	return d.redisClient.Set(ctx, denylistKey(token), "revoked", ttl).Err()
}

// IsRevoked reports whether a token has been revoked. Redis being down
// fails open so authentication still works without revocation.
func (d *Denylist) IsRevoked(ctx context.Context, token string) bool {
	count, err := d.redisClient.Exists(ctx, denylistKey(token)).Result()
	if err != nil {
		return false
	}
	return count > 0
}
