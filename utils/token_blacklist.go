package utils

import (
	"context"
	"time"

	"github.com/cppla/yatube/cache"
)

const blacklistPrefix = "jwt:blacklist:"

// BlacklistToken revokes token until its natural expiration.
func BlacklistToken(ctx context.Context, store cache.Store, token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if err := store.Set(ctx, blacklistPrefix+token, []byte("1"), ttl); err != nil {
		Sugar.Warnw("token blacklist write failed", "err", err)
	}
}

// IsTokenBlacklisted checks if a token was revoked before natural expiration.
// Store errors read as "not revoked" to avoid locking everybody out.
func IsTokenBlacklisted(ctx context.Context, store cache.Store, token string) bool {
	_, ok := store.Get(ctx, blacklistPrefix+token)
	return ok
}
