// Package cache provides the byte store behind the page cache and the token blacklist.
package cache

import (
	"context"
	"time"
)

// Store is a process-wide keyed byte cache with per-entry expiry.
type Store interface {
	// Get returns the value for key and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key for ttl. A non-positive ttl uses DefaultTTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear drops every entry owned by the store.
	Clear(ctx context.Context) error
}

// DefaultTTL applies when Set is called without a positive ttl.
const DefaultTTL = time.Hour

// Stores separates the rendered page cache from the token blacklist, so
// clearing pages never forgets a revoked token.
type Stores struct {
	Pages  Store
	Tokens Store
}
