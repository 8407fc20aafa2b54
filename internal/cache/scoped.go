package cache

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ScopedStore is a string key/value view of the cache confined to one
// visitor session. Keys are namespaced by a hash of the session id so raw
// session tokens never appear in Redis.
type ScopedStore struct {
	cache  *Cache
	prefix string
	ttl    time.Duration
}

func NewScopedStore(c *Cache, namespace, sessionID string, ttl time.Duration) *ScopedStore {
	return &ScopedStore{
		cache:  c,
		prefix: namespace + ":" + SessionHash(sessionID) + ":",
		ttl:    ttl,
	}
}

// SessionHash is the short, stable form of a session id used in keys.
func SessionHash(sessionID string) string {
	sum := blake2b.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:12])
}

// Get reports ok=false on a miss rather than an error.
func (s *ScopedStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.cache.Get(ctx, s.prefix+key)
	if errors.Is(err, ErrCacheMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set writes the value and refreshes the session TTL.
func (s *ScopedStore) Set(ctx context.Context, key, value string) error {
	return s.cache.Set(ctx, s.prefix+key, value, s.ttl)
}
