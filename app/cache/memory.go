package cache

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const DefaultCleanupInterval = 10 * time.Minute

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore(defaultTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(defaultTTL, DefaultCleanupInterval),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool) {
	value, found := s.cache.Get(key)
	if !found {
		return "", false
	}

	v, ok := value.(string)
	if !ok {
		slog.Error("Unexpected cache value type", "key", key)
		return "", false
	}

	slog.Debug("Cache hit", "key", key)
	return v, true
}

func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) {
	s.cache.Set(key, value, ttl)
}

func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}
