package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"
)

// Store holds rendered responses. A failed Get is a miss.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Close() error
}

// RenderKey generates a consistent cache key for a template and page URL
func RenderKey(template, pageURL string) string {
	hash := sha256.Sum256([]byte(template + "|" + pageURL))
	return fmt.Sprintf("render:%x", hash[:8])
}
