package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/industrieimport/storefront/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Cache maps a session token to the user the shop API resolved it to.
type Cache interface {
	Get(ctx context.Context, token string) (*domain.User, bool, error)
	Set(ctx context.Context, token string, u domain.User, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

// tokenKey hashes the token so raw credentials never end up as Redis keys.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type RedisCache struct {
	rdb    *goredis.Client
	prefix string
}

func NewRedisCache(rdb *goredis.Client) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: "sess:"}
}

func (c *RedisCache) Get(ctx context.Context, token string) (*domain.User, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		// corrupt entry; treat as a miss and let the lookup overwrite it
		return nil, false, nil
	}
	return &u, true, nil
}

func (c *RedisCache) Set(ctx context.Context, token string, u domain.User, ttl time.Duration) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+tokenKey(token), b, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, c.prefix+tokenKey(token)).Err()
}

// MemoryCache backs a single replica when Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	now     func() time.Time
	entries map[string]memEntry
}

type memEntry struct {
	user    domain.User
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now, entries: make(map[string]memEntry)}
}

func (c *MemoryCache) Get(_ context.Context, token string) (*domain.User, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[tokenKey(token)]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return nil, false, nil
	}
	u := e.user
	return &u, true, nil
}

func (c *MemoryCache) Set(_ context.Context, token string, u domain.User, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[tokenKey(token)] = memEntry{user: u, expires: now.Add(ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, token string) error {
	c.mu.Lock()
	delete(c.entries, tokenKey(token))
	c.mu.Unlock()
	return nil
}
