package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const DefaultTTL = 5 * time.Minute

// RedisStore keeps one list per visitor under notice:<key>.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(rdb *goredis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, prefix: "notice:", ttl: ttl}
}

func (s *RedisStore) Push(ctx context.Context, key string, n Notice) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	k := s.prefix + key
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.RPush(ctx, k, b)
		p.LTrim(ctx, k, -maxPending, -1)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Drain(ctx context.Context, key string) ([]Notice, error) {
	k := s.prefix + key
	var rng *goredis.StringSliceCmd
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		rng = p.LRange(ctx, k, 0, -1)
		p.Del(ctx, k)
		return nil
	})
	if err != nil {
		return nil, err
	}

	raw := rng.Val()
	out := make([]Notice, 0, len(raw))
	for _, item := range raw {
		var n Notice
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// MemoryStore is the single-replica fallback when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	pending map[string]memEntry
}

type memEntry struct {
	notices []Notice
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, pending: make(map[string]memEntry)}
}

func (s *MemoryStore) Push(_ context.Context, key string, n Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	e := s.pending[key]
	e.notices = append(e.notices, n)
	if len(e.notices) > maxPending {
		e.notices = e.notices[len(e.notices)-maxPending:]
	}
	e.expires = now.Add(s.ttl)
	s.pending[key] = e
	return nil
}

func (s *MemoryStore) Drain(_ context.Context, key string) ([]Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[key]
	delete(s.pending, key)
	if !ok || !s.now().Before(e.expires) {
		return nil, nil
	}
	return e.notices, nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for k, e := range s.pending {
		if !now.Before(e.expires) {
			delete(s.pending, k)
		}
	}
}
