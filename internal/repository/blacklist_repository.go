package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// BlacklistRepository tracks no-show counts and temporary admission bans
// per requester identity. Expiry is re-checked on every admission attempt,
// so no background sweeper is needed.
type BlacklistRepository interface {
	// RegisterNoShow increments the identity's rolling no-show counter and
	// returns the new count.
	RegisterNoShow(ctx context.Context, identity string) (int, error)
	// Blacklist bans the identity until the given instant and resets the
	// no-show counter.
	Blacklist(ctx context.Context, identity string, until time.Time) error
	// BlacklistedUntil returns the active ban expiry, or nil when the
	// identity is not (or no longer) banned.
	BlacklistedUntil(ctx context.Context, identity string) (*time.Time, error)
}

const (
	noShowKeyPrefix    = "queue:noshow:"
	blacklistKeyPrefix = "queue:blacklist:"
	noShowWindow       = 30 * 24 * time.Hour
)

type redisBlacklistRepository struct {
	client *redis.Client
}

// NewRedisBlacklistRepository stores counters and bans in Redis with TTLs
// matching the ban window.
func NewRedisBlacklistRepository(client *redis.Client) BlacklistRepository {
	return &redisBlacklistRepository{client: client}
}

func (r *redisBlacklistRepository) RegisterNoShow(ctx context.Context, identity string) (int, error) {
	key := noShowKeyPrefix + identity
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// First strike opens the rolling window.
	if count == 1 {
		_ = r.client.Expire(ctx, key, noShowWindow).Err()
	}
	return int(count), nil
}

func (r *redisBlacklistRepository) Blacklist(ctx context.Context, identity string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, blacklistKeyPrefix+identity, until.Format(time.RFC3339), ttl).Err(); err != nil {
		return err
	}
	return r.client.Del(ctx, noShowKeyPrefix+identity).Err()
}

func (r *redisBlacklistRepository) BlacklistedUntil(ctx context.Context, identity string) (*time.Time, error) {
	value, err := r.client.Get(ctx, blacklistKeyPrefix+identity).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	until, err := time.Parse(time.RFC3339, value)
	if err != nil {
		// Unreadable entry: treat as absent rather than blocking admission.
		return nil, nil
	}
	if !until.After(time.Now()) {
		return nil, nil
	}
	return &until, nil
}

type memoryBlacklistRepository struct {
	mu      sync.Mutex
	noShows map[string]int
	bans    map[string]time.Time
}

// NewMemoryBlacklistRepository is the in-process fallback used by tests
// and DSN-less runs.
func NewMemoryBlacklistRepository() BlacklistRepository {
	return &memoryBlacklistRepository{
		noShows: make(map[string]int),
		bans:    make(map[string]time.Time),
	}
}

func (r *memoryBlacklistRepository) RegisterNoShow(ctx context.Context, identity string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.noShows[identity]++
	return r.noShows[identity], nil
}

func (r *memoryBlacklistRepository) Blacklist(ctx context.Context, identity string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bans[identity] = until
	delete(r.noShows, identity)
	return nil
}

func (r *memoryBlacklistRepository) BlacklistedUntil(ctx context.Context, identity string) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.bans[identity]
	if !ok {
		return nil, nil
	}
	if !until.After(time.Now()) {
		delete(r.bans, identity)
		return nil, nil
	}
	return &until, nil
}
