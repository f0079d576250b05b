package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IDedupStore remembers recently accepted inquiry submissions so exact
// repeats within the window can be rejected. State here is advisory: losing
// it on restart only means a duplicate slips through.
type IDedupStore interface {
	// CheckAndRecord returns true if the key was already recorded within the
	// window. Otherwise it records the key with the current time and returns false.
	CheckAndRecord(ctx context.Context, key string) (bool, error)
}

// DedupKey builds the composite identity an inquiry is deduplicated on.
func DedupKey(ip, name, email, message string) string {
	return strings.Join([]string{ip, name, email, message}, "||")
}

// hashKey keeps storage keys bounded; messages can be up to 5000 chars.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// --- In-memory implementation (single-instance deployments) ---

// memoryDedupStore keeps recent keys in a mutex-guarded map with lazy
// eviction. With multiple API instances each holds its own state, so
// duplicates split across instances are not caught; use the Redis store
// for horizontally scaled deployments.
type memoryDedupStore struct {
	mu     sync.Mutex
	recent map[string]time.Time
	window time.Duration
	now    func() time.Time
}

// NewMemoryDedupStore creates an in-memory dedup store.
func NewMemoryDedupStore(window time.Duration) IDedupStore {
	return &memoryDedupStore{
		recent: make(map[string]time.Time),
		window: window,
		now:    time.Now,
	}
}

func (s *memoryDedupStore) CheckAndRecord(_ context.Context, key string) (bool, error) {
	hashed := hashKey(key)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Lazy eviction of expired entries; the map only ever holds keys seen
	// within the last window.
	for k, ts := range s.recent {
		if now.Sub(ts) > s.window {
			delete(s.recent, k)
		}
	}

	if _, dup := s.recent[hashed]; dup {
		return true, nil
	}
	s.recent[hashed] = now
	return false, nil
}

// --- Redis implementation (shared across instances) ---

type redisDedupStore struct {
	client *redis.Client
	window time.Duration
}

// NewRedisDedupStore creates a dedup store backed by Redis SETNX with TTL,
// shared by all API instances.
func NewRedisDedupStore(client *redis.Client, window time.Duration) IDedupStore {
	return &redisDedupStore{client: client, window: window}
}

func (s *redisDedupStore) CheckAndRecord(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("inquiry:dedup:%s", hashKey(key))
	set, err := s.client.SetNX(ctx, redisKey, 1, s.window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record dedup key: %w", err)
	}
	// SETNX returns false when the key already exists, i.e. a duplicate.
	return !set, nil
}
