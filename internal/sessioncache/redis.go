// Package sessioncache stores personalization session snapshots in Redis so
// a session can be resumed after a process restart and inspected by ops
// tooling. All writes are best-effort from the engine's point of view.
package sessioncache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iluma/offer-engine/internal/personalization"
)

const keyPrefix = "personalization:session:"

// DefaultTTL is how long an idle session snapshot survives in Redis.
const DefaultTTL = 30 * time.Minute

// RedisCache implements personalization.SnapshotCache on go-redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a cache. A non-positive TTL selects the default.
func New(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return keyPrefix + sessionID
}

// Save writes the snapshot as JSON under the session key, refreshing the TTL.
func (c *RedisCache) Save(ctx context.Context, snap personalization.SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling session snapshot: %w", err)
	}
	if err := c.client.Set(ctx, sessionKey(snap.SessionID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("saving session %s: %w", snap.SessionID, err)
	}
	return nil
}

// Load returns the cached snapshot, or (nil, nil) when the key is absent.
func (c *RedisCache) Load(ctx context.Context, sessionID string) (*personalization.SessionSnapshot, error) {
	data, err := c.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	var snap personalization.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", sessionID, err)
	}
	return &snap, nil
}

// Delete removes the cached snapshot. Deleting a missing key is not an error.
func (c *RedisCache) Delete(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	return nil
}
