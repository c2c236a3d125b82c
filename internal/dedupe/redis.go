// internal/dedupe/redis.go
package dedupe

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const shownKeyPrefix = "dealflow:shown:"

// RedisTracker shares shown-lead state across workers so that
// excludedPropertyIds built in one job reflects leads presented by another.
// The TTL bounds abandoned sessions; within a live session the set only
// grows.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTracker(client *redis.Client, ttl time.Duration) *RedisTracker {
	return &RedisTracker{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return shownKeyPrefix + sessionID
}

func (t *RedisTracker) HasShown(ctx context.Context, sessionID, id string) (bool, error) {
	return t.client.SIsMember(ctx, sessionKey(sessionID), id).Result()
}

func (t *RedisTracker) MarkShown(ctx context.Context, sessionID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	key := sessionKey(sessionID)
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}

	if err := t.client.SAdd(ctx, key, members...).Err(); err != nil {
		return err
	}
	if t.ttl > 0 {
		return t.client.Expire(ctx, key, t.ttl).Err()
	}
	return nil
}

func (t *RedisTracker) AllShown(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := t.client.SMembers(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
