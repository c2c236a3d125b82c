// internal/session/store.go
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"dealflow-workers/internal/models"
)

const keyPrefix = "dealflow:session:"

// Store persists chat session state between jobs so follow-up requests
// ("find 5 more") can continue from the previous search criteria.
type Store interface {
	Load(ctx context.Context, sessionID string) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session) error
}

// RedisStore keeps one JSON document per session under a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func storeKey(sessionID string) string {
	return keyPrefix + sessionID
}

// Load returns nil without error for an unknown session.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*models.Session, error) {
	data, err := s.client.Get(ctx, storeKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *models.Session) error {
	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, storeKey(sess.ID), data, s.ttl).Err()
}

// MemoryStore is the in-process variant used by tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*models.Session)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *sess
	copied.LastSearchCriteria = cloneCriteria(sess.LastSearchCriteria)
	return &copied, nil
}

func (s *MemoryStore) Save(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now

	copied := *sess
	copied.LastSearchCriteria = cloneCriteria(sess.LastSearchCriteria)
	s.sessions[sess.ID] = &copied
	return nil
}

func cloneCriteria(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
