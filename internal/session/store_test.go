package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow-workers/internal/models"
)

func TestRedisStore_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client, time.Hour)

	loaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Nil(t, loaded, "unknown session loads as nil")

	sess := &models.Session{
		ID:     "session-1",
		UserID: "user-1",
		LastSearchCriteria: map[string]interface{}{
			"city":      "Phoenix",
			"minEquity": float64(40),
		},
	}
	require.NoError(t, store.Save(ctx, sess))
	assert.False(t, sess.CreatedAt.IsZero())

	loaded, err = store.Load(ctx, "session-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "user-1", loaded.UserID)
	assert.Equal(t, "Phoenix", loaded.LastSearchCriteria["city"])
	assert.Equal(t, float64(40), loaded.LastSearchCriteria["minEquity"])

	assert.Greater(t, mr.TTL(storeKey("session-1")), time.Duration(0))
}

func TestRedisStore_SavePreservesCreatedAt(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client, time.Hour)

	sess := &models.Session{ID: "session-1"}
	require.NoError(t, store.Save(ctx, sess))
	created := sess.CreatedAt

	loaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	loaded.LastSearchCriteria = map[string]interface{}{"city": "Mesa"}
	require.NoError(t, store.Save(ctx, loaded))

	reloaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, created.Unix(), reloaded.CreatedAt.Unix())
	assert.Equal(t, "Mesa", reloaded.LastSearchCriteria["city"])
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	loaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	require.NoError(t, store.Save(ctx, &models.Session{
		ID:                 "session-1",
		LastSearchCriteria: map[string]interface{}{"city": "Tempe"},
	}))

	loaded, err = store.Load(ctx, "session-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Tempe", loaded.LastSearchCriteria["city"])

	// Mutating the loaded copy does not affect the stored session.
	loaded.LastSearchCriteria["city"] = "Chandler"
	reloaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "Tempe", reloaded.LastSearchCriteria["city"])
}
