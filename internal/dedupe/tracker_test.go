package dedupe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealflow-workers/internal/models"
)

func TestLeadKey(t *testing.T) {
	rec := models.PropertyRecord{Address: "123 Main St", OwnerName: "Jane Doe"}

	assert.Equal(t, "123 Main St_Jane Doe", LeadKey(rec, KeyByOwner, "conv-1"))
	assert.Equal(t, "123 Main St_conv-1", LeadKey(rec, KeyByConversation, "conv-1"))
}

func TestMemoryTracker(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryTracker()

	shown, err := tracker.HasShown(ctx, "session-1", "123 Main St_Jane Doe")
	require.NoError(t, err)
	assert.False(t, shown)

	require.NoError(t, tracker.MarkShown(ctx, "session-1", "123 Main St_Jane Doe"))

	shown, err = tracker.HasShown(ctx, "session-1", "123 Main St_Jane Doe")
	require.NoError(t, err)
	assert.True(t, shown)

	// Sessions are isolated.
	shown, err = tracker.HasShown(ctx, "session-2", "123 Main St_Jane Doe")
	require.NoError(t, err)
	assert.False(t, shown)
}

// The shown set only grows within a session.
func TestMemoryTracker_Monotonic(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryTracker()

	prev := 0
	ids := []string{"a_1", "b_2", "c_3", "a_1", "d_4"}
	for _, id := range ids {
		require.NoError(t, tracker.MarkShown(ctx, "session-1", id))
		all, err := tracker.AllShown(ctx, "session-1")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), prev)
		prev = len(all)
	}

	all, err := tracker.AllShown(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_1", "b_2", "c_3", "d_4"}, all)
}

func TestRedisTracker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	tracker := NewRedisTracker(client, time.Hour)

	shown, err := tracker.HasShown(ctx, "session-1", "123 Main St_conv-1")
	require.NoError(t, err)
	assert.False(t, shown)

	require.NoError(t, tracker.MarkShown(ctx, "session-1", "123 Main St_conv-1", "456 Pine Ave_conv-1"))

	shown, err = tracker.HasShown(ctx, "session-1", "123 Main St_conv-1")
	require.NoError(t, err)
	assert.True(t, shown)

	all, err := tracker.AllShown(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"123 Main St_conv-1", "456 Pine Ave_conv-1"}, all)

	assert.Greater(t, mr.TTL(sessionKey("session-1")), time.Duration(0))
}

func TestRedisTracker_MarkShownEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	tracker := NewRedisTracker(client, time.Hour)
	require.NoError(t, tracker.MarkShown(context.Background(), "session-1"))
}

func TestRedisTracker_ErrorsPropagate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer client.Close()

	ctx := context.Background()
	tracker := NewRedisTracker(client, time.Hour)
	key := sessionKey("session-1")
	connErr := errors.New("connection refused")

	mock.ExpectSIsMember(key, "id-1").SetErr(connErr)
	_, err := tracker.HasShown(ctx, "session-1", "id-1")
	assert.ErrorIs(t, err, connErr)

	mock.ExpectSAdd(key, "id-1").SetErr(connErr)
	assert.ErrorIs(t, tracker.MarkShown(ctx, "session-1", "id-1"), connErr)

	mock.ExpectSMembers(key).SetErr(connErr)
	_, err = tracker.AllShown(ctx, "session-1")
	assert.ErrorIs(t, err, connErr)

	require.NoError(t, mock.ExpectationsWereMet())
}
