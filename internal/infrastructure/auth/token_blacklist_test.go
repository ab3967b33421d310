package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRevocationList(t *testing.T) (*RedisRevocationList, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRevocationList(client), mr
}

func TestRedisRevocationList(t *testing.T) {
	ctx := context.Background()

	t.Run("revoked token id", func(t *testing.T) {
		list, mr := newRevocationList(t)
		identity := &Identity{UserID: uuid.New(), TokenID: "jti-1", IssuedAt: time.Now()}

		revoked, err := list.IsRevoked(ctx, identity)
		require.NoError(t, err)
		assert.False(t, revoked)

		require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))
		revoked, err = list.IsRevoked(ctx, identity)
		require.NoError(t, err)
		assert.True(t, revoked)

		mr.FastForward(2 * time.Minute)
		revoked, err = list.IsRevoked(ctx, identity)
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("user cutoff rejects older tokens only", func(t *testing.T) {
		list, _ := newRevocationList(t)
		userID := uuid.New()
		old := &Identity{UserID: userID, TokenID: "old", IssuedAt: time.Now().Add(-time.Hour)}
		fresh := &Identity{UserID: userID, TokenID: "fresh", IssuedAt: time.Now().Add(time.Hour)}

		require.NoError(t, list.RevokeUser(ctx, userID.String(), time.Hour))

		revoked, err := list.IsRevoked(ctx, old)
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = list.IsRevoked(ctx, fresh)
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("redis failure surfaces", func(t *testing.T) {
		list, mr := newRevocationList(t)
		mr.Close()
		_, err := list.IsRevoked(ctx, &Identity{UserID: uuid.New(), TokenID: "x"})
		assert.Error(t, err)
	})
}
