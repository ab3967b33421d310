package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList tells whether a verified token was revoked before expiry.
// Revocations are written by the identity service into the shared Redis.
type RevocationList interface {
	IsRevoked(ctx context.Context, identity *Identity) (bool, error)
}

// RedisRevocationList reads revocations from Redis. Two kinds of keys exist:
// a single token (by jti) and a user-wide cutoff timestamp.
type RedisRevocationList struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisRevocationList creates a revocation list on an existing client
func NewRedisRevocationList(client redis.UniversalClient) *RedisRevocationList {
	return &RedisRevocationList{client: client, keyPrefix: "token:blacklist:"}
}

func (l *RedisRevocationList) jtiKey(jti string) string { return l.keyPrefix + "jti:" + jti }
func (l *RedisRevocationList) userKey(userID string) string { return l.keyPrefix + "user:" + userID }

// Revoke blacklists one token until ttl elapses
func (l *RedisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := l.client.Set(ctx, l.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// RevokeUser rejects every token of the user issued up to now
func (l *RedisRevocationList) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := l.client.Set(ctx, l.userKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// IsRevoked checks the token id first, then the user cutoff
func (l *RedisRevocationList) IsRevoked(ctx context.Context, identity *Identity) (bool, error) {
	if identity.TokenID != "" {
		n, err := l.client.Exists(ctx, l.jtiKey(identity.TokenID)).Result()
		if err != nil {
			return false, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if n > 0 {
			return true, nil
		}
	}

	raw, err := l.client.Get(ctx, l.userKey(identity.UserID.String())).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("malformed revocation timestamp %q: %w", raw, err)
	}
	return !identity.IssuedAt.IsZero() && identity.IssuedAt.Unix() <= cutoff, nil
}

var _ RevocationList = (*RedisRevocationList)(nil)
