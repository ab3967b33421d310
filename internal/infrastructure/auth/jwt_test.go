package auth

import (
	"testing"
	"time"

	"github.com/gestock/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{Secret: "test-secret-at-least-32-characters!", Issuer: "gestock"})
}

func TestJWTService_IssueAndVerify(t *testing.T) {
	svc := newTestService()
	tenantID, userID := uuid.New(), uuid.New()

	token, err := svc.Issue(IssueInput{TenantID: tenantID, UserID: userID, Username: "Awa Diop"})
	require.NoError(t, err)

	identity, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, tenantID, identity.TenantID)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "Awa Diop", identity.Actor())
	assert.NotEmpty(t, identity.TokenID)
	assert.WithinDuration(t, time.Now(), identity.IssuedAt, 2*time.Second)
}

func TestJWTService_Verify_Rejects(t *testing.T) {
	svc := newTestService()

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func() *Claims {
		now := time.Now()
		return &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "gestock",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			},
			TenantID: uuid.NewString(),
			UserID:   uuid.NewString(),
		}
	}
	secret := []byte("test-secret-at-least-32-characters!")

	t.Run("expired", func(t *testing.T) {
		c := valid()
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		_, err := svc.Verify(sign(c, jwt.SigningMethodHS256, secret))
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := svc.Verify(sign(valid(), jwt.SigningMethodHS256, []byte("another-secret-another-secret!!!")))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		_, err := svc.Verify(sign(valid(), jwt.SigningMethodHS512, secret))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := valid()
		c.Issuer = "someone-else"
		_, err := svc.Verify(sign(c, jwt.SigningMethodHS256, secret))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing tenant", func(t *testing.T) {
		c := valid()
		c.TenantID = ""
		_, err := svc.Verify(sign(c, jwt.SigningMethodHS256, secret))
		assert.ErrorIs(t, err, ErrMissingTenantID)
	})

	t.Run("missing user", func(t *testing.T) {
		c := valid()
		c.UserID = ""
		_, err := svc.Verify(sign(c, jwt.SigningMethodHS256, secret))
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("malformed tenant", func(t *testing.T) {
		c := valid()
		c.TenantID = "boutique-1"
		_, err := svc.Verify(sign(c, jwt.SigningMethodHS256, secret))
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestIdentity_Actor(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id.String(), Identity{UserID: id}.Actor())
}
