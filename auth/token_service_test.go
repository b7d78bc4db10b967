package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/auth"
)

func TestTokenServiceGenerate(t *testing.T) {
	cfg := newTestConfig()
	service := auth.NewTokenService(cfg, nil)

	t.Run("issues a signed token carrying the subject", func(t *testing.T) {
		tokenString, err := service.Generate("pepe", time.Minute)
		require.NoError(t, err)
		require.NotEmpty(t, tokenString)

		token, err := jwt.ParseWithClaims(tokenString, &auth.JWTClaims{}, func(token *jwt.Token) (any, error) {
			return []byte(cfg.GetSigningKey()), nil
		})
		require.NoError(t, err)
		assert.True(t, token.Valid)

		claims, ok := token.Claims.(*auth.JWTClaims)
		require.True(t, ok)
		assert.Equal(t, "pepe", claims.Subject())
	})

	t.Run("falls back to the default TTL", func(t *testing.T) {
		before := time.Now()
		tokenString, err := service.Generate("pepe", 0)
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)

		expected := before.Add(cfg.GetTokenTTL())
		assert.WithinDuration(t, expected, claims.Expires(), 2*time.Second)
	})

	t.Run("honors an explicit TTL", func(t *testing.T) {
		before := time.Now()
		tokenString, err := service.Generate("pepe", time.Hour)
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)

		expected := before.Add(time.Hour)
		assert.WithinDuration(t, expected, claims.Expires(), 2*time.Second)
	})
}

func TestTokenServiceValidate(t *testing.T) {
	cfg := newTestConfig()
	service := auth.NewTokenService(cfg, nil)

	t.Run("round trips a valid token", func(t *testing.T) {
		tokenString, err := service.Generate("alice", time.Minute)
		require.NoError(t, err)

		claims, err := service.Validate(tokenString)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject())
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		impl := service.(*auth.TokenServiceImpl)

		past := time.Now().Add(-time.Hour)
		tokenString, err := impl.SignClaims(&auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "alice",
				IssuedAt:  jwt.NewNumericDate(past),
				ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
			},
		})
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("rejects a token signed with a different key", func(t *testing.T) {
		other := newTestConfig()
		other.signingKey = "some-other-key"

		tokenString, err := auth.NewTokenService(other, nil).Generate("alice", time.Minute)
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := service.Validate("not.a.token")
		assert.Error(t, err)
	})

	t.Run("rejects a tampered token", func(t *testing.T) {
		tokenString, err := service.Generate("alice", time.Minute)
		require.NoError(t, err)

		_, err = service.Validate(tokenString + "x")
		assert.Error(t, err)
	})

	t.Run("rejects a token signed with the wrong algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "alice",
			"exp": time.Now().Add(time.Minute).Unix(),
		})
		tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.Validate(tokenString)
		assert.Error(t, err)
	})
}
