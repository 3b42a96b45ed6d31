package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseClaims() *JWTClaims {
	now := time.Now().Truncate(time.Second)
	return &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "alertline",
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"app"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UID:       "user-1",
		UserTier:  TierPro,
		UserRole:  RoleUser,
		Affiliate: true,
	}
}

func TestImmutableClaimsSnapshot(t *testing.T) {
	t.Run("untouched claims validate", func(t *testing.T) {
		claims := baseClaims()
		snap := captureImmutableClaims(claims)

		claims.Metadata = map[string]any{"campaign": "launch"}

		assert.NoError(t, snap.validate(claims))
	})

	t.Run("tier mutation is rejected", func(t *testing.T) {
		claims := baseClaims()
		snap := captureImmutableClaims(claims)

		claims.UserTier = TierFree

		err := snap.validate(claims)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tier")
	})

	t.Run("role mutation is rejected", func(t *testing.T) {
		claims := baseClaims()
		snap := captureImmutableClaims(claims)

		claims.UserRole = RoleAdmin

		err := snap.validate(claims)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "role")
	})

	t.Run("affiliate mutation is rejected", func(t *testing.T) {
		claims := baseClaims()
		snap := captureImmutableClaims(claims)

		claims.Affiliate = false

		err := snap.validate(claims)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "isAffiliate")
	})

	t.Run("subject mutation is rejected", func(t *testing.T) {
		claims := baseClaims()
		snap := captureImmutableClaims(claims)

		claims.RegisteredClaims.Subject = "user-2"

		err := snap.validate(claims)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sub")
	})

	t.Run("expiry mutation is rejected", func(t *testing.T) {
		claims := baseClaims()
		snap := captureImmutableClaims(claims)

		claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(48 * time.Hour))

		err := snap.validate(claims)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exp")
	})

	t.Run("audience mutation is rejected", func(t *testing.T) {
		claims := baseClaims()
		snap := captureImmutableClaims(claims)

		claims.RegisteredClaims.Audience = jwt.ClaimStrings{"other"}

		err := snap.validate(claims)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "aud")
	})
}

func TestClaimsDecoratorFunc(t *testing.T) {
	t.Run("nil func is a noop", func(t *testing.T) {
		var fn ClaimsDecoratorFunc
		assert.NoError(t, fn.Decorate(context.Background(), nil, nil))
	})

	t.Run("invokes wrapped func", func(t *testing.T) {
		called := false
		fn := ClaimsDecoratorFunc(func(ctx context.Context, identity Identity, claims *JWTClaims) error {
			called = true
			claims.Metadata = map[string]any{"source": "decorator"}
			return nil
		})

		claims := baseClaims()
		assert.NoError(t, fn.Decorate(context.Background(), nil, claims))
		assert.True(t, called)
		assert.Equal(t, "decorator", claims.Metadata["source"])
	})
}

func TestNormalizeClaimsDecorator(t *testing.T) {
	assert.NotNil(t, normalizeClaimsDecorator(nil))
	assert.NoError(t, normalizeClaimsDecorator(nil).Decorate(context.Background(), nil, nil))
}
