package auth_test

import (
	"context"
	"testing"
	"time"

	auth "github.com/alertline/go-auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContext(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		user := &auth.User{Email: "trader@example.com"}
		ctx := auth.WithContext(context.Background(), user)

		got, ok := auth.FromContext(ctx)
		assert.True(t, ok)
		assert.Same(t, user, got)
	})

	t.Run("empty context", func(t *testing.T) {
		got, ok := auth.FromContext(context.Background())
		assert.False(t, ok)
		assert.Nil(t, got)
	})
}

func TestClaimsContext(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		claims := &auth.JWTClaims{UID: "user-1", UserTier: auth.TierPro}
		ctx := auth.WithClaimsContext(context.Background(), claims)

		got, ok := auth.GetClaims(ctx)
		assert.True(t, ok)
		assert.Equal(t, "user-1", got.UserID())
		assert.Equal(t, auth.TierPro, got.Tier())
	})

	t.Run("empty context", func(t *testing.T) {
		got, ok := auth.GetClaims(context.Background())
		assert.False(t, ok)
		assert.Nil(t, got)
	})
}

func TestSessionContext(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		session := &auth.SessionObject{UserID: "user-1", Tier: auth.TierFree}
		ctx := auth.WithSessionContext(context.Background(), session)

		got, ok := auth.SessionFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, "user-1", got.GetUserID())
	})

	t.Run("empty context", func(t *testing.T) {
		got, ok := auth.SessionFromContext(context.Background())
		assert.False(t, ok)
		assert.Nil(t, got)
	})
}

func TestGetRouterClaims(t *testing.T) {
	t.Run("claims present under default key", func(t *testing.T) {
		claims := &auth.JWTClaims{UID: "user-1"}

		mockCtx := new(MockContext)
		mockCtx.On("Locals", "user").Return(claims)

		got, ok := auth.GetRouterClaims(mockCtx, "")
		assert.True(t, ok)
		assert.Equal(t, "user-1", got.UserID())
		mockCtx.AssertExpectations(t)
	})

	t.Run("custom key", func(t *testing.T) {
		claims := &auth.JWTClaims{UID: "user-2"}

		mockCtx := new(MockContext)
		mockCtx.On("Locals", "session").Return(claims)

		got, ok := auth.GetRouterClaims(mockCtx, "session")
		assert.True(t, ok)
		assert.Equal(t, "user-2", got.UserID())
	})

	t.Run("missing locals", func(t *testing.T) {
		mockCtx := new(MockContext)
		mockCtx.On("Locals", "user").Return(nil)

		got, ok := auth.GetRouterClaims(mockCtx, "")
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("wrong type", func(t *testing.T) {
		mockCtx := new(MockContext)
		mockCtx.On("Locals", "user").Return("not-claims")

		got, ok := auth.GetRouterClaims(mockCtx, "")
		assert.False(t, ok)
		assert.Nil(t, got)
	})
}

func TestGetRouterSession(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	t.Run("session object passthrough", func(t *testing.T) {
		session := &auth.SessionObject{UserID: "user-1"}

		mockCtx := new(MockContext)
		mockCtx.On("Locals", "user").Return(session)

		got, err := auth.GetRouterSession(mockCtx, "")
		require.NoError(t, err)
		assert.Same(t, session, got)
	})

	t.Run("auth claims", func(t *testing.T) {
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			UserTier: auth.TierPro,
		}

		mockCtx := new(MockContext)
		mockCtx.On("Locals", "user").Return(claims)

		got, err := auth.GetRouterSession(mockCtx, "")
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.GetUserID())
		assert.Equal(t, auth.TierPro, got.GetTier())
	})

	t.Run("parsed jwt token", func(t *testing.T) {
		token := &jwt.Token{
			Claims: jwt.MapClaims{
				"iss":  "alertline",
				"sub":  "user-3",
				"aud":  "app",
				"iat":  float64(now.Unix()),
				"exp":  float64(now.Add(time.Hour).Unix()),
				"tier": "FREE",
				"role": "USER",
			},
		}

		mockCtx := new(MockContext)
		mockCtx.On("Locals", "user").Return(token)

		got, err := auth.GetRouterSession(mockCtx, "")
		require.NoError(t, err)
		assert.Equal(t, "user-3", got.GetUserID())
		assert.Equal(t, auth.TierFree, got.GetTier())
	})

	t.Run("missing session", func(t *testing.T) {
		mockCtx := new(MockContext)
		mockCtx.On("Locals", "user").Return(nil)

		_, err := auth.GetRouterSession(mockCtx, "")
		assert.ErrorIs(t, err, auth.ErrUnableToFindSession)
	})

	t.Run("undecodable locals", func(t *testing.T) {
		mockCtx := new(MockContext)
		mockCtx.On("Locals", "user").Return(42)

		_, err := auth.GetRouterSession(mockCtx, "")
		assert.ErrorIs(t, err, auth.ErrUnableToDecodeSession)
	})
}

func TestIsAdminFromRouter(t *testing.T) {
	t.Run("admin claims", func(t *testing.T) {
		mockCtx := new(MockContext)
		mockCtx.On("Locals", "user").Return(&auth.JWTClaims{UserRole: auth.RoleAdmin})

		assert.True(t, auth.IsAdminFromRouter(mockCtx))
	})

	t.Run("regular claims", func(t *testing.T) {
		mockCtx := new(MockContext)
		mockCtx.On("Locals", "user").Return(&auth.JWTClaims{UserRole: auth.RoleUser})

		assert.False(t, auth.IsAdminFromRouter(mockCtx))
	})

	t.Run("no claims", func(t *testing.T) {
		mockCtx := new(MockContext)
		mockCtx.On("Locals", "user").Return(nil)

		assert.False(t, auth.IsAdminFromRouter(mockCtx))
	})
}
