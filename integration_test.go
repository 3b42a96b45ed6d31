package auth_test

import (
	"context"
	"testing"

	auth "github.com/alertline/go-auth"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUserStore struct {
	user *auth.User
}

func (s *memoryUserStore) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	if s.user == nil || auth.NormalizeEmail(s.user.Email) != identifier {
		return nil, auth.ErrIdentityNotFound
	}
	return s.user, nil
}

func (s *memoryUserStore) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	user.LoginAttempts++
	return nil
}

func (s *memoryUserStore) TrackSucccessfulLogin(ctx context.Context, user *auth.User) error {
	user.LoginAttempts = 0
	return nil
}

func TestLoginSessionPermissionIntegration(t *testing.T) {
	ctx := context.Background()
	sink := &sinkRecorder{}

	hash, err := auth.HashPassword("correct-horse-battery")
	require.NoError(t, err)

	store := &memoryUserStore{
		user: &auth.User{
			ID:           uuid.New(),
			Email:        "trader@example.com",
			Name:         "Trader",
			PasswordHash: hash,
			Tier:         auth.TierFree,
			Role:         auth.RoleUser,
			IsActive:     true,
		},
	}

	provider := auth.NewUserProvider(store)

	decorator := auth.ClaimsDecoratorFunc(func(ctx context.Context, identity auth.Identity, claims *auth.JWTClaims) error {
		if claims.Metadata == nil {
			claims.Metadata = map[string]any{}
		}
		claims.Metadata["integration"] = "ok"
		return nil
	})

	authenticator := auth.NewAuthenticator(provider, authConfig{}).
		WithActivitySink(sink).
		WithClaimsDecorator(decorator)

	// a wrong password is the generic credentials failure
	_, err = authenticator.Login(ctx, "trader@example.com", "wrong-password")
	require.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)

	token, err := authenticator.Login(ctx, "Trader@Example.COM", "correct-horse-battery")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claimsAny, err := authenticator.TokenService().Validate(token)
	require.NoError(t, err)

	jwtClaims, ok := claimsAny.(*auth.JWTClaims)
	require.True(t, ok)
	assert.Equal(t, "ok", jwtClaims.Metadata["integration"])
	assert.Equal(t, auth.TierFree, jwtClaims.Tier())

	session, err := authenticator.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, store.user.ID.String(), session.GetUserID())

	// the FREE session hits the tier gate on paid features
	evaluator := auth.NewEvaluator(auth.DefaultPermissionRules())

	decision := evaluator.Evaluate(session, auth.FeatureAllSymbols)
	assert.False(t, decision.CanAccess)
	assert.Equal(t, "All symbols require PRO tier subscription", decision.Reason)

	// billing upgrades the tier through a session refresh
	upgraded, err := authenticator.Refresh(ctx, token, auth.SessionUpdate{Tier: auth.TierPro})
	require.NoError(t, err)
	require.NotEqual(t, token, upgraded)

	proSession, err := authenticator.SessionFromToken(upgraded)
	require.NoError(t, err)
	assert.Equal(t, auth.TierPro, proSession.GetTier())

	decision = evaluator.Evaluate(proSession, auth.FeatureAllSymbols)
	assert.True(t, decision.CanAccess)

	// audit trail: failed login, successful login, tier update
	assert.Len(t, sink.byType(auth.ActivityEventLoginFailure), 1)
	assert.Len(t, sink.byType(auth.ActivityEventLoginSuccess), 1)
	assert.Len(t, sink.byType(auth.ActivityEventTierUpdated), 1)
}
