package jwtware_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alertline/go-auth/middleware/jwtware"
)

type stubClaims struct {
	subject string
	role    string
	tier    string
	admin   bool
}

func (s stubClaims) Subject() string { return s.subject }
func (s stubClaims) UserID() string  { return s.subject }

func (s stubClaims) HasRole(role string) bool { return role == s.role }
func (s stubClaims) IsAdmin() bool            { return s.admin }

func (s stubClaims) HasTier(minTier string) bool {
	rank := map[string]int{"FREE": 0, "PRO": 1}
	current, ok := rank[s.tier]
	if !ok {
		return false
	}
	required, ok := rank[minTier]
	if !ok {
		return false
	}
	return current >= required
}

type stubValidator struct {
	claims    jwtware.AuthClaims
	err       error
	lastToken string
}

func (v *stubValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	v.lastToken = tokenString
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

func freeUserClaims() stubClaims {
	return stubClaims{subject: "user-1", role: "USER", tier: "FREE"}
}

func baseConfig(validator *stubValidator) jwtware.Config {
	return jwtware.Config{
		TokenValidator: validator,
		SigningKey: jwtware.SigningKey{
			Key:    []byte("test-secret"),
			JWTAlg: jwt.SigningMethodHS256.Alg(),
		},
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	}
}

func runMiddleware(cfg jwtware.Config, ctx router.Context) error {
	handler := jwtware.New(cfg)(func(router.Context) error { return nil })
	return handler(ctx)
}

func TestJWTWare_HeaderExtraction(t *testing.T) {
	validator := &stubValidator{claims: freeUserClaims()}

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer raw-token")
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	err := runMiddleware(baseConfig(validator), ctx)
	require.NoError(t, err)
	assert.Equal(t, "raw-token", validator.lastToken)
	assert.True(t, ctx.NextCalled)
}

func TestJWTWare_MissingToken(t *testing.T) {
	validator := &stubValidator{claims: freeUserClaims()}

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")

	err := runMiddleware(baseConfig(validator), ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), jwtware.ErrJWTMissingOrMalformed.Error())
	assert.False(t, ctx.NextCalled)
}

func TestJWTWare_ValidatorRejects(t *testing.T) {
	validator := &stubValidator{err: errors.New("token is expired")}

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer stale")

	err := runMiddleware(baseConfig(validator), ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestJWTWare_CustomTokenLookup(t *testing.T) {
	validator := &stubValidator{claims: freeUserClaims()}
	cfg := baseConfig(validator)
	cfg.TokenLookup = "query:token,param:jwt,cookie:jwt_cookie"

	t.Run("query", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.QueriesM["token"] = "query-token"
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		require.NoError(t, runMiddleware(cfg, ctx))
		assert.Equal(t, "query-token", validator.lastToken)
	})

	t.Run("param", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.ParamsM["jwt"] = "param-token"
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		require.NoError(t, runMiddleware(cfg, ctx))
		assert.Equal(t, "param-token", validator.lastToken)
	})

	t.Run("cookie", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.CookiesM["jwt_cookie"] = "cookie-token"
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		require.NoError(t, runMiddleware(cfg, ctx))
		assert.Equal(t, "cookie-token", validator.lastToken)
	})

	t.Run("nothing set", func(t *testing.T) {
		ctx := router.NewMockContext()
		err := runMiddleware(cfg, ctx)
		require.Error(t, err)
	})
}

// customPathMock overrides Path() from the base MockContext.
type customPathMock struct {
	*router.MockContext
	pathOverride string
}

func (m *customPathMock) Path() string {
	return m.pathOverride
}

func TestJWTWare_FilterSkipsPublicPaths(t *testing.T) {
	validator := &stubValidator{claims: freeUserClaims()}
	cfg := baseConfig(validator)
	cfg.Filter = func(ctx router.Context) bool {
		return ctx.Path() == "/health"
	}

	ctx := &customPathMock{
		MockContext:  router.NewMockContext(),
		pathOverride: "/health",
	}

	err := runMiddleware(cfg, ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)
	assert.Empty(t, validator.lastToken)
}

func TestJWTWare_RequiredRole(t *testing.T) {
	t.Run("matching role passes", func(t *testing.T) {
		validator := &stubValidator{claims: stubClaims{subject: "admin-1", role: "ADMIN", tier: "FREE", admin: true}}
		cfg := baseConfig(validator)
		cfg.RequiredRole = "ADMIN"

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer token")
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		require.NoError(t, runMiddleware(cfg, ctx))
		assert.True(t, ctx.NextCalled)
	})

	t.Run("missing role rejected", func(t *testing.T) {
		validator := &stubValidator{claims: freeUserClaims()}
		cfg := baseConfig(validator)
		cfg.RequiredRole = "ADMIN"

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer token")

		err := runMiddleware(cfg, ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required role 'ADMIN'")
		assert.False(t, ctx.NextCalled)
	})
}

func TestJWTWare_MinimumTier(t *testing.T) {
	t.Run("tier below minimum rejected", func(t *testing.T) {
		validator := &stubValidator{claims: freeUserClaims()}
		cfg := baseConfig(validator)
		cfg.MinimumTier = "PRO"

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer token")

		err := runMiddleware(cfg, ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "minimum tier 'PRO'")
	})

	t.Run("matching tier passes", func(t *testing.T) {
		validator := &stubValidator{claims: stubClaims{subject: "pro-1", role: "USER", tier: "PRO"}}
		cfg := baseConfig(validator)
		cfg.MinimumTier = "PRO"

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer token")
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		require.NoError(t, runMiddleware(cfg, ctx))
	})

	t.Run("admin bypasses tier gate", func(t *testing.T) {
		validator := &stubValidator{claims: stubClaims{subject: "admin-1", role: "ADMIN", tier: "FREE", admin: true}}
		cfg := baseConfig(validator)
		cfg.MinimumTier = "PRO"

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer token")
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		require.NoError(t, runMiddleware(cfg, ctx))
		assert.True(t, ctx.NextCalled)
	})
}

func TestJWTWare_RoleChecker(t *testing.T) {
	validator := &stubValidator{claims: freeUserClaims()}
	cfg := baseConfig(validator)
	cfg.RequiredRole = "USER"
	cfg.RoleChecker = func(claims jwtware.AuthClaims, role string) bool {
		return false
	}

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer token")

	err := runMiddleware(cfg, ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom role check failed")
}

func TestJWTWare_ValidationListeners(t *testing.T) {
	t.Run("listeners run before authorization", func(t *testing.T) {
		validator := &stubValidator{claims: freeUserClaims()}
		cfg := baseConfig(validator)

		var seen []string
		cfg.ValidationListeners = []jwtware.ValidationListener{
			nil,
			func(ctx router.Context, claims jwtware.AuthClaims) error {
				seen = append(seen, claims.UserID())
				return nil
			},
		}

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer token")
		ctx.On("Locals", "user", mock.Anything).Return(nil)

		require.NoError(t, runMiddleware(cfg, ctx))
		assert.Equal(t, []string{"user-1"}, seen)
	})

	t.Run("listener error rejects the request", func(t *testing.T) {
		validator := &stubValidator{claims: freeUserClaims()}
		cfg := baseConfig(validator)
		cfg.ValidationListeners = []jwtware.ValidationListener{
			func(ctx router.Context, claims jwtware.AuthClaims) error {
				return errors.New("session revoked")
			},
		}

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer token")

		err := runMiddleware(cfg, ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session revoked")
		assert.False(t, ctx.NextCalled)
	})
}

type ctxClaimsKey struct{}

func TestJWTWare_ContextEnricher(t *testing.T) {
	validator := &stubValidator{claims: freeUserClaims()}
	cfg := baseConfig(validator)

	var enriched context.Context
	cfg.ContextEnricher = func(c context.Context, claims jwtware.AuthClaims) context.Context {
		return context.WithValue(c, ctxClaimsKey{}, claims.UserID())
	}

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer token")
	ctx.On("Locals", "user", mock.Anything).Return(nil)
	ctx.On("Context").Return(context.Background())
	ctx.On("SetContext", mock.Anything).Run(func(args mock.Arguments) {
		enriched = args.Get(0).(context.Context)
	}).Return()

	require.NoError(t, runMiddleware(cfg, ctx))
	require.NotNil(t, enriched)
	assert.Equal(t, "user-1", enriched.Value(ctxClaimsKey{}))
}

func TestGetDefaultConfigPanics(t *testing.T) {
	assert.Panics(t, func() {
		jwtware.GetDefaultConfig(jwtware.Config{
			SigningKey: jwtware.SigningKey{Key: []byte("k")},
		})
	}, "missing TokenValidator")

	assert.Panics(t, func() {
		jwtware.GetDefaultConfig(jwtware.Config{
			TokenValidator: &stubValidator{},
		})
	}, "missing signing material")
}

func TestGetExtractors(t *testing.T) {
	extractors := jwtware.GetExtractors("header:Authorization,query:auth,cookie:session")
	assert.Len(t, extractors, 3)

	// unknown sources are skipped
	extractors = jwtware.GetExtractors("body:token")
	assert.Empty(t, extractors)
}

func TestExtractRawTokenFromContext(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.QueriesM["auth"] = "the-token"

	extractors := jwtware.GetExtractors("query:auth")
	raw, err := jwtware.ExtractRawTokenFromContext(ctx, extractors)
	require.NoError(t, err)
	assert.Equal(t, "the-token", raw)

	empty := router.NewMockContext()
	raw, err = jwtware.ExtractRawTokenFromContext(empty, extractors)
	require.Error(t, err)
	assert.Empty(t, raw)
	assert.True(t, strings.Contains(err.Error(), "missing or malformed"))
}
